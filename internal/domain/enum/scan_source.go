package enum

import (
	"encoding/json"
	"strings"
)

// ScanSource identifies where a barcode came from.
type ScanSource int

const (
	// ScanSourceCamera is a code decoded by the continuous camera loop.
	ScanSourceCamera ScanSource = 0
	// ScanSourceCapture is a code decoded from a still frame by the fallback passes.
	ScanSourceCapture ScanSource = 1
	// ScanSourceManual is a code typed by the operator.
	ScanSourceManual ScanSource = 2
)

func (s ScanSource) String() string {
	names := [...]string{"camera", "capture", "manual"}
	if int(s) < 0 || int(s) >= len(names) {
		return "camera"
	}
	return names[s]
}

// Deduplicated reports whether codes from this source go through the dedupe window.
// Typed codes are an explicit operator action and are never suppressed.
func (s ScanSource) Deduplicated() bool {
	return s != ScanSourceManual
}

func (s ScanSource) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ScanSource) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = ScanSource(i)
		return nil
	}
	*s = ParseScanSource(str)
	return nil
}

// ParseScanSource maps a source name to a ScanSource, defaulting to camera.
func ParseScanSource(name string) ScanSource {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "capture":
		return ScanSourceCapture
	case "manual", "keyboard", "typed":
		return ScanSourceManual
	default:
		return ScanSourceCamera
	}
}
