package scanner

import (
	"bytes"
	"encoding/base64"
	"image"

	"github.com/disintegration/imaging"
)

// Pass names, in the order they are tried.
const (
	PassOriginal     = "original"
	PassHighContrast = "high-contrast"
	PassSharpened    = "sharpened"
	PassCenterCrop   = "center-crop"
)

// Attempt records one enhancement pass over a still frame.
type Attempt struct {
	Pass    string `json:"pass"`
	Preview string `json:"preview,omitempty"`
}

// FallbackResult is what a still capture produced. Attempts is filled even
// when nothing decoded.
type FallbackResult struct {
	Result   Result
	Pass     string
	Attempts []Attempt
}

type pass struct {
	name   string
	filter func(image.Image) image.Image
}

// Fallback decodes a single still frame, retrying with image enhancements.
type Fallback struct {
	decoder      Decoder
	previewWidth int
	passes       []pass
}

// NewFallback builds the still-capture pipeline. previewWidth <= 0 disables previews.
func NewFallback(decoder Decoder, previewWidth int) *Fallback {
	return &Fallback{
		decoder:      decoder,
		previewWidth: previewWidth,
		passes: []pass{
			{PassOriginal, func(img image.Image) image.Image { return img }},
			{PassHighContrast, func(img image.Image) image.Image {
				return imaging.AdjustContrast(imaging.Grayscale(img), 60)
			}},
			{PassSharpened, func(img image.Image) image.Image {
				return imaging.Sharpen(imaging.Grayscale(img), 2)
			}},
			{PassCenterCrop, func(img image.Image) image.Image {
				b := img.Bounds()
				cropped := imaging.CropCenter(img, b.Dx()*6/10, b.Dy()*6/10)
				return imaging.AdjustContrast(cropped, 40)
			}},
		},
	}
}

// Decode runs the passes in order and stops at the first one that reads a code.
func (f *Fallback) Decode(img image.Image) (FallbackResult, error) {
	var out FallbackResult
	if img == nil {
		return out, ErrNotFound
	}
	for _, p := range f.passes {
		candidate := p.filter(img)
		out.Attempts = append(out.Attempts, Attempt{Pass: p.name, Preview: f.preview(candidate)})

		res, err := f.decoder.Decode(candidate)
		if err != nil {
			continue
		}
		out.Result = res
		out.Pass = p.name
		return out, nil
	}
	return out, ErrNotFound
}

func (f *Fallback) preview(img image.Image) string {
	if f.previewWidth <= 0 {
		return ""
	}
	thumb := imaging.Resize(img, f.previewWidth, 0, imaging.Box)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(70)); err != nil {
		return ""
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
