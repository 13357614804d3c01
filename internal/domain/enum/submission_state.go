package enum

import (
	"encoding/json"
)

// SubmissionState tracks where the register is in the order submission flow.
//
//	Idle -> Submitting -> Succeeded | Failed
//
// Failed falls back to Idle on the next operator action.
type SubmissionState int

const (
	SubmissionIdle       SubmissionState = 0
	SubmissionSubmitting SubmissionState = 1
	SubmissionSucceeded  SubmissionState = 2
	SubmissionFailed     SubmissionState = 3
)

func (s SubmissionState) String() string {
	names := [...]string{"Idle", "Submitting", "Succeeded", "Failed"}
	if int(s) < 0 || int(s) >= len(names) {
		return "Idle"
	}
	return names[s]
}

func (s SubmissionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SubmissionState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = SubmissionState(i)
		return nil
	}
	switch str {
	case "Idle":
		*s = SubmissionIdle
	case "Submitting":
		*s = SubmissionSubmitting
	case "Succeeded":
		*s = SubmissionSucceeded
	case "Failed":
		*s = SubmissionFailed
	}
	return nil
}

// CanSubmit reports whether a new submission may start from this state.
func (s SubmissionState) CanSubmit() bool {
	return s == SubmissionIdle || s == SubmissionFailed
}
