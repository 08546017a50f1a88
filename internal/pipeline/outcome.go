package pipeline

import "context"

// Status is the final state of one subject in a run.
type Status string

const (
	StatusConverted Status = "converted"
	// StatusFailed covers conversion errors and fatal aborts.
	StatusFailed Status = "failed"
	// StatusSkipped covers subjects without a session or auxiliary files.
	StatusSkipped Status = "skipped"
)

// Outcome describes what happened to one subject.
type Outcome struct {
	Subject     string
	SessionPath string
	// Number is the assigned sequential identifier, zero unless converted.
	// A converted outcome may still carry Err when the run aborted while
	// copying its anatomical files.
	Number    int
	Status    Status
	OutputDir string
	Err       error
}

// Recorder persists subject outcomes. Errors are logged, not fatal.
type Recorder interface {
	RecordSubject(ctx context.Context, outcome Outcome) error
}

// SubjectFailure is a subject that did not convert.
type SubjectFailure struct {
	Subject     string
	SessionPath string
	Status      Status
	Err         error
}

// Summary totals a ConvertAll call.
type Summary struct {
	Total     int
	Converted int
	Failed    []SubjectFailure
	Skipped   []SubjectFailure
}

func (s *Summary) add(f SubjectFailure) {
	if f.Status == StatusSkipped {
		s.Skipped = append(s.Skipped, f)
		return
	}
	s.Failed = append(s.Failed, f)
}
