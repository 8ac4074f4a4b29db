package domain

import "time"

type ProgressStage string

const (
	StageIdle       ProgressStage = "idle"
	StageExtracting ProgressStage = "extracting"
	StageAnalyzing  ProgressStage = "analyzing"
	StageComplete   ProgressStage = "complete"
	StageFailed     ProgressStage = "failed"
)

// InFlight reports whether a remote call is outstanding in this stage.
func (s ProgressStage) InFlight() bool {
	return s == StageExtracting || s == StageAnalyzing
}

func (s ProgressStage) Terminal() bool {
	return s == StageComplete || s == StageFailed
}

// Step is the 1-based position on the four-step progress indicator.
func (s ProgressStage) Step() int {
	switch s {
	case StageExtracting:
		return 1
	case StageAnalyzing:
		return 2
	case StageComplete:
		return 3
	default:
		return 0
	}
}

type ProgressState struct {
	Stage        ProgressStage `json:"stage"`
	SubmissionID string        `json:"submission_id,omitempty"`
	Error        string        `json:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at,omitempty"`
}

// ProgressEvent is emitted on every stage transition.
type ProgressEvent struct {
	SubmissionID string        `json:"submission_id"`
	Stage        ProgressStage `json:"stage"`
	Reason       string        `json:"reason,omitempty"`
	PageCount    int           `json:"page_count"`
	Elapsed      time.Duration `json:"elapsed_ns"`
	At           time.Time     `json:"at"`
}
