package ledger

import "time"

// Kind identifies which external program a record describes.
type Kind string

const (
	KindTrain   Kind = "train"
	KindPrepare Kind = "prepare"
)

// Status is the lifecycle state of a recorded job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Record is one launched job.
type Record struct {
	ID         int64      `json:"id"`
	RunID      string     `json:"run_id"`
	Kind       Kind       `json:"kind"`
	Dataset    string     `json:"dataset"`
	Condition  string     `json:"condition"`
	Device     string     `json:"device"`
	Path       string     `json:"path"`
	Command    string     `json:"command"`
	Status     Status     `json:"status"`
	ExitCode   *int       `json:"exit_code,omitempty"`
	Attempts   int        `json:"attempts"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Outcome is applied to a record when its job finishes.
type Outcome struct {
	Status   Status
	ExitCode int
	Attempts int
	Error    string
}

// Filter narrows List results.
type Filter struct {
	Dataset string
	RunID   string
	Limit   int
}
