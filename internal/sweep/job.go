package sweep

import (
	"fmt"
	"time"

	"trainsweep/internal/config"
	"trainsweep/internal/ledger"
	"trainsweep/internal/runner"
)

// Job is one dataset/condition pair bound to a device.
type Job struct {
	Dataset   string `json:"dataset"`
	Condition string `json:"condition"`
	Device    string `json:"device"`
	Path      string `json:"path"`
}

// TrainArgs returns the flags passed to the training program.
func (j Job) TrainArgs() []string {
	return []string{"--dataset", j.Dataset, "--condition", j.Condition, "--device", j.Device}
}

// PrepareArgs returns the flags passed to the data-preparation program.
func (j Job) PrepareArgs() []string {
	return []string{"--path", j.Path, "--dataset", j.Dataset, "--condition", j.Condition}
}

// Step is a single process launch planned for a job.
type Step struct {
	Job     Job            `json:"job"`
	Kind    ledger.Kind    `json:"kind"`
	Command runner.Command `json:"-"`
	Line    string         `json:"command"`
}

// Outcome reports how a launched step finished.
type Outcome struct {
	Step     Step
	ExitCode int
	Attempts int
	Duration time.Duration
	Err      error
}

// Failed reports whether the step exited unsuccessfully.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// JobError is returned when the abort policy stops a sweep after a failed step.
type JobError struct {
	Step     Step
	ExitCode int
	Err      error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s %s/%s failed with exit code %d", e.Step.Kind, e.Step.Job.Dataset, e.Step.Job.Condition, e.ExitCode)
}

func (e *JobError) Unwrap() error { return e.Err }

func buildCommand(program config.Program, jobArgs []string) runner.Command {
	cmd := runner.Command{Dir: program.WorkDir, Env: program.Env}
	if len(program.Command) > 0 {
		cmd.Program = program.Command[0]
		cmd.Args = append(cmd.Args, program.Command[1:]...)
	}
	cmd.Args = append(cmd.Args, jobArgs...)
	cmd.Args = append(cmd.Args, program.ExtraArgs...)
	return cmd
}
