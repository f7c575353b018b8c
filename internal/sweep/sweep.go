package sweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"trainsweep/internal/config"
	"trainsweep/internal/ledger"
	"trainsweep/internal/logging"
	"trainsweep/internal/runner"
	"trainsweep/internal/scan"
)

// Summary describes a finished (or aborted) sweep.
type Summary struct {
	RunID      string
	Matches    int
	Launched   int
	Failed     int
	Outcomes   []Outcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// Sweep scans for the target dataset and launches its jobs.
type Sweep struct {
	cfg      *config.Config
	policy   Policy
	scanner  *scan.Scanner
	runner   runner.Runner
	recorder Recorder
	logger   *slog.Logger
	out      io.Writer
	stdout   io.Writer
	stderr   io.Writer
	newRunID func() string
}

// Option customizes a Sweep.
type Option func(*Sweep)

// WithScanner replaces the host filesystem scanner.
func WithScanner(s *scan.Scanner) Option {
	return func(sw *Sweep) { sw.scanner = s }
}

// WithRunner replaces the process runner. The retry policy still wraps it.
func WithRunner(r runner.Runner) Option {
	return func(sw *Sweep) { sw.runner = r }
}

// WithRecorder records launched steps, typically into the ledger.
func WithRecorder(r Recorder) Option {
	return func(sw *Sweep) { sw.recorder = r }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(sw *Sweep) { sw.logger = logger }
}

// WithOutput sets where diagnostic lines are written.
func WithOutput(w io.Writer) Option {
	return func(sw *Sweep) { sw.out = w }
}

// WithProcessOutput sets the standard streams handed to launched programs.
func WithProcessOutput(stdout, stderr io.Writer) Option {
	return func(sw *Sweep) {
		sw.stdout = stdout
		sw.stderr = stderr
	}
}

// WithRunIDs overrides run identifier generation.
func WithRunIDs(fn func() string) Option {
	return func(sw *Sweep) { sw.newRunID = fn }
}

// New builds a sweep from validated configuration.
func New(cfg *config.Config, opts ...Option) (*Sweep, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	policy, err := ParsePolicy(cfg.Sweep.OnJobFailure)
	if err != nil {
		return nil, err
	}

	sw := &Sweep{
		cfg:      cfg,
		policy:   policy,
		recorder: nopRecorder{},
		out:      os.Stdout,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(sw)
	}
	sw.logger = logging.NewComponentLogger(sw.logger, "sweep")
	if sw.scanner == nil {
		sw.scanner = scan.NewOS(cfg.Sweep.Suffix, sw.logger)
	}
	if sw.runner == nil {
		sw.runner = runner.NewExecRunner()
	}
	if policy == PolicyRetry {
		sw.runner = runner.NewRetryRunner(sw.runner,
			runner.WithMaxAttempts(cfg.Retry.MaxAttempts),
			runner.WithDelay(cfg.RetryDelay()),
			runner.WithLogger(sw.logger),
		)
	}
	if sw.recorder == nil {
		sw.recorder = nopRecorder{}
	}
	if sw.out == nil {
		sw.out = io.Discard
	}
	return sw, nil
}

// Policy returns the active failure policy.
func (s *Sweep) Policy() Policy {
	return s.policy
}

// Plan walks the scan root and returns the steps Run would launch, in order.
func (s *Sweep) Plan(ctx context.Context) ([]Step, error) {
	var steps []Step
	err := s.eachJob(ctx, func(job Job, first bool) error {
		steps = append(steps, s.steps(job)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return steps, nil
}

// Run launches every step for the target dataset.
func (s *Sweep) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: s.newRunID(), StartedAt: time.Now()}
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, s.logger)

	logger.Info("sweep started",
		logging.String(logging.FieldEventType, "sweep_start"),
		logging.String("root", s.cfg.Sweep.Root),
		logging.String("target_dataset", s.cfg.Sweep.TargetDataset),
		logging.Strings("conditions", s.cfg.Sweep.Conditions),
		logging.String("device", s.cfg.Sweep.Device),
		logging.String("policy", string(s.policy)),
	)

	err := s.eachJob(ctx, func(job Job, first bool) error {
		if first {
			summary.Matches++
			fmt.Fprintln(s.out, job.Dataset)
		}
		fmt.Fprintf(s.out, "Running %s under condition %s\n", job.Dataset, job.Condition)
		jobCtx := logging.WithJob(ctx, job.Dataset, job.Condition)
		for _, step := range s.steps(job) {
			outcome, err := s.launch(jobCtx, summary.RunID, step)
			if !errors.Is(err, runner.ErrLaunch) {
				summary.Launched++
			}
			summary.Outcomes = append(summary.Outcomes, outcome)
			if outcome.Failed() {
				summary.Failed++
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	summary.FinishedAt = time.Now()

	if err != nil {
		logger.Error("sweep stopped",
			logging.String(logging.FieldEventType, "sweep_abort"),
			logging.Int("launched", summary.Launched),
			logging.Int("failed", summary.Failed),
			logging.Error(err),
		)
		return summary, err
	}
	logger.Info("sweep finished",
		logging.String(logging.FieldEventType, "sweep_complete"),
		logging.Int("matches", summary.Matches),
		logging.Int("launched", summary.Launched),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return summary, nil
}

// eachJob walks the root and calls fn for every condition of every folder
// whose dataset name equals the target. first is true for the first
// condition of each folder.
func (s *Sweep) eachJob(ctx context.Context, fn func(job Job, first bool) error) error {
	target := s.cfg.Sweep.TargetDataset
	return s.scanner.Walk(ctx, s.cfg.Sweep.Root, func(m scan.Match) error {
		if m.Dataset != target {
			s.logger.Debug("skipping dataset",
				logging.String(logging.FieldDataset, m.Dataset),
				logging.String("path", m.Path),
			)
			return nil
		}
		for i, condition := range s.cfg.Sweep.Conditions {
			job := Job{
				Dataset:   m.Dataset,
				Condition: condition,
				Device:    s.cfg.Sweep.Device,
				Path:      m.Path,
			}
			if err := fn(job, i == 0); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Sweep) steps(job Job) []Step {
	steps := make([]Step, 0, 2)
	if s.cfg.Sweep.RunDataPrep {
		cmd := buildCommand(s.cfg.DataPrep, job.PrepareArgs())
		steps = append(steps, Step{Job: job, Kind: ledger.KindPrepare, Command: cmd, Line: cmd.String()})
	}
	cmd := buildCommand(s.cfg.Trainer, job.TrainArgs())
	steps = append(steps, Step{Job: job, Kind: ledger.KindTrain, Command: cmd, Line: cmd.String()})
	return steps
}

// launch runs one step and applies the failure policy. A non-nil error stops the sweep.
func (s *Sweep) launch(ctx context.Context, runID string, step Step) (Outcome, error) {
	logger := logging.WithContext(ctx, s.logger)
	cmd := step.Command
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	recordID, recErr := s.recorder.Begin(ctx, ledger.Record{
		RunID:     runID,
		Kind:      step.Kind,
		Dataset:   step.Job.Dataset,
		Condition: step.Job.Condition,
		Device:    step.Job.Device,
		Path:      step.Job.Path,
		Command:   step.Line,
		StartedAt: time.Now(),
	})
	if recErr != nil {
		logger.Warn("ledger begin failed", logging.Error(recErr))
	}

	logger.Info("launching job",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("kind", string(step.Kind)),
		logging.String("command", step.Line),
	)
	res, err := s.runner.Run(ctx, cmd)
	outcome := Outcome{Step: step, ExitCode: res.ExitCode, Attempts: res.Attempts, Duration: res.Duration, Err: err}
	if outcome.Attempts == 0 {
		outcome.Attempts = 1
	}

	if recErr == nil {
		status := ledger.StatusSucceeded
		var message string
		if err != nil {
			status = ledger.StatusFailed
			message = err.Error()
		}
		if finishErr := s.recorder.Finish(context.WithoutCancel(ctx), recordID, ledger.Outcome{
			Status:   status,
			ExitCode: outcome.ExitCode,
			Attempts: outcome.Attempts,
			Error:    message,
		}); finishErr != nil {
			logger.Warn("ledger finish failed", logging.Error(finishErr))
		}
	}

	if err == nil {
		logger.Info("job finished",
			logging.String(logging.FieldEventType, "job_complete"),
			logging.String("kind", string(step.Kind)),
			logging.Int("attempts", outcome.Attempts),
			logging.Duration("duration", outcome.Duration),
		)
		return outcome, nil
	}

	if !runner.IsExitError(err) {
		// Launch failures and cancellation stop the sweep under every policy.
		return outcome, fmt.Errorf("%s %s/%s: %w", step.Kind, step.Job.Dataset, step.Job.Condition, err)
	}

	if s.policy == PolicyAbort {
		return outcome, &JobError{Step: step, ExitCode: outcome.ExitCode, Err: err}
	}
	logger.Warn("job failed, continuing",
		logging.String(logging.FieldEventType, "job_failed"),
		logging.String("kind", string(step.Kind)),
		logging.Int("exit_code", outcome.ExitCode),
		logging.Int("attempts", outcome.Attempts),
		logging.Error(err),
	)
	return outcome, nil
}
