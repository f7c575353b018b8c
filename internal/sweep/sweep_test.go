package sweep_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"

	"trainsweep/internal/config"
	"trainsweep/internal/ledger"
	"trainsweep/internal/logging"
	"trainsweep/internal/runner"
	"trainsweep/internal/scan"
	"trainsweep/internal/sweep"
)

type fakeRunner struct {
	calls []runner.Command
	// exits maps a condition label to the exit codes returned on successive calls.
	exits     map[string][]int
	launchErr error
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Command) (runner.Result, error) {
	f.calls = append(f.calls, cmd)
	if f.launchErr != nil {
		return runner.Result{ExitCode: -1}, f.launchErr
	}
	condition := argValue(cmd.Args, "--condition")
	codes := f.exits[condition]
	if len(codes) == 0 {
		return runner.Result{Attempts: 1}, nil
	}
	code := codes[0]
	f.exits[condition] = codes[1:]
	if code == 0 {
		return runner.Result{Attempts: 1}, nil
	}
	return runner.Result{ExitCode: code, Attempts: 1}, &runner.ExitError{Command: cmd.String(), Code: code}
}

func argValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

type memRecorder struct {
	begun    []ledger.Record
	finished map[int64]ledger.Outcome
}

func (m *memRecorder) Begin(_ context.Context, rec ledger.Record) (int64, error) {
	m.begun = append(m.begun, rec)
	return int64(len(m.begun)), nil
}

func (m *memRecorder) Finish(_ context.Context, id int64, outcome ledger.Outcome) error {
	if m.finished == nil {
		m.finished = map[int64]ledger.Outcome{}
	}
	m.finished[id] = outcome
	return nil
}

type fixture struct {
	cfg      *config.Config
	scanner  *scan.Scanner
	runner   *fakeRunner
	recorder *memRecorder
	out      *bytes.Buffer
}

func newFixture(t *testing.T, dirs ...string) *fixture {
	t.Helper()
	fsys := memfs.New()
	for _, dir := range dirs {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	cfg := config.Default()
	cfg.Sweep.Root = "data"
	cfg.Retry.DelaySeconds = 0

	f := &fixture{
		cfg:      &cfg,
		runner:   &fakeRunner{exits: map[string][]int{}},
		recorder: &memRecorder{},
		out:      &bytes.Buffer{},
	}
	f.scanner = scan.New(fsys, cfg.Sweep.Suffix, logging.NewNop())
	return f
}

func (f *fixture) build(t *testing.T) *sweep.Sweep {
	t.Helper()
	sw, err := sweep.New(f.cfg,
		sweep.WithScanner(f.scanner),
		sweep.WithRunner(f.runner),
		sweep.WithRecorder(f.recorder),
		sweep.WithLogger(logging.NewNop()),
		sweep.WithOutput(f.out),
		sweep.WithRunIDs(func() string { return "run-test" }),
	)
	if err != nil {
		t.Fatalf("sweep.New: %v", err)
	}
	return sw
}

func TestRunLaunchesBothConditionsInOrder(t *testing.T) {
	f := newFixture(t, "data/PrepaidTravelCost/train_test")
	summary, err := f.build(t).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(f.runner.calls) != 2 {
		t.Fatalf("expected 2 launches, got %d", len(f.runner.calls))
	}
	wantConditions := []string{"trace_time", "resource_usage"}
	for i, call := range f.runner.calls {
		if call.Program != "python" {
			t.Fatalf("unexpected program %q", call.Program)
		}
		wantArgs := []string{"train.py", "--dataset", "PrepaidTravelCost", "--condition", wantConditions[i], "--device", "cuda"}
		if !reflect.DeepEqual(call.Args, wantArgs) {
			t.Fatalf("call %d args = %v, want %v", i, call.Args, wantArgs)
		}
	}
	if summary.RunID != "run-test" || summary.Matches != 1 || summary.Launched != 2 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunWritesDiagnostics(t *testing.T) {
	f := newFixture(t, "data/PrepaidTravelCost/train_test")
	if _, err := f.build(t).Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := "PrepaidTravelCost\n" +
		"Running PrepaidTravelCost under condition trace_time\n" +
		"Running PrepaidTravelCost under condition resource_usage\n"
	if f.out.String() != want {
		t.Fatalf("unexpected diagnostics:\n%s\nwant:\n%s", f.out.String(), want)
	}
}

func TestRunSkipsOtherDatasets(t *testing.T) {
	f := newFixture(t, "data/OtherDataset/train_test")
	summary, err := f.build(t).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(f.runner.calls) != 0 || summary.Launched != 0 {
		t.Fatalf("expected no launches, got %d", len(f.runner.calls))
	}
	if f.out.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %q", f.out.String())
	}
}

func TestRunRequiresExactSuffix(t *testing.T) {
	f := newFixture(t, "data/PrepaidTravelCost/train_test2", "data/PrepaidTravelCost/train_test_old")
	if _, err := f.build(t).Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(f.runner.calls) != 0 {
		t.Fatalf("expected suffix mismatch to be skipped, got %d launches", len(f.runner.calls))
	}
}

func TestRunMissingRootIsSilent(t *testing.T) {
	f := newFixture(t)
	f.cfg.Sweep.Root = "nowhere"
	summary, err := f.build(t).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Matches != 0 || f.out.Len() != 0 {
		t.Fatalf("expected empty run, got %+v / %q", summary, f.out.String())
	}
}

func TestRunMalformedPathFails(t *testing.T) {
	f := newFixture(t, "train_test")
	f.cfg.Sweep.Root = "train_test"
	_, err := f.build(t).Run(context.Background())
	if !errors.Is(err, scan.ErrMalformedPath) {
		t.Fatalf("expected ErrMalformedPath, got %v", err)
	}
}

func TestRunIsRepeatable(t *testing.T) {
	f := newFixture(t, "data/PrepaidTravelCost/train_test", "data/b/PrepaidTravelCost/train_test")
	sw := f.build(t)
	if _, err := sw.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := append([]runner.Command(nil), f.runner.calls...)
	f.runner.calls = nil
	if _, err := sw.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(first) != 4 {
		t.Fatalf("expected 4 launches per run, got %d", len(first))
	}
	if !reflect.DeepEqual(first, f.runner.calls) {
		t.Fatalf("runs differ:\n%v\n%v", first, f.runner.calls)
	}
}

func TestContinuePolicyIgnoresNonZeroExit(t *testing.T) {
	f := newFixture(t, "data/PrepaidTravelCost/train_test")
	f.runner.exits["trace_time"] = []int{1}

	summary, err := f.build(t).Run(context.Background())
	if err != nil {
		t.Fatalf("continue policy should not fail the sweep: %v", err)
	}
	if len(f.runner.calls) != 2 || summary.Failed != 1 {
		t.Fatalf("expected both conditions to run with one failure, got calls=%d summary=%+v", len(f.runner.calls), summary)
	}
	if f.recorder.finished[1].Status != ledger.StatusFailed || f.recorder.finished[1].ExitCode != 1 {
		t.Fatalf("expected failed ledger outcome, got %+v", f.recorder.finished[1])
	}
	if f.recorder.finished[2].Status != ledger.StatusSucceeded {
		t.Fatalf("expected succeeded ledger outcome, got %+v", f.recorder.finished[2])
	}
}

func TestAbortPolicyStopsOnNonZeroExit(t *testing.T) {
	f := newFixture(t, "data/PrepaidTravelCost/train_test")
	f.cfg.Sweep.OnJobFailure = config.PolicyAbort
	f.runner.exits["trace_time"] = []int{3}

	summary, err := f.build(t).Run(context.Background())
	var jobErr *sweep.JobError
	if !errors.As(err, &jobErr) {
		t.Fatalf("expected JobError, got %v", err)
	}
	if jobErr.ExitCode != 3 || jobErr.Step.Job.Condition != "trace_time" {
		t.Fatalf("unexpected job error: %+v", jobErr)
	}
	if len(f.runner.calls) != 1 || summary.Launched != 1 {
		t.Fatalf("expected sweep to stop after first job, got %d calls", len(f.runner.calls))
	}
}

func TestRetryPolicyRerunsThenContinues(t *testing.T) {
	f := newFixture(t, "data/PrepaidTravelCost/train_test")
	f.cfg.Sweep.OnJobFailure = config.PolicyRetry
	f.cfg.Retry.MaxAttempts = 2
	f.runner.exits["trace_time"] = []int{1, 1}
	f.runner.exits["resource_usage"] = []int{1, 0}

	summary, err := f.build(t).Run(context.Background())
	if err != nil {
		t.Fatalf("retry policy should not fail the sweep: %v", err)
	}
	if len(f.runner.calls) != 4 {
		t.Fatalf("expected 4 process starts, got %d", len(f.runner.calls))
	}
	if summary.Failed != 1 || summary.Outcomes[0].Attempts != 2 || summary.Outcomes[1].Attempts != 2 {
		t.Fatalf("unexpected outcomes: %+v", summary.Outcomes)
	}
	if summary.Outcomes[1].Failed() {
		t.Fatal("expected second condition to succeed on retry")
	}
}

func TestLaunchFailureAbortsUnderContinuePolicy(t *testing.T) {
	f := newFixture(t, "data/PrepaidTravelCost/train_test")
	f.runner.launchErr = fmt.Errorf("%w: python: executable file not found", runner.ErrLaunch)

	summary, err := f.build(t).Run(context.Background())
	if !errors.Is(err, runner.ErrLaunch) {
		t.Fatalf("expected launch failure, got %v", err)
	}
	if len(f.runner.calls) != 1 {
		t.Fatalf("expected sweep to stop after launch failure, got %d calls", len(f.runner.calls))
	}
	if summary.Launched != 0 || summary.Failed != 1 {
		t.Fatalf("a step that never started is failed but not launched, got launched=%d failed=%d", summary.Launched, summary.Failed)
	}
}

func TestDataPrepRunsBeforeTraining(t *testing.T) {
	f := newFixture(t, "data/PrepaidTravelCost/train_test")
	f.cfg.Sweep.RunDataPrep = true
	f.cfg.DataPrep.Command = []string{"python", "prepare_data.py"}

	if _, err := f.build(t).Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(f.runner.calls) != 4 {
		t.Fatalf("expected prep+train per condition, got %d calls", len(f.runner.calls))
	}
	prep := f.runner.calls[0]
	wantPrep := []string{"prepare_data.py", "--path", "data/PrepaidTravelCost/train_test", "--dataset", "PrepaidTravelCost", "--condition", "trace_time"}
	if !reflect.DeepEqual(prep.Args, wantPrep) {
		t.Fatalf("unexpected prep args %v", prep.Args)
	}
	if argValue(f.runner.calls[1].Args, "--condition") != "trace_time" || f.runner.calls[1].Args[0] != "train.py" {
		t.Fatalf("expected training after prep, got %v", f.runner.calls[1].Args)
	}
	if f.recorder.begun[0].Kind != ledger.KindPrepare || f.recorder.begun[1].Kind != ledger.KindTrain {
		t.Fatalf("unexpected ledger kinds: %+v", f.recorder.begun)
	}
}

func TestExtraArgsAndWorkDirPassThrough(t *testing.T) {
	f := newFixture(t, "data/PrepaidTravelCost/train_test")
	f.cfg.Trainer.ExtraArgs = []string{"--epochs", "5"}
	f.cfg.Trainer.WorkDir = "/srv/cosmo"
	f.cfg.Sweep.Conditions = []string{"trace_time"}

	if _, err := f.build(t).Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	call := f.runner.calls[0]
	if call.Dir != "/srv/cosmo" {
		t.Fatalf("expected workdir, got %q", call.Dir)
	}
	if !strings.HasSuffix(strings.Join(call.Args, " "), "--device cuda --epochs 5") {
		t.Fatalf("expected extra args after job flags, got %v", call.Args)
	}
}

func TestPlanMatchesRunOrder(t *testing.T) {
	f := newFixture(t, "data/PrepaidTravelCost/train_test", "data/Other/train_test")
	sw := f.build(t)

	steps, err := sw.Plan(context.Background())
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(f.runner.calls) != 0 || f.out.Len() != 0 {
		t.Fatal("plan must not launch or print diagnostics")
	}
	if _, err := sw.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(steps) != len(f.runner.calls) {
		t.Fatalf("plan has %d steps, run launched %d", len(steps), len(f.runner.calls))
	}
	for i, step := range steps {
		if !reflect.DeepEqual(step.Command.Args, f.runner.calls[i].Args) {
			t.Fatalf("step %d differs: %v vs %v", i, step.Command.Args, f.runner.calls[i].Args)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]sweep.Policy{
		"":         sweep.PolicyContinue,
		"continue": sweep.PolicyContinue,
		" ABORT ":  sweep.PolicyAbort,
		"retry":    sweep.PolicyRetry,
	} {
		got, err := sweep.ParsePolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParsePolicy(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := sweep.ParsePolicy("ignore"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}
