package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// ErrLaunch reports that a process could not be started.
var ErrLaunch = errors.New("launch failed")

// Command describes a single process invocation.
type Command struct {
	Program string
	Args    []string
	Dir     string
	// Env is appended to the current environment.
	Env    map[string]string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command line for logs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Program)
	parts = append(parts, c.Args...)
	return strings.Join(parts, " ")
}

// Result holds the outcome of a command execution.
type Result struct {
	ExitCode int
	Attempts int
	Duration time.Duration
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExitError reports a process that ran but exited unsuccessfully.
type ExitError struct {
	Command string
	Code    int
	Err     error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Command, e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExecRunner runs commands as child processes.
type ExecRunner struct {
	// GracePeriod is how long a cancelled process gets between the interrupt
	// signal and a hard kill.
	GracePeriod time.Duration
}

// NewExecRunner returns an ExecRunner with a ten second grace period.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{GracePeriod: 10 * time.Second}
}

// Run starts cmd and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, command Command) (Result, error) {
	if strings.TrimSpace(command.Program) == "" {
		return Result{ExitCode: -1}, fmt.Errorf("%w: program is empty", ErrLaunch)
	}

	cmd := exec.CommandContext(ctx, command.Program, command.Args...)
	cmd.Dir = command.Dir
	cmd.Env = buildEnv(command.Env)
	cmd.Stdin = orReader(command.Stdin, os.Stdin)
	cmd.Stdout = orWriter(command.Stdout, os.Stdout)
	cmd.Stderr = orWriter(command.Stderr, os.Stderr)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	if r != nil && r.GracePeriod > 0 {
		cmd.WaitDelay = r.GracePeriod
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1, Attempts: 1}, fmt.Errorf("%w: %s: %w", ErrLaunch, command.Program, err)
	}
	err := cmd.Wait()
	result := Result{Attempts: 1, Duration: time.Since(start)}
	if err == nil {
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ExitCode = -1
		return result, fmt.Errorf("%s interrupted: %w", command.Program, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, &ExitError{Command: command.String(), Code: result.ExitCode, Err: err}
	}
	result.ExitCode = -1
	return result, fmt.Errorf("wait for %s: %w", command.Program, err)
}

func buildEnv(extra map[string]string) []string {
	if len(extra) == 0 {
		return nil
	}
	env := os.Environ()
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, extra[k]))
	}
	return env
}

func orReader(r io.Reader, fallback io.Reader) io.Reader {
	if r != nil {
		return r
	}
	return fallback
}

func orWriter(w io.Writer, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
