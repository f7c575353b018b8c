// Package runner executes external programs for trainsweep jobs.
//
// ExecRunner starts a process with inherited standard streams, blocks until it
// exits, and reports the exit code. Start failures (missing executable,
// permission denied) wrap ErrLaunch; non-zero exits return an *ExitError
// alongside the result so callers can apply their own failure policy.
// RetryRunner wraps another Runner and re-runs failed commands.
package runner
