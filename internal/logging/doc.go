// Package logging assembles structured slog loggers and formatting helpers used
// across trainsweep.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context helpers so launcher code can tag log lines with the run
// ID, dataset and condition of the job in flight. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
