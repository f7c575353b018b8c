package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for sweep run identifiers.
	FieldRunID = "run_id"
	// FieldDataset is the standardized structured logging key for dataset names.
	FieldDataset = "dataset"
	// FieldCondition is the standardized structured logging key for condition labels.
	FieldCondition = "condition"
	// FieldEventType tags records that mark a lifecycle event.
	FieldEventType = "event_type"
)

type contextKey int

const (
	runIDKey contextKey = iota
	datasetKey
	conditionKey
)

// WithRunID returns a context carrying the sweep run identifier.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithJob returns a context carrying the dataset and condition of the job in flight.
func WithJob(ctx context.Context, dataset, condition string) context.Context {
	ctx = context.WithValue(ctx, datasetKey, dataset)
	return context.WithValue(ctx, conditionKey, condition)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := ctx.Value(runIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if dataset, ok := ctx.Value(datasetKey).(string); ok {
		fields = append(fields, slog.String(FieldDataset, dataset))
	}
	if condition, ok := ctx.Value(conditionKey).(string); ok && condition != "" {
		fields = append(fields, slog.String(FieldCondition, condition))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, 0, len(fields))
	for _, field := range fields {
		args = append(args, field)
	}
	return logger.With(args...)
}
