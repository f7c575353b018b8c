package sweep

import (
	"context"

	"trainsweep/internal/ledger"
)

// Recorder stores the lifecycle of launched steps.
type Recorder interface {
	Begin(ctx context.Context, rec ledger.Record) (int64, error)
	Finish(ctx context.Context, id int64, outcome ledger.Outcome) error
}

type nopRecorder struct{}

func (nopRecorder) Begin(context.Context, ledger.Record) (int64, error) { return 0, nil }

func (nopRecorder) Finish(context.Context, int64, ledger.Outcome) error { return nil }
