package ledger_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"trainsweep/internal/ledger"
)

func openStore(t *testing.T) (*ledger.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "ledger.db")
	store, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestBeginFinishList(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	first, err := store.Begin(ctx, ledger.Record{
		RunID:     "run-1",
		Kind:      ledger.KindTrain,
		Dataset:   "PrepaidTravelCost",
		Condition: "trace_time",
		Device:    "cuda",
		Path:      "/data/PrepaidTravelCost/train_test",
		Command:   "python train.py --dataset PrepaidTravelCost --condition trace_time --device cuda",
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	second, err := store.Begin(ctx, ledger.Record{
		RunID:     "run-1",
		Kind:      ledger.KindTrain,
		Dataset:   "PrepaidTravelCost",
		Condition: "resource_usage",
		Device:    "cuda",
		Path:      "/data/PrepaidTravelCost/train_test",
		Command:   "python train.py",
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if err := store.Finish(ctx, first, ledger.Outcome{Status: ledger.StatusSucceeded, ExitCode: 0, Attempts: 1}); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := store.Finish(ctx, second, ledger.Outcome{Status: ledger.StatusFailed, ExitCode: 2, Attempts: 3, Error: "exit 2"}); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	records, err := store.List(ctx, ledger.Filter{Dataset: "PrepaidTravelCost"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	newest := records[0]
	if newest.ID != second || newest.Condition != "resource_usage" {
		t.Fatalf("expected newest record first, got %+v", newest)
	}
	if newest.Status != ledger.StatusFailed || newest.ExitCode == nil || *newest.ExitCode != 2 {
		t.Fatalf("unexpected failed record: %+v", newest)
	}
	if newest.Attempts != 3 || newest.Error != "exit 2" || newest.FinishedAt == nil {
		t.Fatalf("unexpected outcome fields: %+v", newest)
	}
	if records[1].Status != ledger.StatusSucceeded || records[1].Error != "" {
		t.Fatalf("unexpected succeeded record: %+v", records[1])
	}
	if records[1].StartedAt.IsZero() {
		t.Fatal("expected started_at to round-trip")
	}
}

func TestListFiltersAndLimits(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	for _, ds := range []string{"A", "B", "A"} {
		if _, err := store.Begin(ctx, ledger.Record{RunID: "run-" + ds, Kind: ledger.KindTrain, Dataset: ds, Condition: "c", Path: "p", Command: "cmd"}); err != nil {
			t.Fatalf("Begin: %v", err)
		}
	}

	onlyA, err := store.List(ctx, ledger.Filter{Dataset: "A"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(onlyA) != 2 {
		t.Fatalf("expected 2 records for A, got %d", len(onlyA))
	}
	limited, err := store.List(ctx, ledger.Filter{Limit: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(limited) != 1 || limited[0].Dataset != "A" {
		t.Fatalf("expected newest single record, got %+v", limited)
	}
	byRun, err := store.List(ctx, ledger.Filter{RunID: "run-B"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(byRun) != 1 || byRun[0].Status != ledger.StatusRunning || byRun[0].ExitCode != nil {
		t.Fatalf("unexpected run filter result: %+v", byRun)
	}
}

func TestFinishUnknownJob(t *testing.T) {
	store, _ := openStore(t)
	if err := store.Finish(context.Background(), 42, ledger.Outcome{Status: ledger.StatusSucceeded}); err == nil {
		t.Fatal("expected error for unknown job id")
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	store, path := openStore(t)
	if _, err := store.Begin(context.Background(), ledger.Record{RunID: "r", Kind: ledger.KindPrepare, Dataset: "D", Condition: "c", Path: "p", Command: "cmd"}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	records, err := reopened.List(context.Background(), ledger.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 || records[0].Kind != ledger.KindPrepare {
		t.Fatalf("unexpected records after reopen: %+v", records)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := ledger.Open(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	store, path := openStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := ledger.Open(path); !errors.Is(err, ledger.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
