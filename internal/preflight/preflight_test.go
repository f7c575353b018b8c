package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"trainsweep/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExistPasses(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if !result.Passed {
		t.Fatalf("expected missing state dir to pass, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if CheckDirectoryAccess("test", f).Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckReadableDirectory_NotExist(t *testing.T) {
	result := CheckReadableDirectory("root", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || result.Detail == "" {
		t.Fatalf("expected failure with detail, got %#v", result)
	}
}

func TestRunAllReportsTrainerAndRoot(t *testing.T) {
	base := t.TempDir()
	trainer := filepath.Join(base, "train.sh")
	if err := os.WriteFile(trainer, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Sweep.Root = filepath.Join(base, "missing-root")
	cfg.Trainer.Command = []string{trainer}

	results := RunAll(context.Background(), &cfg)
	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Name] = r
	}
	if root := byName["Scan root"]; root.Passed || !root.Optional {
		t.Fatalf("expected optional failing root check, got %#v", root)
	}
	if tr := byName["Training program"]; !tr.Passed || tr.Detail != trainer {
		t.Fatalf("expected trainer to pass, got %#v", tr)
	}
	if _, ok := byName["Data preparation program"]; ok {
		t.Fatal("data prep should not be checked when disabled")
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected no blocking failures, got %#v", failed)
	}
}

func TestRunAllFlagsMissingDataPrep(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Sweep.Root = t.TempDir()
	cfg.Trainer.Command = []string{"sh"}
	cfg.Sweep.RunDataPrep = true
	cfg.DataPrep.Command = []string{"clearly-not-present-prep"}

	failed := Failed(RunAll(context.Background(), &cfg))
	if len(failed) != 1 || failed[0].Name != "Data preparation program" {
		t.Fatalf("expected data prep failure, got %#v", failed)
	}
}
