package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"trainsweep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The scan root and state directory live under one temp base, and the
// trainer defaults to "true" so nothing outside the test is launched.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Sweep.Root = filepath.Join(base, "data")
	cfgVal.Ledger.Path = filepath.Join(base, "state", "ledger.db")
	cfgVal.Trainer.Command = []string{"true"}
	cfgVal.DataPrep.Command = []string{"true"}
	cfgVal.Retry.DelaySeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPolicy sets the failure policy on the test config.
func WithPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sweep.OnJobFailure = policy
	}
}

// WithLedgerDisabled turns off the run ledger.
func WithLedgerDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ledger.Enabled = false
	}
}

// WithDatasetDirs creates the given directories under the scan root.
func WithDatasetDirs(rel ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, dir := range rel {
			target := filepath.Join(b.cfg.Sweep.Root, dir)
			if err := os.MkdirAll(target, 0o755); err != nil {
				b.t.Fatalf("mkdir %s: %v", target, err)
			}
		}
	}
}

// WithScriptTrainer writes an executable shell script containing body and
// uses it as the training program.
func WithScriptTrainer(body string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Trainer.Command = []string{WriteScript(b.t, b.baseDir, "train.sh", body)}
	}
}

// WithScriptDataPrep writes an executable shell script containing body,
// uses it as the data-preparation program, and enables data preparation.
func WithScriptDataPrep(body string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.DataPrep.Command = []string{WriteScript(b.t, b.baseDir, "prepare.sh", body)}
		b.cfg.Sweep.RunDataPrep = true
	}
}

// WriteScript writes an executable /bin/sh script into dir/bin and returns its path.
func WriteScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	binDir := filepath.Join(dir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	script := []byte("#!/bin/sh\n" + body + "\n")
	if err := os.WriteFile(target, script, 0o755); err != nil {
		t.Fatalf("write script %s: %v", name, err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
