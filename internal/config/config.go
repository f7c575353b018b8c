package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for local state.
type Paths struct {
	StateDir string `toml:"state_dir"`
}

// Sweep describes which dataset folders are scanned and which jobs run for them.
type Sweep struct {
	Root          string   `toml:"root"`
	Suffix        string   `toml:"suffix"`
	TargetDataset string   `toml:"target_dataset"`
	Conditions    []string `toml:"conditions"`
	Device        string   `toml:"device"`
	OnJobFailure  string   `toml:"on_job_failure"`
	RunDataPrep   bool     `toml:"run_data_prep"`
}

// Program describes an external program invocation. Command holds the
// executable followed by any fixed leading arguments (e.g. ["python", "train.py"]).
type Program struct {
	Command   []string          `toml:"command"`
	ExtraArgs []string          `toml:"extra_args"`
	WorkDir   string            `toml:"workdir"`
	Env       map[string]string `toml:"env"`
}

// Retry controls how often a failed job is re-run under the retry policy.
type Retry struct {
	MaxAttempts  int `toml:"max_attempts"`
	DelaySeconds int `toml:"delay_seconds"`
}

// Ledger contains configuration for the local run history database.
type Ledger struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for trainsweep.
//
// Configuration sections:
//   - Paths: local state directory (lock file, logs, ledger)
//   - Sweep: scan root, dataset filter, conditions, device and failure policy
//   - Trainer: training program invocation
//   - DataPrep: data-preparation program invocation (gated by sweep.run_data_prep)
//   - Retry: attempts and delay for the retry failure policy
//   - Ledger: SQLite run history
//   - Logging: log format and level
type Config struct {
	Paths    Paths   `toml:"paths"`
	Sweep    Sweep   `toml:"sweep"`
	Trainer  Program `toml:"trainer"`
	DataPrep Program `toml:"data_prep"`
	Retry    Retry   `toml:"retry"`
	Ledger   Ledger  `toml:"ledger"`
	Logging  Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("trainsweep.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state directory used for the lock file and ledger.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.StateDir, err)
	}
	if c.Ledger.Enabled && strings.TrimSpace(c.Ledger.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.Ledger.Path), 0o755); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}
	return nil
}

// LockPath returns the lock file that serializes sweeps on this host.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "trainsweep.lock")
}

// LogPath returns the file the run command appends structured logs to.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.StateDir, "trainsweep.log")
}

// RetryDelay returns the configured delay between retry attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Retry.DelaySeconds) * time.Second
}

// TrainerBinary returns the training program executable.
func (c *Config) TrainerBinary() string {
	if len(c.Trainer.Command) == 0 {
		return ""
	}
	return c.Trainer.Command[0]
}

// DataPrepBinary returns the data-preparation program executable.
func (c *Config) DataPrepBinary() string {
	if len(c.DataPrep.Command) == 0 {
		return ""
	}
	return c.DataPrep.Command[0]
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
