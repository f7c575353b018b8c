package config

const (
	defaultConfigPath    = "~/.config/trainsweep/config.toml"
	defaultStateDir      = "~/.local/share/trainsweep"
	defaultRoot          = "data"
	defaultSuffix        = "train_test"
	defaultTargetDataset = "PrepaidTravelCost"
	defaultDevice        = "cuda"
	defaultLedgerFile    = "ledger.db"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultRetryAttempts = 3
	defaultRetryDelay    = 30
)

// Failure policies accepted by sweep.on_job_failure.
const (
	PolicyContinue = "continue"
	PolicyAbort    = "abort"
	PolicyRetry    = "retry"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Sweep: Sweep{
			Root:          defaultRoot,
			Suffix:        defaultSuffix,
			TargetDataset: defaultTargetDataset,
			Conditions:    []string{"trace_time", "resource_usage"},
			Device:        defaultDevice,
			OnJobFailure:  PolicyContinue,
		},
		Trainer: Program{
			Command: []string{"python", "train.py"},
		},
		DataPrep: Program{
			Command: []string{"python", "prepare_data.py"},
		},
		Retry: Retry{
			MaxAttempts:  defaultRetryAttempts,
			DelaySeconds: defaultRetryDelay,
		},
		Ledger: Ledger{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
