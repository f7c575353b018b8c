package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"trainsweep/internal/config"
)

// sweepOverrides holds per-invocation flags that replace sweep settings.
type sweepOverrides struct {
	root       string
	dataset    string
	device     string
	conditions []string
	onFailure  string
	dataPrep   bool
}

func (o *sweepOverrides) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.root, "root", "", "Directory tree to scan")
	flags.StringVar(&o.dataset, "dataset", "", "Only launch jobs for this dataset name")
	flags.StringVar(&o.device, "device", "", "Device label passed to the training program")
	flags.StringArrayVar(&o.conditions, "condition", nil, "Condition to run (repeatable, replaces the configured list)")
	flags.StringVar(&o.onFailure, "on-failure", "", "Failure policy: continue, abort or retry")
	flags.BoolVar(&o.dataPrep, "data-prep", false, "Run the data-preparation program before each training job")
}

// apply copies changed flags onto cfg and re-validates it.
func (o *sweepOverrides) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("root") {
		if strings.TrimSpace(o.root) == "" {
			return errors.New("--root must not be empty")
		}
		root, err := config.ExpandPath(strings.TrimSpace(o.root))
		if err != nil {
			return fmt.Errorf("resolve root: %w", err)
		}
		cfg.Sweep.Root = root
	}
	if flags.Changed("dataset") {
		cfg.Sweep.TargetDataset = strings.TrimSpace(o.dataset)
	}
	if flags.Changed("device") {
		cfg.Sweep.Device = strings.TrimSpace(o.device)
	}
	if flags.Changed("condition") {
		conditions := make([]string, 0, len(o.conditions))
		for _, condition := range o.conditions {
			conditions = append(conditions, strings.TrimSpace(condition))
		}
		cfg.Sweep.Conditions = conditions
	}
	if flags.Changed("on-failure") {
		cfg.Sweep.OnJobFailure = strings.ToLower(strings.TrimSpace(o.onFailure))
	}
	if flags.Changed("data-prep") {
		cfg.Sweep.RunDataPrep = o.dataPrep
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}
