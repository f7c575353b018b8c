package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSweep(); err != nil {
		return err
	}
	if err := c.validatePrograms(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSweep() error {
	if strings.TrimSpace(c.Sweep.Root) == "" {
		return errors.New("sweep.root must be set")
	}
	if strings.TrimSpace(c.Sweep.Suffix) == "" {
		return errors.New("sweep.suffix must be set")
	}
	if strings.TrimSpace(c.Sweep.TargetDataset) == "" {
		return errors.New("sweep.target_dataset must be set")
	}
	if strings.TrimSpace(c.Sweep.Device) == "" {
		return errors.New("sweep.device must be set")
	}
	if len(c.Sweep.Conditions) == 0 {
		return errors.New("sweep.conditions must include at least one condition")
	}
	seen := make(map[string]struct{}, len(c.Sweep.Conditions))
	for _, condition := range c.Sweep.Conditions {
		if strings.TrimSpace(condition) == "" {
			return errors.New("sweep.conditions must not contain empty labels")
		}
		if _, ok := seen[condition]; ok {
			return fmt.Errorf("sweep.conditions lists %q more than once", condition)
		}
		seen[condition] = struct{}{}
	}
	switch c.Sweep.OnJobFailure {
	case PolicyContinue, PolicyAbort, PolicyRetry:
	default:
		return fmt.Errorf("sweep.on_job_failure: unsupported value %q (want continue, abort or retry)", c.Sweep.OnJobFailure)
	}
	return nil
}

func (c *Config) validatePrograms() error {
	if len(c.Trainer.Command) == 0 {
		return errors.New("trainer.command must name the training program")
	}
	if c.Sweep.RunDataPrep && len(c.DataPrep.Command) == 0 {
		return errors.New("data_prep.command must be set when sweep.run_data_prep is true")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Sweep.OnJobFailure != PolicyRetry {
		return nil
	}
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be >= 1")
	}
	if c.Retry.DelaySeconds < 0 {
		return errors.New("retry.delay_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
