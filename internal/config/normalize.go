package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSweep(); err != nil {
		return err
	}
	if err := c.normalizeProgram("trainer", &c.Trainer); err != nil {
		return err
	}
	if err := c.normalizeProgram("data_prep", &c.DataPrep); err != nil {
		return err
	}
	if err := c.normalizeLedger(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSweep() error {
	if value, ok := os.LookupEnv("TRAINSWEEP_ROOT"); ok && strings.TrimSpace(value) != "" {
		c.Sweep.Root = value
	}
	if value, ok := os.LookupEnv("TRAINSWEEP_DEVICE"); ok && strings.TrimSpace(value) != "" {
		c.Sweep.Device = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Sweep.Root) == "" {
		c.Sweep.Root = defaultRoot
	}
	var err error
	if c.Sweep.Root, err = expandPath(strings.TrimSpace(c.Sweep.Root)); err != nil {
		return fmt.Errorf("sweep.root: %w", err)
	}
	c.Sweep.OnJobFailure = strings.ToLower(strings.TrimSpace(c.Sweep.OnJobFailure))
	if c.Sweep.OnJobFailure == "" {
		c.Sweep.OnJobFailure = PolicyContinue
	}
	return nil
}

func (c *Config) normalizeProgram(section string, p *Program) error {
	command := make([]string, 0, len(p.Command))
	for _, part := range p.Command {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			command = append(command, trimmed)
		}
	}
	p.Command = command
	if strings.TrimSpace(p.WorkDir) != "" {
		dir, err := expandPath(p.WorkDir)
		if err != nil {
			return fmt.Errorf("%s.workdir: %w", section, err)
		}
		p.WorkDir = dir
	}
	return nil
}

func (c *Config) normalizeLedger() error {
	if strings.TrimSpace(c.Ledger.Path) == "" {
		c.Ledger.Path = filepath.Join(c.Paths.StateDir, defaultLedgerFile)
	}
	var err error
	if c.Ledger.Path, err = expandPath(c.Ledger.Path); err != nil {
		return fmt.Errorf("ledger.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
