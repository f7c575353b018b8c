package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"trainsweep/internal/ledger"
	"trainsweep/internal/logging"
	"trainsweep/internal/preflight"
	"trainsweep/internal/sweep"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var overrides sweepOverrides
	var skipChecks bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan the root and launch training jobs for the target dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := overrides.apply(cmd, cfg); err != nil {
				return err
			}

			if !skipChecks {
				if failed := preflight.Failed(preflight.RunAll(signalCtx, cfg)); len(failed) > 0 {
					parts := make([]string, 0, len(failed))
					for _, result := range failed {
						parts = append(parts, fmt.Sprintf("%s: %s", result.Name, result.Detail))
					}
					return fmt.Errorf("preflight checks failed: %s", strings.Join(parts, "; "))
				}
			}

			lock, err := sweep.AcquireLock(cfg.LockPath())
			if err != nil {
				if errors.Is(err, sweep.ErrLocked) {
					return fmt.Errorf("another sweep holds %s", cfg.LockPath())
				}
				return err
			}
			defer lock.Release()

			logger, closeLogs, err := ctx.logger(cfg.LogPath())
			if err != nil {
				return err
			}
			defer closeLogs()

			opts := []sweep.Option{
				sweep.WithLogger(logger),
				sweep.WithOutput(cmd.OutOrStdout()),
				sweep.WithProcessOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
			}
			if cfg.Ledger.Enabled {
				store, err := ledger.Open(cfg.Ledger.Path)
				if err != nil {
					return fmt.Errorf("open ledger: %w", err)
				}
				defer store.Close()
				opts = append(opts, sweep.WithRecorder(store))
			}

			sw, err := sweep.New(cfg, opts...)
			if err != nil {
				return err
			}
			summary, err := sw.Run(signalCtx)
			if err != nil {
				return err
			}
			if summary.Matches == 0 {
				logger.Warn("no matching dataset folders found",
					logging.String("root", cfg.Sweep.Root),
					logging.String("target_dataset", cfg.Sweep.TargetDataset),
				)
			}
			return nil
		},
	}

	overrides.register(cmd)
	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Launch without running preflight checks")
	return cmd
}
