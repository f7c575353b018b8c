package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"trainsweep/internal/sweep"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var overrides sweepOverrides
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the jobs a run would launch without launching them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := overrides.apply(cmd, cfg); err != nil {
				return err
			}
			logger, closeLogs, err := ctx.logger()
			if err != nil {
				return err
			}
			defer closeLogs()
			sw, err := sweep.New(cfg, sweep.WithLogger(logger))
			if err != nil {
				return err
			}
			steps, err := sw.Plan(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSONList(cmd, steps)
			}

			out := cmd.OutOrStdout()
			if len(steps) == 0 {
				fmt.Fprintf(out, "No %q folders found under %s\n", cfg.Sweep.TargetDataset, cfg.Sweep.Root)
				return nil
			}
			rows := make([][]string, 0, len(steps))
			for i, step := range steps {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					displayLabel(string(step.Kind)),
					step.Job.Dataset,
					step.Job.Condition,
					step.Job.Device,
					step.Line,
				})
			}
			fmt.Fprintln(out, renderTable([]tableColumn{
				numCol("#"), col("Kind"), col("Dataset"), col("Condition"), col("Device"), col("Command"),
			}, rows))
			fmt.Fprintf(out, "Policy: %s\n", sw.Policy())
			return nil
		},
	}

	overrides.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
