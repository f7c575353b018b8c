package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"trainsweep/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the scan root, state directory and external programs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				rows = append(rows, []string{result.Name, checkStatus(result), result.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]tableColumn{col("Check"), col("Status"), col("Detail")}, rows))
			if failed := preflight.Failed(results); len(failed) > 0 {
				return errors.New("one or more required checks failed")
			}
			return nil
		},
	}
}

func checkStatus(result preflight.Result) string {
	switch {
	case result.Passed:
		return "OK"
	case result.Optional:
		return "WARN"
	default:
		return "FAIL"
	}
}
