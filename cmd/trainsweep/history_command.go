package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"trainsweep/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var dataset string
	var runID string
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List launched jobs recorded in the run ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cfg.Ledger.Enabled {
				return errors.New("run ledger is disabled (ledger.enabled = false)")
			}
			if limit < 0 {
				return fmt.Errorf("limit must be >= 0, got %d", limit)
			}

			store, err := ledger.Open(cfg.Ledger.Path)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), ledger.Filter{
				Dataset: strings.TrimSpace(dataset),
				RunID:   strings.TrimSpace(runID),
				Limit:   limit,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSONList(cmd, records)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable([]tableColumn{
				numCol("ID"), col("Run"), col("Kind"), col("Dataset"), col("Condition"),
				col("Status"), numCol("Exit"), numCol("Attempts"), col("Started"), col("Duration"),
			}, historyRows(records, time.Now())))
			return nil
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "", "Only show jobs for this dataset")
	cmd.Flags().StringVar(&runID, "run", "", "Only show jobs from this run ID")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of jobs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func historyRows(records []ledger.Record, now time.Time) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		exit := "-"
		if rec.ExitCode != nil {
			exit = strconv.Itoa(*rec.ExitCode)
		}
		duration := "-"
		if rec.FinishedAt != nil {
			duration = rec.FinishedAt.Sub(rec.StartedAt).Round(time.Second).String()
		}
		rows = append(rows, []string{
			strconv.FormatInt(rec.ID, 10),
			shortRunID(rec.RunID),
			displayLabel(string(rec.Kind)),
			rec.Dataset,
			rec.Condition,
			displayLabel(string(rec.Status)),
			exit,
			strconv.Itoa(rec.Attempts),
			humanize.RelTime(rec.StartedAt, now, "ago", "from now"),
			duration,
		})
	}
	return rows
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
