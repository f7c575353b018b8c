package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSONList encodes items as an indented JSON array on the command's
// stdout. An empty result prints [] rather than null so scripts can iterate
// over plan and history output unconditionally.
func writeJSONList[T any](cmd *cobra.Command, items []T) error {
	if items == nil {
		items = []T{}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}
