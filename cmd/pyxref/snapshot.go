package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyxref/pyxref/internal/sink"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <index-file>",
	Short: "Render a persisted index back to human-readable text",
	Long: `Reads an index file written by "pyxref index" and prints one
line per occurrence, grouped by document, for manual inspection and for
golden-file tests.

EXAMPLES:
    pyxref snapshot myproject.pyxref`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshotCmd,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshotCmd(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer f.Close()

	return sink.RenderSnapshot(f, os.Stdout)
}
