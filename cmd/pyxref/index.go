package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyxref/pyxref/internal/sink"
)

var indexCfg runConfig

var indexCmd = &cobra.Command{
	Use:   "index <project-root>",
	Short: "Build a cross-reference index for a Python source tree",
	Long: `Walks every *.py file under project-root, resolves symbol
occurrences, and writes the result as a length-delimited SCIP index to
--out.

EXAMPLES:
    pyxref index ./myproject
    pyxref index ./myproject --site-packages ./venv/lib/python3.11/site-packages --out myproject.pyxref`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexCmd,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	bindRunFlags(indexCmd, &indexCfg)
}

func runIndexCmd(cmd *cobra.Command, args []string) error {
	projectRoot := args[0]

	f, err := os.Create(indexCfg.Out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writer := sink.NewBinaryWriter(f)

	if err := runIndex(cmd.Context(), &indexCfg, projectRoot, writer); err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush output file: %w", err)
	}

	fmt.Printf("Wrote index to %s\n", indexCfg.Out)
	return nil
}
