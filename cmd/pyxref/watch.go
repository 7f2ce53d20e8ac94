package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/pyxref/pyxref/internal/sink"
)

// debounce batches rapid successive fsnotify events into a single
// re-run, the same interval the teacher's own Watcher uses.
const debounce = 500 * time.Millisecond

var watchCfg runConfig

var watchCmd = &cobra.Command{
	Use:   "watch <project-root>",
	Short: "Re-run the indexer on every Python source change",
	Long: `Watches project-root for changes to *.py files and re-runs a full index
build after each debounced batch of changes. Each trigger is a complete
fresh run, not an incremental update.

EXAMPLES:
    pyxref watch ./myproject --out myproject.pyxref`,
	Args: cobra.ExactArgs(1),
	RunE: runWatchCmd,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	bindRunFlags(watchCmd, &watchCfg)
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	projectRoot := args[0]

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err := addRecursive(fsWatcher, projectRoot); err != nil {
		return fmt.Errorf("failed to watch %s: %w", projectRoot, err)
	}

	rebuild := func() {
		if err := buildOnce(cmd, &watchCfg, projectRoot); err != nil {
			fmt.Fprintf(os.Stderr, "[WATCH] %v\n", err)
			return
		}
		fmt.Printf("[WATCH] rebuilt %s\n", watchCfg.Out)
	}

	fmt.Printf("[WATCH] watching %s\n", projectRoot)
	rebuild()

	var timer *time.Timer
	for {
		select {
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".py") {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, rebuild)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "[WATCH] %v\n", err)

		case <-cmd.Context().Done():
			return cmd.Context().Err()
		}
	}
}

func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && !strings.HasPrefix(d.Name(), ".") {
			return w.Add(path)
		}
		return nil
	})
}

func buildOnce(cmd *cobra.Command, cfg *runConfig, projectRoot string) error {
	f, err := os.Create(cfg.Out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writer := sink.NewBinaryWriter(f)
	if err := runIndex(cmd.Context(), cfg, projectRoot, writer); err != nil {
		return err
	}
	return writer.Flush()
}
