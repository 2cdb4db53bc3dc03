package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/japaniel/vocabdiff/pkg/logger"
	"github.com/japaniel/vocabdiff/pkg/vocab"
)

func (c *cli) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-diff a file every time it is saved",
		Long: `Watches a text file and prints its new words after every save. A save
that arrives while a remote request is still running replaces that request.
Stop with Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := c.app
			path := args[0]

			a.loadVocabulary(ctx, c.flags.offline)

			var outMu sync.Mutex
			a.setOnResult(func(res vocab.DiffResult) {
				outMu.Lock()
				defer outMu.Unlock()
				printChange(a.out, res)
			})

			update := func() {
				text, err := readInput(cmd, path)
				if err != nil {
					a.log.Warn("could not read watched file", "err", err)
					return
				}
				a.session.SetText(ctx, text)
			}
			update()
			fmt.Fprintf(a.out, "Watching %s\n", path)
			return watchFile(ctx, path, a.log, update)
		}),
	}
}

func printChange(w io.Writer, res vocab.DiffResult) {
	source := res.Source
	if source == "" {
		source = vocab.SourceLocal
	}
	fmt.Fprintf(w, "[%s] %d unique, %d new: %s\n", source, len(res.UniqueWords), len(res.NewWords), strings.Join(res.NewWords, ", "))
}

// watchFile calls onChange whenever path is written or re-created, until ctx
// is done. The parent directory is watched because many editors save by
// renaming a temporary file over the original.
func watchFile(ctx context.Context, path string, log logger.Logger, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	log = logger.OrNop(log)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				onChange()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("file watcher error", "err", err)
		}
	}
}
