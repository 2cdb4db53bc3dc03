package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/japaniel/vocabdiff/pkg/article"
	"github.com/japaniel/vocabdiff/pkg/cache"
	"github.com/japaniel/vocabdiff/pkg/db"
	"github.com/japaniel/vocabdiff/pkg/ingest"
	"github.com/japaniel/vocabdiff/pkg/vocab"
)

type diffFlags struct {
	url    string
	export bool
	plain  bool
}

func (c *cli) newDiffCmd() *cobra.Command {
	var f diffFlags
	cmd := &cobra.Command{
		Use:   "diff [file]",
		Short: "List the new words of a text",
		Long: `Reads a text from a file, from stdin, or from a web page (--url) and
prints how many words it has and which of them are not in your vocabulary.`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			return c.diff(cmd, args, f)
		}),
	}
	cmd.Flags().StringVar(&f.url, "url", "", "extract the text of a web page instead of reading a file")
	cmd.Flags().BoolVar(&f.export, "export", false, "also write the new words as CSV")
	cmd.Flags().BoolVar(&f.plain, "plain", false, "print only the new words, one per line")
	return cmd
}

func (c *cli) newExportCmd() *cobra.Command {
	var f diffFlags
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the new words of a text to new_vocabulary.csv",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			f.export = true
			f.plain = true
			return c.diff(cmd, args, f)
		}),
	}
	cmd.Flags().StringVar(&f.url, "url", "", "extract the text of a web page instead of reading a file")
	return cmd
}

func (c *cli) diff(cmd *cobra.Command, args []string, f diffFlags) error {
	ctx := cmd.Context()
	a := c.app

	var text string
	if f.url != "" {
		if len(args) > 0 {
			return errors.New("give either a file or --url, not both")
		}
		art, err := article.NewFetcher(a.cfg.Timeout).Fetch(ctx, f.url)
		if err != nil {
			return err
		}
		a.log.Info("article extracted", "title", art.Title, "chars", len(art.Text))
		text = art.Text
	} else {
		var path string
		if len(args) > 0 {
			path = args[0]
		}
		var err error
		if text, err = readInput(cmd, path); err != nil {
			return err
		}
	}

	a.loadVocabulary(ctx, c.flags.offline)
	a.session.SetText(ctx, text)
	a.session.Wait()
	res := a.session.Current()

	if f.plain {
		printWords(a.out, res.NewWords)
	} else {
		printSummary(a.out, res)
	}

	if f.export {
		path, ok := a.session.Export(ctx)
		if !ok {
			return errors.New("export failed")
		}
		if !f.plain {
			fmt.Fprintf(a.out, "Exported to %s\n", path)
		}
	}
	return nil
}

func (c *cli) newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the vocabulary feed and update the cache",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, _ []string) error {
			a := c.app
			if err := a.session.RefreshVocabulary(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Vocabulary refreshed: %d known words\n", a.session.VocabularySize())
			return nil
		}),
	}
}

func (c *cli) newBatchCmd() *cobra.Command {
	var exportMerged bool
	cmd := &cobra.Command{
		Use:   "batch <files...>",
		Short: "Diff many documents in parallel",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := c.app

			docs := make([]ingest.Document, 0, len(args))
			for _, p := range args {
				text, err := readInput(cmd, p)
				if err != nil {
					return err
				}
				docs = append(docs, ingest.Document{Name: filepath.Base(p), Text: text})
			}

			a.loadVocabulary(ctx, c.flags.offline)
			ig := &ingest.Ingester{
				Provider: a.selector,
				Workers:  a.cfg.Workers,
				Logger:   a.log,
				OnResult: func(r ingest.Result) {
					if r.Err != nil {
						fmt.Fprintf(a.out, "%s: error: %v\n", r.Name, r.Err)
						return
					}
					fmt.Fprintf(a.out, "%s: %d unique, %d new\n", r.Name, len(r.Diff.UniqueWords), len(r.Diff.NewWords))
				},
				OnProgress: func(current, total int) {
					fmt.Fprintf(cmd.ErrOrStderr(), "Processed %d/%d documents\n", current, total)
				},
			}
			results, err := ig.Ingest(ctx, docs)
			if err != nil {
				return err
			}

			merged := ingest.MergeNewWords(results)
			fmt.Fprintf(a.out, "New words across %d documents: %d\n", len(results), merged.Len())
			if exportMerged {
				path, err := a.exporter.Save(merged.Words())
				if err != nil {
					return err
				}
				a.recordExport(path, merged.Len(), vocab.SourceLocal)
				fmt.Fprintf(a.out, "Exported to %s\n", path)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&exportMerged, "export", false, "write the merged new words as CSV")
	return cmd
}

func (c *cli) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local vocabulary cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop the cached vocabulary snapshot",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, _ []string) error {
			if err := c.app.cache.Invalidate(cache.VocabularyKey); err != nil {
				return err
			}
			fmt.Fprintln(c.app.out, "Cache cleared")
			return nil
		}),
	})
	return cmd
}

func (c *cli) newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent CSV exports",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, _ []string) error {
			exports, err := db.RecentExports(c.app.conn, limit)
			if err != nil {
				return err
			}
			if len(exports) == 0 {
				fmt.Fprintln(c.app.out, "No exports yet")
				return nil
			}
			for _, e := range exports {
				fmt.Fprintf(c.app.out, "%s  %-6s %5d  %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Source, e.WordCount, e.Path)
			}
			return nil
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of exports to show")
	return cmd
}

func printSummary(w io.Writer, res vocab.DiffResult) {
	source := res.Source
	if source == "" {
		source = vocab.SourceLocal
	}
	fmt.Fprintf(w, "All words:    %d\n", len(res.AllWords))
	fmt.Fprintf(w, "Unique words: %d\n", len(res.UniqueWords))
	fmt.Fprintf(w, "New words:    %d (%s)\n", len(res.NewWords), source)
	if len(res.NewWords) > 0 {
		fmt.Fprintln(w, "---------------------------------------------------")
		printWords(w, res.NewWords)
	}
}

func printWords(w io.Writer, words []string) {
	for _, word := range words {
		fmt.Fprintln(w, word)
	}
}
