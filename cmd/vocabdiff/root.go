package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/japaniel/vocabdiff/pkg/config"
	"github.com/japaniel/vocabdiff/pkg/logger"
)

// globalFlags override config values when set on the command line.
type globalFlags struct {
	envFile   string
	mode      string
	lang      string
	cachePath string
	exportDir string
	logLevel  string
	workers   int
	offline   bool
}

// cli carries state shared between the root command and its subcommands.
type cli struct {
	flags globalFlags
	app   *app
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "vocabdiff",
		Short: "Find the words in a text you have not learned yet",
		Long: `vocabdiff compares the words of a text against your known vocabulary
and lists the ones that are new. The vocabulary comes from a JSON feed,
cached locally, and optionally from a Postgres table.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.envFile, "env", ".env", "dotenv file to load before reading the environment")
	pf.StringVar(&c.flags.mode, "mode", "", "diff mode: local or remote")
	pf.StringVar(&c.flags.lang, "lang", "", "text language: en or ja")
	pf.StringVar(&c.flags.cachePath, "cache", "", "path to the sqlite cache")
	pf.StringVar(&c.flags.exportDir, "export-dir", "", "directory for CSV exports")
	pf.StringVar(&c.flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.IntVar(&c.flags.workers, "workers", 0, "parallel documents for batch")
	pf.BoolVar(&c.flags.offline, "offline", false, "use the cached vocabulary without contacting the feed")

	root.AddCommand(
		c.newDiffCmd(),
		c.newExportCmd(),
		c.newRefreshCmd(),
		c.newBatchCmd(),
		c.newWatchCmd(),
		c.newCacheCmd(),
		c.newHistoryCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.flags.envFile)
	if err != nil {
		return err
	}
	c.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(&logger.Config{
		Level:      logger.Level(cfg.LogLevel),
		Output:     cmd.ErrOrStderr(),
		JSON:       cfg.LogJSON,
		TimeFormat: time.Kitchen,
	})
	a, err := newApp(cmd.Context(), cfg, log, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

// run wraps a command body so the app is closed even when it fails.
func (c *cli) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer func() {
			if c.app != nil {
				c.app.Close()
				c.app = nil
			}
		}()
		return fn(cmd, args)
	}
}

func (c *cli) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("mode") {
		cfg.Mode = strings.ToLower(c.flags.mode)
	}
	if f.Changed("lang") {
		cfg.Lang = c.flags.lang
	}
	if f.Changed("cache") {
		cfg.CachePath = c.flags.cachePath
	}
	if f.Changed("export-dir") {
		cfg.ExportDir = c.flags.exportDir
	}
	if f.Changed("log-level") {
		cfg.LogLevel = c.flags.logLevel
	}
	if f.Changed("workers") {
		cfg.Workers = c.flags.workers
	}
}

// readInput returns the text of path, or of stdin when path is empty or "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
