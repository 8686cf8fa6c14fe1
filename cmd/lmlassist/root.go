package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/lmlassist/internal/app"
	"github.com/dshills/lmlassist/internal/config"
	"github.com/dshills/lmlassist/internal/theme"
)

// rootFlags are the flags shared by every command.
type rootFlags struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
	grammar    string
	store      string
	noStore    bool
	candidates []string
	maxResults int
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "lmlassist",
		Short: "Tokenize LML and complete it from candidate sets",
		Long: `lmlassist tokenizes liturgical markup language (LML) documents and proposes
completions for the word left of a cursor from named candidate sets
(css-classes, topic-keys, paths, keywords).`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "configuration file (default ./"+config.DefaultFile+" if present)")
	pf.StringVar(&f.envFile, "env-file", "", "dotenv file (default ./.env if present)")
	pf.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&f.logFormat, "log-format", "", "log format (text, json)")
	pf.StringVarP(&f.grammar, "grammar", "g", "", "grammar to tokenize with")
	pf.StringVar(&f.store, "store", "", "SQLite candidate store")
	pf.BoolVar(&f.noStore, "no-store", false, "ignore the configured candidate store")
	pf.StringSliceVar(&f.candidates, "candidates", nil, "extra candidate JSON files")
	pf.IntVar(&f.maxResults, "max-results", 0, "maximum number of completions (0 = unbounded)")

	cmd.AddCommand(
		newTokenizeCmd(f),
		newCompleteCmd(f),
		newSetsCmd(f),
		newCSSScanCmd(f),
		newShellCmd(f),
	)
	return cmd
}

// openApp builds the application, applying flags over the configuration.
func openApp(cmd *cobra.Command, f *rootFlags) (*app.Application, error) {
	flags := cmd.Flags()
	opts := app.Options{
		ConfigPath: f.configPath,
		EnvFile:    f.envFile,
		LogOutput:  cmd.ErrOrStderr(),
		SkipStore:  f.noStore,
		Configure: func(c *config.Config) {
			if f.logLevel != "" {
				c.Logging.Level = f.logLevel
			}
			if f.logFormat != "" {
				c.Logging.Format = f.logFormat
			}
			if f.grammar != "" {
				c.Grammar.Default = f.grammar
			}
			if f.store != "" {
				c.Candidates.Store = f.store
			}
			c.Candidates.Files = append(c.Candidates.Files, f.candidates...)
			if flags.Changed("max-results") {
				c.Completion.MaxResults = f.maxResults
			}
		},
	}
	return app.New(opts)
}

// colorDepth reports the colour depth of w.
func colorDepth(w io.Writer) theme.ColorDepth {
	file, ok := w.(*os.File)
	if !ok {
		return theme.DepthNone
	}
	return theme.DetectDepth(term.IsTerminal(int(file.Fd())), os.Getenv)
}

// readInput reads a file, or standard input for "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
