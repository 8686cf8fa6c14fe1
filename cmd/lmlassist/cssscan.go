package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/lmlassist/internal/cssscan"
)

func newCSSScanCmd(f *rootFlags) *cobra.Command {
	var (
		output string
		set    string
		sorted bool
		watch  bool
	)
	cmd := &cobra.Command{
		Use:   "css-scan [GLOB...]",
		Short: "Generate the css-classes set from stylesheets",
		Long: `Collect the class names of every stylesheet matching GLOB (doublestar
patterns such as "assets/**/*.css") and merge them into the candidate JSON
file given by --out, leaving its other sets untouched. Without arguments the
[css] section of the configuration supplies the patterns and output file.
With --watch the file is regenerated whenever a stylesheet changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := a.Config().CSS
			patterns := args
			if len(patterns) == 0 {
				patterns = cfg.Sources
			}
			if output == "" {
				output = cfg.Output
			}
			if output == "" {
				return errors.New("no output file (use --out or [css] output)")
			}
			if set == "" {
				set = cfg.Set
			}

			scanner := cssscan.New(patterns, output,
				cssscan.WithSet(set),
				cssscan.WithSorted(sorted),
				cssscan.WithDebounce(cfg.DebounceDuration()),
				cssscan.WithLogger(a.Logger()),
			)
			out := cmd.OutOrStdout()
			report := func(res *cssscan.Result) {
				fmt.Fprintf(out, "wrote %d classes from %d files to %s\n", res.Set.Len(), len(res.Files), res.Output)
			}

			if !watch {
				res, err := scanner.Generate()
				if err != nil {
					return err
				}
				report(res)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return scanner.Watch(ctx, func(res *cssscan.Result, err error) {
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "css-scan: %v\n", err)
					return
				}
				report(res)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "out", "o", "", "candidate JSON file to update")
	cmd.Flags().StringVar(&set, "set", "", "name of the generated set")
	cmd.Flags().BoolVar(&sorted, "sort", false, "order classes by name")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "regenerate on changes until interrupted")
	return cmd
}
