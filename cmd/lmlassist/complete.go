package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/lmlassist/internal/lexer"
)

func newCompleteCmd(f *rootFlags) *cobra.Command {
	var (
		line, col int
		set       string
		shortcut  string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "complete FILE --line L --col C",
		Short: "Propose completions at a cursor",
		Long: `Complete the word left of the cursor from a candidate set. Lines and columns
are 1-based; columns count bytes. The set is --set, else the set bound to
--shortcut, else the configured default set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()

			name, err := a.ResolveSet(set, shortcut)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			cursor := lexer.Position{Line: line - 1, Column: col - 1}
			res, err := a.Engine().CompleteText(strings.TrimSuffix(text, "\n"), cursor, name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res, false)
			}
			note := ""
			if res.Fallback {
				note = " (no match, whole set)"
			}
			fmt.Fprintf(out, "set %s, word %q, replace %d:%d-%d:%d%s\n",
				res.Set, res.Word, res.From.Line+1, res.From.Column+1, res.To.Line+1, res.To.Column+1, note)
			for _, c := range res.Candidates {
				fmt.Fprintf(out, "%s\t%q\n", c.Label(), c.Text)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&line, "line", "l", 1, "cursor line (1-based)")
	cmd.Flags().IntVar(&col, "col", 1, "cursor column in bytes (1-based)")
	cmd.Flags().StringVarP(&set, "set", "s", "", "candidate set")
	cmd.Flags().StringVarP(&shortcut, "shortcut", "k", "", "shortcut bound to a set, e.g. Ctrl-2")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.MarkFlagsMutuallyExclusive("set", "shortcut")
	return cmd
}
