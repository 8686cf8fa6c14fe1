package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/dshills/lmlassist/internal/lexer"
	"github.com/dshills/lmlassist/internal/theme"
)

func newTokenizeCmd(f *rootFlags) *cobra.Command {
	var (
		asJSON    bool
		list      bool
		themeName string
	)
	cmd := &cobra.Command{
		Use:   "tokenize FILE",
		Short: "Print the tokens of a document",
		Long: `Tokenize a document line by line. On a terminal the source is echoed with
colours; otherwise each token is listed as LINE:START-END KIND TEXT.
Use "-" to read standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			th, ok := theme.ByName(themeName)
			if !ok {
				return fmt.Errorf("unknown theme %q (available: %s)", themeName, strings.Join(theme.Names(), ", "))
			}
			a, err := openApp(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()

			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			lines, _ := a.Tokenizer().Tokenize(strings.TrimSuffix(text, "\n"), lexer.Start())

			out := cmd.OutOrStdout()
			depth := colorDepth(out)
			switch {
			case asJSON:
				return writeJSON(out, lines, depth != theme.DepthNone)
			case list || depth == theme.DepthNone:
				writeTokenList(out, a.Tokenizer().Grammar(), lines)
			default:
				for _, l := range lines {
					fmt.Fprintln(out, th.RenderLine(l.Tokens, depth))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print tokens as JSON")
	cmd.Flags().BoolVar(&list, "list", false, "list tokens even on a terminal")
	cmd.Flags().StringVar(&themeName, "theme", "twilight", "colour theme")
	return cmd
}

// writeTokenList prints one token per line with 1-based line numbers.
// Tokens of delegated grammars are prefixed with the grammar name.
func writeTokenList(w io.Writer, root string, lines []lexer.TokenLine) {
	for _, l := range lines {
		for _, tok := range l.Tokens {
			kind := tok.Kind
			if kind == "" {
				kind = "-"
			}
			if tok.Grammar != "" && tok.Grammar != root {
				kind = tok.Grammar + ":" + kind
			}
			fmt.Fprintf(w, "%d:%d-%d %s %q\n", l.Line+1, tok.StartCol, tok.EndCol, kind, tok.Text)
		}
	}
}

// writeJSON prints v as indented JSON, coloured when color is set.
func writeJSON(w io.Writer, v any, color bool) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	data = pretty.Pretty(data)
	if color {
		data = pretty.Color(data, nil)
	}
	_, err = w.Write(data)
	return err
}
