package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/dshills/lmlassist/internal/app"
	"github.com/dshills/lmlassist/internal/completion"
	"github.com/dshills/lmlassist/internal/lexer"
	"github.com/dshills/lmlassist/internal/theme"
)

const historyFile = ".lmlassist_history"

func newShellCmd(f *rootFlags) *cobra.Command {
	var (
		set       string
		themeName string
	)
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Edit LML interactively with completion",
		Long: `Start a line editor. Tab completes the word left of the cursor from the
active candidate set; entered lines join the session document and are echoed
with colours.

Commands:
  :set NAME      switch the active set
  :sets          list the sets
  :grammar NAME  tokenize the session with another grammar
  :quit          leave (also Ctrl-D)`,
		Args: cobra.NoArgs,
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

			name, err := a.ResolveSet(set, "")
			if err != nil {
				return err
			}
			if _, ok := a.Catalog().Lookup(name); !ok {
				return &completion.SetError{Set: name, Available: a.Catalog().Names()}
			}

			out := cmd.OutOrStdout()
			s := newSession(a, name, th, colorDepth(out))
			return s.run(out)
		},
	}
	cmd.Flags().StringVarP(&set, "set", "s", "", "initial candidate set")
	cmd.Flags().StringVar(&themeName, "theme", "twilight", "colour theme")
	return cmd
}

// session is the state of one shell. The last line of doc is the line being
// edited.
type session struct {
	app    *app.Application
	engine *completion.Engine
	doc    *lexer.Document
	set    string
	theme  *theme.Theme
	depth  theme.ColorDepth
}

func newSession(a *app.Application, set string, th *theme.Theme, depth theme.ColorDepth) *session {
	return &session{
		app:    a,
		engine: a.Engine(),
		doc:    lexer.NewDocument(a.Tokenizer(), ""),
		set:    set,
		theme:  th,
		depth:  depth,
	}
}

func (s *session) run(out io.Writer) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetTabCompletionStyle(liner.TabPrints)
	ln.SetWordCompleter(s.complete)

	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}

	for {
		line, err := ln.Prompt(s.prompt())
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			break
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return err
		}

		if strings.HasPrefix(strings.TrimSpace(line), ":") {
			if s.command(out, line) {
				break
			}
			continue
		}
		fmt.Fprintln(out, s.enter(line))
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
	}

	if histPath != "" {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}
	return nil
}

func (s *session) prompt() string {
	return fmt.Sprintf("%s %d> ", s.set, s.doc.LineCount())
}

// current returns the index of the line being edited.
func (s *session) current() int {
	return s.doc.LineCount() - 1
}

// complete is the liner word completer. pos counts runes.
func (s *session) complete(line string, pos int) (string, []string, string) {
	r := []rune(line)
	if pos > len(r) {
		pos = len(r)
	}
	col := len(string(r[:pos]))

	i := s.current()
	if err := s.doc.SetLine(i, line); err != nil {
		return line[:col], nil, line[col:]
	}
	res, err := s.engine.Complete(s.doc, lexer.Position{Line: i, Column: col}, s.set)
	if err != nil {
		s.app.Logger().Debug("completion failed", "error", err)
		return line[:col], nil, line[col:]
	}

	from := res.From.Column
	if res.From.Line != i {
		from = col
	}
	items := make([]string, len(res.Candidates))
	for k, c := range res.Candidates {
		items[k] = c.Text
	}
	return line[:from], items, line[col:]
}

// enter commits line to the document and returns it rendered.
func (s *session) enter(line string) string {
	i := s.current()
	_ = s.doc.SetLine(i, line)
	tl, err := s.doc.Tokens(i)
	_ = s.doc.InsertLine(i+1, "")
	if err != nil || s.depth == theme.DepthNone {
		return line
	}
	return s.theme.RenderLine(tl.Tokens, s.depth)
}

// command runs a ":" command and reports whether the shell should exit.
func (s *session) command(out io.Writer, line string) bool {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), ":"))
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "q", "quit", "exit":
		return true
	case "sets":
		for _, name := range s.app.Catalog().Names() {
			mark := " "
			if name == s.set {
				mark = "*"
			}
			set, _ := s.app.Catalog().Lookup(name)
			fmt.Fprintf(out, "%s %s (%s, %d)\n", mark, name, set.Policy(), set.Len())
		}
	case "set":
		if len(fields) != 2 {
			fmt.Fprintln(out, "usage: :set NAME")
			return false
		}
		if _, ok := s.app.Catalog().Lookup(fields[1]); !ok {
			fmt.Fprintln(out, &completion.SetError{Set: fields[1], Available: s.app.Catalog().Names()})
			return false
		}
		s.set = fields[1]
	case "grammar":
		if len(fields) != 2 {
			fmt.Fprintf(out, "grammar %s\n", s.doc.Tokenizer().Grammar())
			return false
		}
		tok, err := s.app.TokenizerFor(fields[1])
		if err != nil {
			fmt.Fprintln(out, err)
			return false
		}
		engine, err := s.app.EngineFor(fields[1])
		if err != nil {
			fmt.Fprintln(out, err)
			return false
		}
		s.engine = engine
		s.doc = lexer.NewDocument(tok, s.doc.Text())
	default:
		fmt.Fprintf(out, "unknown command :%s (try :set, :sets, :grammar, :quit)\n", fields[0])
	}
	return false
}
