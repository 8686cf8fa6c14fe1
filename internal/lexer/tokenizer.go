package lexer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/dshills/lmlassist/internal/grammar"
)

// Tokenizer scans lines with a root grammar and the grammars it delegates to.
type Tokenizer struct {
	reg    *grammar.Registry
	root   *grammar.Table
	logger *slog.Logger
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tokenizer) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a tokenizer for the named grammar. The registry is validated
// so that every delegation reachable from the grammar resolves; a malformed
// table is reported here and never while scanning.
func New(reg *grammar.Registry, name string, opts ...Option) (*Tokenizer, error) {
	if err := reg.Validate(name); err != nil {
		return nil, fmt.Errorf("creating tokenizer: %w", err)
	}
	root, _ := reg.Get(name)

	t := &Tokenizer{
		reg:    reg,
		root:   root,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Grammar returns the root grammar name.
func (t *Tokenizer) Grammar() string {
	return t.root.Name
}

// TokenizeLine scans one line starting from st and returns its tokens and
// the state for the next line. text must not contain a line terminator other
// than a trailing '\r', which is scanned as content.
func (t *Tokenizer) TokenizeLine(line int, text string, st LineState) ([]Token, LineState) {
	st = t.resolve(t.root, st)
	e := emitter{line: line, text: text}
	for pos := 0; pos < len(text); {
		pos, st = t.step(t.root, text, pos, st, &e)
	}
	return e.tokens, st
}

// Tokenize scans a chunk of lines separated by '\n'.
func (t *Tokenizer) Tokenize(text string, st LineState) ([]TokenLine, LineState) {
	lines := strings.Split(text, "\n")
	out := make([]TokenLine, len(lines))
	for i, l := range lines {
		var toks []Token
		toks, st = t.TokenizeLine(i, l, st)
		out[i] = TokenLine{Line: i, Tokens: toks, State: st}
	}
	return out, st
}

// IndentLevel returns the indentation depth for a line that starts with
// textAfter (leading blanks ignored) when the previous line ended in st.
// Each leading dedent-rule match closes one level. It returns false inside a
// delegation or in a state that does not indent.
func (t *Tokenizer) IndentLevel(st LineState, textAfter string) (int, bool) {
	st = t.resolve(t.root, st)
	if st.Mode != nil || t.root.Meta.DontIndent(st.State) {
		return 0, false
	}

	level := st.Depth
	rules, _ := t.root.Rules(st.State)
	textAfter = strings.TrimLeft(textAfter, " \t")
scan:
	for textAfter != "" {
		for i := range rules {
			r := &rules[i]
			if !r.Dedent {
				continue
			}
			loc := r.Match(textAfter)
			if loc == nil {
				continue
			}
			level--
			if r.Next != "" {
				rules, _ = t.root.Rules(r.Next)
			}
			textAfter = textAfter[loc[1]:]
			continue scan
		}
		break
	}
	return max(level, 0), true
}

// step consumes at least one byte of text at pos with grammar g.
func (t *Tokenizer) step(g *grammar.Table, text string, pos int, st LineState, e *emitter) (int, LineState) {
	if st.Mode != nil {
		return t.stepDelegated(g, text, pos, st, e)
	}

	rest := text[pos:]
	rules, _ := g.Rules(st.State)
	for i := range rules {
		r := &rules[i]
		loc := r.Match(rest)
		if loc == nil {
			continue
		}
		e.emitMatch(g.Name, pos, r, loc)
		return pos + loc[1], applyDirectives(g, st, r, i)
	}

	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(rest, -1)
	n := max(len(cluster), 1)
	e.emit(g.Name, "", pos, pos+n)
	return pos + n, st
}

// stepDelegated ends the delegation in st when its end pattern matches at
// pos, and otherwise lets the nested grammar step over the text up to the
// next end-pattern occurrence.
func (t *Tokenizer) stepDelegated(g *grammar.Table, text string, pos int, st LineState, e *emitter) (int, LineState) {
	mode := t.delegation(g, st.Mode.Origin)
	if mode == nil {
		st.Mode = nil
		return t.step(g, text, pos, st, e)
	}
	nested, ok := t.reg.Get(mode.Spec)
	if !ok {
		st.Mode = nil
		return t.step(g, text, pos, st, e)
	}

	rest := text[pos:]
	if n := mode.MatchEnd(rest); n > 0 {
		e.emit(g.Name, mode.EndToken, pos, pos+n)
		st.Mode = nil
		return pos + n, st
	}

	limit := len(text)
	if i := mode.FindEnd(rest); i > 0 {
		limit = pos + i
	}
	next, inner := t.step(nested, text[:limit], pos, st.Mode.Inner, e)
	st.Mode = &ModeState{Origin: st.Mode.Origin, Inner: inner}
	return next, st
}

func (t *Tokenizer) delegation(g *grammar.Table, ref RuleRef) *grammar.Mode {
	if ref.Grammar != g.Name {
		return nil
	}
	rules, ok := g.Rules(ref.State)
	if !ok || ref.Index < 0 || ref.Index >= len(rules) {
		return nil
	}
	return rules[ref.Index].Mode
}

// applyDirectives applies indent and dedent, then next, then mode.
func applyDirectives(g *grammar.Table, st LineState, r *grammar.Rule, index int) LineState {
	if !g.Meta.DontIndent(st.State) {
		if r.Indent {
			st.Depth++
		}
		if r.Dedent && st.Depth > 0 {
			st.Depth--
		}
	}
	origin := RuleRef{Grammar: g.Name, State: st.State, Index: index}
	if r.Next != "" {
		st.State = r.Next
	}
	if r.Mode != nil {
		st.Mode = &ModeState{Origin: origin, Inner: Start()}
	}
	return st
}

// resolve replaces parts of st that do not fit the current grammars, such as
// a state cached by a host before a grammar was reloaded.
func (t *Tokenizer) resolve(g *grammar.Table, st LineState) LineState {
	if st.State == "" {
		st.State = grammar.StartState
	}
	if !g.HasState(st.State) {
		t.logger.Debug("resetting unknown state", "grammar", g.Name, "state", st.State)
		st.State = grammar.StartState
	}
	if st.Depth < 0 {
		st.Depth = 0
	}
	if st.Mode == nil {
		return st
	}

	mode := t.delegation(g, st.Mode.Origin)
	if mode == nil {
		t.logger.Debug("dropping stale delegation", "grammar", g.Name, "origin", st.Mode.Origin)
		st.Mode = nil
		return st
	}
	nested, ok := t.reg.Get(mode.Spec)
	if !ok {
		st.Mode = nil
		return st
	}
	inner := t.resolve(nested, st.Mode.Inner)
	st.Mode = &ModeState{Origin: st.Mode.Origin, Inner: inner}
	return st
}

// emitter collects the tokens of one line.
type emitter struct {
	line   int
	text   string
	tokens []Token
}

// emit appends a token. Tokens are never merged, so every unmatched
// character stays a token of its own.
func (e *emitter) emit(name, kind string, start, end int) {
	if start >= end {
		return
	}
	e.tokens = append(e.tokens, Token{
		Kind:     kind,
		Grammar:  name,
		Line:     e.line,
		StartCol: start,
		EndCol:   end,
		Text:     e.text[start:end],
	})
}

// emitMatch emits the tokens of a rule match at pos. With several kinds each
// capture group gets its own token; text outside the groups is unclassified.
func (e *emitter) emitMatch(name string, pos int, r *grammar.Rule, loc []int) {
	end := pos + loc[1]
	if len(r.Token) <= 1 {
		kind := ""
		if len(r.Token) == 1 {
			kind = r.Token[0]
		}
		e.emit(name, kind, pos, end)
		return
	}

	cur := pos
	for g, kind := range r.Token {
		s, gend := loc[2*(g+1)], loc[2*(g+1)+1]
		if s < 0 || pos+s < cur {
			continue
		}
		e.emit(name, "", cur, pos+s)
		e.emit(name, kind, pos+s, pos+gend)
		cur = pos + gend
	}
	e.emit(name, "", cur, end)
}
