// Package completion proposes candidates for the word left of the cursor.
//
// The word is the part of the token under the cursor that lies before it;
// the replacement span runs from the token start to the cursor, so text
// after the cursor is never replaced. The active candidate set is an
// explicit argument of every request.
package completion

import (
	"log/slog"
	"unicode/utf8"

	"github.com/dshills/lmlassist/internal/candidates"
	"github.com/dshills/lmlassist/internal/lexer"
)

// Engine filters candidate sets by the word at a cursor. It holds only
// read-only references and is safe for concurrent use.
type Engine struct {
	tok        *lexer.Tokenizer
	provider   candidates.Provider
	maxResults int
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxResults bounds the number of returned candidates. 0 means no bound.
func WithMaxResults(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxResults = n
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine. tok tokenizes text passed to CompleteText.
func New(tok *lexer.Tokenizer, provider candidates.Provider, opts ...Option) *Engine {
	e := &Engine{
		tok:      tok,
		provider: provider,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of a completion request.
type Result struct {
	// Set is the name of the candidate set used.
	Set string `json:"set"`

	// Word is the text between From and To.
	Word string `json:"word"`

	// From is the start of the replacement span (the token start).
	From lexer.Position `json:"from"`

	// To is the end of the replacement span (the cursor).
	To lexer.Position `json:"to"`

	// Candidates are the proposals in set order.
	Candidates []candidates.Candidate `json:"candidates"`

	// Fallback is true when nothing matched and the whole set is returned.
	Fallback bool `json:"fallback,omitempty"`

	// Truncated is true when the max results bound dropped candidates.
	Truncated bool `json:"truncated,omitempty"`
}

// Complete proposes candidates from the named set for the cursor in doc.
// An unknown set yields a *SetError and a cursor outside the document a
// *PositionError; neither is corrected silently.
func (e *Engine) Complete(doc *lexer.Document, cursor lexer.Position, set string) (*Result, error) {
	s, ok := e.provider.Lookup(set)
	if !ok {
		return nil, &SetError{Set: set, Available: e.provider.Names()}
	}

	line, err := e.checkPosition(doc, cursor)
	if err != nil {
		return nil, err
	}

	res := &Result{Set: set, From: cursor, To: cursor}
	if cursor.Column > 0 && line != "" {
		tl, err := doc.Tokens(cursor.Line)
		if err != nil {
			return nil, err
		}
		if tok, ok := tl.TokenBefore(cursor.Column); ok {
			res.Word = line[tok.StartCol:cursor.Column]
			res.From = lexer.Position{Line: cursor.Line, Column: tok.StartCol}
		}
	}

	res.Candidates = s.Match(res.Word)
	if len(res.Candidates) == 0 {
		res.Candidates = s.Items()
		res.Fallback = true
	}
	if e.maxResults > 0 && len(res.Candidates) > e.maxResults {
		res.Candidates = res.Candidates[:e.maxResults]
		res.Truncated = true
	}

	e.logger.Debug("completion",
		"doc", doc.ID().String(),
		"set", set,
		"policy", s.Policy().String(),
		"word", res.Word,
		"candidates", len(res.Candidates),
		"fallback", res.Fallback,
	)
	return res, nil
}

// CompleteText completes in a document made of text.
func (e *Engine) CompleteText(text string, cursor lexer.Position, set string) (*Result, error) {
	return e.Complete(lexer.NewDocument(e.tok, text), cursor, set)
}

func (e *Engine) checkPosition(doc *lexer.Document, cursor lexer.Position) (string, error) {
	if cursor.Line < 0 || cursor.Line >= doc.LineCount() {
		return "", &PositionError{Position: cursor, Reason: "line outside document"}
	}
	line, err := doc.Line(cursor.Line)
	if err != nil {
		return "", &PositionError{Position: cursor, Reason: err.Error()}
	}
	if cursor.Column < 0 || cursor.Column > len(line) {
		return "", &PositionError{Position: cursor, Reason: "column outside line"}
	}
	if cursor.Column < len(line) && !utf8.RuneStart(line[cursor.Column]) {
		return "", &PositionError{Position: cursor, Reason: "column inside a character"}
	}
	return line, nil
}
