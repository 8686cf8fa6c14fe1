// Package lexer tokenizes text line by line with a grammar.Table.
//
// A Tokenizer is immutable and safe for concurrent use. Each line is scanned
// from a LineState and yields the LineState for the next line, so a host can
// store one state per line start and re-tokenize a single edited line
// without rescanning the document. Document implements that cache.
package lexer

import (
	"strings"
)

// TokenType is the semantic category a token kind maps to.
type TokenType uint8

// Token types for colouring.
const (
	TokenNone TokenType = iota

	TokenComment
	TokenString
	TokenNumber
	TokenAtom
	TokenKeyword
	TokenOperator

	// Identifiers
	TokenVariable
	TokenVariableDefinition // variable-2
	TokenVariableSpecial    // variable-3

	// Markup
	TokenMeta
	TokenTag
	TokenAttribute

	TokenInvalid

	// Sentinel for iteration
	tokenTypeCount
)

// String returns the kind name of a token type.
func (t TokenType) String() string {
	if int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return "unknown"
}

// IsComment returns true if this is a comment token.
func (t TokenType) IsComment() bool {
	return t == TokenComment
}

// IsIdentifier returns true for variable-like tokens.
func (t TokenType) IsIdentifier() bool {
	return t >= TokenVariable && t <= TokenVariableSpecial
}

// TypeForKind maps a rule's kind name to a TokenType. Unknown suffixes are
// dropped ("string-2" is a string, "keyword strong" a keyword); names with no
// known prefix map to TokenNone.
func TypeForKind(kind string) TokenType {
	if t, ok := kindToType[kind]; ok {
		return t
	}
	if i := strings.IndexByte(kind, ' '); i > 0 {
		return TypeForKind(kind[:i])
	}
	if i := strings.LastIndexAny(kind, "-."); i > 0 {
		return TypeForKind(kind[:i])
	}
	return TokenNone
}

var tokenTypeNames = []string{
	TokenNone:               "none",
	TokenComment:            "comment",
	TokenString:             "string",
	TokenNumber:             "number",
	TokenAtom:               "atom",
	TokenKeyword:            "keyword",
	TokenOperator:           "operator",
	TokenVariable:           "variable",
	TokenVariableDefinition: "variable-2",
	TokenVariableSpecial:    "variable-3",
	TokenMeta:               "meta",
	TokenTag:                "tag",
	TokenAttribute:          "attribute",
	TokenInvalid:            "error",
}

var kindToType = func() map[string]TokenType {
	m := make(map[string]TokenType, tokenTypeCount)
	for i, name := range tokenTypeNames {
		m[name] = TokenType(i)
	}
	delete(m, "none")
	return m
}()

// Position is a zero-based line and byte column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"col"`
}

// Token is a classified span of one line.
type Token struct {
	// Kind is the style name assigned by the rule. Empty means unclassified.
	Kind string `json:"kind,omitempty"`

	// Grammar is the name of the table that produced the token.
	Grammar string `json:"grammar"`

	// Line is the zero-based line number.
	Line int `json:"line"`

	// StartCol is the starting byte column.
	StartCol int `json:"start"`

	// EndCol is the ending byte column (exclusive).
	EndCol int `json:"end"`

	// Text is the token's lexeme.
	Text string `json:"text"`
}

// Type returns the token's semantic category.
func (t Token) Type() TokenType {
	return TypeForKind(t.Kind)
}

// Classified reports whether a rule assigned the token a kind.
func (t Token) Classified() bool {
	return t.Kind != ""
}

// Len returns the length of the token in bytes.
func (t Token) Len() int {
	return t.EndCol - t.StartCol
}

// Contains returns true if the column is within the token.
func (t Token) Contains(col int) bool {
	return col >= t.StartCol && col < t.EndCol
}

// Start returns the position of the token's first byte.
func (t Token) Start() Position {
	return Position{Line: t.Line, Column: t.StartCol}
}

// End returns the position just past the token.
func (t Token) End() Position {
	return Position{Line: t.Line, Column: t.EndCol}
}

// TokenLine represents all tokens on a single line.
type TokenLine struct {
	// Line is the line number (0-indexed).
	Line int `json:"line"`

	// Tokens tile the line, sorted by StartCol.
	Tokens []Token `json:"tokens"`

	// State is the lexer state at the end of this line.
	State LineState `json:"state"`
}

// TokenAt returns the token containing the column, if any.
func (tl TokenLine) TokenAt(col int) (Token, bool) {
	for _, tok := range tl.Tokens {
		if tok.Contains(col) {
			return tok, true
		}
		if tok.StartCol > col {
			break
		}
	}
	return Token{}, false
}

// TokenBefore returns the token immediately left of the column: the token
// with StartCol < col <= EndCol. At a boundary the token ending there wins.
func (tl TokenLine) TokenBefore(col int) (Token, bool) {
	for _, tok := range tl.Tokens {
		if tok.StartCol < col && col <= tok.EndCol {
			return tok, true
		}
		if tok.StartCol >= col {
			break
		}
	}
	return Token{}, false
}
