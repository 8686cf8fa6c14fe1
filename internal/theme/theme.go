// Package theme maps token types to terminal colours.
package theme

import (
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/lmlassist/internal/lexer"
)

// Style is how one token type is drawn.
type Style struct {
	// Foreground is unset when HasForeground is false.
	Foreground    colorful.Color
	HasForeground bool
	Bold          bool
	Italic        bool
	Underline     bool
}

// NewStyle returns a style with the given hex foreground. Invalid hex
// values leave the foreground unset.
func NewStyle(hex string) Style {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Style{}
	}
	return Style{Foreground: c, HasForeground: true}
}

// WithItalic returns a copy of the style in italics.
func (s Style) WithItalic() Style {
	s.Italic = true
	return s
}

// WithBold returns a copy of the style in bold.
func (s Style) WithBold() Style {
	s.Bold = true
	return s
}

// WithUnderline returns a copy of the style underlined.
func (s Style) WithUnderline() Style {
	s.Underline = true
	return s
}

// IsZero reports whether the style changes nothing.
func (s Style) IsZero() bool {
	return !s.HasForeground && !s.Bold && !s.Italic && !s.Underline
}

// Theme defines colors and styles for token types.
type Theme struct {
	// Name is the display name of the theme.
	Name string

	// Foreground is the default text style.
	Foreground Style

	// TokenStyles maps token types to their styles.
	TokenStyles map[lexer.TokenType]Style
}

// StyleForToken returns the style for a given token type.
func (t *Theme) StyleForToken(tokenType lexer.TokenType) Style {
	if style, ok := t.TokenStyles[tokenType]; ok {
		return style
	}
	return t.Foreground
}

// StyleForKind returns the style for a rule kind such as "variable-2".
func (t *Theme) StyleForKind(kind string) Style {
	return t.StyleForToken(lexer.TypeForKind(kind))
}

// Twilight returns the twilight theme LML was first edited with.
func Twilight() *Theme {
	return &Theme{
		Name:       "twilight",
		Foreground: NewStyle("#f7f7f7"),
		TokenStyles: map[lexer.TokenType]Style{
			lexer.TokenComment:            NewStyle("#777777").WithItalic(),
			lexer.TokenString:             NewStyle("#8f9d6a").WithItalic(),
			lexer.TokenNumber:             NewStyle("#ca7841"),
			lexer.TokenAtom:               NewStyle("#ffcc00"),
			lexer.TokenKeyword:            NewStyle("#f9ee98"),
			lexer.TokenOperator:           NewStyle("#cda869"),
			lexer.TokenVariable:           NewStyle("#f7f7f7"),
			lexer.TokenVariableDefinition: NewStyle("#607392"),
			lexer.TokenVariableSpecial:    NewStyle("#8da6ce"),
			lexer.TokenMeta:               NewStyle("#f7f7f7"),
			lexer.TokenTag:                NewStyle("#997643"),
			lexer.TokenAttribute:          NewStyle("#d6bb6d"),
			lexer.TokenInvalid:            NewStyle("#ff0000").WithUnderline(),
		},
	}
}

// SolarizedDark returns a Solarized Dark theme.
func SolarizedDark() *Theme {
	return &Theme{
		Name:       "solarized dark",
		Foreground: NewStyle("#839496"),
		TokenStyles: map[lexer.TokenType]Style{
			lexer.TokenComment:            NewStyle("#586e75").WithItalic(),
			lexer.TokenString:             NewStyle("#859900"),
			lexer.TokenNumber:             NewStyle("#d33682"),
			lexer.TokenAtom:               NewStyle("#d33682"),
			lexer.TokenKeyword:            NewStyle("#cb4b16"),
			lexer.TokenOperator:           NewStyle("#6c71c4"),
			lexer.TokenVariable:           NewStyle("#839496"),
			lexer.TokenVariableDefinition: NewStyle("#b58900"),
			lexer.TokenVariableSpecial:    NewStyle("#6c71c4"),
			lexer.TokenMeta:               NewStyle("#859900"),
			lexer.TokenTag:                NewStyle("#93a1a1").WithBold(),
			lexer.TokenAttribute:          NewStyle("#2aa198"),
			lexer.TokenInvalid:            NewStyle("#dc322f").WithUnderline(),
		},
	}
}

// Plain returns a theme that only marks comments and errors.
func Plain() *Theme {
	return &Theme{
		Name: "plain",
		TokenStyles: map[lexer.TokenType]Style{
			lexer.TokenComment: {Italic: true},
			lexer.TokenKeyword: {Bold: true},
			lexer.TokenInvalid: {Underline: true},
		},
	}
}

var builtin = map[string]func() *Theme{
	"twilight":       Twilight,
	"solarized dark": SolarizedDark,
	"plain":          Plain,
}

// ByName returns a built-in theme. Names compare case-insensitively and
// "-" or "_" may stand for a space.
func ByName(name string) (*Theme, bool) {
	key := strings.ToLower(strings.NewReplacer("-", " ", "_", " ").Replace(name))
	fn, ok := builtin[key]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// Names returns the built-in theme names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
