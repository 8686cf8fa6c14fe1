package grammar

import (
	"regexp"
	"slices"
	"sort"
	"strings"
)

// StartState is the state a fresh scan begins in.
const StartState = "start"

// TokenList is a rule's classification. One entry classifies the whole
// match; several entries classify the rule's capture groups in order. An
// empty entry leaves its span unclassified.
type TokenList []string

// Rule is one lexical rule of a state.
type Rule struct {
	// Regex is the pattern source, matched anchored at the scan position.
	Regex string `json:"regex" yaml:"regex"`

	// Flags holds pattern flags. Supported: "i" (case-insensitive), "s" (dot matches newline).
	Flags string `json:"flags,omitempty" yaml:"flags,omitempty"`

	// Token is the classification of the match or of its groups.
	Token TokenList `json:"token,omitempty" yaml:"token,omitempty"`

	// Indent opens a nesting level.
	Indent bool `json:"indent,omitempty" yaml:"indent,omitempty"`

	// Dedent closes a nesting level.
	Dedent bool `json:"dedent,omitempty" yaml:"dedent,omitempty"`

	// Next is the state to switch to after a match. Empty keeps the current state.
	Next string `json:"next,omitempty" yaml:"next,omitempty"`

	// Mode delegates the following text to another grammar.
	Mode *Mode `json:"mode,omitempty" yaml:"mode,omitempty"`

	re *regexp.Regexp
}

// Mode references a nested grammar and the pattern ending the delegation.
type Mode struct {
	// Spec is the nested grammar name.
	Spec string `json:"spec" yaml:"spec"`

	// End is the pattern that returns control to the parent grammar.
	End string `json:"end" yaml:"end"`

	// EndToken classifies the end match. Empty leaves it unclassified.
	EndToken string `json:"endToken,omitempty" yaml:"endToken,omitempty"`

	end *regexp.Regexp
}

// Meta holds table-level information. Only DontIndentStates affects the
// lexer; the remaining fields are for the host (comment toggling,
// auto-closing, electric re-indent).
type Meta struct {
	DontIndentStates  []string `json:"dontIndentStates,omitempty" yaml:"dontIndentStates,omitempty"`
	ElectricChars     string   `json:"electricChars,omitempty" yaml:"electricChars,omitempty"`
	CloseBrackets     string   `json:"closeBrackets,omitempty" yaml:"closeBrackets,omitempty"`
	Fold              string   `json:"fold,omitempty" yaml:"fold,omitempty"`
	BlockCommentStart string   `json:"blockCommentStart,omitempty" yaml:"blockCommentStart,omitempty"`
	BlockCommentEnd   string   `json:"blockCommentEnd,omitempty" yaml:"blockCommentEnd,omitempty"`
	LineComment       string   `json:"lineComment,omitempty" yaml:"lineComment,omitempty"`
}

// DontIndent reports whether lines in state never contribute indentation.
func (m Meta) DontIndent(state string) bool {
	return slices.Contains(m.DontIndentStates, state)
}

// Table is a named set of states.
type Table struct {
	Name   string
	States map[string][]Rule
	Meta   Meta

	compiled bool
}

// Rules returns the ordered rules of a state.
func (t *Table) Rules(state string) ([]Rule, bool) {
	rules, ok := t.States[state]
	return rules, ok
}

// HasState reports whether the table declares state.
func (t *Table) HasState(state string) bool {
	_, ok := t.States[state]
	return ok
}

// StateNames returns the declared states, sorted.
func (t *Table) StateNames() []string {
	names := make([]string, 0, len(t.States))
	for name := range t.States {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compiled reports whether the table passed Compile.
func (t *Table) Compiled() bool {
	return t.compiled
}

// Match matches the rule anchored at the start of text. It returns the
// submatch index pairs, or nil when the rule does not match or matches the
// empty string. Zero-length matches never count, so a scan always advances.
func (r *Rule) Match(text string) []int {
	if r.re == nil {
		return nil
	}
	loc := r.re.FindStringSubmatchIndex(text)
	if loc == nil || loc[1] == 0 {
		return nil
	}
	return loc
}

// Groups returns the number of capture groups in the rule's pattern.
func (r *Rule) Groups() int {
	if r.re == nil {
		return 0
	}
	return r.re.NumSubexp()
}

// MatchEnd returns the length of a non-empty end-pattern match at the start
// of text, or 0.
func (m *Mode) MatchEnd(text string) int {
	if m.end == nil {
		return 0
	}
	loc := m.end.FindStringIndex(text)
	if loc == nil || loc[0] != 0 {
		return 0
	}
	return loc[1]
}

// FindEnd returns the offset of the first non-empty end-pattern match in
// text, or -1.
func (m *Mode) FindEnd(text string) int {
	if m.end == nil {
		return -1
	}
	for _, loc := range m.end.FindAllStringIndex(text, -1) {
		if loc[1] > loc[0] {
			return loc[0]
		}
	}
	return -1
}

// Compile compiles every pattern and validates references within the table.
// Mode references to other grammars are checked by Registry.Validate.
func (t *Table) Compile() error {
	if t.Name == "" {
		return tableError("<unnamed>", "table has no name")
	}
	if !t.HasState(StartState) {
		return tableError(t.Name, "missing %q state", StartState)
	}
	for _, s := range t.Meta.DontIndentStates {
		if !t.HasState(s) {
			return tableError(t.Name, "dontIndentStates names undeclared state %q", s)
		}
	}

	for _, state := range t.StateNames() {
		rules := t.States[state]
		for i := range rules {
			if err := t.compileRule(state, i, &rules[i]); err != nil {
				return err
			}
		}
	}
	t.compiled = true
	return nil
}

func (t *Table) compileRule(state string, i int, r *Rule) error {
	if r.Regex == "" {
		return ruleError(t.Name, state, i, "empty regex")
	}
	re, err := compileAnchored(r.Regex, r.Flags)
	if err != nil {
		return &ConfigError{Grammar: t.Name, State: state, Rule: i, Message: err.Error()}
	}
	r.re = re

	if n := len(r.Token); n > 1 && n != re.NumSubexp() {
		return ruleError(t.Name, state, i, "%d token kinds for %d capture groups", n, re.NumSubexp())
	}
	if r.Next != "" && !t.HasState(r.Next) {
		return ruleError(t.Name, state, i, "next names undeclared state %q", r.Next)
	}
	if r.Mode != nil {
		if r.Mode.Spec == "" {
			return ruleError(t.Name, state, i, "mode has no spec")
		}
		if r.Mode.End == "" {
			return ruleError(t.Name, state, i, "mode %q has no end pattern", r.Mode.Spec)
		}
		// Unanchored: the end pattern is both tried at the position and searched ahead.
		end, err := regexp.Compile(r.Mode.End)
		if err != nil {
			return ruleError(t.Name, state, i, "mode end: %v", err)
		}
		r.Mode.end = end
	}
	return nil
}

func compileAnchored(pattern, flags string) (*regexp.Regexp, error) {
	var prefix strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 's':
			prefix.WriteRune(f)
		default:
			return nil, &flagError{flag: f}
		}
	}
	src := `^(?:` + pattern + `)`
	if prefix.Len() > 0 {
		src = `(?` + prefix.String() + `)` + src
	}
	return regexp.Compile(src)
}

type flagError struct {
	flag rune
}

func (e *flagError) Error() string {
	return "unsupported flag " + string(e.flag)
}
