// Package candidates holds the named, ordered suggestion lists the
// completion engine filters: keyword snippets, template paths, topic keys
// and stylesheet class names.
//
// Sets are immutable once built. They are loaded from generated JSON files,
// from a SQLite store, or from the built-in keyword list, and are served to
// the engine through the Provider interface.
package candidates

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/tidwall/match"
	"golang.org/x/text/unicode/norm"
)

// Well-known set names, bound to Ctrl-1 to Ctrl-4 by default.
const (
	SetCSSClasses = "css-classes"
	SetTopicKeys  = "topic-keys"
	SetPaths      = "paths"
	SetKeywords   = "keywords"
)

// Errors returned by candidate operations.
var (
	// ErrDuplicateSet indicates two sets share a name.
	ErrDuplicateSet = errors.New("duplicate candidate set")

	// ErrInvalidData indicates malformed candidate data.
	ErrInvalidData = errors.New("invalid candidate data")

	// ErrInvalidPolicy indicates an unknown match policy name.
	ErrInvalidPolicy = errors.New("invalid match policy")
)

// Candidate is one suggestion.
type Candidate struct {
	// Text is inserted in place of the word being completed.
	Text string `json:"text"`

	// DisplayText is shown in the suggestion list.
	DisplayText string `json:"displayText"`
}

// Label returns DisplayText, or Text when there is no display text.
func (c Candidate) Label() string {
	if c.DisplayText != "" {
		return c.DisplayText
	}
	return c.Text
}

// MatchPolicy selects how a word filters a set.
type MatchPolicy int

const (
	// Contains keeps candidates whose text contains the word.
	Contains MatchPolicy = iota
	// Prefix keeps candidates whose text starts with the word.
	Prefix
	// Fuzzy keeps candidates whose text contains the word's characters in order.
	Fuzzy
)

var policyNames = []string{
	Contains: "contains",
	Prefix:   "prefix",
	Fuzzy:    "fuzzy",
}

// String returns the policy name.
func (p MatchPolicy) String() string {
	if p >= 0 && int(p) < len(policyNames) {
		return policyNames[p]
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy parses a policy name. The empty string is Contains.
func ParsePolicy(s string) (MatchPolicy, error) {
	if s == "" {
		return Contains, nil
	}
	for i, name := range policyNames {
		if strings.EqualFold(s, name) {
			return MatchPolicy(i), nil
		}
	}
	return Contains, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

// MarshalText implements encoding.TextMarshaler.
func (p MatchPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *MatchPolicy) UnmarshalText(text []byte) error {
	v, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Set is an immutable named list of candidates. Duplicates and empty
// entries are kept in source order.
type Set struct {
	name   string
	policy MatchPolicy
	items  []Candidate

	// keys are the NFC forms of the item texts.
	keys []string
}

// NewSet creates a set. items is copied.
func NewSet(name string, policy MatchPolicy, items []Candidate) *Set {
	s := &Set{
		name:   name,
		policy: policy,
		items:  slices.Clone(items),
		keys:   make([]string, len(items)),
	}
	for i, c := range items {
		s.keys[i] = norm.NFC.String(c.Text)
	}
	return s
}

// Name returns the set name.
func (s *Set) Name() string { return s.name }

// Policy returns the set's match policy.
func (s *Set) Policy() MatchPolicy { return s.policy }

// Len returns the number of candidates.
func (s *Set) Len() int { return len(s.items) }

// Items returns a copy of the candidates in source order.
func (s *Set) Items() []Candidate { return slices.Clone(s.items) }

// WithPolicy returns a set with the same items and a different policy.
func (s *Set) WithPolicy(p MatchPolicy) *Set {
	return &Set{name: s.name, policy: p, items: s.items, keys: s.keys}
}

// Match returns the candidates the word selects under the set's policy, in
// source order. The empty word selects every candidate. The result may be
// empty.
func (s *Set) Match(word string) []Candidate {
	if word == "" {
		return s.Items()
	}
	word = norm.NFC.String(word)

	var out []Candidate
	switch s.policy {
	case Fuzzy:
		matches := fuzzy.Find(word, s.keys)
		idx := make([]int, len(matches))
		for i, m := range matches {
			idx[i] = m.Index
		}
		sort.Ints(idx)
		for _, i := range idx {
			out = append(out, s.items[i])
		}
	case Prefix:
		for i, key := range s.keys {
			if strings.HasPrefix(key, word) {
				out = append(out, s.items[i])
			}
		}
	default:
		for i, key := range s.keys {
			if strings.Contains(key, word) {
				out = append(out, s.items[i])
			}
		}
	}
	return out
}

// Provider serves candidate sets by name.
type Provider interface {
	// Lookup returns the named set.
	Lookup(name string) (*Set, bool)

	// Names returns the available set names, sorted.
	Names() []string
}

// Catalog is an immutable Provider.
type Catalog struct {
	sets  map[string]*Set
	names []string
}

// NewCatalog builds a catalog. Two sets with the same name are an error.
func NewCatalog(sets ...*Set) (*Catalog, error) {
	c := &Catalog{sets: make(map[string]*Set, len(sets))}
	for _, s := range sets {
		if _, ok := c.sets[s.Name()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSet, s.Name())
		}
		c.sets[s.Name()] = s
		c.names = append(c.names, s.Name())
	}
	sort.Strings(c.names)
	return c, nil
}

// Lookup returns the named set.
func (c *Catalog) Lookup(name string) (*Set, bool) {
	s, ok := c.sets[name]
	return s, ok
}

// Names returns the set names, sorted.
func (c *Catalog) Names() []string {
	return slices.Clone(c.names)
}

// Select returns the names matching a wildcard pattern ('*' and '?').
func (c *Catalog) Select(pattern string) []string {
	var out []string
	for _, name := range c.names {
		if match.Match(name, pattern) {
			out = append(out, name)
		}
	}
	return out
}
