package lexer

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dshills/lmlassist/internal/grammar"
)

// ErrBadState indicates a LineState text encoding could not be parsed.
var ErrBadState = errors.New("malformed line state")

// LineState is the scanner state at a line boundary. It is a value: the
// tokenizer never mutates a LineState it was given.
type LineState struct {
	// State is the current state of the grammar at this level.
	State string `json:"state"`

	// Depth is the open indent count, never negative.
	Depth int `json:"depth"`

	// Mode is set while text is delegated to a nested grammar.
	Mode *ModeState `json:"mode,omitempty"`
}

// ModeState records an active delegation.
type ModeState struct {
	// Origin is the rule that started the delegation.
	Origin RuleRef `json:"origin"`

	// Inner is the nested grammar's own state.
	Inner LineState `json:"inner"`
}

// RuleRef identifies a rule by grammar, state and index.
type RuleRef struct {
	Grammar string `json:"grammar"`
	State   string `json:"state"`
	Index   int    `json:"index"`
}

// Start returns the state a fresh document begins in.
func Start() LineState {
	return LineState{State: grammar.StartState}
}

// Nested reports whether a delegation is active.
func (s LineState) Nested() bool {
	return s.Mode != nil
}

// Equal reports whether two states are identical, including nested modes.
func (s LineState) Equal(o LineState) bool {
	if s.State != o.State || s.Depth != o.Depth {
		return false
	}
	if s.Mode == nil || o.Mode == nil {
		return s.Mode == nil && o.Mode == nil
	}
	return s.Mode.Origin == o.Mode.Origin && s.Mode.Inner.Equal(o.Mode.Inner)
}

// String returns the text encoding.
func (s LineState) String() string {
	b, _ := s.MarshalText()
	return string(b)
}

// MarshalText encodes the state as "state,depth" followed, for every active
// delegation, by "|@grammar,state,index|state,depth". Names are query-escaped.
func (s LineState) MarshalText() ([]byte, error) {
	var sb strings.Builder
	for level := &s; ; level = &level.Mode.Inner {
		sb.WriteString(url.QueryEscape(level.State))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(level.Depth))
		if level.Mode == nil {
			break
		}
		o := level.Mode.Origin
		fmt.Fprintf(&sb, "|@%s,%s,%d|", url.QueryEscape(o.Grammar), url.QueryEscape(o.State), o.Index)
	}
	return []byte(sb.String()), nil
}

// UnmarshalText decodes the MarshalText form. Empty text is the start state.
func (s *LineState) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = Start()
		return nil
	}
	parts := strings.Split(string(text), "|")
	if len(parts)%2 == 0 {
		return fmt.Errorf("%w: %q", ErrBadState, text)
	}

	levels := make([]LineState, 0, len(parts)/2+1)
	origins := make([]RuleRef, 0, len(parts)/2)
	for i, part := range parts {
		var err error
		if i%2 == 0 {
			var level LineState
			level, err = parseLevel(part)
			levels = append(levels, level)
		} else {
			var ref RuleRef
			ref, err = parseOrigin(part)
			origins = append(origins, ref)
		}
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrBadState, text, err)
		}
	}

	// Rebuild from the innermost level outwards.
	st := levels[len(levels)-1]
	for i := len(origins) - 1; i >= 0; i-- {
		outer := levels[i]
		outer.Mode = &ModeState{Origin: origins[i], Inner: st}
		st = outer
	}
	*s = st
	return nil
}

func parseLevel(s string) (LineState, error) {
	name, depth, ok := strings.Cut(s, ",")
	if !ok {
		return LineState{}, errors.New("expected state,depth")
	}
	state, err := url.QueryUnescape(name)
	if err != nil {
		return LineState{}, err
	}
	d, err := strconv.Atoi(depth)
	if err != nil {
		return LineState{}, err
	}
	if d < 0 || state == "" {
		return LineState{}, errors.New("empty state or negative depth")
	}
	return LineState{State: state, Depth: d}, nil
}

func parseOrigin(s string) (RuleRef, error) {
	fields := strings.Split(strings.TrimPrefix(s, "@"), ",")
	if !strings.HasPrefix(s, "@") || len(fields) != 3 {
		return RuleRef{}, errors.New("expected @grammar,state,index")
	}
	g, err := url.QueryUnescape(fields[0])
	if err != nil {
		return RuleRef{}, err
	}
	st, err := url.QueryUnescape(fields[1])
	if err != nil {
		return RuleRef{}, err
	}
	idx, err := strconv.Atoi(fields[2])
	if err != nil {
		return RuleRef{}, err
	}
	return RuleRef{Grammar: g, State: st, Index: idx}, nil
}
