package lexer

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrLineOutOfRange indicates a line number outside the document.
var ErrLineOutOfRange = errors.New("line out of range")

// Document holds one document's lines and caches the state at the start of
// each line. Only the states needed by a request are computed, and an edit
// discards cached states from the edited line onwards unless the line's end
// state is unchanged.
//
// A Document is safe for concurrent use. Its cache is never shared with
// another document.
type Document struct {
	id  uuid.UUID
	tok *Tokenizer
	log *slog.Logger

	mu    sync.Mutex
	lines []string

	// starts[i] is the state at the start of line i. Only a prefix of the
	// lines has a cached state.
	starts []LineState

	// rescans counts line scans, for tests.
	rescans int
}

// NewDocument creates a document holding text.
func NewDocument(tok *Tokenizer, text string) *Document {
	d := &Document{
		id:  uuid.New(),
		tok: tok,
	}
	d.log = tok.logger.With("doc", d.id.String(), "grammar", tok.Grammar())
	d.reset(text)
	return d
}

// ID returns the document's unique id.
func (d *Document) ID() uuid.UUID {
	return d.id
}

// Tokenizer returns the tokenizer the document scans with.
func (d *Document) Tokenizer() *Tokenizer {
	return d.tok
}

// LineCount returns the number of lines.
func (d *Document) LineCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.lines)
}

// Line returns the text of line i.
func (d *Document) Line(i int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(i, len(d.lines)); err != nil {
		return "", err
	}
	return d.lines[i], nil
}

// Text returns the document joined with '\n'.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.Join(d.lines, "\n")
}

// SetText replaces the whole document.
func (d *Document) SetText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset(text)
}

// SetLine replaces line i. Cached states after the line are kept when the
// line still ends in the same state.
func (d *Document) SetLine(i int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(i, len(d.lines)); err != nil {
		return err
	}
	d.lines[i] = text

	if len(d.starts) <= i+1 {
		return nil
	}
	_, end := d.scan(i)
	if end.Equal(d.starts[i+1]) {
		return nil
	}
	d.log.Debug("line end state changed", "line", i, "from", d.starts[i+1].String(), "to", end.String())
	d.starts = append(d.starts[:i+1], end)
	return nil
}

// InsertLine inserts a line before line i. i may equal LineCount to append.
func (d *Document) InsertLine(i int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(i, len(d.lines)+1); err != nil {
		return err
	}
	d.lines = slices.Insert(d.lines, i, text)
	d.truncate(i + 1)
	return nil
}

// DeleteLine removes line i. The last remaining line cannot be removed; it
// is cleared instead.
func (d *Document) DeleteLine(i int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(i, len(d.lines)); err != nil {
		return err
	}
	if len(d.lines) == 1 {
		d.lines[0] = ""
	} else {
		d.lines = slices.Delete(d.lines, i, i+1)
	}
	d.truncate(i + 1)
	return nil
}

// StateAt returns the state at the start of line i.
func (d *Document) StateAt(i int) (LineState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(i, len(d.lines)); err != nil {
		return LineState{}, err
	}
	d.ensure(i)
	return d.starts[i], nil
}

// Tokens tokenizes line i from its cached start state.
func (d *Document) Tokens(i int) (TokenLine, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(i, len(d.lines)); err != nil {
		return TokenLine{}, err
	}
	d.ensure(i)
	toks, end := d.scan(i)
	if len(d.starts) == i+1 {
		d.starts = append(d.starts, end)
	}
	return TokenLine{Line: i, Tokens: toks, State: end}, nil
}

// TokenAt returns the token containing pos.
func (d *Document) TokenAt(pos Position) (Token, bool, error) {
	tl, err := d.Tokens(pos.Line)
	if err != nil {
		return Token{}, false, err
	}
	tok, ok := tl.TokenAt(pos.Column)
	return tok, ok, nil
}

func (d *Document) reset(text string) {
	d.lines = strings.Split(text, "\n")
	d.starts = []LineState{Start()}
}

// ensure computes cached states up to the start of line i.
func (d *Document) ensure(i int) {
	for len(d.starts) <= i {
		_, end := d.scan(len(d.starts) - 1)
		d.starts = append(d.starts, end)
	}
}

// scan tokenizes line i from starts[i], which must be cached.
func (d *Document) scan(i int) ([]Token, LineState) {
	d.rescans++
	return d.tok.TokenizeLine(i, d.lines[i], d.starts[i])
}

// truncate keeps at most n cached states.
func (d *Document) truncate(n int) {
	if len(d.starts) > n {
		d.starts = d.starts[:n]
	}
}

func (d *Document) check(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %d (document has %d lines)", ErrLineOutOfRange, i, len(d.lines))
	}
	return nil
}
