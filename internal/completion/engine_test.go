package completion

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/lmlassist/internal/candidates"
	"github.com/dshills/lmlassist/internal/grammar"
	"github.com/dshills/lmlassist/internal/lexer"
)

func texts(cs []candidates.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Text
	}
	return out
}

func topicKeys() *candidates.Set {
	return candidates.NewSet("tks", candidates.Contains, []candidates.Candidate{
		{Text: "actors~Deacon"},
		{Text: "actors~People"},
		{Text: "prayers~Doxa"},
	})
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	tok, err := lexer.New(grammar.DefaultRegistry(), "lml")
	require.NoError(t, err)
	cat, err := candidates.NewCatalog(
		topicKeys(),
		candidates.NewSet("tks-prefix", candidates.Prefix, topicKeys().Items()),
		candidates.NewSet("tks-fuzzy", candidates.Fuzzy, topicKeys().Items()),
		candidates.Keywords(),
		candidates.NewSet(candidates.SetPaths, candidates.Contains, []candidates.Candidate{
			{Text: `"ages/blocks/LI/Litany01" `, DisplayText: "ages/blocks/LI/Litany01"},
			{Text: `"ages/blocks/LN/GreatLitany01" `, DisplayText: "ages/blocks/LN/GreatLitany01"},
		}),
	)
	require.NoError(t, err)
	return New(tok, cat, opts...)
}

func TestCompleteWord(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name     string
		text     string
		cursor   lexer.Position
		set      string
		word     string
		from     int
		want     []string
		fallback bool
	}{
		{
			name:   "contains match",
			text:   "act",
			cursor: lexer.Position{Column: 3},
			set:    "tks",
			word:   "act",
			want:   []string{"actors~Deacon", "actors~People"},
		},
		{
			name:   "word stops at cursor",
			text:   "actors",
			cursor: lexer.Position{Column: 3},
			set:    "tks",
			word:   "act",
			want:   []string{"actors~Deacon", "actors~People"},
		},
		{
			name:     "no match falls back to the whole set",
			text:     "zzz",
			cursor:   lexer.Position{Column: 3},
			set:      "tks",
			word:     "zzz",
			want:     []string{"actors~Deacon", "actors~People", "prayers~Doxa"},
			fallback: true,
		},
		{
			name:   "column zero",
			text:   "act",
			cursor: lexer.Position{},
			set:    "tks",
			want:   []string{"actors~Deacon", "actors~People", "prayers~Doxa"},
		},
		{
			name:   "empty line",
			text:   "",
			cursor: lexer.Position{},
			set:    "tks",
			want:   []string{"actors~Deacon", "actors~People", "prayers~Doxa"},
		},
		{
			name:   "token ending at cursor wins",
			text:   "rid x",
			cursor: lexer.Position{Column: 3},
			set:    candidates.SetKeywords,
			word:   "rid",
			want:   []string{"rid ", "when_exists rid  use:  {\n\totherwise use:\n}"},
		},
		{
			name:   "inside a string",
			text:   `insert "ages/blocks/LI"`,
			cursor: lexer.Position{Column: 22},
			set:    candidates.SetPaths,
			word:   `"ages/blocks/LI`,
			from:   7,
			want:   []string{`"ages/blocks/LI/Litany01" `},
		},
		{
			name:   "second line",
			text:   "x\nprayers",
			cursor: lexer.Position{Line: 1, Column: 4},
			set:    "tks",
			word:   "pray",
			want:   []string{"prayers~Doxa"},
		},
		{
			name:   "prefix policy",
			text:   "act",
			cursor: lexer.Position{Column: 3},
			set:    "tks-prefix",
			word:   "act",
			want:   []string{"actors~Deacon", "actors~People"},
		},
		{
			name:     "prefix policy rejects inner text",
			text:     "ople",
			cursor:   lexer.Position{Column: 4},
			set:      "tks-prefix",
			word:     "ople",
			want:     []string{"actors~Deacon", "actors~People", "prayers~Doxa"},
			fallback: true,
		},
		{
			name:   "after whitespace the word is one space",
			text:   "insert  ",
			cursor: lexer.Position{Column: 8},
			set:    candidates.SetKeywords,
			word:   " ",
			from:   7,
			want: []string{
				"insert ", "nid ", "rid ", "sid ", "ver ",
				"when_exists rid  use:  {\n\totherwise use:\n}",
			},
		},
		{
			name:   "after punctuation the word is one character",
			text:   "act ~~",
			cursor: lexer.Position{Column: 6},
			set:    "tks",
			word:   "~",
			from:   5,
			want:   []string{"actors~Deacon", "actors~People", "prayers~Doxa"},
		},
		{
			name:   "fuzzy policy",
			text:   "atp",
			cursor: lexer.Position{Column: 3},
			set:    "tks-fuzzy",
			word:   "atp",
			want:   []string{"actors~People"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.CompleteText(tt.text, tt.cursor, tt.set)
			require.NoError(t, err)

			assert.Equal(t, tt.set, res.Set)
			assert.Equal(t, tt.word, res.Word)
			assert.Equal(t, lexer.Position{Line: tt.cursor.Line, Column: tt.from}, res.From)
			assert.Equal(t, tt.cursor, res.To)
			assert.Equal(t, tt.want, texts(res.Candidates))
			assert.Equal(t, tt.fallback, res.Fallback)
			assert.False(t, res.Truncated)
		})
	}
}

func TestCompleteSpanNeverPastCursor(t *testing.T) {
	e := newEngine(t)
	line := `insert "ages/blocks/LI" rid actors`

	for col := 0; col <= len(line); col++ {
		cursor := lexer.Position{Column: col}
		res, err := e.CompleteText(line, cursor, "tks")
		require.NoError(t, err)
		assert.Equal(t, cursor, res.To)
		assert.LessOrEqual(t, res.From.Column, col)
		assert.Equal(t, line[res.From.Column:col], res.Word)
		assert.NotEmpty(t, res.Candidates)
	}
}

func TestCompleteDocument(t *testing.T) {
	e := newEngine(t)
	doc := lexer.NewDocument(e.tok, "/* open\nstill act\n*/ act")

	// Inside the block comment the whole line is one comment token.
	res, err := e.Complete(doc, lexer.Position{Line: 1, Column: 9}, "tks")
	require.NoError(t, err)
	assert.Equal(t, "still act", res.Word)
	assert.True(t, res.Fallback)

	res, err = e.Complete(doc, lexer.Position{Line: 2, Column: 6}, "tks")
	require.NoError(t, err)
	assert.Equal(t, "act", res.Word)
	assert.Equal(t, 3, res.From.Column)
	assert.False(t, res.Fallback)

	// Document edits are seen by the next request.
	require.NoError(t, doc.SetLine(2, "pray"))
	res, err = e.Complete(doc, lexer.Position{Line: 2, Column: 4}, "tks")
	require.NoError(t, err)
	assert.Equal(t, "pray", res.Word)
	assert.Equal(t, []string{"prayers~Doxa"}, texts(res.Candidates))
}

func TestCompleteUnknownSet(t *testing.T) {
	e := newEngine(t)

	_, err := e.CompleteText("act", lexer.Position{Column: 3}, "missing")
	require.ErrorIs(t, err, ErrUnknownSet)

	var se *SetError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "missing", se.Set)
	assert.Contains(t, se.Available, "tks")
	assert.Contains(t, err.Error(), `"missing"`)

	// The set is checked before the cursor.
	_, err = e.CompleteText("act", lexer.Position{Line: 9}, "missing")
	assert.ErrorIs(t, err, ErrUnknownSet)
}

func TestCompletePositionOutOfRange(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name   string
		text   string
		cursor lexer.Position
	}{
		{"line past end", "act", lexer.Position{Line: 1}},
		{"negative line", "act", lexer.Position{Line: -1}},
		{"column past end", "act", lexer.Position{Column: 4}},
		{"negative column", "act", lexer.Position{Column: -1}},
		{"inside a character", "δx", lexer.Position{Column: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CompleteText(tt.text, tt.cursor, "tks")
			require.ErrorIs(t, err, ErrPositionOutOfRange)

			var pe *PositionError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.cursor, pe.Position)
			assert.NotEmpty(t, pe.Reason)
		})
	}

	// A multi-byte character boundary is a valid cursor.
	res, err := e.CompleteText("δx", lexer.Position{Column: 2}, "tks")
	require.NoError(t, err)
	assert.Equal(t, 0, res.From.Column)
}

func TestCompleteMaxResults(t *testing.T) {
	e := newEngine(t, WithMaxResults(1))

	res, err := e.CompleteText("act", lexer.Position{Column: 3}, "tks")
	require.NoError(t, err)
	assert.Equal(t, []string{"actors~Deacon"}, texts(res.Candidates))
	assert.True(t, res.Truncated)

	res, err = e.CompleteText("pray", lexer.Position{Column: 4}, "tks")
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 1)
	assert.False(t, res.Truncated)

	unbounded := newEngine(t, WithMaxResults(0))
	res, err = unbounded.CompleteText("zzz", lexer.Position{Column: 3}, "tks")
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 3)
}

func TestCompleteConcurrentDocuments(t *testing.T) {
	e := newEngine(t)
	docs := []*lexer.Document{
		lexer.NewDocument(e.tok, "act"),
		lexer.NewDocument(e.tok, "pray"),
	}
	want := [][]string{
		{"actors~Deacon", "actors~People"},
		{"prayers~Doxa"},
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := docs[i%2]
			line, _ := d.Line(0)
			res, err := e.Complete(d, lexer.Position{Column: len(line)}, "tks")
			if assert.NoError(t, err) {
				assert.Equal(t, want[i%2], texts(res.Candidates))
			}
		}(i)
	}
	wg.Wait()
}
