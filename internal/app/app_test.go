package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/lmlassist/internal/candidates"
	"github.com/dshills/lmlassist/internal/config"
	"github.com/dshills/lmlassist/internal/lexer"
)

func noEnv(string) (string, bool) { return "", false }

type fixture struct {
	dir    string
	config string
	logs   *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	grammarFile := write("ages.yaml", `
name: ages
start:
  - regex: '[a-z]+'
    token: keyword
`)
	candFile := write("candidates.json", `{
  "topic-keys": ["actors~Deacon", "actors~People", "prayers~Doxa"],
  "keywords": ["only "]
}`)

	storePath := filepath.Join(dir, "store", "candidates.db")
	store, err := candidates.OpenStore(storePath)
	require.NoError(t, err)
	require.NoError(t, store.Save(candidates.NewSet(candidates.SetPaths, candidates.Contains, []candidates.Candidate{
		{Text: `"ages/blocks/LI/Litany01" `, DisplayText: "ages/blocks/LI/Litany01"},
	})))
	require.NoError(t, store.Close())

	cfg := write("lmlassist.toml", fmt.Sprintf(`
[grammar]
files = [%q]

[candidates]
files = [%q]
store = %q

[candidates.policies]
topic-keys = "prefix"

[completion]
maxResults = 2

[logging]
level = "debug"
format = "json"
`, grammarFile, candFile, storePath))

	return &fixture{dir: dir, config: cfg, logs: &bytes.Buffer{}}
}

func (f *fixture) options() Options {
	return Options{
		ConfigPath: f.config,
		EnvFile:    filepath.Join(f.dir, "missing.env"),
		Lookup:     noEnv,
		LogOutput:  f.logs,
	}
}

func TestNew(t *testing.T) {
	f := newFixture(t)
	a, err := New(f.options())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, f.config, a.Config().Source)
	assert.Equal(t, "lml", a.Tokenizer().Grammar())
	assert.Equal(t, []string{"ages", "lml", "xml"}, a.Registry().Names())
	assert.NotNil(t, a.Store())

	cat := a.Catalog()
	assert.Equal(t, []string{"keywords", "paths", "topic-keys"}, cat.Names())

	kw, ok := cat.Lookup(candidates.SetKeywords)
	require.True(t, ok)
	assert.Equal(t, []candidates.Candidate{{Text: "only ", DisplayText: "only "}}, kw.Items())

	tks, ok := cat.Lookup(candidates.SetTopicKeys)
	require.True(t, ok)
	assert.Equal(t, candidates.Prefix, tks.Policy())

	paths, ok := cat.Lookup(candidates.SetPaths)
	require.True(t, ok)
	assert.Equal(t, 1, paths.Len())

	assert.Contains(t, f.logs.String(), `"msg":"candidate sets ready"`)
}

func TestEngine(t *testing.T) {
	f := newFixture(t)
	a, err := New(f.options())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	res, err := a.Engine().CompleteText("act", lexer.Position{Column: 3}, candidates.SetTopicKeys)
	require.NoError(t, err)
	assert.Equal(t, "act", res.Word)
	assert.Len(t, res.Candidates, 2)

	// maxResults bounds the fallback too.
	res, err = a.Engine().CompleteText("zzz", lexer.Position{Column: 3}, candidates.SetTopicKeys)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Candidates, 2)

	ages, err := a.EngineFor("ages")
	require.NoError(t, err)
	res, err = ages.CompleteText("x act", lexer.Position{Column: 5}, candidates.SetTopicKeys)
	require.NoError(t, err)
	assert.Equal(t, "act", res.Word)

	same, err := a.EngineFor("")
	require.NoError(t, err)
	assert.Same(t, a.Engine(), same)

	_, err = a.TokenizerFor("nope")
	assert.Error(t, err)
}

func TestResolveSet(t *testing.T) {
	f := newFixture(t)
	a, err := New(f.options())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	set, err := a.ResolveSet("paths", "Ctrl-2")
	require.NoError(t, err)
	assert.Equal(t, "paths", set)

	set, err = a.ResolveSet("", "ctrl+2")
	require.NoError(t, err)
	assert.Equal(t, candidates.SetTopicKeys, set)

	set, err = a.ResolveSet("", "")
	require.NoError(t, err)
	assert.Equal(t, candidates.SetKeywords, set)

	_, err = a.ResolveSet("", "Ctrl-9")
	assert.ErrorIs(t, err, ErrUnboundShortcut)
}

func TestNewConfigure(t *testing.T) {
	f := newFixture(t)

	opts := f.options()
	opts.SkipStore = true
	opts.Configure = func(c *config.Config) { c.Grammar.Default = "ages" }
	a, err := New(opts)
	require.NoError(t, err)
	assert.Equal(t, "ages", a.Tokenizer().Grammar())
	assert.Nil(t, a.Store())
	assert.NotContains(t, a.Catalog().Names(), candidates.SetPaths)

	opts.Configure = func(c *config.Config) { c.Completion.MaxResults = -1 }
	_, err = New(opts)
	var ie *InitError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "config", ie.Component)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewFailures(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		configure func(*config.Config)
		component string
	}{
		{"unknown grammar", func(c *config.Config) { c.Grammar.Default = "nope" }, "grammar"},
		{"missing grammar file", func(c *config.Config) { c.Grammar.Files = []string{filepath.Join(f.dir, "no.yaml")} }, "grammar"},
		{"missing candidate file", func(c *config.Config) { c.Candidates.Files = []string{filepath.Join(f.dir, "no.json")} }, "candidates"},
		{"store path is a file", func(c *config.Config) { c.Candidates.Store = filepath.Join(f.config, "db") }, "store"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := f.options()
			opts.Configure = tt.configure
			_, err := New(opts)
			var ie *InitError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.component, ie.Component)
		})
	}

	_, err := New(Options{ConfigPath: filepath.Join(f.dir, "none.toml"), Lookup: noEnv})
	assert.ErrorIs(t, err, config.ErrFileNotFound)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)
	l.Info("hidden")
	l.Warn("shown", "set", "paths")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "set=paths")
}
