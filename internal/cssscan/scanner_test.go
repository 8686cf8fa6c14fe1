package cssscan

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/lmlassist/internal/candidates"
)

const stylesheet = `
/* .commented { color: red } */
@charset "utf-8";
@import url("other.css");

.actor, p.prayer > span.red { color: #a00; }
.red:hover, a[href$=".pdf"] { text-decoration: underline }

@media print {
  .noprintactor { display: none }
  .actor { display: block }
}

@font-face { font-family: "Fancy"; src: url(".notaclass.woff") }

@keyframes pulse {
  from { opacity: 0.5 }
  50.5% { opacity: 1 }
}

.IndexLink::after { content: ".fake"; }
.sm\:flex, .-x, .-1y, ._under { }
`

func TestExtractClasses(t *testing.T) {
	got := ExtractClasses(stylesheet)
	assert.Equal(t, []string{
		"actor", "prayer", "red", "noprintactor", "IndexLink", "sm:flex", "-x", "_under",
	}, got)
}

func TestExtractClassesEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		css  string
		want []string
	}{
		{"empty", "", nil},
		{"unterminated comment", ".a {} /* .b {}", []string{"a"}},
		{"declarations only", "color: red;", nil},
		{"unbalanced close", "} .a {}", []string{"a"}},
		{"attribute selector", `[class~="x.y"].z {}`, []string{"z"}},
		{"supports", "@supports (display: grid) { .grid {} }", []string{"grid"}},
		{"non-ascii", ".δόξα {}", []string{"δόξα"}},
		{"compound", ".a.b.a {}", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractClasses(tt.css))
		})
	}
}

func TestCandidates(t *testing.T) {
	assert.Equal(t, []candidates.Candidate{
		{Text: ".IndexLink ", DisplayText: "IndexLink"},
		{Text: ".actor ", DisplayText: "actor"},
	}, Candidates([]string{"IndexLink", "actor"}))
}

func writeCSS(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScannerFiles(t *testing.T) {
	dir := t.TempDir()
	writeCSS(t, filepath.Join(dir, "a.css"), ".a {}")
	writeCSS(t, filepath.Join(dir, "sub", "deep", "b.css"), ".b {}")
	writeCSS(t, filepath.Join(dir, "notes.txt"), ".c {}")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dir.css"), 0o755))

	s := New([]string{filepath.Join(dir, "**", "*.css"), filepath.Join(dir, "a.css")}, "")
	files, err := s.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.css"),
		filepath.Join(dir, "sub", "deep", "b.css"),
	}, files)

	_, err = New(nil, "").Files()
	assert.ErrorIs(t, err, ErrNoPatterns)

	_, err = New([]string{filepath.Join(dir, "[")}, "").Files()
	assert.ErrorIs(t, err, ErrBadPattern)
}

func TestScannerGenerate(t *testing.T) {
	dir := t.TempDir()
	writeCSS(t, filepath.Join(dir, "1.css"), ".zeta, .actor {}")
	writeCSS(t, filepath.Join(dir, "2.css"), ".actor, .beta {}")
	out := filepath.Join(dir, "gen", "candidates.json")
	writeCSS(t, out, `{"topic-keys": ["actors~Deacon"]}`)

	s := New([]string{filepath.Join(dir, "*.css")}, out)
	res, err := s.Generate()
	require.NoError(t, err)
	assert.Len(t, res.Files, 2)
	assert.Equal(t, candidates.SetCSSClasses, res.Set.Name())

	sets, err := candidates.ReadFile(out)
	require.NoError(t, err)
	require.Len(t, sets, 2)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "actors~Deacon", gjson.GetBytes(data, "topic-keys.0").String())
	assert.Equal(t, []string{".zeta ", ".actor ", ".beta "}, texts(gjson.GetBytes(data, "css-classes.#.text").Array()))
	assert.NoFileExists(t, out+".tmp")

	sorted := New([]string{filepath.Join(dir, "*.css")}, out, WithSorted(true), WithSet("classes"))
	res, err = sorted.Generate()
	require.NoError(t, err)
	assert.Equal(t, "classes", res.Set.Name())
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []string{".actor ", ".beta ", ".zeta "}, texts(gjson.GetBytes(data, "classes.#.text").Array()))
	assert.True(t, gjson.GetBytes(data, "css-classes").Exists())

	_, err = New([]string{filepath.Join(dir, "*.scss")}, out).Generate()
	assert.ErrorIs(t, err, ErrNoFiles)
}

func texts(rs []gjson.Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.String()
	}
	return out
}

func TestScannerWatch(t *testing.T) {
	dir := t.TempDir()
	css := filepath.Join(dir, "site.css")
	writeCSS(t, css, ".first {}")
	out := filepath.Join(dir, "candidates.json")

	var (
		mu      sync.Mutex
		results []*Result
	)
	notify := func(res *Result, err error) {
		if err != nil {
			return
		}
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
	}
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(results)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	s := New([]string{filepath.Join(dir, "*.css")}, out, WithDebounce(20*time.Millisecond))
	go func() { done <- s.Watch(ctx, notify) }()

	require.Eventually(t, func() bool { return count() >= 1 }, 5*time.Second, 10*time.Millisecond)

	writeCSS(t, css, ".first {} .second {}")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(out)
		return err == nil && gjson.GetBytes(data, "css-classes.#").Int() == 2
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
