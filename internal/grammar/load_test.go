package grammar

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const jsonTable = `{
  "name": "mini",
  "start": [
    {"regex": "\"(?:[^\\\\]|\\\\.)*?(?:\"|$)", "token": "string"},
    {"regex": "(function)(\\s+)([a-z$][\\w$]*)", "token": ["keyword", null, "variable-2"]},
    {"regex": "/\\*", "token": "comment", "next": "comment"},
    {"regex": "[\\{\\[\\(]", "indent": true},
    {"regex": "[\\}\\]\\)]", "dedent": true},
    {"regex": "0x[a-f\\d]+", "flags": "i", "token": "number"},
    {"regex": "<<", "token": "meta", "mode": {"spec": "xml", "end": ">>", "endToken": "meta"}}
  ],
  "comment": [
    {"regex": ".*?\\*/", "token": "comment", "next": "start"},
    {"regex": ".*", "token": "comment"}
  ],
  "fold": "brace",
  "meta": {"dontIndentStates": ["comment"], "lineComment": "//"}
}`

const yamlTable = `
name: mini
start:
  - regex: '"(?:[^\\]|\\.)*?(?:"|$)'
    token: string
  - regex: '(function)(\s+)([a-z$][\w$]*)'
    token: [keyword, null, variable-2]
  - regex: '/\*'
    token: comment
    next: comment
  - regex: '[\{\[\(]'
    indent: true
  - regex: '[\}\]\)]'
    dedent: true
  - regex: '0x[a-f\d]+'
    flags: i
    token: number
  - regex: '<<'
    token: meta
    mode: {spec: xml, end: '>>', endToken: meta}
comment:
  - regex: '.*?\*/'
    token: comment
    next: start
  - regex: '.*'
    token: comment
fold: brace
meta:
  dontIndentStates: [comment]
  lineComment: //
`

const luaTable = `
return {
  name = "mini",
  start = {
    { regex = [["(?:[^\\]|\\.)*?(?:"|$)]], token = "string" },
    { regex = [[(function)(\s+)([a-z$][\w$]*)]], token = { "keyword", false, "variable-2" } },
    { regex = [[/\*]], token = "comment", next = "comment" },
    { regex = [=[[\{\[\(]]=], indent = true },
    { regex = [=[[\}\]\)]]=], dedent = true },
    { regex = [[0x[a-f\d]+]], flags = "i", token = "number" },
    { regex = "<<", token = "meta", mode = { spec = "xml", ["end"] = ">>", endToken = "meta" } },
  },
  comment = {
    { regex = [[.*?\*/]], token = "comment", next = "start" },
    { regex = ".*", token = "comment" },
  },
  fold = "brace",
  meta = { dontIndentStates = { "comment" }, lineComment = "//" },
}
`

func expectedMini() *Table {
	return &Table{
		Name: "mini",
		States: map[string][]Rule{
			StartState: {
				{Regex: `"(?:[^\\]|\\.)*?(?:"|$)`, Token: TokenList{"string"}},
				{Regex: `(function)(\s+)([a-z$][\w$]*)`, Token: TokenList{"keyword", "", "variable-2"}},
				{Regex: `/\*`, Token: TokenList{"comment"}, Next: "comment"},
				{Regex: `[\{\[\(]`, Indent: true},
				{Regex: `[\}\]\)]`, Dedent: true},
				{Regex: `0x[a-f\d]+`, Flags: "i", Token: TokenList{"number"}},
				{Regex: `<<`, Token: TokenList{"meta"}, Mode: &Mode{Spec: "xml", End: ">>", EndToken: "meta"}},
			},
			"comment": {
				{Regex: `.*?\*/`, Token: TokenList{"comment"}, Next: StartState},
				{Regex: `.*`, Token: TokenList{"comment"}},
			},
		},
		Meta: Meta{DontIndentStates: []string{"comment"}, LineComment: "//", Fold: "brace"},
	}
}

func TestParsers(t *testing.T) {
	parsers := []struct {
		name  string
		parse func() (*Table, error)
	}{
		{"json", func() (*Table, error) { return ParseJSON([]byte(jsonTable)) }},
		{"yaml", func() (*Table, error) { return ParseYAML([]byte(yamlTable)) }},
		{"lua", func() (*Table, error) { return ParseLua(luaTable) }},
	}

	want := expectedMini()
	for _, p := range parsers {
		t.Run(p.name, func(t *testing.T) {
			got, err := p.parse()
			if err != nil {
				t.Fatalf("parse error = %v", err)
			}
			if got.Name != want.Name {
				t.Errorf("Name = %q, want %q", got.Name, want.Name)
			}
			if !reflect.DeepEqual(got.Meta, want.Meta) {
				t.Errorf("Meta = %+v, want %+v", got.Meta, want.Meta)
			}
			for state, rules := range want.States {
				if !reflect.DeepEqual(got.States[state], rules) {
					t.Errorf("state %s:\n got %+v\nwant %+v", state, got.States[state], rules)
				}
			}
			if len(got.States) != len(want.States) {
				t.Errorf("states = %v, want %v", got.StateNames(), want.StateNames())
			}
			if err := got.Compile(); err != nil {
				t.Errorf("Compile() error = %v", err)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		parse func() (*Table, error)
	}{
		{"json malformed", func() (*Table, error) { return ParseJSON([]byte(`{"start": [`)) }},
		{"json not object", func() (*Table, error) { return ParseJSON([]byte(`[]`)) }},
		{"json bad key", func() (*Table, error) { return ParseJSON([]byte(`{"start": [], "x": 1}`)) }},
		{"json regex type", func() (*Table, error) { return ParseJSON([]byte(`{"start": [{"regex": 1}]}`)) }},
		{"json token type", func() (*Table, error) { return ParseJSON([]byte(`{"start": [{"regex": "a", "token": 3}]}`)) }},
		{"yaml malformed", func() (*Table, error) { return ParseYAML([]byte("start: [")) }},
		{"yaml bad key", func() (*Table, error) { return ParseYAML([]byte("start: []\nx: 1\n")) }},
		{"lua syntax", func() (*Table, error) { return ParseLua("return {") }},
		{"lua not table", func() (*Table, error) { return ParseLua("return 1") }},
		{"lua rule type", func() (*Table, error) { return ParseLua(`return { start = { "a" } }`) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.parse(); !errors.Is(err, ErrInvalidTable) {
				t.Errorf("error = %v, want ErrInvalidTable", err)
			}
		})
	}
}

func TestParseLuaHasNoIO(t *testing.T) {
	_, err := ParseLua(`io.write("x") return {}`)
	if err == nil {
		t.Error("io library should not be available")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		return path
	}

	tbl, err := LoadFile(write("mini.yaml", yamlTable))
	if err != nil {
		t.Fatalf("LoadFile(yaml) error = %v", err)
	}
	if tbl.Name != "mini" {
		t.Errorf("Name = %q, want mini", tbl.Name)
	}

	tbl, err = LoadFile(write("noname.json", `{"start": [{"regex": "a", "token": "x"}]}`))
	if err != nil {
		t.Fatalf("LoadFile(json) error = %v", err)
	}
	if tbl.Name != "noname" {
		t.Errorf("Name = %q, want file base name", tbl.Name)
	}

	if _, err := LoadFile(write("grammar.txt", "")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("LoadFile(txt) error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("LoadFile(missing) should fail")
	}
}
