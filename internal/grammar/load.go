package grammar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile reads a table from a JSON, YAML or Lua file, chosen by extension.
// A table without a name takes the file's base name. The table is not
// compiled; register it to validate it.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading grammar %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var t *Table
	switch ext {
	case ".json":
		t, err = ParseJSON(data)
	case ".yaml", ".yml":
		t, err = ParseYAML(data)
	case ".lua":
		t, err = ParseLua(string(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading grammar %s: %w", path, err)
	}

	if t.Name == "" {
		t.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return t, nil
}

func newTable() *Table {
	return &Table{States: make(map[string][]Rule)}
}
