package candidates

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// LoadJSON parses a generated candidate file: an object mapping set names to
// lists. A list entry is an object with "text" and "displayText" (the
// scanner's "DisplayText" spelling is accepted), a plain string used for
// both fields, or null. A set may also be written as
// {"policy": "prefix", "items": [...]}. Sets are returned in file order.
func LoadJSON(data []byte) ([]*Set, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidData)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level must be an object", ErrInvalidData)
	}

	var sets []*Set
	var err error
	root.ForEach(func(key, value gjson.Result) bool {
		var s *Set
		s, err = parseSet(key.String(), value)
		if err == nil {
			sets = append(sets, s)
		}
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return sets, nil
}

// ReadFile loads the sets of a generated candidate file.
func ReadFile(path string) ([]*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading candidates %s: %w", path, err)
	}
	sets, err := LoadJSON(data)
	if err != nil {
		return nil, fmt.Errorf("loading candidates %s: %w", path, err)
	}
	return sets, nil
}

func parseSet(name string, value gjson.Result) (*Set, error) {
	policy := Contains
	items := value
	if value.IsObject() {
		var err error
		if policy, err = ParsePolicy(value.Get("policy").String()); err != nil {
			return nil, fmt.Errorf("set %s: %w", name, err)
		}
		items = value.Get("items")
	}
	if !items.IsArray() {
		return nil, fmt.Errorf("%w: set %s must be a list", ErrInvalidData, name)
	}

	var list []Candidate
	for i, item := range items.Array() {
		switch {
		case item.Type == gjson.Null:
			list = append(list, Candidate{})
		case item.Type == gjson.String:
			list = append(list, Candidate{Text: item.String(), DisplayText: item.String()})
		case item.IsObject():
			list = append(list, Candidate{
				Text:        firstString(item, "text", "insertText"),
				DisplayText: firstString(item, "displayText", "DisplayText"),
			})
		default:
			return nil, fmt.Errorf("%w: set %s entry %d", ErrInvalidData, name, i)
		}
	}
	return NewSet(name, policy, list), nil
}

func firstString(obj gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := obj.Get(gjson.Escape(k)); v.Exists() {
			return v.String()
		}
	}
	return ""
}

// WriteJSON stores set under its name in a generated candidate file and
// returns the formatted result. Other keys of existing are kept. existing
// may be empty.
func WriteJSON(existing []byte, set *Set) ([]byte, error) {
	if len(existing) == 0 {
		existing = []byte("{}")
	}
	if !gjson.ValidBytes(existing) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidData)
	}

	items := set.items
	if items == nil {
		items = []Candidate{}
	}
	var value any = items
	if set.policy != Contains {
		value = struct {
			Policy MatchPolicy `json:"policy"`
			Items  []Candidate `json:"items"`
		}{set.policy, items}
	}

	out, err := sjson.SetBytes(existing, gjson.Escape(set.Name()), value)
	if err != nil {
		return nil, fmt.Errorf("writing set %s: %w", set.Name(), err)
	}
	return pretty.Pretty(out), nil
}
