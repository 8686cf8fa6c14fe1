package grammar

import (
	"gopkg.in/yaml.v3"
)

const yamlSource = "<yaml>"

// ParseYAML reads a table in the simple-mode layout written as YAML.
func ParseYAML(data []byte) (*Table, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Grammar: yamlSource, Rule: -1, Message: err.Error()}
	}

	t := newTable()
	var fold string
	for key, node := range doc {
		switch {
		case key == "name":
			if err := node.Decode(&t.Name); err != nil {
				return nil, tableError(yamlSource, "name: %v", err)
			}
		case key == "meta":
			if err := node.Decode(&t.Meta); err != nil {
				return nil, tableError(yamlSource, "meta: %v", err)
			}
		case key == "fold":
			fold = node.Value
		case node.Kind == yaml.SequenceNode:
			var rules []Rule
			if err := node.Decode(&rules); err != nil {
				return nil, &ConfigError{Grammar: yamlSource, State: key, Rule: -1, Message: err.Error()}
			}
			t.States[key] = rules
		default:
			return nil, tableError(yamlSource, "key %q is neither a state nor meta", key)
		}
	}
	if t.Meta.Fold == "" {
		t.Meta.Fold = fold
	}
	return t, nil
}

// UnmarshalYAML accepts a single kind, a list of kinds with nulls, or null.
func (l *TokenList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*l = nil
			return nil
		}
		*l = TokenList{value.Value}
	case yaml.SequenceNode:
		list := make(TokenList, 0, len(value.Content))
		for _, n := range value.Content {
			if n.Kind != yaml.ScalarNode {
				return &yaml.TypeError{Errors: []string{"token entries must be scalars"}}
			}
			if n.Tag == "!!null" {
				list = append(list, "")
				continue
			}
			list = append(list, n.Value)
		}
		*l = list
	default:
		return &yaml.TypeError{Errors: []string{"token must be a scalar or a sequence"}}
	}
	return nil
}
