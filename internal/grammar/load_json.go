package grammar

import (
	"github.com/tidwall/gjson"
)

const jsonSource = "<json>"

// ParseJSON reads a table in the simple-mode JSON layout. Top-level arrays
// are states; "name" and "meta" are reserved, "fold" is copied into Meta.
func ParseJSON(data []byte) (*Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, tableError(jsonSource, "malformed JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, tableError(jsonSource, "top level must be an object")
	}

	t := newTable()
	var fold string
	var err error
	root.ForEach(func(key, value gjson.Result) bool {
		switch k := key.String(); {
		case k == "name":
			t.Name = value.String()
		case k == "meta":
			t.Meta = jsonMeta(value)
		case k == "fold":
			fold = value.String()
		case value.IsArray():
			t.States[k], err = jsonRules(k, value)
		default:
			err = tableError(jsonSource, "key %q is neither a state nor meta", k)
		}
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	if t.Meta.Fold == "" {
		t.Meta.Fold = fold
	}
	return t, nil
}

func jsonRules(state string, value gjson.Result) ([]Rule, error) {
	var rules []Rule
	var err error
	value.ForEach(func(_, item gjson.Result) bool {
		var r Rule
		r, err = jsonRule(state, len(rules), item)
		if err == nil {
			rules = append(rules, r)
		}
		return err == nil
	})
	return rules, err
}

func jsonRule(state string, i int, item gjson.Result) (Rule, error) {
	if !item.IsObject() {
		return Rule{}, ruleError(jsonSource, state, i, "rule must be an object")
	}
	regex := item.Get("regex")
	if regex.Type != gjson.String {
		return Rule{}, ruleError(jsonSource, state, i, "regex must be a string")
	}

	r := Rule{
		Regex:  regex.String(),
		Flags:  item.Get("flags").String(),
		Indent: item.Get("indent").Bool(),
		Dedent: item.Get("dedent").Bool(),
		Next:   item.Get("next").String(),
	}

	tok := item.Get("token")
	switch {
	case !tok.Exists(), tok.Type == gjson.Null:
	case tok.Type == gjson.String:
		r.Token = TokenList{tok.String()}
	case tok.IsArray():
		for _, kind := range tok.Array() {
			switch kind.Type {
			case gjson.Null:
				r.Token = append(r.Token, "")
			case gjson.String:
				r.Token = append(r.Token, kind.String())
			default:
				return Rule{}, ruleError(jsonSource, state, i, "token entries must be strings or null")
			}
		}
	default:
		return Rule{}, ruleError(jsonSource, state, i, "token must be a string, an array or null")
	}

	if mode := item.Get("mode"); mode.Exists() {
		if !mode.IsObject() {
			return Rule{}, ruleError(jsonSource, state, i, "mode must be an object")
		}
		r.Mode = &Mode{
			Spec:     mode.Get("spec").String(),
			End:      mode.Get("end").String(),
			EndToken: mode.Get("endToken").String(),
		}
	}
	return r, nil
}

func jsonMeta(value gjson.Result) Meta {
	var m Meta
	for _, s := range value.Get("dontIndentStates").Array() {
		m.DontIndentStates = append(m.DontIndentStates, s.String())
	}
	m.ElectricChars = value.Get("electricChars").String()
	m.CloseBrackets = value.Get("closeBrackets").String()
	m.Fold = value.Get("fold").String()
	m.BlockCommentStart = value.Get("blockCommentStart").String()
	m.BlockCommentEnd = value.Get("blockCommentEnd").String()
	m.LineComment = value.Get("lineComment").String()
	return m
}
