package grammar

import (
	lua "github.com/yuin/gopher-lua"
)

const luaSource = "<lua>"

// ParseLua runs a Lua chunk that returns a table in the simple-mode layout:
//
//	return {
//	  name = "lml",
//	  start = {
//	    { regex = [["(?:[^\\]|\\.)*?(?:"|$)]], token = "string" },
//	    { regex = [[(function)(\s+)([a-z$][\w$]*)]], token = { "keyword", false, "variable-2" } },
//	  },
//	  meta = { lineComment = "//" },
//	}
//
// Only the base, string and table libraries are available to the chunk.
// nil or false entries in a token list leave that group unclassified.
func ParseLua(src string) (*Table, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenString, lua.OpenTable} {
		open(L)
	}

	if err := L.DoString(src); err != nil {
		return nil, &ConfigError{Grammar: luaSource, Rule: -1, Message: err.Error()}
	}
	root, ok := L.Get(-1).(*lua.LTable)
	if !ok {
		return nil, tableError(luaSource, "chunk must return a table")
	}

	t := newTable()
	var fold string
	var err error
	root.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		key, isString := k.(lua.LString)
		if !isString {
			err = tableError(luaSource, "non-string key %s", k.String())
			return
		}
		switch name := string(key); name {
		case "name":
			t.Name = lua.LVAsString(v)
		case "fold":
			fold = lua.LVAsString(v)
		case "meta":
			mt, ok := v.(*lua.LTable)
			if !ok {
				err = tableError(luaSource, "meta must be a table")
				return
			}
			t.Meta = luaMeta(mt)
		default:
			st, ok := v.(*lua.LTable)
			if !ok {
				err = tableError(luaSource, "key %q is neither a state nor meta", name)
				return
			}
			t.States[name], err = luaRules(name, st)
		}
	})
	if err != nil {
		return nil, err
	}
	if t.Meta.Fold == "" {
		t.Meta.Fold = fold
	}
	return t, nil
}

func luaRules(state string, tbl *lua.LTable) ([]Rule, error) {
	n := luaLen(tbl)
	rules := make([]Rule, 0, n)
	for i := 1; i <= n; i++ {
		rt, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, ruleError(luaSource, state, i-1, "rule must be a table")
		}
		r, err := luaRule(state, i-1, rt)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func luaRule(state string, i int, rt *lua.LTable) (Rule, error) {
	regex, ok := rt.RawGetString("regex").(lua.LString)
	if !ok {
		return Rule{}, ruleError(luaSource, state, i, "regex must be a string")
	}
	r := Rule{
		Regex:  string(regex),
		Flags:  luaString(rt, "flags"),
		Indent: lua.LVAsBool(rt.RawGetString("indent")),
		Dedent: lua.LVAsBool(rt.RawGetString("dedent")),
		Next:   luaString(rt, "next"),
	}

	switch tok := rt.RawGetString("token").(type) {
	case *lua.LNilType:
	case lua.LString:
		r.Token = TokenList{string(tok)}
	case *lua.LTable:
		n := luaLen(tok)
		r.Token = make(TokenList, n)
		for j := 1; j <= n; j++ {
			switch kind := tok.RawGetInt(j).(type) {
			case lua.LString:
				r.Token[j-1] = string(kind)
			case *lua.LNilType, lua.LBool:
			default:
				return Rule{}, ruleError(luaSource, state, i, "token entries must be strings, nil or false")
			}
		}
	default:
		return Rule{}, ruleError(luaSource, state, i, "token must be a string or a table")
	}

	switch mode := rt.RawGetString("mode").(type) {
	case *lua.LNilType:
	case *lua.LTable:
		r.Mode = &Mode{
			Spec:     luaString(mode, "spec"),
			End:      luaString(mode, "end"),
			EndToken: luaString(mode, "endToken"),
		}
	default:
		return Rule{}, ruleError(luaSource, state, i, "mode must be a table")
	}
	return r, nil
}

func luaMeta(mt *lua.LTable) Meta {
	m := Meta{
		ElectricChars:     luaString(mt, "electricChars"),
		CloseBrackets:     luaString(mt, "closeBrackets"),
		Fold:              luaString(mt, "fold"),
		BlockCommentStart: luaString(mt, "blockCommentStart"),
		BlockCommentEnd:   luaString(mt, "blockCommentEnd"),
		LineComment:       luaString(mt, "lineComment"),
	}
	if states, ok := mt.RawGetString("dontIndentStates").(*lua.LTable); ok {
		for i := 1; i <= luaLen(states); i++ {
			m.DontIndentStates = append(m.DontIndentStates, lua.LVAsString(states.RawGetInt(i)))
		}
	}
	return m
}

func luaString(t *lua.LTable, key string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// luaLen returns the largest positive integer key, counting nil holes that
// the length operator would stop at.
func luaLen(t *lua.LTable) int {
	n := 0
	t.ForEach(func(k, _ lua.LValue) {
		if kn, ok := k.(lua.LNumber); ok {
			if i := int(kn); float64(i) == float64(kn) && i > n {
				n = i
			}
		}
	})
	return n
}
