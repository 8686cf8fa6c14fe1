package cssscan

import (
	"strings"
	"unicode/utf8"
)

// At-rules whose blocks hold style rules rather than declarations.
var groupingRules = map[string]bool{
	"media":     true,
	"supports":  true,
	"document":  true,
	"layer":     true,
	"container": true,
	"scope":     true,
}

// ExtractClasses returns the class names used in the selectors of a
// stylesheet, in first-seen order without duplicates. Declarations,
// comments and string literals are ignored.
func ExtractClasses(css string) []string {
	src := stripCommentsAndStrings(css)

	var (
		names   []string
		seen    = map[string]bool{}
		prelude strings.Builder
		// true for blocks that hold style rules
		stack = []bool{true}
	)
	for i := 0; i < len(src); i++ {
		switch c := src[i]; c {
		case '{':
			rules := stack[len(stack)-1]
			sel := strings.TrimSpace(prelude.String())
			prelude.Reset()
			switch {
			case !rules:
				stack = append(stack, false)
			case strings.HasPrefix(sel, "@"):
				stack = append(stack, groupingRules[atRuleName(sel)])
			default:
				for _, name := range selectorClasses(sel) {
					if !seen[name] {
						seen[name] = true
						names = append(names, name)
					}
				}
				stack = append(stack, false)
			}
		case '}':
			prelude.Reset()
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case ';':
			prelude.Reset()
		default:
			prelude.WriteByte(c)
		}
	}
	return names
}

func atRuleName(prelude string) string {
	name := strings.TrimPrefix(prelude, "@")
	if i := strings.IndexAny(name, " \t\r\n("); i >= 0 {
		name = name[:i]
	}
	// vendor prefixes, e.g. @-moz-document
	if strings.HasPrefix(name, "-") {
		if i := strings.Index(name[1:], "-"); i >= 0 {
			name = name[i+2:]
		}
	}
	return strings.ToLower(name)
}

// selectorClasses returns the class names in a selector list.
func selectorClasses(sel string) []string {
	var names []string
	depth := 0 // attribute selector nesting
	for i := 0; i < len(sel); i++ {
		switch sel[i] {
		case '\\':
			i++
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '.':
			if depth > 0 {
				continue
			}
			name, n := ident(sel[i+1:])
			if name != "" {
				names = append(names, name)
				i += n
			}
		}
	}
	return names
}

// ident reads a CSS identifier at the start of s and returns it unescaped
// with the number of bytes consumed.
func ident(s string) (string, int) {
	var b strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			_, size := utf8.DecodeRuneInString(s[i+1:])
			b.WriteString(s[i+1 : i+1+size])
			i += 1 + size
			continue
		case c >= utf8.RuneSelf:
			_, size := utf8.DecodeRuneInString(s[i:])
			b.WriteString(s[i : i+size])
			i += size
			continue
		case c == '_' || c == '-' || isLetter(c):
		case isDigit(c):
			if b.Len() == 0 || (b.Len() == 1 && b.String() == "-") {
				return "", 0
			}
		default:
			return b.String(), i
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), i
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

// stripCommentsAndStrings blanks out comments and the contents of string
// literals, keeping the quotes so selectors keep their shape.
func stripCommentsAndStrings(css string) string {
	var b strings.Builder
	b.Grow(len(css))
	for i := 0; i < len(css); i++ {
		c := css[i]
		switch {
		case c == '/' && i+1 < len(css) && css[i+1] == '*':
			end := strings.Index(css[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			i += end + 3
			b.WriteByte(' ')
		case c == '"' || c == '\'':
			b.WriteByte(c)
			for i++; i < len(css) && css[i] != c && css[i] != '\n'; i++ {
				if css[i] == '\\' {
					i++
				}
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
