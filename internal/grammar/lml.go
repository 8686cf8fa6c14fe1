package grammar

// Kind names used by the built-in tables.
const (
	KindString    = "string"
	KindKeyword   = "keyword"
	KindAtom      = "atom"
	KindNumber    = "number"
	KindComment   = "comment"
	KindOperator  = "operator"
	KindVariable  = "variable"
	KindVariable2 = "variable-2"
	KindVariable3 = "variable-3"
	KindMeta      = "meta"
	KindTag       = "tag"
	KindAttribute = "attribute"
)

// LML returns the rule table for the liturgical markup language.
//
// Rules keep the order of the editor mode LML was first highlighted with.
// Earlier rules shadow later ones: the operator rule consumes "<<" before
// the XML delegation rule is reached, and a block comment closed on the
// same line is classified by the slash-delimited variable-3 rule.
func LML() *Table {
	return &Table{
		Name: "lml",
		States: map[string][]Rule{
			StartState: {
				{Regex: `"(?:[^\\]|\\.)*?(?:"|$)`, Token: TokenList{KindString}},
				{Regex: `(function)(\s+)([a-z$][\w$]*)`, Token: TokenList{KindKeyword, "", KindVariable2}},
				{
					Regex: `(?:Date|PageHeaderEven|PageHeaderOdd|PageFooterEven|PageFooterOdd|Title|SetPageNumber|CSS|Day|ID|Month|Status|Type|Year)\b`,
					Token: TokenList{KindKeyword},
				},
				{
					Regex: `(?:LukanCycleDay|ModeOfWeek|SundayAfterElevationOfCross|SundaysBeforeTriodion|MovableCycleDay|NameOfDay|ModeOfWeek|@Ver|Exists|Date|@Date|@PageNbr|@Lookup|if|else|switch|case|default|thru|left|center|right|lang|insert|nid|rid|sid|use|ver)\b`,
					Token: TokenList{KindKeyword},
				},
				{
					Regex: `M1|M2|M3|M4|M5|M6|M7|M8|L1|L2|L3|Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec|true|false|book|service|draft|review|final`,
					Token: TokenList{KindAtom},
				},
				{Regex: `0x[a-f\d]+|[-+]?(?:\.\d+|\d+\.?\d*)(?:e[-+]?\d+)?`, Flags: "i", Token: TokenList{KindNumber}},
				{Regex: `//.*`, Token: TokenList{KindComment}},
				{Regex: `/(?:[^\\]|\\.)*?/`, Token: TokenList{KindVariable3}},
				{Regex: `/\*`, Token: TokenList{KindComment}, Next: "comment"},
				{Regex: `[-+/*=<>!]+`, Token: TokenList{KindOperator}},
				{Regex: `[\{\[\(]`, Indent: true},
				{Regex: `[\}\]\)]`, Dedent: true},
				{Regex: `[a-z$][\w$]*`, Token: TokenList{KindVariable}},
				{Regex: `<<`, Token: TokenList{KindMeta}, Mode: &Mode{Spec: "xml", End: `>>`}},
			},
			"comment": {
				{Regex: `.*?\*/`, Token: TokenList{KindComment}, Next: StartState},
				{Regex: `.*`, Token: TokenList{KindComment}},
			},
		},
		Meta: Meta{
			DontIndentStates:  []string{"comment"},
			ElectricChars:     "{}):",
			CloseBrackets:     "()[]{}''\"\"``",
			Fold:              "brace",
			BlockCommentStart: "/*",
			BlockCommentEnd:   "*/",
			LineComment:       "//",
		},
	}
}

// XML returns a small XML table, the delegation target of LML's "<<" rule.
func XML() *Table {
	return &Table{
		Name: "xml",
		States: map[string][]Rule{
			StartState: {
				{Regex: `<!--`, Token: TokenList{KindComment}, Next: "comment"},
				{Regex: `<!\[CDATA\[.*?\]\]>`, Token: TokenList{KindAtom}},
				{Regex: `</?[\w:.-]+`, Token: TokenList{KindTag}, Next: "tag"},
				{Regex: `&(?:#\d+|#x[0-9a-fA-F]+|\w+);`, Token: TokenList{KindAtom}},
				{Regex: `[^<&]+`},
			},
			"tag": {
				{Regex: `/?>`, Token: TokenList{KindTag}, Next: StartState},
				{Regex: `[\w:.-]+`, Token: TokenList{KindAttribute}},
				{Regex: `"[^"]*"?|'[^']*'?`, Token: TokenList{KindString}},
				{Regex: `\s+`},
			},
			"comment": {
				{Regex: `.*?-->`, Token: TokenList{KindComment}, Next: StartState},
				{Regex: `.*`, Token: TokenList{KindComment}},
			},
		},
		Meta: Meta{
			DontIndentStates:  []string{"comment"},
			BlockCommentStart: "<!--",
			BlockCommentEnd:   "-->",
		},
	}
}
