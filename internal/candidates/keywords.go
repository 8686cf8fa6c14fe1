package candidates

// Keywords returns the built-in LML keyword snippets.
func Keywords() *Set {
	return NewSet(SetKeywords, Contains, []Candidate{
		{Text: "insert ", DisplayText: "insert: add contents of specified template."},
		{Text: "nid ", DisplayText: "nid: no id. Insert text as is."},
		{Text: "rid ", DisplayText: "rid: insert text using relative ID."},
		{Text: "sid ", DisplayText: "sid: insert text using specific ID."},
		{Text: "ver ", DisplayText: "ver: display version name."},
		{Text: "when_exists rid  use:  {\n\totherwise use:\n}", DisplayText: "when_exists"},
	})
}
