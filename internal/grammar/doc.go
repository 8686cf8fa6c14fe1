// Package grammar describes the lexical rule tables consumed by the lexer.
//
// A Table maps state names to ordered rule lists. Within a state the first
// rule whose pattern matches at the scan position wins, so rule order is part
// of a grammar's meaning. A rule may classify its whole match or each of its
// capture groups, open or close a nesting level, switch state, or hand the
// following text to another grammar until an end pattern is seen.
//
// Tables are plain data. Register compiles and validates a table; Validate
// checks references between tables. A table that passes both never fails at
// scan time.
//
// The schema follows the CodeMirror "simple mode" layout used by the original
// LML editor, so tables can be authored in JSON, YAML or Lua:
//
//	{
//	  "name": "lml",
//	  "start": [
//	    {"regex": "\"(?:[^\\\\]|\\\\.)*?(?:\"|$)", "token": "string"},
//	    {"regex": "/\\*", "token": "comment", "next": "comment"}
//	  ],
//	  "comment": [
//	    {"regex": ".*?\\*/", "token": "comment", "next": "start"},
//	    {"regex": ".*", "token": "comment"}
//	  ],
//	  "meta": {"dontIndentStates": ["comment"], "lineComment": "//"}
//	}
package grammar
