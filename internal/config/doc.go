// Package config provides the configuration for lmlassist.
//
// Settings are resolved in layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  5. Command Line Flags      │  ← Highest priority (applied by cmd)
//	├─────────────────────────────┤
//	│  4. Environment Variables   │  ← LMLASSIST_*
//	├─────────────────────────────┤
//	│  3. .env File               │  ← same names as the environment
//	├─────────────────────────────┤
//	│  2. Config File             │  ← lmlassist.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// # Configuration File
//
//	[grammar]
//	default = "lml"
//	files = ["grammars/ages.yaml"]
//
//	[candidates]
//	files = ["assets/candidates.json"]
//	store = "~/.lmlassist/candidates.db"
//
//	[candidates.policies]
//	paths = "prefix"
//
//	[completion]
//	maxResults = 50
//	defaultSet = "keywords"
//
//	[completion.shortcuts]
//	"Ctrl-1" = "css-classes"
//
//	[css]
//	sources = ["static/css/**/*.css"]
//	output = "assets/candidates.json"
//	debounce = "250ms"
//
//	[logging]
//	level = "info"
//	format = "text"
//
// Unknown keys are rejected so that typos surface as errors.
//
// # Error Handling
//
//   - ErrInvalidConfig: a value fails validation
//   - ErrFileNotFound: an explicitly requested file doesn't exist
//   - ParseError: the configuration file is malformed
package config
