package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LMLASSIST_"

// envMapping maps environment variables to setting paths.
var envMapping = map[string]string{
	"LMLASSIST_GRAMMAR":         "grammar.default",
	"LMLASSIST_GRAMMAR_FILES":   "grammar.files",
	"LMLASSIST_CANDIDATE_FILES": "candidates.files",
	"LMLASSIST_STORE":           "candidates.store",
	"LMLASSIST_MAX_RESULTS":     "completion.maxResults",
	"LMLASSIST_DEFAULT_SET":     "completion.defaultSet",
	"LMLASSIST_CSS_SOURCES":     "css.sources",
	"LMLASSIST_CSS_OUTPUT":      "css.output",
	"LMLASSIST_CSS_SET":         "css.set",
	"LMLASSIST_CSS_DEBOUNCE":    "css.debounce",
	"LMLASSIST_LOG_LEVEL":       "logging.level",
	"LMLASSIST_LOG_FORMAT":      "logging.format",
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	file     string
	required bool
	envFile  string
	lookup   func(string) (string, bool)
}

// WithFile reads path instead of DefaultFile. The file must exist.
func WithFile(path string) Option {
	return func(l *loader) {
		if path != "" {
			l.file = path
			l.required = true
		}
	}
}

// WithEnvFile reads path instead of ".env". A missing file is ignored.
func WithEnvFile(path string) Option {
	return func(l *loader) {
		l.envFile = path
	}
}

// WithLookup replaces os.LookupEnv.
func WithLookup(fn func(string) (string, bool)) Option {
	return func(l *loader) {
		if fn != nil {
			l.lookup = fn
		}
	}
}

// Load builds the configuration from defaults, the config file, the .env
// file and the environment, then validates it.
func Load(opts ...Option) (*Config, error) {
	l := &loader{
		file:    DefaultFile,
		envFile: ".env",
		lookup:  os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}

	cfg := Default()

	data, err := os.ReadFile(l.file)
	switch {
	case err == nil:
		if err := decode(cfg, l.file, data); err != nil {
			return nil, err
		}
		cfg.Source = l.file
	case errors.Is(err, fs.ErrNotExist):
		if l.required {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, l.file)
		}
	default:
		return nil, fmt.Errorf("reading config file %s: %w", l.file, err)
	}

	dotenv := map[string]string{}
	if l.envFile != "" {
		m, err := godotenv.Read(l.envFile)
		switch {
		case err == nil:
			dotenv = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, &ParseError{Path: l.envFile, Message: err.Error(), Err: err}
		}
	}

	// The process environment wins over the .env file.
	lookup := func(name string) (string, bool) {
		if v, ok := l.lookup(name); ok {
			return v, true
		}
		v, ok := dotenv[name]
		return v, ok
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML data over the defaults and validates the result.
func Parse(source string, data []byte) (*Config, error) {
	cfg := Default()
	if err := decode(cfg, source, data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(cfg *Config, source string, data []byte) error {
	// File shortcuts replace defaults bound to the same canonical key.
	defaults := cfg.Completion.Shortcuts
	cfg.Completion.Shortcuts = nil
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	err := dec.Decode(cfg)
	if err == nil {
		cfg.Completion.Shortcuts, err = mergeShortcuts(defaults, cfg.Completion.Shortcuts)
		return err
	}
	cfg.Completion.Shortcuts = defaults

	perr := &ParseError{Path: source, Message: err.Error(), Err: err}
	var derr *toml.DecodeError
	var serr *toml.StrictMissingError
	switch {
	case errors.As(err, &derr):
		perr.Line, perr.Column = derr.Position()
	case errors.As(err, &serr):
		if len(serr.Errors) > 0 {
			perr.Line, perr.Column = serr.Errors[0].Position()
			perr.Message = "unknown key " + strings.Join(serr.Errors[0].Key(), ".")
		}
	}
	return perr
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for _, env := range sortedKeys(envMapping) {
		val, ok := lookup(env)
		if !ok {
			continue
		}
		if err := cfg.set(envMapping[env], val); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}
	return nil
}

// set assigns a setting from its string form. Lists use the OS path list
// separator.
func (c *Config) set(path, value string) error {
	switch path {
	case "grammar.default":
		c.Grammar.Default = value
	case "grammar.files":
		c.Grammar.Files = splitList(value)
	case "candidates.files":
		c.Candidates.Files = splitList(value)
	case "candidates.store":
		c.Candidates.Store = value
	case "completion.maxResults":
		n, err := strconv.Atoi(value)
		if err != nil {
			return &ValidationError{Path: path, Message: "must be an integer", Value: value}
		}
		c.Completion.MaxResults = n
	case "completion.defaultSet":
		c.Completion.DefaultSet = value
	case "css.sources":
		c.CSS.Sources = splitList(value)
	case "css.output":
		c.CSS.Output = value
	case "css.set":
		c.CSS.Set = value
	case "css.debounce":
		c.CSS.Debounce = value
	case "logging.level":
		c.Logging.Level = value
	case "logging.format":
		c.Logging.Format = value
	default:
		return &ValidationError{Path: path, Message: "unknown setting", Value: value}
	}
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return filepath.SplitList(s)
}
