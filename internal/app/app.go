// Package app wires configuration, grammars, candidate sets and the
// completion engine into one Application.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dshills/lmlassist/internal/candidates"
	"github.com/dshills/lmlassist/internal/completion"
	"github.com/dshills/lmlassist/internal/config"
	"github.com/dshills/lmlassist/internal/grammar"
	"github.com/dshills/lmlassist/internal/lexer"
)

// Options configures application startup.
type Options struct {
	// ConfigPath is an explicit configuration file. Empty looks for
	// config.DefaultFile in the working directory.
	ConfigPath string

	// EnvFile is the .env file. Empty uses ".env".
	EnvFile string

	// Lookup replaces os.LookupEnv.
	Lookup func(string) (string, bool)

	// Configure adjusts the loaded configuration, e.g. from CLI flags.
	Configure func(*config.Config)

	// LogOutput receives log records. Defaults to os.Stderr.
	LogOutput io.Writer

	// SkipStore ignores the configured candidate store.
	SkipStore bool
}

// Application holds the components built from configuration.
type Application struct {
	opts      Options
	cfg       *config.Config
	logger    *slog.Logger
	registry  *grammar.Registry
	tokenizer *lexer.Tokenizer
	store     *candidates.Store
	catalog   *candidates.Catalog
	engine    *completion.Engine
}

// New creates an Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := newBootstrapper(app, opts).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Config returns the effective configuration.
func (app *Application) Config() *config.Config { return app.cfg }

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger { return app.logger }

// Registry returns the grammar registry.
func (app *Application) Registry() *grammar.Registry { return app.registry }

// Tokenizer returns the tokenizer for the default grammar.
func (app *Application) Tokenizer() *lexer.Tokenizer { return app.tokenizer }

// Catalog returns the candidate sets.
func (app *Application) Catalog() *candidates.Catalog { return app.catalog }

// Engine returns the completion engine.
func (app *Application) Engine() *completion.Engine { return app.engine }

// Store returns the candidate store, nil when none is configured.
func (app *Application) Store() *candidates.Store { return app.store }

// TokenizerFor returns a tokenizer for the named grammar. An empty name
// selects the default grammar.
func (app *Application) TokenizerFor(name string) (*lexer.Tokenizer, error) {
	if name == "" || name == app.tokenizer.Grammar() {
		return app.tokenizer, nil
	}
	return lexer.New(app.registry, name, lexer.WithLogger(app.logger))
}

// EngineFor returns a completion engine tokenizing with the named grammar.
func (app *Application) EngineFor(name string) (*completion.Engine, error) {
	if name == "" || name == app.tokenizer.Grammar() {
		return app.engine, nil
	}
	tok, err := app.TokenizerFor(name)
	if err != nil {
		return nil, err
	}
	return app.newEngine(tok), nil
}

// ResolveSet picks the candidate set for a request: an explicit set name,
// else the set bound to shortcut, else the configured default set.
func (app *Application) ResolveSet(set, shortcut string) (string, error) {
	if set != "" {
		return set, nil
	}
	if shortcut != "" {
		name, ok := app.cfg.SetForShortcut(shortcut)
		if !ok {
			return "", fmt.Errorf("%w: no set bound to shortcut %q", ErrUnboundShortcut, shortcut)
		}
		return name, nil
	}
	return app.cfg.Completion.DefaultSet, nil
}

// Close releases the candidate store.
func (app *Application) Close() error {
	if app.store == nil {
		return nil
	}
	err := app.store.Close()
	app.store = nil
	return err
}

func (app *Application) newEngine(tok *lexer.Tokenizer) *completion.Engine {
	return completion.New(tok, app.catalog,
		completion.WithMaxResults(app.cfg.Completion.MaxResults),
		completion.WithLogger(app.logger),
	)
}
