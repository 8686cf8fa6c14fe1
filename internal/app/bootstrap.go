package app

import (
	"os"

	"github.com/dshills/lmlassist/internal/candidates"
	"github.com/dshills/lmlassist/internal/config"
	"github.com/dshills/lmlassist/internal/grammar"
	"github.com/dshills/lmlassist/internal/lexer"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 6),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initLogger,
		b.initGrammars,
		b.initStore,
		b.initCandidates,
		b.initEngine,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

// initConfig loads and validates the configuration.
func (b *bootstrapper) initConfig() error {
	var opts []config.Option
	if b.opts.ConfigPath != "" {
		opts = append(opts, config.WithFile(b.opts.ConfigPath))
	}
	if b.opts.EnvFile != "" {
		opts = append(opts, config.WithEnvFile(b.opts.EnvFile))
	}
	if b.opts.Lookup != nil {
		opts = append(opts, config.WithLookup(b.opts.Lookup))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if b.opts.Configure != nil {
		b.opts.Configure(cfg)
		if err := cfg.Validate(); err != nil {
			return &InitError{Component: "config", Err: err}
		}
	}
	b.app.cfg = cfg
	b.initOrder = append(b.initOrder, "config")
	return nil
}

// initLogger builds the slog logger from the logging section.
func (b *bootstrapper) initLogger() error {
	out := b.opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	b.app.logger = NewLogger(b.app.cfg.Logging, out)
	if b.app.cfg.Source != "" {
		b.app.logger.Debug("loaded config", "path", b.app.cfg.Source)
	}
	b.initOrder = append(b.initOrder, "logger")
	return nil
}

// initGrammars registers the built-in and configured rule tables and
// creates the default tokenizer.
func (b *bootstrapper) initGrammars() error {
	reg := grammar.DefaultRegistry()
	var tables []*grammar.Table
	for _, path := range b.app.cfg.Grammar.Files {
		t, err := grammar.LoadFile(path)
		if err != nil {
			return &InitError{Component: "grammar", Err: err}
		}
		if _, exists := reg.Get(t.Name); exists {
			b.app.logger.Info("grammar replaced", "grammar", t.Name, "path", path)
		}
		tables = append(tables, t)
	}
	// Files may delegate to each other, so they are added together.
	if err := reg.Replace(tables...); err != nil {
		return &InitError{Component: "grammar", Err: err}
	}

	tok, err := lexer.New(reg, b.app.cfg.Grammar.Default, lexer.WithLogger(b.app.logger))
	if err != nil {
		return &InitError{Component: "grammar", Err: err}
	}
	b.app.registry = reg
	b.app.tokenizer = tok
	b.initOrder = append(b.initOrder, "grammars")
	return nil
}

// initStore opens the SQLite candidate store when one is configured.
func (b *bootstrapper) initStore() error {
	path := b.app.cfg.Candidates.StorePath()
	if path == "" || b.opts.SkipStore {
		return nil
	}
	store, err := candidates.OpenStore(path)
	if err != nil {
		return &InitError{Component: "store", Err: err}
	}
	b.app.store = store
	b.initOrder = append(b.initOrder, "store")
	return nil
}

// initCandidates collects the candidate sets. Later sources replace sets
// of the same name: built-in keywords, then files in order, then the store.
func (b *bootstrapper) initCandidates() error {
	var (
		order []string
		sets  = map[string]*candidates.Set{}
	)
	add := func(s *candidates.Set, source string) {
		if _, ok := sets[s.Name()]; ok {
			b.app.logger.Debug("candidate set replaced", "set", s.Name(), "source", source)
		} else {
			order = append(order, s.Name())
		}
		sets[s.Name()] = s
	}

	add(candidates.Keywords(), "builtin")
	for _, path := range b.app.cfg.Candidates.Files {
		loaded, err := candidates.ReadFile(path)
		if err != nil {
			return &InitError{Component: "candidates", Err: err}
		}
		for _, s := range loaded {
			add(s, path)
		}
	}
	if b.app.store != nil {
		stored, err := b.app.store.Load()
		if err != nil {
			return &InitError{Component: "candidates", Err: err}
		}
		for _, s := range stored {
			add(s, "store")
		}
	}

	all := make([]*candidates.Set, 0, len(order))
	for _, name := range order {
		s := sets[name]
		if p, ok := b.app.cfg.Policy(name); ok {
			s = s.WithPolicy(p)
		}
		all = append(all, s)
	}
	cat, err := candidates.NewCatalog(all...)
	if err != nil {
		return &InitError{Component: "candidates", Err: err}
	}
	b.app.catalog = cat
	b.app.logger.Debug("candidate sets ready", "sets", len(all))
	b.initOrder = append(b.initOrder, "candidates")
	return nil
}

// initEngine creates the completion engine.
func (b *bootstrapper) initEngine() error {
	b.app.engine = b.app.newEngine(b.app.tokenizer)
	b.initOrder = append(b.initOrder, "engine")
	return nil
}

// cleanup releases initialized components in reverse order.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		switch b.initOrder[i] {
		case "store":
			if b.app.store != nil {
				_ = b.app.store.Close()
				b.app.store = nil
			}
		}
	}
}
