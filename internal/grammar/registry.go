package grammar

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds compiled tables by name.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tables: make(map[string]*Table),
	}
}

// DefaultRegistry returns a registry with the built-in LML and XML grammars.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	// Built-in tables are covered by tests; a failure here is a programming error.
	for _, t := range []*Table{LML(), XML()} {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// Register compiles t and adds it to the registry.
func (r *Registry) Register(t *Table) error {
	if err := t.Compile(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[t.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateGrammar, t.Name)
	}
	r.tables[t.Name] = t
	return nil
}

// Replace compiles the tables and adds them, replacing tables with the same
// names. Every mode in the new tables must delegate to a grammar that is
// registered or among the new tables; otherwise nothing is replaced. Tables
// are never removed, so tokenizers validated before a Replace keep resolving
// their delegations.
func (r *Registry) Replace(ts ...*Table) error {
	for _, t := range ts {
		if err := t.Compile(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	added := make(map[string]bool, len(ts))
	for _, t := range ts {
		added[t.Name] = true
	}
	for _, t := range ts {
		for _, state := range t.StateNames() {
			for i, rule := range t.States[state] {
				if rule.Mode == nil {
					continue
				}
				if _, ok := r.tables[rule.Mode.Spec]; ok || added[rule.Mode.Spec] {
					continue
				}
				return &ConfigError{
					Grammar: t.Name,
					State:   state,
					Rule:    i,
					Message: fmt.Sprintf("mode references unknown grammar %q", rule.Mode.Spec),
					Err:     ErrUnknownGrammar,
				}
			}
		}
	}
	for _, t := range ts {
		r.tables[t.Name] = t
	}
	return nil
}

// Get returns the table registered under name.
func (r *Registry) Get(name string) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[name]
	return t, ok
}

// Names returns the registered grammar names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that name is registered and that every grammar reachable
// from it through mode delegation is registered too.
func (r *Registry) Validate(name string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.tables[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGrammar, name)
	}

	seen := map[string]bool{name: true}
	queue := []string{name}
	for len(queue) > 0 {
		t := r.tables[queue[0]]
		queue = queue[1:]

		for _, state := range t.StateNames() {
			for i, rule := range t.States[state] {
				if rule.Mode == nil {
					continue
				}
				spec := rule.Mode.Spec
				if _, ok := r.tables[spec]; !ok {
					return &ConfigError{
						Grammar: t.Name,
						State:   state,
						Rule:    i,
						Message: fmt.Sprintf("mode references unknown grammar %q", spec),
						Err:     ErrUnknownGrammar,
					}
				}
				if !seen[spec] {
					seen[spec] = true
					queue = append(queue, spec)
				}
			}
		}
	}
	return nil
}
