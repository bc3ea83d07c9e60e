package plugin

import (
	"fmt"
	"sync"

	"github.com/go-drift/kernel/pkg/config"
	kerrors "github.com/go-drift/kernel/pkg/errors"
)

// Registry is the ordered set of plugins for one build. Registration order is
// execution order and merge order.
type Registry struct {
	mu         sync.RWMutex
	plugins    []Plugin
	byName     map[string]int
	namespaces *config.NamespaceSet
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:     make(map[string]int),
		namespaces: config.NewNamespaceSet(),
	}
}

// Register appends p. A second plugin with the same name fails with a
// duplicate plugin error, as does a namespace already claimed by another
// plugin. A failed registration leaves the registry unchanged.
func (r *Registry) Register(p Plugin) error {
	const op = "plugin.Register"

	if p.Name == "" {
		return kerrors.SchemaValidation(op, fmt.Errorf("plugin name is required"))
	}
	if p.Fragment != nil && p.Fragment.Source != "" && p.Fragment.Source != p.Name {
		e := kerrors.SchemaValidation(op, fmt.Errorf("fragment source %q does not match plugin name", p.Fragment.Source))
		e.Plugin = p.Name
		return e
	}
	for platform, fn := range p.Mutations {
		if fn == nil {
			e := kerrors.SchemaValidation(op, fmt.Errorf("nil mutation for platform %s", platform))
			e.Plugin = p.Name
			return e
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[p.Name]; ok {
		return kerrors.DuplicatePlugin(op, p.Name)
	}

	staged := r.namespaces.Clone()
	for _, ns := range p.Namespaces {
		ns.Owner = p.Name
		if err := staged.Register(ns); err != nil {
			return err
		}
	}

	r.namespaces = staged
	r.byName[p.Name] = len(r.plugins)
	r.plugins = append(r.plugins, p)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(p Plugin) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// List returns the registered plugins in registration order.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Plugin(nil), r.plugins...)
}

// Lookup returns the plugin registered under name.
func (r *Registry) Lookup(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byName[name]
	if !ok {
		return Plugin{}, false
	}
	return r.plugins[i], true
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Namespaces returns a snapshot of the namespaces claimed by registered
// plugins.
func (r *Registry) Namespaces() *config.NamespaceSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namespaces.Clone()
}

// Fragments returns the plugins' configuration fragments in registration
// order, with Source set to the owning plugin.
func (r *Registry) Fragments() []config.Fragment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []config.Fragment
	for _, p := range r.plugins {
		if p.Fragment == nil {
			continue
		}
		f := *p.Fragment
		f.Source = p.Name
		out = append(out, f)
	}
	return out
}

// Resolve merges base with every registered fragment against the registered
// namespaces.
func (r *Registry) Resolve(base map[string]any) (*config.Config, error) {
	return config.Merge(base, r.Fragments(), r.Namespaces())
}
