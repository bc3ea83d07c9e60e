package config

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	kerrors "github.com/go-drift/kernel/pkg/errors"
)

// Namespace is a plugin-owned top-level configuration key. Its value maps a
// consuming application identity to a payload validated against Schema.
//
//	kernelPluginAppIcon:
//	  kernel:
//	    appIconPath: assets/app-icon
type Namespace struct {
	// Key is the top-level configuration key.
	Key string
	// Owner is the name of the plugin that registered the namespace.
	Owner string
	// Schema validates each per-app payload. Nil accepts any value.
	Schema *jsonschema.Schema
}

type namespaceEntry struct {
	Namespace
	resolved *jsonschema.Resolved
}

// NamespaceSet is the set of registered plugin namespaces. Top-level keys
// outside this set are rejected during validation.
type NamespaceSet struct {
	entries map[string]*namespaceEntry
	order   []string
}

// NewNamespaceSet creates an empty namespace set.
func NewNamespaceSet() *NamespaceSet {
	return &NamespaceSet{entries: make(map[string]*namespaceEntry)}
}

// Register adds ns to the set. Reserved keys, keys already claimed by another
// plugin and schemas that fail to compile are rejected.
func (s *NamespaceSet) Register(ns Namespace) error {
	const op = "config.RegisterNamespace"

	switch ns.Key {
	case "":
		return kerrors.SchemaValidation(op, fmt.Errorf("namespace key is required (owner %q)", ns.Owner))
	case KeyIOS, KeyAndroid, KeyApp, fragmentPluginKey:
		return kerrors.SchemaValidation(op, fmt.Errorf("namespace key %q is reserved", ns.Key))
	}

	if existing, ok := s.entries[ns.Key]; ok {
		e := kerrors.New(op, kerrors.KindDuplicatePlugin,
			fmt.Errorf("namespace %q already claimed by plugin %q", ns.Key, existing.Owner))
		e.Plugin = ns.Owner
		return e
	}

	entry := &namespaceEntry{Namespace: ns}
	if ns.Schema != nil {
		rs, err := ns.Schema.Resolve(nil)
		if err != nil {
			return kerrors.SchemaValidation(op, fmt.Errorf("namespace %q: %w", ns.Key, err))
		}
		entry.resolved = rs
	}

	s.entries[ns.Key] = entry
	s.order = append(s.order, ns.Key)
	return nil
}

// Lookup returns the namespace registered under key.
func (s *NamespaceSet) Lookup(key string) (Namespace, bool) {
	if s == nil {
		return Namespace{}, false
	}
	e, ok := s.entries[key]
	if !ok {
		return Namespace{}, false
	}
	return e.Namespace, true
}

// Keys returns the registered keys in registration order.
func (s *NamespaceSet) Keys() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// owns reports whether plugin registered the namespace key.
func (s *NamespaceSet) owns(plugin, key string) bool {
	e, ok := s.entries[key]
	return ok && e.Owner == plugin
}

func (s *NamespaceSet) entry(key string) (*namespaceEntry, bool) {
	if s == nil {
		return nil, false
	}
	e, ok := s.entries[key]
	return e, ok
}

// Clone returns a copy of s that can be registered into without affecting s.
func (s *NamespaceSet) Clone() *NamespaceSet {
	out := NewNamespaceSet()
	if s == nil {
		return out
	}
	for k, e := range s.entries {
		out.entries[k] = e
	}
	out.order = append(out.order, s.order...)
	return out
}
