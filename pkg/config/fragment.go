package config

import (
	"fmt"
	"strings"
)

const fragmentPluginKey = "plugin"

// Fragment is a plugin's partial configuration contribution.
type Fragment struct {
	// Source is the name of the contributing plugin.
	Source string
	// Plugin is the plugin's own settings payload. It is required; a plugin
	// without settings supplies an empty struct or map.
	Plugin any
	// Values is a deep-partial Config tree. Top-level keys are ios, android,
	// app or a namespace registered by any plugin.
	Values map[string]any
	// Append lists dot paths whose arrays are concatenated onto the existing
	// value instead of replacing it. Each path must lie under a namespace
	// owned by Source.
	Append []string
}

// FragmentFromTree splits a fragment tree in its serialized form, where the
// plugin payload sits under the top-level "plugin" key.
func FragmentFromTree(source string, tree map[string]any) Fragment {
	values := make(map[string]any, len(tree))
	var payload any
	for k, v := range tree {
		if k == fragmentPluginKey {
			payload = v
			continue
		}
		values[k] = v
	}
	return Fragment{Source: source, Plugin: payload, Values: values}
}

// appends reports whether path was declared appendable.
func (f *Fragment) appends(path string) bool {
	for _, p := range f.Append {
		if p == path {
			return true
		}
	}
	return false
}

// checkAppendOwnership rejects append paths outside the fragment owner's
// namespaces.
func (f *Fragment) checkAppendOwnership(ns *NamespaceSet) error {
	for _, path := range f.Append {
		key, _, _ := strings.Cut(path, ".")
		if ns == nil || !ns.owns(f.Source, key) {
			return fmt.Errorf("plugin %q may not append to %q: only arrays under its own namespaces are appendable", f.Source, path)
		}
	}
	return nil
}
