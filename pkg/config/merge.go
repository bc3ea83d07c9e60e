package config

import (
	"encoding/json"
	"fmt"

	kerrors "github.com/go-drift/kernel/pkg/errors"
)

// Merge deep-merges base with the ordered fragments and returns the resolved
// Config.
//
// Objects merge key by key. For any other pair of values the later operand
// wins, including when one side is an object and the other is not. Arrays are
// replaced wholesale unless the fragment lists the path in Append. Neither
// base nor the fragments are modified.
//
// Merge fails with a schema validation error when base, a fragment or the
// merged result fails schema checks, and with a merge conflict when a
// fragment gives an identity field an incompatible type, tries to remove an
// existing key, or appends outside its own namespaces.
func Merge(base map[string]any, fragments []Fragment, ns *NamespaceSet) (*Config, error) {
	const op = "config.Merge"

	if ns == nil {
		ns = NewNamespaceSet()
	}

	tree, err := normalizeMap(base)
	if err != nil {
		return nil, kerrors.SchemaValidation(op, fmt.Errorf("base: %w", err))
	}
	if errs := validateTree(tree, true, ns); errs.HasErrors() {
		return nil, kerrors.SchemaValidation(op, fmt.Errorf("base: %w", errs))
	}

	settings := make(map[string]any, len(fragments))
	for i := range fragments {
		f := &fragments[i]
		payload, err := mergeFragment(tree, f, ns)
		if err != nil {
			return nil, err
		}
		settings[f.Source] = payload
	}

	if errs := validateTree(tree, false, ns); errs.HasErrors() {
		return nil, kerrors.SchemaValidation(op, fmt.Errorf("resolved config: %w", errs))
	}

	return decode(tree, settings)
}

// mergeFragment validates f and merges it into tree in place. tree must be
// owned by the caller. It returns the normalized plugin payload.
func mergeFragment(tree map[string]any, f *Fragment, ns *NamespaceSet) (any, error) {
	const op = "config.Merge"

	wrap := func(e *kerrors.Error) error {
		e.Plugin = f.Source
		return e
	}

	if f.Source == "" {
		return nil, wrap(kerrors.SchemaValidation(op, fmt.Errorf("fragment source is required")))
	}
	if f.Plugin == nil {
		return nil, wrap(kerrors.SchemaValidation(op, fmt.Errorf("fragment from %q is missing its plugin settings", f.Source)))
	}

	payload, err := normalize(f.Plugin)
	if err != nil {
		return nil, wrap(kerrors.SchemaValidation(op, fmt.Errorf("plugin settings: %w", err)))
	}
	values, err := normalizeMap(f.Values)
	if err != nil {
		return nil, wrap(kerrors.SchemaValidation(op, fmt.Errorf("fragment values: %w", err)))
	}

	checked := pruneNil(values)
	if errs := validateIdentity(checked); errs.HasErrors() {
		cause := kerrors.SchemaValidation("config.validateIdentity", errs)
		cause.Plugin = f.Source
		return nil, wrap(kerrors.MergeConflict(op, cause))
	}
	if errs := validateTree(checked, true, ns); errs.HasErrors() {
		return nil, wrap(kerrors.SchemaValidation(op, errs))
	}
	if err := f.checkAppendOwnership(ns); err != nil {
		return nil, wrap(kerrors.MergeConflict(op, err))
	}

	if err := mergeInto(tree, values, "", f); err != nil {
		return nil, wrap(kerrors.MergeConflict(op, err))
	}
	return payload, nil
}

// mergeInto recursively merges src into dst. src values are copied, never
// aliased.
func mergeInto(dst, src map[string]any, prefix string, f *Fragment) error {
	for _, key := range sortedKeys(src) {
		path := joinPath(prefix, key)
		srcVal := src[key]
		dstVal, exists := dst[key]

		if srcVal == nil {
			if exists {
				return fmt.Errorf("fragment from %q would remove %q", f.Source, path)
			}
			continue
		}
		if !exists {
			dst[key] = cloneValue(srcVal)
			continue
		}

		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dstVal.(map[string]any)
		if srcIsMap && dstIsMap {
			if err := mergeInto(dstMap, srcMap, path, f); err != nil {
				return err
			}
			continue
		}

		if f.appends(path) {
			srcList, srcIsList := srcVal.([]any)
			dstList, dstIsList := dstVal.([]any)
			if srcIsList && dstIsList {
				merged := make([]any, 0, len(dstList)+len(srcList))
				merged = append(merged, dstList...)
				merged = append(merged, cloneSlice(srcList)...)
				dst[key] = merged
				continue
			}
		}

		dst[key] = cloneValue(srcVal)
	}
	return nil
}

// decode builds the typed Config from a validated tree.
func decode(tree map[string]any, settings map[string]any) (*Config, error) {
	const op = "config.decode"

	sections := map[string]any{}
	namespaces := map[string]map[string]any{}
	for key, val := range tree {
		switch key {
		case KeyIOS, KeyAndroid, KeyApp:
			sections[key] = val
		default:
			// validateTree guarantees namespace values are objects.
			apps, _ := val.(map[string]any)
			namespaces[key] = cloneMap(apps)
		}
	}

	data, err := json.Marshal(sections)
	if err != nil {
		return nil, kerrors.SchemaValidation(op, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, kerrors.SchemaValidation(op, err)
	}

	cfg.Namespaces = namespaces
	cfg.PluginSettings = settings
	cfg.tree = tree
	return &cfg, nil
}

// Resolve decodes an already complete configuration tree with no fragments.
// It is Merge(tree, nil, ns).
func Resolve(tree map[string]any, ns *NamespaceSet) (*Config, error) {
	return Merge(tree, nil, ns)
}
