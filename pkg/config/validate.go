package config

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	// Path is the dot-separated path to the invalid value.
	Path string
	// Message describes what's wrong.
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e.Errors), strings.Join(msgs, "\n  - "))
}

// Add adds a validation error.
func (e *ValidationErrors) Add(path, message string) {
	e.Errors = append(e.Errors, &ValidationError{Path: path, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// AsError returns nil if no errors, otherwise returns self.
func (e *ValidationErrors) AsError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// Paths returns the path of every collected error.
func (e *ValidationErrors) Paths() []string {
	paths := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		paths = append(paths, err.Path)
	}
	return paths
}

// validateTree checks a normalized configuration tree. With partial set the
// tree is treated as a deep-partial Config (a base or a fragment); otherwise
// every required field must be present.
func validateTree(tree map[string]any, partial bool, ns *NamespaceSet) *ValidationErrors {
	errs := &ValidationErrors{}

	schemas, err := loadSchemas()
	if err != nil {
		errs.Add("", err.Error())
		return errs
	}
	sections := schemas.full
	if partial {
		sections = schemas.partial
	}

	for _, key := range []string{KeyIOS, KeyAndroid} {
		val, ok := tree[key]
		if !ok {
			if !partial {
				errs.Add(key, "required section is missing")
			}
			continue
		}
		if err := sections[key].Validate(val); err != nil {
			errs.Add(key, err.Error())
		}
	}

	for _, key := range sortedKeys(tree) {
		switch key {
		case KeyIOS, KeyAndroid, KeyApp:
			continue
		}
		validateNamespace(key, tree[key], ns, errs)
	}

	validateVersions(tree, errs)
	return errs
}

func validateNamespace(key string, val any, ns *NamespaceSet, errs *ValidationErrors) {
	entry, ok := ns.entry(key)
	if !ok {
		errs.Add(key, "unknown top-level key (no registered plugin owns this namespace)")
		return
	}

	apps, ok := val.(map[string]any)
	if !ok {
		errs.Add(key, fmt.Sprintf("expected object keyed by app identity, got %T", val))
		return
	}
	if entry.resolved == nil {
		return
	}
	for _, app := range sortedKeys(apps) {
		if err := entry.resolved.Validate(apps[app]); err != nil {
			errs.Add(joinPath(key, app), err.Error())
		}
	}
}

// validateVersions checks that marketing versions are semantic versions.
// Build numbers are covered by the schema.
func validateVersions(tree map[string]any, errs *ValidationErrors) {
	for _, section := range []string{KeyIOS, KeyAndroid} {
		path := section + ".versioning.version"
		val, ok := lookup(tree, path)
		if !ok {
			continue
		}
		version, ok := val.(string)
		if !ok {
			// Type errors are already reported by the schema.
			continue
		}
		if !IsValidVersion(version) {
			errs.Add(path, fmt.Sprintf("%q is not a semantic version (MAJOR.MINOR.PATCH)", version))
		}
	}
}

// IsValidVersion reports whether version is a semantic version, with or
// without a leading "v".
func IsValidVersion(version string) bool {
	if version == "" {
		return false
	}
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return semver.IsValid(version)
}

// validateIdentity checks the identity fields present in a fragment against
// their schema. Failures here are merge conflicts.
func validateIdentity(values map[string]any) *ValidationErrors {
	errs := &ValidationErrors{}
	schemas, err := loadSchemas()
	if err != nil {
		errs.Add("", err.Error())
		return errs
	}
	for _, path := range IdentityPaths {
		val, ok := lookup(values, path)
		if !ok {
			continue
		}
		if err := schemas.identity[path].Validate(val); err != nil {
			errs.Add(path, err.Error())
		}
	}
	return errs
}
