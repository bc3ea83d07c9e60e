// Package identity writes the core app identity into the generated project:
// bundle identifiers, display names, versions and the platform build
// settings taken from the ios and android configuration sections.
//
// Every other plugin assumes these files are in place, so the plugin is
// critical: a failure aborts the rest of the platform run.
package identity

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/go-drift/kernel/pkg/config"
	"github.com/go-drift/kernel/pkg/plugin"
	"github.com/go-drift/kernel/pkg/project"
)

// Name is the plugin identity.
const Name = "identity"

// New returns the identity plugin.
func New() plugin.Plugin {
	return plugin.Plugin{
		Name:        Name,
		Description: "Bundle ids, display names, versions and native build settings",
		Critical:    true,
		Mutations: map[plugin.Platform]plugin.MutateFunc{
			plugin.IOS:     IOS,
			plugin.Android: Android,
		},
	}
}

// setLine replaces the value of the first line matching "<prefix><value>",
// where value runs to the end of the line.
func setLine(tree *project.Tree, path, prefix, value string) error {
	re := regexp.MustCompile(`(?m)^(` + regexp.QuoteMeta(prefix) + `).*$`)
	return tree.Update(path, re, "${1}"+project.EscapeReplacement(value))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func requireIdentity(cfg *config.Config, platform plugin.Platform) error {
	switch platform {
	case plugin.IOS:
		if cfg.IOS.Name == "" || cfg.IOS.BundleID == "" {
			return fmt.Errorf("ios name and bundleId are required")
		}
	case plugin.Android:
		if cfg.Android.PackageName == "" {
			return fmt.Errorf("android packageName is required")
		}
	}
	return nil
}
