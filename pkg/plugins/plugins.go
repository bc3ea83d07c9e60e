// Package plugins collects the built-in plugins.
package plugins

import (
	"fmt"

	"github.com/go-drift/kernel/pkg/plugin"
	"github.com/go-drift/kernel/pkg/plugins/appicon"
	"github.com/go-drift/kernel/pkg/plugins/asset"
	"github.com/go-drift/kernel/pkg/plugins/fastlane"
	"github.com/go-drift/kernel/pkg/plugins/googlesignin"
	"github.com/go-drift/kernel/pkg/plugins/identity"
	"github.com/go-drift/kernel/pkg/plugins/permissions"
)

// Default returns the built-in plugins in canonical order. identity comes
// first because the others edit files it establishes.
func Default() []plugin.Plugin {
	return []plugin.Plugin{
		identity.New(),
		appicon.New(),
		asset.New(),
		permissions.New(),
		googlesignin.New(),
		fastlane.New(),
	}
}

// Select returns the named built-in plugins in the given order. An empty
// list selects Default.
func Select(names []string) ([]plugin.Plugin, error) {
	all := Default()
	if len(names) == 0 {
		return all, nil
	}

	byName := make(map[string]plugin.Plugin, len(all))
	for _, p := range all {
		byName[p.Name] = p
	}

	out := make([]plugin.Plugin, 0, len(names))
	for _, name := range names {
		p, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown plugin %q", name)
		}
		out = append(out, p)
	}
	return out, nil
}
