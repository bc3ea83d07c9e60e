package cmd

import (
	"fmt"
	"strings"

	"github.com/go-drift/kernel/cmd/kernel/internal/config"
	"github.com/go-drift/kernel/pkg/plugin"
	"github.com/go-drift/kernel/pkg/plugins"
)

// loadProject finds the project root and resolves kernel.yaml. A non-empty
// env overrides the configured environment.
func loadProject(env string) (*config.Resolved, error) {
	root := projectDir
	if root == "" {
		var err error
		if root, err = config.FindProjectRoot(); err != nil {
			return nil, err
		}
	}
	return config.Resolve(root, env)
}

// loadRegistry registers the plugins selected by names, or by kernel.yaml
// when names is empty.
func loadRegistry(cfg *config.Resolved, names []string) (*plugin.Registry, error) {
	if len(names) == 0 {
		names = cfg.Plugins
	}
	selected, err := plugins.Select(names)
	if err != nil {
		return nil, err
	}

	registry := plugin.NewRegistry()
	for _, p := range selected {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// parsePlatforms maps a platform argument to platforms. "all" and no
// argument select the configured platforms.
func parsePlatforms(cfg *config.Resolved, args []string) ([]plugin.Platform, error) {
	if len(args) == 0 || strings.EqualFold(args[0], "all") {
		return cfg.Platforms, nil
	}
	p, err := plugin.ParsePlatform(strings.ToLower(args[0]))
	if err != nil {
		return nil, fmt.Errorf("%w (or all)", err)
	}
	return []plugin.Platform{p}, nil
}
