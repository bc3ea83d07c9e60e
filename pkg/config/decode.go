package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DecodeApp decodes the caller-defined app payload into T.
func DecodeApp[T any](c *Config) (T, error) {
	var out T
	if c.App == nil {
		return out, nil
	}
	if err := convert(c.App, &out); err != nil {
		return out, fmt.Errorf("failed to decode app payload: %w", err)
	}
	return out, nil
}

// DecodeNamespace decodes the payload stored under namespace key for app into
// T. The boolean is false when no payload exists; callers then apply their
// own defaults.
func DecodeNamespace[T any](c *Config, key, app string) (T, bool, error) {
	var out T
	apps, ok := c.Namespaces[key]
	if !ok {
		return out, false, nil
	}
	raw, ok := apps[app]
	if !ok || raw == nil {
		return out, false, nil
	}
	if err := convert(raw, &out); err != nil {
		return out, true, fmt.Errorf("failed to decode namespace %s.%s: %w", key, app, err)
	}
	return out, true, nil
}

// DecodeSettings decodes the plugin payload contributed by the named plugin.
func DecodeSettings[T any](c *Config, plugin string) (T, error) {
	var out T
	raw, ok := c.PluginSettings[plugin]
	if !ok || raw == nil {
		return out, nil
	}
	if err := convert(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode settings of plugin %q: %w", plugin, err)
	}
	return out, nil
}

func convert(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// ParseYAML parses a YAML configuration tree.
func ParseYAML(data []byte) (map[string]any, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if tree == nil {
		tree = map[string]any{}
	}
	return tree, nil
}

// LoadFile reads a YAML configuration tree from path.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	tree, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}

// MarshalYAML renders the merged tree, namespaces included.
func (c *Config) MarshalYAML() (any, error) {
	return c.Tree(), nil
}
