// Package config resolves the kernel.yaml project file and loads the base
// build configuration for the selected environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/kernel/pkg/plugin"
)

// FileName is the project file marking a kernel project root.
const FileName = "kernel.yaml"

const (
	defaultEnv    = "prod"
	defaultEnvDir = ".kernelrc/env"
	dotEnvFile    = ".env"
)

// File represents kernel.yaml.
type File struct {
	Env       string   `yaml:"env,omitempty"`
	EnvDir    string   `yaml:"envDir,omitempty"`
	Plugins   []string `yaml:"plugins,omitempty"`
	Output    string   `yaml:"output,omitempty"`
	Platforms []string `yaml:"platforms,omitempty"`
}

// Resolved contains resolved project settings with absolute paths.
type Resolved struct {
	Root      string
	Env       string
	EnvDir    string
	Plugins   []string
	Output    string
	Platforms []plugin.Platform
}

// LoadOptional reads kernel.yaml from dir if present.
func LoadOptional(dir string) (*File, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &f, nil
}

// Resolve loads kernel.yaml from root and applies defaults. A non-empty env
// overrides the file's env.
func Resolve(root, env string) (*Resolved, error) {
	f, err := LoadOptional(root)
	if err != nil {
		return nil, err
	}

	r := &Resolved{
		Root:    root,
		Env:     strings.TrimSpace(f.Env),
		EnvDir:  strings.TrimSpace(f.EnvDir),
		Plugins: f.Plugins,
	}
	if env != "" {
		r.Env = env
	}
	if r.Env == "" {
		r.Env = defaultEnv
	}
	if r.EnvDir == "" {
		r.EnvDir = defaultEnvDir
	}
	r.EnvDir = absolute(root, r.EnvDir)
	if out := strings.TrimSpace(f.Output); out != "" {
		r.Output = absolute(root, out)
	}

	for _, name := range f.Platforms {
		p, err := plugin.ParsePlatform(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", FileName, err)
		}
		r.Platforms = append(r.Platforms, p)
	}
	if len(r.Platforms) == 0 {
		r.Platforms = plugin.Platforms()
	}
	return r, nil
}

// EnvFile returns the path of the selected environment file.
func (r *Resolved) EnvFile() string {
	return filepath.Join(r.EnvDir, "env."+r.Env+".yaml")
}

// LoadBase reads the environment file and expands ${VAR} references from
// the process environment, falling back to the project's .env file.
func (r *Resolved) LoadBase() (map[string]any, error) {
	data, err := os.ReadFile(r.EnvFile())
	if err != nil {
		return nil, fmt.Errorf("failed to read environment %q: %w", r.Env, err)
	}

	dotenv, err := readDotEnv(filepath.Join(r.Root, dotEnvFile))
	if err != nil {
		return nil, err
	}
	tree, err := ParseExpanded(data, func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
		v, ok := dotenv[name]
		return v, ok
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(r.EnvFile()), err)
	}
	return tree, nil
}

func readDotEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return values, nil
}

// ParseExpanded parses a YAML configuration tree and expands ${NAME}
// references inside scalar values. Substitution happens after parsing, so a
// value can never change the document's structure. An unquoted scalar takes
// the YAML type of its expanded text (build: ${BUILD} yields an integer); a
// quoted one stays a string.
func ParseExpanded(data []byte, lookup func(string) (string, bool)) (map[string]any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if doc.Kind == 0 {
		return map[string]any{}, nil
	}

	missing := map[string]bool{}
	expandNode(&doc, lookup, missing)
	if err := missingError(missing); err != nil {
		return nil, err
	}

	var tree map[string]any
	if err := doc.Decode(&tree); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if tree == nil {
		tree = map[string]any{}
	}
	return tree, nil
}

// expandNode expands values in place. Mapping keys are left alone.
func expandNode(n *yaml.Node, lookup func(string) (string, bool), missing map[string]bool) {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			expandNode(c, lookup, missing)
		}
	case yaml.MappingNode:
		for i := 1; i < len(n.Content); i += 2 {
			expandNode(n.Content[i], lookup, missing)
		}
	case yaml.ScalarNode:
		if !varRe.MatchString(n.Value) {
			return
		}
		n.Value = expand(n.Value, lookup, missing)
		if n.Style&(yaml.TaggedStyle|yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle|yaml.LiteralStyle|yaml.FoldedStyle) == 0 {
			n.Tag = ""
		}
	}
}

var varRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Expand replaces ${NAME} references using lookup. Bare $NAME and $(...)
// are left alone since they are common in Xcode and Gradle settings. Every
// undefined name is reported.
func Expand(s string, lookup func(string) (string, bool)) (string, error) {
	missing := map[string]bool{}
	out := expand(s, lookup, missing)
	if err := missingError(missing); err != nil {
		return "", err
	}
	return out, nil
}

func expand(s string, lookup func(string) (string, bool), missing map[string]bool) string {
	return varRe.ReplaceAllStringFunc(s, func(m string) string {
		name := varRe.FindStringSubmatch(m)[1]
		v, ok := lookup(name)
		if !ok {
			missing[name] = true
			return m
		}
		return v
	})
}

func missingError(missing map[string]bool) error {
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(missing))
	for n := range missing {
		names = append(names, n)
	}
	sort.Strings(names)
	return fmt.Errorf("undefined variables: %s", strings.Join(names, ", "))
}

// FindProjectRoot walks up from the current directory to find kernel.yaml.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindProjectRootFrom(dir)
}

// FindProjectRootFrom walks up from dir to find kernel.yaml.
func FindProjectRootFrom(dir string) (string, error) {
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a kernel project (no %s found)", FileName)
		}
		dir = parent
	}
}

func absolute(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
