package testing

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/go-drift/kernel/pkg/config"
	"github.com/go-drift/kernel/pkg/project"
	"github.com/go-drift/kernel/pkg/project/scaffold"
)

// BaseTree returns a minimal valid configuration tree for the app "kernel".
func BaseTree() map[string]any {
	return map[string]any{
		"ios": map[string]any{
			"name":        "kernel",
			"bundleId":    "com.kernel",
			"displayName": "Kernel",
			"versioning":  map[string]any{"version": "0.0.1", "build": 1},
		},
		"android": map[string]any{
			"name":        "kernel",
			"displayName": "Kernel",
			"packageName": "com.kernel",
			"versioning":  map[string]any{"version": "0.0.1", "build": 1},
		},
		"app": map[string]any{},
	}
}

// Config resolves BaseTree deep-merged with overrides.
func Config(t testing.TB, overrides map[string]any) *config.Config {
	t.Helper()
	return ConfigWith(t, overrides)
}

// ConfigWith is Config with plugin namespaces registered, so overrides may
// carry namespace payloads.
func ConfigWith(t testing.TB, overrides map[string]any, namespaces ...config.Namespace) *config.Config {
	t.Helper()

	ns := config.NewNamespaceSet()
	for _, n := range namespaces {
		if err := ns.Register(n); err != nil {
			t.Fatalf("register namespace %q: %v", n.Key, err)
		}
	}

	var fragments []config.Fragment
	if overrides != nil {
		fragments = append(fragments, config.Fragment{
			Source: "kerneltest",
			Plugin: map[string]any{},
			Values: overrides,
		})
	}

	cfg, err := config.Merge(BaseTree(), fragments, ns)
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	return cfg
}

// Project scaffolds a pristine iOS and Android project for cfg in memory.
func Project(t testing.TB, cfg *config.Config) *project.Tree {
	t.Helper()
	return ProjectWithSource(t, cfg, afero.NewMemMapFs())
}

// ProjectWithSource is Project with plugin inputs read from src.
func ProjectWithSource(t testing.TB, cfg *config.Config, src afero.Fs) *project.Tree {
	t.Helper()

	fs := afero.NewMemMapFs()
	if err := scaffold.Write(fs, scaffold.SettingsFrom(cfg), "ios", "android"); err != nil {
		t.Fatalf("scaffold project: %v", err)
	}
	return project.New(fs, project.WithSource(src))
}

// ReadFile returns the contents of path in tree.
func ReadFile(t testing.TB, tree *project.Tree, path string) string {
	t.Helper()
	data, err := tree.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// AssertFileContains fails the test unless path contains every want.
func AssertFileContains(t testing.TB, tree *project.Tree, path string, want ...string) {
	t.Helper()
	content := ReadFile(t, tree, path)
	for _, w := range want {
		if !strings.Contains(content, w) {
			t.Errorf("%s: expected to contain %q\n---\n%s", path, w, content)
		}
	}
}

// AssertFileNotContains fails the test if path contains any of unwanted.
func AssertFileNotContains(t testing.TB, tree *project.Tree, path string, unwanted ...string) {
	t.Helper()
	content := ReadFile(t, tree, path)
	for _, u := range unwanted {
		if strings.Contains(content, u) {
			t.Errorf("%s: expected not to contain %q\n---\n%s", path, u, content)
		}
	}
}
