package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/kernel/pkg/plugin"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolveDefaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Resolve(root, "")
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, filepath.Join(root, ".kernelrc", "env"), cfg.EnvDir)
	assert.Equal(t, "", cfg.Output)
	assert.Equal(t, plugin.Platforms(), cfg.Platforms)
	assert.Equal(t, filepath.Join(root, ".kernelrc", "env", "env.prod.yaml"), cfg.EnvFile())
}

func TestResolveFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), `
env: qa
envDir: config
output: native
plugins: [identity, permissions]
platforms: [android]
`)

	cfg, err := Resolve(root, "")
	require.NoError(t, err)
	assert.Equal(t, "qa", cfg.Env)
	assert.Equal(t, filepath.Join(root, "config"), cfg.EnvDir)
	assert.Equal(t, filepath.Join(root, "native"), cfg.Output)
	assert.Equal(t, []string{"identity", "permissions"}, cfg.Plugins)
	assert.Equal(t, []plugin.Platform{plugin.Android}, cfg.Platforms)

	cfg, err = Resolve(root, "store")
	require.NoError(t, err)
	assert.Equal(t, "store", cfg.Env)
}

func TestResolveRejectsUnknownPlatform(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "platforms: [windows]\n")

	_, err := Resolve(root, "")
	assert.Error(t, err)
}

func TestLoadBaseExpandsVariables(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".env"), "BUNDLE_ID=com.dotenv\nTEAM=DOTENV\n")
	writeFile(t, filepath.Join(root, ".kernelrc", "env", "env.prod.yaml"), `
name: kernel
ios:
  bundleId: ${BUNDLE_ID}
  signing:
    exportTeamId: ${TEAM}
  buildSettings:
    LD_RUNPATH_SEARCH_PATHS: $(inherited)
`)
	t.Setenv("TEAM", "ENV")

	cfg, err := Resolve(root, "")
	require.NoError(t, err)
	base, err := cfg.LoadBase()
	require.NoError(t, err)

	ios := base["ios"].(map[string]any)
	assert.Equal(t, "com.dotenv", ios["bundleId"])
	assert.Equal(t, "ENV", ios["signing"].(map[string]any)["exportTeamId"])
	assert.Equal(t, "$(inherited)", ios["buildSettings"].(map[string]any)["LD_RUNPATH_SEARCH_PATHS"])
}

func TestParseExpandedKeepsStructure(t *testing.T) {
	values := map[string]string{
		"NAME":  "Kernel: the app # beta",
		"QUOTE": `say "hi"`,
		"LINES": "a\nb: c",
		"BUILD": "42",
	}
	lookup := func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	}

	tree, err := ParseExpanded([]byte(`
ios:
  displayName: ${NAME}
  plist:
    Greeting: ${QUOTE}
    Notes: ${LINES}
    Label: "${BUILD}"
  versioning:
    version: 1.0.${BUILD}
    build: ${BUILD}
`), lookup)
	require.NoError(t, err)

	ios := tree["ios"].(map[string]any)
	assert.Len(t, ios, 3)
	assert.Equal(t, "Kernel: the app # beta", ios["displayName"])
	plist := ios["plist"].(map[string]any)
	assert.Equal(t, `say "hi"`, plist["Greeting"])
	assert.Equal(t, "a\nb: c", plist["Notes"])
	assert.Equal(t, "42", plist["Label"])
	versioning := ios["versioning"].(map[string]any)
	assert.Equal(t, "1.0.42", versioning["version"])
	assert.Equal(t, 42, versioning["build"])
}

func TestParseExpandedLeavesKeysAndReportsMissing(t *testing.T) {
	tree, err := ParseExpanded([]byte("${KEY}: value\n"), func(string) (string, bool) { return "", false })
	require.NoError(t, err)
	assert.Equal(t, "value", tree["${KEY}"])

	_, err = ParseExpanded([]byte("a: ${X}\nb:\n  - ${Y}\n"), func(string) (string, bool) { return "", false })
	assert.EqualError(t, err, "undefined variables: X, Y")

	tree, err = ParseExpanded(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestLoadBaseMissingEnvironment(t *testing.T) {
	cfg, err := Resolve(t.TempDir(), "nope")
	require.NoError(t, err)

	_, err = cfg.LoadBase()
	assert.ErrorContains(t, err, `"nope"`)
}

func TestExpandReportsEveryUndefinedVariable(t *testing.T) {
	_, err := Expand("${B} ${A} ${B}", func(string) (string, bool) { return "", false })
	assert.EqualError(t, err, "undefined variables: A, B")

	out, err := Expand("$HOME ${X}", func(name string) (string, bool) { return "x", name == "X" })
	require.NoError(t, err)
	assert.Equal(t, "$HOME x", out)
}

func TestFindProjectRootFrom(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "")
	nested := filepath.Join(root, "src", "app")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindProjectRootFrom(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)

	_, err = FindProjectRootFrom(t.TempDir())
	assert.Error(t, err)
}
