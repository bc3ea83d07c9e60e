package config

import (
	"errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/go-drift/kernel/pkg/errors"
)

func baseTree() map[string]any {
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
		},
		"app": map[string]any{},
	}
}

func frag(source string, values map[string]any) Fragment {
	return Fragment{Source: source, Plugin: map[string]any{}, Values: values}
}

func namespaces(t *testing.T, nss ...Namespace) *NamespaceSet {
	t.Helper()
	set := NewNamespaceSet()
	for _, ns := range nss {
		require.NoError(t, set.Register(ns))
	}
	return set
}

func TestMergeLastWriterWins(t *testing.T) {
	base := baseTree()
	base["app"] = map[string]any{"a": 1}

	cfg, err := Merge(base, []Fragment{
		frag("one", map[string]any{"app": map[string]any{"a": 2}}),
		frag("two", map[string]any{"app": map[string]any{"a": 3}}),
	}, nil)
	require.NoError(t, err)

	app, err := DecodeApp[struct{ A int }](cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, app.A)
}

func TestMergeObjectsDeepAndNonDestructive(t *testing.T) {
	base := baseTree()
	base["app"] = map[string]any{"x": map[string]any{"p": 1, "q": 2}}

	cfg, err := Merge(base, []Fragment{
		frag("one", map[string]any{"app": map[string]any{"x": map[string]any{"q": 5}}}),
	}, nil)
	require.NoError(t, err)

	x, ok := lookup(cfg.Tree(), "app.x")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"p": float64(1), "q": float64(5)}, x)
}

func TestMergeObjectReplacedByScalar(t *testing.T) {
	base := baseTree()
	base["app"] = map[string]any{"x": map[string]any{"p": 1}}

	cfg, err := Merge(base, []Fragment{
		frag("one", map[string]any{"app": map[string]any{"x": "flat"}}),
		frag("two", map[string]any{"app": map[string]any{"y": "flat"}}),
		frag("three", map[string]any{"app": map[string]any{"y": map[string]any{"nested": true}}}),
	}, nil)
	require.NoError(t, err)

	tree := cfg.Tree()
	x, _ := lookup(tree, "app.x")
	assert.Equal(t, "flat", x)
	y, _ := lookup(tree, "app.y")
	assert.Equal(t, map[string]any{"nested": true}, y)
}

func TestMergeArraysReplaced(t *testing.T) {
	base := baseTree()
	base["ios"].(map[string]any)["podfile"] = map[string]any{"pods": []any{"A", "B"}}

	cfg, err := Merge(base, []Fragment{
		frag("pods", map[string]any{"ios": map[string]any{"podfile": map[string]any{"pods": []string{"C"}}}}),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, cfg.IOS.Podfile.Pods)
}

func TestMergeDeterministic(t *testing.T) {
	ns := namespaces(t, Namespace{Key: "kernelPluginAsset", Owner: "asset"})
	fragments := []Fragment{
		frag("identity", map[string]any{"ios": map[string]any{"plist": map[string]any{"UIStatusBarHidden": true}}}),
		frag("asset", map[string]any{"kernelPluginAsset": map[string]any{"kernel": map[string]any{"assetPath": []any{"a"}}}}),
	}

	first, err := Merge(baseTree(), fragments, ns)
	require.NoError(t, err)
	second, err := Merge(baseTree(), fragments, ns)
	require.NoError(t, err)

	assert.True(t, Equal(first.Tree(), second.Tree()))
	assert.Equal(t, first.IOS, second.IOS)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	base := baseTree()
	values := map[string]any{"ios": map[string]any{"displayName": "Other"}}
	fragments := []Fragment{frag("one", values)}

	cfg, err := Merge(base, fragments, nil)
	require.NoError(t, err)
	assert.Equal(t, "Other", cfg.IOS.DisplayName)

	assert.Equal(t, "Kernel", base["ios"].(map[string]any)["displayName"])
	assert.Equal(t, map[string]any{"ios": map[string]any{"displayName": "Other"}}, values)

	// Mutating the returned tree must not leak into the config.
	tree := cfg.Tree()
	tree["ios"].(map[string]any)["displayName"] = "Changed"
	again, _ := lookup(cfg.Tree(), "ios.displayName")
	assert.Equal(t, "Other", again)
}

func TestMergeNamespaceIsolation(t *testing.T) {
	ns := namespaces(t,
		Namespace{Key: "kernelPluginA", Owner: "a"},
		Namespace{Key: "kernelPluginB", Owner: "b"},
	)
	cfg, err := Merge(baseTree(), []Fragment{
		frag("a", map[string]any{"kernelPluginA": map[string]any{"kernel": map[string]any{"ios": "from-a"}}}),
		frag("b", map[string]any{"kernelPluginB": map[string]any{"kernel": map[string]any{"ios": "from-b"}}}),
		frag("a2", map[string]any{"kernelPluginA": map[string]any{"other": map[string]any{"ios": "other-app"}}}),
	}, ns)
	require.NoError(t, err)

	type payload struct{ IOS string }
	a, ok, err := DecodeNamespace[payload](cfg, "kernelPluginA", "kernel")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "from-a", a.IOS)

	b, ok, err := DecodeNamespace[payload](cfg, "kernelPluginB", "kernel")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "from-b", b.IOS)

	other, ok, err := DecodeNamespace[payload](cfg, "kernelPluginA", "other")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "other-app", other.IOS)

	_, ok, err = DecodeNamespace[payload](cfg, "kernelPluginB", "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMergeSchemaRejectsNumericAppName(t *testing.T) {
	_, err := Merge(baseTree(), []Fragment{
		frag("bad", map[string]any{"ios": map[string]any{"name": 42}}),
	}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrSchemaValidation))
	assert.True(t, errors.Is(err, kerrors.ErrMergeConflict), "identity fields are merge conflicts")

	var verrs *ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{"ios.name"}, verrs.Paths())
}

func TestMergeSchemaRejectsNonIdentityType(t *testing.T) {
	_, err := Merge(baseTree(), []Fragment{
		frag("bad", map[string]any{"ios": map[string]any{"deploymentTarget": 13}}),
	}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrSchemaValidation))
	assert.False(t, errors.Is(err, kerrors.ErrMergeConflict))
}

func TestMergeRejectsMissingPluginSettings(t *testing.T) {
	_, err := Merge(baseTree(), []Fragment{
		{Source: "bare", Values: map[string]any{}},
	}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrSchemaValidation))
}

func TestMergeRejectsRemoval(t *testing.T) {
	_, err := Merge(baseTree(), []Fragment{
		frag("remover", map[string]any{"ios": map[string]any{"versioning": nil}}),
	}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrMergeConflict))
}

func TestMergeIgnoresNilForMissingKey(t *testing.T) {
	cfg, err := Merge(baseTree(), []Fragment{
		frag("noop", map[string]any{"ios": map[string]any{"entitlementsFilePath": nil}}),
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.IOS.EntitlementsFilePath)
}

func TestMergeRejectsUnknownTopLevelKey(t *testing.T) {
	base := baseTree()
	base["kernelPluginMystery"] = map[string]any{"kernel": map[string]any{}}

	_, err := Merge(base, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrSchemaValidation))
}

func TestMergeValidatesNamespacePayload(t *testing.T) {
	ns := namespaces(t, Namespace{
		Key:   "kernelPluginAppIcon",
		Owner: "appicon",
		Schema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"appIconPath": {Type: "string"}},
		},
	})
	base := baseTree()
	base["kernelPluginAppIcon"] = map[string]any{"kernel": map[string]any{"appIconPath": 7}}

	_, err := Merge(base, nil, ns)
	require.Error(t, err)
	var verrs *ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{"kernelPluginAppIcon.kernel"}, verrs.Paths())
}

func TestMergeAppendOwnedArray(t *testing.T) {
	ns := namespaces(t, Namespace{Key: "kernelPluginPermissions", Owner: "permissions"})
	base := baseTree()
	base["kernelPluginPermissions"] = map[string]any{
		"kernel": map[string]any{"android": []any{"CAMERA"}},
	}

	f := frag("permissions", map[string]any{
		"kernelPluginPermissions": map[string]any{"kernel": map[string]any{"android": []any{"INTERNET"}}},
	})
	f.Append = []string{"kernelPluginPermissions.kernel.android"}

	cfg, err := Merge(base, []Fragment{f}, ns)
	require.NoError(t, err)

	got, _ := lookup(cfg.Tree(), "kernelPluginPermissions.kernel.android")
	assert.Equal(t, []any{"CAMERA", "INTERNET"}, got)
}

func TestMergeAppendOutsideOwnNamespace(t *testing.T) {
	ns := namespaces(t, Namespace{Key: "kernelPluginPermissions", Owner: "permissions"})
	f := frag("intruder", map[string]any{
		"ios": map[string]any{"podfile": map[string]any{"pods": []any{"X"}}},
	})
	f.Append = []string{"ios.podfile.pods"}

	_, err := Merge(baseTree(), []Fragment{f}, ns)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrMergeConflict))
	assert.Equal(t, "intruder", pluginOf(err))
}

func TestMergeRequiresIdentityInResult(t *testing.T) {
	base := baseTree()
	delete(base["android"].(map[string]any), "packageName")

	_, err := Merge(base, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrSchemaValidation))

	// A fragment may supply what the base lacks.
	cfg, err := Merge(base, []Fragment{
		frag("identity", map[string]any{"android": map[string]any{"packageName": "com.kernel"}}),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "com.kernel", cfg.Android.PackageName)
}

func TestMergeRejectsInvalidVersion(t *testing.T) {
	_, err := Merge(baseTree(), []Fragment{
		frag("version", map[string]any{"ios": map[string]any{"versioning": map[string]any{"version": "one"}}}),
	}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrSchemaValidation))
}

func TestMergeCollectsPluginSettings(t *testing.T) {
	type settings struct {
		Critical bool `json:"critical"`
	}
	cfg, err := Merge(baseTree(), []Fragment{
		{Source: "identity", Plugin: settings{Critical: true}, Values: nil},
	}, nil)
	require.NoError(t, err)

	got, err := DecodeSettings[settings](cfg, "identity")
	require.NoError(t, err)
	assert.True(t, got.Critical)
}

func TestFragmentFromTree(t *testing.T) {
	f := FragmentFromTree("permissions", map[string]any{
		"plugin": map[string]any{"ios": []any{}},
		"ios":    map[string]any{"displayName": "X"},
	})
	assert.Equal(t, "permissions", f.Source)
	assert.Equal(t, map[string]any{"ios": []any{}}, f.Plugin)
	assert.NotContains(t, f.Values, "plugin")
	assert.Contains(t, f.Values, "ios")
}

func TestIsValidVersion(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0.0.1", true},
		{"v1.2.3", true},
		{"1.2.3-rc.1", true},
		{"1.2", true},
		{"", false},
		{"one", false},
		{"1.2.3.4", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidVersion(tt.in), tt.in)
	}
}

func pluginOf(err error) string {
	var e *kerrors.Error
	if errors.As(err, &e) {
		return e.Plugin
	}
	return ""
}
