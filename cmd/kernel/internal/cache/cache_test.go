package cache

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootPriority(t *testing.T) {
	t.Cleanup(func() { SetCacheDir("") })

	t.Setenv(EnvVar, "/env/cache")
	root, err := Root()
	require.NoError(t, err)
	assert.Equal(t, "/env/cache", root)

	SetCacheDir("/flag/cache")
	root, err = Root()
	require.NoError(t, err)
	assert.Equal(t, "/flag/cache", root)
}

func TestRootDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvVar, "")

	root, err := Root()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".kernel"), root)
}

func TestBuildRoot(t *testing.T) {
	t.Setenv(EnvVar, "/cache")

	a, err := BuildRoot("/work/app")
	require.NoError(t, err)
	b, err := BuildRoot("/other/app")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "/cache/build/app-"))
	assert.NotEqual(t, a, b)

	again, err := BuildRoot("/work/app")
	require.NoError(t, err)
	assert.Equal(t, a, again)
}
