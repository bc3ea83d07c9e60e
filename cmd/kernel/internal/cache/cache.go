// Package cache provides centralized cache directory resolution for kernel.
//
// Priority order: --cache-dir flag > KERNEL_CACHE_DIR env > ~/.kernel default.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// EnvVar overrides the default cache root.
const EnvVar = "KERNEL_CACHE_DIR"

var cacheDir string

// SetCacheDir sets an override for the cache directory.
// This is typically called when parsing the --cache-dir flag.
func SetCacheDir(dir string) {
	cacheDir = dir
}

// Root returns the cache root directory.
// Priority: --cache-dir flag > KERNEL_CACHE_DIR env > ~/.kernel default.
func Root() (string, error) {
	if cacheDir != "" {
		return cacheDir, nil
	}

	if envDir := os.Getenv(EnvVar); envDir != "" {
		return envDir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	return filepath.Join(home, ".kernel"), nil
}

// BuildRoot returns the managed build directory for a project.
// Returns: <cache_root>/build/<project_name>-<hash>
//
// The hash keeps two checkouts of the same project apart.
func BuildRoot(projectRoot string) (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}

	hash := sha1.Sum([]byte(projectRoot))
	slug := filepath.Base(projectRoot) + "-" + hex.EncodeToString(hash[:6])
	return filepath.Join(root, "build", slug), nil
}
