// Package workspace prepares the directory a prebuild writes into.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/go-drift/kernel/cmd/kernel/internal/cache"
	"github.com/go-drift/kernel/cmd/kernel/internal/config"
	"github.com/go-drift/kernel/pkg/plugin"
	"github.com/go-drift/kernel/pkg/project"
	"github.com/go-drift/kernel/pkg/project/scaffold"
)

// Workspace represents a generated project tree.
type Workspace struct {
	Root     string
	BuildDir string
	Managed  bool
	Tree     *project.Tree
}

// BuildDir returns where the native projects are generated: the configured
// output directory, or a managed directory under the cache.
func BuildDir(cfg *config.Resolved) (string, bool, error) {
	if cfg.Output != "" {
		return cfg.Output, false, nil
	}
	dir, err := cache.BuildRoot(cfg.Root)
	if err != nil {
		return "", false, err
	}
	return dir, true, nil
}

// Prepare regenerates the pristine project for each platform. Existing
// platform directories are removed first so every prebuild starts clean.
func Prepare(cfg *config.Resolved, settings scaffold.Settings, platforms []plugin.Platform) (*Workspace, error) {
	ws, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(ws.BuildDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create build directory: %w", err)
	}

	fsys := afero.NewBasePathFs(afero.NewOsFs(), ws.BuildDir)
	for _, platform := range platforms {
		if err := os.RemoveAll(filepath.Join(ws.BuildDir, platform.String())); err != nil {
			return nil, fmt.Errorf("failed to clear %s directory: %w", platform, err)
		}
		if err := scaffold.Write(fsys, settings, platform.String()); err != nil {
			return nil, err
		}
	}

	return ws, nil
}

// Open returns the workspace without regenerating it. Plugins then edit
// whatever tree is already present.
func Open(cfg *config.Resolved) (*Workspace, error) {
	dir, managed, err := BuildDir(cfg)
	if err != nil {
		return nil, err
	}
	return &Workspace{
		Root:     cfg.Root,
		BuildDir: dir,
		Managed:  managed,
		Tree:     project.OnDisk(dir, cfg.Root),
	}, nil
}

// Exists reports whether platform has been generated.
func (w *Workspace) Exists(platform plugin.Platform) bool {
	info, err := os.Stat(filepath.Join(w.BuildDir, platform.String()))
	return err == nil && info.IsDir()
}
