// Package asset bundles asset directories (fonts, media) into the native
// projects. Each configured directory is copied recursively into the
// platform asset directory; on iOS, font files are also listed under
// UIAppFonts in Info.plist.
package asset

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/spf13/afero"

	"github.com/go-drift/kernel/pkg/config"
	kerrors "github.com/go-drift/kernel/pkg/errors"
	"github.com/go-drift/kernel/pkg/plugin"
	"github.com/go-drift/kernel/pkg/project"
)

const (
	// Name is the plugin identity.
	Name = "asset"
	// Namespace is the configuration key the plugin reads.
	Namespace = "kernelPluginAsset"
)

// Settings is the per-app payload under Namespace.
type Settings struct {
	AssetPath []string `json:"assetPath"`
}

// New returns the asset plugin.
func New() plugin.Plugin {
	return plugin.Plugin{
		Name:        Name,
		Description: "Copies asset directories into the native projects",
		Namespaces: []config.Namespace{{
			Key: Namespace,
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"assetPath": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
				},
				Required: []string{"assetPath"},
			},
		}},
		Mutations: map[plugin.Platform]plugin.MutateFunc{
			plugin.IOS:     IOS,
			plugin.Android: Android,
		},
	}
}

// IOS copies the assets into the app's Resources group and registers fonts.
func IOS(ctx context.Context, cfg *config.Config, tree *project.Tree) error {
	copied, err := copyAssets(ctx, cfg, tree, plugin.IOS)
	if err != nil || len(copied) == 0 {
		return err
	}

	resources := filepath.Dir(project.InfoPlistPath(cfg))
	var fonts []string
	for _, dst := range copied {
		if isFont(dst) {
			rel, err := filepath.Rel(resources, dst)
			if err != nil {
				return err
			}
			fonts = append(fonts, filepath.ToSlash(rel))
		}
	}
	if len(fonts) == 0 {
		return nil
	}
	return tree.EditPlist(project.InfoPlistPath(cfg), func(dict map[string]any) error {
		existing, _ := dict["UIAppFonts"].([]any)
		seen := map[string]bool{}
		for _, f := range existing {
			if s, ok := f.(string); ok {
				seen[s] = true
			}
		}
		for _, f := range fonts {
			if !seen[f] {
				existing = append(existing, f)
			}
		}
		dict["UIAppFonts"] = existing
		return nil
	})
}

// Android copies the assets into app/src/main/assets.
func Android(ctx context.Context, cfg *config.Config, tree *project.Tree) error {
	_, err := copyAssets(ctx, cfg, tree, plugin.Android)
	return err
}

// copyAssets copies every file under the configured directories and returns
// the destination paths in order.
func copyAssets(ctx context.Context, cfg *config.Config, tree *project.Tree, platform plugin.Platform) ([]string, error) {
	settings, _, err := config.DecodeNamespace[Settings](cfg, Namespace, cfg.AppIdentity(platform.String()))
	if err != nil {
		return nil, err
	}

	dstRoot := project.AssetsPath(cfg, platform.String())
	src := afero.NewIOFS(tree.Source())

	var copied []string
	for _, dir := range settings.AssetPath {
		dir = cleanDir(dir)
		matches, err := doublestar.Glob(src, dir+"/**", doublestar.WithFilesOnly())
		if err != nil {
			return nil, kerrors.Resource("asset.Glob", fmt.Errorf("%s: %w", dir, err))
		}
		if len(matches) == 0 {
			return nil, kerrors.Resource("asset.Glob", fmt.Errorf("asset path %q has no files", dir))
		}
		sort.Strings(matches)

		for _, m := range matches {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rel := strings.TrimPrefix(m, path.Dir(dir)+"/")
			if path.Dir(dir) == "." {
				rel = m
			}
			dst := filepath.Join(dstRoot, filepath.FromSlash(rel))
			if err := tree.CopyFile(m, dst); err != nil {
				return nil, err
			}
			copied = append(copied, dst)
		}
	}
	return copied, nil
}

// cleanDir normalizes a configured directory to an io/fs path.
func cleanDir(dir string) string {
	dir = path.Clean(filepath.ToSlash(dir))
	return strings.TrimPrefix(dir, "/")
}

func isFont(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttf", ".otf":
		return true
	}
	return false
}
