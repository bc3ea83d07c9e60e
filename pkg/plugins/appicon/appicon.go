// Package appicon generates the iOS app icon set and the Android launcher
// mipmaps from a directory of source PNGs.
//
// The source directory (kernelPluginAppIcon.<app>.appIconPath, default
// assets/app-icon) is resolved against the project sources and must contain:
//
//	ios/universal-icon.png
//	android/ic_launcher.png
//	android/ic_launcher_foreground.png
//	android/ic_launcher_background.png
package appicon

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/go-drift/kernel/pkg/config"
	"github.com/go-drift/kernel/pkg/plugin"
)

const (
	// Name is the plugin identity.
	Name = "appicon"
	// Namespace is the configuration key the plugin reads.
	Namespace = "kernelPluginAppIcon"

	defaultIconPath = "assets/app-icon"
)

// Settings is the per-app payload under Namespace.
type Settings struct {
	AppIconPath string `json:"appIconPath,omitempty"`
}

// New returns the app icon plugin.
func New() plugin.Plugin {
	return plugin.Plugin{
		Name:        Name,
		Description: "App icon set and launcher mipmaps resized from source PNGs",
		Namespaces: []config.Namespace{{
			Key: Namespace,
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"appIconPath": {Type: "string"},
				},
			},
		}},
		Mutations: map[plugin.Platform]plugin.MutateFunc{
			plugin.IOS:     IOS,
			plugin.Android: Android,
		},
	}
}

func settingsFor(cfg *config.Config, platform plugin.Platform) (Settings, error) {
	s, _, err := config.DecodeNamespace[Settings](cfg, Namespace, cfg.AppIdentity(platform.String()))
	if err != nil {
		return s, err
	}
	if s.AppIconPath == "" {
		s.AppIconPath = defaultIconPath
	}
	return s, nil
}
