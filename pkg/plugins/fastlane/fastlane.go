// Package fastlane writes fastlane Appfile and Fastfile for each platform.
// The generated build lane signs with the platform signing settings when
// present and uploads to App Center when configured.
package fastlane

import (
	"context"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/go-drift/kernel/pkg/config"
	"github.com/go-drift/kernel/pkg/plugin"
	"github.com/go-drift/kernel/pkg/project"
)

const (
	// Name is the plugin identity.
	Name = "fastlane"
	// Namespace is the configuration key the plugin reads.
	Namespace = "kernelPluginFastlane"
)

//go:embed templates
var templatesFS embed.FS

// templates holds one template set per platform, keyed by file name.
var templates = map[plugin.Platform]*template.Template{
	plugin.IOS:     parse(plugin.IOS),
	plugin.Android: parse(plugin.Android),
}

func parse(platform plugin.Platform) *template.Template {
	return template.Must(
		template.New(platform.String()).
			Option("missingkey=error").
			Funcs(template.FuncMap{"join": strings.Join}).
			ParseFS(templatesFS, "templates/"+platform.String()+"/*.tmpl"),
	)
}

// AppCenter describes an App Center distribution.
type AppCenter struct {
	Organization    string   `json:"organization"`
	AppName         string   `json:"appName"`
	DestinationType string   `json:"destinationType"`
	Destinations    []string `json:"destinations"`
}

// Settings is the per-app payload under Namespace.
type Settings struct {
	IOS *struct {
		AppCenter   *AppCenter `json:"appCenter,omitempty"`
		BuildScheme string     `json:"buildScheme,omitempty"`
	} `json:"ios,omitempty"`
	Android *struct {
		AppCenter *AppCenter `json:"appCenter,omitempty"`
	} `json:"android,omitempty"`
}

// str returns a new string schema. Schema nodes may not be shared within
// one document.
func str() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string"}
}

func appCenterSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"organization":    str(),
			"appName":         str(),
			"destinationType": {Type: "string", Enum: []any{"group", "store"}},
			"destinations":    {Type: "array", Items: str()},
		},
		Required: []string{"organization", "appName", "destinationType", "destinations"},
	}
}

// New returns the fastlane plugin.
func New() plugin.Plugin {
	return plugin.Plugin{
		Name:        Name,
		Description: "fastlane build and App Center upload lanes",
		Namespaces: []config.Namespace{{
			Key: Namespace,
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"ios": {
						Type: "object",
						Properties: map[string]*jsonschema.Schema{
							"appCenter":   appCenterSchema(),
							"buildScheme": str(),
						},
					},
					"android": {
						Type: "object",
						Properties: map[string]*jsonschema.Schema{
							"appCenter": appCenterSchema(),
						},
					},
				},
			},
		}},
		Mutations: map[plugin.Platform]plugin.MutateFunc{
			plugin.IOS:     IOS,
			plugin.Android: Android,
		},
	}
}

type iosData struct {
	Name      string
	BundleID  string
	Scheme    string
	Version   string
	Build     int
	Signing   *config.IOSSigning
	AppCenter *AppCenter
}

type androidData struct {
	PackageName string
	Signing     *config.AndroidSigning
	AppCenter   *AppCenter
}

// IOS writes ios/fastlane/Appfile and Fastfile.
func IOS(_ context.Context, cfg *config.Config, tree *project.Tree) error {
	s, _, err := config.DecodeNamespace[Settings](cfg, Namespace, cfg.AppIdentity(plugin.IOS.String()))
	if err != nil {
		return err
	}

	data := iosData{
		Name:     cfg.IOS.Name,
		BundleID: cfg.IOS.BundleID,
		Scheme:   cfg.IOS.Name,
		Version:  "1.0.0",
		Build:    1,
		Signing:  cfg.IOS.Signing,
	}
	if v := cfg.IOS.Versioning; v != nil {
		data.Version = v.Version
		if v.Build > 0 {
			data.Build = v.Build
		}
	}
	if s.IOS != nil {
		data.AppCenter = s.IOS.AppCenter
		if s.IOS.BuildScheme != "" {
			data.Scheme = s.IOS.BuildScheme
		}
	}
	return render(tree, plugin.IOS, data)
}

// Android writes android/fastlane/Appfile and Fastfile.
func Android(_ context.Context, cfg *config.Config, tree *project.Tree) error {
	s, _, err := config.DecodeNamespace[Settings](cfg, Namespace, cfg.AppIdentity(plugin.Android.String()))
	if err != nil {
		return err
	}

	data := androidData{
		PackageName: cfg.Android.PackageName,
		Signing:     cfg.Android.Signing,
	}
	if s.Android != nil {
		data.AppCenter = s.Android.AppCenter
	}
	return render(tree, plugin.Android, data)
}

func render(tree *project.Tree, platform plugin.Platform, data any) error {
	dir := project.FastlanePath(platform.String())
	for _, name := range []string{"Appfile", "Fastfile"} {
		var buf strings.Builder
		if err := templates[platform].ExecuteTemplate(&buf, name+".tmpl", data); err != nil {
			return fmt.Errorf("render %s %s: %w", platform, name, err)
		}
		if err := tree.WriteFile(filepath.Join(dir, name), []byte(buf.String())); err != nil {
			return err
		}
	}
	return nil
}
