// Package googlesignin wires the native side of Google Sign-In: the reversed
// client id URL scheme and the AppDelegate URL handler on iOS, the Play
// Services auth version and swiperefreshlayout dependency on Android.
package googlesignin

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/go-drift/kernel/pkg/config"
	"github.com/go-drift/kernel/pkg/plugin"
	"github.com/go-drift/kernel/pkg/project"
)

const (
	// Name is the plugin identity.
	Name = "googlesignin"
	// Namespace is the configuration key the plugin reads.
	Namespace = "kernelPluginGoogleSignin"

	defaultAuthVersion    = "19.2.0"
	defaultRefreshVersion = "1.0.0"
)

// Settings is the per-app payload under Namespace.
type Settings struct {
	IOS struct {
		ReversedClientID string `json:"reversedClientId"`
	} `json:"ios"`
	Android struct {
		GooglePlayServicesAuthVersion string `json:"googlePlayServicesAuthVersion,omitempty"`
		SwiperefreshlayoutVersion     string `json:"swiperefreshlayoutVersion,omitempty"`
	} `json:"android"`
}

var (
	appDelegateImportRe  = regexp.MustCompile(`#import "AppDelegate.h"`)
	appDelegateLinkingRe = regexp.MustCompile(`if \(\[RCTLinkingManager[\s\S]+?}`)
	gradleExtRe          = regexp.MustCompile(`ext \{`)
	gradleDependenciesRe = regexp.MustCompile(`dependencies \{`)
)

var errNotConfigured = errors.New("googlesignin: no " + Namespace + " entry for app")

// New returns the Google Sign-In plugin.
func New() plugin.Plugin {
	return plugin.Plugin{
		Name:        Name,
		Description: "Google Sign-In URL scheme, URL handler and Gradle dependencies",
		Namespaces: []config.Namespace{{
			Key: Namespace,
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"ios": {
						Type:       "object",
						Properties: map[string]*jsonschema.Schema{"reversedClientId": str()},
						Required:   []string{"reversedClientId"},
					},
					"android": {
						Type: "object",
						Properties: map[string]*jsonschema.Schema{
							"googlePlayServicesAuthVersion": str(),
							"swiperefreshlayoutVersion":     str(),
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

// str returns a new string schema. Schema nodes may not be shared within
// one document.
func str() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string"}
}

func settingsFor(cfg *config.Config, platform plugin.Platform) (Settings, error) {
	app := cfg.AppIdentity(platform.String())
	s, ok, err := config.DecodeNamespace[Settings](cfg, Namespace, app)
	if err != nil {
		return s, err
	}
	if !ok {
		return s, fmt.Errorf("%w %q", errNotConfigured, app)
	}
	return s, nil
}

// IOS registers the reversed client id as a URL scheme and forwards
// openURL calls to RNGoogleSignin.
func IOS(_ context.Context, cfg *config.Config, tree *project.Tree) error {
	s, err := settingsFor(cfg, plugin.IOS)
	if err != nil {
		return err
	}
	id := s.IOS.ReversedClientID
	if id == "" {
		return fmt.Errorf("googlesignin: ios.reversedClientId is required")
	}

	err = tree.EditPlist(project.InfoPlistPath(cfg), func(dict map[string]any) error {
		dict["CFBundleURLTypes"] = addURLScheme(dict["CFBundleURLTypes"], id)
		return nil
	})
	if err != nil {
		return err
	}

	path := project.AppDelegatePath(cfg)
	if err := tree.InsertAfter(path, appDelegateImportRe,
		"#import <RNGoogleSignin/RNGoogleSignin.h>",
	); err != nil {
		return err
	}
	return tree.InsertAfter(path, appDelegateLinkingRe,
		"  if ([RNGoogleSignin application:application openURL:url options:options]) {",
		"    return YES;",
		"  }",
	)
}

// addURLScheme adds scheme to the first URL type that declares schemes, or
// appends a new Editor URL type.
func addURLScheme(types any, scheme string) []any {
	list, _ := types.([]any)
	for _, t := range list {
		entry, ok := t.(map[string]any)
		if !ok {
			continue
		}
		schemes, ok := entry["CFBundleURLSchemes"].([]any)
		if !ok {
			continue
		}
		for _, s := range schemes {
			if s == scheme {
				return list
			}
		}
		entry["CFBundleURLSchemes"] = append(schemes, scheme)
		return list
	}
	return append(list, map[string]any{
		"CFBundleTypeRole":   "Editor",
		"CFBundleURLSchemes": []any{scheme},
	})
}

// Android pins the Play Services auth version and adds the
// swiperefreshlayout dependency the sign-in button needs.
func Android(_ context.Context, cfg *config.Config, tree *project.Tree) error {
	s, err := settingsFor(cfg, plugin.Android)
	if err != nil {
		return err
	}
	auth := s.Android.GooglePlayServicesAuthVersion
	if auth == "" {
		auth = defaultAuthVersion
	}
	refresh := s.Android.SwiperefreshlayoutVersion
	if refresh == "" {
		refresh = defaultRefreshVersion
	}

	if err := tree.InsertAfter(project.ProjectGradlePath(), gradleExtRe,
		fmt.Sprintf(`        googlePlayServicesAuthVersion = "%s"`, auth),
	); err != nil {
		return err
	}
	return tree.InsertAfter(project.AppGradlePath(), gradleDependenciesRe,
		fmt.Sprintf("    implementation 'androidx.swiperefreshlayout:swiperefreshlayout:%s'", refresh),
	)
}
