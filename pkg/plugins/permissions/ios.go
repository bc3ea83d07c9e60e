package permissions

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-drift/kernel/pkg/config"
	"github.com/go-drift/kernel/pkg/plugin"
	"github.com/go-drift/kernel/pkg/project"
)

const (
	setupScript  = "require_relative '../node_modules/react-native-permissions/scripts/setup'"
	defaultUsage = "This app requires this permission to provide its features."
)

var (
	podRequireRe = regexp.MustCompile(`require_relative '[^']*react_native_pods'`)
	podPrepareRe = regexp.MustCompile(`prepare_react_native_project!`)
)

// IOS registers the permission handlers in the Podfile and adds a usage
// description to Info.plist for each permission that needs one.
func IOS(_ context.Context, cfg *config.Config, tree *project.Tree) error {
	settings, _, err := settingsFor(cfg, plugin.IOS)
	if err != nil {
		return err
	}
	if len(settings.IOS) == 0 {
		return nil
	}

	var handlers []string
	seen := map[string]bool{}
	usage := map[string]string{}
	for _, p := range settings.IOS {
		perm, ok := iosPermissions[p.Permission]
		if !ok {
			return fmt.Errorf("unknown ios permission %q", p.Permission)
		}
		if !seen[perm.handler] {
			seen[perm.handler] = true
			handlers = append(handlers, perm.handler)
		}
		text := p.Text
		if text == "" {
			text = defaultUsage
		}
		for _, key := range perm.keys {
			usage[key] = text
		}
	}

	if err := podfile(tree, handlers); err != nil {
		return err
	}
	if len(usage) == 0 {
		return nil
	}
	return tree.EditPlist(project.InfoPlistPath(cfg), func(dict map[string]any) error {
		for key, text := range usage {
			dict[key] = text
		}
		return nil
	})
}

func podfile(tree *project.Tree, handlers []string) error {
	path := project.PodfilePath()

	present, err := tree.KeywordExists(path, setupScript)
	if err != nil {
		return err
	}
	if !present {
		if err := tree.InsertAfter(path, podRequireRe, setupScript); err != nil {
			return err
		}
	}

	lines := []string{"", "setup_permissions(["}
	for _, h := range handlers {
		lines = append(lines, "  '"+h+"',")
	}
	lines = append(lines, "])")
	return tree.InsertAfter(path, podPrepareRe, lines...)
}
