package identity

import (
	"context"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-drift/kernel/pkg/config"
	"github.com/go-drift/kernel/pkg/plugin"
	"github.com/go-drift/kernel/pkg/project"
)

var (
	podPlatformRe = regexp.MustCompile(`(?m)^platform :ios, '[^']*'`)
	podPrepareRe  = regexp.MustCompile(`(prepare_react_native_project!)`)
)

// IOS applies the ios section to Info.plist, the target's xcconfig and the
// Podfile, and copies the configured entitlements and privacy manifest.
func IOS(_ context.Context, cfg *config.Config, tree *project.Tree) error {
	if err := requireIdentity(cfg, plugin.IOS); err != nil {
		return err
	}

	steps := []func(*config.Config, *project.Tree) error{
		iosInfoPlist,
		iosBuildSettings,
		iosPodfile,
		iosEntitlements,
		iosPrivacyManifest,
	}
	for _, step := range steps {
		if err := step(cfg, tree); err != nil {
			return err
		}
	}
	return nil
}

func iosInfoPlist(cfg *config.Config, tree *project.Tree) error {
	return tree.EditPlist(project.InfoPlistPath(cfg), func(dict map[string]any) error {
		if cfg.IOS.DisplayName != "" {
			dict["CFBundleDisplayName"] = cfg.IOS.DisplayName
		}
		project.MergePlist(dict, cfg.IOS.Plist)
		return nil
	})
}

func iosBuildSettings(cfg *config.Config, tree *project.Tree) error {
	path := project.XCConfigPath(cfg)

	settings := [][2]string{
		{"PRODUCT_BUNDLE_IDENTIFIER", cfg.IOS.BundleID},
	}
	if v := cfg.IOS.Versioning; v != nil {
		settings = append(settings, [2]string{"MARKETING_VERSION", v.Version})
		if v.Build > 0 {
			settings = append(settings, [2]string{"CURRENT_PROJECT_VERSION", strconv.Itoa(v.Build)})
		}
	}
	if cfg.IOS.DeploymentTarget != "" {
		settings = append(settings, [2]string{"IPHONEOS_DEPLOYMENT_TARGET", cfg.IOS.DeploymentTarget})
	}
	if cfg.IOS.TargetedDevices != "" {
		settings = append(settings, [2]string{"TARGETED_DEVICE_FAMILY", cfg.IOS.TargetedDevices})
	}
	if cfg.IOS.EntitlementsFilePath != "" {
		rel := filepath.Join(cfg.IOS.Name, filepath.Base(project.EntitlementsPath(cfg)))
		settings = append(settings, [2]string{"CODE_SIGN_ENTITLEMENTS", filepath.ToSlash(rel)})
	}
	if len(cfg.IOS.Frameworks) > 0 {
		flags := []string{"$(inherited)"}
		for _, f := range cfg.IOS.Frameworks {
			flags = append(flags, "-framework", strings.TrimSuffix(f.Framework, ".framework"))
		}
		settings = append(settings, [2]string{"OTHER_LDFLAGS", strings.Join(flags, " ")})
	}

	for _, s := range settings {
		if err := setLine(tree, path, s[0]+" = ", s[1]); err != nil {
			return err
		}
	}
	return nil
}

func iosPodfile(cfg *config.Config, tree *project.Tree) error {
	path := project.PodfilePath()

	if cfg.IOS.DeploymentTarget != "" {
		line := "platform :ios, '" + cfg.IOS.DeploymentTarget + "'"
		if err := tree.Update(path, podPlatformRe, project.EscapeReplacement(line)); err != nil {
			return err
		}
	}

	pf := cfg.IOS.Podfile
	if pf == nil {
		return nil
	}
	if err := tree.InsertAfter(path, podPrepareRe, pf.Config...); err != nil {
		return err
	}

	pods := make([]string, len(pf.Pods))
	for i, pod := range pf.Pods {
		pods[i] = "  " + pod
	}
	targetRe := regexp.MustCompile(`(target '` + regexp.QuoteMeta(cfg.IOS.Name) + `' do)`)
	return tree.InsertAfter(path, targetRe, pods...)
}

func iosEntitlements(cfg *config.Config, tree *project.Tree) error {
	if cfg.IOS.EntitlementsFilePath == "" {
		return nil
	}
	return tree.CopyFile(cfg.IOS.EntitlementsFilePath, project.EntitlementsPath(cfg))
}

func iosPrivacyManifest(cfg *config.Config, tree *project.Tree) error {
	if cfg.IOS.PrivacyManifestPath == "" {
		return nil
	}
	dst := filepath.Join(filepath.Dir(project.InfoPlistPath(cfg)), "PrivacyInfo.xcprivacy")
	return tree.CopyFile(cfg.IOS.PrivacyManifestPath, dst)
}
