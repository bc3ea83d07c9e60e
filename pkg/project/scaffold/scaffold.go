// Package scaffold writes the pristine native project that plugins mutate.
//
// Templates are embedded under templates/<platform>/. A path segment named
// __app__ expands to the iOS target name and the .tmpl suffix is dropped, so
// templates/ios/__app__/Info.plist.tmpl becomes ios/<name>/Info.plist.
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/afero"

	"github.com/go-drift/kernel/pkg/config"
)

//go:embed all:templates
var templatesFS embed.FS

const (
	templateRoot     = "templates"
	appSegment       = "__app__"
	defaultIOSTarget = "13.4"
)

// Settings holds the values substituted into templates.
type Settings struct {
	IOSName            string
	IOSDisplayName     string
	BundleID           string
	DeploymentTarget   string
	AndroidName        string
	AndroidDisplayName string
	PackageName        string
}

// SettingsFrom derives template settings from a resolved Config.
func SettingsFrom(cfg *config.Config) Settings {
	target := cfg.IOS.DeploymentTarget
	if target == "" {
		target = defaultIOSTarget
	}
	return Settings{
		IOSName:            cfg.IOS.Name,
		IOSDisplayName:     cfg.IOS.DisplayName,
		BundleID:           cfg.IOS.BundleID,
		DeploymentTarget:   target,
		AndroidName:        cfg.Android.Name,
		AndroidDisplayName: cfg.Android.DisplayName,
		PackageName:        cfg.Android.PackageName,
	}
}

// Write renders the templates of each platform ("ios", "android") into fs.
func Write(fsys afero.Fs, settings Settings, platforms ...string) error {
	for _, platform := range platforms {
		if err := writePlatform(fsys, settings, platform); err != nil {
			return err
		}
	}
	return nil
}

// WriteIOS renders the iOS project into fs.
func WriteIOS(fsys afero.Fs, settings Settings) error {
	return writePlatform(fsys, settings, "ios")
}

// WriteAndroid renders the Android project into fs.
func WriteAndroid(fsys afero.Fs, settings Settings) error {
	return writePlatform(fsys, settings, "android")
}

func writePlatform(fsys afero.Fs, settings Settings, platform string) error {
	if platform == "ios" && settings.IOSName == "" {
		return fmt.Errorf("ios target name is required")
	}

	files, err := ListFiles(platform)
	if err != nil {
		return fmt.Errorf("failed to list %s templates: %w", platform, err)
	}

	for _, file := range files {
		content, err := templatesFS.ReadFile(path.Join(templateRoot, file))
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", file, err)
		}

		processed, err := ProcessTemplate(string(content), settings)
		if err != nil {
			return fmt.Errorf("failed to process template %s: %w", file, err)
		}

		dest := Destination(file, settings)
		if err := fsys.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
		}
		if err := afero.WriteFile(fsys, dest, []byte(processed), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", dest, err)
		}
	}
	return nil
}

// Destination maps a template path to its location in the project.
func Destination(file string, settings Settings) string {
	file = strings.TrimSuffix(file, ".tmpl")
	parts := strings.Split(file, "/")
	for i, part := range parts {
		parts[i] = strings.ReplaceAll(part, appSegment, settings.IOSName)
	}
	return filepath.Join(parts...)
}

// ProcessTemplate processes a template string with the given data.
func ProcessTemplate(content string, data Settings) (string, error) {
	tmpl, err := template.New("").Option("missingkey=error").Parse(content)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ListFiles returns the template files for platform, relative to the
// template root.
func ListFiles(platform string) ([]string, error) {
	var files []string
	root := path.Join(templateRoot, platform)
	err := fs.WalkDir(templatesFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, strings.TrimPrefix(p, templateRoot+"/"))
		}
		return nil
	})
	return files, err
}
