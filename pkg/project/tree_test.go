package project

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/kernel/pkg/config"
	kerrors "github.com/go-drift/kernel/pkg/errors"
)

func memTree(t *testing.T, files map[string]string) *Tree {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return New(fs)
}

func TestWriteFileCreatesParents(t *testing.T) {
	tree := memTree(t, nil)

	require.NoError(t, tree.WriteFile("ios/App/Info.plist", []byte("<plist/>")))

	assert.True(t, tree.Exists("ios/App"))
	data, err := tree.ReadFile("ios/App/Info.plist")
	require.NoError(t, err)
	assert.Equal(t, "<plist/>", string(data))
}

func TestReadFileMissingIsResourceError(t *testing.T) {
	tree := memTree(t, nil)

	_, err := tree.ReadFile("android/build.gradle")
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrResource))
}

func TestKeywordExists(t *testing.T) {
	tree := memTree(t, map[string]string{"ios/Podfile": "platform :ios, '13.0'\n"})

	ok, err := tree.KeywordExists("ios/Podfile", "platform :ios")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tree.KeywordExists("ios/Podfile", "permissions_path")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdate(t *testing.T) {
	tree := memTree(t, map[string]string{
		"android/build.gradle": "buildscript {\n    ext {\n        minSdkVersion = 21\n    }\n}\n",
	})

	err := tree.Update("android/build.gradle", regexp.MustCompile(`(ext \{)`), "$1\n        authVersion = \"19.2.0\"")
	require.NoError(t, err)

	data, err := tree.ReadFile("android/build.gradle")
	require.NoError(t, err)
	assert.Equal(t, "buildscript {\n    ext {\n        authVersion = \"19.2.0\"\n        minSdkVersion = 21\n    }\n}\n", string(data))
}

func TestUpdateReplacesFirstMatchOnly(t *testing.T) {
	tree := memTree(t, map[string]string{"f.txt": "a a a"})

	require.NoError(t, tree.Update("f.txt", regexp.MustCompile(`a`), "b"))

	data, err := tree.ReadFile("f.txt")
	require.NoError(t, err)
	assert.Equal(t, "b a a", string(data))
}

func TestUpdateFailsWithoutMatch(t *testing.T) {
	tree := memTree(t, map[string]string{"ios/App/AppDelegate.mm": "@implementation AppDelegate\n"})

	err := tree.Update("ios/App/AppDelegate.mm", regexp.MustCompile(`(#import "AppDelegate.h")`), "$1\n#import <X.h>")
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrResource))
	assert.Contains(t, err.Error(), "not found")
	assert.Empty(t, tree.Changes())
}

func TestInsertAfter(t *testing.T) {
	tree := memTree(t, map[string]string{"ios/Podfile": "prepare_react_native_project!\ntarget 'kernel' do\nend\n"})

	require.NoError(t, tree.InsertAfter("ios/Podfile", regexp.MustCompile(`target '\w+' do`), "  pod 'A'", "  pod 'B$1'"))
	require.NoError(t, tree.InsertAfter("ios/Podfile", regexp.MustCompile(`nothing`)))

	data, err := tree.ReadFile("ios/Podfile")
	require.NoError(t, err)
	assert.Equal(t, "prepare_react_native_project!\ntarget 'kernel' do\n  pod 'A'\n  pod 'B$1'\nend\n", string(data))
}

func TestCopyFileFromSource(t *testing.T) {
	src := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(src, "assets/fonts/a.ttf", []byte("font"), 0o644))
	tree := New(afero.NewMemMapFs(), WithSource(src))

	require.NoError(t, tree.CopyFile("assets/fonts/a.ttf", "android/app/src/main/assets/fonts/a.ttf"))

	data, err := tree.ReadFile("android/app/src/main/assets/fonts/a.ttf")
	require.NoError(t, err)
	assert.Equal(t, "font", string(data))
}

func TestSourceIsReadOnly(t *testing.T) {
	src := afero.NewMemMapFs()
	tree := New(afero.NewMemMapFs(), WithSource(src))

	err := afero.WriteFile(tree.Source(), "x", []byte("y"), 0o644)
	assert.Error(t, err)
}

func TestCopyFileMissingSource(t *testing.T) {
	tree := memTree(t, nil)

	err := tree.CopyFile("nope.png", "ios/nope.png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrResource))
}

func TestChangesAndDiff(t *testing.T) {
	tree := memTree(t, map[string]string{"android/app/build.gradle": "versionCode 1\nversionName \"1.0\"\n"})

	require.NoError(t, tree.WriteFile("android/app/build.gradle", []byte("versionCode 7\nversionName \"1.0\"\n")))
	require.NoError(t, tree.WriteFile("android/app/build.gradle", []byte("versionCode 7\nversionName \"2.0\"\n")))
	require.NoError(t, tree.WriteFile("ios/App/new.txt", []byte("hello\n")))

	changes := tree.Changes()
	require.Len(t, changes, 2)
	assert.Equal(t, Change{Path: "android/app/build.gradle"}, changes[0])
	assert.Equal(t, Change{Path: "ios/App/new.txt", Created: true}, changes[1])

	diff, added, deleted, err := tree.Diff("android/app/build.gradle")
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, "--- android/app/build.gradle\n+++ android/app/build.gradle\n"+
		"@@ -1,2 +1,2 @@\n"+
		"-versionCode 1\n"+
		"-versionName \"1.0\"\n"+
		"+versionCode 7\n"+
		"+versionName \"2.0\"\n", diff)

	diff, added, deleted, err = tree.Diff("ios/App/new.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 0, deleted)
	assert.Equal(t, "--- /dev/null\n+++ ios/App/new.txt\n@@ -0,0 +1 @@\n+hello\n", diff)
}

func TestDiffHunkKeepsMarkupReadable(t *testing.T) {
	before := "<manifest>\n  <application/>\n  <a/>\n  <b/>\n  <c/>\n  <d/>\n  <e/>\n</manifest>"
	tree := memTree(t, map[string]string{"AndroidManifest.xml": before})

	after := strings.Replace(before, "  <c/>\n", "  <c/>\n  <uses-permission android:name=\"x\"/>\n", 1)
	require.NoError(t, tree.WriteFile("AndroidManifest.xml", []byte(after)))

	diff, added, deleted, err := tree.Diff("AndroidManifest.xml")
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 0, deleted)
	assert.Contains(t, diff, "@@ -3,6 +3,7 @@\n")
	assert.Contains(t, diff, "   <c/>\n+  <uses-permission android:name=\"x\"/>\n   <d/>\n")
	assert.NotContains(t, diff, "%")
}

func TestDiffUntouchedOrUnchanged(t *testing.T) {
	tree := memTree(t, map[string]string{"a.txt": "same\n"})

	diff, _, _, err := tree.Diff("a.txt")
	require.NoError(t, err)
	assert.Empty(t, diff)

	require.NoError(t, tree.WriteFile("a.txt", []byte("same\n")))
	diff, _, _, err = tree.Diff("a.txt")
	require.NoError(t, err)
	assert.Empty(t, diff)
}

func TestPaths(t *testing.T) {
	cfg := &config.Config{IOS: config.IOS{Name: "kernel"}}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"info plist", InfoPlistPath(cfg), "ios/kernel/Info.plist"},
		{"app delegate", AppDelegatePath(cfg), "ios/kernel/AppDelegate.mm"},
		{"podfile", PodfilePath(), "ios/Podfile"},
		{"icon set", AppIconSetPath(cfg), "ios/kernel/Images.xcassets/AppIcon.appiconset"},
		{"entitlements", EntitlementsPath(cfg), "ios/kernel/kernel.entitlements"},
		{"manifest", AndroidManifestPath(), "android/app/src/main/AndroidManifest.xml"},
		{"app gradle", AppGradlePath(), "android/app/build.gradle"},
		{"project gradle", ProjectGradlePath(), "android/build.gradle"},
		{"strings", StringsPath(), "android/app/src/main/res/values/strings.xml"},
		{"ios assets", AssetsPath(cfg, "ios"), "ios/kernel/Resources"},
		{"android assets", AssetsPath(cfg, "android"), "android/app/src/main/assets"},
		{"fastlane", FastlanePath("android"), "android/fastlane"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestEntitlementsPathOverride(t *testing.T) {
	cfg := &config.Config{IOS: config.IOS{Name: "kernel", EntitlementsFilePath: "config/app.entitlements"}}
	assert.Equal(t, "ios/kernel/app.entitlements", EntitlementsPath(cfg))
}

func TestEditPlist(t *testing.T) {
	tree := memTree(t, map[string]string{"Info.plist": `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleDisplayName</key>
	<string>Old</string>
	<key>NSAppTransportSecurity</key>
	<dict>
		<key>NSAllowsArbitraryLoads</key>
		<false/>
	</dict>
</dict>
</plist>
`})

	err := tree.EditPlist("Info.plist", func(dict map[string]any) error {
		dict["CFBundleDisplayName"] = "New"
		MergePlist(dict, map[string]any{
			"NSAppTransportSecurity": map[string]any{"NSAllowsLocalNetworking": true},
			"UIDeviceFamily":         []any{float64(1), float64(2)},
		})
		return nil
	})
	require.NoError(t, err)

	content, err := tree.ReadFile("Info.plist")
	require.NoError(t, err)
	s := string(content)
	assert.Contains(t, s, "<string>New</string>")
	assert.Contains(t, s, "<key>NSAllowsArbitraryLoads</key>")
	assert.Contains(t, s, "<key>NSAllowsLocalNetworking</key>")
	assert.Contains(t, s, "<integer>2</integer>")
	assert.NotContains(t, s, "<real>")
}

func TestEditPlistRejectsGarbage(t *testing.T) {
	tree := memTree(t, map[string]string{"Info.plist": "not a plist <"})

	err := tree.EditPlist("Info.plist", func(map[string]any) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrResource))
}

func TestEditXML(t *testing.T) {
	tree := memTree(t, map[string]string{"AndroidManifest.xml": `<manifest xmlns:android="http://schemas.android.com/apk/res/android"><application/></manifest>`})

	err := tree.EditXML("AndroidManifest.xml", func(doc *etree.Document) error {
		perm := doc.Root().CreateElement("uses-permission")
		perm.CreateAttr("android:name", "android.permission.CAMERA")
		return nil
	})
	require.NoError(t, err)

	content, err := tree.ReadFile("AndroidManifest.xml")
	require.NoError(t, err)
	assert.Contains(t, string(content), `<uses-permission android:name="android.permission.CAMERA"/>`)
}

func TestPlistValue(t *testing.T) {
	assert.Equal(t, int64(3), PlistValue(float64(3)))
	assert.Equal(t, 1.5, PlistValue(1.5))
	assert.Equal(t, map[string]any{"a": int64(1)}, PlistValue(map[string]any{"a": float64(1)}))
	assert.Equal(t, "x", PlistValue("x"))
}
