package project

import (
	"path/filepath"

	"github.com/go-drift/kernel/pkg/config"
)

// Top-level directories of a generated project.
const (
	IOSDir     = "ios"
	AndroidDir = "android"
)

// androidMain is the main source set of the generated Android app module.
var androidMain = filepath.Join(AndroidDir, "app", "src", "main")

func iosAppDir(cfg *config.Config) string {
	return filepath.Join(IOSDir, cfg.IOS.Name)
}

// InfoPlistPath returns the app target's Info.plist.
func InfoPlistPath(cfg *config.Config) string {
	return filepath.Join(iosAppDir(cfg), "Info.plist")
}

// AppDelegatePath returns the Objective-C++ app delegate.
func AppDelegatePath(cfg *config.Config) string {
	return filepath.Join(iosAppDir(cfg), "AppDelegate.mm")
}

// XCConfigPath returns the build settings file of the app target.
func XCConfigPath(cfg *config.Config) string {
	return filepath.Join(iosAppDir(cfg), "Config.xcconfig")
}

// PodfilePath returns the CocoaPods manifest.
func PodfilePath() string {
	return filepath.Join(IOSDir, "Podfile")
}

// AppIconSetPath returns the asset catalog icon set of the app target.
func AppIconSetPath(cfg *config.Config) string {
	return filepath.Join(iosAppDir(cfg), "Images.xcassets", "AppIcon.appiconset")
}

// EntitlementsPath returns the entitlements file, honouring
// ios.entitlementsFilePath when set.
func EntitlementsPath(cfg *config.Config) string {
	if cfg.IOS.EntitlementsFilePath != "" {
		return filepath.Join(iosAppDir(cfg), filepath.Base(cfg.IOS.EntitlementsFilePath))
	}
	return filepath.Join(iosAppDir(cfg), cfg.IOS.Name+".entitlements")
}

// AndroidManifestPath returns the main AndroidManifest.xml.
func AndroidManifestPath() string {
	return filepath.Join(androidMain, "AndroidManifest.xml")
}

// AppGradlePath returns the app module build script.
func AppGradlePath() string {
	return filepath.Join(AndroidDir, "app", "build.gradle")
}

// ProjectGradlePath returns the root build script.
func ProjectGradlePath() string {
	return filepath.Join(AndroidDir, "build.gradle")
}

// GradlePropertiesPath returns gradle.properties.
func GradlePropertiesPath() string {
	return filepath.Join(AndroidDir, "gradle.properties")
}

// GradleWrapperPath returns the Gradle wrapper properties.
func GradleWrapperPath() string {
	return filepath.Join(AndroidDir, "gradle", "wrapper", "gradle-wrapper.properties")
}

// ResourcesPath returns the Android res directory.
func ResourcesPath() string {
	return filepath.Join(androidMain, "res")
}

// StringsPath returns the default strings.xml.
func StringsPath() string {
	return filepath.Join(ResourcesPath(), "values", "strings.xml")
}

// StylesPath returns the default styles.xml.
func StylesPath() string {
	return filepath.Join(ResourcesPath(), "values", "styles.xml")
}

// AssetsPath returns the directory bundled assets are copied into for
// platform ("ios" or "android").
func AssetsPath(cfg *config.Config, platform string) string {
	if platform == AndroidDir {
		return filepath.Join(androidMain, "assets")
	}
	return filepath.Join(iosAppDir(cfg), "Resources")
}

// FastlanePath returns the fastlane directory for platform.
func FastlanePath(platform string) string {
	if platform == AndroidDir {
		return filepath.Join(AndroidDir, "fastlane")
	}
	return filepath.Join(IOSDir, "fastlane")
}
