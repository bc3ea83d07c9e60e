// Package config defines the resolved build configuration and the merger that
// produces it from a base configuration and ordered plugin fragments.
//
// A Config is built once per build invocation and is read-only afterwards.
// Plugins read the typed IOS and Android sections directly and decode their
// own namespaces and settings with DecodeNamespace and DecodeSettings.
package config

// Reserved top-level keys. Every other top-level key must be a registered
// plugin namespace.
const (
	KeyIOS     = "ios"
	KeyAndroid = "android"
	KeyApp     = "app"
)

// Config is the resolved build configuration.
type Config struct {
	IOS     IOS     `json:"ios" yaml:"ios"`
	Android Android `json:"android" yaml:"android"`

	// App is the caller-defined payload. Use DecodeApp for typed access.
	App any `json:"app,omitempty" yaml:"app,omitempty"`

	// Namespaces holds plugin-scoped settings keyed by namespace, then by
	// consuming application identity.
	Namespaces map[string]map[string]any `json:"-" yaml:"-"`

	// PluginSettings holds the `plugin` payload of each merged fragment keyed
	// by the contributing plugin's name.
	PluginSettings map[string]any `json:"-" yaml:"-"`

	tree map[string]any
}

// IOS holds iOS project settings.
type IOS struct {
	// Name is the application source code name (Xcode target name).
	Name string `json:"name" yaml:"name"`
	// BundleID is the application bundle identifier.
	BundleID string `json:"bundleId" yaml:"bundleId"`
	// DisplayName is the name shown on the home screen.
	DisplayName string `json:"displayName" yaml:"displayName"`

	EntitlementsFilePath string         `json:"entitlementsFilePath,omitempty" yaml:"entitlementsFilePath,omitempty"`
	Frameworks           []Framework    `json:"frameworks,omitempty" yaml:"frameworks,omitempty"`
	DeploymentTarget     string         `json:"deploymentTarget,omitempty" yaml:"deploymentTarget,omitempty"`
	Podfile              *Podfile       `json:"podfile,omitempty" yaml:"podfile,omitempty"`
	Plist                map[string]any `json:"plist,omitempty" yaml:"plist,omitempty"`
	Signing              *IOSSigning    `json:"signing,omitempty" yaml:"signing,omitempty"`
	TargetedDevices      string         `json:"targetedDevices,omitempty" yaml:"targetedDevices,omitempty"`
	Versioning           *Versioning    `json:"versioning,omitempty" yaml:"versioning,omitempty"`
	PrivacyManifestPath  string         `json:"privacyManifestPath,omitempty" yaml:"privacyManifestPath,omitempty"`
}

// Targeted device families, as written to TARGETED_DEVICE_FAMILY.
const (
	DevicesIPhone    = "1"
	DevicesIPad      = "2"
	DevicesUniversal = "1,2"
)

// Versioning holds the marketing version and build number of a platform.
type Versioning struct {
	Version string `json:"version" yaml:"version"`
	Build   int    `json:"build,omitempty" yaml:"build,omitempty"`
}

// Framework is an additional framework embedded in the iOS project.
type Framework struct {
	Framework string `json:"framework" yaml:"framework"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Podfile holds additional CocoaPods configuration.
type Podfile struct {
	Config []string `json:"config,omitempty" yaml:"config,omitempty"`
	Pods   []string `json:"pods,omitempty" yaml:"pods,omitempty"`
}

// IOSSigning holds code signing settings.
type IOSSigning struct {
	AppleCert               string `json:"appleCert" yaml:"appleCert"`
	DistCert                string `json:"distCert" yaml:"distCert"`
	DistP12                 string `json:"distP12" yaml:"distP12"`
	DistCertType            string `json:"distCertType" yaml:"distCertType"`
	ExportMethod            string `json:"exportMethod" yaml:"exportMethod"`
	ExportTeamID            string `json:"exportTeamId" yaml:"exportTeamId"`
	ProfilesDir             string `json:"profilesDir" yaml:"profilesDir"`
	ProvisioningProfileName string `json:"provisioningProfileName" yaml:"provisioningProfileName"`
}

// Android holds Android project settings.
type Android struct {
	// Name is the application source code name.
	Name string `json:"name" yaml:"name"`
	// DisplayName is the launcher label.
	DisplayName string `json:"displayName" yaml:"displayName"`
	// PackageName is the application id.
	PackageName string `json:"packageName" yaml:"packageName"`

	Gradle     *Gradle           `json:"gradle,omitempty" yaml:"gradle,omitempty"`
	Manifest   *Manifest         `json:"manifest,omitempty" yaml:"manifest,omitempty"`
	Security   map[string]any    `json:"security,omitempty" yaml:"security,omitempty"`
	Styles     *Styles           `json:"styles,omitempty" yaml:"styles,omitempty"`
	Strings    map[string]string `json:"strings,omitempty" yaml:"strings,omitempty"`
	Signing    *AndroidSigning   `json:"signing,omitempty" yaml:"signing,omitempty"`
	Versioning *Versioning       `json:"versioning,omitempty" yaml:"versioning,omitempty"`
}

// AndroidSigning holds release keystore settings.
type AndroidSigning struct {
	KeyAlias  string `json:"keyAlias" yaml:"keyAlias"`
	StoreFile string `json:"storeFile" yaml:"storeFile"`
}

// Gradle holds Gradle build settings.
type Gradle struct {
	AppGradle           *AppGradle     `json:"appGradle,omitempty" yaml:"appGradle,omitempty"`
	DistributionVersion string         `json:"distributionVersion,omitempty" yaml:"distributionVersion,omitempty"`
	JvmArgs             string         `json:"jvmArgs,omitempty" yaml:"jvmArgs,omitempty"`
	ProjectGradle       *ProjectGradle `json:"projectGradle,omitempty" yaml:"projectGradle,omitempty"`
}

// AppGradle holds app/build.gradle additions.
type AppGradle struct {
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// ProjectGradle holds root build.gradle settings.
type ProjectGradle struct {
	AndroidGradlePluginVersion string   `json:"androidGradlePluginVersion,omitempty" yaml:"androidGradlePluginVersion,omitempty"`
	BuildToolsVersion          string   `json:"buildToolsVersion,omitempty" yaml:"buildToolsVersion,omitempty"`
	CompileSdkVersion          int      `json:"compileSdkVersion,omitempty" yaml:"compileSdkVersion,omitempty"`
	KotlinVersion              string   `json:"kotlinVersion,omitempty" yaml:"kotlinVersion,omitempty"`
	MinSdkVersion              int      `json:"minSdkVersion,omitempty" yaml:"minSdkVersion,omitempty"`
	NdkVersion                 string   `json:"ndkVersion,omitempty" yaml:"ndkVersion,omitempty"`
	Repositories               []string `json:"repositories,omitempty" yaml:"repositories,omitempty"`
	TargetSdkVersion           int      `json:"targetSdkVersion,omitempty" yaml:"targetSdkVersion,omitempty"`
	Ext                        []string `json:"ext,omitempty" yaml:"ext,omitempty"`
	Dependencies               []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	BuildRepositories          []string `json:"buildRepositories,omitempty" yaml:"buildRepositories,omitempty"`
}

// Manifest holds AndroidManifest.xml additions.
type Manifest struct {
	ManifestAttributes        map[string]string `json:"manifestAttributes,omitempty" yaml:"manifestAttributes,omitempty"`
	MainActivityAttributes    map[string]string `json:"mainActivityAttributes,omitempty" yaml:"mainActivityAttributes,omitempty"`
	MainApplicationAttributes map[string]string `json:"mainApplicationAttributes,omitempty" yaml:"mainApplicationAttributes,omitempty"`
	URLScheme                 *URLScheme        `json:"urlScheme,omitempty" yaml:"urlScheme,omitempty"`
	ManifestElements          []string          `json:"manifestElements,omitempty" yaml:"manifestElements,omitempty"`
	MainApplicationElements   []string          `json:"mainApplicationElements,omitempty" yaml:"mainApplicationElements,omitempty"`
	MainActivityElements      []string          `json:"mainActivityElements,omitempty" yaml:"mainActivityElements,omitempty"`
}

// Styles holds styles.xml additions for the app theme.
type Styles struct {
	AppThemeAttributes map[string]string `json:"appThemeAttributes,omitempty" yaml:"appThemeAttributes,omitempty"`
	AppThemeElements   map[string]string `json:"appThemeElements,omitempty" yaml:"appThemeElements,omitempty"`
}

// URLScheme is a deep link scheme for intents and CFBundleURLTypes.
type URLScheme struct {
	Scheme string `json:"scheme" yaml:"scheme"`
	Host   string `json:"host,omitempty" yaml:"host,omitempty"`
}

// AppIdentity returns the identity of the consuming application on the given
// platform. Plugin namespaces are keyed by this value.
func (c *Config) AppIdentity(platform string) string {
	if platform == KeyAndroid && c.Android.Name != "" {
		return c.Android.Name
	}
	if c.IOS.Name != "" {
		return c.IOS.Name
	}
	return c.Android.Name
}

// Tree returns a deep copy of the merged configuration tree.
func (c *Config) Tree() map[string]any {
	return cloneMap(c.tree)
}
