// Package permissions declares runtime permissions: CocoaPods permission
// handlers and Info.plist usage descriptions on iOS, <uses-permission>
// entries on Android.
//
//	kernelPluginPermissions:
//	  kernel:
//	    ios:
//	      - permission: CAMERA
//	        text: Kernel would like to use your camera
//	    android: [CAMERA, ACCESS_FINE_LOCATION]
package permissions

import (
	"sort"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/go-drift/kernel/pkg/config"
	"github.com/go-drift/kernel/pkg/plugin"
)

const (
	// Name is the plugin identity.
	Name = "permissions"
	// Namespace is the configuration key the plugin reads.
	Namespace = "kernelPluginPermissions"
)

// Settings is the per-app payload under Namespace.
type Settings struct {
	IOS     []IOSPermission `json:"ios,omitempty"`
	Android []string        `json:"android,omitempty"`
}

// IOSPermission is one iOS permission and the usage text shown to the user.
type IOSPermission struct {
	Permission string `json:"permission"`
	Text       string `json:"text,omitempty"`
}

// iosPermission describes how a permission is wired on iOS: the
// react-native-permissions handler name and the Info.plist keys that need a
// usage description.
type iosPermission struct {
	handler string
	keys    []string
}

var iosPermissions = map[string]iosPermission{
	"APP_TRACKING_TRANSPARENCY": {"AppTrackingTransparency", []string{"NSUserTrackingUsageDescription"}},
	"BLUETOOTH":                 {"Bluetooth", []string{"NSBluetoothAlwaysUsageDescription"}},
	"CALENDARS":                 {"Calendars", []string{"NSCalendarsUsageDescription"}},
	"CALENDARS_WRITE_ONLY":      {"CalendarsWriteOnly", []string{"NSCalendarsWriteOnlyAccessUsageDescription"}},
	"CAMERA":                    {"Camera", []string{"NSCameraUsageDescription"}},
	"CONTACTS":                  {"Contacts", []string{"NSContactsUsageDescription"}},
	"FACE_ID":                   {"FaceID", []string{"NSFaceIDUsageDescription"}},
	"LOCATION_ALWAYS": {"LocationAlways", []string{
		"NSLocationAlwaysUsageDescription",
		"NSLocationWhenInUseUsageDescription",
		"NSLocationAlwaysAndWhenInUseUsageDescription",
	}},
	"LOCATION_WHEN_IN_USE":   {"LocationWhenInUse", []string{"NSLocationWhenInUseUsageDescription"}},
	"MEDIA_LIBRARY":          {"MediaLibrary", []string{"NSAppleMusicUsageDescription"}},
	"MICROPHONE":             {"Microphone", []string{"NSMicrophoneUsageDescription"}},
	"MOTION":                 {"Motion", []string{"NSMotionUsageDescription"}},
	"NOTIFICATIONS":          {"Notifications", nil},
	"PHOTO_LIBRARY":          {"PhotoLibrary", []string{"NSPhotoLibraryUsageDescription"}},
	"PHOTO_LIBRARY_ADD_ONLY": {"PhotoLibraryAddOnly", []string{"NSPhotoLibraryAddUsageDescription"}},
	"REMINDERS":              {"Reminders", []string{"NSRemindersUsageDescription"}},
	"SIRI":                   {"Siri", []string{"NSSiriUsageDescription"}},
	"SPEECH_RECOGNITION":     {"SpeechRecognition", []string{"NSSpeechRecognitionUsageDescription"}},
	"STOREKIT":               {"StoreKit", nil},
}

// IOSPermissionNames returns the accepted iOS permission names, sorted.
func IOSPermissionNames() []string {
	names := make([]string, 0, len(iosPermissions))
	for name := range iosPermissions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func schema() *jsonschema.Schema {
	names := IOSPermissionNames()
	enum := make([]any, len(names))
	for i, n := range names {
		enum[i] = n
	}
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"ios": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"permission": {Type: "string", Enum: enum},
						"text":       {Type: "string"},
					},
					Required: []string{"permission"},
				},
			},
			"android": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string", Pattern: `^[A-Za-z0-9_.]+$`},
			},
		},
	}
}

// New returns the permissions plugin.
func New() plugin.Plugin {
	return plugin.Plugin{
		Name:        Name,
		Description: "Runtime permission handlers, usage descriptions and manifest permissions",
		Namespaces: []config.Namespace{{
			Key:    Namespace,
			Schema: schema(),
		}},
		Mutations: map[plugin.Platform]plugin.MutateFunc{
			plugin.IOS:     IOS,
			plugin.Android: Android,
		},
	}
}

// With returns the permissions plugin preloaded with permissions for app.
// They are appended to whatever the base configuration declares.
func With(app string, ios []IOSPermission, android ...string) plugin.Plugin {
	p := New()
	frag := Require(app, ios, android...)
	p.Fragment = &frag
	return p
}

// Require returns the permissions plugin's own fragment appending
// permissions for app. Appends are only accepted inside a namespace the
// fragment's plugin owns, so the fragment is only valid as the Fragment of
// the permissions plugin itself (see With); other plugins declare their
// permissions in the base configuration.
func Require(app string, ios []IOSPermission, android ...string) config.Fragment {
	payload := map[string]any{}
	var appendPaths []string
	if len(ios) > 0 {
		items := make([]any, len(ios))
		for i, p := range ios {
			item := map[string]any{"permission": p.Permission}
			if p.Text != "" {
				item["text"] = p.Text
			}
			items[i] = item
		}
		payload["ios"] = items
		appendPaths = append(appendPaths, Namespace+"."+app+".ios")
	}
	if len(android) > 0 {
		items := make([]any, len(android))
		for i, p := range android {
			items[i] = p
		}
		payload["android"] = items
		appendPaths = append(appendPaths, Namespace+"."+app+".android")
	}
	return config.Fragment{
		Source: Name,
		Plugin: map[string]any{},
		Values: map[string]any{Namespace: map[string]any{app: payload}},
		Append: appendPaths,
	}
}

func settingsFor(cfg *config.Config, platform plugin.Platform) (Settings, bool, error) {
	return config.DecodeNamespace[Settings](cfg, Namespace, cfg.AppIdentity(platform.String()))
}
