package scaffold

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() Settings {
	return Settings{
		IOSName:            "kernel",
		IOSDisplayName:     "Kernel",
		BundleID:           "com.kernel",
		DeploymentTarget:   "13.4",
		AndroidName:        "kernel",
		AndroidDisplayName: "Kernel",
		PackageName:        "com.kernel",
	}
}

func TestDestination(t *testing.T) {
	s := testSettings()
	tests := []struct {
		in   string
		want string
	}{
		{"ios/Podfile.tmpl", "ios/Podfile"},
		{"ios/__app__/Info.plist.tmpl", "ios/kernel/Info.plist"},
		{"ios/__app__/__app__.entitlements.tmpl", "ios/kernel/kernel.entitlements"},
		{"android/app/build.gradle.tmpl", "android/app/build.gradle"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Destination(tt.in, s))
		})
	}
}

func TestWriteBothPlatforms(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, Write(fs, testSettings(), "ios", "android"))

	for _, path := range []string{
		"ios/Podfile",
		"ios/kernel/Info.plist",
		"ios/kernel/AppDelegate.mm",
		"ios/kernel/Config.xcconfig",
		"ios/kernel/kernel.entitlements",
		"ios/kernel/Images.xcassets/AppIcon.appiconset/Contents.json",
		"android/build.gradle",
		"android/settings.gradle",
		"android/gradle.properties",
		"android/gradle/wrapper/gradle-wrapper.properties",
		"android/app/build.gradle",
		"android/app/src/main/AndroidManifest.xml",
		"android/app/src/main/res/values/strings.xml",
		"android/app/src/main/res/values/styles.xml",
	} {
		ok, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.True(t, ok, path)
	}

	gradle, err := afero.ReadFile(fs, "android/app/build.gradle")
	require.NoError(t, err)
	assert.Contains(t, string(gradle), `applicationId "com.kernel"`)

	podfile, err := afero.ReadFile(fs, "ios/Podfile")
	require.NoError(t, err)
	assert.Contains(t, string(podfile), "target 'kernel' do")
	assert.Contains(t, string(podfile), "platform :ios, '13.4'")
}

func TestWriteSinglePlatform(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, WriteAndroid(fs, testSettings()))

	ok, _ := afero.DirExists(fs, "ios")
	assert.False(t, ok)
}

func TestWriteIOSRequiresName(t *testing.T) {
	err := WriteIOS(afero.NewMemMapFs(), Settings{})
	require.Error(t, err)
}

func TestTemplatesRenderWithoutLeftovers(t *testing.T) {
	for _, platform := range []string{"ios", "android"} {
		files, err := ListFiles(platform)
		require.NoError(t, err)
		require.NotEmpty(t, files)

		for _, file := range files {
			content, err := templatesFS.ReadFile("templates/" + file)
			require.NoError(t, err)
			out, err := ProcessTemplate(string(content), testSettings())
			require.NoError(t, err, file)
			assert.False(t, strings.Contains(out, "{{"), file)
		}
	}
}
