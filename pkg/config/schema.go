package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// IdentityPaths lists the fields that establish app identity. A fragment that
// gives one of them an incompatible type is a merge conflict, not just a
// validation failure.
var IdentityPaths = []string{
	"ios.name",
	"ios.bundleId",
	"ios.displayName",
	"android.name",
	"android.displayName",
	"android.packageName",
}

// schemaBuilder builds the Config schema. With partial set, every Required
// list is dropped, yielding the deep-partial schema fragments are checked
// against.
type schemaBuilder struct {
	partial bool
}

func (b schemaBuilder) object(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	s := &jsonschema.Schema{Type: "object", Properties: props}
	if !b.partial {
		s.Required = required
	}
	return s
}

func str() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string"}
}

func strList() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Items: str()}
}

func integer() *jsonschema.Schema {
	zero := 0.0
	return &jsonschema.Schema{Type: "integer", Minimum: &zero}
}

func openObject() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object"}
}

func strMap() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", AdditionalProperties: str()}
}

func (b schemaBuilder) versioning() *jsonschema.Schema {
	return b.object(map[string]*jsonschema.Schema{
		"version": str(),
		"build":   integer(),
	}, "version")
}

func (b schemaBuilder) ios() *jsonschema.Schema {
	return b.object(map[string]*jsonschema.Schema{
		"name":                 str(),
		"bundleId":             str(),
		"displayName":          str(),
		"entitlementsFilePath": str(),
		"frameworks": {
			Type: "array",
			Items: b.object(map[string]*jsonschema.Schema{
				"framework": str(),
				"path":      str(),
			}, "framework"),
		},
		"deploymentTarget": str(),
		"podfile": b.object(map[string]*jsonschema.Schema{
			"config": strList(),
			"pods":   strList(),
		}),
		"plist": openObject(),
		"signing": b.object(map[string]*jsonschema.Schema{
			"appleCert":               str(),
			"distCert":                str(),
			"distP12":                 str(),
			"distCertType":            {Type: "string", Enum: []any{"iPhone Development", "iPhone Distribution", "Apple Development", "Apple Distribution"}},
			"exportMethod":            {Type: "string", Enum: []any{"app-store", "validation", "ad-hoc", "package", "enterprise", "development", "developer-id", "mac-application"}},
			"exportTeamId":            str(),
			"profilesDir":             str(),
			"provisioningProfileName": str(),
		}, "exportMethod", "exportTeamId", "provisioningProfileName"),
		"targetedDevices":     {Type: "string", Enum: []any{DevicesIPhone, DevicesIPad, DevicesUniversal}},
		"versioning":          b.versioning(),
		"privacyManifestPath": str(),
	}, "name", "bundleId", "displayName")
}

func (b schemaBuilder) android() *jsonschema.Schema {
	urlScheme := b.object(map[string]*jsonschema.Schema{
		"scheme": str(),
		"host":   str(),
	}, "scheme")

	return b.object(map[string]*jsonschema.Schema{
		"name":        str(),
		"displayName": str(),
		"packageName": str(),
		"gradle": b.object(map[string]*jsonschema.Schema{
			"appGradle": b.object(map[string]*jsonschema.Schema{
				"dependencies": strList(),
			}),
			"distributionVersion": str(),
			"jvmArgs":             str(),
			"projectGradle": b.object(map[string]*jsonschema.Schema{
				"androidGradlePluginVersion": str(),
				"buildToolsVersion":          str(),
				"compileSdkVersion":          integer(),
				"kotlinVersion":              str(),
				"minSdkVersion":              integer(),
				"ndkVersion":                 str(),
				"repositories":               strList(),
				"targetSdkVersion":           integer(),
				"ext":                        strList(),
				"dependencies":               strList(),
				"buildRepositories":          strList(),
			}),
		}),
		"manifest": b.object(map[string]*jsonschema.Schema{
			"manifestAttributes":        strMap(),
			"mainActivityAttributes":    strMap(),
			"mainApplicationAttributes": strMap(),
			"urlScheme":                 urlScheme,
			"manifestElements":          strList(),
			"mainApplicationElements":   strList(),
			"mainActivityElements":      strList(),
		}),
		"security": openObject(),
		"styles": b.object(map[string]*jsonschema.Schema{
			"appThemeAttributes": strMap(),
			"appThemeElements":   strMap(),
		}),
		"strings": strMap(),
		"signing": b.object(map[string]*jsonschema.Schema{
			"keyAlias":  str(),
			"storeFile": str(),
		}, "keyAlias", "storeFile"),
		"versioning": b.versioning(),
	}, "name", "displayName", "packageName")
}

// resolvedSchemas holds the compiled section schemas.
type resolvedSchemas struct {
	full     map[string]*jsonschema.Resolved
	partial  map[string]*jsonschema.Resolved
	identity map[string]*jsonschema.Resolved
}

func resolveSections(b schemaBuilder) (map[string]*jsonschema.Resolved, error) {
	sections := map[string]*jsonschema.Schema{
		KeyIOS:     b.ios(),
		KeyAndroid: b.android(),
	}
	out := make(map[string]*jsonschema.Resolved, len(sections))
	for name, s := range sections {
		rs, err := s.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s schema: %w", name, err)
		}
		out[name] = rs
	}
	return out, nil
}

var loadSchemas = sync.OnceValues(func() (*resolvedSchemas, error) {
	full, err := resolveSections(schemaBuilder{})
	if err != nil {
		return nil, err
	}
	partial, err := resolveSections(schemaBuilder{partial: true})
	if err != nil {
		return nil, err
	}

	b := schemaBuilder{partial: true}
	sections := map[string]*jsonschema.Schema{KeyIOS: b.ios(), KeyAndroid: b.android()}
	identity := make(map[string]*jsonschema.Resolved, len(IdentityPaths))
	for _, path := range IdentityPaths {
		section, field := splitSection(path)
		prop := sections[section].Properties[field]
		rs, err := prop.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s schema: %w", path, err)
		}
		identity[path] = rs
	}

	return &resolvedSchemas{full: full, partial: partial, identity: identity}, nil
})

func splitSection(path string) (section, field string) {
	section, field, _ = strings.Cut(path, ".")
	return section, field
}
