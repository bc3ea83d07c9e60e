// Package plugin defines the plugin contract, the ordered plugin registry and
// the runner that applies plugin mutations to a generated project.
//
// A plugin contributes an optional configuration fragment, zero or more
// namespaces, and one mutation function per platform it supports. The
// registry fixes execution order; the runner invokes mutations for one
// platform strictly in that order and records each outcome in a Report.
package plugin

import (
	"context"
	"fmt"

	"github.com/go-drift/kernel/pkg/config"
	"github.com/go-drift/kernel/pkg/project"
)

// Platform is a native target platform.
type Platform string

const (
	IOS     Platform = "ios"
	Android Platform = "android"
)

// Platforms returns every supported platform in canonical order.
func Platforms() []Platform {
	return []Platform{IOS, Android}
}

// ParsePlatform converts a command-line platform name.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case IOS, Android:
		return Platform(s), nil
	default:
		return "", fmt.Errorf("unknown platform %q (expected ios or android)", s)
	}
}

func (p Platform) String() string {
	return string(p)
}

// MutateFunc applies a plugin's changes to the project tree for one
// platform. cfg is shared with every other plugin and must not be modified.
type MutateFunc func(ctx context.Context, cfg *config.Config, tree *project.Tree) error

// Plugin is a named unit contributing configuration and platform-specific
// project mutations.
type Plugin struct {
	// Name is the plugin identity. It must be unique within a registry.
	Name string
	// Description is shown by `kernel plugins`.
	Description string
	// Critical promotes mutation failures to fatal: the platform run stops
	// and the remaining plugins are skipped.
	Critical bool
	// Fragment is the plugin's configuration contribution, if any. Its
	// Source is filled from Name.
	Fragment *config.Fragment
	// Namespaces are the top-level configuration keys this plugin owns.
	Namespaces []config.Namespace
	// Mutations maps each supported platform to its mutation function.
	Mutations map[Platform]MutateFunc
}

// Supports reports whether p has a mutation function for platform.
func (p *Plugin) Supports(platform Platform) bool {
	_, ok := p.Mutations[platform]
	return ok
}

// Platforms returns the platforms p supports in canonical order.
func (p *Plugin) Platforms() []Platform {
	var out []Platform
	for _, platform := range Platforms() {
		if p.Supports(platform) {
			out = append(out, platform)
		}
	}
	return out
}
