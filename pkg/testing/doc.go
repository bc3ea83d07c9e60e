// Package testing provides helpers for testing plugins against a pristine
// generated project.
//
// # Quick Start
//
// Resolve a config, scaffold a project in memory, run a mutation and assert
// on the result:
//
//	func TestMyPlugin(t *testing.T) {
//	    cfg := kerneltest.Config(t, nil)
//	    tree := kerneltest.Project(t, cfg)
//
//	    err := myMutation(context.Background(), cfg, tree)
//	    require.NoError(t, err)
//
//	    kerneltest.AssertFileContains(t, tree, "ios/Podfile", "pod 'Foo'")
//	}
//
// # Namespaces
//
// Plugins that own namespaces pass them to ConfigWith so the base tree may
// carry namespace payloads:
//
//	cfg := kerneltest.ConfigWith(t, overrides, appicon.New().Namespaces...)
package testing
