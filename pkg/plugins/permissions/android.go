package permissions

import (
	"context"
	"strings"

	"github.com/beevik/etree"

	"github.com/go-drift/kernel/pkg/config"
	"github.com/go-drift/kernel/pkg/plugin"
	"github.com/go-drift/kernel/pkg/project"
)

const androidPrefix = "android.permission."

// Android adds a <uses-permission> element for each configured permission
// not already declared. Bare names get the android.permission. prefix.
func Android(_ context.Context, cfg *config.Config, tree *project.Tree) error {
	settings, _, err := settingsFor(cfg, plugin.Android)
	if err != nil {
		return err
	}
	if len(settings.Android) == 0 {
		return nil
	}

	return tree.EditXML(project.AndroidManifestPath(), func(doc *etree.Document) error {
		manifest := doc.Root()

		declared := map[string]bool{}
		var last *etree.Element
		for _, el := range manifest.SelectElements("uses-permission") {
			declared[el.SelectAttrValue("android:name", "")] = true
			last = el
		}

		for _, name := range settings.Android {
			if !strings.Contains(name, ".") {
				name = androidPrefix + name
			}
			if declared[name] {
				continue
			}
			declared[name] = true

			el := etree.NewElement("uses-permission")
			el.CreateAttr("android:name", name)
			if last != nil {
				manifest.InsertChildAt(last.Index()+1, el)
			} else {
				manifest.InsertChildAt(0, el)
			}
			last = el
		}
		return nil
	})
}
