package identity

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/beevik/etree"

	"github.com/go-drift/kernel/pkg/config"
	"github.com/go-drift/kernel/pkg/plugin"
	"github.com/go-drift/kernel/pkg/project"
)

const mainActivity = ".MainActivity"

var (
	applicationIDRe   = regexp.MustCompile(`applicationId "[^"]*"`)
	namespaceRe       = regexp.MustCompile(`namespace "[^"]*"`)
	versionCodeRe     = regexp.MustCompile(`versionCode \d+`)
	versionNameRe     = regexp.MustCompile(`versionName "[^"]*"`)
	dependenciesRe    = regexp.MustCompile(`(\ndependencies \{)`)
	buildscriptExtRe  = regexp.MustCompile(`(ext \{)`)
	buildscriptDepsRe = regexp.MustCompile(`(buildscript \{[\s\S]*?dependencies \{)`)
	buildscriptRepoRe = regexp.MustCompile(`(buildscript \{[\s\S]*?repositories \{)`)
	allprojectsRepoRe = regexp.MustCompile(`(allprojects \{[\s\S]*?repositories \{)`)
	distributionURLRe = regexp.MustCompile(`gradle-[^-/]+-all\.zip`)
)

// Android applies the android section to the Gradle scripts, the manifest
// and the default resources.
func Android(_ context.Context, cfg *config.Config, tree *project.Tree) error {
	if err := requireIdentity(cfg, plugin.Android); err != nil {
		return err
	}

	steps := []func(*config.Config, *project.Tree) error{
		androidAppGradle,
		androidProjectGradle,
		androidGradleProperties,
		androidStrings,
		androidStyles,
		androidManifest,
	}
	for _, step := range steps {
		if err := step(cfg, tree); err != nil {
			return err
		}
	}
	return nil
}

func androidAppGradle(cfg *config.Config, tree *project.Tree) error {
	path := project.AppGradlePath()
	pkg := cfg.Android.PackageName

	if err := tree.Update(path, applicationIDRe, project.EscapeReplacement(fmt.Sprintf(`applicationId "%s"`, pkg))); err != nil {
		return err
	}
	if err := tree.Update(path, namespaceRe, project.EscapeReplacement(fmt.Sprintf(`namespace "%s"`, pkg))); err != nil {
		return err
	}
	if v := cfg.Android.Versioning; v != nil {
		if v.Build > 0 {
			if err := tree.Update(path, versionCodeRe, "versionCode "+strconv.Itoa(v.Build)); err != nil {
				return err
			}
		}
		if err := tree.Update(path, versionNameRe, project.EscapeReplacement(fmt.Sprintf(`versionName "%s"`, v.Version))); err != nil {
			return err
		}
	}

	if g := cfg.Android.Gradle; g != nil && g.AppGradle != nil {
		deps := make([]string, len(g.AppGradle.Dependencies))
		for i, d := range g.AppGradle.Dependencies {
			deps[i] = "    " + d
		}
		if err := tree.InsertAfter(path, dependenciesRe, deps...); err != nil {
			return err
		}
	}
	return nil
}

func androidProjectGradle(cfg *config.Config, tree *project.Tree) error {
	g := cfg.Android.Gradle
	if g == nil || g.ProjectGradle == nil {
		return nil
	}
	pg := g.ProjectGradle
	path := project.ProjectGradlePath()

	quoted := map[string]string{
		"buildToolsVersion": pg.BuildToolsVersion,
		"kotlinVersion":     pg.KotlinVersion,
		"ndkVersion":        pg.NdkVersion,
	}
	for _, key := range sortedKeys(quoted) {
		if quoted[key] == "" {
			continue
		}
		if err := setLine(tree, path, "        "+key+" = ", strconv.Quote(quoted[key])); err != nil {
			return err
		}
	}
	ints := map[string]int{
		"compileSdkVersion": pg.CompileSdkVersion,
		"minSdkVersion":     pg.MinSdkVersion,
		"targetSdkVersion":  pg.TargetSdkVersion,
	}
	for _, key := range []string{"compileSdkVersion", "minSdkVersion", "targetSdkVersion"} {
		if ints[key] == 0 {
			continue
		}
		if err := setLine(tree, path, "        "+key+" = ", strconv.Itoa(ints[key])); err != nil {
			return err
		}
	}

	indent := func(prefix string, lines []string) []string {
		out := make([]string, len(lines))
		for i, l := range lines {
			out[i] = prefix + l
		}
		return out
	}
	if err := tree.InsertAfter(path, buildscriptExtRe, indent("        ", pg.Ext)...); err != nil {
		return err
	}
	if err := tree.InsertAfter(path, buildscriptRepoRe, indent("        ", pg.BuildRepositories)...); err != nil {
		return err
	}
	if err := tree.InsertAfter(path, buildscriptDepsRe, indent("        ", pg.Dependencies)...); err != nil {
		return err
	}
	if err := tree.InsertAfter(path, allprojectsRepoRe, indent("        ", pg.Repositories)...); err != nil {
		return err
	}
	if pg.AndroidGradlePluginVersion != "" {
		agp := regexp.MustCompile(`classpath\("com\.android\.tools\.build:gradle[^"]*"\)`)
		repl := fmt.Sprintf(`classpath("com.android.tools.build:gradle:%s")`, pg.AndroidGradlePluginVersion)
		if err := tree.Update(path, agp, project.EscapeReplacement(repl)); err != nil {
			return err
		}
	}
	return nil
}

func androidGradleProperties(cfg *config.Config, tree *project.Tree) error {
	g := cfg.Android.Gradle
	if g == nil {
		return nil
	}
	if g.JvmArgs != "" {
		if err := setLine(tree, project.GradlePropertiesPath(), "org.gradle.jvmargs=", g.JvmArgs); err != nil {
			return err
		}
	}
	if g.DistributionVersion != "" {
		repl := "gradle-" + g.DistributionVersion + "-all.zip"
		if err := tree.Update(project.GradleWrapperPath(), distributionURLRe, project.EscapeReplacement(repl)); err != nil {
			return err
		}
	}
	return nil
}

func androidStrings(cfg *config.Config, tree *project.Tree) error {
	values := map[string]string{}
	for k, v := range cfg.Android.Strings {
		values[k] = v
	}
	if cfg.Android.DisplayName != "" {
		values["app_name"] = cfg.Android.DisplayName
	}
	if len(values) == 0 {
		return nil
	}

	return tree.EditXML(project.StringsPath(), func(doc *etree.Document) error {
		root := doc.Root()
		for _, name := range sortedKeys(values) {
			el := findByAttr(root.SelectElements("string"), "name", name)
			if el == nil {
				el = root.CreateElement("string")
				el.CreateAttr("name", name)
			}
			el.SetText(values[name])
		}
		return nil
	})
}

func androidStyles(cfg *config.Config, tree *project.Tree) error {
	st := cfg.Android.Styles
	if st == nil || (len(st.AppThemeAttributes) == 0 && len(st.AppThemeElements) == 0) {
		return nil
	}

	return tree.EditXML(project.StylesPath(), func(doc *etree.Document) error {
		theme := findByAttr(doc.Root().SelectElements("style"), "name", "AppTheme")
		if theme == nil {
			return fmt.Errorf("styles.xml: AppTheme style not found")
		}
		for _, k := range sortedKeys(st.AppThemeAttributes) {
			theme.CreateAttr(k, st.AppThemeAttributes[k])
		}
		for _, name := range sortedKeys(st.AppThemeElements) {
			item := findByAttr(theme.SelectElements("item"), "name", name)
			if item == nil {
				item = theme.CreateElement("item")
				item.CreateAttr("name", name)
			}
			item.SetText(st.AppThemeElements[name])
		}
		return nil
	})
}

func androidManifest(cfg *config.Config, tree *project.Tree) error {
	m := cfg.Android.Manifest
	if m == nil {
		return nil
	}

	return tree.EditXML(project.AndroidManifestPath(), func(doc *etree.Document) error {
		manifest := doc.Root()
		application := manifest.SelectElement("application")
		if application == nil {
			return fmt.Errorf("AndroidManifest.xml: <application> not found")
		}
		activity := findByAttr(application.SelectElements("activity"), "android:name", mainActivity)
		if activity == nil {
			return fmt.Errorf("AndroidManifest.xml: activity %s not found", mainActivity)
		}

		setAttrs(manifest, m.ManifestAttributes)
		setAttrs(application, m.MainApplicationAttributes)
		setAttrs(activity, m.MainActivityAttributes)

		if err := addElements(manifest, m.ManifestElements); err != nil {
			return err
		}
		if err := addElements(application, m.MainApplicationElements); err != nil {
			return err
		}
		if err := addElements(activity, m.MainActivityElements); err != nil {
			return err
		}

		if m.URLScheme != nil && m.URLScheme.Scheme != "" {
			addURLScheme(activity, m.URLScheme)
		}
		return nil
	})
}

func addURLScheme(activity *etree.Element, scheme *config.URLScheme) {
	filter := activity.CreateElement("intent-filter")
	filter.CreateElement("action").CreateAttr("android:name", "android.intent.action.VIEW")
	filter.CreateElement("category").CreateAttr("android:name", "android.intent.category.DEFAULT")
	filter.CreateElement("category").CreateAttr("android:name", "android.intent.category.BROWSABLE")
	data := filter.CreateElement("data")
	data.CreateAttr("android:scheme", scheme.Scheme)
	if scheme.Host != "" {
		data.CreateAttr("android:host", scheme.Host)
	}
}

func setAttrs(el *etree.Element, attrs map[string]string) {
	for _, k := range sortedKeys(attrs) {
		el.CreateAttr(k, attrs[k])
	}
}

// addElements parses each raw XML snippet and appends it to parent.
func addElements(parent *etree.Element, snippets []string) error {
	for _, s := range snippets {
		doc := etree.NewDocument()
		if err := doc.ReadFromString(s); err != nil {
			return fmt.Errorf("invalid manifest element %q: %w", s, err)
		}
		if doc.Root() == nil {
			return fmt.Errorf("invalid manifest element %q: no element", s)
		}
		parent.AddChild(doc.Root().Copy())
	}
	return nil
}

func findByAttr(elements []*etree.Element, key, value string) *etree.Element {
	for _, el := range elements {
		if el.SelectAttrValue(key, "") == value {
			return el
		}
	}
	return nil
}
