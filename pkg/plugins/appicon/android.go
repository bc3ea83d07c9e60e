package appicon

import (
	"context"
	"image"
	"math"
	"path/filepath"

	"github.com/go-drift/kernel/pkg/config"
	"github.com/go-drift/kernel/pkg/plugin"
	"github.com/go-drift/kernel/pkg/project"
)

// Base sizes in dp. Legacy icons are 48dp, adaptive layers 108dp.
const (
	legacySize   = 48
	adaptiveSize = 108
)

type androidIcon struct {
	source string
	name   string
	size   int
	cutout *cutout
}

var androidIcons = []androidIcon{
	{
		source: "android/ic_launcher.png",
		name:   "ic_launcher.png",
		size:   legacySize,
		cutout: &cutout{size: 880, radius: 80, padding: 72},
	},
	{
		source: "android/ic_launcher.png",
		name:   "ic_launcher_round.png",
		size:   legacySize,
		cutout: &cutout{size: 880, radius: 440, padding: 72},
	},
	{source: "android/ic_launcher_foreground.png", name: "ic_launcher_foreground.png", size: adaptiveSize},
	{source: "android/ic_launcher_background.png", name: "ic_launcher_background.png", size: adaptiveSize},
}

var densities = []struct {
	dpi   string
	scale float64
}{
	{"mdpi", 1},
	{"hdpi", 1.5},
	{"xhdpi", 2},
	{"xxhdpi", 3},
	{"xxxhdpi", 4},
}

const adaptiveIcon = `<?xml version="1.0" encoding="utf-8"?>
<adaptive-icon xmlns:android="http://schemas.android.com/apk/res/android">
    <background android:drawable="@mipmap/ic_launcher_background"/>
    <foreground android:drawable="@mipmap/ic_launcher_foreground"/>
</adaptive-icon>
`

// Android renders the launcher icons for every density and writes the
// adaptive icon definition.
func Android(ctx context.Context, cfg *config.Config, tree *project.Tree) error {
	settings, err := settingsFor(cfg, plugin.Android)
	if err != nil {
		return err
	}

	sources := map[string]image.Image{}
	res := project.ResourcesPath()
	for _, icon := range androidIcons {
		src, ok := sources[icon.source]
		if !ok {
			src, err = loadImage(tree, filepath.Join(settings.AppIconPath, icon.source))
			if err != nil {
				return err
			}
			sources[icon.source] = src
		}
		if icon.cutout != nil {
			src = icon.cutout.apply(src)
		}

		for _, d := range densities {
			if err := ctx.Err(); err != nil {
				return err
			}
			px := int(math.Round(float64(icon.size) * d.scale))
			data, err := encodePNG(resize(src, px))
			if err != nil {
				return err
			}
			if err := tree.WriteFile(filepath.Join(res, "mipmap-"+d.dpi, icon.name), data); err != nil {
				return err
			}
		}
	}

	return tree.WriteFile(filepath.Join(res, "mipmap-anydpi-v26", "ic_launcher.xml"), []byte(adaptiveIcon))
}
