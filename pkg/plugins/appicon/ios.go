package appicon

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"github.com/go-drift/kernel/pkg/config"
	"github.com/go-drift/kernel/pkg/plugin"
	"github.com/go-drift/kernel/pkg/project"
)

type iosRule struct {
	idiom string
	size  float64
	scale int
}

var iosRules = []iosRule{
	{"iphone", 20, 2},
	{"iphone", 20, 3},
	{"iphone", 29, 2},
	{"iphone", 29, 3},
	{"iphone", 40, 2},
	{"iphone", 40, 3},
	{"iphone", 60, 2},
	{"iphone", 60, 3},
	{"ipad", 20, 1},
	{"ipad", 20, 2},
	{"ipad", 29, 1},
	{"ipad", 29, 2},
	{"ipad", 40, 1},
	{"ipad", 40, 2},
	{"ipad", 76, 1},
	{"ipad", 76, 2},
	{"ipad", 83.5, 2},
	{"ios-marketing", 1024, 1},
}

const iosSource = "ios/universal-icon.png"

func (r iosRule) points() string {
	return strconv.FormatFloat(r.size, 'f', -1, 64)
}

func (r iosRule) filename() string {
	scale := ""
	if r.scale > 1 {
		scale = fmt.Sprintf("@%dx", r.scale)
	}
	return fmt.Sprintf("universal-icon-%s%s.png", r.points(), scale)
}

func (r iosRule) pixels() int {
	return int(math.Round(r.size * float64(r.scale)))
}

type iconImage struct {
	Filename string `json:"filename"`
	Idiom    string `json:"idiom"`
	Scale    string `json:"scale"`
	Size     string `json:"size"`
}

type iconContents struct {
	Images []iconImage `json:"images"`
	Info   struct {
		Author  string `json:"author"`
		Version int    `json:"version"`
	} `json:"info"`
}

// IOS renders every icon size into the AppIcon asset catalog and rewrites
// its Contents.json.
func IOS(ctx context.Context, cfg *config.Config, tree *project.Tree) error {
	settings, err := settingsFor(cfg, plugin.IOS)
	if err != nil {
		return err
	}
	src, err := loadImage(tree, filepath.Join(settings.AppIconPath, iosSource))
	if err != nil {
		return err
	}

	dir := project.AppIconSetPath(cfg)
	contents := iconContents{}
	contents.Info.Author = "xcode"
	contents.Info.Version = 1

	rendered := map[int][]byte{}
	for _, r := range iosRules {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := r.filename()
		contents.Images = append(contents.Images, iconImage{
			Filename: name,
			Idiom:    r.idiom,
			Scale:    strconv.Itoa(r.scale) + "x",
			Size:     r.points() + "x" + r.points(),
		})

		data, ok := rendered[r.pixels()]
		if !ok {
			data, err = encodePNG(resize(src, r.pixels()))
			if err != nil {
				return err
			}
			rendered[r.pixels()] = data
		}
		if err := tree.WriteFile(filepath.Join(dir, name), data); err != nil {
			return err
		}
	}

	out, err := json.MarshalIndent(contents, "", "  ")
	if err != nil {
		return err
	}
	return tree.WriteFile(filepath.Join(dir, "Contents.json"), append(out, '\n'))
}
