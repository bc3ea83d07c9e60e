package appicon

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"

	kerrors "github.com/go-drift/kernel/pkg/errors"
	"github.com/go-drift/kernel/pkg/project"
)

// cutout masks a square icon with a rounded rectangle and pads it with
// transparent pixels. A radius of half the size yields a circle.
type cutout struct {
	size    int
	radius  int
	padding int
}

func loadImage(tree *project.Tree, path string) (image.Image, error) {
	data, err := tree.ReadSource(path)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, kerrors.Resource("appicon.Decode", fmt.Errorf("%s: %w", path, err))
	}
	return img, nil
}

// resize stretches src to a size x size square.
func resize(src image.Image, size int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func (c cutout) apply(src image.Image) *image.NRGBA {
	body := resize(src, c.size)
	full := c.size + 2*c.padding
	dst := image.NewNRGBA(image.Rect(0, 0, full, full))
	r := image.Rect(c.padding, c.padding, c.padding+c.size, c.padding+c.size)
	xdraw.DrawMask(dst, r, body, image.Point{}, roundedRect{size: c.size, radius: c.radius}, image.Point{}, xdraw.Over)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, kerrors.Resource("appicon.Encode", err)
	}
	return buf.Bytes(), nil
}

// roundedRect is an alpha mask that is opaque inside a size x size square
// with corners of the given radius.
type roundedRect struct {
	size   int
	radius int
}

func (m roundedRect) ColorModel() color.Model {
	return color.Alpha16Model
}

func (m roundedRect) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.size, m.size)
}

func (m roundedRect) At(x, y int) color.Color {
	s, r := float64(m.size), float64(m.radius)
	px, py := float64(x)+0.5, float64(y)+0.5
	dx := px - math.Max(r, math.Min(px, s-r))
	dy := py - math.Max(r, math.Min(py, s-r))
	if dx*dx+dy*dy <= r*r {
		return color.Opaque
	}
	return color.Transparent
}
