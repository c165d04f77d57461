// Package composite assembles rendered objects into one raster image and
// encodes the result.
//
// Layers are alpha-composited in order with [imaging.Overlay], so later
// layers are drawn on top. This is how containers draw their children: the
// layer order is the container's draw order.
package composite

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
)

// Layer is an image placed at a pixel offset.
type Layer struct {
	Image image.Image
	X, Y  int
}

// Transparent is the empty canvas color.
var Transparent = color.NRGBA{}

// Compose draws layers onto a transparent w x h canvas. Layers may extend
// past the canvas; the excess is clipped.
func Compose(w, h int, layers ...Layer) *image.NRGBA {
	dst := imaging.New(max(w, 0), max(h, 0), Transparent)
	for _, l := range layers {
		dst = Paste(dst, l.Image, l.X, l.Y)
	}
	return dst
}

// Paste draws src over dst at (x, y) and returns the result.
func Paste(dst *image.NRGBA, src image.Image, x, y int) *image.NRGBA {
	if src == nil || src.Bounds().Empty() {
		return dst
	}
	return imaging.Overlay(dst, src, image.Pt(x, y), 1.0)
}

// Scale resizes img by factor. A factor of 1 (or less than or equal to 0)
// returns img unchanged.
func Scale(img *image.NRGBA, factor float64) *image.NRGBA {
	if factor <= 0 || factor == 1 {
		return img
	}
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * factor))
	h := int(math.Round(float64(b.Dy()) * factor))
	if w == 0 || h == 0 {
		return imaging.New(w, h, Transparent)
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// Flatten composites img over an opaque background, as required by formats
// without an alpha channel.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	return imaging.Overlay(imaging.New(b.Dx(), b.Dy(), bg), img, image.Pt(0, 0), 1.0)
}

// Format is a raster output format.
type Format string

// Supported formats.
const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// ParseFormat accepts png, jpeg and jpg.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	}
	return "", fmt.Errorf("unsupported image format %q", s)
}

// DefaultJPEGQuality is used when quality is 0.
const DefaultJPEGQuality = 90

// Encode writes img in the given format. JPEG output is flattened onto white
// first; quality applies to JPEG only.
func Encode(w io.Writer, img image.Image, format Format, quality int) error {
	switch format {
	case PNG:
		return imaging.Encode(w, img, imaging.PNG)
	case JPEG:
		if quality <= 0 {
			quality = DefaultJPEGQuality
		}
		return imaging.Encode(w, Flatten(img, color.White), imaging.JPEG, imaging.JPEGQuality(quality))
	}
	return fmt.Errorf("unsupported image format %q", format)
}
