package scene

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Image displays a raster image.
type Image struct {
	Base
	src *image.NRGBA
}

// NewImage wraps img. The image is copied.
func NewImage(img image.Image, style Style) *Image {
	i := &Image{src: imaging.Clone(img)}
	i.style = style
	return i
}

// LoadImage reads an image file (png, jpeg, gif, bmp or tiff), applying
// EXIF orientation. If w or h is positive the image is resized with Lanczos
// filtering; when only one of them is positive the aspect ratio is kept.
func LoadImage(path string, w, h int, style Style) (*Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	if w > 0 || h > 0 {
		img = imaging.Resize(img, max(w, 0), max(h, 0), imaging.Lanczos)
	}
	return NewImage(img, style), nil
}

func (i *Image) size() (int, int) {
	b := i.src.Bounds()
	return b.Dx(), b.Dy()
}

// Width implements Object.
func (i *Image) Width() int {
	w, _ := i.outer(i.size())
	return w
}

// Height implements Object.
func (i *Image) Height() int {
	_, h := i.outer(i.size())
	return h
}

// Resize scales the image to w x h (see LoadImage for zero sizes).
func (i *Image) Resize(w, h int) {
	i.src = imaging.Resize(i.src, max(w, 0), max(h, 0), imaging.Lanczos)
	i.MarkDirty()
}

// Render implements Object.
func (i *Image) Render() (*image.NRGBA, error) {
	w, h := i.size()
	return i.render(w, h, func() (*image.NRGBA, error) { return i.src, nil })
}
