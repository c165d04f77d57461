package scene

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/scenebox/pkg/cache"
	"github.com/matzehuels/scenebox/pkg/core/relative"
	"github.com/matzehuels/scenebox/pkg/render/composite"
)

// Object is anything that can be placed in a scene.
//
// Width and Height include the whole box model. Render returns an image of
// exactly that size. Rendered images are memoized and must not be modified.
type Object interface {
	relative.Item
	Render() (*image.NRGBA, error)
	Style() Style
	// Attach registers parent to be marked dirty whenever the object changes.
	Attach(parent cache.Dirtier)
}

// Arranger is an Object that positions child objects.
type Arranger interface {
	Object
	Children() []Object
	// Arrange returns the child placements relative to the content box.
	Arrange() (*relative.Layout, error)
}

// Base carries the style and the render memo of an object. Concrete objects
// embed it and call render with their content size.
type Base struct {
	style Style
	memo  cache.Memo[*image.NRGBA]
}

// Style returns the object style.
func (b *Base) Style() Style { return b.style }

// SetStyle replaces the style.
func (b *Base) SetStyle(s Style) {
	b.style = s
	b.memo.MarkDirty()
}

// SetBackground replaces the background color.
func (b *Base) SetBackground(c Color) {
	b.style.Background = c
	b.memo.MarkDirty()
}

// SetBorder replaces the border.
func (b *Base) SetBorder(border Border) {
	b.style.Border = border
	b.memo.MarkDirty()
}

// SetMargin replaces the margin.
func (b *Base) SetMargin(s Space) {
	b.style.Margin = s
	b.memo.MarkDirty()
}

// SetPadding replaces the padding.
func (b *Base) SetPadding(s Space) {
	b.style.Padding = s
	b.memo.MarkDirty()
}

// Attach implements Object.
func (b *Base) Attach(parent cache.Dirtier) { b.memo.AddParent(parent) }

// MarkDirty drops the rendered image and notifies parents.
func (b *Base) MarkDirty() { b.memo.MarkDirty() }

// RenderStats reports render memo hits and misses.
func (b *Base) RenderStats() (hits, misses int) { return b.memo.Stats() }

func (b *Base) outer(cw, ch int) (int, int) { return b.style.OuterSize(cw, ch) }

// render memoizes decorate.
func (b *Base) render(cw, ch int, content func() (*image.NRGBA, error)) (*image.NRGBA, error) {
	return b.memo.Get(func() (*image.NRGBA, error) {
		return b.style.decorate(cw, ch, content)
	})
}

// decorate draws the box model around the content: background in the
// padding box, then the content, then the border.
func (s Style) decorate(cw, ch int, content func() (*image.NRGBA, error)) (*image.NRGBA, error) {
	w, h := s.OuterSize(cw, ch)
	var img *image.NRGBA
	if content != nil {
		var err error
		if img, err = content(); err != nil {
			return nil, err
		}
	}
	if w <= 0 || h <= 0 {
		return composite.Compose(w, h), nil
	}
	plain := s.Background.Transparent() && (s.Border.Width == 0 || s.Border.Color.Transparent())
	if plain {
		o := s.ContentOrigin()
		return composite.Compose(w, h, composite.Layer{Image: img, X: o.X, Y: o.Y}), nil
	}

	dc := gg.NewContext(w, h)
	pb := s.PaddingBox(cw, ch)
	if !s.Background.Transparent() {
		dc.SetColor(s.Background)
		dc.DrawRectangle(float64(pb.Min.X), float64(pb.Min.Y), float64(pb.Dx()), float64(pb.Dy()))
		dc.Fill()
	}
	if img != nil {
		o := s.ContentOrigin()
		dc.DrawImage(img, o.X, o.Y)
	}
	if bw := s.Border.Width; bw > 0 && !s.Border.Color.Transparent() {
		bb := s.BorderBox(cw, ch)
		half := float64(bw) / 2
		dc.SetColor(s.Border.Color)
		dc.SetLineWidth(float64(bw))
		dc.DrawRectangle(float64(bb.Min.X)+half, float64(bb.Min.Y)+half, float64(bb.Dx()-bw), float64(bb.Dy()-bw))
		dc.Stroke()
	}
	return imaging.Clone(dc.Image()), nil
}
