package scene

import (
	"image"

	"github.com/disintegration/imaging"
)

// Rect is a solid block of color.
type Rect struct {
	Base
	w, h int
	fill Color
}

// NewRect creates a w x h content box filled with fill.
func NewRect(w, h int, fill Color, style Style) *Rect {
	r := &Rect{w: max(w, 0), h: max(h, 0), fill: fill}
	r.style = style
	return r
}

// Width implements Object.
func (r *Rect) Width() int {
	w, _ := r.outer(r.w, r.h)
	return w
}

// Height implements Object.
func (r *Rect) Height() int {
	_, h := r.outer(r.w, r.h)
	return h
}

// Fill returns the fill color.
func (r *Rect) Fill() Color { return r.fill }

// SetFill replaces the fill color.
func (r *Rect) SetFill(c Color) {
	r.fill = c
	r.MarkDirty()
}

// SetSize replaces the content size.
func (r *Rect) SetSize(w, h int) {
	r.w, r.h = max(w, 0), max(h, 0)
	r.MarkDirty()
}

// Render implements Object.
func (r *Rect) Render() (*image.NRGBA, error) {
	return r.render(r.w, r.h, func() (*image.NRGBA, error) {
		return imaging.New(r.w, r.h, r.fill), nil
	})
}

// Spacer takes up space and draws nothing but its style.
type Spacer struct {
	Base
	w, h int
}

// NewSpacer creates an empty w x h object.
func NewSpacer(w, h int) *Spacer {
	return &Spacer{w: max(w, 0), h: max(h, 0)}
}

// Width implements Object.
func (s *Spacer) Width() int {
	w, _ := s.outer(s.w, s.h)
	return w
}

// Height implements Object.
func (s *Spacer) Height() int {
	_, h := s.outer(s.w, s.h)
	return h
}

// Render implements Object.
func (s *Spacer) Render() (*image.NRGBA, error) {
	return s.render(s.w, s.h, nil)
}
