package scene

import "image"

// Space is a margin or padding, in pixels per side.
type Space struct {
	Left, Right, Top, Bottom int
}

// All returns the same space on every side.
func All(n int) Space { return Space{n, n, n, n} }

// Sides returns h on the left and right and v on the top and bottom.
func Sides(h, v int) Space { return Space{h, h, v, v} }

// Width is Left + Right.
func (s Space) Width() int { return s.Left + s.Right }

// Height is Top + Bottom.
func (s Space) Height() int { return s.Top + s.Bottom }

// Border is a solid outline drawn around the padding box.
type Border struct {
	Width int
	Color Color
}

// Style is the box model shared by every object:
//
//	margin -> border -> padding -> content
//
// The background fills the padding box (content plus padding). The border
// surrounds it, and the margin stays transparent.
type Style struct {
	Margin     Space
	Padding    Space
	Border     Border
	Background Color
}

// OuterSize returns the full object size for a content size.
func (s Style) OuterSize(cw, ch int) (int, int) {
	return cw + s.Padding.Width() + s.Margin.Width() + 2*s.Border.Width,
		ch + s.Padding.Height() + s.Margin.Height() + 2*s.Border.Width
}

// BorderBox returns the rectangle inside the margin.
func (s Style) BorderBox(cw, ch int) image.Rectangle {
	return image.Rect(0, 0, cw+s.Padding.Width()+2*s.Border.Width, ch+s.Padding.Height()+2*s.Border.Width).
		Add(image.Pt(s.Margin.Left, s.Margin.Top))
}

// PaddingBox returns the rectangle inside the border.
func (s Style) PaddingBox(cw, ch int) image.Rectangle {
	return image.Rect(0, 0, cw+s.Padding.Width(), ch+s.Padding.Height()).
		Add(image.Pt(s.Margin.Left+s.Border.Width, s.Margin.Top+s.Border.Width))
}

// ContentOrigin is the top-left corner of the content box.
func (s Style) ContentOrigin() image.Point {
	return image.Pt(s.Margin.Left+s.Border.Width+s.Padding.Left, s.Margin.Top+s.Border.Width+s.Padding.Top)
}
