package scene

import (
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/matzehuels/scenebox/pkg/fonts"
)

// TextStyle selects the font and color of a Text.
type TextStyle struct {
	Family fonts.Family
	Size   float64
	Color  Color
}

// Text draws one or more lines of text. Its content box is the tight
// bounding box of the lines: the widest line by the number of lines times
// the font's line height.
type Text struct {
	Base
	text string
	ts   TextStyle
	face font.Face
}

// NewText creates a text object. Zero TextStyle fields select the regular
// family, the default size and black.
func NewText(text string, ts TextStyle, style Style) (*Text, error) {
	if ts.Family == "" {
		ts.Family = fonts.Regular
	}
	if ts.Size <= 0 {
		ts.Size = fonts.DefaultSize
	}
	if ts.Color == (Color{}) {
		ts.Color = Black
	}
	face, err := fonts.NewFace(ts.Family, ts.Size)
	if err != nil {
		return nil, err
	}
	t := &Text{text: text, ts: ts, face: face}
	t.style = style
	return t, nil
}

// Text returns the string.
func (t *Text) Text() string { return t.text }

// SetText replaces the string.
func (t *Text) SetText(s string) {
	t.text = s
	t.MarkDirty()
}

// SetColor replaces the text color.
func (t *Text) SetColor(c Color) {
	t.ts.Color = c
	t.MarkDirty()
}

func (t *Text) lines() []string { return strings.Split(t.text, "\n") }

func (t *Text) lineHeight() int { return t.face.Metrics().Height.Ceil() }

func (t *Text) size() (int, int) {
	if t.text == "" {
		return 0, 0
	}
	var w float64
	for _, line := range t.lines() {
		w = math.Max(w, float64(font.MeasureString(t.face, line))/64)
	}
	return int(math.Ceil(w)), len(t.lines()) * t.lineHeight()
}

// Width implements Object.
func (t *Text) Width() int {
	w, _ := t.outer(t.size())
	return w
}

// Height implements Object.
func (t *Text) Height() int {
	_, h := t.outer(t.size())
	return h
}

// Render implements Object.
func (t *Text) Render() (*image.NRGBA, error) {
	w, h := t.size()
	return t.render(w, h, func() (*image.NRGBA, error) {
		if w == 0 || h == 0 {
			return nil, nil
		}
		dc := gg.NewContext(w, h)
		dc.SetFontFace(t.face)
		dc.SetColor(t.ts.Color)
		ascent := float64(t.face.Metrics().Ascent.Ceil())
		for i, line := range t.lines() {
			dc.DrawString(line, 0, ascent+float64(i*t.lineHeight()))
		}
		return imaging.Clone(dc.Image()), nil
	})
}
