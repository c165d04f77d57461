package scene

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColor is returned for colors that are neither a palette name nor
// a #rgb, #rrggbb or #rrggbbaa hex string.
var ErrInvalidColor = errors.New("invalid color")

// Color is a non-premultiplied RGBA color. It implements color.Color.
type Color struct {
	R, G, B, A uint8
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color { return Color{r, g, b, 255} }

// RGBA returns the color implementing color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}.RGBA()
}

// NRGBA converts to the standard library type.
func (c Color) NRGBA() color.NRGBA { return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

// WithAlpha returns c with opacity a in [0, 1].
func (c Color) WithAlpha(a float64) Color {
	a = min(max(a, 0), 1)
	c.A = uint8(a*255 + 0.5)
	return c
}

// Transparent reports whether c is fully transparent.
func (c Color) Transparent() bool { return c.A == 0 }

// Hex returns #RRGGBB, or #RRGGBBAA for translucent colors.
func (c Color) Hex() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

func (c Color) String() string { return c.Hex() }

// Blend mixes c and o in CIE-L*a*b* space; t=0 is c and t=1 is o. Alpha is
// interpolated linearly.
func (c Color) Blend(o Color, t float64) Color {
	a := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	b := colorful.Color{R: float64(o.R) / 255, G: float64(o.G) / 255, B: float64(o.B) / 255}
	r, g, bl := a.BlendLab(b, t).Clamped().RGB255()
	return Color{r, g, bl, uint8(float64(c.A) + (float64(o.A)-float64(c.A))*t + 0.5)}
}

// MarshalText encodes the color as hex.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

// UnmarshalText parses a palette name or hex string.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Named colors.
var (
	Transparent = Color{255, 255, 255, 0}
	Black       = RGB(0, 0, 0)
	Silver      = RGB(192, 192, 192)
	Gray        = RGB(128, 128, 128)
	White       = RGB(255, 255, 255)
	Red         = RGB(255, 0, 0)
	Purple      = RGB(128, 0, 128)
	Fuchsia     = RGB(255, 0, 255)
	Green       = RGB(0, 255, 0)
	Olive       = RGB(128, 128, 0)
	Yellow      = RGB(255, 255, 0)
	Navy        = RGB(0, 0, 128)
	Blue        = RGB(0, 0, 255)
	Teal        = RGB(0, 128, 128)
	Aqua        = RGB(0, 255, 255)
	Orange      = RGB(255, 165, 0)
)

var palette = map[string]Color{
	"transparent": Transparent,
	"black":       Black,
	"silver":      Silver,
	"gray":        Gray,
	"grey":        Gray,
	"white":       White,
	"red":         Red,
	"purple":      Purple,
	"fuchsia":     Fuchsia,
	"green":       Green,
	"lime":        Green,
	"olive":       Olive,
	"yellow":      Yellow,
	"navy":        Navy,
	"blue":        Blue,
	"teal":        Teal,
	"aqua":        Aqua,
	"orange":      Orange,
}

// PaletteNames returns the names accepted by ParseColor, sorted.
func PaletteNames() []string {
	names := make([]string, 0, len(palette))
	for n := range palette {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseColor parses a palette name (case-insensitive) or a hex color in one
// of the forms #rgb, #rrggbb and #rrggbbaa.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := palette[s]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	alpha := uint8(255)
	switch len(hex) {
	case 6:
	case 8:
		a, err := strconv.ParseUint(hex[6:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		alpha = uint8(a)
		hex = hex[:6]
	default:
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	cf, err := colorful.Hex("#" + hex)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	r, g, b := cf.RGB255()
	return Color{r, g, b, alpha}, nil
}
