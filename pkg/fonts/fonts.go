// Package fonts provides the fonts used to measure and draw text objects.
//
// The Go font family ships with golang.org/x/image, so text renders the
// same on every machine without system fonts. Faces are parsed once and
// cached per size.
package fonts

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Family names a built-in font.
type Family string

// Built-in families.
const (
	Regular Family = "regular"
	Bold    Family = "bold"
	Mono    Family = "mono"
)

// DefaultSize is the text size used when none is given, in points at 72 DPI
// (so one point is one pixel).
const DefaultSize = 16

var sources = map[Family][]byte{
	Regular: goregular.TTF,
	Bold:    gobold.TTF,
	Mono:    gomono.TTF,
}

type faceKey struct {
	family Family
	size   float64
}

var (
	mu     sync.Mutex
	parsed = make(map[Family]*truetype.Font)
	faces  = make(map[faceKey]font.Face)
)

// Families lists the built-in families.
func Families() []Family { return []Family{Regular, Bold, Mono} }

// Font returns the parsed font of a family.
func Font(family Family) (*truetype.Font, error) {
	mu.Lock()
	defer mu.Unlock()
	return parse(family)
}

func parse(family Family) (*truetype.Font, error) {
	if f, ok := parsed[family]; ok {
		return f, nil
	}
	src, ok := sources[family]
	if !ok {
		return nil, fmt.Errorf("unknown font family %q", family)
	}
	f, err := truetype.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse %s font: %w", family, err)
	}
	parsed[family] = f
	return f, nil
}

// Face returns a face of the given family and size. Faces are shared; a
// font.Face is not safe for concurrent use, so callers drawing from several
// goroutines should use NewFace.
func Face(family Family, size float64) (font.Face, error) {
	if size <= 0 {
		size = DefaultSize
	}
	mu.Lock()
	defer mu.Unlock()
	key := faceKey{family, size}
	if f, ok := faces[key]; ok {
		return f, nil
	}
	f, err := parse(family)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	faces[key] = face
	return face, nil
}

// NewFace returns an unshared face.
func NewFace(family Family, size float64) (font.Face, error) {
	if size <= 0 {
		size = DefaultSize
	}
	f, err := Font(family)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
}
