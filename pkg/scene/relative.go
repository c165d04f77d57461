package scene

import (
	"image"

	"github.com/matzehuels/scenebox/pkg/cache"
	"github.com/matzehuels/scenebox/pkg/core/relative"
)

// Relative positions children with relations to each other and to itself,
// and takes the size its children imply. The Relative itself is a valid
// relation target:
//
//	r := scene.NewRelative(scene.Style{}, false)
//	_ = r.AddChild(title, relative.AlignTop(r), relative.CenterHorizontal(r))
//	_ = r.AddChild(body, relative.PlaceBelow(title), relative.AlignLeft(r))
//
// The solved layout is memoized and dropped whenever the relation graph or
// any child changes.
type Relative struct {
	Base
	c      *relative.Container
	layout cache.Memo[*relative.Layout]
}

// NewRelative creates an empty relative container.
func NewRelative(style Style, strict bool) *Relative {
	r := &Relative{}
	r.style = style
	r.layout.AddParent(&r.memo)
	r.c = relative.New(
		relative.WithStrict(strict),
		relative.WithInvalidator(&r.layout),
		relative.WithSelf(r),
	)
	return r
}

// Container exposes the underlying layout container (for inspection).
func (r *Relative) Container() *relative.Container { return r.c }

// AddChild adds o; see [relative.Container.AddChild].
func (r *Relative) AddChild(o Object, opts ...relative.ChildOption) error {
	if err := r.c.AddChild(o, opts...); err != nil {
		return err
	}
	o.Attach(&r.layout)
	return nil
}

// AddConstraint bounds the container size; see
// [relative.Container.AddConstraint].
func (r *Relative) AddConstraint(o Object, rels ...relative.Rel) error {
	return r.c.AddConstraint(o, rels...)
}

// SetOffset moves a child by a pixel offset after its relations apply.
func (r *Relative) SetOffset(o Object, dx, dy int) error {
	return r.c.SetOffset(o, dx, dy)
}

// Strict reports whether out-of-bounds children are pruned.
func (r *Relative) Strict() bool { return r.c.Strict() }

// SetStrict switches strict mode.
func (r *Relative) SetStrict(strict bool) { r.c.SetStrict(strict) }

// Children implements Arranger, in insertion order.
func (r *Relative) Children() []Object {
	items := r.c.Children()
	out := make([]Object, 0, len(items))
	for _, it := range items {
		if o, ok := it.(Object); ok {
			out = append(out, o)
		}
	}
	return out
}

// Arrange implements Arranger. It returns the memoized solved layout.
func (r *Relative) Arrange() (*relative.Layout, error) {
	return r.layout.Get(r.c.SolveLayout)
}

// Size returns the content size, or the layout error.
func (r *Relative) Size() (int, int, error) {
	l, err := r.Arrange()
	if err != nil {
		return 0, 0, err
	}
	return l.Width, l.Height, nil
}

// Width implements Object. An unsolvable layout has zero content size; the
// error surfaces from Render and Arrange.
func (r *Relative) Width() int {
	w, h, _ := r.Size()
	ow, _ := r.outer(w, h)
	return ow
}

// Height implements Object.
func (r *Relative) Height() int {
	w, h, _ := r.Size()
	_, oh := r.outer(w, h)
	return oh
}

// Render implements Object. Pruned children are not drawn.
func (r *Relative) Render() (*image.NRGBA, error) {
	w, h, err := r.Size()
	if err != nil {
		return nil, err
	}
	return r.render(w, h, func() (*image.NRGBA, error) { return renderPlacements(r) })
}
