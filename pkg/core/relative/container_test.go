package relative

import (
	"errors"
	"reflect"
	"testing"

	"github.com/matzehuels/scenebox/pkg/core/box"
	"github.com/matzehuels/scenebox/pkg/core/dag"
)

type rect struct {
	name string
	w, h int
}

func (r *rect) Width() int  { return r.w }
func (r *rect) Height() int { return r.h }

func newRect(name string, w, h int) *rect { return &rect{name: name, w: w, h: h} }

// valueItem is a comparable struct type whose field can hold an
// uncomparable value.
type valueItem struct{ v any }

func (valueItem) Width() int  { return 1 }
func (valueItem) Height() int { return 1 }

type counter struct{ n int }

func (c *counter) MarkDirty() { c.n++ }

func mustAdd(t *testing.T, c *Container, it Item, opts ...ChildOption) {
	t.Helper()
	if err := c.AddChild(it, opts...); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
}

func mustSolve(t *testing.T, c *Container) *Layout {
	t.Helper()
	l, err := c.SolveLayout()
	if err != nil {
		t.Fatalf("SolveLayout: %v", err)
	}
	return l
}

func assertPos(t *testing.T, l *Layout, it *rect, x, y int) {
	t.Helper()
	gx, gy, ok := l.Position(it)
	if !ok {
		t.Errorf("%s: no placement", it.name)
		return
	}
	if gx != x || gy != y {
		t.Errorf("%s at (%d, %d), want (%d, %d)", it.name, gx, gy, x, y)
	}
}

func TestInferSizeRightOf(t *testing.T) {
	c := New()
	a, b := newRect("a", 10, 10), newRect("b", 20, 20)
	mustAdd(t, c, a, AlignLeft(c), AlignTop(c))
	mustAdd(t, c, b, PlaceRight(a))

	w, h, err := c.InferSize()
	if err != nil {
		t.Fatal(err)
	}
	if w != 30 || h != 20 {
		t.Errorf("InferSize = (%d, %d), want (30, 20)", w, h)
	}
	if c.Width() != 30 || c.Height() != 20 {
		t.Errorf("Width/Height = %d/%d", c.Width(), c.Height())
	}

	l := mustSolve(t, c)
	assertPos(t, l, a, 0, 0)
	assertPos(t, l, b, 10, 0)
}

func TestEmptyContainer(t *testing.T) {
	c := New()
	w, h, err := c.InferSize()
	if err != nil || w != 0 || h != 0 {
		t.Errorf("InferSize = (%d, %d, %v), want (0, 0, nil)", w, h, err)
	}
	l := mustSolve(t, c)
	if l.Width != 0 || l.Height != 0 || len(l.Placements) != 0 {
		t.Errorf("empty layout = %+v", l)
	}
}

func TestUnresolvedPosition(t *testing.T) {
	tests := []struct {
		name string
		rels []box.Relation
	}{
		{"no relations", nil},
		{"x only", []box.Relation{box.AlignLeft}},
		{"y only", []box.Relation{box.Below}},
		{"prior_to only", []box.Relation{box.PriorTo}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			anchor := newRect("anchor", 10, 10)
			mustAdd(t, c, anchor, AlignLeft(c), AlignTop(c))

			var rels []Rel
			for _, k := range tt.rels {
				rels = append(rels, To(k, c))
			}
			lost := newRect("lost", 5, 5)
			mustAdd(t, c, lost, With(rels...))

			_, _, err := c.InferSize()
			if !errors.Is(err, ErrUnresolvedPosition) {
				t.Fatalf("err = %v, want ErrUnresolvedPosition", err)
			}
			var upe *UnresolvedPositionError
			if !errors.As(err, &upe) || upe.Item != Item(lost) {
				t.Errorf("error does not name the node: %v", err)
			}
		})
	}
}

func TestUnresolvedTargetNeverAdded(t *testing.T) {
	c := New()
	ghost := newRect("ghost", 10, 10)
	a := newRect("a", 10, 10)
	mustAdd(t, c, a, PlaceRight(ghost), AlignTop(c))
	if _, err := c.SolveLayout(); !errors.Is(err, ErrUnresolvedPosition) {
		t.Errorf("err = %v, want ErrUnresolvedPosition", err)
	}
}

func TestCycleDetection(t *testing.T) {
	c := New()
	a, b := newRect("a", 10, 10), newRect("b", 10, 10)
	mustAdd(t, c, a, PlaceRight(b))
	mustAdd(t, c, b, PlaceRight(a))

	_, err := c.SolveLayout()
	if !errors.Is(err, dag.ErrGraphHasCycle) {
		t.Fatalf("err = %v, want ErrGraphHasCycle", err)
	}
	var ce *dag.CycleError
	if !errors.As(err, &ce) || len(ce.Unresolved) != 2 {
		t.Errorf("cycle error = %v", err)
	}
}

func outOfCanvas(strict bool) (*Container, *rect, *rect, *rect) {
	red, green, blue := newRect("red", 100, 100), newRect("green", 300, 300), newRect("blue", 50, 50)
	c := New(WithStrict(strict))
	_ = c.AddChild(red, AlignLeft(c), AlignTop(c))
	_ = c.AddChild(green, PlaceRight(red), PlaceBelow(red))
	_ = c.AddChild(blue, PlaceLeft(red), PlaceAbove(red))
	return c, red, green, blue
}

func TestStrictPruning(t *testing.T) {
	t.Run("non-strict", func(t *testing.T) {
		c, red, green, blue := outOfCanvas(false)
		l := mustSolve(t, c)
		if l.Width != 450 || l.Height != 450 {
			t.Errorf("size = %dx%d, want 450x450", l.Width, l.Height)
		}
		assertPos(t, l, blue, 0, 0)
		assertPos(t, l, red, 50, 50)
		assertPos(t, l, green, 150, 150)
		if len(l.Pruned) != 0 {
			t.Errorf("Pruned = %v, want none", l.Pruned)
		}
	})

	t.Run("strict", func(t *testing.T) {
		c, red, green, blue := outOfCanvas(true)
		l := mustSolve(t, c)
		if l.Width != 400 || l.Height != 400 {
			t.Errorf("size = %dx%d, want 400x400", l.Width, l.Height)
		}
		assertPos(t, l, red, 0, 0)
		assertPos(t, l, green, 100, 100)
		if _, _, ok := l.Position(blue); ok {
			t.Error("pruned child was placed")
		}
		if len(l.Pruned) != 1 || l.Pruned[0] != Item(blue) {
			t.Errorf("Pruned = %v, want [blue]", l.Pruned)
		}
	})

	t.Run("reproducible", func(t *testing.T) {
		for _, strict := range []bool{false, true} {
			c, _, _, _ := outOfCanvas(strict)
			first := mustSolve(t, c)
			second := mustSolve(t, c)
			if !reflect.DeepEqual(first, second) {
				t.Errorf("strict=%v: layouts differ between solves", strict)
			}
		}
	})
}

func TestConstraintResolvesSize(t *testing.T) {
	red, green := newRect("red", 100, 100), newRect("green", 300, 300)
	c := New()
	mustAdd(t, c, red, AlignLeft(c), AlignTop(c))
	mustAdd(t, c, green, AlignRight(c), AlignBottom(c))

	if _, _, err := c.InferSize(); !errors.Is(err, ErrUnresolvableSize) {
		t.Fatalf("err = %v, want ErrUnresolvableSize", err)
	}
	if c.Width() != 0 {
		t.Errorf("Width of unresolvable container = %d, want 0", c.Width())
	}

	if err := c.AddConstraint(red, To(box.Left, green), To(box.Above, green)); err != nil {
		t.Fatal(err)
	}
	l := mustSolve(t, c)
	if l.Width != 400 || l.Height != 400 {
		t.Errorf("size = %dx%d, want 400x400", l.Width, l.Height)
	}
	assertPos(t, l, red, 0, 0)
	assertPos(t, l, green, 100, 100)
}

func TestConstraintErrors(t *testing.T) {
	c := New()
	a, b := newRect("a", 10, 10), newRect("b", 10, 10)
	mustAdd(t, c, a, AlignLeft(c), AlignTop(c))

	if err := c.AddConstraint(a, To(box.Left, b)); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("unknown target: err = %v, want ErrUnknownNode", err)
	}
	if err := c.AddConstraint(b, To(box.Left, a)); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("unknown source: err = %v, want ErrUnknownNode", err)
	}
	if err := c.AddConstraint(a, To(box.Center, c)); !errors.Is(err, box.ErrInvalidConstraint) {
		t.Errorf("center: err = %v, want ErrInvalidConstraint", err)
	}
	if err := c.AddConstraint(a, To(box.Left, c)); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("container target: err = %v, want ErrUnknownNode", err)
	}
	if err := c.AddConstraint(c, To(box.Left, a)); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("container source: err = %v, want ErrUnknownNode", err)
	}
	if _, ok := c.ID(valueItem{v: []int{1}}); ok {
		t.Error("ID of an uncomparable value reported ok")
	}
}

func TestAddChildErrors(t *testing.T) {
	c := New()
	a := newRect("a", 10, 10)
	mustAdd(t, c, a, AlignLeft(c), AlignTop(c))

	tests := []struct {
		name string
		it   Item
		opts []ChildOption
		want error
	}{
		{"duplicate", a, []ChildOption{AlignLeft(c)}, ErrDuplicateChild},
		{"nil", nil, nil, ErrInvalidItem},
		{"container", c, nil, ErrInvalidItem},
		{"self", newRect("s", 1, 1), nil, ErrInvalidItem},
		{"uncomparable value", valueItem{v: []int{1}}, []ChildOption{AlignLeft(c)}, ErrInvalidItem},
		{"uncomparable target", newRect("u", 1, 1), []ChildOption{PlaceBelow(valueItem{v: map[string]int{}})}, ErrInvalidItem},
		{"bad relation", newRect("r", 1, 1), []ChildOption{With(To("beside", c))}, box.ErrInvalidRelation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			if tt.name == "self" {
				opts = []ChildOption{PlaceRight(tt.it)}
			}
			if err := c.AddChild(tt.it, opts...); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d after failed adds, want 1", c.Len())
	}
}

func TestOffset(t *testing.T) {
	c := New()
	a, b := newRect("a", 10, 10), newRect("b", 10, 10)
	mustAdd(t, c, a, AlignLeft(c), AlignTop(c))
	mustAdd(t, c, b, RelativeTo(a), Offset(5, 7))

	l := mustSolve(t, c)
	if l.Width != 15 || l.Height != 17 {
		t.Errorf("size = %dx%d, want 15x17", l.Width, l.Height)
	}
	assertPos(t, l, b, 5, 7)

	if err := c.SetOffset(b, 20, 0); err != nil {
		t.Fatal(err)
	}
	l = mustSolve(t, c)
	if l.Width != 30 || l.Height != 10 {
		t.Errorf("size after SetOffset = %dx%d, want 30x10", l.Width, l.Height)
	}
	if err := c.SetOffset(newRect("x", 1, 1), 1, 1); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("SetOffset unknown: err = %v", err)
	}
}

func TestCenteredChildren(t *testing.T) {
	c := New()
	small, big := newRect("small", 10, 10), newRect("big", 30, 30)
	mustAdd(t, c, small, Center(c))
	mustAdd(t, c, big, Center(c))

	l := mustSolve(t, c)
	if l.Width != 30 || l.Height != 30 {
		t.Errorf("size = %dx%d, want 30x30", l.Width, l.Height)
	}
	assertPos(t, l, big, 0, 0)
	assertPos(t, l, small, 10, 10)
}

func TestRoundHalfToEven(t *testing.T) {
	c := New()
	a, b := newRect("a", 10, 10), newRect("b", 11, 11)
	mustAdd(t, c, a, Center(c))
	mustAdd(t, c, b, Center(c))

	l := mustSolve(t, c)
	if l.Width != 11 || l.Height != 11 {
		t.Errorf("size = %dx%d, want 11x11", l.Width, l.Height)
	}
	// a sits at 0.5, which rounds to 0.
	assertPos(t, l, a, 0, 0)
}

func TestDrawOrderPriorTo(t *testing.T) {
	order := func(prior bool) []string {
		c := New()
		black, yellow := newRect("black", 30, 30), newRect("yellow", 40, 40)
		opts := []ChildOption{AlignTop(c), AlignLeft(c)}
		if prior {
			opts = append(opts, PriorTo(yellow))
		}
		mustAdd(t, c, black, opts...)
		mustAdd(t, c, yellow, AlignTop(c), AlignLeft(c))
		var names []string
		for _, p := range mustSolve(t, c).Placements {
			names = append(names, p.Item.(*rect).name)
		}
		return names
	}

	if got := order(false); !reflect.DeepEqual(got, []string{"black", "yellow"}) {
		t.Errorf("without prior_to: %v", got)
	}
	if got := order(true); !reflect.DeepEqual(got, []string{"yellow", "black"}) {
		t.Errorf("with prior_to: %v", got)
	}
}

func TestNestedContainer(t *testing.T) {
	inner := New()
	a, b := newRect("a", 10, 10), newRect("b", 20, 20)
	mustAdd(t, inner, a, AlignLeft(inner), AlignTop(inner))
	mustAdd(t, inner, b, PlaceBelow(a))

	outer := New()
	side := newRect("side", 5, 5)
	mustAdd(t, outer, inner, AlignLeft(outer), AlignTop(outer))
	mustAdd(t, outer, side, PlaceRight(inner), AlignTop(outer))

	w, h, err := outer.InferSize()
	if err != nil {
		t.Fatal(err)
	}
	if w != 25 || h != 30 {
		t.Errorf("outer = %dx%d, want 25x30", w, h)
	}
}

func TestInvalidator(t *testing.T) {
	var dirty counter
	c := New(WithInvalidator(&dirty))
	a, b := newRect("a", 10, 10), newRect("b", 10, 10)

	mustAdd(t, c, a, AlignLeft(c), AlignTop(c))
	mustAdd(t, c, b, PlaceBelow(a), AlignLeft(c))
	_ = c.AddConstraint(a, To(box.Above, b))
	_ = c.SetOffset(b, 1, 1)
	c.SetStrict(true)
	c.SetStrict(true)

	if dirty.n != 5 {
		t.Errorf("MarkDirty called %d times, want 5", dirty.n)
	}
	if _, err := c.SolveLayout(); err != nil {
		t.Fatal(err)
	}
	if dirty.n != 5 {
		t.Error("solving must not mark the container dirty")
	}
}

func TestBoxesAreSymbolic(t *testing.T) {
	c := New()
	a := newRect("a", 10, 10)
	mustAdd(t, c, a, AlignRight(c), AlignTop(c))

	boxes, order, err := c.Boxes()
	if err != nil {
		t.Fatal(err)
	}
	id, _ := c.ID(a)
	if len(order) != 1 || order[0] != id {
		t.Fatalf("order = %v", order)
	}
	if got := boxes[id].X1().String(); got != "-10 + w + x" {
		t.Errorf("X1 = %q", got)
	}
}

func TestWithSelf(t *testing.T) {
	outer := newRect("outer", 0, 0)
	c := New(WithSelf(outer))
	a := newRect("a", 10, 10)
	mustAdd(t, c, a, AlignLeft(outer), AlignTop(outer))

	if id, _ := c.ID(outer); id != Root {
		t.Errorf("alias id = %d, want Root", id)
	}
	if w, h, err := c.InferSize(); err != nil || w != 10 || h != 10 {
		t.Errorf("InferSize = %d, %d, %v", w, h, err)
	}
	if err := c.AddChild(outer); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("adding the alias as child: err = %v, want ErrInvalidItem", err)
	}
}
