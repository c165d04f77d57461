package box

import (
	"fmt"

	"github.com/matzehuels/scenebox/pkg/core/expr"
)

// Point is a symbolic 2D point.
type Point struct {
	X, Y expr.Linear
}

// Pt creates a Point from two expressions.
func Pt(x, y expr.Linear) Point { return Point{X: x, Y: y} }

func (p Point) String() string { return fmt.Sprintf("(%v, %v)", p.X, p.Y) }

// Box is an axis-aligned rectangle spanned by two symbolic points, P1 the
// top-left and P2 the bottom-right corner. Width and height are derived.
//
// Every transform returns a new Box; a Box is never modified in place.
type Box struct {
	P1, P2 Point
}

// OfSize builds the box with top-left corner (x, y) and size w x h.
func OfSize(x, y, w, h expr.Linear) Box {
	return Box{P1: Pt(x, y), P2: Pt(x.Add(w), y.Add(h))}
}

// OfConstSize builds a box at (x, y) with a constant size.
func OfConstSize(x, y expr.Linear, w, h float64) Box {
	return OfSize(x, y, expr.Const(w), expr.Const(h))
}

// X1 is the left edge.
func (b Box) X1() expr.Linear { return b.P1.X }

// Y1 is the top edge.
func (b Box) Y1() expr.Linear { return b.P1.Y }

// X2 is the right edge.
func (b Box) X2() expr.Linear { return b.P2.X }

// Y2 is the bottom edge.
func (b Box) Y2() expr.Linear { return b.P2.Y }

// W is the width x2 - x1.
func (b Box) W() expr.Linear { return b.P2.X.Sub(b.P1.X) }

// H is the height y2 - y1.
func (b Box) H() expr.Linear { return b.P2.Y.Sub(b.P1.Y) }

// moveTo keeps the size and puts the top-left corner at (x, y).
func (b Box) moveTo(x, y expr.Linear) Box { return OfSize(x, y, b.W(), b.H()) }

// Above places b directly above o, keeping b's x.
func (b Box) Above(o Box) Box { return b.moveTo(b.X1(), o.Y1().Sub(b.H())) }

// Below places b directly below o, keeping b's x.
func (b Box) Below(o Box) Box { return b.moveTo(b.X1(), o.Y2()) }

// Left places b directly left of o, keeping b's y.
func (b Box) Left(o Box) Box { return b.moveTo(o.X1().Sub(b.W()), b.Y1()) }

// Right places b directly right of o, keeping b's y.
func (b Box) Right(o Box) Box { return b.moveTo(o.X2(), b.Y1()) }

// AlignTop aligns the top edges.
func (b Box) AlignTop(o Box) Box { return b.moveTo(b.X1(), o.Y1()) }

// AlignBottom aligns the bottom edges.
func (b Box) AlignBottom(o Box) Box { return b.moveTo(b.X1(), o.Y2().Sub(b.H())) }

// AlignLeft aligns the left edges.
func (b Box) AlignLeft(o Box) Box { return b.moveTo(o.X1(), b.Y1()) }

// AlignRight aligns the right edges.
func (b Box) AlignRight(o Box) Box { return b.moveTo(o.X2().Sub(b.W()), b.Y1()) }

// CenterVertical centers b on o along the y axis.
func (b Box) CenterVertical(o Box) Box { return b.moveTo(b.X1(), centered(o.Y1(), o.H(), b.H())) }

// CenterHorizontal centers b on o along the x axis.
func (b Box) CenterHorizontal(o Box) Box { return b.moveTo(centered(o.X1(), o.W(), b.W()), b.Y1()) }

// Center centers b on o along both axes.
func (b Box) Center(o Box) Box {
	return b.moveTo(centered(o.X1(), o.W(), b.W()), centered(o.Y1(), o.H(), b.H()))
}

// centered returns start + (outer - inner) / 2.
func centered(start, outer, inner expr.Linear) expr.Linear {
	return start.Add(outer.Sub(inner).Div(2))
}

// RelativeTo returns b placed against o according to rel.
// Relative and PriorTo return b unchanged.
func (b Box) RelativeTo(o Box, rel Relation) (Box, error) {
	switch rel {
	case Above:
		return b.Above(o), nil
	case Below:
		return b.Below(o), nil
	case Left:
		return b.Left(o), nil
	case Right:
		return b.Right(o), nil
	case AlignTop:
		return b.AlignTop(o), nil
	case AlignBottom:
		return b.AlignBottom(o), nil
	case AlignLeft:
		return b.AlignLeft(o), nil
	case AlignRight:
		return b.AlignRight(o), nil
	case CenterVertical:
		return b.CenterVertical(o), nil
	case CenterHorizontal:
		return b.CenterHorizontal(o), nil
	case Center:
		return b.Center(o), nil
	case Relative, PriorTo:
		return b, nil
	}
	return Box{}, fmt.Errorf("%w: %q", ErrInvalidRelation, string(rel))
}

// Constrain returns the inequality that keeps b on the rel side of o:
//
//	left:  b.x2 <= o.x1
//	right: b.x1 >= o.x2
//	above: b.y2 <= o.y1
//	below: b.y1 >= o.y2
func (b Box) Constrain(o Box, rel Relation) (expr.Inequality, error) {
	switch rel {
	case Left:
		return expr.Less(b.X2(), o.X1()), nil
	case Right:
		return expr.Greater(b.X1(), o.X2()), nil
	case Above:
		return expr.Less(b.Y2(), o.Y1()), nil
	case Below:
		return expr.Greater(b.Y1(), o.Y2()), nil
	}
	return expr.Inequality{}, fmt.Errorf("%w: %q", ErrInvalidConstraint, string(rel))
}

// Offset shifts b by a constant displacement.
func (b Box) Offset(dx, dy float64) Box {
	return b.moveTo(b.X1().AddConst(dx), b.Y1().AddConst(dy))
}

// ContainsSymbol reports whether any coordinate of b references symbol.
func (b Box) ContainsSymbol(symbol string) bool {
	return b.P1.X.ContainsSymbol(symbol) || b.P1.Y.ContainsSymbol(symbol) ||
		b.P2.X.ContainsSymbol(symbol) || b.P2.Y.ContainsSymbol(symbol)
}

// Rect is a box evaluated to numbers.
type Rect struct {
	X1, Y1, X2, Y2 float64
}

// W returns the rectangle width.
func (r Rect) W() float64 { return r.X2 - r.X1 }

// H returns the rectangle height.
func (r Rect) H() float64 { return r.Y2 - r.Y1 }

// Within reports whether r lies inside [0,w] x [0,h].
func (r Rect) Within(w, h float64) bool {
	return r.X1 >= 0 && r.Y1 >= 0 && r.X2 <= w && r.Y2 <= h
}

// Eval evaluates all four coordinates.
func (b Box) Eval(bindings expr.Bindings) (Rect, error) {
	var r Rect
	var err error
	if r.X1, err = b.X1().Eval(bindings); err != nil {
		return Rect{}, err
	}
	if r.Y1, err = b.Y1().Eval(bindings); err != nil {
		return Rect{}, err
	}
	if r.X2, err = b.X2().Eval(bindings); err != nil {
		return Rect{}, err
	}
	if r.Y2, err = b.Y2().Eval(bindings); err != nil {
		return Rect{}, err
	}
	return r, nil
}

func (b Box) String() string { return fmt.Sprintf("Box(%v, %v)", b.P1, b.P2) }
