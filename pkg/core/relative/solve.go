package relative

import (
	"fmt"
	"math"

	"github.com/matzehuels/scenebox/pkg/core/box"
	"github.com/matzehuels/scenebox/pkg/core/dag"
	"github.com/matzehuels/scenebox/pkg/core/expr"
)

// Symbols of the container box. Child coordinates are expressions over them.
const (
	SymX = "x"
	SymY = "y"
	SymW = "w"
	SymH = "h"

	symUndef = "undef"
)

// ContainerBox returns the symbolic box of the container, OfSize(x, y, w, h).
func ContainerBox() box.Box {
	return box.OfSize(expr.Var(SymX), expr.Var(SymY), expr.Var(SymW), expr.Var(SymH))
}

// Placement is the final position of one child, in container pixels.
type Placement struct {
	ID     dag.NodeID
	Item   Item
	X, Y   int
	Width  int
	Height int
}

// Layout is the result of [Container.SolveLayout].
type Layout struct {
	Width, Height int
	// Placements are in draw order: every child follows the children it is
	// placed against.
	Placements []Placement
	// Pruned lists children discarded in strict mode. They have no placement.
	Pruned []Item
	// Bindings are the values of x, y, w and h used for evaluation.
	Bindings expr.Bindings
}

// Position returns the placement of it.
func (l *Layout) Position(it Item) (x, y int, ok bool) {
	for _, p := range l.Placements {
		if p.Item == it {
			return p.X, p.Y, true
		}
	}
	return 0, 0, false
}

// Positions returns every placement keyed by item.
func (l *Layout) Positions() map[Item][2]int {
	m := make(map[Item][2]int, len(l.Placements))
	for _, p := range l.Placements {
		m[p.Item] = [2]int{p.X, p.Y}
	}
	return m
}

// solution is the solved container size and origin.
type solution struct {
	x, y, w, h float64
	kept       []dag.NodeID
	pruned     []dag.NodeID
}

func (s solution) bindings() expr.Bindings {
	return expr.Bindings{SymX: s.x, SymY: s.y, SymW: s.w, SymH: s.h}
}

// Boxes computes the symbolic box of every child from the current relation
// graph. The returned order is the topological (draw) order.
//
// Each child starts at an undefined position with its intrinsic size; the
// relations of its incoming edges are folded in the order they were added, so
// the last relation touching a coordinate wins. A child whose x or y is still
// undefined afterwards fails with *UnresolvedPositionError. Offsets are
// applied last.
func (c *Container) Boxes() (map[dag.NodeID]box.Box, []dag.NodeID, error) {
	order, err := c.graph.TopologicalSort()
	if err != nil {
		return nil, nil, fmt.Errorf("order children: %w", err)
	}

	undef := expr.Var(symUndef)
	boxes := map[dag.NodeID]box.Box{Root: ContainerBox()}
	placed := make([]dag.NodeID, 0, len(order))
	for _, id := range order {
		if id == Root {
			continue
		}
		it := c.items[id]
		b := box.OfConstSize(undef, undef, float64(it.Width()), float64(it.Height()))
		for _, e := range c.graph.InEdges(id) {
			if b, err = b.RelativeTo(boxes[e.From], e.Label); err != nil {
				return nil, nil, fmt.Errorf("node %d: %w", id, err)
			}
		}
		if b.X1().ContainsSymbol(symUndef) || b.Y1().ContainsSymbol(symUndef) {
			return nil, nil, &UnresolvedPositionError{
				Node: id,
				Item: it,
				X:    b.X1().String(),
				Y:    b.Y1().String(),
			}
		}
		o := c.offsets[id]
		boxes[id] = b.Offset(o.dx, o.dy)
		placed = append(placed, id)
	}
	delete(boxes, Root)
	return boxes, placed, nil
}

// InferSize returns the container size implied by its children.
//
// The width spans from the leftmost child edge to the rightmost one and the
// height likewise. When an extent still depends on the unknown size (for
// example a child aligned to the container's right edge), registered
// constraints are used to derive a lower bound for it. Constraints only ever
// provide lower bounds; upper bounds and infeasible constraint sets are not
// detected. If either dimension stays unresolved, ErrUnresolvableSize is
// returned.
//
// In strict mode children partially outside the inferred bounds are dropped
// and the size is inferred again until nothing changes.
//
// An empty container has size 0 x 0.
func (c *Container) InferSize() (int, int, error) {
	if len(c.children) == 0 {
		return 0, 0, nil
	}
	boxes, order, err := c.Boxes()
	if err != nil {
		return 0, 0, err
	}
	s, err := c.solve(boxes, order)
	if err != nil {
		return 0, 0, err
	}
	return round(s.w), round(s.h), nil
}

// SolveLayout computes the container size and the pixel position of every
// child. Positions are shifted so the top-left most child edge is at 0.
func (c *Container) SolveLayout() (*Layout, error) {
	if len(c.children) == 0 {
		return &Layout{Bindings: expr.Bindings{SymX: 0, SymY: 0, SymW: 0, SymH: 0}}, nil
	}
	boxes, order, err := c.Boxes()
	if err != nil {
		return nil, err
	}
	s, err := c.solve(boxes, order)
	if err != nil {
		return nil, err
	}

	bindings := s.bindings()
	l := &Layout{
		Width:      round(s.w),
		Height:     round(s.h),
		Placements: make([]Placement, 0, len(s.kept)),
		Bindings:   bindings,
	}
	for _, id := range s.kept {
		r, err := boxes[id].Eval(bindings)
		if err != nil {
			return nil, fmt.Errorf("evaluate node %d: %w", id, err)
		}
		it := c.items[id]
		l.Placements = append(l.Placements, Placement{
			ID:     id,
			Item:   it,
			X:      round(r.X1),
			Y:      round(r.Y1),
			Width:  it.Width(),
			Height: it.Height(),
		})
	}
	for _, id := range s.pruned {
		l.Pruned = append(l.Pruned, c.items[id])
	}
	return l, nil
}

// solve infers the size of the kept boxes. In strict mode it repeatedly
// drops boxes outside [0,w] x [0,h]; every round either removes at least one
// box or stops, so it runs at most len(order)+1 rounds.
func (c *Container) solve(boxes map[dag.NodeID]box.Box, order []dag.NodeID) (solution, error) {
	kept := order
	var pruned []dag.NodeID
	for range len(order) + 1 {
		if len(kept) == 0 {
			return solution{}, fmt.Errorf("%w: every child was pruned", ErrUnresolvableSize)
		}
		w, h, err := c.extent(boxes, kept)
		if err != nil {
			return solution{}, err
		}
		if !c.strict {
			return c.origin(boxes, kept, pruned, w, h)
		}

		at := expr.Bindings{SymX: 0, SymY: 0, SymW: w, SymH: h}
		inside := make([]dag.NodeID, 0, len(kept))
		for _, id := range kept {
			r, err := boxes[id].Eval(at)
			if err != nil {
				return solution{}, fmt.Errorf("evaluate node %d: %w", id, err)
			}
			if r.Within(w, h) {
				inside = append(inside, id)
			} else {
				pruned = append(pruned, id)
			}
		}
		if len(inside) == len(kept) {
			return c.origin(boxes, kept, pruned, w, h)
		}
		kept = inside
	}
	return solution{}, fmt.Errorf("%w: strict pruning did not converge", ErrUnresolvableSize)
}

// extent derives width and height from the extreme child edges, then applies
// constraints to dimensions that are still symbolic.
func (c *Container) extent(boxes map[dag.NodeID]box.Box, kept []dag.NodeID) (float64, float64, error) {
	var x1, x2, y1, y2 []expr.Linear
	for _, id := range kept {
		b := boxes[id]
		x1 = append(x1, b.X1())
		x2 = append(x2, b.X2())
		y1 = append(y1, b.Y1())
		y2 = append(y2, b.Y2())
	}

	// Edges independent of the unknown size are preferred for the minimum,
	// size-dependent ones for the maximum.
	x1Fixed, x1Var := partition(x1, SymW)
	y1Fixed, y1Var := partition(y1, SymH)
	x2Fixed, x2Var := partition(x2, SymW)
	y2Fixed, y2Var := partition(y2, SymH)

	width := maximum(prefer(x2Var, x2Fixed)).Sub(minimum(prefer(x1Fixed, x1Var)))
	height := maximum(prefer(y2Var, y2Fixed)).Sub(minimum(prefer(y1Fixed, y1Var)))

	w, h := -1.0, -1.0
	if width.IsConst() {
		w = width.Constant()
	}
	if height.IsConst() {
		h = height.Constant()
	}

	// Constraints against pruned children no longer apply.
	live := dag.PosMap(kept)
	for _, ct := range c.constraints {
		_, fromLive := live[ct.from]
		_, toLive := live[ct.to]
		if !fromLive || !toLive {
			continue
		}
		q, err := boxes[ct.from].Constrain(boxes[ct.to], ct.kind)
		if err != nil {
			return 0, 0, err
		}
		if !q.Solvable() {
			continue
		}
		bound, err := q.Solve()
		if err != nil || !bound.Lower {
			continue
		}
		switch bound.Var {
		case SymW:
			w = math.Max(w, bound.Value)
		case SymH:
			h = math.Max(h, bound.Value)
		}
	}

	if w < 0 || h < 0 {
		return 0, 0, fmt.Errorf("%w: w=%s, h=%s", ErrUnresolvableSize, width, height)
	}
	return w, h, nil
}

// origin shifts the container origin so the smallest evaluated child
// coordinate lands on 0.
func (c *Container) origin(boxes map[dag.NodeID]box.Box, kept, pruned []dag.NodeID, w, h float64) (solution, error) {
	at := expr.Bindings{SymX: 0, SymY: 0, SymW: w, SymH: h}
	minX, minY := math.Inf(1), math.Inf(1)
	for _, id := range kept {
		r, err := boxes[id].Eval(at)
		if err != nil {
			return solution{}, fmt.Errorf("evaluate node %d: %w", id, err)
		}
		minX = math.Min(minX, math.Min(r.X1, r.X2))
		minY = math.Min(minY, math.Min(r.Y1, r.Y2))
	}
	return solution{x: -minX, y: -minY, w: w, h: h, kept: kept, pruned: pruned}, nil
}

// partition splits exprs into those not containing symbol and those that do.
func partition(exprs []expr.Linear, symbol string) (without, with []expr.Linear) {
	for _, e := range exprs {
		if e.ContainsSymbol(symbol) {
			with = append(with, e)
		} else {
			without = append(without, e)
		}
	}
	return without, with
}

// prefer returns a unless it is empty.
func prefer(a, b []expr.Linear) []expr.Linear {
	if len(a) > 0 {
		return a
	}
	return b
}

// minimum picks the smallest expression under the best-effort
// [expr.Linear.Less] ordering. exprs must not be empty.
func minimum(exprs []expr.Linear) expr.Linear {
	m := exprs[0]
	for _, e := range exprs[1:] {
		if e.Less(m) {
			m = e
		}
	}
	return m
}

// maximum picks the largest expression under [expr.Linear.Less].
func maximum(exprs []expr.Linear) expr.Linear {
	m := exprs[0]
	for _, e := range exprs[1:] {
		if m.Less(e) {
			m = e
		}
	}
	return m
}

func round(f float64) int { return int(math.RoundToEven(f)) }
