// Package relative implements the relative layout engine: a container whose
// children are positioned by relations to each other and to the container,
// and whose own size is inferred from the result.
//
// # Model
//
// Every child is a node of a [dag.Graph] keyed by a small integer id; the
// container itself is node [Root]. Adding a child with a relation such as
// "right of A" adds the edge A -> child labeled with the relation. Two items
// may be linked by several relations; they are applied in the order they
// were added.
//
// The container is described symbolically as the box (x, y, w, h). Each child
// box is derived by folding its relations over the boxes of its dependencies,
// so every coordinate is an [expr.Linear] over those four symbols.
//
// # Solving
//
// [Container.InferSize] picks the extreme child edges and subtracts them.
// If a dimension still depends on the container size, as when one child is
// aligned to the left edge and another to the right edge, constraints added
// with [Container.AddConstraint] provide a lower bound:
//
//	c := relative.New()
//	_ = c.AddChild(red, relative.AlignLeft(c), relative.AlignTop(c))
//	_ = c.AddChild(green, relative.AlignRight(c), relative.AlignBottom(c))
//	_ = c.AddConstraint(red, relative.To(box.Left, green), relative.To(box.Above, green))
//	w, h, _ := c.InferSize() // 400, 400 for 100x100 and 300x300 children
//
// [Container.SolveLayout] evaluates every child box and shifts the result so
// the top-left most edge is at (0, 0). The placements come in topological
// order, which is also the draw order; prior_to relations change only that
// order.
//
// # Strict mode
//
// In strict mode children that fall partially outside the inferred bounds
// are dropped and the size is inferred again, until no child is dropped.
// Dropped children are listed in [Layout.Pruned].
//
// # Errors
//
//   - [dag.ErrGraphHasCycle]: the relations form a cycle.
//   - [ErrUnresolvedPosition]: a child has no chain of relations back to the
//     container on some axis.
//   - [ErrUnresolvableSize]: the width or height stayed symbolic.
package relative
