package relative

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/matzehuels/scenebox/pkg/core/box"
	"github.com/matzehuels/scenebox/pkg/core/dag"
)

var (
	// ErrDuplicateChild is returned by [Container.AddChild] when the item was
	// already added.
	ErrDuplicateChild = errors.New("child already added")

	// ErrUnknownNode is returned when an operation names an item that is not
	// part of the container.
	ErrUnknownNode = errors.New("unknown node")

	// ErrInvalidItem is returned for nil items and items whose dynamic type
	// cannot be used as a map key.
	ErrInvalidItem = errors.New("invalid item")

	// ErrUnresolvedPosition matches every *UnresolvedPositionError.
	ErrUnresolvedPosition = errors.New("unresolved position")

	// ErrUnresolvableSize is returned when the container width or height
	// cannot be reduced to a constant from child extents and constraints.
	ErrUnresolvableSize = errors.New("unresolvable container size")
)

// Root is the node id of the container itself.
const Root dag.NodeID = 0

// Item is a content item placed by the container. Only its intrinsic size is
// inspected. Items are tracked by identity, so implementations should be
// pointer types.
type Item interface {
	Width() int
	Height() int
}

// Invalidator is notified whenever the container's graph, offsets,
// constraints or mode change, so memoized results can be dropped.
type Invalidator interface {
	MarkDirty()
}

// Rel pairs a relation with the item it refers to.
type Rel struct {
	Kind   box.Relation
	Target Item
}

// UnresolvedPositionError reports a node whose x or y stayed undefined after
// all of its relations were applied, usually because it has no chain of
// relations back to the container.
type UnresolvedPositionError struct {
	Node dag.NodeID
	Item Item
	X, Y string // symbolic coordinates at the time of failure
}

// Error implements the error interface.
func (e *UnresolvedPositionError) Error() string {
	return fmt.Sprintf("%s: node %d (x=%s, y=%s)", ErrUnresolvedPosition, e.Node, e.X, e.Y)
}

// Unwrap returns ErrUnresolvedPosition for errors.Is compatibility.
func (e *UnresolvedPositionError) Unwrap() error { return ErrUnresolvedPosition }

type constraint struct {
	from dag.NodeID
	kind box.Relation
	to   dag.NodeID
}

type offset struct{ dx, dy float64 }

// Container arranges items relative to each other and to itself, and infers
// its own size from the result.
//
// The container is node [Root]; items get increasing ids the first time they
// are seen, either as a child or as a relation target. Relations are kept in
// a [dag.Graph] whose topological order is also the draw order.
//
// The zero value is not usable - use New. Container is not safe for
// concurrent use.
type Container struct {
	strict      bool
	items       []Item // index = node id; items[Root] is the container
	ids         map[Item]dag.NodeID
	children    map[dag.NodeID]bool
	graph       *dag.Graph[box.Relation]
	offsets     map[dag.NodeID]offset
	constraints []constraint
	invalidator Invalidator
	self        Item // alias of the container, may be nil
}

// Option configures a Container.
type Option func(*Container)

// WithStrict enables strict mode: children that fall partially outside the
// inferred bounds are discarded and the size is inferred again.
func WithStrict(strict bool) Option {
	return func(c *Container) { c.strict = strict }
}

// WithInvalidator registers the callback notified on every mutation.
func WithInvalidator(inv Invalidator) Option {
	return func(c *Container) { c.invalidator = inv }
}

// WithSelf registers it as another name for the container, so relations
// targeting it refer to the container itself. Objects that embed a Container
// use it to let callers write relations against the object.
func WithSelf(it Item) Option {
	return func(c *Container) { c.self = it }
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		ids:      make(map[Item]dag.NodeID),
		children: make(map[dag.NodeID]bool),
		graph:    dag.New[box.Relation](),
		offsets:  make(map[dag.NodeID]offset),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.items = []Item{c}
	c.ids[c] = Root
	if hashable(c.self) {
		c.ids[c.self] = Root
	}
	_ = c.graph.AddNode(Root)
	return c
}

// Width returns the inferred width, or 0 if the container is empty or its
// size cannot be inferred.
func (c *Container) Width() int {
	w, _, err := c.InferSize()
	if err != nil {
		return 0
	}
	return w
}

// Height returns the inferred height, or 0 if the container is empty or its
// size cannot be inferred.
func (c *Container) Height() int {
	_, h, err := c.InferSize()
	if err != nil {
		return 0
	}
	return h
}

// Strict reports whether strict mode is enabled.
func (c *Container) Strict() bool { return c.strict }

// SetStrict switches strict mode.
func (c *Container) SetStrict(strict bool) {
	if c.strict != strict {
		c.strict = strict
		c.markDirty()
	}
}

// SetInvalidator replaces the mutation callback.
func (c *Container) SetInvalidator(inv Invalidator) { c.invalidator = inv }

// Len returns the number of children.
func (c *Container) Len() int { return len(c.children) }

// Children returns the children in the order they were added.
func (c *Container) Children() []Item {
	out := make([]Item, 0, len(c.children))
	for id, it := range c.items {
		if c.children[dag.NodeID(id)] {
			out = append(out, it)
		}
	}
	return out
}

// Graph returns the relation graph. It must be treated as read-only.
func (c *Container) Graph() *dag.Graph[box.Relation] { return c.graph }

// Item returns the item registered under id.
func (c *Container) Item(id dag.NodeID) (Item, bool) {
	if id < 0 || int(id) >= len(c.items) {
		return nil, false
	}
	return c.items[id], true
}

// ID returns the node id of it.
func (c *Container) ID(it Item) (dag.NodeID, bool) {
	if !hashable(it) {
		return 0, false
	}
	id, ok := c.ids[it]
	return id, ok
}

// ChildOption configures a child passed to [Container.AddChild].
type ChildOption func(*childSpec)

type childSpec struct {
	offset offset
	rels   []Rel
}

// Offset displaces a child by (dx, dy) pixels after its relations are
// resolved.
func Offset(dx, dy int) ChildOption {
	return func(s *childSpec) { s.offset = offset{float64(dx), float64(dy)} }
}

// With attaches relations to a child. Relations are applied in order.
func With(rels ...Rel) ChildOption {
	return func(s *childSpec) { s.rels = append(s.rels, rels...) }
}

// Relation helpers. Each returns a ChildOption usable with AddChild; use
// [To] to build a plain Rel for AddConstraint.

// PlaceAbove places the child above target.
func PlaceAbove(target Item) ChildOption { return With(To(box.Above, target)) }

// PlaceBelow places the child below target.
func PlaceBelow(target Item) ChildOption { return With(To(box.Below, target)) }

// PlaceLeft places the child left of target.
func PlaceLeft(target Item) ChildOption { return With(To(box.Left, target)) }

// PlaceRight places the child right of target.
func PlaceRight(target Item) ChildOption { return With(To(box.Right, target)) }

// AlignTop aligns the child's top edge with target's.
func AlignTop(target Item) ChildOption { return With(To(box.AlignTop, target)) }

// AlignBottom aligns the child's bottom edge with target's.
func AlignBottom(target Item) ChildOption { return With(To(box.AlignBottom, target)) }

// AlignLeft aligns the child's left edge with target's.
func AlignLeft(target Item) ChildOption { return With(To(box.AlignLeft, target)) }

// AlignRight aligns the child's right edge with target's.
func AlignRight(target Item) ChildOption { return With(To(box.AlignRight, target)) }

// CenterVertical centers the child on target vertically.
func CenterVertical(target Item) ChildOption { return With(To(box.CenterVertical, target)) }

// CenterHorizontal centers the child on target horizontally.
func CenterHorizontal(target Item) ChildOption { return With(To(box.CenterHorizontal, target)) }

// Center centers the child on target.
func Center(target Item) ChildOption { return With(To(box.Center, target)) }

// RelativeTo keeps the child at target's current position (combine with
// Offset).
func RelativeTo(target Item) ChildOption { return With(To(box.Relative, target)) }

// PriorTo draws the child after target without moving it.
func PriorTo(target Item) ChildOption { return With(To(box.PriorTo, target)) }

// To builds a Rel.
func To(kind box.Relation, target Item) Rel { return Rel{Kind: kind, Target: target} }

// AddChild adds it to the container. Relations name the items it is placed
// against; a target may be the container itself or an item added later.
//
// Returns ErrDuplicateChild if it was already added, ErrInvalidRelation
// (from package box) for an unknown relation, and ErrInvalidItem for nil
// items or a child placed against itself.
func (c *Container) AddChild(it Item, opts ...ChildOption) error {
	if !hashable(it) {
		return fmt.Errorf("%w: %T", ErrInvalidItem, it)
	}
	if id, ok := c.ids[it]; ok && id == Root {
		return fmt.Errorf("%w: container cannot be its own child", ErrInvalidItem)
	}
	if id, ok := c.ids[it]; ok && c.children[id] {
		return fmt.Errorf("%w: node %d", ErrDuplicateChild, id)
	}

	var spec childSpec
	for _, opt := range opts {
		opt(&spec)
	}
	for _, r := range spec.rels {
		if !r.Kind.Valid() {
			return fmt.Errorf("%w: %q", box.ErrInvalidRelation, string(r.Kind))
		}
		if !hashable(r.Target) {
			return fmt.Errorf("%w: relation %s target %T", ErrInvalidItem, r.Kind, r.Target)
		}
		if r.Target == it {
			return fmt.Errorf("%w: child placed %s itself", ErrInvalidItem, r.Kind)
		}
	}

	id := c.register(it)
	c.children[id] = true
	for _, r := range spec.rels {
		if err := c.graph.AddEdge(c.register(r.Target), id, r.Kind); err != nil {
			return err
		}
	}
	c.offsets[id] = spec.offset
	c.markDirty()
	return nil
}

// AddConstraint bounds the container size by requiring it to stay on the
// given side of each target. Only above, below, left and right are allowed.
// Both it and every target must already be registered children; the
// container itself has no box to compare against and is rejected with
// ErrUnknownNode.
//
// Constraints never position anything; they only raise the lower bound of a
// width or height that child extents leave unresolved.
func (c *Container) AddConstraint(it Item, rels ...Rel) error {
	from, ok := c.ID(it)
	if !ok || from == Root {
		return fmt.Errorf("%w: constrained item %T", ErrUnknownNode, it)
	}
	var added []constraint
	for _, r := range rels {
		if !r.Kind.IsConstraint() {
			return fmt.Errorf("%w: %q", box.ErrInvalidConstraint, string(r.Kind))
		}
		to, ok := c.ID(r.Target)
		if !ok || to == Root {
			return fmt.Errorf("%w: constraint %s target %T", ErrUnknownNode, r.Kind, r.Target)
		}
		added = append(added, constraint{from: from, kind: r.Kind, to: to})
	}
	c.constraints = append(c.constraints, added...)
	c.markDirty()
	return nil
}

// SetOffset replaces the pixel offset of a child.
func (c *Container) SetOffset(it Item, dx, dy int) error {
	id, ok := c.ID(it)
	if !ok || !c.children[id] {
		return fmt.Errorf("%w: %T", ErrUnknownNode, it)
	}
	c.offsets[id] = offset{float64(dx), float64(dy)}
	c.markDirty()
	return nil
}

// register returns the id of it, assigning the next free id on first sight.
func (c *Container) register(it Item) dag.NodeID {
	if id, ok := c.ids[it]; ok {
		return id
	}
	id := dag.NodeID(len(c.items))
	c.items = append(c.items, it)
	c.ids[it] = id
	_ = c.graph.AddNode(id)
	return id
}

func (c *Container) markDirty() {
	if c.invalidator != nil {
		c.invalidator.MarkDirty()
	}
}

// hashable reports whether it can be used as a map key without panicking.
// A comparable struct type can still hold an uncomparable value in an
// interface field, so the key is tried once.
func hashable(it Item) (ok bool) {
	if it == nil || !reflect.TypeOf(it).Comparable() {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = map[Item]struct{}{it: {}}
	return true
}
