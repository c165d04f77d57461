package box

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRelation is returned when a relation name is not part of the
	// vocabulary.
	ErrInvalidRelation = errors.New("invalid relation")

	// ErrInvalidConstraint is returned by [Box.Constrain] for relations other
	// than above, below, left and right.
	ErrInvalidConstraint = errors.New("invalid constraint")
)

// Relation names how a dependent box is placed against a reference box.
type Relation string

// The relation vocabulary. Values match the names used in scene files.
const (
	Above            Relation = "above"
	Below            Relation = "below"
	Left             Relation = "left"
	Right            Relation = "right"
	AlignTop         Relation = "align_top"
	AlignBottom      Relation = "align_bottom"
	AlignLeft        Relation = "align_left"
	AlignRight       Relation = "align_right"
	CenterVertical   Relation = "center_vertical"
	CenterHorizontal Relation = "center_horizontal"
	Center           Relation = "center"
	// Relative keeps the box where it is; combined with an offset it places
	// a child relative to the reference's current position.
	Relative Relation = "relative"
	// PriorTo only orders: the dependent is drawn after the reference.
	PriorTo Relation = "prior_to"
)

// Relations lists the full vocabulary in a stable order.
var Relations = []Relation{
	Above, Below, Left, Right,
	AlignTop, AlignBottom, AlignLeft, AlignRight,
	CenterVertical, CenterHorizontal, Center,
	Relative, PriorTo,
}

// ParseRelation converts a name into a Relation.
func ParseRelation(s string) (Relation, error) {
	r := Relation(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRelation, s)
	}
	return r, nil
}

// Valid reports whether r is part of the vocabulary.
func (r Relation) Valid() bool {
	switch r {
	case Above, Below, Left, Right,
		AlignTop, AlignBottom, AlignLeft, AlignRight,
		CenterVertical, CenterHorizontal, Center,
		Relative, PriorTo:
		return true
	}
	return false
}

// IsConstraint reports whether r may be used with [Box.Constrain].
func (r Relation) IsConstraint() bool {
	switch r {
	case Above, Below, Left, Right:
		return true
	}
	return false
}

// Geometric reports whether applying r can move a box. PriorTo is the only
// relation that does not; Relative is geometric in intent but an identity.
func (r Relation) Geometric() bool { return r != PriorTo }

func (r Relation) String() string { return string(r) }
