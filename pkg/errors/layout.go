package errors

import (
	"errors"

	"github.com/matzehuels/scenebox/pkg/core/box"
	"github.com/matzehuels/scenebox/pkg/core/dag"
	"github.com/matzehuels/scenebox/pkg/core/relative"
)

// LayoutCode maps errors of the layout engine to error codes.
//
// Mistakes in the scene graph itself (cycles, unknown relations, unknown or
// duplicate nodes) are ErrCodeInvalidScene or ErrCodeInvalidRelation; a
// valid graph that cannot be solved is ErrCodeLayoutFailed. Errors that
// already carry a code keep it.
func LayoutCode(err error) Code {
	if code := GetCode(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, box.ErrInvalidRelation),
		errors.Is(err, box.ErrInvalidConstraint):
		return ErrCodeInvalidRelation
	case errors.Is(err, dag.ErrGraphHasCycle),
		errors.Is(err, relative.ErrDuplicateChild),
		errors.Is(err, relative.ErrUnknownNode),
		errors.Is(err, relative.ErrInvalidItem):
		return ErrCodeInvalidScene
	case errors.Is(err, relative.ErrUnresolvedPosition),
		errors.Is(err, relative.ErrUnresolvableSize):
		return ErrCodeLayoutFailed
	}
	return ErrCodeInternal
}
