package pipeline

import (
	errs "github.com/matzehuels/scenebox/pkg/errors"
	pkgio "github.com/matzehuels/scenebox/pkg/io"
	"github.com/matzehuels/scenebox/pkg/scene"
)

// Solve lays out the scene and flattens the placements. Engine errors are
// wrapped with the error code matching their cause.
func Solve(s *scene.Scene) (*pkgio.Layout, error) {
	l, err := pkgio.ExportLayout(s)
	if err != nil {
		return nil, errs.Wrap(errs.LayoutCode(err), err, "solve layout")
	}
	return l, nil
}
