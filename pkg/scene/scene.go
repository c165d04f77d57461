package scene

import (
	"errors"
	"fmt"
	"image"

	"github.com/matzehuels/scenebox/pkg/core/relative"
)

var (
	ErrDuplicateID = errors.New("duplicate object id")
	ErrUnknownID   = errors.New("unknown object id")
	ErrNoRoot      = errors.New("scene has no root")
)

// Scene is a named object tree with an id for every registered object.
type Scene struct {
	Name  string
	root  Object
	nodes map[string]Object
	ids   map[Object]string
	order []string
}

// New creates an empty scene.
func New(name string) *Scene {
	return &Scene{
		Name:  name,
		nodes: make(map[string]Object),
		ids:   make(map[Object]string),
	}
}

// Register names o. Ids are unique within a scene.
func (s *Scene) Register(id string, o Object) error {
	if _, ok := s.nodes[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}
	s.nodes[id] = o
	s.ids[o] = id
	s.order = append(s.order, id)
	return nil
}

// Lookup returns the object registered as id.
func (s *Scene) Lookup(id string) (Object, error) {
	o, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownID, id)
	}
	return o, nil
}

// ID returns the id of o, or "" if it was never registered.
func (s *Scene) ID(o any) string {
	obj, ok := o.(Object)
	if !ok {
		return ""
	}
	return s.ids[obj]
}

// IDs returns every registered id in registration order.
func (s *Scene) IDs() []string { return append([]string(nil), s.order...) }

// Root returns the root object, or nil.
func (s *Scene) Root() Object { return s.root }

// SetRoot sets the object the scene renders.
func (s *Scene) SetRoot(o Object) { s.root = o }

// Size returns the outer size of the root.
func (s *Scene) Size() (int, int, error) {
	if s.root == nil {
		return 0, 0, ErrNoRoot
	}
	if r, ok := s.root.(*Relative); ok {
		if _, _, err := r.Size(); err != nil {
			return 0, 0, err
		}
	}
	return s.root.Width(), s.root.Height(), nil
}

// Layout returns the solved layout of the root container.
func (s *Scene) Layout() (*relative.Layout, error) {
	if s.root == nil {
		return nil, ErrNoRoot
	}
	a, ok := s.root.(Arranger)
	if !ok {
		return nil, fmt.Errorf("root %s is not a container", Kind(s.root))
	}
	return a.Arrange()
}

// Render renders the root object.
func (s *Scene) Render() (*image.NRGBA, error) {
	if s.root == nil {
		return nil, ErrNoRoot
	}
	return s.root.Render()
}

// Walk visits o and its descendants depth first, parents before children.
// It stops at the first error fn returns.
func Walk(o Object, fn func(o Object, depth int) error) error {
	return walk(o, 0, fn)
}

func walk(o Object, depth int, fn func(Object, int) error) error {
	if err := fn(o, depth); err != nil {
		return err
	}
	if a, ok := o.(Arranger); ok {
		for _, c := range a.Children() {
			if err := walk(c, depth+1, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Kind names the object type as used in scene files.
func Kind(o Object) string {
	switch o.(type) {
	case *Rect:
		return "rect"
	case *Spacer:
		return "spacer"
	case *Image:
		return "image"
	case *Text:
		return "text"
	case *Flex:
		return "flex"
	case *Stack:
		return "stack"
	case *Relative:
		return "relative"
	}
	return fmt.Sprintf("%T", o)
}
