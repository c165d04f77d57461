package scene

import (
	"fmt"
	"image"

	"github.com/matzehuels/scenebox/pkg/core/dag"
	"github.com/matzehuels/scenebox/pkg/core/relative"
	"github.com/matzehuels/scenebox/pkg/render/composite"
)

// Direction is the main axis of a Flex.
type Direction int

const (
	Horizontal Direction = iota
	Vertical
)

// ParseDirection accepts "horizontal" and "vertical".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "horizontal":
		return Horizontal, nil
	case "vertical":
		return Vertical, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) String() string {
	if d == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Alignment positions children on the cross axis.
type Alignment int

const (
	Start Alignment = iota
	Center
	End
)

// ParseAlignment accepts "start", "center" and "end".
func ParseAlignment(s string) (Alignment, error) {
	switch s {
	case "", "start":
		return Start, nil
	case "center":
		return Center, nil
	case "end":
		return End, nil
	}
	return 0, fmt.Errorf("unknown alignment %q", s)
}

func (a Alignment) String() string {
	switch a {
	case Center:
		return "center"
	case End:
		return "end"
	}
	return "start"
}

// align returns the offset of a child of size inner in a track of size outer.
func (a Alignment) align(outer, inner int) int {
	switch a {
	case Center:
		return (outer - inner) / 2
	case End:
		return outer - inner
	}
	return 0
}

// Flex lines its children up along one axis, separated by Spacing pixels.
type Flex struct {
	Base
	dir      Direction
	align    Alignment
	spacing  int
	children []Object
}

// NewFlex creates a linear container.
func NewFlex(dir Direction, align Alignment, spacing int, style Style, children ...Object) *Flex {
	f := &Flex{dir: dir, align: align, spacing: max(spacing, 0)}
	f.style = style
	f.Add(children...)
	return f
}

// Add appends children.
func (f *Flex) Add(children ...Object) {
	for _, c := range children {
		c.Attach(f)
		f.children = append(f.children, c)
	}
	f.MarkDirty()
}

// Children implements Arranger.
func (f *Flex) Children() []Object { return f.children }

// Direction returns the main axis.
func (f *Flex) Direction() Direction { return f.dir }

func (f *Flex) size() (int, int) {
	var main, cross int
	for _, c := range f.children {
		cm, cc := c.Width(), c.Height()
		if f.dir == Vertical {
			cm, cc = cc, cm
		}
		main += cm
		cross = max(cross, cc)
	}
	if n := len(f.children); n > 1 {
		main += f.spacing * (n - 1)
	}
	if f.dir == Vertical {
		return cross, main
	}
	return main, cross
}

// Width implements Object.
func (f *Flex) Width() int {
	w, _ := f.outer(f.size())
	return w
}

// Height implements Object.
func (f *Flex) Height() int {
	_, h := f.outer(f.size())
	return h
}

// Arrange implements Arranger.
func (f *Flex) Arrange() (*relative.Layout, error) {
	w, h := f.size()
	l := &relative.Layout{Width: w, Height: h}
	pos := 0
	for i, c := range f.children {
		p := relative.Placement{ID: dag.NodeID(i + 1), Item: c, Width: c.Width(), Height: c.Height()}
		if f.dir == Horizontal {
			p.X, p.Y = pos, f.align.align(h, p.Height)
			pos += p.Width + f.spacing
		} else {
			p.X, p.Y = f.align.align(w, p.Width), pos
			pos += p.Height + f.spacing
		}
		l.Placements = append(l.Placements, p)
	}
	return l, nil
}

// Render implements Object.
func (f *Flex) Render() (*image.NRGBA, error) {
	w, h := f.size()
	return f.render(w, h, func() (*image.NRGBA, error) { return renderPlacements(f) })
}

// Stack draws its children on top of each other, aligned on both axes.
type Stack struct {
	Base
	halign, valign Alignment
	children       []Object
}

// NewStack creates an overlay container. Later children are drawn on top.
func NewStack(halign, valign Alignment, style Style, children ...Object) *Stack {
	s := &Stack{halign: halign, valign: valign}
	s.style = style
	s.Add(children...)
	return s
}

// Add appends children.
func (s *Stack) Add(children ...Object) {
	for _, c := range children {
		c.Attach(s)
		s.children = append(s.children, c)
	}
	s.MarkDirty()
}

// Children implements Arranger.
func (s *Stack) Children() []Object { return s.children }

func (s *Stack) size() (int, int) {
	var w, h int
	for _, c := range s.children {
		w, h = max(w, c.Width()), max(h, c.Height())
	}
	return w, h
}

// Width implements Object.
func (s *Stack) Width() int {
	w, _ := s.outer(s.size())
	return w
}

// Height implements Object.
func (s *Stack) Height() int {
	_, h := s.outer(s.size())
	return h
}

// Arrange implements Arranger.
func (s *Stack) Arrange() (*relative.Layout, error) {
	w, h := s.size()
	l := &relative.Layout{Width: w, Height: h}
	for i, c := range s.children {
		cw, ch := c.Width(), c.Height()
		l.Placements = append(l.Placements, relative.Placement{
			ID:     dag.NodeID(i + 1),
			Item:   c,
			X:      s.halign.align(w, cw),
			Y:      s.valign.align(h, ch),
			Width:  cw,
			Height: ch,
		})
	}
	return l, nil
}

// Render implements Object.
func (s *Stack) Render() (*image.NRGBA, error) {
	w, h := s.size()
	return s.render(w, h, func() (*image.NRGBA, error) { return renderPlacements(s) })
}

// renderPlacements renders every placed child and composites them in
// placement order onto the arranger's content box.
func renderPlacements(a Arranger) (*image.NRGBA, error) {
	l, err := a.Arrange()
	if err != nil {
		return nil, err
	}
	layers := make([]composite.Layer, 0, len(l.Placements))
	for _, p := range l.Placements {
		obj, ok := p.Item.(Object)
		if !ok {
			return nil, fmt.Errorf("placement %d: %T is not a scene object", p.ID, p.Item)
		}
		img, err := obj.Render()
		if err != nil {
			return nil, err
		}
		layers = append(layers, composite.Layer{Image: img, X: p.X, Y: p.Y})
	}
	return composite.Compose(l.Width, l.Height, layers...), nil
}
