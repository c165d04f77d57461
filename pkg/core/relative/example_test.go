package relative_test

import (
	"fmt"

	"github.com/matzehuels/scenebox/pkg/core/box"
	"github.com/matzehuels/scenebox/pkg/core/relative"
)

type tile struct{ w, h int }

func (t *tile) Width() int  { return t.w }
func (t *tile) Height() int { return t.h }

func ExampleContainer_InferSize() {
	c := relative.New()
	a, b := &tile{10, 10}, &tile{20, 20}
	_ = c.AddChild(a, relative.AlignLeft(c), relative.AlignTop(c))
	_ = c.AddChild(b, relative.PlaceRight(a))

	w, h, _ := c.InferSize()
	fmt.Println(w, h)
	// Output: 30 20
}

func ExampleContainer_AddConstraint() {
	c := relative.New()
	red, green := &tile{100, 100}, &tile{300, 300}
	_ = c.AddChild(red, relative.AlignLeft(c), relative.AlignTop(c))
	_ = c.AddChild(green, relative.AlignRight(c), relative.AlignBottom(c))
	_ = c.AddConstraint(red, relative.To(box.Left, green), relative.To(box.Above, green))

	l, _ := c.SolveLayout()
	fmt.Println(l.Width, l.Height)
	for _, p := range l.Placements {
		fmt.Println(p.X, p.Y, p.Width, p.Height)
	}
	// Output:
	// 400 400
	// 0 0 100 100
	// 100 100 300 300
}
