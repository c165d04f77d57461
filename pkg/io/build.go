package io

import (
	"os"
	"path/filepath"

	"github.com/matzehuels/scenebox/pkg/core/box"
	"github.com/matzehuels/scenebox/pkg/core/relative"
	errs "github.com/matzehuels/scenebox/pkg/errors"
	"github.com/matzehuels/scenebox/pkg/fonts"
	"github.com/matzehuels/scenebox/pkg/scene"
)

// Node kinds.
const (
	KindRect     = "rect"
	KindSpacer   = "spacer"
	KindText     = "text"
	KindImage    = "image"
	KindFlex     = "flex"
	KindStack    = "stack"
	KindRelative = "relative"
)

// MaxExtent bounds every pixel quantity a node may declare: sizes, offsets,
// spacing, margins, padding, border widths and font sizes.
const MaxExtent = 16384

// BuildOptions configure [Build].
type BuildOptions struct {
	// BaseDir resolves relative image paths. Defaults to the working
	// directory.
	BaseDir string
	// Strict, when set, overrides the document's strict flag for the root.
	Strict *bool
}

// Build turns a document into a scene. Every node must be reachable from the
// root, and every node has at most one parent.
//
// Errors carry a [errs.Code]: INVALID_SCENE for structural problems,
// INVALID_RELATION for bad relations or targets, INVALID_COLOR,
// INVALID_PATH and FILE_NOT_FOUND for node attributes.
func Build(doc *Document, opts BuildOptions) (*scene.Scene, error) {
	b := &builder{
		opts:    opts,
		nodes:   make(map[string]*Node, len(doc.Nodes)),
		parent:  make(map[string]string),
		objects: make(map[string]scene.Object),
		visit:   make(map[string]bool),
	}
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if err := errs.ValidateNodeID(n.ID); err != nil {
			return nil, err
		}
		if _, dup := b.nodes[n.ID]; dup {
			return nil, errs.New(errs.ErrCodeInvalidScene, "duplicate node id %q", n.ID)
		}
		b.nodes[n.ID] = n
	}
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		for _, c := range n.Children {
			if _, ok := b.nodes[c]; !ok {
				return nil, errs.New(errs.ErrCodeInvalidScene, "node %q: unknown child %q", n.ID, c)
			}
			if p, ok := b.parent[c]; ok {
				return nil, errs.New(errs.ErrCodeInvalidScene, "node %q is a child of both %q and %q", c, p, n.ID)
			}
			b.parent[c] = n.ID
		}
	}

	root, err := b.findRoot(doc)
	if err != nil {
		return nil, err
	}
	b.root = root
	if doc.Strict {
		b.rootStrict = &doc.Strict
	}
	if opts.Strict != nil {
		b.rootStrict = opts.Strict
	}

	s := scene.New(doc.Name)
	obj, err := b.build(root)
	if err != nil {
		return nil, err
	}
	for _, n := range doc.Nodes {
		o, ok := b.objects[n.ID]
		if !ok {
			return nil, errs.New(errs.ErrCodeInvalidScene, "node %q is not reachable from root %q", n.ID, root)
		}
		if err := s.Register(n.ID, o); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "register %q", n.ID)
		}
	}
	s.SetRoot(obj)
	return s, nil
}

type builder struct {
	opts       BuildOptions
	nodes      map[string]*Node
	parent     map[string]string
	objects    map[string]scene.Object
	visit      map[string]bool
	root       string
	rootStrict *bool // overrides the strict flag of a relative root
}

func (b *builder) findRoot(doc *Document) (string, error) {
	if doc.Root != "" {
		if _, ok := b.nodes[doc.Root]; !ok {
			return "", errs.New(errs.ErrCodeInvalidScene, "root %q is not a node", doc.Root)
		}
		if p, ok := b.parent[doc.Root]; ok {
			return "", errs.New(errs.ErrCodeInvalidScene, "root %q is a child of %q", doc.Root, p)
		}
		return doc.Root, nil
	}
	var tops []string
	for _, n := range doc.Nodes {
		if _, ok := b.parent[n.ID]; !ok {
			tops = append(tops, n.ID)
		}
	}
	if len(tops) != 1 {
		return "", errs.New(errs.ErrCodeInvalidScene, "cannot infer root: %d top-level nodes, set root", len(tops))
	}
	return tops[0], nil
}

func (b *builder) build(id string) (scene.Object, error) {
	if o, ok := b.objects[id]; ok {
		return o, nil
	}
	if b.visit[id] {
		return nil, errs.New(errs.ErrCodeInvalidScene, "node %q contains itself", id)
	}
	b.visit[id] = true

	n := b.nodes[id]
	if err := checkExtents(n); err != nil {
		return nil, err
	}
	style, err := buildStyle(n)
	if err != nil {
		return nil, err
	}
	if len(n.Children) > 0 && !isContainer(n.Kind) {
		return nil, errs.New(errs.ErrCodeInvalidScene, "node %q: %s cannot have children", id, n.Kind)
	}
	if p, ok := b.parent[id]; !ok || b.nodes[p].Kind != KindRelative {
		if len(n.Relations) > 0 || len(n.Constraints) > 0 || len(n.Offset) > 0 {
			return nil, errs.New(errs.ErrCodeInvalidRelation, "node %q: relations need a relative parent", id)
		}
	}

	var obj scene.Object
	switch n.Kind {
	case KindRect:
		fill, err := parseColor(id, "fill", n.Fill, scene.Black)
		if err != nil {
			return nil, err
		}
		obj = scene.NewRect(n.Width, n.Height, fill, style)
	case KindSpacer:
		sp := scene.NewSpacer(n.Width, n.Height)
		sp.SetStyle(style)
		obj = sp
	case KindText:
		obj, err = b.text(n, style)
	case KindImage:
		obj, err = b.image(n, style)
	case KindFlex:
		obj, err = b.flex(n, style)
	case KindStack:
		obj, err = b.stack(n, style)
	case KindRelative:
		obj, err = b.relative(n, style)
	default:
		return nil, errs.New(errs.ErrCodeInvalidScene, "node %q: unknown kind %q", id, n.Kind)
	}
	if err != nil {
		return nil, err
	}
	b.objects[id] = obj
	return obj, nil
}

func isContainer(kind string) bool {
	return kind == KindFlex || kind == KindStack || kind == KindRelative
}

func (b *builder) children(n *Node) ([]scene.Object, error) {
	out := make([]scene.Object, 0, len(n.Children))
	for _, c := range n.Children {
		o, err := b.build(c)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (b *builder) text(n *Node, style scene.Style) (scene.Object, error) {
	c, err := parseColor(n.ID, "color", n.Color, scene.Black)
	if err != nil {
		return nil, err
	}
	family := fonts.Regular
	if n.Font != "" {
		family = fonts.Family(n.Font)
		if _, err := fonts.Font(family); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "node %q: font", n.ID)
		}
	}
	t, err := scene.NewText(n.Text, scene.TextStyle{Family: family, Size: n.FontSize, Color: c}, style)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "node %q: text", n.ID)
	}
	return t, nil
}

func (b *builder) image(n *Node, style scene.Style) (scene.Object, error) {
	if err := errs.ValidatePath(n.Path); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "node %q", n.ID)
	}
	path := filepath.Join(b.opts.BaseDir, n.Path)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "node %q: image", n.ID)
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "node %q: image", n.ID)
	}
	img, err := scene.LoadImage(path, n.Width, n.Height, style)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "node %q", n.ID)
	}
	return img, nil
}

func (b *builder) flex(n *Node, style scene.Style) (scene.Object, error) {
	dir, err := scene.ParseDirection(n.Direction)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "node %q", n.ID)
	}
	align, err := scene.ParseAlignment(n.Align)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "node %q", n.ID)
	}
	children, err := b.children(n)
	if err != nil {
		return nil, err
	}
	return scene.NewFlex(dir, align, n.Spacing, style, children...), nil
}

func (b *builder) stack(n *Node, style scene.Style) (scene.Object, error) {
	halign, err := scene.ParseAlignment(n.Align)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "node %q", n.ID)
	}
	valign, err := scene.ParseAlignment(n.VAlign)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "node %q", n.ID)
	}
	children, err := b.children(n)
	if err != nil {
		return nil, err
	}
	return scene.NewStack(halign, valign, style, children...), nil
}

// relative adds the children in document order, so relations fold in the
// order they are written.
func (b *builder) relative(n *Node, style scene.Style) (scene.Object, error) {
	strict := n.Strict
	if n.ID == b.root && b.rootStrict != nil {
		strict = *b.rootStrict
	}
	r := scene.NewRelative(style, strict)
	children, err := b.children(n)
	if err != nil {
		return nil, err
	}
	siblings := make(map[string]scene.Object, len(children))
	for i, c := range n.Children {
		siblings[c] = children[i]
	}
	target := func(child, id string) (relative.Item, error) {
		if id == ContainerID {
			return r, nil
		}
		if id == child {
			return nil, errs.New(errs.ErrCodeInvalidRelation, "node %q: relation to itself", child)
		}
		o, ok := siblings[id]
		if !ok {
			return nil, errs.New(errs.ErrCodeInvalidRelation, "node %q: target %q is not in container %q", child, id, n.ID)
		}
		return o, nil
	}

	for i, id := range n.Children {
		cn := b.nodes[id]
		var opts []relative.ChildOption
		for _, rel := range cn.Relations {
			kind, err := box.ParseRelation(rel.Kind)
			if err != nil {
				return nil, errs.Wrap(errs.ErrCodeInvalidRelation, err, "node %q", id)
			}
			t, err := target(id, rel.Target)
			if err != nil {
				return nil, err
			}
			opts = append(opts, relative.With(relative.To(kind, t)))
		}
		switch len(cn.Offset) {
		case 0:
		case 2:
			opts = append(opts, relative.Offset(cn.Offset[0], cn.Offset[1]))
		default:
			return nil, errs.New(errs.ErrCodeInvalidScene, "node %q: offset needs [dx, dy]", id)
		}
		if err := r.AddChild(children[i], opts...); err != nil {
			return nil, errs.Wrap(errs.LayoutCode(err), err, "node %q", id)
		}
	}

	for i, id := range n.Children {
		for _, ct := range b.nodes[id].Constraints {
			kind, err := box.ParseRelation(ct.Kind)
			if err != nil {
				return nil, errs.Wrap(errs.ErrCodeInvalidRelation, err, "node %q: constraint", id)
			}
			if ct.Target == ContainerID {
				return nil, errs.New(errs.ErrCodeInvalidRelation, "node %q: constraint target must be a sibling", id)
			}
			t, err := target(id, ct.Target)
			if err != nil {
				return nil, err
			}
			if err := r.AddConstraint(children[i], relative.To(kind, t)); err != nil {
				return nil, errs.Wrap(errs.LayoutCode(err), err, "node %q: constraint", id)
			}
		}
	}
	return r, nil
}

func parseColor(id, field, s string, def scene.Color) (scene.Color, error) {
	if s == "" {
		return def, nil
	}
	c, err := scene.ParseColor(s)
	if err != nil {
		return scene.Color{}, errs.Wrap(errs.ErrCodeInvalidColor, err, "node %q: %s", id, field)
	}
	return c, nil
}

func buildStyle(n *Node) (scene.Style, error) {
	var s scene.Style
	if n.Style == nil {
		return s, nil
	}
	var err error
	if s.Margin, err = space(n.ID, "margin", n.Style.Margin); err != nil {
		return s, err
	}
	if s.Padding, err = space(n.ID, "padding", n.Style.Padding); err != nil {
		return s, err
	}
	if n.Style.BorderWidth < 0 {
		return s, errs.New(errs.ErrCodeInvalidScene, "node %q: negative border width", n.ID)
	}
	s.Border.Width = n.Style.BorderWidth
	if s.Border.Color, err = parseColor(n.ID, "border_color", n.Style.BorderColor, scene.Black); err != nil {
		return s, err
	}
	if s.Background, err = parseColor(n.ID, "background", n.Style.Background, scene.Color{}); err != nil {
		return s, err
	}
	return s, nil
}

type extent struct {
	field string
	v     int
}

func checkExtents(n *Node) error {
	ext := []extent{{"width", n.Width}, {"height", n.Height}, {"spacing", n.Spacing}}
	for _, v := range n.Offset {
		ext = append(ext, extent{"offset", v})
	}
	if st := n.Style; st != nil {
		ext = append(ext, extent{"border width", st.BorderWidth})
		for _, v := range st.Margin {
			ext = append(ext, extent{"margin", v})
		}
		for _, v := range st.Padding {
			ext = append(ext, extent{"padding", v})
		}
	}
	for _, e := range ext {
		if e.v > MaxExtent || e.v < -MaxExtent {
			return errs.New(errs.ErrCodeInvalidInput, "node %q: %s %d out of range (max %d)", n.ID, e.field, e.v, MaxExtent)
		}
	}
	if n.FontSize > MaxExtent {
		return errs.New(errs.ErrCodeInvalidInput, "node %q: font size %g out of range (max %d)", n.ID, n.FontSize, MaxExtent)
	}
	return nil
}

// space expands the CSS shorthand forms.
func space(id, field string, v []int) (scene.Space, error) {
	for _, n := range v {
		if n < 0 {
			return scene.Space{}, errs.New(errs.ErrCodeInvalidScene, "node %q: negative %s", id, field)
		}
	}
	switch len(v) {
	case 0:
		return scene.Space{}, nil
	case 1:
		return scene.All(v[0]), nil
	case 2:
		return scene.Sides(v[1], v[0]), nil
	case 4:
		return scene.Space{Top: v[0], Right: v[1], Bottom: v[2], Left: v[3]}, nil
	}
	return scene.Space{}, errs.New(errs.ErrCodeInvalidScene, "node %q: %s takes 1, 2 or 4 values", id, field)
}
