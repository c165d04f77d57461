package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/scenebox/pkg/scene"
)

// Layout is the JSON form of a solved scene. Coordinates are absolute
// pixels in the rendered image.
type Layout struct {
	Name   string      `json:"name,omitempty"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Nodes  []Placement `json:"nodes"`
	// Pruned lists nodes discarded by strict containers.
	Pruned []string `json:"pruned,omitempty"`
}

// Placement is one laid out node.
type Placement struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Parent string `json:"parent,omitempty"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ExportLayout solves s and flattens every container into absolute
// placements, parents before children.
func ExportLayout(s *scene.Scene) (*Layout, error) {
	w, h, err := s.Size()
	if err != nil {
		return nil, err
	}
	root := s.Root()
	out := &Layout{Name: s.Name, Width: w, Height: h}
	out.Nodes = append(out.Nodes, Placement{ID: s.ID(root), Kind: scene.Kind(root), Width: w, Height: h})
	if err := flatten(s, root, 0, 0, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(s *scene.Scene, o scene.Object, x, y int, out *Layout) error {
	a, ok := o.(scene.Arranger)
	if !ok {
		return nil
	}
	l, err := a.Arrange()
	if err != nil {
		return fmt.Errorf("arrange %s: %w", s.ID(o), err)
	}
	origin := o.Style().ContentOrigin()
	x, y = x+origin.X, y+origin.Y
	for _, p := range l.Placements {
		child, ok := p.Item.(scene.Object)
		if !ok {
			continue
		}
		out.Nodes = append(out.Nodes, Placement{
			ID:     s.ID(child),
			Kind:   scene.Kind(child),
			Parent: s.ID(o),
			X:      x + p.X,
			Y:      y + p.Y,
			Width:  p.Width,
			Height: p.Height,
		})
		if err := flatten(s, child, x+p.X, y+p.Y, out); err != nil {
			return err
		}
	}
	for _, it := range l.Pruned {
		out.Pruned = append(out.Pruned, s.ID(it))
	}
	return nil
}

// WriteLayoutJSON solves s and writes its placements as indented JSON.
func WriteLayoutJSON(s *scene.Scene, w io.Writer) error {
	l, err := ExportLayout(s)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportLayoutJSON writes the layout of s to a file at path.
func ExportLayoutJSON(s *scene.Scene, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteLayoutJSON(s, f)
}
