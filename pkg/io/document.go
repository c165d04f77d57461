package io

import (
	"encoding/json"

	"github.com/matzehuels/scenebox/pkg/cache"
)

// ContainerID is the relation target naming the enclosing container.
const ContainerID = "container"

// Document is the decoded form of a scene file. TOML and HCL files decode
// into the same structure.
type Document struct {
	Name string `toml:"name" hcl:"name,optional" json:"name,omitempty"`
	// Root is the id of the node the scene renders. It may be omitted when
	// exactly one node is not the child of another.
	Root string `toml:"root" hcl:"root,optional" json:"root,omitempty"`
	// Strict turns on strict mode for a relative root container.
	Strict bool   `toml:"strict" hcl:"strict,optional" json:"strict,omitempty"`
	Nodes  []Node `toml:"node" hcl:"node,block" json:"nodes"`
}

// Node describes one scene object. Which fields apply depends on Kind.
type Node struct {
	ID   string `toml:"id" hcl:"id,label" json:"id"`
	Kind string `toml:"kind" hcl:"kind" json:"kind"`

	// rect, spacer and image
	Width  int    `toml:"width" hcl:"width,optional" json:"width,omitempty"`
	Height int    `toml:"height" hcl:"height,optional" json:"height,omitempty"`
	Fill   string `toml:"fill" hcl:"fill,optional" json:"fill,omitempty"`
	Path   string `toml:"path" hcl:"path,optional" json:"path,omitempty"`

	// text
	Text     string  `toml:"text" hcl:"text,optional" json:"text,omitempty"`
	Font     string  `toml:"font" hcl:"font,optional" json:"font,omitempty"`
	FontSize float64 `toml:"font_size" hcl:"font_size,optional" json:"font_size,omitempty"`
	Color    string  `toml:"color" hcl:"color,optional" json:"color,omitempty"`

	// containers
	Children  []string `toml:"children" hcl:"children,optional" json:"children,omitempty"`
	Direction string   `toml:"direction" hcl:"direction,optional" json:"direction,omitempty"`
	Align     string   `toml:"align" hcl:"align,optional" json:"align,omitempty"`
	VAlign    string   `toml:"valign" hcl:"valign,optional" json:"valign,omitempty"`
	Spacing   int      `toml:"spacing" hcl:"spacing,optional" json:"spacing,omitempty"`
	Strict    bool     `toml:"strict" hcl:"strict,optional" json:"strict,omitempty"`

	// Placement inside a relative parent. Relations apply in order.
	Relations   []Relation `toml:"relation" hcl:"relation,block" json:"relations,omitempty"`
	Constraints []Relation `toml:"constraint" hcl:"constraint,block" json:"constraints,omitempty"`
	Offset      []int      `toml:"offset" hcl:"offset,optional" json:"offset,omitempty"`

	Style *Style `toml:"style" hcl:"style,block" json:"style,omitempty"`
}

// Relation places a node against Target, a sibling id or "container".
type Relation struct {
	Kind   string `toml:"kind" hcl:"kind,label" json:"kind"`
	Target string `toml:"target" hcl:"target" json:"target"`
}

// Style is the box model of a node. Margin and padding take one, two or
// four values like CSS: all sides, vertical then horizontal, or top, right,
// bottom, left.
type Style struct {
	Margin      []int  `toml:"margin" hcl:"margin,optional" json:"margin,omitempty"`
	Padding     []int  `toml:"padding" hcl:"padding,optional" json:"padding,omitempty"`
	BorderWidth int    `toml:"border_width" hcl:"border_width,optional" json:"border_width,omitempty"`
	BorderColor string `toml:"border_color" hcl:"border_color,optional" json:"border_color,omitempty"`
	Background  string `toml:"background" hcl:"background,optional" json:"background,omitempty"`
}

// Hash returns a stable content hash of the document, used in cache keys.
// Referenced image files are identified by path only.
func Hash(doc *Document) string {
	data, _ := json.Marshal(doc)
	return cache.Hash(data)
}
