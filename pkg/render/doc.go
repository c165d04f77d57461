// Package render groups the output stages of scenebox.
//
//   - [composite]: alpha-composites rendered objects into one raster image
//     and encodes it as PNG or JPEG.
//   - [nodelink]: draws the relation graph of a scene with Graphviz.
//
// Object rendering itself lives with the objects in package scene; this
// package tree only assembles and encodes.
//
// [composite]: github.com/matzehuels/scenebox/pkg/render/composite
// [nodelink]: github.com/matzehuels/scenebox/pkg/render/nodelink
package render
