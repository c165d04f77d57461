// Package nodelink draws the relation graph of a scene as a node-link
// diagram.
//
// # Overview
//
// Relations are easy to get wrong: a missing anchor leaves a node unresolved
// and a loop of "below" relations is a cycle. Looking at the graph is usually
// the quickest way to see why. Each relative container is drawn as a cluster
// and each relation as a labeled arrow from the reference node to the node
// it places.
//
// # Usage
//
//	dot := nodelink.ToDOT(s, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//	png, err := nodelink.RenderPNG(dot, 2.0) // 2x scale
//
// ToDOT does not solve the layout, so it works on scenes whose layout fails.
// With Detailed set, labels include each node's symbolic top-left corner
// when the container's positions can be derived.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering.
package nodelink
