// Package io reads scene files and writes solved layouts.
//
// # Scene files
//
// A scene is a flat list of nodes. Containers name their children by id and
// the root is the single node no other node contains (or the one named by
// root). Both TOML and HCL are accepted; they decode into the same
// [Document]:
//
//	name = "card"
//
//	[[node]]
//	id = "card"
//	kind = "relative"
//	children = ["title", "body"]
//	[node.style]
//	padding = [8]
//	background = "white"
//
//	[[node]]
//	id = "title"
//	kind = "text"
//	text = "Hello"
//	[[node.relation]]
//	kind = "align_top"
//	target = "container"
//	[[node.relation]]
//	kind = "center_horizontal"
//	target = "container"
//
//	[[node]]
//	id = "body"
//	kind = "rect"
//	width = 120
//	height = 40
//	fill = "#3366ff"
//	[[node.relation]]
//	kind = "below"
//	target = "title"
//
// The same scene in HCL, with a variable:
//
//	variable "accent" { default = "#3366ff" }
//
//	node "body" {
//	  kind = "rect"
//	  fill = var.accent
//	  relation "below" { target = "title" }
//	}
//
// Node kinds are rect, spacer, text, image, flex, stack and relative.
// Relations and constraints are only valid on children of a relative node;
// their target is a sibling id or "container". Relations are applied in the
// order they are written, so a later relation overrides an earlier one on
// the same coordinate.
//
// # Building
//
// [Build] validates a document and returns a [scene.Scene]. Failures carry an
// error code from package errors so the CLI and the HTTP API can report
// them uniformly.
//
// # Layout export
//
// [WriteLayoutJSON] solves a scene and writes the absolute position of every
// node, parents first, together with the ids pruned by strict containers.
package io
