// Package pkg provides the core libraries of scenebox.
//
// # Overview
//
// Scenebox lays out scenes of boxes placed relative to each other ("b below
// a, aligned left") and renders them. Containers infer their own size from
// their children. The pkg directory is organized into four main areas:
//
//  1. [core] - Domain logic (linear expressions, boxes, the relation graph,
//     the relative layout solver)
//  2. [scene] - Drawable objects and containers built on the solver
//  3. [io] - Scene files (TOML, HCL) and layout export
//  4. [pipeline] - Orchestration (load → layout → render) with caching
//
// # Architecture
//
// The typical data flow through scenebox:
//
//	Scene file (TOML / HCL)
//	         ↓
//	    [io] package (decode, validate, build objects)
//	         ↓
//	    [scene] package (objects and containers)
//	         ↓
//	    [core/relative] package (order relations, fold positions, infer size)
//	         ↓
//	    PNG/JPEG/JSON/DOT/SVG output
//
// # Quick Start
//
// Build a relative container in code and render it:
//
//	import (
//	    "github.com/matzehuels/scenebox/pkg/core/relative"
//	    "github.com/matzehuels/scenebox/pkg/scene"
//	)
//
//	r := scene.NewRelative(scene.Style{}, false)
//	a := scene.NewRect(10, 10, scene.RGB(255, 0, 0), scene.Style{})
//	b := scene.NewRect(20, 5, scene.RGB(0, 0, 255), scene.Style{})
//	_ = r.AddChild(a)
//	_ = r.AddChild(b, relative.PlaceBelow(a), relative.AlignLeft(a))
//
//	img, err := r.Render() // 20x15
//
// # Main Packages
//
// [core/expr] - Linear expressions over named symbols with exact rational
// coefficients, substitution and bound extraction.
//
// [core/box] - Symbolic boxes and the relations that constrain one box
// against another.
//
// [core/dag] - Generic directed graph with multi-labeled edges and a
// deterministic topological sort.
//
// [core/relative] - The relative layout container: children, relations,
// size constraints, strict pruning and size inference.
//
// [render/composite] - Alpha compositing and raster encoding.
//
// [render/nodelink] - Relation graphs drawn with Graphviz.
//
// ## Infrastructure
//
// [cache] - File, Redis and null caches plus the render memo used by
// objects.
//
// [errors] - Error codes shared by the CLI and the HTTP API.
//
// [observability] - Hooks for pipeline, cache and HTTP events.
//
// [core]: https://pkg.go.dev/github.com/matzehuels/scenebox/pkg/core
// [core/expr]: https://pkg.go.dev/github.com/matzehuels/scenebox/pkg/core/expr
// [core/box]: https://pkg.go.dev/github.com/matzehuels/scenebox/pkg/core/box
// [core/dag]: https://pkg.go.dev/github.com/matzehuels/scenebox/pkg/core/dag
// [core/relative]: https://pkg.go.dev/github.com/matzehuels/scenebox/pkg/core/relative
// [scene]: https://pkg.go.dev/github.com/matzehuels/scenebox/pkg/scene
// [io]: https://pkg.go.dev/github.com/matzehuels/scenebox/pkg/io
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/scenebox/pkg/pipeline
// [render/composite]: https://pkg.go.dev/github.com/matzehuels/scenebox/pkg/render/composite
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/scenebox/pkg/render/nodelink
// [cache]: https://pkg.go.dev/github.com/matzehuels/scenebox/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/scenebox/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/scenebox/pkg/observability
package pkg
