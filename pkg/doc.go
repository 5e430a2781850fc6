// Package pkg provides the core libraries for familygrid family-tree layout.
//
// # Overview
//
// Familygrid lays family trees out on a grid: every generation becomes a row
// of persons framed by two connector rows, one joining siblings and one
// joining parents. The pkg directory is organized into four main areas:
//
//  1. Domain logic: [tree], [layers], [grid]
//  2. Output: [render] and its text, svg and nodelink subpackages
//  3. Infrastructure: [cache], [store], [config], [observability], [errors]
//  4. Orchestration: [pipeline] and the HTTP [api]
//
// # Architecture
//
// The typical data flow through familygrid:
//
//	Tree file or stored tree
//	         ↓
//	    [tree] package (snapshot, edits, consistency checks)
//	         ↓
//	    [layers] package (one generation per person)
//	         ↓
//	    [grid] package (person rows + connector rows)
//	         ↓
//	    [render] packages (text, SVG, DOT, PNG, PDF)
//
// # Quick Start
//
// Load a tree, lay it out and print it:
//
//	import (
//	    "github.com/matzehuels/familygrid/pkg/grid"
//	    "github.com/matzehuels/familygrid/pkg/layers"
//	    "github.com/matzehuels/familygrid/pkg/render"
//	    "github.com/matzehuels/familygrid/pkg/render/text"
//	    "github.com/matzehuels/familygrid/pkg/tree"
//	)
//
//	s, _ := tree.Read("family.json")
//	l := layers.Assign(s)
//	g, _ := grid.Build(s, l)
//	bands, _ := grid.Bands(s.Relationships(), l)
//	fmt.Print(text.Render(g, text.Options{Labels: render.LabelsOf(s), Bands: bands}))
//
// For caching, stored trees and multiple output formats use [pipeline.Runner].
//
// # Main Packages
//
// [tree] - Immutable tree snapshots. Every edit returns a new snapshot with
// the version increased by one and is checked for consistency.
//
// [layers] - Partition of persons into ordered generations, the contract
// between generation assignment and grid construction.
//
// [grid] - Grid construction: person rows, candidate groups, conflict-free
// range resolution and connector cell classification.
//
// [render] - Connection colours, line geometry and the PNG/PDF converters.
// [render/text] draws box-drawing grids, [render/svg] vector grids and
// [render/nodelink] Graphviz diagrams.
//
// [cache] - Content-addressed caching with file, Redis and null backends.
//
// [store] - Versioned tree storage on disk or in MongoDB with optimistic
// concurrency.
//
// [pipeline] - The load → layers → grid → render pipeline shared by the CLI
// and the HTTP API.
//
// [api] - JSON HTTP API for stored trees.
//
// # Error Handling
//
// Errors carry a machine-readable code from [errors]. Use [errors.Is] to
// check a code and [errors.HTTPStatus] to map it to a status.
//
// [tree]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/tree
// [layers]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/layers
// [grid]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/grid
// [render]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/render
// [render/text]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/render/text
// [render/svg]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/render/svg
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/render/nodelink
// [cache]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/store
// [config]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/errors
// [errors.Is]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/errors#Is
// [errors.HTTPStatus]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/errors#HTTPStatus
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/pipeline
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/pipeline#Runner
// [api]: https://pkg.go.dev/github.com/matzehuels/familygrid/pkg/api
package pkg
