// Package render draws generated levels.
//
// # Overview
//
// Two views are provided, both working from an [io.Layout] snapshot:
//
//   - A link graph: one node per chunk, one edge per connected socket pair,
//     emitted as Graphviz DOT by [ToDOT] and rendered to SVG by [RenderSVG].
//   - A floor plan: a top-down character grid from [ASCII], used by the
//     terminal player and the "txt" output format.
//
// # Link Graph
//
//	dot := render.ToDOT(layout, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// Edges run from the extended chunk to the chunk placed against it, labelled
// with the two socket names. The exit chunk is filled gold, single-use chunks
// grey, and the enemy chunk is outlined in red.
//
// # Floor Plan
//
//	fmt.Println(render.ASCII(layout, 80, 32))
//
// Glyphs: '#' wall, '.' floor or doorway, '+' open dead end, 'E' exit,
// '!' enemy, '@' player, '*' battery. The plan is stretched to fill the grid
// independently along each axis.
//
// # Dependencies
//
// [RenderSVG] uses [github.com/goccy/go-graphviz], which runs Graphviz
// in-process. No external binaries are needed.
package render
