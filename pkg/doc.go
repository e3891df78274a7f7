// Package pkg provides the core libraries for Chunkmaze level generation.
//
// # Overview
//
// Chunkmaze grows levels from prefab chunks. A catalog of templates (rooms,
// corridors, caps) is drawn from at random and each new chunk is joined
// socket to socket onto an open socket of the level until a depth budget is
// spent. Sockets left open become dead ends; one becomes the exit, one an
// enemy spawn, some get batteries, and the player spawns at the origin.
// Regeneration tears the level down and grows a larger one.
//
// # Architecture
//
// The typical data flow:
//
//	Template catalog (TOML/YAML/JSON)
//	         ↓
//	    [catalog] package (load, schema check, validate)
//	         ↓
//	    [maze] package (grow, select exit and enemy, populate)
//	         ↓
//	    [io] package (layout snapshot, JSON export)
//	         ↓
//	    [render] package (DOT, SVG, ASCII floor plan)
//
// # Quick Start
//
//	import (
//	    "context"
//	    "fmt"
//
//	    "github.com/matzehuels/chunkmaze/pkg/catalog"
//	    "github.com/matzehuels/chunkmaze/pkg/maze"
//	    "github.com/matzehuels/chunkmaze/pkg/scene"
//	)
//
//	cfg := maze.DefaultConfig(catalog.Default())
//	cfg.Seed = 42
//	sc := scene.NewMemory()
//	g, _ := maze.NewGenerator(cfg, sc, nil)
//	rep, _ := g.Generate(context.Background())
//	fmt.Println(len(rep.Maze.Chunks), "chunks,", len(rep.Maze.DeadEnds), "dead ends")
//
// # Main Packages
//
// ## Domain
//
// [geom] - Vectors, yaw rotations, poses and oriented boxes.
//
// [catalog] - Template library: sockets, collision volumes, markers, and the
// built-in catalog.
//
// [maze] - The generator: frontier growth, overlap rejection, dead-end
// capping, exit and enemy selection, batteries and player spawn.
//
// [scene] - The world the generator spawns into. [scene.Memory] records
// every object for snapshots and tests.
//
// [oracle] - Overlap queries against placed volumes.
//
// ## Serialization & Rendering
//
// [io] - Layout snapshots and their JSON form.
//
// [render] - Graphviz DOT and SVG chunk graphs, ASCII floor plans.
//
// ## Infrastructure
//
// [pipeline] - Catalog → generate → render with caching, batches and live
// sessions. Used by the CLI and the server.
//
// [cache] - Layout and artifact cache with file (zstd) and Redis backends.
//
// [archive] - Run archive in memory, SQLite or MongoDB.
//
// [server] - HTTP API and WebSocket generation stream.
//
// [observability] - Hook registry for generation, pipeline, cache and HTTP
// events.
//
// [errors] - Error codes shared by the CLI and the API.
//
// # Testing
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/maze/...      # Specific package
package pkg
