// Package io provides JSON import and export of generated levels.
//
// # Overview
//
// A [Layout] is a self-contained snapshot of one generation pass: every
// placed chunk with its pose and sockets, the socket links, the open frontier,
// the dead ends, the exit and enemy selection, and the spawned actors. It is
// what the pipeline caches, the API returns and the renderers draw. Layouts
// are plain data; they do not reference a live scene.
//
// # JSON Format
//
//	{
//	  "seed": 42,
//	  "round": 0,
//	  "budget": 10,
//	  "depth": 3,
//	  "chunks": [
//	    {"index": 0, "template": "cross", "position": [0, 0, 0], "yaw": 0,
//	     "volume": {"center": [0, 2, 0], "half_extents": [5, 2, 5]},
//	     "points": [{"name": "east", "position": [5, 0, 0], "world": [5, 0, 0],
//	                 "marker": "door_east", "marker_active": false, "consumed": true,
//	                 "link": {"chunk": 1, "point": 1}}]}
//	  ],
//	  "links": [{"from": {"chunk": 0, "point": 0}, "to": {"chunk": 1, "point": 1}}],
//	  "selection": {"exit": {"chunk": 2, "point": 3}, "enemy": {"chunk": 1, "point": 0}},
//	  "spawns": [{"kind": "player", "asset": "player", "position": [0, 1, 0]}]
//	}
//
// Vectors are three-element arrays. Socket "position" is in the chunk frame,
// "world" in the maze root frame.
//
// # Import
//
// Use [ImportJSON] to read a layout from a file path, or [ReadJSON] to read
// from any io.Reader. Both validate that every socket reference points at an
// existing chunk and socket.
//
// # Export
//
// Use [ExportJSON] to write a layout to a file, or [WriteJSON] to write to any
// io.Writer. [FromReport] builds a layout from a generator report.
package io
