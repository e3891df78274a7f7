// Package maze grows a level out of catalog chunks.
//
// Generation is a single synchronous pass:
//
//  1. A random reusable template is placed at the origin and all of its
//     sockets form the initial frontier.
//  2. While the frontier is non-empty and the depth budget allows, a socket
//     is drawn uniformly from the frontier and removed. [Generator.TryConnect]
//     draws a template and one of its sockets, aligns that socket to the
//     target, and tries the four quarter-turn rotations in shuffled order. The
//     first rotation the [oracle.Oracle] accepts is committed; if none is
//     accepted the socket stays a dead end.
//  3. Navigation is baked, an exit socket (an open, capped dead end) and an
//     enemy socket (anything but an open dead end) are selected with a
//     bounded number of draws, and batteries and the player are spawned.
//
// [Generator.Regenerate] tears the level down, raises the depth budget and
// runs the pass again, moving the existing player back to its anchor.
//
// Chunk poses are expressed in the maze root frame. The [scene.Scene] receives
// world poses obtained by composing the root pose with them.
//
// A Generator is not safe for concurrent use. Independent generators may run
// in parallel.
package maze
