// Package ground is an animated board-game grid engine for [Ebitengine].
//
// A [Board] keeps the logical state of a rectangular grid (pieces keyed by
// square name, orientation, selection, highlights, drag) and a retained tree
// of square and piece nodes that mirrors it. Every state change goes through
// one of two mutation wrappers:
//
//   - [Render] applies the change and schedules one coalesced redraw.
//   - [Anim] snapshots the placement, applies the change, diffs the two
//     placements with [ComputePlan] and hands the resulting motion vectors to
//     the board's [Animator].
//
// The animator decays every vector along an in-out cubic curve, one step per
// frame, and calls the reconciler after each step. The reconciler updates the
// node tree in two passes, reusing the node of an unmoved piece, pulling a
// moved piece's node from its origin, and creating or disposing only what
// remains.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	scene := ground.NewScene(logger)
//	board, err := scene.NewBoard(cfg, ground.BoardOptions{
//		Bounds: ground.Rect{Width: 512, Height: 512},
//	})
//	// ... handle err ...
//	ground.Run(scene, ground.RunConfig{
//		Title: "Board", Width: 512, Height: 512,
//	})
//
// The scene routes mouse and touch input to board drags. Frame callbacks
// requested by boards run at the start of every [Scene.Update].
//
// # Headless use
//
// A board does not need a window. Pass a [FrameQueue] and any [Clock] in
// [BoardOptions] and flush the queue yourself; the term subpackage renders a
// board into a terminal this way.
//
// # Configuration
//
// [LoadConfig] reads a YAML, TOML or JSON file (plus GROUND_* environment
// overrides) into a [Config] that [NewBoard] and [Board.Set] accept.
//
// [Ebitengine]: https://ebitengine.org
package ground
