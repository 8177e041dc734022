// Package easel is the synchronization and interaction core of a 2D
// diagramming surface (shapes, text, tables, connectors).
//
// The element data is owned by an external store and never mutated here.
// easel keeps a retained scene graph in lock-step with that data, repaints
// it in frame-sized batches, and routes pointer and keyboard input back into
// the store.
//
// # Components
//
// A [Canvas] owns one instance of each component:
//
//   - [Registry]: the element id to [SceneNode] map, the four fixed
//     [LayerName] surfaces, and the init/ready/destroy state machine.
//   - [DrawBatcher]: coalesces repaint requests per layer into one frame
//     callback obtained from a [FrameScheduler].
//   - [Router]: resolves raw pointer and keyboard events to element ids and
//     applies selection, group drag, double-click and hover semantics.
//   - [Selection]: attaches the shared [Transformer] to the current selection
//     and normalizes scale back into element geometry when a gesture ends.
//
// # Quick start
//
//	canvas := easel.New(store, frames, transformer, easel.DefaultConfig())
//	if err := canvas.Init(surface); err != nil {
//		log.Fatal(err)
//	}
//	canvas.SyncElements(store.Elements(), builder)
//
// The scene graph itself is abstract. Package stage provides an Ebitengine
// binding ([SceneNode], [Layer], [Surface], [FrameScheduler] and
// [Transformer]) and package memstore an in-memory [ElementStore].
//
// # Threading
//
// Everything runs on the host's single event-loop goroutine. The only
// deferred work is the batcher's frame callback. None of the types in this
// package are safe for concurrent use.
package easel
