// Package stage is an Ebitengine binding for the easel core.
//
// It supplies the concrete scene graph the core drives: [Node] satisfies
// easel.SceneNode, [Layer] satisfies easel.Layer and [Stage] satisfies
// easel.Surface and ebiten.Game. A [FrameQueue] schedules batched paints at
// the start of each Draw, the input pump turns mouse and keyboard state
// into router events, and [Transformer] draws and drives the shared
// resize/rotate handles. [Builder] is a default easel.NodeBuilder for every
// element type.
//
// # Quick start
//
//	st := stage.New(1280, 720)
//	canvas := easel.New(store, st.Frames(), st.Transformer(), easel.DefaultConfig())
//	st.SetHandler(canvas.Router())
//	st.Transformer().OnTransformStart = canvas.Selection().TransformStart
//	st.Transformer().OnTransformEnd = func() { canvas.Selection().TransformEnd() }
//	if err := canvas.Init(st); err != nil {
//	    log.Fatal(err)
//	}
//	canvas.SyncElements(store.Elements(), stage.NewBuilder())
//	log.Fatal(stage.Run(st, stage.RunConfig{Title: "diagram"}))
//
// # Coordinates
//
// Layer roots carry the identity transform, so node positions are element
// coordinates. The [Camera] maps world to screen when layers are painted;
// wheel zoom is tweened with gween and keeps the point under the cursor
// fixed.
//
// Like the core, the package is not safe for concurrent use.
package stage
