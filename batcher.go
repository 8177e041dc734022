package easel

import (
	"errors"
	"fmt"
)

// BatcherStats counts paint work done by a DrawBatcher.
type BatcherStats struct {
	Frames        int // executed frame callbacks
	LayersPainted int // successful layer paints, batched and forced
	DrawErrors    int
	Requests      int // ScheduleDraw calls accepted
}

// DrawBatcher coalesces repaint requests per layer into a single frame
// callback. Any number of ScheduleDraw calls before the frame fires result
// in one paint of each dirty layer.
type DrawBatcher struct {
	layers    LayerSource
	scheduler FrameScheduler

	dirty     map[LayerName]bool
	scheduled bool
	cancel    func()
	stats     BatcherStats
}

// NewDrawBatcher creates a batcher painting the layers of src.
func NewDrawBatcher(src LayerSource, scheduler FrameScheduler) *DrawBatcher {
	return &DrawBatcher{
		layers:    src,
		scheduler: scheduler,
		dirty:     make(map[LayerName]bool, len(paintOrder)),
	}
}

// Stats returns the paint counters.
func (b *DrawBatcher) Stats() BatcherStats {
	return b.stats
}

// Pending reports whether a frame callback is scheduled.
func (b *DrawBatcher) Pending() bool {
	return b.scheduled
}

// Dirty reports whether layer awaits the next batched repaint.
func (b *DrawBatcher) Dirty(layer LayerName) bool {
	return b.dirty[layer]
}

// ScheduleDraw marks layer dirty and schedules a frame if none is pending.
// The background layer is static and is only painted by ForceDraw.
func (b *DrawBatcher) ScheduleDraw(layer LayerName) {
	if !batchable(layer) {
		Logger().Warn("easel: layer cannot be batched", "layer", layer)
		return
	}
	b.stats.Requests++
	b.dirty[layer] = true
	b.schedule()
}

// InvalidateAll marks every batchable layer dirty and schedules a frame.
func (b *DrawBatcher) InvalidateAll() {
	for _, name := range paintOrder {
		b.dirty[name] = true
	}
	b.schedule()
}

func (b *DrawBatcher) schedule() {
	if b.scheduled {
		return
	}
	b.scheduled = true
	b.cancel = b.scheduler.RequestFrame(b.frame)
}

// CancelScheduledDraw drops the pending frame and the dirty set without
// painting.
func (b *DrawBatcher) CancelScheduledDraw() {
	if b.cancel != nil {
		b.cancel()
	}
	b.cancel = nil
	b.scheduled = false
	clear(b.dirty)
}

// frame is the scheduled callback. The dirty set and the scheduled flag are
// reset together before painting, so a ScheduleDraw made while painting
// starts a fresh cycle.
func (b *DrawBatcher) frame() {
	var todo [len(paintOrder)]LayerName
	n := 0
	for _, name := range paintOrder {
		if b.dirty[name] {
			todo[n] = name
			n++
		}
	}
	clear(b.dirty)
	b.scheduled = false
	b.cancel = nil
	b.stats.Frames++

	for _, name := range todo[:n] {
		b.paint(name)
	}
}

// ForceDraw paints layer synchronously, bypassing batching.
func (b *DrawBatcher) ForceDraw(layer LayerName) error {
	return b.paint(layer)
}

// ForceDrawAll paints every layer synchronously, bottom first, and returns
// the joined paint errors.
func (b *DrawBatcher) ForceDrawAll() error {
	var errs []error
	for _, name := range Layers {
		if err := b.paint(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// paint repaints one layer, containing errors and panics.
func (b *DrawBatcher) paint(name LayerName) error {
	l, ok := b.layers.Layer(name)
	if !ok {
		err := &DrawError{Layer: name, Err: fmt.Errorf("no such layer")}
		b.stats.DrawErrors++
		Logger().Warn("easel: draw skipped", "layer", name, "err", err)
		return err
	}
	if err := safely(l.Draw); err != nil {
		derr := &DrawError{Layer: name, Err: err}
		b.stats.DrawErrors++
		Logger().Warn("easel: draw failed", "layer", name, "err", err)
		return derr
	}
	b.stats.LayersPainted++
	return nil
}

func batchable(layer LayerName) bool {
	for _, name := range paintOrder {
		if name == layer {
			return true
		}
	}
	return false
}
