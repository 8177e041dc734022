package stage

// FrameQueue is an easel.FrameScheduler that runs requested callbacks at the
// start of the next Stage.Draw, before layers are composited.
type FrameQueue struct {
	pending []*frameRequest
	frames  uint64
}

type frameRequest struct {
	fn        func()
	cancelled bool
}

// RequestFrame schedules fn for the next frame and returns a function that
// cancels it. Cancelling after the callback ran is a no-op.
func (q *FrameQueue) RequestFrame(fn func()) (cancel func()) {
	req := &frameRequest{fn: fn}
	q.pending = append(q.pending, req)
	return func() { req.cancelled = true }
}

// Len returns the number of callbacks waiting for the next frame, including
// cancelled ones that have not been drained yet.
func (q *FrameQueue) Len() int { return len(q.pending) }

// Frames returns how many times Flush has run.
func (q *FrameQueue) Frames() uint64 { return q.frames }

// Flush runs every callback queued before the call. Callbacks requested
// while flushing wait for the next frame. Returns the number of callbacks
// run.
func (q *FrameQueue) Flush() int {
	q.frames++
	if len(q.pending) == 0 {
		return 0
	}
	batch := q.pending
	q.pending = nil
	ran := 0
	for _, req := range batch {
		if req.cancelled {
			continue
		}
		req.cancelled = true
		req.fn()
		ran++
	}
	return ran
}
