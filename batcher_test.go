package easel

import (
	"errors"
	"slices"
	"testing"
)

func newTestBatcher(t *testing.T) (*DrawBatcher, *fakeSurface, *manualScheduler) {
	t.Helper()
	r, s := newReadyRegistry(t, Config{})
	s.log = nil
	sched := &manualScheduler{}
	return NewDrawBatcher(r, sched), s, sched
}

func TestScheduleDrawCoalesces(t *testing.T) {
	b, s, sched := newTestBatcher(t)

	b.ScheduleDraw(LayerMain)
	b.ScheduleDraw(LayerOverlay)
	b.ScheduleDraw(LayerMain)

	if sched.requests != 1 {
		t.Fatalf("frame requests = %d, want 1", sched.requests)
	}
	if !b.Pending() {
		t.Error("Pending should be true before the frame runs")
	}
	if ran := sched.flush(); ran != 1 {
		t.Fatalf("frames run = %d, want 1", ran)
	}
	want := []string{"draw main", "draw overlay"}
	if !slices.Equal(s.log, want) {
		t.Errorf("paints = %v, want %v", s.log, want)
	}
	if b.Pending() || b.Dirty(LayerMain) {
		t.Error("frame should clear the scheduled flag and dirty set")
	}
	if st := b.Stats(); st.Frames != 1 || st.LayersPainted != 2 || st.Requests != 3 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestFramePaintOrder(t *testing.T) {
	b, s, sched := newTestBatcher(t)
	b.ScheduleDraw(LayerPreview)
	b.ScheduleDraw(LayerOverlay)
	b.ScheduleDraw(LayerMain)
	sched.flush()

	want := []string{"draw main", "draw overlay", "draw preview"}
	if !slices.Equal(s.log, want) {
		t.Errorf("paints = %v, want %v", s.log, want)
	}
}

func TestScheduleDrawDuringPaintStartsNewCycle(t *testing.T) {
	b, s, sched := newTestBatcher(t)
	once := false
	s.layers[LayerMain].onDraw = func() {
		if !once {
			once = true
			b.ScheduleDraw(LayerOverlay)
		}
	}

	b.ScheduleDraw(LayerMain)
	sched.flush()
	if !b.Pending() {
		t.Fatal("ScheduleDraw during paint should request a new frame")
	}
	if sched.requests != 2 {
		t.Errorf("frame requests = %d, want 2", sched.requests)
	}
	sched.flush()
	want := []string{"draw main", "draw overlay"}
	if !slices.Equal(s.log, want) {
		t.Errorf("paints = %v, want %v", s.log, want)
	}
}

func TestPaintFailureIsolated(t *testing.T) {
	tests := []struct {
		name  string
		setup func(l *fakeLayer)
	}{
		{"error", func(l *fakeLayer) { l.drawErr = errBoom }},
		{"panic", func(l *fakeLayer) { l.onDraw = func() { panic("paint exploded") } }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, s, sched := newTestBatcher(t)
			tt.setup(s.layers[LayerMain])

			b.ScheduleDraw(LayerMain)
			b.ScheduleDraw(LayerOverlay)
			sched.flush()

			if s.layers[LayerOverlay].draws != 1 {
				t.Errorf("overlay draws = %d, want 1", s.layers[LayerOverlay].draws)
			}
			if st := b.Stats(); st.DrawErrors != 1 {
				t.Errorf("DrawErrors = %d, want 1", st.DrawErrors)
			}
		})
	}
}

func TestForceDraw(t *testing.T) {
	b, s, sched := newTestBatcher(t)
	s.layers[LayerMain].drawErr = errBoom

	err := b.ForceDraw(LayerMain)
	var de *DrawError
	if !errors.As(err, &de) || de.Layer != LayerMain {
		t.Fatalf("ForceDraw error = %v, want *DrawError for main", err)
	}
	if !errors.Is(err, errBoom) {
		t.Error("DrawError should unwrap to the paint error")
	}
	if err := b.ForceDraw(LayerBackground); err != nil {
		t.Errorf("ForceDraw(background): %v", err)
	}
	if sched.requests != 0 {
		t.Error("ForceDraw should not schedule a frame")
	}

	s.log = nil
	if err := b.ForceDrawAll(); err == nil {
		t.Error("ForceDrawAll should report the main failure")
	}
	want := []string{"draw background", "draw main", "draw preview", "draw overlay"}
	if !slices.Equal(s.log, want) {
		t.Errorf("ForceDrawAll paints = %v, want %v", s.log, want)
	}
}

func TestScheduleDrawIgnoresBackground(t *testing.T) {
	b, _, sched := newTestBatcher(t)
	b.ScheduleDraw(LayerBackground)
	if sched.requests != 0 || b.Pending() {
		t.Error("scheduling the background layer should be ignored")
	}
}

func TestCancelScheduledDraw(t *testing.T) {
	b, s, sched := newTestBatcher(t)
	b.ScheduleDraw(LayerMain)
	b.CancelScheduledDraw()

	if b.Pending() || b.Dirty(LayerMain) {
		t.Error("cancel should drop the pending frame and dirty set")
	}
	if sched.cancels != 1 {
		t.Errorf("scheduler cancels = %d, want 1", sched.cancels)
	}
	sched.flush()
	if len(s.log) != 0 {
		t.Errorf("cancelled frame painted %v", s.log)
	}

	b.ScheduleDraw(LayerOverlay)
	sched.flush()
	if !slices.Equal(s.log, []string{"draw overlay"}) {
		t.Errorf("paints after cancel = %v", s.log)
	}
}

func TestInvalidateAll(t *testing.T) {
	b, s, sched := newTestBatcher(t)
	b.InvalidateAll()
	sched.flush()
	want := []string{"draw main", "draw overlay", "draw preview"}
	if !slices.Equal(s.log, want) {
		t.Errorf("paints = %v, want %v", s.log, want)
	}
}
