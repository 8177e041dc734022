package stage

import (
	"testing"

	"github.com/tanema/gween/ease"

	"github.com/phanxgames/easel"
)

func newTestCamera() *Camera {
	return NewCamera(easel.Rect{Width: 800, Height: 600})
}

func TestCameraDefaults(t *testing.T) {
	c := newTestCamera()
	if c.X != 400 || c.Y != 300 || c.Zoom != 1 {
		t.Errorf("camera = (%v, %v) zoom %v", c.X, c.Y, c.Zoom)
	}
	// World and screen coincide at the default position.
	wx, wy := c.ScreenToWorld(123, 45)
	assertNear(t, "wx", wx, 123)
	assertNear(t, "wy", wy, 45)
}

func TestCameraScreenWorldRoundtrip(t *testing.T) {
	c := newTestCamera()
	c.X, c.Y, c.Zoom = 1000, -200, 2.5
	c.MarkDirty()

	sx, sy := c.WorldToScreen(1010, -180)
	assertNear(t, "sx", sx, 400+10*2.5)
	assertNear(t, "sy", sy, 300+20*2.5)

	wx, wy := c.ScreenToWorld(sx, sy)
	assertNear(t, "wx", wx, 1010)
	assertNear(t, "wy", wy, -180)
}

func TestCameraVisibleBounds(t *testing.T) {
	c := newTestCamera()
	c.Zoom = 2
	c.MarkDirty()
	assertRect(t, "VisibleBounds", c.VisibleBounds(), easel.Rect{X: 200, Y: 150, Width: 400, Height: 300})
}

func TestCameraZoomAtKeepsAnchor(t *testing.T) {
	c := newTestCamera()
	c.ZoomDuration = 0

	beforeX, beforeY := c.ScreenToWorld(100, 100)
	c.ZoomAt(100, 100, 2)

	if c.Zoom != 2 {
		t.Errorf("Zoom = %v, want 2", c.Zoom)
	}
	afterX, afterY := c.ScreenToWorld(100, 100)
	assertNear(t, "anchor x", afterX, beforeX)
	assertNear(t, "anchor y", afterY, beforeY)
}

func TestCameraZoomClamps(t *testing.T) {
	c := newTestCamera()
	c.ZoomDuration = 0

	c.ZoomAt(400, 300, 1000)
	if c.Zoom != c.MaxZoom {
		t.Errorf("Zoom = %v, want max %v", c.Zoom, c.MaxZoom)
	}
	c.ZoomAt(400, 300, 1e-6)
	if c.Zoom != c.MinZoom {
		t.Errorf("Zoom = %v, want min %v", c.Zoom, c.MinZoom)
	}
}

func TestCameraZoomTween(t *testing.T) {
	c := newTestCamera()
	c.ZoomDuration = 0.1
	c.ZoomAt(400, 300, 2)

	if !c.Animating() {
		t.Fatal("zoom should animate")
	}
	if c.Zoom != 1 {
		t.Error("zoom should not jump before the first update")
	}
	if !c.update(0.05) {
		t.Error("a tween step should report a view change")
	}
	if c.Zoom <= 1 || c.Zoom >= 2 {
		t.Errorf("mid-tween Zoom = %v, want between 1 and 2", c.Zoom)
	}
	c.update(0.1)
	assertNear(t, "final zoom", c.Zoom, 2)
	if c.Animating() {
		t.Error("tween should be finished")
	}
	// The viewport center was the anchor, so the camera stays put.
	assertNear(t, "X", c.X, 400)
	assertNear(t, "Y", c.Y, 300)
}

func TestCameraZoomChainsPendingTarget(t *testing.T) {
	c := newTestCamera()
	c.ZoomDuration = 0.1
	c.ZoomAt(400, 300, 2)
	c.ZoomAt(400, 300, 2)
	c.update(1)
	assertNear(t, "Zoom", c.Zoom, 4)
}

func TestCameraScrollTo(t *testing.T) {
	c := newTestCamera()
	c.ScrollTo(0, 0, 0.2, ease.Linear)
	c.update(0.1)
	// Tweens run in float32.
	if c.X < 199.9 || c.X > 200.1 {
		t.Errorf("mid X = %v, want about 200", c.X)
	}
	c.update(0.2)
	assertNear(t, "X", c.X, 0)
	assertNear(t, "Y", c.Y, 0)
	if c.Animating() {
		t.Error("scroll should be finished")
	}
}

func TestCameraUpdateIdle(t *testing.T) {
	c := newTestCamera()
	if c.update(0.016) {
		t.Error("an idle camera should not report a change")
	}
}
