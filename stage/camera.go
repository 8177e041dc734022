package stage

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/easel"
)

const (
	defaultMinZoom      = 0.1
	defaultMaxZoom      = 8.0
	defaultZoomStep     = 1.1
	defaultZoomDuration = 0.12 // seconds
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// zoomAnim tweens the zoom factor while keeping a world point pinned under
// a screen point.
type zoomAnim struct {
	tween         *gween.Tween
	target        float64
	anchorWorldX  float64
	anchorWorldY  float64
	anchorScreenX float64
	anchorScreenY float64
}

// Camera controls the view onto the diagram: pan position, zoom and
// viewport. Rotation is not supported; diagrams stay axis-aligned on screen.
// Call MarkDirty after writing X, Y or Zoom directly.
type Camera struct {
	// X and Y are the world-space position the camera centers on.
	X, Y float64
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// MinZoom and MaxZoom clamp wheel zooming.
	MinZoom, MaxZoom float64
	// ZoomStep is the factor applied per wheel notch.
	ZoomStep float64
	// ZoomDuration is the length of the zoom tween in seconds. Zero snaps.
	ZoomDuration float32
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport easel.Rect

	viewMatrix    easel.Affine
	invViewMatrix easel.Affine
	dirty         bool

	scrollTween *scrollAnim
	zoomTween   *zoomAnim
}

// NewCamera creates a Camera centered on the viewport, so world and screen
// coordinates coincide at zoom 1.
func NewCamera(viewport easel.Rect) *Camera {
	return &Camera{
		X:            viewport.X + viewport.Width/2,
		Y:            viewport.Y + viewport.Height/2,
		Zoom:         1.0,
		MinZoom:      defaultMinZoom,
		MaxZoom:      defaultMaxZoom,
		ZoomStep:     defaultZoomStep,
		ZoomDuration: defaultZoomDuration,
		Viewport:     viewport,
		dirty:        true,
	}
}

// ScrollTo animates the camera to the given world position over duration seconds.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.X), float32(x), duration, easeFn),
		tweenY: gween.New(float32(c.Y), float32(y), duration, easeFn),
	}
}

// ZoomAt zooms by factor around the screen point (sx, sy), keeping the world
// point under it fixed. The zoom is tweened over ZoomDuration.
func (c *Camera) ZoomAt(sx, sy, factor float64) {
	target := c.Zoom * factor
	if c.zoomTween != nil {
		// Chain from the pending target so fast wheel spins accumulate.
		target = c.zoomTween.target * factor
	}
	target = math.Max(c.MinZoom, math.Min(c.MaxZoom, target))

	wx, wy := c.ScreenToWorld(sx, sy)
	z := &zoomAnim{
		target:        target,
		anchorWorldX:  wx,
		anchorWorldY:  wy,
		anchorScreenX: sx,
		anchorScreenY: sy,
	}
	if c.ZoomDuration <= 0 {
		c.zoomTween = nil
		c.applyZoom(target, z)
		return
	}
	z.tween = gween.New(float32(c.Zoom), float32(target), c.ZoomDuration, ease.OutQuad)
	c.zoomTween = z
}

// applyZoom sets the zoom and re-centers so the anchor stays under the
// cursor.
func (c *Camera) applyZoom(zoom float64, z *zoomAnim) {
	c.Zoom = zoom
	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2
	c.X = z.anchorWorldX - (z.anchorScreenX-cx)/zoom
	c.Y = z.anchorWorldY - (z.anchorScreenY-cy)/zoom
	c.dirty = true
}

// Animating reports whether a scroll or zoom tween is in progress.
func (c *Camera) Animating() bool {
	return c.scrollTween != nil || c.zoomTween != nil
}

// update advances the scroll and zoom tweens. Returns true if the view
// changed.
func (c *Camera) update(dt float32) bool {
	prevX, prevY, prevZoom := c.X, c.Y, c.Zoom

	if c.scrollTween != nil {
		if !c.scrollTween.doneX {
			val, done := c.scrollTween.tweenX.Update(dt)
			c.X = float64(val)
			c.scrollTween.doneX = done
		}
		if !c.scrollTween.doneY {
			val, done := c.scrollTween.tweenY.Update(dt)
			c.Y = float64(val)
			c.scrollTween.doneY = done
		}
		if c.scrollTween.doneX && c.scrollTween.doneY {
			c.scrollTween = nil
		}
	}

	if c.zoomTween != nil {
		val, done := c.zoomTween.tween.Update(dt)
		c.applyZoom(float64(val), c.zoomTween)
		if done {
			c.zoomTween = nil
		}
	}

	changed := c.X != prevX || c.Y != prevY || c.Zoom != prevZoom
	if changed {
		c.dirty = true
	}
	return changed
}

// ViewMatrix returns the world-to-screen matrix.
//
// viewMatrix = Translate(cx, cy) * Scale(zoom) * Translate(-X, -Y)
// where cx, cy = viewport center.
func (c *Camera) ViewMatrix() easel.Affine {
	if !c.dirty {
		return c.viewMatrix
	}
	c.dirty = false

	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2
	z := c.Zoom
	c.viewMatrix = easel.Affine{z, 0, 0, z, cx - z*c.X, cy - z*c.Y}
	c.invViewMatrix = c.viewMatrix.Invert()
	return c.viewMatrix
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	return c.ViewMatrix().Apply(wx, wy)
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	c.ViewMatrix()
	return c.invViewMatrix.Apply(sx, sy)
}

// VisibleBounds returns the world-space rectangle visible in the viewport.
func (c *Camera) VisibleBounds() easel.Rect {
	c.ViewMatrix()
	return c.invViewMatrix.BoundsOf(easel.Rect{
		X: c.Viewport.X, Y: c.Viewport.Y,
		Width: c.Viewport.Width, Height: c.Viewport.Height,
	})
}

// MarkDirty forces a recomputation of the view matrix.
func (c *Camera) MarkDirty() {
	c.dirty = true
}
