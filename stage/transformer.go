package stage

import (
	"math"
	"slices"

	"github.com/phanxgames/easel"
)

const (
	defaultHandleSize   = 8.0          // pixels
	defaultRotateOffset = 24.0         // pixels above the box
	defaultRotationSnap = math.Pi / 12 // 15 degrees
)

// Transformer is the shared resize/rotate affordance drawn on the overlay
// layer around the selected nodes. It satisfies easel.Transformer.
//
// Dragging a resize handle scales every attached node by the ratio of the
// new box to the box at gesture start; the rotate handle rotates them
// around the box center. Scale is left on the nodes for the selection
// normalizer to fold back into element geometry.
type Transformer struct {
	// HandleSize is the side of a handle square in screen pixels.
	HandleSize float64
	// RotateOffset is the screen distance from the box top to the rotate
	// handle.
	RotateOffset float64
	// RotationSnap is the angle rotation snaps to while shift is held.
	RotationSnap float64

	// OnTransformStart and OnTransformEnd bracket a handle drag. The active
	// handle is set when OnTransformStart runs and still set when
	// OnTransformEnd runs.
	OnTransformStart func()
	OnTransformEnd   func()

	stage   *Stage
	layer   *Layer
	root    *Node
	outline *Node
	handles map[easel.Handle]*Node

	nodes         []easel.SceneNode
	enabled       []easel.Handle
	keepRatio     bool
	rotateEnabled bool
	centered      bool
	bound         easel.BoundingConstraint

	active  easel.Handle
	gesture *transformGesture
}

type nodeStart struct {
	pos      easel.Vec2
	scale    easel.Vec2
	rotation float64
}

type transformGesture struct {
	handle     easel.Handle
	box        easel.Rect // at gesture start
	last       easel.Rect // last accepted box
	starts     []nodeStart
	startAngle float64
}

func newTransformer(s *Stage) *Transformer {
	return &Transformer{
		HandleSize:    defaultHandleSize,
		RotateOffset:  defaultRotateOffset,
		RotationSnap:  defaultRotationSnap,
		stage:         s,
		enabled:       slices.Clone(easel.AllHandles),
		rotateEnabled: true,
	}
}

// attach builds the affordance nodes on the overlay layer.
func (t *Transformer) attach(l *Layer) {
	t.layer = l
	t.root = NewNode("transformer", ShapeNone)
	t.root.Interactable = false
	t.root.Visible = false

	t.outline = NewNode("transformer-outline", ShapeLine)
	t.outline.Stroke = ColorAccent
	t.root.AddChild(t.outline)

	t.handles = make(map[easel.Handle]*Node, len(easel.AllHandles)+1)
	for _, h := range easel.AllHandles {
		n := NewNode(string(h), ShapeRect)
		n.Fill = ColorWhite
		n.Stroke = ColorAccent
		t.handles[h] = n
		t.root.AddChild(n)
	}
	rot := NewNode(string(easel.HandleRotate), ShapeCircle)
	rot.Fill = ColorWhite
	rot.Stroke = ColorAccent
	t.handles[easel.HandleRotate] = rot
	t.root.AddChild(rot)

	l.root.AddChild(t.root)
	l.OnPrepaint(t.refresh)
}

// --- easel.Transformer ---

// SetNodes attaches the affordance to nodes.
func (t *Transformer) SetNodes(nodes []easel.SceneNode) {
	t.nodes = slices.Clone(nodes)
	t.stage.invalidate(easel.LayerOverlay)
}

// Nodes returns the attached nodes.
func (t *Transformer) Nodes() []easel.SceneNode { return slices.Clone(t.nodes) }

// SetEnabledHandles selects which resize handles are shown.
func (t *Transformer) SetEnabledHandles(handles []easel.Handle) {
	t.enabled = slices.Clone(handles)
}

// EnabledHandles returns the shown resize handles.
func (t *Transformer) EnabledHandles() []easel.Handle { return slices.Clone(t.enabled) }

// SetKeepRatio locks the aspect ratio while resizing.
func (t *Transformer) SetKeepRatio(keep bool) { t.keepRatio = keep }

// KeepRatio reports whether the aspect ratio is locked.
func (t *Transformer) KeepRatio() bool { return t.keepRatio }

// SetRotateEnabled shows or hides the rotate handle.
func (t *Transformer) SetRotateEnabled(enabled bool) { t.rotateEnabled = enabled }

// RotateEnabled reports whether the rotate handle is shown.
func (t *Transformer) RotateEnabled() bool { return t.rotateEnabled }

// SetCenteredScaling makes resizing symmetric around the box center.
func (t *Transformer) SetCenteredScaling(centered bool) { t.centered = centered }

// CenteredScaling reports whether resizing is symmetric.
func (t *Transformer) CenteredScaling() bool { return t.centered }

// SetBoundBoxFunc installs the constraint applied to every resize step.
func (t *Transformer) SetBoundBoxFunc(fn easel.BoundingConstraint) { t.bound = fn }

// ActiveHandle returns the handle being dragged, or HandleNone.
func (t *Transformer) ActiveHandle() easel.Handle { return t.active }

// --- Geometry ---

// box returns the union of the attached nodes' bounds.
func (t *Transformer) box() (easel.Rect, bool) {
	var out easel.Rect
	found := false
	for _, n := range t.nodes {
		if sn, ok := n.(*Node); ok && sn.disposed {
			continue
		}
		b := n.Bounds()
		if !found {
			out, found = b, true
			continue
		}
		out = out.Union(b)
	}
	return out, found
}

// handlePoint returns the world position of h on box b.
func (t *Transformer) handlePoint(h easel.Handle, b easel.Rect) easel.Vec2 {
	x0, y0 := b.X, b.Y
	xm, ym := b.X+b.Width/2, b.Y+b.Height/2
	x1, y1 := b.X+b.Width, b.Y+b.Height
	switch h {
	case easel.HandleTopLeft:
		return easel.Vec2{X: x0, Y: y0}
	case easel.HandleTopCenter:
		return easel.Vec2{X: xm, Y: y0}
	case easel.HandleTopRight:
		return easel.Vec2{X: x1, Y: y0}
	case easel.HandleMiddleLeft:
		return easel.Vec2{X: x0, Y: ym}
	case easel.HandleMiddleRight:
		return easel.Vec2{X: x1, Y: ym}
	case easel.HandleBottomLeft:
		return easel.Vec2{X: x0, Y: y1}
	case easel.HandleBottomCenter:
		return easel.Vec2{X: xm, Y: y1}
	case easel.HandleBottomRight:
		return easel.Vec2{X: x1, Y: y1}
	case easel.HandleRotate:
		return easel.Vec2{X: xm, Y: y0 - t.RotateOffset/t.stage.camera.Zoom}
	}
	return easel.Vec2{X: xm, Y: ym}
}

// handleSides reports which box edges a handle moves.
func handleSides(h easel.Handle) (left, right, top, bottom bool) {
	switch h {
	case easel.HandleTopLeft:
		return true, false, true, false
	case easel.HandleTopCenter:
		return false, false, true, false
	case easel.HandleTopRight:
		return false, true, true, false
	case easel.HandleMiddleLeft:
		return true, false, false, false
	case easel.HandleMiddleRight:
		return false, true, false, false
	case easel.HandleBottomLeft:
		return true, false, false, true
	case easel.HandleBottomCenter:
		return false, false, false, true
	case easel.HandleBottomRight:
		return false, true, false, true
	}
	return false, false, false, false
}

// handleAt returns the handle under world point (wx, wy), or HandleNone.
func (t *Transformer) handleAt(wx, wy float64) easel.Handle {
	if t.layer == nil || t.layer.destroyed || !t.layer.visible || len(t.nodes) == 0 {
		return easel.HandleNone
	}
	b, ok := t.box()
	if !ok {
		return easel.HandleNone
	}
	tol := (t.HandleSize/2 + 2) / t.stage.camera.Zoom
	hit := func(h easel.Handle) bool {
		p := t.handlePoint(h, b)
		return math.Abs(wx-p.X) <= tol && math.Abs(wy-p.Y) <= tol
	}
	if t.rotateEnabled && hit(easel.HandleRotate) {
		return easel.HandleRotate
	}
	for _, h := range t.enabled {
		if hit(h) {
			return h
		}
	}
	return easel.HandleNone
}

// --- Gesture ---

// begin starts dragging handle h from world point (wx, wy).
func (t *Transformer) begin(h easel.Handle, wx, wy float64) {
	b, ok := t.box()
	if !ok {
		return
	}
	cx, cy := b.X+b.Width/2, b.Y+b.Height/2
	g := &transformGesture{
		handle:     h,
		box:        b,
		last:       b,
		startAngle: math.Atan2(wy-cy, wx-cx),
		starts:     make([]nodeStart, len(t.nodes)),
	}
	for i, n := range t.nodes {
		g.starts[i] = nodeStart{pos: n.Position(), scale: n.Scale(), rotation: n.Rotation()}
	}
	t.gesture = g
	t.active = h
	if t.OnTransformStart != nil {
		t.OnTransformStart()
	}
}

// move applies the pointer at (wx, wy) to the active gesture. snap rounds
// rotation to RotationSnap.
func (t *Transformer) move(wx, wy float64, snap bool) {
	g := t.gesture
	if g == nil {
		return
	}
	if g.handle == easel.HandleRotate {
		t.rotate(g, wx, wy, snap)
		return
	}
	proposed := t.resizeBox(g, wx, wy)
	if t.bound != nil {
		proposed = t.bound(g.last, proposed)
	}
	if proposed.Width <= 0 || proposed.Height <= 0 {
		return
	}
	g.last = proposed
	t.scaleTo(g, proposed)
}

// resizeBox computes the box proposed by dragging the gesture handle to
// (wx, wy), honoring centered scaling and the aspect lock.
func (t *Transformer) resizeBox(g *transformGesture, wx, wy float64) easel.Rect {
	b := g.box
	x0, y0 := b.X, b.Y
	x1, y1 := b.X+b.Width, b.Y+b.Height
	cx, cy := b.X+b.Width/2, b.Y+b.Height/2

	left, right, top, bottom := handleSides(g.handle)
	if left {
		x0 = wx
	}
	if right {
		x1 = wx
	}
	if top {
		y0 = wy
	}
	if bottom {
		y1 = wy
	}
	if t.centered {
		if left {
			x1 = 2*cx - x0
		}
		if right {
			x0 = 2*cx - x1
		}
		if top {
			y1 = 2*cy - y0
		}
		if bottom {
			y0 = 2*cy - y1
		}
	}
	w, h := x1-x0, y1-y0

	if t.keepRatio && b.Width > 0 && b.Height > 0 {
		fx, fy := w/b.Width, h/b.Height
		horizontal, vertical := left || right, top || bottom
		var f float64
		switch {
		case horizontal && vertical:
			f = math.Max(fx, fy)
		case horizontal:
			f = fx
		default:
			f = fy
		}
		w, h = b.Width*f, b.Height*f
		switch {
		case t.centered:
			x0, y0 = cx-w/2, cy-h/2
		default:
			switch {
			case left:
				x0 = x1 - w
			case !right:
				x0 = cx - w/2
			}
			switch {
			case top:
				y0 = y1 - h
			case !bottom:
				y0 = cy - h/2
			}
		}
	}
	return easel.Rect{X: x0, Y: y0, Width: w, Height: h}
}

// scaleTo maps every node from the start box onto r.
func (t *Transformer) scaleTo(g *transformGesture, r easel.Rect) {
	sx, sy := 1.0, 1.0
	if g.box.Width > 0 {
		sx = r.Width / g.box.Width
	}
	if g.box.Height > 0 {
		sy = r.Height / g.box.Height
	}
	for i, n := range t.nodes[:min(len(t.nodes), len(g.starts))] {
		st := g.starts[i]
		n.SetScale(easel.Vec2{X: st.scale.X * sx, Y: st.scale.Y * sy})
		n.SetPosition(easel.Vec2{
			X: r.X + (st.pos.X-g.box.X)*sx,
			Y: r.Y + (st.pos.Y-g.box.Y)*sy,
		})
	}
}

// rotate turns every node around the start box center by the angle the
// pointer swept since the gesture began.
func (t *Transformer) rotate(g *transformGesture, wx, wy float64, snap bool) {
	if len(g.starts) == 0 {
		return
	}
	cx, cy := g.box.X+g.box.Width/2, g.box.Y+g.box.Height/2
	delta := math.Atan2(wy-cy, wx-cx) - g.startAngle
	if snap && t.RotationSnap > 0 {
		// Snap the first node's absolute rotation; the rest follow rigidly.
		target := g.starts[0].rotation + delta
		delta = math.Round(target/t.RotationSnap)*t.RotationSnap - g.starts[0].rotation
	}
	sin, cos := math.Sincos(delta)
	for i, n := range t.nodes[:min(len(t.nodes), len(g.starts))] {
		st := g.starts[i]
		dx, dy := st.pos.X-cx, st.pos.Y-cy
		n.SetRotation(st.rotation + delta)
		n.SetPosition(easel.Vec2{X: cx + dx*cos - dy*sin, Y: cy + dx*sin + dy*cos})
	}
}

// end finishes the gesture.
func (t *Transformer) end() {
	if t.gesture == nil {
		return
	}
	if t.OnTransformEnd != nil {
		t.OnTransformEnd()
	}
	t.gesture = nil
	t.active = easel.HandleNone
	t.stage.invalidate(easel.LayerOverlay)
}

// --- Painting ---

// refresh lays out the outline and handles around the current box. It runs
// before every overlay paint.
func (t *Transformer) refresh() {
	if t.root == nil || t.root.disposed {
		return
	}
	b, ok := t.box()
	t.root.Visible = ok
	if !ok {
		return
	}
	zoom := t.stage.camera.Zoom
	t.outline.SetPoints([]easel.Vec2{
		{X: b.X, Y: b.Y},
		{X: b.X + b.Width, Y: b.Y},
		{X: b.X + b.Width, Y: b.Y + b.Height},
		{X: b.X, Y: b.Y + b.Height},
		{X: b.X, Y: b.Y},
	})
	t.outline.StrokeWidth = 1 / zoom

	size := t.HandleSize / zoom
	for h, n := range t.handles {
		p := t.handlePoint(h, b)
		n.StrokeWidth = 1 / zoom
		if h == easel.HandleRotate {
			n.Visible = t.rotateEnabled
			n.SetPosition(p)
			n.SetRadius(size / 2)
			continue
		}
		n.Visible = slices.Contains(t.enabled, h)
		n.SetPosition(easel.Vec2{X: p.X - size/2, Y: p.Y - size/2})
		n.SetSize(easel.Vec2{X: size, Y: size})
	}
}
