package stage

import (
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/easel"
)

// Handler receives the pointer and keyboard events the input pump derives
// from raw Ebitengine input. *easel.Router satisfies it.
type Handler interface {
	Click(ev easel.PointerEvent)
	DoubleClick(ev easel.PointerEvent)
	DragStart(ev easel.PointerEvent)
	DragMove(ev easel.PointerEvent)
	DragEnd(ev easel.PointerEvent)
	PointerMove(ev easel.PointerEvent)
	PointerLeave()
	Wheel(ev easel.WheelEvent)
	KeyDown(ev easel.KeyEvent)
	KeyUp(ev easel.KeyEvent)
	MarqueeSelect(rect easel.Rect, additive bool)
}

// --- Per-pointer state ---

type pointerState struct {
	down     bool
	startX   float64 // world
	startY   float64
	lastX    float64
	lastY    float64
	hitNode  *Node // topmost node under the press
	dragNode *Node // element node moved by the drag
	hover    *Node
	outside  bool
	button   easel.MouseButton

	dragging     bool
	marquee      bool
	transforming bool
}

type clickRecord struct {
	at      time.Time
	element *Node
	x, y    float64
}

// --- Input processing ---

// readModifiers reads the current keyboard modifier state.
func readModifiers() easel.KeyModifiers {
	var mods easel.KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) || ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		mods |= easel.ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight) {
		mods |= easel.ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) || ebiten.IsKeyPressed(ebiten.KeyAltLeft) || ebiten.IsKeyPressed(ebiten.KeyAltRight) {
		mods |= easel.ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) || ebiten.IsKeyPressed(ebiten.KeyMetaLeft) || ebiten.IsKeyPressed(ebiten.KeyMetaRight) {
		mods |= easel.ModMeta
	}
	return mods
}

// processInput is called from Stage.Update to handle keyboard, wheel and
// mouse input. While injected events are queued, real input is skipped.
func (s *Stage) processInput() {
	mods := readModifiers()
	if len(s.keyQueue) > 0 || len(s.injectQueue) > 0 {
		s.stepInjected(mods)
		return
	}
	if s.injectedShift {
		mods |= easel.ModShift
	}
	s.setShift(mods&easel.ModShift != 0, mods)
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		s.pressKey(easel.KeyEscape, mods)
	}

	mx, my := ebiten.CursorPosition()
	sx, sy := float64(mx), float64(my)
	if dx, dy := ebiten.Wheel(); dx != 0 || dy != 0 {
		s.wheel(sx, sy, dx, dy, mods)
	}
	s.processMousePointer(sx, sy, mods)
}

// stepInjected runs one update's worth of injected input: every queued key
// transition and at most one pointer or wheel event.
func (s *Stage) stepInjected(mods easel.KeyModifiers) {
	s.processInjectedKeys(mods)
	if s.injectedShift {
		mods |= easel.ModShift
	}
	s.setShift(mods&easel.ModShift != 0, mods)
	s.processInjectedInput(mods)
}

// processMousePointer reads the mouse buttons and feeds the pointer state
// machine in world coordinates.
func (s *Stage) processMousePointer(sx, sy float64, mods easel.KeyModifiers) {
	var pressed bool
	var button easel.MouseButton
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	middle := ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)
	if left || right || middle {
		pressed = true
		if left {
			button = easel.MouseButtonLeft
		} else if right {
			button = easel.MouseButtonRight
		} else {
			button = easel.MouseButtonMiddle
		}
	}

	if !pressed && !s.pointer.down && !s.camera.Viewport.Contains(sx, sy) {
		s.pointerLeave()
		return
	}
	wx, wy := s.camera.ScreenToWorld(sx, sy)
	s.processPointer(wx, wy, pressed, button, mods)
}

// setShift reports shift transitions to the handler.
func (s *Stage) setShift(held bool, mods easel.KeyModifiers) {
	if held == s.shiftDown {
		return
	}
	s.shiftDown = held
	if s.handler == nil {
		return
	}
	ev := easel.KeyEvent{Key: easel.KeyShift, Modifiers: mods}
	if held {
		s.handler.KeyDown(ev)
	} else {
		s.handler.KeyUp(ev)
	}
}

// pressKey reports a key press and release.
func (s *Stage) pressKey(key easel.Key, mods easel.KeyModifiers) {
	if s.handler == nil {
		return
	}
	s.handler.KeyDown(easel.KeyEvent{Key: key, Modifiers: mods})
	s.handler.KeyUp(easel.KeyEvent{Key: key, Modifiers: mods})
}

// wheel zooms the camera around the cursor and reports the step.
func (s *Stage) wheel(sx, sy, dx, dy float64, mods easel.KeyModifiers) {
	if dy != 0 {
		s.camera.ZoomAt(sx, sy, math.Pow(s.camera.ZoomStep, dy))
	}
	if s.handler == nil {
		return
	}
	wx, wy := s.camera.ScreenToWorld(sx, sy)
	s.handler.Wheel(easel.WheelEvent{X: wx, Y: wy, DeltaX: dx, DeltaY: dy, Modifiers: mods})
}

func (s *Stage) pointerLeave() {
	ps := &s.pointer
	if ps.outside {
		return
	}
	ps.outside = true
	ps.hover = nil
	if s.handler != nil {
		s.handler.PointerLeave()
	}
}

// processPointer runs the pointer state machine. Coordinates are in world
// space.
func (s *Stage) processPointer(wx, wy float64, pressed bool, button easel.MouseButton, mods easel.KeyModifiers) {
	ps := &s.pointer
	ps.outside = false

	switch {
	case pressed && !ps.down:
		// Just pressed: capture the button and target for the gesture.
		*ps = pointerState{
			down:   true,
			button: button,
			startX: wx, startY: wy,
			lastX: wx, lastY: wy,
			hover: ps.hover,
		}
		if button != easel.MouseButtonLeft {
			return
		}
		if h := s.transformer.handleAt(wx, wy); h != easel.HandleNone {
			ps.transforming = true
			s.transformer.begin(h, wx, wy)
			return
		}
		ps.hitNode = s.HitTest(wx, wy)

	case !pressed && ps.down:
		target := s.HitTest(wx, wy)
		switch {
		case ps.transforming:
			s.transformer.end()
		case ps.dragging && ps.dragNode != nil:
			if s.handler != nil {
				s.handler.DragEnd(s.pointerEvent(ps.dragNode, wx, wy, mods))
			}
		case ps.marquee:
			s.endMarquee(wx, wy, mods)
		case ps.button == easel.MouseButtonLeft && !ps.dragging && ps.hitNode == target:
			s.click(target, wx, wy, mods)
		}
		*ps = pointerState{lastX: wx, lastY: wy, hover: ps.hover}

	case pressed && ps.down:
		if wx == ps.lastX && wy == ps.lastY {
			return
		}
		if ps.transforming {
			s.transformer.move(wx, wy, mods&easel.ModShift != 0)
			s.invalidate(easel.LayerMain, easel.LayerOverlay)
			ps.lastX, ps.lastY = wx, wy
			return
		}
		if !ps.dragging && ps.button == easel.MouseButtonLeft {
			// The dead zone is measured on screen so it does not grow with zoom.
			dist := math.Hypot(wx-ps.startX, wy-ps.startY) * s.camera.Zoom
			if dist > s.dragDeadZone {
				ps.dragging = true
				s.startDrag(ps, mods)
			}
		}
		if ps.dragging {
			switch {
			case ps.dragNode != nil:
				p := ps.dragNode.Position()
				ps.dragNode.SetPosition(easel.Vec2{X: p.X + wx - ps.lastX, Y: p.Y + wy - ps.lastY})
				if s.handler != nil {
					s.handler.DragMove(s.pointerEvent(ps.dragNode, wx, wy, mods))
				}
			case ps.marquee:
				s.updateMarquee(wx, wy)
			}
		}
		ps.lastX, ps.lastY = wx, wy

	default:
		// Hover move.
		if wx == ps.lastX && wy == ps.lastY {
			return
		}
		ps.lastX, ps.lastY = wx, wy
		ps.hover = s.HitTest(wx, wy)
		if s.handler != nil {
			s.handler.PointerMove(s.pointerEvent(ps.hover, wx, wy, mods))
		}
	}
}

// startDrag decides what a drag past the dead zone moves: a draggable
// element, or a marquee band when it began on the background.
func (s *Stage) startDrag(ps *pointerState, mods easel.KeyModifiers) {
	// Movement inside the dead zone is applied by the first drag step.
	ps.lastX, ps.lastY = ps.startX, ps.startY
	if ps.hitNode == nil {
		ps.marquee = true
		s.updateMarquee(ps.lastX, ps.lastY)
		return
	}
	el := ElementNode(ps.hitNode)
	if el == nil || !el.Draggable {
		return
	}
	ps.dragNode = el
	if s.handler != nil {
		s.handler.DragStart(s.pointerEvent(el, ps.lastX, ps.lastY, mods))
	}
}

// click reports a click, followed by a double click when it lands on the
// same element as the previous click within the interval.
func (s *Stage) click(target *Node, wx, wy float64, mods easel.KeyModifiers) {
	now := s.clock()
	el := ElementNode(target)
	last := s.lastClick
	double := el != nil && last.element == el &&
		now.Sub(last.at) <= s.doubleClickInterval &&
		math.Hypot(wx-last.x, wy-last.y)*s.camera.Zoom <= s.dragDeadZone

	if s.handler != nil {
		ev := s.pointerEvent(target, wx, wy, mods)
		s.handler.Click(ev)
		if double {
			s.handler.DoubleClick(ev)
		}
	}
	if double {
		s.lastClick = clickRecord{}
		return
	}
	s.lastClick = clickRecord{at: now, element: el, x: wx, y: wy}
}

func (s *Stage) pointerEvent(n *Node, wx, wy float64, mods easel.KeyModifiers) easel.PointerEvent {
	ev := easel.PointerEvent{X: wx, Y: wy, Button: s.pointer.button, Modifiers: mods}
	if n != nil {
		ev.Target = n
	}
	return ev
}

// --- Marquee ---

func newMarqueeNode() *Node {
	n := NewNode("marquee", ShapeRect)
	n.Fill = ColorAccent.WithAlpha(0.08)
	n.Stroke = ColorAccent.WithAlpha(0.8)
	n.Interactable = false
	n.Visible = false
	return n
}

func (s *Stage) marqueeRect(wx, wy float64) easel.Rect {
	ps := &s.pointer
	return easel.Rect{
		X:      math.Min(ps.startX, wx),
		Y:      math.Min(ps.startY, wy),
		Width:  math.Abs(wx - ps.startX),
		Height: math.Abs(wy - ps.startY),
	}
}

func (s *Stage) updateMarquee(wx, wy float64) {
	if s.marquee == nil {
		return
	}
	r := s.marqueeRect(wx, wy)
	s.marquee.SetPosition(easel.Vec2{X: r.X, Y: r.Y})
	s.marquee.SetSize(easel.Vec2{X: r.Width, Y: r.Height})
	s.marquee.StrokeWidth = 1 / s.camera.Zoom
	s.marquee.Visible = true
	s.invalidate(easel.LayerPreview)
}

func (s *Stage) endMarquee(wx, wy float64, mods easel.KeyModifiers) {
	r := s.marqueeRect(wx, wy)
	if s.marquee != nil {
		s.marquee.Visible = false
		s.invalidate(easel.LayerPreview)
	}
	if s.handler != nil {
		additive := mods&(easel.ModShift|easel.ModCtrl|easel.ModMeta) != 0
		s.handler.MarqueeSelect(r, additive)
	}
}
