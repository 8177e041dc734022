package stage

import "github.com/phanxgames/easel"

// syntheticEvent represents a single injected pointer or wheel event.
// Screen coordinates are used and converted to world coordinates via the
// camera, identical to real mouse input.
type syntheticEvent struct {
	screenX, screenY float64
	pressed          bool
	button           easel.MouseButton
	wheel            float64
}

// syntheticKey is an injected key transition.
type syntheticKey struct {
	key  easel.Key
	down bool
}

// InjectPress queues a pointer press event at the given screen coordinates
// (left button). The event is consumed on the next Update.
func (s *Stage) InjectPress(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{
		screenX: x, screenY: y,
		pressed: true,
		button:  easel.MouseButtonLeft,
	})
}

// InjectMove queues a pointer move event at the given screen coordinates
// with the button held down. Use this between InjectPress and InjectRelease
// to simulate a drag.
func (s *Stage) InjectMove(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{
		screenX: x, screenY: y,
		pressed: true,
		button:  easel.MouseButtonLeft,
	})
}

// InjectRelease queues a pointer release event at the given screen coordinates.
func (s *Stage) InjectRelease(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{
		screenX: x, screenY: y,
		button: easel.MouseButtonLeft,
	})
}

// InjectClick queues a press followed by a release at the same screen
// coordinates. Consumes two updates.
func (s *Stage) InjectClick(x, y float64) {
	s.InjectPress(x, y)
	s.InjectRelease(x, y)
}

// InjectDoubleClick queues two clicks at the same screen coordinates.
// Consumes four updates, well inside the double-click interval at any
// realistic tick rate.
func (s *Stage) InjectDoubleClick(x, y float64) {
	s.InjectClick(x, y)
	s.InjectClick(x, y)
}

// InjectDrag queues a full drag sequence: press at (fromX, fromY),
// linearly interpolated moves over frames-2 intermediate updates, and
// release at (toX, toY). Minimum frames is 2 (press + release).
func (s *Stage) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	s.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		s.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	s.InjectRelease(toX, toY)
}

// InjectWheel queues a vertical wheel step at the given screen coordinates.
func (s *Stage) InjectWheel(x, y, dy float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{screenX: x, screenY: y, wheel: dy})
}

// InjectKey queues a press and release of key.
func (s *Stage) InjectKey(key easel.Key) {
	s.keyQueue = append(s.keyQueue, syntheticKey{key: key, down: true})
}

// InjectShift queues a shift transition. Injected shift stays held until
// released by another InjectShift.
func (s *Stage) InjectShift(held bool) {
	s.keyQueue = append(s.keyQueue, syntheticKey{key: easel.KeyShift, down: held})
}

// processInjectedKeys drains the key queue.
func (s *Stage) processInjectedKeys(mods easel.KeyModifiers) {
	for _, k := range s.keyQueue {
		if k.key == easel.KeyShift {
			s.injectedShift = k.down
			continue
		}
		s.pressKey(k.key, mods)
	}
	s.keyQueue = s.keyQueue[:0]
}

// processInjectedInput pops one event from the inject queue, converts
// screen to world via the camera, and feeds it through processPointer.
// Returns true if an event was consumed (real mouse input is skipped).
func (s *Stage) processInjectedInput(mods easel.KeyModifiers) bool {
	if len(s.injectQueue) == 0 {
		return false
	}
	evt := s.injectQueue[0]
	copy(s.injectQueue, s.injectQueue[1:])
	s.injectQueue = s.injectQueue[:len(s.injectQueue)-1]

	if evt.wheel != 0 {
		s.wheel(evt.screenX, evt.screenY, 0, evt.wheel, mods)
		return true
	}
	wx, wy := s.camera.ScreenToWorld(evt.screenX, evt.screenY)
	s.processPointer(wx, wy, evt.pressed, evt.button, mods)
	return true
}

// PendingInjections returns the number of queued pointer and wheel events.
func (s *Stage) PendingInjections() int { return len(s.injectQueue) }
