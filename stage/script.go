package stage

import (
	"encoding/json"
	"fmt"

	"github.com/phanxgames/easel"
)

// scriptStep is one action of an input script.
type scriptStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Frames int     `json:"frames,omitempty"`
	Key    string  `json:"key,omitempty"`
	Held   bool    `json:"held,omitempty"`
}

// Script replays a recorded interaction against a Stage, one step per
// update once earlier injections have drained. Attach with SetScript.
//
// A script is JSON of the form {"steps": [...]}. Actions:
//
//	click        x, y
//	doubleclick  x, y
//	drag         fromX, fromY, toX, toY, frames (minimum 2)
//	wheel        x, y, dy
//	key          key ("Escape")
//	shift        held
//	wait         frames
//	screenshot   label
type Script struct {
	steps []scriptStep
	next  int
	wait  int
	done  bool
}

// ParseScript parses a JSON input script.
func ParseScript(data []byte) (*Script, error) {
	var doc struct {
		Steps []scriptStep `json:"steps"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("stage: parse script: %w", err)
	}
	if len(doc.Steps) == 0 {
		return nil, fmt.Errorf("stage: parse script: no steps")
	}
	for i, st := range doc.Steps {
		switch st.Action {
		case "click", "doubleclick", "drag", "wheel", "key", "shift", "wait", "screenshot":
		default:
			return nil, fmt.Errorf("stage: parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &Script{steps: doc.Steps}, nil
}

// SetScript attaches a script to the stage. Update advances it before
// processing input. Pass nil to detach.
func (s *Stage) SetScript(sc *Script) { s.script = sc }

// Done reports whether every step has run and its input was consumed.
func (sc *Script) Done() bool { return sc.done }

// step advances the script by one update.
func (sc *Script) step(s *Stage) {
	if sc.done || s.injecting() {
		return
	}
	if sc.wait > 0 {
		sc.wait--
		return
	}
	if sc.next >= len(sc.steps) {
		sc.done = true
		return
	}

	st := sc.steps[sc.next]
	sc.next++
	switch st.Action {
	case "click":
		s.InjectClick(st.X, st.Y)
	case "doubleclick":
		s.InjectDoubleClick(st.X, st.Y)
	case "drag":
		s.InjectDrag(st.FromX, st.FromY, st.ToX, st.ToY, max(st.Frames, 2))
	case "wheel":
		s.InjectWheel(st.X, st.Y, st.DY)
	case "key":
		s.InjectKey(easel.Key(st.Key))
	case "shift":
		s.InjectShift(st.Held)
	case "wait":
		// The current update counts as the first frame.
		sc.wait = max(st.Frames-1, 0)
	case "screenshot":
		s.Screenshot(st.Label)
	}

	if sc.next >= len(sc.steps) && sc.wait == 0 && !s.injecting() {
		sc.done = true
	}
}

// injecting reports whether injected input is still queued.
func (s *Stage) injecting() bool {
	return len(s.injectQueue) > 0 || len(s.keyQueue) > 0
}
