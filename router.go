package easel

import (
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"
)

// PointerEvent is a pointer interaction against the rendering surface.
type PointerEvent struct {
	// Target is the hit-tested node, or nil for empty space.
	Target SceneNode
	// X and Y are the pointer position in stage space.
	X, Y      float64
	Button    MouseButton
	Modifiers KeyModifiers
}

// WheelEvent is a scroll or pinch-zoom step.
type WheelEvent struct {
	X, Y           float64
	DeltaX, DeltaY float64
	Modifiers      KeyModifiers
}

// Key names a keyboard key the router cares about.
type Key string

const (
	KeyShift  Key = "Shift"
	KeyEscape Key = "Escape"
)

// KeyEvent is a key press or release.
type KeyEvent struct {
	Key       Key
	Modifiers KeyModifiers
}

// RouterStats counts dispatched events.
type RouterStats struct {
	Events   int
	Failures int
}

// Router is the single entry point for pointer and keyboard interaction.
// Every handler contains its own failures: a failed event is logged and the
// next event dispatches normally.
type Router struct {
	registry *Registry
	store    ElementStore
	batcher  *DrawBatcher
	cfg      Config
	cb       Callbacks

	// selectionChanged runs before the OnSelectionChange callback; the
	// canvas uses it to re-attach the transformer.
	selectionChanged func(ids []string)
	shiftListeners   []func(held bool)

	sessions  map[string]*GroupDragSession
	dragging  string
	dragGroup string
	dragBase  Vec2
	hovered   string
	shiftHeld bool
	stats     RouterStats
}

// NewRouter creates an event router.
func NewRouter(reg *Registry, store ElementStore, batcher *DrawBatcher, cfg Config) *Router {
	cfg = cfg.withDefaults()
	return &Router{
		registry: reg,
		store:    store,
		batcher:  batcher,
		cfg:      cfg,
		cb:       cfg.Callbacks,
		sessions: make(map[string]*GroupDragSession),
	}
}

// Stats returns the dispatch counters.
func (r *Router) Stats() RouterStats {
	return r.stats
}

// ShiftHeld reports whether shift is currently held.
func (r *Router) ShiftHeld() bool {
	return r.shiftHeld
}

// OnShiftChange registers fn to run whenever the shift flag flips.
func (r *Router) OnShiftChange(fn func(held bool)) {
	r.shiftListeners = append(r.shiftListeners, fn)
}

// Session returns the active drag session of a group.
func (r *Router) Session(groupID string) (*GroupDragSession, bool) {
	s, ok := r.sessions[groupID]
	return s, ok
}

// HoveredConnector returns the connector under the pointer, or "".
func (r *Router) HoveredConnector() string {
	return r.hovered
}

func (r *Router) guard(event string, fn func() error) {
	r.stats.Events++
	if err := safely(fn); err != nil {
		r.stats.Failures++
		Logger().Warn("easel: event handler failed", "event", event, "err", err)
	}
}

// resolve walks from target up through its ancestors to the first node
// carrying an element id, and returns that id and its registered node. An
// empty id means a background event.
func (r *Router) resolve(target SceneNode) (string, SceneNode, error) {
	for n := target; n != nil; n = n.Parent() {
		id := n.ElementID()
		if id == "" {
			continue
		}
		node, err := r.registry.Node(id)
		if err != nil {
			return "", nil, err
		}
		if node == nil {
			Logger().Debug("easel: treating event as background", "err", &NodeResolutionError{ElementID: id})
			return "", nil, nil
		}
		return id, node, nil
	}
	return "", nil, nil
}

func (r *Router) notifySelection() error {
	ids := slices.Clone(r.store.SelectedIDs())
	if ids == nil {
		ids = []string{}
	}
	if r.selectionChanged != nil {
		r.selectionChanged(ids)
	}
	if r.cb.OnSelectionChange != nil {
		r.cb.OnSelectionChange(ids)
	}
	return nil
}

// --- Selection ---

// Click applies selection semantics. Empty space clears the selection; a
// plain click selects only the element; a click with shift, ctrl or meta
// toggles its membership.
func (r *Router) Click(ev PointerEvent) {
	r.guard("click", func() error {
		id, _, err := r.resolve(ev.Target)
		if err != nil {
			return err
		}
		if id == "" {
			return r.clearSelection()
		}

		selected := r.store.SelectedIDs()
		switch {
		case ev.Modifiers.multiSelect() && lo.Contains(selected, id):
			if err := r.store.RemoveFromSelection(id); err != nil {
				return &AdapterError{Op: "remove from selection", Err: err}
			}
		case ev.Modifiers.multiSelect():
			if err := r.store.AddToSelection(id); err != nil {
				return &AdapterError{Op: "add to selection", Err: err}
			}
		case len(selected) == 1 && selected[0] == id:
			return nil
		default:
			if err := r.store.SetSelectedIDs([]string{id}); err != nil {
				return &AdapterError{Op: "set selection", Err: err}
			}
		}
		return r.notifySelection()
	})
}

func (r *Router) clearSelection() error {
	if err := r.store.ClearSelection(); err != nil {
		return &AdapterError{Op: "clear selection", Err: err}
	}
	return r.notifySelection()
}

// MarqueeSelect selects every element whose node intersects rect. With
// additive set, the hits are added to the current selection.
func (r *Router) MarqueeSelect(rect Rect, additive bool) {
	r.guard("marquee", func() error {
		hits, err := r.registry.QueryRect(rect)
		if err != nil {
			return err
		}
		hits = lo.Filter(hits, func(id string, _ int) bool {
			_, ok := r.store.Element(id)
			return ok
		})
		if additive {
			hits = lo.Union(r.store.SelectedIDs(), hits)
		}
		if err := r.store.SetSelectedIDs(hits); err != nil {
			return &AdapterError{Op: "set selection", Err: err}
		}
		return r.notifySelection()
	})
}

// --- Drag ---

// DragStart begins a drag. Dragging a group member captures every member's
// base position.
func (r *Router) DragStart(ev PointerEvent) {
	r.guard("drag start", func() error {
		id, node, err := r.resolve(ev.Target)
		if err != nil || id == "" {
			return err
		}
		r.dragging, r.dragGroup, r.dragBase = id, "", node.Position()

		if el, ok := r.store.Element(id); ok && el.GroupID != "" {
			members := r.store.GroupMembers(el.GroupID)
			s, err := newGroupDragSession(el.GroupID, members, r.registry)
			if err != nil {
				return err
			}
			r.sessions[el.GroupID] = s
			r.dragGroup = el.GroupID
		}
		if r.cb.OnDragStart != nil {
			r.cb.OnDragStart(id)
		}
		return nil
	})
}

// DragMove follows a drag. For a group member the offset of the dragged
// node from its own base is applied to every other member's base.
func (r *Router) DragMove(ev PointerEvent) {
	r.guard("drag move", func() error {
		id, node, err := r.resolve(ev.Target)
		if err != nil || id == "" {
			return err
		}
		defer r.batcher.ScheduleDraw(LayerMain)
		defer r.batcher.ScheduleDraw(LayerOverlay)

		el, ok := r.store.Element(id)
		if !ok || el.GroupID == "" {
			return nil
		}
		s, ok := r.sessions[el.GroupID]
		if !ok {
			return nil
		}
		d, ok := s.delta(id, node.Position())
		if !ok {
			return nil
		}
		if err := s.apply(id, d, r.registry); err != nil {
			return err
		}
		if r.cb.OnGroupDragMove != nil {
			r.cb.OnGroupDragMove(el.GroupID, d)
		}
		return nil
	})
}

// DragEnd commits the final positions of the dragged element and, for a
// group, of every member, as one history step. The element that received
// DragStart wins over ev.Target, so a release over another node or over a
// node unregistered mid-gesture still ends the right drag. The group
// session is always discarded; members whose position cannot be committed
// go back to their base.
func (r *Router) DragEnd(ev PointerEvent) {
	r.guard("drag end", func() error {
		id, group := r.dragging, r.dragGroup
		bases := make(map[string]Vec2)
		if id != "" {
			bases[id] = r.dragBase
		}
		r.dragging, r.dragGroup = "", ""
		if id == "" {
			resolved, _, err := r.resolve(ev.Target)
			if err != nil || resolved == "" {
				return err
			}
			id = resolved
			if el, ok := r.store.Element(id); ok {
				group = el.GroupID
			}
		}

		positions := make(map[string]Vec2)
		if node := r.liveNode(id); node != nil {
			positions[id] = node.Position()
		}
		if s, ok := r.sessions[group]; ok {
			for mid, b := range s.Base {
				bases[mid] = b
				if n := r.liveNode(mid); n != nil {
					positions[mid] = n.Position()
				}
			}
			delete(r.sessions, group)
		}

		for _, fid := range r.commitPositions(positions) {
			if b, ok := bases[fid]; ok {
				if n := r.liveNode(fid); n != nil {
					n.SetPosition(b)
				}
			}
		}
		if r.cb.OnDragEnd != nil {
			r.cb.OnDragEnd(id)
		}
		r.batcher.ScheduleDraw(LayerMain)
		r.batcher.ScheduleDraw(LayerOverlay)
		return nil
	})
}

// liveNode returns the registered node of id, or nil.
func (r *Router) liveNode(id string) SceneNode {
	n, err := r.registry.Node(id)
	if err != nil {
		return nil
	}
	return n
}

// commitPositions writes every moved element's position to the store after
// a single history checkpoint. It returns, sorted, the ids whose position
// could not be committed.
func (r *Router) commitPositions(positions map[string]Vec2) []string {
	var failed []string
	saved := false
	for _, id := range sortedKeys(positions) {
		el, ok := r.store.Element(id)
		if !ok {
			failed = append(failed, id)
			continue
		}
		p := positions[id]
		if p.X == el.X && p.Y == el.Y {
			continue
		}
		if !saved {
			if err := r.store.SaveSnapshot(); err != nil {
				Logger().Warn("easel: history snapshot failed", "err", &AdapterError{Op: "save snapshot", Err: err})
			}
			saved = true
		}
		upd := ElementUpdate{X: Float(p.X), Y: Float(p.Y)}
		if err := r.store.UpdateElement(id, upd, UpdateOptions{SkipHistory: true}); err != nil {
			Logger().Warn("easel: commit position failed", "id", id, "err", &AdapterError{Op: "update element", Err: err})
			failed = append(failed, id)
			continue
		}
		if err := r.registry.Touch(id); err != nil {
			Logger().Debug("easel: touch after drag", "id", id, "err", err)
		}
	}
	return failed
}

// CancelDrag aborts every drag session, moving members back to their base
// positions without committing.
func (r *Router) CancelDrag() {
	r.guard("drag cancel", func() error {
		for _, gid := range sortedKeys(r.sessions) {
			if err := r.sessions[gid].restore(r.registry); err != nil {
				Logger().Debug("easel: restore group", "group", gid, "err", err)
			}
		}
		clear(r.sessions)
		r.dragging, r.dragGroup = "", ""
		r.batcher.ScheduleDraw(LayerMain)
		return nil
	})
}

// Reset drops every drag session and hover state without touching nodes.
func (r *Router) Reset() {
	clear(r.sessions)
	r.dragging, r.dragGroup = "", ""
	r.hovered = ""
}

// --- Double-click ---

// DoubleClick opens the text editor on text-bearing elements and the cell
// editor on tables.
func (r *Router) DoubleClick(ev PointerEvent) {
	r.guard("double click", func() error {
		id, node, err := r.resolve(ev.Target)
		if err != nil || id == "" {
			return err
		}
		el, ok := r.store.Element(id)
		if !ok {
			return &NodeResolutionError{ElementID: id}
		}

		switch {
		case el.Type == TypeTable:
			row, col := r.tableCell(node, el, ev.X, ev.Y)
			if r.cb.OnTableCellEdit != nil {
				r.cb.OnTableCellEdit(id, row, col)
			}
		case IsTextBearing(el.Type):
			if r.cb.OnTextEditorOpen != nil {
				r.cb.OnTextEditorOpen(id, node)
			}
		}
		return nil
	})
}

// tableCell maps a stage-space point into the table's local space and
// returns the clamped (row, col) under it.
func (r *Router) tableCell(node SceneNode, el Element, x, y float64) (int, int) {
	lx, ly := node.AbsoluteTransform().Invert().Apply(x, y)
	rows := el.Rows
	if rows <= 0 {
		rows = max(1, len(el.RowHeights))
	}
	cols := el.Cols
	if cols <= 0 {
		cols = max(1, len(el.ColumnWidths))
	}
	row := clampIndex(int(math.Floor(ly/r.cfg.CellHeight)), rows)
	col := clampIndex(int(math.Floor(lx/r.cfg.CellWidth)), cols)
	return row, col
}

func clampIndex(i, n int) int {
	return max(0, min(i, n-1))
}

// --- Hover, wheel, keys ---

// PointerMove tracks the hovered connector.
func (r *Router) PointerMove(ev PointerEvent) {
	r.guard("pointer move", func() error {
		id, _, err := r.resolve(ev.Target)
		if err != nil {
			return err
		}
		hovered := ""
		if id != "" {
			if el, ok := r.store.Element(id); ok && el.Type == TypeConnector {
				hovered = id
			}
		}
		r.setHovered(hovered)
		return nil
	})
}

// PointerLeave ends any connector hover when the pointer leaves the surface.
func (r *Router) PointerLeave() {
	r.guard("pointer leave", func() error {
		r.setHovered("")
		return nil
	})
}

func (r *Router) setHovered(id string) {
	if id == r.hovered {
		return
	}
	r.hovered = id
	if r.cb.OnConnectorHover != nil {
		r.cb.OnConnectorHover(id)
	}
}

// Wheel repaints only the overlay so selection handles follow pan and zoom.
func (r *Router) Wheel(WheelEvent) {
	r.guard("wheel", func() error {
		r.batcher.ScheduleDraw(LayerOverlay)
		return nil
	})
}

// KeyDown tracks shift and clears the selection on escape.
func (r *Router) KeyDown(ev KeyEvent) {
	r.guard("key down", func() error {
		switch ev.Key {
		case KeyShift:
			r.setShift(true)
		case KeyEscape:
			if len(r.store.SelectedIDs()) > 0 {
				return r.clearSelection()
			}
		}
		return nil
	})
}

// KeyUp tracks shift.
func (r *Router) KeyUp(ev KeyEvent) {
	r.guard("key up", func() error {
		if ev.Key == KeyShift {
			r.setShift(false)
		}
		return nil
	})
}

func (r *Router) setShift(held bool) {
	if r.shiftHeld == held {
		return
	}
	r.shiftHeld = held
	for _, fn := range r.shiftListeners {
		fn(held)
	}
}

// String describes the router state for debugging.
func (r *Router) String() string {
	return fmt.Sprintf("Router{dragging:%q hovered:%q shift:%v sessions:%d}",
		r.dragging, r.hovered, r.shiftHeld, len(r.sessions))
}
