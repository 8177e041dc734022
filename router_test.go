package easel

import (
	"slices"
	"testing"
)

type callbackLog struct {
	selections [][]string
	dragStarts []string
	dragEnds   []string
	groupMoves []Delta
	editors    []string
	cells      [][3]any
	hovers     []string
}

func (l *callbackLog) callbacks() Callbacks {
	return Callbacks{
		OnSelectionChange: func(ids []string) { l.selections = append(l.selections, ids) },
		OnDragStart:       func(id string) { l.dragStarts = append(l.dragStarts, id) },
		OnDragEnd:         func(id string) { l.dragEnds = append(l.dragEnds, id) },
		OnGroupDragMove: func(groupID string, d Delta) {
			l.groupMoves = append(l.groupMoves, d)
		},
		OnTextEditorOpen: func(id string, _ SceneNode) { l.editors = append(l.editors, id) },
		OnTableCellEdit: func(id string, row, col int) {
			l.cells = append(l.cells, [3]any{id, row, col})
		},
		OnConnectorHover: func(id string) { l.hovers = append(l.hovers, id) },
	}
}

func newRouterFixture(t *testing.T, els ...Element) (*Canvas, *fakeStore, *fakeBuilder, *callbackLog) {
	t.Helper()
	log := &callbackLog{}
	store := newFakeStore(els...)
	cfg := Config{Callbacks: log.callbacks()}
	c, _, _, _, b := newTestCanvas(t, store, cfg)
	return c, store, b, log
}

func target(b *fakeBuilder, id string) SceneNode {
	return b.nodes[id]
}

// --- Selection ---

func TestClickSelection(t *testing.T) {
	els := []Element{
		{ID: "e1", Type: TypeRectangle, Width: 10, Height: 10},
		{ID: "e2", Type: TypeRectangle, X: 50, Width: 10, Height: 10},
		{ID: "e3", Type: TypeRectangle, X: 100, Width: 10, Height: 10},
	}

	tests := []struct {
		name     string
		initial  []string
		target   string
		mods     KeyModifiers
		want     []string
		notified bool
	}{
		{"background clears", []string{"e1", "e2"}, "", 0, nil, true},
		{"plain click replaces", []string{"e1", "e2"}, "e3", 0, []string{"e3"}, true},
		{"plain click on sole selection is a no-op", []string{"e1"}, "e1", 0, []string{"e1"}, false},
		{"shift adds", []string{"e1"}, "e2", ModShift, []string{"e1", "e2"}, true},
		{"shift removes only that element", []string{"e1", "e2", "e3"}, "e2", ModShift, []string{"e1", "e3"}, true},
		{"ctrl toggles", []string{"e1"}, "e1", ModCtrl, nil, true},
		{"meta toggles", []string{"e1"}, "e3", ModMeta, []string{"e1", "e3"}, true},
		{"alt does not toggle", []string{"e1", "e2"}, "e3", ModAlt, []string{"e3"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store, b, log := newRouterFixture(t, els...)
			store.selected = slices.Clone(tt.initial)

			var tgt SceneNode
			if tt.target != "" {
				tgt = target(b, tt.target)
			}
			c.Router().Click(PointerEvent{Target: tgt, Modifiers: tt.mods})

			if !slices.Equal(store.selected, tt.want) {
				t.Errorf("selection = %v, want %v", store.selected, tt.want)
			}
			if got := len(log.selections) > 0; got != tt.notified {
				t.Fatalf("OnSelectionChange fired = %v, want %v", got, tt.notified)
			}
			if tt.notified {
				last := log.selections[len(log.selections)-1]
				if last == nil {
					t.Error("OnSelectionChange should receive a non-nil slice")
				}
				if !slices.Equal(last, tt.want) && !(len(last) == 0 && len(tt.want) == 0) {
					t.Errorf("OnSelectionChange(%v), want %v", last, tt.want)
				}
			}
		})
	}
}

func TestClickResolvesThroughDecorativeChildren(t *testing.T) {
	c, store, b, _ := newRouterFixture(t, Element{ID: "e1", Type: TypeRectangle, Width: 10, Height: 10})
	hit, _ := b.nodes["e1"].FindDescendant(HitRegionName)

	c.Router().Click(PointerEvent{Target: hit})
	if !slices.Equal(store.selected, []string{"e1"}) {
		t.Errorf("selection = %v, want [e1]", store.selected)
	}
}

func TestClickUnknownNodeIsBackground(t *testing.T) {
	c, store, _, log := newRouterFixture(t, Element{ID: "e1", Type: TypeRectangle, Width: 10, Height: 10})
	store.selected = []string{"e1"}

	c.Router().Click(PointerEvent{Target: newFakeNode("ghost")})
	if len(store.selected) != 0 {
		t.Errorf("selection = %v, want empty", store.selected)
	}
	if len(log.selections) != 1 {
		t.Errorf("OnSelectionChange fired %d times, want 1", len(log.selections))
	}
}

func TestClickSyncsTransformer(t *testing.T) {
	log := &callbackLog{}
	store := newFakeStore(
		Element{ID: "img", Type: TypeImage, Width: 10, Height: 10},
		Element{ID: "tb", Type: TypeTable, Width: 10, Height: 10, Rows: 1, Cols: 1},
	)
	c, _, _, tr, b := newTestCanvas(t, store, Config{Callbacks: log.callbacks()})

	c.Router().Click(PointerEvent{Target: b.nodes["img"]})
	if len(tr.nodes) != 1 || tr.nodes[0].ElementID() != "img" {
		t.Fatalf("transformer nodes = %v, want [img]", tr.nodes)
	}
	if !tr.keepRatio {
		t.Error("image selection should lock aspect ratio")
	}

	c.Router().Click(PointerEvent{Target: b.nodes["tb"]})
	if len(tr.nodes) != 0 {
		t.Errorf("table selection attached %d nodes to the transformer, want 0", len(tr.nodes))
	}
}

func TestStoreFailureContained(t *testing.T) {
	c, store, b, log := newRouterFixture(t, Element{ID: "e1", Type: TypeRectangle, Width: 10, Height: 10})
	store.failOn["select"] = errBoom

	c.Router().Click(PointerEvent{Target: b.nodes["e1"]})
	if len(log.selections) != 0 {
		t.Error("failed selection should not notify")
	}
	if st := c.Router().Stats(); st.Failures != 1 {
		t.Errorf("Failures = %d, want 1", st.Failures)
	}

	delete(store.failOn, "select")
	c.Router().Click(PointerEvent{Target: b.nodes["e1"]})
	if !slices.Equal(store.selected, []string{"e1"}) {
		t.Errorf("next event after a failure: selection = %v", store.selected)
	}
}

func TestMarqueeSelect(t *testing.T) {
	c, store, _, log := newRouterFixture(t,
		Element{ID: "a", Type: TypeRectangle, X: 0, Y: 0, Width: 20, Height: 20},
		Element{ID: "b", Type: TypeRectangle, X: 40, Y: 0, Width: 20, Height: 20},
		Element{ID: "c", Type: TypeRectangle, X: 200, Y: 200, Width: 20, Height: 20},
	)
	c.Router().MarqueeSelect(Rect{X: 10, Y: 10, Width: 40, Height: 5}, false)
	if !slices.Equal(store.selected, []string{"a", "b"}) {
		t.Errorf("selection = %v, want [a b]", store.selected)
	}

	c.Router().MarqueeSelect(Rect{X: 190, Y: 190, Width: 20, Height: 20}, true)
	if !slices.Equal(store.selected, []string{"a", "b", "c"}) {
		t.Errorf("additive selection = %v, want [a b c]", store.selected)
	}
	if len(log.selections) != 2 {
		t.Errorf("OnSelectionChange fired %d times, want 2", len(log.selections))
	}
}

// --- Drag ---

func groupFixture() []Element {
	return []Element{
		{ID: "a", Type: TypeRectangle, X: 0, Y: 0, Width: 10, Height: 10, GroupID: "g1"},
		{ID: "b", Type: TypeRectangle, X: 100, Y: 50, Width: 10, Height: 10, GroupID: "g1"},
		{ID: "c", Type: TypeCircle, X: -30, Y: 200, Radius: 5, GroupID: "g1"},
		{ID: "solo", Type: TypeRectangle, X: 500, Y: 500, Width: 10, Height: 10},
	}
}

func TestGroupDrag(t *testing.T) {
	c, store, b, log := newRouterFixture(t, groupFixture()...)
	r := c.Router()
	a := b.nodes["a"]

	r.DragStart(PointerEvent{Target: a})
	if _, ok := r.Session("g1"); !ok {
		t.Fatal("DragStart should open a session for g1")
	}

	a.pos = Vec2{X: 20, Y: -10}
	r.DragMove(PointerEvent{Target: a})

	if got := b.nodes["b"].pos; got != (Vec2{X: 120, Y: 40}) {
		t.Errorf("b position = %v, want (120, 40)", got)
	}
	if got := b.nodes["c"].pos; got != (Vec2{X: -10, Y: 190}) {
		t.Errorf("c position = %v, want (-10, 190)", got)
	}
	if got := b.nodes["solo"].pos; got != (Vec2{X: 500, Y: 500}) {
		t.Errorf("non-member moved to %v", got)
	}
	if len(log.groupMoves) != 1 || log.groupMoves[0] != (Delta{DX: 20, DY: -10}) {
		t.Errorf("OnGroupDragMove = %v, want one {20 -10}", log.groupMoves)
	}

	// Deltas are measured from the captured base, not accumulated.
	a.pos = Vec2{X: 25, Y: -5}
	r.DragMove(PointerEvent{Target: a})
	if got := b.nodes["b"].pos; got != (Vec2{X: 125, Y: 45}) {
		t.Errorf("b position after second move = %v, want (125, 45)", got)
	}
	if len(log.groupMoves) != 2 {
		t.Errorf("OnGroupDragMove fired %d times, want 2", len(log.groupMoves))
	}

	r.DragEnd(PointerEvent{Target: a})
	if _, ok := r.Session("g1"); ok {
		t.Error("DragEnd should discard the session")
	}
	if store.snapshots != 1 {
		t.Errorf("SaveSnapshot calls = %d, want 1", store.snapshots)
	}
	if len(store.updates) != 3 {
		t.Fatalf("UpdateElement calls = %d, want 3", len(store.updates))
	}
	for _, u := range store.updates {
		if !u.opts.SkipHistory {
			t.Errorf("update of %s should skip history", u.id)
		}
	}
	if el := store.elements["b"]; el.X != 125 || el.Y != 45 {
		t.Errorf("committed b = (%v, %v), want (125, 45)", el.X, el.Y)
	}
	if !slices.Equal(log.dragStarts, []string{"a"}) || !slices.Equal(log.dragEnds, []string{"a"}) {
		t.Errorf("drag callbacks = %v / %v", log.dragStarts, log.dragEnds)
	}
}

func TestDragWithoutGroup(t *testing.T) {
	c, store, b, log := newRouterFixture(t, groupFixture()...)
	r := c.Router()
	solo := b.nodes["solo"]

	r.DragStart(PointerEvent{Target: solo})
	solo.pos = Vec2{X: 510, Y: 490}
	r.DragMove(PointerEvent{Target: solo})
	r.DragEnd(PointerEvent{Target: solo})

	if len(log.groupMoves) != 0 {
		t.Error("ungrouped drag should not fire OnGroupDragMove")
	}
	if len(store.updates) != 1 || store.updates[0].id != "solo" {
		t.Errorf("updates = %+v, want one for solo", store.updates)
	}
}

func TestDragEndWithoutMovement(t *testing.T) {
	c, store, b, _ := newRouterFixture(t, groupFixture()...)
	r := c.Router()
	r.DragStart(PointerEvent{Target: b.nodes["a"]})
	r.DragEnd(PointerEvent{Target: b.nodes["a"]})

	if store.snapshots != 0 || len(store.updates) != 0 {
		t.Errorf("unmoved drag committed: %d snapshots, %d updates", store.snapshots, len(store.updates))
	}
}

func TestCancelDragRestoresBase(t *testing.T) {
	c, store, b, _ := newRouterFixture(t, groupFixture()...)
	r := c.Router()
	a := b.nodes["a"]

	r.DragStart(PointerEvent{Target: a})
	a.pos = Vec2{X: 20, Y: 20}
	r.DragMove(PointerEvent{Target: a})
	r.CancelDrag()

	if a.pos != (Vec2{}) || b.nodes["b"].pos != (Vec2{X: 100, Y: 50}) {
		t.Errorf("positions after cancel: a=%v b=%v", a.pos, b.nodes["b"].pos)
	}
	if len(store.updates) != 0 {
		t.Error("cancel should not commit")
	}
}

func TestDragEndWithoutTarget(t *testing.T) {
	c, store, b, log := newRouterFixture(t, groupFixture()...)
	r := c.Router()
	a := b.nodes["a"]

	r.DragStart(PointerEvent{Target: a})
	a.pos = Vec2{X: 20, Y: -10}
	r.DragMove(PointerEvent{Target: a})
	r.DragEnd(PointerEvent{})

	if _, ok := r.Session("g1"); ok {
		t.Error("DragEnd without a target should still discard the session")
	}
	if len(store.updates) != 3 {
		t.Fatalf("UpdateElement calls = %d, want 3", len(store.updates))
	}
	if el := store.elements["b"]; el.X != 120 || el.Y != 40 {
		t.Errorf("committed b = (%v, %v), want (120, 40)", el.X, el.Y)
	}
	if !slices.Equal(log.dragEnds, []string{"a"}) {
		t.Errorf("OnDragEnd = %v, want [a]", log.dragEnds)
	}
}

func TestDragEndAfterDraggedNodeUnregistered(t *testing.T) {
	c, store, b, _ := newRouterFixture(t, groupFixture()...)
	r := c.Router()
	a := b.nodes["a"]

	r.DragStart(PointerEvent{Target: a})
	a.pos = Vec2{X: 20, Y: -10}
	r.DragMove(PointerEvent{Target: a})
	if _, err := c.Registry().UnregisterNode("a"); err != nil {
		t.Fatal(err)
	}
	r.DragEnd(PointerEvent{Target: a})

	if _, ok := r.Session("g1"); ok {
		t.Error("session leaked")
	}
	var ids []string
	for _, u := range store.updates {
		ids = append(ids, u.id)
	}
	if !slices.Equal(ids, []string{"b", "c"}) {
		t.Errorf("committed %v, want [b c]", ids)
	}
	if store.snapshots != 1 {
		t.Errorf("SaveSnapshot calls = %d, want 1", store.snapshots)
	}
}

func TestDragEndRestoresUncommittedMembers(t *testing.T) {
	c, store, b, _ := newRouterFixture(t, groupFixture()...)
	store.failOn["b"] = errBoom
	r := c.Router()
	a := b.nodes["a"]

	r.DragStart(PointerEvent{Target: a})
	a.pos = Vec2{X: 20, Y: -10}
	r.DragMove(PointerEvent{Target: a})
	r.DragEnd(PointerEvent{Target: a})

	if got := b.nodes["b"].pos; got != (Vec2{X: 100, Y: 50}) {
		t.Errorf("b = %v, want its base (100, 50)", got)
	}
	if got := b.nodes["c"].pos; got != (Vec2{X: -10, Y: 190}) {
		t.Errorf("c = %v, want (-10, 190)", got)
	}
	if el := store.elements["a"]; el.X != 20 || el.Y != -10 {
		t.Errorf("committed a = (%v, %v)", el.X, el.Y)
	}
}

func TestDragEndReleasedOverAnotherNode(t *testing.T) {
	c, store, b, log := newRouterFixture(t, groupFixture()...)
	r := c.Router()
	solo := b.nodes["solo"]

	r.DragStart(PointerEvent{Target: solo})
	solo.pos = Vec2{X: 510, Y: 500}
	r.DragMove(PointerEvent{Target: solo})
	r.DragEnd(PointerEvent{Target: b.nodes["a"]})

	if len(store.updates) != 1 || store.updates[0].id != "solo" {
		t.Errorf("updates = %+v, want one for solo", store.updates)
	}
	if !slices.Equal(log.dragEnds, []string{"solo"}) {
		t.Errorf("OnDragEnd = %v, want [solo]", log.dragEnds)
	}
}

// --- Double-click ---

func TestDoubleClickTableCell(t *testing.T) {
	table := Element{ID: "tb", Type: TypeTable, X: 1000, Y: 500, Width: 200, Height: 120, Rows: 3, Cols: 2}

	tests := []struct {
		name     string
		lx, ly   float64
		row, col int
	}{
		{"first cell", 10, 10, 0, 0},
		{"second row", 50, 50, 1, 0},
		{"column clamped", 250, 50, 1, 1},
		{"row clamped", 10, 500, 2, 0},
		{"negative clamped", -20, -5, 0, 0},
		{"both clamped", 250, 150, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, b, log := newRouterFixture(t, table)
			c.Router().DoubleClick(PointerEvent{Target: b.nodes["tb"], X: 1000 + tt.lx, Y: 500 + tt.ly})
			if len(log.cells) != 1 {
				t.Fatalf("OnTableCellEdit fired %d times, want 1", len(log.cells))
			}
			want := [3]any{"tb", tt.row, tt.col}
			if log.cells[0] != want {
				t.Errorf("cell = %v, want %v", log.cells[0], want)
			}
		})
	}
}

func TestDoubleClickRotatedTable(t *testing.T) {
	c, _, b, log := newRouterFixture(t, Element{ID: "tb", Type: TypeTable, Width: 200, Height: 120, Rows: 3, Cols: 2})
	n := b.nodes["tb"]
	n.rotation = 1.5707963267948966 // 90° clockwise: local +x maps to stage +y

	c.Router().DoubleClick(PointerEvent{Target: n, X: -50, Y: 150})
	want := [3]any{"tb", 1, 1}
	if len(log.cells) != 1 || log.cells[0] != want {
		t.Errorf("cells = %v, want [%v]", log.cells, want)
	}
}

func TestDoubleClickTextBearing(t *testing.T) {
	tests := []struct {
		typ  ElementType
		want bool
	}{
		{TypeText, true},
		{TypeStickyNote, true},
		{TypeCircleText, true},
		{TypeRectangle, false},
		{TypeImage, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			c, _, b, log := newRouterFixture(t, Element{ID: "e", Type: tt.typ, Width: 10, Height: 10, Radius: 5})
			c.Router().DoubleClick(PointerEvent{Target: b.nodes["e"]})
			if got := len(log.editors) == 1; got != tt.want {
				t.Errorf("editor opened = %v, want %v", got, tt.want)
			}
		})
	}
}

// --- Hover, wheel, keys ---

func TestConnectorHover(t *testing.T) {
	c, _, b, log := newRouterFixture(t,
		Element{ID: "k1", Type: TypeConnector, Points: []Vec2{{0, 0}, {10, 10}}},
		Element{ID: "k2", Type: TypeConnector, Points: []Vec2{{0, 0}, {10, 10}}},
		Element{ID: "r", Type: TypeRectangle, Width: 10, Height: 10},
	)
	r := c.Router()

	r.PointerMove(PointerEvent{Target: b.nodes["k1"]})
	r.PointerMove(PointerEvent{Target: b.nodes["k1"]})
	r.PointerMove(PointerEvent{Target: b.nodes["k2"]})
	r.PointerMove(PointerEvent{Target: b.nodes["r"]})
	r.PointerMove(PointerEvent{})
	r.PointerMove(PointerEvent{Target: b.nodes["k1"]})
	r.PointerLeave()
	r.PointerLeave()

	want := []string{"k1", "k2", "", "k1", ""}
	if !slices.Equal(log.hovers, want) {
		t.Errorf("hovers = %q, want %q", log.hovers, want)
	}
	if r.HoveredConnector() != "" {
		t.Errorf("HoveredConnector = %q after leave", r.HoveredConnector())
	}
}

func TestWheelRepaintsOverlayOnly(t *testing.T) {
	c, _, _, _ := newRouterFixture(t)
	c.Router().Wheel(WheelEvent{DeltaY: 1})

	b := c.Batcher()
	if !b.Dirty(LayerOverlay) {
		t.Error("wheel should mark the overlay dirty")
	}
	if b.Dirty(LayerMain) || b.Dirty(LayerPreview) {
		t.Error("wheel should not mark main or preview dirty")
	}
}

func TestShiftTracking(t *testing.T) {
	c, _, _, _ := newRouterFixture(t)
	r := c.Router()
	var changes []bool
	r.OnShiftChange(func(held bool) { changes = append(changes, held) })

	r.KeyDown(KeyEvent{Key: KeyShift})
	r.KeyDown(KeyEvent{Key: KeyShift})
	if !r.ShiftHeld() {
		t.Error("ShiftHeld should be true after keydown")
	}
	r.KeyUp(KeyEvent{Key: KeyShift})
	if r.ShiftHeld() {
		t.Error("ShiftHeld should be false after keyup")
	}
	if !slices.Equal(changes, []bool{true, false}) {
		t.Errorf("shift changes = %v, want [true false]", changes)
	}
}

func TestShiftLocksLoneCircle(t *testing.T) {
	store := newFakeStore(
		Element{ID: "c", Type: TypeCircle, Radius: 10},
		Element{ID: "r", Type: TypeRectangle, Width: 10, Height: 10},
	)
	c, _, _, tr, b := newTestCanvas(t, store, Config{})
	r := c.Router()

	r.Click(PointerEvent{Target: b.nodes["c"]})
	if tr.keepRatio {
		t.Fatal("circle should not lock ratio without shift")
	}
	r.KeyDown(KeyEvent{Key: KeyShift})
	if !tr.keepRatio {
		t.Error("shift over a lone circle should lock ratio")
	}
	r.KeyUp(KeyEvent{Key: KeyShift})
	if tr.keepRatio {
		t.Error("releasing shift should unlock ratio")
	}

	r.Click(PointerEvent{Target: b.nodes["r"]})
	r.KeyDown(KeyEvent{Key: KeyShift})
	if tr.keepRatio {
		t.Error("shift over a rectangle should not lock ratio")
	}
}

func TestEscapeClearsSelection(t *testing.T) {
	c, store, _, log := newRouterFixture(t, Element{ID: "e1", Type: TypeRectangle, Width: 10, Height: 10})
	store.selected = []string{"e1"}

	c.Router().KeyDown(KeyEvent{Key: KeyEscape})
	if len(store.selected) != 0 {
		t.Errorf("selection = %v, want empty", store.selected)
	}
	c.Router().KeyDown(KeyEvent{Key: KeyEscape})
	if len(log.selections) != 1 {
		t.Errorf("OnSelectionChange fired %d times, want 1", len(log.selections))
	}
}
