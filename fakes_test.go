package easel

import (
	"errors"
	"slices"
	"testing"
)

// --- Fake scene graph ---

type fakeNode struct {
	id       string
	name     string
	parent   *fakeNode
	children []*fakeNode

	pos      Vec2
	size     Vec2
	radius   float64
	rotation float64
	scale    Vec2
	points   []Vec2
	cols     []float64
	rows     []float64

	destroyed  int
	destroyErr error
	panicOn    string
}

func newFakeNode(id string) *fakeNode {
	return &fakeNode{id: id, scale: Vec2{X: 1, Y: 1}}
}

func (n *fakeNode) addChild(c *fakeNode) *fakeNode {
	c.parent = n
	n.children = append(n.children, c)
	return c
}

func (n *fakeNode) ElementID() string { return n.id }
func (n *fakeNode) Name() string { return n.name }

func (n *fakeNode) Parent() SceneNode {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *fakeNode) Position() Vec2 { return n.pos }
func (n *fakeNode) SetPosition(p Vec2) { n.pos = p }
func (n *fakeNode) Size() Vec2 { return n.size }
func (n *fakeNode) SetSize(s Vec2) { n.size = s }
func (n *fakeNode) Radius() float64 { return n.radius }
func (n *fakeNode) SetRadius(r float64) { n.radius = r }
func (n *fakeNode) Rotation() float64 { return n.rotation }
func (n *fakeNode) SetRotation(r float64) { n.rotation = r }
func (n *fakeNode) Scale() Vec2 { return n.scale }
func (n *fakeNode) SetScale(s Vec2) { n.scale = s }
func (n *fakeNode) SetPoints(pts []Vec2) { n.points = slices.Clone(pts) }
func (n *fakeNode) Grid() ([]float64, []float64) { return n.cols, n.rows }

func (n *fakeNode) SetGrid(cols, rows []float64) {
	n.cols, n.rows = slices.Clone(cols), slices.Clone(rows)
}

func (n *fakeNode) Bounds() Rect {
	return n.AbsoluteTransform().BoundsOf(Rect{Width: n.size.X, Height: n.size.Y})
}

func (n *fakeNode) AbsoluteTransform() Affine {
	local := LocalAffine(n.pos.X, n.pos.Y, n.rotation, n.scale.X, n.scale.Y)
	if n.parent == nil {
		return local
	}
	return n.parent.AbsoluteTransform().Multiply(local)
}

func (n *fakeNode) FindDescendant(name string) (SceneNode, bool) {
	for _, c := range n.children {
		if c.name == name {
			return c, true
		}
		if d, ok := c.FindDescendant(name); ok {
			return d, true
		}
	}
	return nil, false
}

func (n *fakeNode) Destroy() error {
	n.destroyed++
	if n.panicOn == "destroy" {
		panic("destroy exploded")
	}
	return n.destroyErr
}

type fakeLayer struct {
	name      LayerName
	nodes     []SceneNode
	draws     int
	drawErr   error
	onDraw    func()
	listening bool
	destroyed int
	addErr    error
	log       *[]string
}

func (l *fakeLayer) Name() LayerName { return l.name }

func (l *fakeLayer) Add(n SceneNode) error {
	if l.addErr != nil {
		return l.addErr
	}
	l.nodes = append(l.nodes, n)
	return nil
}

func (l *fakeLayer) Draw() error {
	l.draws++
	if l.log != nil {
		*l.log = append(*l.log, "draw "+string(l.name))
	}
	if l.onDraw != nil {
		l.onDraw()
	}
	return l.drawErr
}

func (l *fakeLayer) MoveToTop() {
	if l.log != nil {
		*l.log = append(*l.log, "top "+string(l.name))
	}
}

func (l *fakeLayer) MoveToBottom() {}
func (l *fakeLayer) SetListening(on bool) { l.listening = on }
func (l *fakeLayer) Destroy() error { l.destroyed++; return nil }

type fakeSurface struct {
	layers    map[LayerName]*fakeLayer
	createErr error
	log       []string
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{layers: make(map[LayerName]*fakeLayer)}
}

func (s *fakeSurface) Layer(name LayerName) (Layer, bool) {
	l, ok := s.layers[name]
	if !ok {
		return nil, false
	}
	return l, true
}

func (s *fakeSurface) CreateLayer(name LayerName) (Layer, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	l := &fakeLayer{name: name, listening: true, log: &s.log}
	s.layers[name] = l
	return l, nil
}

// manualScheduler queues frame callbacks until flush.
type manualScheduler struct {
	queue    []func()
	requests int
	cancels  int
}

func (s *manualScheduler) RequestFrame(fn func()) func() {
	s.requests++
	s.queue = append(s.queue, fn)
	idx := len(s.queue) - 1
	return func() {
		s.cancels++
		if idx < len(s.queue) {
			s.queue[idx] = nil
		}
	}
}

func (s *manualScheduler) flush() int {
	q := s.queue
	s.queue = nil
	ran := 0
	for _, fn := range q {
		if fn != nil {
			fn()
			ran++
		}
	}
	return ran
}

// --- Fake store ---

type storeUpdate struct {
	id   string
	upd  ElementUpdate
	opts UpdateOptions
}

type fakeStore struct {
	elements  map[string]Element
	selected  []string
	groups    map[string][]string
	updates   []storeUpdate
	snapshots int
	failOn    map[string]error
}

func newFakeStore(els ...Element) *fakeStore {
	s := &fakeStore{
		elements: make(map[string]Element),
		groups:   make(map[string][]string),
		failOn:   make(map[string]error),
	}
	for _, el := range els {
		s.elements[el.ID] = el
		if el.GroupID != "" {
			s.groups[el.GroupID] = append(s.groups[el.GroupID], el.ID)
		}
	}
	return s
}

func (s *fakeStore) Element(id string) (Element, bool) {
	el, ok := s.elements[id]
	return el, ok
}

func (s *fakeStore) SelectedIDs() []string { return slices.Clone(s.selected) }

func (s *fakeStore) SetSelectedIDs(ids []string) error {
	if err := s.failOn["select"]; err != nil {
		return err
	}
	s.selected = slices.Clone(ids)
	return nil
}

func (s *fakeStore) AddToSelection(id string) error {
	if !slices.Contains(s.selected, id) {
		s.selected = append(s.selected, id)
	}
	return nil
}

func (s *fakeStore) RemoveFromSelection(id string) error {
	s.selected = slices.DeleteFunc(s.selected, func(x string) bool { return x == id })
	return nil
}

func (s *fakeStore) ClearSelection() error {
	s.selected = nil
	return nil
}

func (s *fakeStore) GroupMembers(groupID string) []string {
	return slices.Clone(s.groups[groupID])
}

func (s *fakeStore) UpdateElement(id string, upd ElementUpdate, opts UpdateOptions) error {
	if err := s.failOn[id]; err != nil {
		return err
	}
	s.updates = append(s.updates, storeUpdate{id: id, upd: upd, opts: opts})
	s.elements[id] = upd.Apply(s.elements[id])
	return nil
}

func (s *fakeStore) SaveSnapshot() error {
	s.snapshots++
	return nil
}

// --- Fake transformer ---

type fakeTransformer struct {
	nodes     []SceneNode
	handles   []Handle
	keepRatio bool
	rotate    bool
	centered  bool
	bound     BoundingConstraint
	active    Handle
}

func (t *fakeTransformer) SetNodes(nodes []SceneNode) { t.nodes = nodes }
func (t *fakeTransformer) Nodes() []SceneNode { return t.nodes }
func (t *fakeTransformer) SetEnabledHandles(h []Handle) { t.handles = h }
func (t *fakeTransformer) SetKeepRatio(keep bool) { t.keepRatio = keep }
func (t *fakeTransformer) SetRotateEnabled(on bool) { t.rotate = on }
func (t *fakeTransformer) SetCenteredScaling(on bool) { t.centered = on }
func (t *fakeTransformer) SetBoundBoxFunc(fn BoundingConstraint) { t.bound = fn }
func (t *fakeTransformer) ActiveHandle() Handle { return t.active }

// --- Fake builder ---

type fakeBuilder struct {
	built     []string
	updated   []string
	nodes     map[string]*fakeNode
	buildErr  map[string]error
	updateErr map[string]error
}

func newFakeBuilder() *fakeBuilder {
	return &fakeBuilder{
		nodes:     make(map[string]*fakeNode),
		buildErr:  make(map[string]error),
		updateErr: make(map[string]error),
	}
}

func (b *fakeBuilder) Build(el Element) (SceneNode, error) {
	if err := b.buildErr[el.ID]; err != nil {
		return nil, err
	}
	b.built = append(b.built, el.ID)
	n := newFakeNode(el.ID)
	n.pos = Vec2{X: el.X, Y: el.Y}
	n.size = Vec2{X: el.Width, Y: el.Height}
	n.radius = el.Radius
	hit := n.addChild(&fakeNode{name: HitRegionName, scale: Vec2{X: 1, Y: 1}})
	hit.size = Vec2{X: el.Width + 10, Y: el.Height + 10}
	hit.radius = el.Radius + 5
	b.nodes[el.ID] = n
	return n, nil
}

func (b *fakeBuilder) Update(node SceneNode, el Element) error {
	if err := b.updateErr[el.ID]; err != nil {
		return err
	}
	b.updated = append(b.updated, el.ID)
	node.SetPosition(Vec2{X: el.X, Y: el.Y})
	node.SetSize(Vec2{X: el.Width, Y: el.Height})
	return nil
}

// --- Fixtures ---

var errBoom = errors.New("boom")

// newTestCanvas returns a canvas initialized on a fake surface with nodes
// built for every element of store.
func newTestCanvas(t testing.TB, store *fakeStore, cfg Config) (*Canvas, *fakeSurface, *manualScheduler, *fakeTransformer, *fakeBuilder) {
	t.Helper()
	sched := &manualScheduler{}
	tr := &fakeTransformer{}
	if cfg.Measurer == nil {
		cfg.Measurer = estimateMeasurer{}
	}
	c := New(store, sched, tr, cfg)
	surf := newFakeSurface()
	if err := c.Init(surf); err != nil {
		t.Fatalf("Init: %v", err)
	}
	b := newFakeBuilder()
	els := make([]Element, 0, len(store.elements))
	for _, id := range sortedKeys(store.elements) {
		els = append(els, store.elements[id])
	}
	if _, err := c.SyncElements(els, b); err != nil {
		t.Fatalf("SyncElements: %v", err)
	}
	sched.flush()
	return c, surf, sched, tr, b
}
