package easel

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"
)

// State is the lifecycle state of a Registry.
type State uint8

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateDestroying
	StateDestroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDestroying:
		return "destroying"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Entry is the registry record of one registered node.
type Entry struct {
	Node        SceneNode
	ElementID   string
	ElementType ElementType
	CreatedAt   time.Time
	LastUpdated time.Time

	// snapshot is the element the node was last built or updated from.
	// Nodes registered directly have none and are refreshed on the next sync.
	snapshot    Element
	hasSnapshot bool
}

// RegistryStats counts node churn over the registry's lifetime.
type RegistryStats struct {
	NodesCreated    int
	NodesDestroyed  int
	DestroyFailures int
}

// Registry owns the element id to node mapping and the layer stack.
// At most one entry exists per element id.
type Registry struct {
	state   State
	layers  map[LayerName]Layer
	entries map[string]*Entry
	index   *spatialIndex // nil when the spatial index is disabled
	clock   func() time.Time
	stats   RegistryStats
}

// NewRegistry creates an uninitialized registry.
func NewRegistry(cfg Config) *Registry {
	cfg = cfg.withDefaults()
	r := &Registry{
		entries: make(map[string]*Entry),
		clock:   cfg.Clock,
	}
	if cfg.SpatialIndex {
		r.index = newSpatialIndex()
	}
	return r
}

// State returns the current lifecycle state.
func (r *Registry) State() State {
	return r.state
}

// Stats returns the node churn counters.
func (r *Registry) Stats() RegistryStats {
	return r.stats
}

func (r *Registry) ready(op string) error {
	if r.state != StateReady {
		return &InvalidStateError{Op: op, State: r.state}
	}
	return nil
}

// --- Lifecycle ---

// Init resolves or creates the four layers on surface and re-asserts their
// z-order. On failure the registry reverts to StateUninitialized.
func (r *Registry) Init(surface Surface) (err error) {
	if r.state != StateUninitialized && r.state != StateDestroyed {
		return &InvalidStateError{Op: "init", State: r.state}
	}
	r.state = StateInitializing
	defer func() {
		if err != nil {
			r.state = StateUninitialized
			r.layers = nil
		}
	}()

	if surface == nil {
		return &InitializationError{Reason: "missing root surface"}
	}

	layers := make(map[LayerName]Layer, len(Layers))
	for _, name := range Layers {
		l, ok := surface.Layer(name)
		if !ok {
			l, err = surface.CreateLayer(name)
			if err != nil {
				return &InitializationError{Reason: fmt.Sprintf("create layer %s", name), Err: err}
			}
		}
		if l == nil {
			return &InitializationError{Reason: fmt.Sprintf("layer %s is nil", name)}
		}
		layers[name] = l
	}

	// Bottom to top; every Init re-asserts the whole stack.
	for _, name := range Layers {
		layers[name].MoveToTop()
	}
	layers[LayerBackground].SetListening(false)

	r.layers = layers
	r.state = StateReady
	Logger().Debug("easel: registry ready")
	return nil
}

// Destroy removes every node and destroys the layers. Layer destruction
// failures are returned; node destruction failures are only logged.
func (r *Registry) Destroy() error {
	switch r.state {
	case StateUninitialized, StateDestroyed:
		return nil
	}
	r.state = StateDestroying
	r.clearEntries()

	var errs []error
	for _, name := range Layers {
		l := r.layers[name]
		if l == nil {
			continue
		}
		if err := safely(l.Destroy); err != nil {
			errs = append(errs, fmt.Errorf("destroy layer %s: %w", name, err))
		}
	}
	r.layers = nil
	r.state = StateDestroyed
	Logger().Debug("easel: registry destroyed",
		"created", r.stats.NodesCreated, "destroyed", r.stats.NodesDestroyed)
	return errors.Join(errs...)
}

// Layer returns the layer handle with the given name. It is available from
// the end of Init until Destroy finishes, so teardown paths can still paint.
func (r *Registry) Layer(name LayerName) (Layer, bool) {
	l, ok := r.layers[name]
	return l, ok
}

// --- Registration ---

// RegisterNode maps id to node. A prior entry for id is destroyed and
// replaced.
func (r *Registry) RegisterNode(id string, node SceneNode, typ ElementType) error {
	if err := r.ready("register node"); err != nil {
		return err
	}
	if id == "" {
		return errors.New("easel: register node: empty element id")
	}
	if node == nil {
		return fmt.Errorf("easel: register node %q: nil node", id)
	}
	r.register(id, node, typ)
	return nil
}

func (r *Registry) register(id string, node SceneNode, typ ElementType) *Entry {
	now := r.clock()
	if prev, ok := r.entries[id]; ok {
		if prev.Node == node {
			prev.ElementType = typ
			prev.LastUpdated = now
			prev.hasSnapshot = false
			r.index.insert(id, node.Bounds())
			return prev
		}
		r.release(prev)
	}
	e := &Entry{
		Node:        node,
		ElementID:   id,
		ElementType: typ,
		CreatedAt:   now,
		LastUpdated: now,
	}
	r.entries[id] = e
	r.index.insert(id, node.Bounds())
	r.stats.NodesCreated++
	return e
}

// UnregisterNode removes and destroys the node registered for id. It
// reports whether an entry existed.
func (r *Registry) UnregisterNode(id string) (bool, error) {
	if err := r.ready("unregister node"); err != nil {
		return false, err
	}
	e, ok := r.entries[id]
	if !ok {
		return false, nil
	}
	r.release(e)
	return true, nil
}

// release removes e from the map and index, then destroys its node.
func (r *Registry) release(e *Entry) {
	delete(r.entries, e.ElementID)
	r.index.remove(e.ElementID)
	if err := safely(e.Node.Destroy); err != nil {
		r.stats.DestroyFailures++
		Logger().Warn("easel: node destroy failed", "id", e.ElementID, "type", e.ElementType, "err", err)
	}
	r.stats.NodesDestroyed++
}

// Node returns the node registered for id, or nil if there is none.
func (r *Registry) Node(id string) (SceneNode, error) {
	if err := r.ready("get node"); err != nil {
		return nil, err
	}
	if e, ok := r.entries[id]; ok {
		return e.Node, nil
	}
	return nil, nil
}

// Entry returns a copy of the entry registered for id.
func (r *Registry) Entry(id string) (Entry, bool, error) {
	if err := r.ready("get entry"); err != nil {
		return Entry{}, false, err
	}
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, false, nil
	}
	return *e, true, nil
}

// Touch records that the node for id moved or resized outside a sync,
// refreshing its timestamp and indexed bounds.
func (r *Registry) Touch(id string) error {
	if err := r.ready("touch node"); err != nil {
		return err
	}
	e, ok := r.entries[id]
	if !ok {
		return nil
	}
	e.LastUpdated = r.clock()
	r.index.insert(id, e.Node.Bounds())
	return nil
}

// IDs returns the registered element ids in sorted order.
func (r *Registry) IDs() ([]string, error) {
	if err := r.ready("list ids"); err != nil {
		return nil, err
	}
	return sortedKeys(r.entries), nil
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	return len(r.entries)
}

// ClearAllNodes destroys and removes every entry.
func (r *Registry) ClearAllNodes() error {
	if err := r.ready("clear nodes"); err != nil {
		return err
	}
	r.clearEntries()
	return nil
}

func (r *Registry) clearEntries() {
	for _, id := range sortedKeys(r.entries) {
		r.release(r.entries[id])
	}
	r.entries = make(map[string]*Entry)
	r.index.reset()
}

// QueryRect returns the ids of registered nodes whose bounds intersect rect,
// sorted. Without a spatial index every node is tested.
func (r *Registry) QueryRect(rect Rect) ([]string, error) {
	if err := r.ready("query rect"); err != nil {
		return nil, err
	}
	if r.index != nil {
		return r.index.query(rect), nil
	}
	ids := lo.Filter(sortedKeys(r.entries), func(id string, _ int) bool {
		return r.entries[id].Node.Bounds().Intersects(rect)
	})
	return ids, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}
