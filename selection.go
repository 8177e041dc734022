package easel

import (
	"errors"
	"fmt"
	"maps"

	"github.com/samber/lo"
)

// TransformResult lists the outcome of one normalized gesture.
type TransformResult struct {
	Committed []string // elements updated in the store
	Failed    []string // elements whose normalization or commit failed
}

// Selection keeps the shared Transformer attached to the current selection
// and folds transform scale back into element geometry.
type Selection struct {
	registry    *Registry
	store       ElementStore
	batcher     *DrawBatcher
	transformer Transformer
	cfg         Config
	measurer    TextMeasurer

	policy    TransformPolicy
	single    ElementType // type of the only attached node, "" otherwise
	shiftHeld bool

	transforming bool
	startBounds  map[string]Rect
	activeHandle Handle
}

// NewSelection creates a selection normalizer.
func NewSelection(reg *Registry, store ElementStore, batcher *DrawBatcher, transformer Transformer, cfg Config) *Selection {
	cfg = cfg.withDefaults()
	m := cfg.Measurer
	if m == nil {
		fm, err := NewFontMeasurer()
		if err != nil {
			Logger().Warn("easel: font measurer unavailable, estimating text height", "err", err)
			m = estimateMeasurer{}
		} else {
			m = fm
		}
	}
	return &Selection{
		registry:    reg,
		store:       store,
		batcher:     batcher,
		transformer: transformer,
		cfg:         cfg,
		measurer:    m,
		policy:      DefaultPolicy,
	}
}

// Policy returns the policy applied to the transformer.
func (s *Selection) Policy() TransformPolicy {
	return s.policy
}

// SyncSelection attaches the transformer to the registered nodes of ids.
// Types that manage their own selection UI are left out of the transformer
// but still count toward the selection size, so any multi-element selection
// gets the default policy.
func (s *Selection) SyncSelection(ids []string) error {
	var (
		nodes []SceneNode
		types []ElementType
	)
	for _, id := range lo.Uniq(ids) {
		e, ok, err := s.registry.Entry(id)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		types = append(types, e.ElementType)
		if !ManagesOwnSelection(e.ElementType) {
			nodes = append(nodes, e.Node)
		}
	}

	s.single = ""
	if len(types) == 1 {
		s.single = types[0]
	}
	s.transformer.SetNodes(nodes)
	s.applyPolicy(ResolvePolicy(types))
	s.batcher.ScheduleDraw(LayerOverlay)
	return nil
}

// Detach removes the transformer from every node.
func (s *Selection) Detach() {
	s.transformer.SetNodes(nil)
	s.single = ""
	s.transforming = false
	s.startBounds = nil
	s.activeHandle = HandleNone
}

func (s *Selection) applyPolicy(p TransformPolicy) {
	s.policy = p
	s.transformer.SetEnabledHandles(p.EnabledHandles)
	s.transformer.SetRotateEnabled(p.RotationAllowed)
	s.transformer.SetCenteredScaling(p.CenteredScaling)
	s.transformer.SetKeepRatio(s.keepRatio())
	bound := p.BoundingConstraint
	if bound == nil {
		bound = s.minSizeConstraint
	}
	s.transformer.SetBoundBoxFunc(bound)
}

// keepRatio is the policy's aspect lock, forced on while shift is held over
// a lone circle.
func (s *Selection) keepRatio() bool {
	return s.policy.AspectLocked || (s.shiftHeld && s.single == TypeCircle)
}

func (s *Selection) minSizeConstraint(old, proposed Rect) Rect {
	if proposed.Width < s.cfg.MinTransformSize || proposed.Height < s.cfg.MinTransformSize {
		return old
	}
	return proposed
}

// SetShiftHeld updates the dynamic aspect-lock constraint.
func (s *Selection) SetShiftHeld(held bool) {
	if s.shiftHeld == held {
		return
	}
	s.shiftHeld = held
	s.transformer.SetKeepRatio(s.keepRatio())
}

// --- Gesture ---

// TransformStart captures each attached node's pre-transform bounds and the
// active handle.
func (s *Selection) TransformStart() {
	nodes := s.transformer.Nodes()
	s.startBounds = make(map[string]Rect, len(nodes))
	for _, n := range nodes {
		s.startBounds[n.ElementID()] = n.Bounds()
	}
	s.activeHandle = s.transformer.ActiveHandle()
	s.transforming = true
}

// Transforming reports whether a gesture is in progress.
func (s *Selection) Transforming() bool {
	return s.transforming
}

// StartBounds returns the bounds captured by TransformStart, keyed by
// element id, for consumers that snap against them.
func (s *Selection) StartBounds() map[string]Rect {
	return maps.Clone(s.startBounds)
}

// ActiveHandle returns the handle recorded by TransformStart.
func (s *Selection) ActiveHandle() Handle {
	return s.activeHandle
}

// TransformEnd normalizes every attached node and commits the results. One
// node's failure does not stop the others.
func (s *Selection) TransformEnd() TransformResult {
	var res TransformResult
	saved := false
	for _, node := range s.transformer.Nodes() {
		id := node.ElementID()
		committed, err := s.normalize(node, &saved)
		if err != nil {
			res.Failed = append(res.Failed, id)
			Logger().Warn("easel: transform normalization failed", "id", id, "err", err)
			continue
		}
		if committed {
			res.Committed = append(res.Committed, id)
		}
	}
	s.transforming = false
	s.startBounds = nil
	s.activeHandle = HandleNone

	if len(res.Committed) > 0 {
		s.batcher.ScheduleDraw(LayerMain)
	}
	s.batcher.ScheduleDraw(LayerOverlay)
	return res
}

// Normalize folds one node's residual scale into its element and commits
// it as its own history step. Types with their own selection UI use it when
// their private handles are released.
func (s *Selection) Normalize(node SceneNode) error {
	saved := false
	committed, err := s.normalize(node, &saved)
	if err != nil {
		return err
	}
	if committed {
		s.batcher.ScheduleDraw(LayerMain)
	}
	return nil
}

func (s *Selection) normalize(node SceneNode, saved *bool) (bool, error) {
	id := node.ElementID()
	el, ok := s.store.Element(id)
	if !ok {
		return false, &TransformNormalizationError{ElementID: id, Err: errors.New("element not in store")}
	}

	var upd ElementUpdate
	scale := node.Scale()
	if !isIdentityScale(scale) {
		err := safely(func() error {
			var err error
			upd, err = traitsFor(el.Type).normalize(s, el, scale)
			return err
		})
		if err != nil {
			return false, &TransformNormalizationError{ElementID: id, Type: el.Type, Err: err}
		}
		if err := safely(func() error { applyToNode(node, upd); return nil }); err != nil {
			return false, &TransformNormalizationError{ElementID: id, Type: el.Type, Err: fmt.Errorf("apply to node: %w", err)}
		}
	}

	pos := node.Position()
	if pos.X != el.X {
		upd.X = Float(pos.X)
	}
	if pos.Y != el.Y {
		upd.Y = Float(pos.Y)
	}
	if rot := node.Rotation(); rot != el.Rotation {
		upd.Rotation = Float(rot)
	}
	if upd.IsEmpty() {
		return false, nil
	}

	if !*saved {
		if err := s.store.SaveSnapshot(); err != nil {
			Logger().Warn("easel: history snapshot failed", "err", &AdapterError{Op: "save snapshot", Err: err})
		}
		*saved = true
	}
	if err := s.store.UpdateElement(id, upd, UpdateOptions{SkipHistory: true}); err != nil {
		return false, &AdapterError{Op: "update element", Err: err}
	}
	if err := s.registry.Touch(id); err != nil {
		Logger().Debug("easel: touch after normalize", "id", id, "err", err)
	}
	return true, nil
}
