package easel

import "errors"

// HitRegionName is the name of the invisible, oversized hit-area child that
// builders attach to shapes. It is resized after a transform is normalized.
const HitRegionName = "hit-area"

// SceneNode is the capability set the core needs from a renderable node.
// A concrete scene-graph binding satisfies it; tests use a trivial fake.
type SceneNode interface {
	// ElementID returns the id of the element this node renders, or "" for
	// decorative children such as hit areas and labels.
	ElementID() string
	Name() string
	// Parent returns the enclosing node, or nil at a layer root.
	Parent() SceneNode

	Position() Vec2
	SetPosition(p Vec2)
	Size() Vec2
	SetSize(s Vec2)
	Radius() float64
	SetRadius(r float64)
	Rotation() float64
	SetRotation(r float64)
	Scale() Vec2
	SetScale(s Vec2)

	// Bounds returns the axis-aligned bounds in stage space.
	Bounds() Rect
	// AbsoluteTransform returns the accumulated local-to-stage transform.
	AbsoluteTransform() Affine
	// FindDescendant returns the first descendant with the given name.
	FindDescendant(name string) (SceneNode, bool)

	// Destroy detaches and releases the node. It may fail or panic; callers
	// in this package contain both.
	Destroy() error
}

// PointsNode is implemented by nodes drawn from vertices. After a transform
// is normalized, the node receives the element's new vertices.
type PointsNode interface {
	SetPoints(pts []Vec2)
}

// GridNode is implemented by nodes drawn as a table grid.
type GridNode interface {
	Grid() (columnWidths, rowHeights []float64)
	SetGrid(columnWidths, rowHeights []float64)
}

// Layer is a drawing surface of the scene graph.
type Layer interface {
	Name() LayerName
	Add(node SceneNode) error
	// Draw repaints the layer.
	Draw() error
	MoveToTop()
	MoveToBottom()
	SetListening(listening bool)
	Destroy() error
}

// Surface is the root rendering surface that owns the layers.
type Surface interface {
	Layer(name LayerName) (Layer, bool)
	CreateLayer(name LayerName) (Layer, error)
}

// LayerSource resolves layer handles by name.
type LayerSource interface {
	Layer(name LayerName) (Layer, bool)
}

// ErrRebuild is returned by NodeBuilder.Update when a node cannot be updated
// in place and must be rebuilt from scratch.
var ErrRebuild = errors.New("easel: node must be rebuilt")

// NodeBuilder constructs the visual representation of elements.
type NodeBuilder interface {
	Build(el Element) (SceneNode, error)
	Update(node SceneNode, el Element) error
}

// FrameScheduler schedules a callback for the next paint opportunity.
type FrameScheduler interface {
	// RequestFrame schedules fn once and returns a function that cancels it.
	RequestFrame(fn func()) (cancel func())
}

// BoundingConstraint adjusts the proposed bounds of a transform in progress.
// Returning old rejects the step.
type BoundingConstraint func(old, proposed Rect) Rect

// Transformer is the shared resize/rotate affordance attached to the
// current selection.
type Transformer interface {
	SetNodes(nodes []SceneNode)
	Nodes() []SceneNode
	SetEnabledHandles(handles []Handle)
	SetKeepRatio(keep bool)
	SetRotateEnabled(enabled bool)
	SetCenteredScaling(centered bool)
	SetBoundBoxFunc(fn BoundingConstraint)
	// ActiveHandle returns the handle being dragged, or HandleNone.
	ActiveHandle() Handle
}
