package stage

import (
	"fmt"
	"math"

	"github.com/phanxgames/easel"
)

// ShapeKind determines how a Node is painted and hit-tested.
type ShapeKind uint8

const (
	// ShapeNone is a pure container. It paints nothing and is not
	// hit-testable unless a HitShape is set.
	ShapeNone ShapeKind = iota
	// ShapeRect fills the local box (0, 0, Width, Height).
	ShapeRect
	// ShapeCircle fills a circle of Radius centered on the node origin.
	ShapeCircle
	// ShapePolygon fills the convex polygon through Points.
	ShapePolygon
	// ShapeLine strokes the open polyline through Points.
	ShapeLine
	// ShapeText draws wrapped Text inside the local box.
	ShapeText
	// ShapeGrid fills the local box and strokes the column and row dividers.
	ShapeGrid
)

var shapeKindNames = [...]string{"none", "rect", "circle", "polygon", "line", "text", "grid"}

func (k ShapeKind) String() string {
	if int(k) < len(shapeKindNames) {
		return shapeKindNames[k]
	}
	return fmt.Sprintf("ShapeKind(%d)", k)
}

// Node is a retained scene-graph node. It satisfies easel.SceneNode.
//
// Node is not safe for concurrent use; all access happens on the Ebitengine
// update/draw goroutine.
type Node struct {
	// Fill and Stroke color the shape. A zero alpha skips that pass.
	Fill   Color
	Stroke Color
	// StrokeWidth is in world units. Lines use it as their thickness.
	StrokeWidth float64
	// TextColor colors ShapeText content.
	TextColor Color

	// Visible controls painting and hit testing of the whole subtree.
	Visible bool
	// Renderable controls painting of this node only; an invisible hit area
	// sets it false and stays Interactable.
	Renderable bool
	// Interactable controls hit testing of the subtree.
	Interactable bool
	// Draggable lets the input pump move this node with the pointer.
	Draggable bool

	// HitShape overrides the geometric hit region. Nil derives it from the
	// shape kind.
	HitShape HitShape

	// UserData is an arbitrary payload for the application.
	UserData any

	name      string
	elementID string
	kind      ShapeKind

	parent   *Node
	children []*Node

	x, y           float64
	rotation       float64
	scaleX, scaleY float64

	width, height float64
	radius        float64
	points        []easel.Vec2

	text     string
	fontSize float64

	columnWidths []float64
	rowHeights   []float64

	disposed bool
}

// NewNode creates a visible, renderable node of the given kind with unit
// scale.
func NewNode(name string, kind ShapeKind) *Node {
	return &Node{
		name:         name,
		kind:         kind,
		scaleX:       1,
		scaleY:       1,
		Visible:      true,
		Renderable:   true,
		Interactable: true,
		StrokeWidth:  1,
	}
}

// NewElementNode creates the root node of an element's visual.
func NewElementNode(elementID string, kind ShapeKind) *Node {
	n := NewNode(elementID, kind)
	n.elementID = elementID
	return n
}

// Kind returns the shape kind.
func (n *Node) Kind() ShapeKind { return n.kind }

// ElementID returns the element id, or "" for decorative nodes.
func (n *Node) ElementID() string { return n.elementID }

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// Parent returns the parent as an easel.SceneNode, or nil at a root.
func (n *Node) Parent() easel.SceneNode {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// ParentNode returns the concrete parent, or nil.
func (n *Node) ParentNode() *Node { return n.parent }

// --- Tree manipulation ---

// AddChild appends child to this node's children. If child already has a
// parent it is removed from that parent first. Panics if child is nil or is
// an ancestor of this node.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("stage: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("stage: adding child would create a cycle")
	}
	if child.parent != nil {
		child.parent.removeChildByPtr(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// RemoveChild detaches child from this node. Panics if child's parent is not n.
func (n *Node) RemoveChild(child *Node) {
	if child.parent != n {
		panic("stage: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.parent = nil
}

// RemoveFromParent detaches this node from its parent. No-op if no parent.
func (n *Node) RemoveFromParent() {
	if n.parent == nil {
		return
	}
	n.parent.RemoveChild(n)
}

// Children returns the child list. The returned slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// FindDescendant returns the first descendant (depth-first, pre-order) with
// the given name.
func (n *Node) FindDescendant(name string) (easel.SceneNode, bool) {
	if d := n.findNode(name); d != nil {
		return d, true
	}
	return nil, false
}

// FindNode is FindDescendant returning the concrete type.
func (n *Node) FindNode(name string) *Node { return n.findNode(name) }

func (n *Node) findNode(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
		if d := c.findNode(name); d != nil {
			return d
		}
	}
	return nil
}

// --- Disposal ---

// Dispose removes this node from its parent and marks it and its subtree
// disposed.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	for _, c := range n.children {
		c.parent = nil
		c.dispose()
	}
	n.children = nil
	n.HitShape = nil
	n.UserData = nil
}

// IsDisposed reports whether the node has been disposed.
func (n *Node) IsDisposed() bool { return n.disposed }

// Destroy disposes the node. Destroying twice is an error.
func (n *Node) Destroy() error {
	if n.disposed {
		return fmt.Errorf("stage: node %q already destroyed", n.name)
	}
	n.Dispose()
	return nil
}

// --- Geometry ---

// Position returns the position in parent space. Circles are positioned by
// their center; every other kind by its top-left corner.
func (n *Node) Position() easel.Vec2 { return easel.Vec2{X: n.x, Y: n.y} }

// SetPosition moves the node.
func (n *Node) SetPosition(p easel.Vec2) { n.x, n.y = p.X, p.Y }

// Size returns the unscaled local size.
func (n *Node) Size() easel.Vec2 {
	switch n.kind {
	case ShapeCircle:
		return easel.Vec2{X: 2 * n.radius, Y: 2 * n.radius}
	case ShapePolygon, ShapeLine:
		b := pointsBounds(n.points)
		return easel.Vec2{X: b.Width, Y: b.Height}
	}
	return easel.Vec2{X: n.width, Y: n.height}
}

// SetSize resizes the node. Circles take the larger dimension as their
// diameter; polygons and lines rescale their points to the new box.
func (n *Node) SetSize(s easel.Vec2) {
	switch n.kind {
	case ShapeCircle:
		n.radius = math.Max(s.X, s.Y) / 2
		return
	case ShapePolygon, ShapeLine:
		b := pointsBounds(n.points)
		sx, sy := 1.0, 1.0
		if b.Width > 0 {
			sx = s.X / b.Width
		}
		if b.Height > 0 {
			sy = s.Y / b.Height
		}
		for i, p := range n.points {
			n.points[i] = easel.Vec2{X: b.X + (p.X-b.X)*sx, Y: b.Y + (p.Y-b.Y)*sy}
		}
	}
	n.width, n.height = s.X, s.Y
}

// Radius returns the circle radius.
func (n *Node) Radius() float64 { return n.radius }

// SetRadius sets the circle radius.
func (n *Node) SetRadius(r float64) { n.radius = r }

// Rotation returns the rotation in radians.
func (n *Node) Rotation() float64 { return n.rotation }

// SetRotation sets the rotation in radians.
func (n *Node) SetRotation(r float64) { n.rotation = r }

// Scale returns the scale factors.
func (n *Node) Scale() easel.Vec2 { return easel.Vec2{X: n.scaleX, Y: n.scaleY} }

// SetScale sets the scale factors.
func (n *Node) SetScale(s easel.Vec2) { n.scaleX, n.scaleY = s.X, s.Y }

// Points returns the polygon or polyline vertices in local space.
func (n *Node) Points() []easel.Vec2 { return n.points }

// SetPoints replaces the vertices.
func (n *Node) SetPoints(pts []easel.Vec2) {
	n.points = append(n.points[:0], pts...)
}

// Text returns the text content.
func (n *Node) Text() string { return n.text }

// SetText sets the text content and font size.
func (n *Node) SetText(text string, fontSize float64) {
	n.text = text
	n.fontSize = fontSize
}

// FontSize returns the font size in world units.
func (n *Node) FontSize() float64 { return n.fontSize }

// SetGrid sets the column widths and row heights of a grid node.
func (n *Node) SetGrid(columnWidths, rowHeights []float64) {
	n.columnWidths = append(n.columnWidths[:0], columnWidths...)
	n.rowHeights = append(n.rowHeights[:0], rowHeights...)
}

// Grid returns the column widths and row heights.
func (n *Node) Grid() (columnWidths, rowHeights []float64) {
	return n.columnWidths, n.rowHeights
}

// --- Transforms ---

// LocalTransform returns the node's transform relative to its parent.
func (n *Node) LocalTransform() easel.Affine {
	return easel.LocalAffine(n.x, n.y, n.rotation, n.scaleX, n.scaleY)
}

// AbsoluteTransform returns the accumulated local-to-world transform.
// Layer roots carry the identity, so world space equals element space.
func (n *Node) AbsoluteTransform() easel.Affine {
	m := n.LocalTransform()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalTransform().Multiply(m)
	}
	return m
}

// WorldToLocal converts world coordinates to this node's local space.
func (n *Node) WorldToLocal(wx, wy float64) (float64, float64) {
	return n.AbsoluteTransform().Invert().Apply(wx, wy)
}

// LocalToWorld converts local coordinates to world space.
func (n *Node) LocalToWorld(lx, ly float64) (float64, float64) {
	return n.AbsoluteTransform().Apply(lx, ly)
}

// localBounds returns the unscaled box the shape occupies in local space.
func (n *Node) localBounds() (easel.Rect, bool) {
	switch n.kind {
	case ShapeRect, ShapeText, ShapeGrid:
		return easel.Rect{Width: n.width, Height: n.height}, true
	case ShapeCircle:
		return easel.Rect{X: -n.radius, Y: -n.radius, Width: 2 * n.radius, Height: 2 * n.radius}, true
	case ShapePolygon, ShapeLine:
		if len(n.points) == 0 {
			return easel.Rect{}, false
		}
		return pointsBounds(n.points), true
	}
	return easel.Rect{}, false
}

// Bounds returns the world-space bounds of the shape. A container reports
// the union of its children.
func (n *Node) Bounds() easel.Rect {
	if local, ok := n.localBounds(); ok {
		return n.AbsoluteTransform().BoundsOf(local)
	}
	var out easel.Rect
	first := true
	for _, c := range n.children {
		b := c.Bounds()
		if first {
			out, first = b, false
			continue
		}
		out = out.Union(b)
	}
	if first {
		x, y := n.LocalToWorld(0, 0)
		return easel.Rect{X: x, Y: y}
	}
	return out
}

func pointsBounds(pts []easel.Vec2) easel.Rect {
	if len(pts) == 0 {
		return easel.Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return easel.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// ElementNode walks up from n to the nearest node carrying an element id.
func ElementNode(n *Node) *Node {
	for p := n; p != nil; p = p.parent {
		if p.elementID != "" {
			return p
		}
	}
	return nil
}

func (n *Node) String() string {
	if n.elementID != "" {
		return fmt.Sprintf("Node(%s %q)", n.kind, n.elementID)
	}
	return fmt.Sprintf("Node(%s name=%q)", n.kind, n.name)
}
