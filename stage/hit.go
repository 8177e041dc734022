package stage

import (
	"math"

	"github.com/phanxgames/easel"
)

// defaultLineHitTolerance is the minimum half-width, in world units, of a
// line's hit region.
const defaultLineHitTolerance = 3.0

// HitShape defines a custom hit region in a node's local space.
type HitShape interface {
	Contains(x, y float64) bool
}

// HitRect is an axis-aligned rectangular hit area in local coordinates.
type HitRect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies inside the rectangle.
func (r HitRect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// HitCircle is a circular hit area in local coordinates.
type HitCircle struct {
	CenterX, CenterY, Radius float64
}

// Contains reports whether (x, y) lies inside or on the circle.
func (c HitCircle) Contains(x, y float64) bool {
	dx := x - c.CenterX
	dy := y - c.CenterY
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// HitPolygon is a convex polygon hit area in local coordinates.
// Points must define a convex polygon in either winding order.
type HitPolygon struct {
	Points []easel.Vec2
}

// Contains reports whether (x, y) lies inside a convex polygon using a
// cross-product sign test.
func (p HitPolygon) Contains(x, y float64) bool {
	n := len(p.Points)
	if n < 3 {
		return false
	}
	var positive, negative bool
	for i := 0; i < n; i++ {
		a := p.Points[i]
		b := p.Points[(i+1)%n]
		cross := (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
		if cross > 0 {
			positive = true
		} else if cross < 0 {
			negative = true
		}
		if positive && negative {
			return false
		}
	}
	return true
}

// HitPolyline is a stroked polyline hit area: points within Tolerance of any
// segment are inside.
type HitPolyline struct {
	Points    []easel.Vec2
	Tolerance float64
}

// Contains reports whether (x, y) is within Tolerance of the polyline.
func (l HitPolyline) Contains(x, y float64) bool {
	for i := 1; i < len(l.Points); i++ {
		if segmentDistance(l.Points[i-1], l.Points[i], x, y) <= l.Tolerance {
			return true
		}
	}
	return false
}

func segmentDistance(a, b easel.Vec2, x, y float64) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = ((x-a.X)*dx + (y-a.Y)*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}
	px, py := a.X+t*dx-x, a.Y+t*dy-y
	return math.Sqrt(px*px + py*py)
}

// containsLocal tests whether (lx, ly) falls inside the node's hit region.
// Uses HitShape if set; otherwise derives the region from the shape kind.
// Containers with no HitShape are not hit-testable.
func (n *Node) containsLocal(lx, ly float64) bool {
	if n.HitShape != nil {
		return n.HitShape.Contains(lx, ly)
	}
	switch n.kind {
	case ShapeRect, ShapeText, ShapeGrid:
		if n.width == 0 && n.height == 0 {
			return false
		}
		return lx >= 0 && lx <= n.width && ly >= 0 && ly <= n.height
	case ShapeCircle:
		return HitCircle{Radius: n.radius}.Contains(lx, ly)
	case ShapePolygon:
		return HitPolygon{Points: n.points}.Contains(lx, ly)
	case ShapeLine:
		tol := math.Max(n.StrokeWidth/2, defaultLineHitTolerance)
		return HitPolyline{Points: n.points, Tolerance: tol}.Contains(lx, ly)
	}
	return false
}

// collectInteractable walks the tree in painter order (DFS), appending
// hit-testable nodes to buf. Skips Visible=false or Interactable=false
// subtrees.
func collectInteractable(n *Node, buf []*Node) []*Node {
	if !n.Visible || !n.Interactable {
		return buf
	}
	if n.HitShape != nil || n.kind != ShapeNone {
		buf = append(buf, n)
	}
	for _, c := range n.children {
		buf = collectInteractable(c, buf)
	}
	return buf
}

// hitTestTree finds the topmost interactable node under root at world
// coordinates (wx, wy). Returns nil if nothing is hit.
func hitTestTree(root *Node, wx, wy float64, buf []*Node) (*Node, []*Node) {
	buf = collectInteractable(root, buf[:0])
	// Iterate backward (reverse painter order): topmost visual node first.
	for i := len(buf) - 1; i >= 0; i-- {
		n := buf[i]
		lx, ly := n.WorldToLocal(wx, wy)
		if n.containsLocal(lx, ly) {
			return n, buf
		}
	}
	return nil, buf
}
