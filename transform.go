package easel

import "math"

// Affine is a 2D affine matrix laid out as [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Affine [6]float64

// IdentityAffine is the identity matrix.
var IdentityAffine = Affine{1, 0, 0, 1, 0, 0}

// LocalAffine composes Scale -> Rotate -> Translate(x, y), the transform of a
// node with the given position, rotation (radians) and scale.
func LocalAffine(x, y, rotation, sx, sy float64) Affine {
	sin, cos := math.Sincos(rotation)
	return Affine{cos * sx, sin * sx, -sin * sy, cos * sy, x, y}
}

// Multiply returns m * c (c applied first).
func (m Affine) Multiply(c Affine) Affine {
	return Affine{
		m[0]*c[0] + m[2]*c[1],
		m[1]*c[0] + m[3]*c[1],
		m[0]*c[2] + m[2]*c[3],
		m[1]*c[2] + m[3]*c[3],
		m[0]*c[4] + m[2]*c[5] + m[4],
		m[1]*c[4] + m[3]*c[5] + m[5],
	}
}

// Invert computes the inverse matrix.
// Returns the identity matrix if m is singular (determinant ≈ 0).
func (m Affine) Invert() Affine {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return IdentityAffine
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Affine{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// Apply transforms the point (x, y).
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// BoundsOf returns the axis-aligned bounds of the local rectangle
// (0, 0, w, h) transformed by m.
func (m Affine) BoundsOf(local Rect) Rect {
	x0, y0 := m.Apply(local.X, local.Y)
	x1, y1 := m.Apply(local.X+local.Width, local.Y)
	x2, y2 := m.Apply(local.X+local.Width, local.Y+local.Height)
	x3, y3 := m.Apply(local.X, local.Y+local.Height)

	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
