package easel

import (
	"errors"
	"math"
)

const scaleEpsilon = 1e-9

func isIdentityScale(s Vec2) bool {
	return math.Abs(s.X-1) < scaleEpsilon && math.Abs(s.Y-1) < scaleEpsilon
}

// scaledSize rounds v*factor to a whole unit, never below 1.
func scaledSize(v, factor float64) float64 {
	return max(1, math.Round(v*math.Abs(factor)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// normalizeBox scales width and height by their axis factors. Rectangles,
// sticky notes, images and unknown types use it.
func normalizeBox(_ *Selection, el Element, scale Vec2) (ElementUpdate, error) {
	if el.Width <= 0 || el.Height <= 0 {
		return ElementUpdate{}, errors.New("element has no box size")
	}
	return ElementUpdate{
		Width:  Float(scaledSize(el.Width, scale.X)),
		Height: Float(scaledSize(el.Height, scale.Y)),
	}, nil
}

// normalizeRadius grows the radius by the average of both axis factors, so a
// circle stays a circle whichever handle was dragged.
func normalizeRadius(_ *Selection, el Element, scale Vec2) (ElementUpdate, error) {
	if el.Radius <= 0 {
		return ElementUpdate{}, errors.New("element has no radius")
	}
	avg := (math.Abs(scale.X) + math.Abs(scale.Y)) / 2
	return ElementUpdate{Radius: Float(scaledSize(el.Radius, avg))}, nil
}

// normalizeText scales the box width horizontally and the font size
// vertically, then re-measures the height.
func normalizeText(s *Selection, el Element, scale Vec2) (ElementUpdate, error) {
	if el.Width <= 0 {
		return ElementUpdate{}, errors.New("text element has no width")
	}
	if el.FontSize <= 0 {
		return ElementUpdate{}, errors.New("text element has no font size")
	}
	width := scaledSize(el.Width, scale.X)
	fontSize := clamp(math.Round(el.FontSize*math.Abs(scale.Y)), s.cfg.MinFontSize, s.cfg.MaxFontSize)
	height := s.measurer.MeasureHeight(el.Text, fontSize, width)
	return ElementUpdate{
		Width:    Float(width),
		Height:   Float(height),
		FontSize: Float(fontSize),
	}, nil
}

// normalizeTable scales the table box and redistributes column widths and
// row heights proportionally to the new totals.
func normalizeTable(s *Selection, el Element, scale Vec2) (ElementUpdate, error) {
	upd, err := normalizeBox(s, el, scale)
	if err != nil {
		return upd, err
	}
	if len(el.ColumnWidths) > 0 {
		upd.ColumnWidths = redistribute(el.ColumnWidths, *upd.Width)
	}
	if len(el.RowHeights) > 0 {
		upd.RowHeights = redistribute(el.RowHeights, *upd.Height)
	}
	return upd, nil
}

// redistribute scales parts so they sum to total. The last part absorbs the
// rounding remainder.
func redistribute(parts []float64, total float64) []float64 {
	var sum float64
	for _, p := range parts {
		sum += p
	}
	out := make([]float64, len(parts))
	if sum <= 0 {
		even := total / float64(len(parts))
		for i := range out {
			out[i] = even
		}
		return out
	}
	var used float64
	for i, p := range parts[:len(parts)-1] {
		out[i] = math.Round(p * total / sum)
		used += out[i]
	}
	out[len(out)-1] = total - used
	return out
}

// normalizeTriangle scales every vertex per axis and recomputes the
// bounding size from the transformed vertices.
func normalizeTriangle(s *Selection, el Element, scale Vec2) (ElementUpdate, error) {
	if len(el.Points) == 0 {
		return normalizeBox(s, el, scale)
	}
	pts, w, h := scalePoints(el.Points, scale)
	return ElementUpdate{Points: pts, Width: Float(w), Height: Float(h)}, nil
}

// normalizePoints scales a polyline's vertices.
func normalizePoints(_ *Selection, el Element, scale Vec2) (ElementUpdate, error) {
	if len(el.Points) == 0 {
		return ElementUpdate{}, errors.New("element has no points")
	}
	pts, _, _ := scalePoints(el.Points, scale)
	return ElementUpdate{Points: pts}, nil
}

func scalePoints(points []Vec2, scale Vec2) ([]Vec2, float64, float64) {
	pts := make([]Vec2, len(points))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, p := range points {
		q := Vec2{X: p.X * scale.X, Y: p.Y * scale.Y}
		pts[i] = q
		minX, maxX = math.Min(minX, q.X), math.Max(maxX, q.X)
		minY, maxY = math.Min(minY, q.Y), math.Max(maxY, q.Y)
	}
	return pts, maxX - minX, maxY - minY
}

// applyToNode resets the node's scale and gives it the normalized geometry,
// keeping its hit area's padding. Vertices and grid tracks go to nodes that
// draw them, so the node matches the element before the next sync.
func applyToNode(node SceneNode, upd ElementUpdate) {
	hit, hasHit := node.FindDescendant(HitRegionName)

	if upd.Radius != nil {
		pad := 0.0
		if hasHit {
			pad = hit.Radius() - node.Radius()
		}
		node.SetRadius(*upd.Radius)
		if hasHit {
			hit.SetRadius(*upd.Radius + pad)
		}
	}
	if upd.Width != nil && upd.Height != nil {
		var pad Vec2
		if hasHit {
			hs, ns := hit.Size(), node.Size()
			pad = Vec2{X: hs.X - ns.X, Y: hs.Y - ns.Y}
		}
		node.SetSize(Vec2{X: *upd.Width, Y: *upd.Height})
		if hasHit {
			hit.SetSize(Vec2{X: *upd.Width + pad.X, Y: *upd.Height + pad.Y})
		}
	}
	if upd.Points != nil {
		if pn, ok := node.(PointsNode); ok {
			pn.SetPoints(upd.Points)
		}
		if pn, ok := hit.(PointsNode); hasHit && ok {
			pn.SetPoints(upd.Points)
		}
	}
	if gn, ok := node.(GridNode); ok {
		applyGrid(gn, upd)
	}
	node.SetScale(Vec2{X: 1, Y: 1})
}

// applyGrid gives a grid node the normalized tracks. Tracks the update does
// not carry are spread over the new size in their current proportions.
func applyGrid(gn GridNode, upd ElementUpdate) {
	cols, rows := gn.Grid()
	if len(cols) == 0 && len(rows) == 0 && upd.ColumnWidths == nil && upd.RowHeights == nil {
		return
	}
	switch {
	case upd.ColumnWidths != nil:
		cols = upd.ColumnWidths
	case upd.Width != nil && len(cols) > 0:
		cols = redistribute(cols, *upd.Width)
	}
	switch {
	case upd.RowHeights != nil:
		rows = upd.RowHeights
	case upd.Height != nil && len(rows) > 0:
		rows = redistribute(rows, *upd.Height)
	}
	gn.SetGrid(cols, rows)
}
