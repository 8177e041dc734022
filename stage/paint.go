package stage

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/phanxgames/easel"
)

// circleSegments is the number of edges used to approximate a circle.
const circleSegments = 48

var whitePixelImage *ebiten.Image

// whitePixel returns a lazily-initialized 1x1 white pixel image used as the
// source for solid fills.
func whitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}

var goRegularSource *text.GoTextFaceSource

// faceSource returns the lazily parsed Go Regular face source.
func faceSource() (*text.GoTextFaceSource, error) {
	if goRegularSource != nil {
		return goRegularSource, nil
	}
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("stage: failed to parse Go Regular: %w", err)
	}
	goRegularSource = src
	return src, nil
}

// painter renders node trees onto a destination image. Vertex and index
// buffers are reused across shapes.
type painter struct {
	dst   *ebiten.Image
	verts []ebiten.Vertex
	inds  []uint16
	pts   []easel.Vec2
	err   error
}

// paintTree paints n and its descendants. parent maps n's parent space to
// destination pixels.
func (p *painter) paintTree(n *Node, parent easel.Affine) {
	if !n.Visible {
		return
	}
	m := parent.Multiply(n.LocalTransform())
	if n.Renderable {
		p.paintNode(n, m)
	}
	for _, c := range n.children {
		p.paintTree(c, m)
	}
}

func (p *painter) paintNode(n *Node, m easel.Affine) {
	switch n.kind {
	case ShapeRect:
		box := rectPoints(n.width, n.height)
		p.fill(box, m, n.Fill)
		p.stroke(box, true, m, n.Stroke, n.StrokeWidth)
	case ShapeCircle:
		ring := circlePoints(n.radius)
		p.fill(ring, m, n.Fill)
		p.stroke(ring, true, m, n.Stroke, n.StrokeWidth)
	case ShapePolygon:
		p.fill(n.points, m, n.Fill)
		p.stroke(n.points, true, m, n.Stroke, n.StrokeWidth)
	case ShapeLine:
		p.stroke(n.points, false, m, n.Stroke, n.StrokeWidth)
	case ShapeText:
		box := rectPoints(n.width, n.height)
		p.fill(box, m, n.Fill)
		p.stroke(box, true, m, n.Stroke, n.StrokeWidth)
		p.text(n, m)
	case ShapeGrid:
		box := rectPoints(n.width, n.height)
		p.fill(box, m, n.Fill)
		p.stroke(box, true, m, n.Stroke, n.StrokeWidth)
		p.gridLines(n, m)
	}
}

// fill paints the convex polygon pts as a triangle fan.
func (p *painter) fill(pts []easel.Vec2, m easel.Affine, c Color) {
	if c.A <= 0 || len(pts) < 3 {
		return
	}
	p.pts = p.pts[:0]
	for _, pt := range pts {
		x, y := m.Apply(pt.X, pt.Y)
		p.pts = append(p.pts, easel.Vec2{X: x, Y: y})
	}
	p.verts, p.inds = buildPolygonFan(p.pts, c, p.verts[:0], p.inds[:0])
	p.dst.DrawTriangles(p.verts, p.inds, whitePixel(), &ebiten.DrawTrianglesOptions{})
}

// stroke paints each segment of pts as a quad of the given world width.
func (p *painter) stroke(pts []easel.Vec2, closed bool, m easel.Affine, c Color, width float64) {
	if c.A <= 0 || width <= 0 || len(pts) < 2 {
		return
	}
	// Approximate the world-to-pixel scale by the matrix's area factor.
	half := width * math.Sqrt(math.Abs(m[0]*m[3]-m[1]*m[2])) / 2
	half = math.Max(half, 0.5)

	p.verts, p.inds = p.verts[:0], p.inds[:0]
	segments := len(pts) - 1
	if closed {
		segments = len(pts)
	}
	for i := 0; i < segments; i++ {
		a, b := pts[i], pts[(i+1)%len(pts)]
		ax, ay := m.Apply(a.X, a.Y)
		bx, by := m.Apply(b.X, b.Y)
		p.verts, p.inds = appendSegment(p.verts, p.inds, ax, ay, bx, by, half, c)
	}
	p.dst.DrawTriangles(p.verts, p.inds, whitePixel(), &ebiten.DrawTrianglesOptions{})
}

func (p *painter) gridLines(n *Node, m easel.Affine) {
	if n.Stroke.A <= 0 {
		return
	}
	x := 0.0
	for _, w := range n.columnWidths[:max(len(n.columnWidths)-1, 0)] {
		x += w
		p.stroke([]easel.Vec2{{X: x}, {X: x, Y: n.height}}, false, m, n.Stroke, n.StrokeWidth)
	}
	y := 0.0
	for _, h := range n.rowHeights[:max(len(n.rowHeights)-1, 0)] {
		y += h
		p.stroke([]easel.Vec2{{Y: y}, {X: n.width, Y: y}}, false, m, n.Stroke, n.StrokeWidth)
	}
}

// text draws the node's content wrapped to its box width.
func (p *painter) text(n *Node, m easel.Affine) {
	if n.text == "" || n.fontSize <= 0 || n.TextColor.A <= 0 {
		return
	}
	src, err := faceSource()
	if err != nil {
		p.err = err
		return
	}
	face := &text.GoTextFace{Source: src, Size: n.fontSize}
	metrics := face.Metrics()
	lineHeight := metrics.HAscent + metrics.HDescent + metrics.HLineGap

	lines := easel.WrapLines(n.text, n.width, func(s string) float64 {
		return text.Advance(s, face)
	})

	op := &text.DrawOptions{}
	op.GeoM = geoM(m)
	op.ColorScale.ScaleWithColor(n.TextColor.RGBA())
	op.LineSpacing = lineHeight
	if n.centered() {
		op.PrimaryAlign = text.AlignCenter
		op.SecondaryAlign = text.AlignCenter
		var g ebiten.GeoM
		g.Translate(n.width/2, n.height/2)
		g.Concat(op.GeoM)
		op.GeoM = g
	}
	text.Draw(p.dst, strings.Join(lines, "\n"), face, op)
}

// centered reports whether text is centered in its box rather than
// top-left aligned.
func (n *Node) centered() bool {
	return n.parent != nil && n.parent.kind == ShapeCircle
}

// geoM converts an affine matrix to an ebiten.GeoM.
func geoM(m easel.Affine) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(0, 1, m[2])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 0, m[1])
	g.SetElement(1, 1, m[3])
	g.SetElement(1, 2, m[5])
	return g
}

// buildPolygonFan triangulates a convex polygon as a fan from the first
// vertex, sampling the center of the white pixel.
func buildPolygonFan(pts []easel.Vec2, c Color, verts []ebiten.Vertex, inds []uint16) ([]ebiten.Vertex, []uint16) {
	n := len(pts)
	if n < 3 {
		return verts, inds
	}
	r, g, b, a := c.premultiplied()
	base := uint16(len(verts))
	for _, pt := range pts {
		verts = append(verts, ebiten.Vertex{
			DstX: float32(pt.X), DstY: float32(pt.Y),
			SrcX: 0.5, SrcY: 0.5,
			ColorR: r, ColorG: g, ColorB: b, ColorA: a,
		})
	}
	for i := 1; i < n-1; i++ {
		inds = append(inds, base, base+uint16(i), base+uint16(i+1))
	}
	return verts, inds
}

// appendSegment appends a quad covering the segment (ax, ay)-(bx, by) with
// the given half thickness in pixels.
func appendSegment(verts []ebiten.Vertex, inds []uint16, ax, ay, bx, by, half float64, c Color) ([]ebiten.Vertex, []uint16) {
	dx, dy := bx-ax, by-ay
	length := math.Hypot(dx, dy)
	if length == 0 {
		return verts, inds
	}
	nx, ny := -dy/length*half, dx/length*half
	quad := []easel.Vec2{
		{X: ax + nx, Y: ay + ny},
		{X: bx + nx, Y: by + ny},
		{X: bx - nx, Y: by - ny},
		{X: ax - nx, Y: ay - ny},
	}
	return buildPolygonFan(quad, c, verts, inds)
}

func rectPoints(w, h float64) []easel.Vec2 {
	return []easel.Vec2{{}, {X: w}, {X: w, Y: h}, {Y: h}}
}

func circlePoints(r float64) []easel.Vec2 {
	pts := make([]easel.Vec2, circleSegments)
	for i := range pts {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / circleSegments)
		pts[i] = easel.Vec2{X: r * cos, Y: r * sin}
	}
	return pts
}
