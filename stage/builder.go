package stage

import (
	"fmt"

	"github.com/phanxgames/easel"
)

const (
	defaultHitPadding   = 5.0
	defaultLineHitWidth = 12.0
	defaultFontSize     = 16.0
	labelPadding        = 8.0
	labelName           = "label"
	placeholderName     = "placeholder"
)

// Style colors one element type.
type Style struct {
	Fill        Color
	Stroke      Color
	StrokeWidth float64
	Text        Color
}

// DefaultStyles is the palette NewBuilder starts from.
func DefaultStyles() map[easel.ElementType]Style {
	ink := RGB(0x1f, 0x23, 0x28)
	return map[easel.ElementType]Style{
		easel.TypeRectangle:  {Fill: RGB(0xdb, 0xe9, 0xff), Stroke: ColorAccent, StrokeWidth: 1.5, Text: ink},
		easel.TypeCircle:     {Fill: RGB(0xe3, 0xf6, 0xe8), Stroke: RGB(0x2d, 0xa4, 0x4e), StrokeWidth: 1.5, Text: ink},
		easel.TypeCircleText: {Fill: RGB(0xe3, 0xf6, 0xe8), Stroke: RGB(0x2d, 0xa4, 0x4e), StrokeWidth: 1.5, Text: ink},
		easel.TypeTriangle:   {Fill: RGB(0xff, 0xef, 0xd5), Stroke: RGB(0xe0, 0x8a, 0x1e), StrokeWidth: 1.5, Text: ink},
		easel.TypeText:       {Text: ink},
		easel.TypeStickyNote: {Fill: RGB(0xff, 0xf1, 0x76), Stroke: RGB(0xe0, 0xc8, 0x40), StrokeWidth: 1, Text: ink},
		easel.TypeImage:      {Fill: RGB(0xee, 0xee, 0xee), Stroke: RGB(0x9a, 0x9a, 0x9a), StrokeWidth: 1, Text: ink},
		easel.TypeTable:      {Fill: ColorWhite, Stroke: RGB(0x9a, 0x9a, 0x9a), StrokeWidth: 1, Text: ink},
		easel.TypeConnector:  {Stroke: RGB(0x57, 0x60, 0x6a), StrokeWidth: 2},
	}
}

// Builder is the default easel.NodeBuilder. Every element becomes one
// element node carrying the element id, an invisible oversized hit-area
// child, and for some types a label or placeholder child.
type Builder struct {
	Styles map[easel.ElementType]Style
	// HitPadding grows the hit area of shapes on every side.
	HitPadding float64
	// LineHitWidth is the width of a connector's hit area.
	LineHitWidth float64
}

// NewBuilder returns a builder with the default palette.
func NewBuilder() *Builder {
	return &Builder{
		Styles:       DefaultStyles(),
		HitPadding:   defaultHitPadding,
		LineHitWidth: defaultLineHitWidth,
	}
}

// kindFor maps an element type to the shape kind of its element node.
func kindFor(t easel.ElementType) (ShapeKind, bool) {
	switch t {
	case easel.TypeRectangle, easel.TypeStickyNote, easel.TypeImage:
		return ShapeRect, true
	case easel.TypeText:
		return ShapeText, true
	case easel.TypeCircle, easel.TypeCircleText:
		return ShapeCircle, true
	case easel.TypeTriangle:
		return ShapePolygon, true
	case easel.TypeTable:
		return ShapeGrid, true
	case easel.TypeConnector:
		return ShapeLine, true
	}
	return ShapeNone, false
}

// Build creates the node tree for el.
func (b *Builder) Build(el easel.Element) (easel.SceneNode, error) {
	kind, ok := kindFor(el.Type)
	if !ok {
		return nil, fmt.Errorf("stage: no visual for element type %q", el.Type)
	}
	n := NewElementNode(el.ID, kind)
	n.Draggable = el.Type != easel.TypeConnector
	b.apply(n, el)
	return n, nil
}

// Update refreshes node in place. It returns easel.ErrRebuild when the node
// was built for a different element or type.
func (b *Builder) Update(node easel.SceneNode, el easel.Element) error {
	n, ok := node.(*Node)
	if !ok || n.disposed || n.elementID != el.ID {
		return easel.ErrRebuild
	}
	kind, ok := kindFor(el.Type)
	if !ok || kind != n.kind {
		return easel.ErrRebuild
	}
	b.apply(n, el)
	return nil
}

func (b *Builder) style(t easel.ElementType) Style {
	if st, ok := b.Styles[t]; ok {
		return st
	}
	return Style{Stroke: ColorBlack, StrokeWidth: 1, Text: ColorBlack}
}

// apply copies el's geometry and style onto n and its decorative children.
func (b *Builder) apply(n *Node, el easel.Element) {
	st := b.style(el.Type)
	n.Fill, n.Stroke, n.StrokeWidth, n.TextColor = st.Fill, st.Stroke, st.StrokeWidth, st.Text

	n.SetPosition(easel.Vec2{X: el.X, Y: el.Y})
	n.SetRotation(el.Rotation)
	n.SetScale(easel.Vec2{X: 1, Y: 1})

	switch n.kind {
	case ShapeRect:
		n.SetSize(easel.Vec2{X: el.Width, Y: el.Height})
	case ShapeText:
		n.SetSize(easel.Vec2{X: el.Width, Y: el.Height})
		n.SetText(el.Text, fontSize(el))
	case ShapeCircle:
		n.SetRadius(el.Radius)
	case ShapePolygon:
		n.SetPoints(trianglePoints(el))
	case ShapeLine:
		n.SetPoints(el.Points)
	case ShapeGrid:
		cols, rows := tableGrid(el)
		n.SetGrid(cols, rows)
		n.SetSize(easel.Vec2{X: sum(cols), Y: sum(rows)})
	}

	b.applyHitArea(n)
	switch el.Type {
	case easel.TypeStickyNote:
		label := ensureChild(n, labelName, ShapeText)
		label.SetPosition(easel.Vec2{X: labelPadding, Y: labelPadding})
		label.SetSize(easel.Vec2{X: max(el.Width-2*labelPadding, 0), Y: max(el.Height-2*labelPadding, 0)})
		label.SetText(el.Text, fontSize(el))
		label.TextColor = st.Text
	case easel.TypeCircleText:
		label := ensureChild(n, labelName, ShapeText)
		label.SetPosition(easel.Vec2{X: -el.Radius, Y: -el.Radius})
		label.SetSize(easel.Vec2{X: 2 * el.Radius, Y: 2 * el.Radius})
		label.SetText(el.Text, fontSize(el))
		label.TextColor = st.Text
	case easel.TypeImage:
		cross := ensureChild(n, placeholderName, ShapeLine)
		cross.SetPoints([]easel.Vec2{{}, {X: el.Width, Y: el.Height}, {X: el.Width}, {Y: el.Height}})
		cross.Stroke = st.Stroke
		cross.StrokeWidth = st.StrokeWidth
	}
}

// applyHitArea sizes the invisible hit-area child to the shape plus padding.
func (b *Builder) applyHitArea(n *Node) {
	kind := n.kind
	if kind == ShapeText || kind == ShapeGrid {
		kind = ShapeRect
	}
	hit := n.findNode(easel.HitRegionName)
	if hit == nil {
		hit = NewNode(easel.HitRegionName, kind)
		hit.Renderable = false
		n.AddChild(hit)
	}
	pad := b.HitPadding
	switch kind {
	case ShapeRect:
		hit.SetPosition(easel.Vec2{X: -pad, Y: -pad})
		hit.SetSize(easel.Vec2{X: n.width + 2*pad, Y: n.height + 2*pad})
	case ShapeCircle:
		hit.SetRadius(n.radius + pad)
	case ShapePolygon:
		hit.SetPoints(n.points)
	case ShapeLine:
		hit.SetPoints(n.points)
		hit.StrokeWidth = b.LineHitWidth
	}
}

// ensureChild returns n's child with the given name, creating a
// non-interactive one if missing.
func ensureChild(n *Node, name string, kind ShapeKind) *Node {
	if c := n.findNode(name); c != nil {
		return c
	}
	c := NewNode(name, kind)
	c.Interactable = false
	n.AddChild(c)
	return c
}

func fontSize(el easel.Element) float64 {
	if el.FontSize > 0 {
		return el.FontSize
	}
	return defaultFontSize
}

// trianglePoints returns the element's vertices, or an upward isosceles
// triangle filling its box when it has none.
func trianglePoints(el easel.Element) []easel.Vec2 {
	if len(el.Points) >= 3 {
		return el.Points
	}
	return []easel.Vec2{{X: el.Width / 2}, {X: el.Width, Y: el.Height}, {Y: el.Height}}
}

// tableGrid returns the column widths and row heights of a table, spreading
// the box evenly when the element carries none.
func tableGrid(el easel.Element) (cols, rows []float64) {
	cols = el.ColumnWidths
	if len(cols) == 0 {
		cols = uniform(el.Width, max(el.Cols, 1))
	}
	rows = el.RowHeights
	if len(rows) == 0 {
		rows = uniform(el.Height, max(el.Rows, 1))
	}
	return cols, rows
}

func uniform(total float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = total / float64(n)
	}
	return out
}

func sum(vs []float64) float64 {
	var t float64
	for _, v := range vs {
		t += v
	}
	return t
}
