package easel

// Vec2 is a 2D vector used for positions, offsets, sizes, and scale factors
// throughout the API.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Union returns the smallest rectangle containing both r and other.
func (r Rect) Union(other Rect) Rect {
	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// LayerName identifies one of the four fixed drawing surfaces.
type LayerName string

const (
	LayerBackground LayerName = "background" // non-interactive, bottom
	LayerMain       LayerName = "main"       // interactive element content
	LayerPreview    LayerName = "preview"    // transient visuals (rubber bands, ghosts)
	LayerOverlay    LayerName = "overlay"    // selection handles and affordances, top
)

// Layers lists every layer in z-order, bottom first.
var Layers = [...]LayerName{LayerBackground, LayerMain, LayerPreview, LayerOverlay}

// paintOrder is the order in which a batched frame repaints dirty layers.
// The background is static and only painted by ForceDraw.
var paintOrder = [...]LayerName{LayerMain, LayerOverlay, LayerPreview}

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button (scroll wheel click)
)

// KeyModifiers is a bitmask of keyboard modifier keys.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)

// multiSelect reports whether the modifiers toggle selection membership.
func (m KeyModifiers) multiSelect() bool {
	return m&(ModShift|ModCtrl|ModMeta) != 0
}

// Handle names one of the resize/rotate anchors of the shared transformer.
type Handle string

const (
	HandleNone         Handle = ""
	HandleTopLeft      Handle = "top-left"
	HandleTopCenter    Handle = "top-center"
	HandleTopRight     Handle = "top-right"
	HandleMiddleLeft   Handle = "middle-left"
	HandleMiddleRight  Handle = "middle-right"
	HandleBottomLeft   Handle = "bottom-left"
	HandleBottomCenter Handle = "bottom-center"
	HandleBottomRight  Handle = "bottom-right"
	HandleRotate       Handle = "rotater"
)

// AllHandles lists the eight resize handles clockwise from the top-left.
var AllHandles = []Handle{
	HandleTopLeft, HandleTopCenter, HandleTopRight, HandleMiddleRight,
	HandleBottomRight, HandleBottomCenter, HandleBottomLeft, HandleMiddleLeft,
}

// CornerHandles lists the four corner resize handles.
var CornerHandles = []Handle{HandleTopLeft, HandleTopRight, HandleBottomRight, HandleBottomLeft}
