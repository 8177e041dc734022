package easel

import "slices"

// ElementType is the variant tag of an Element.
type ElementType string

const (
	TypeRectangle  ElementType = "rectangle"
	TypeCircle     ElementType = "circle"
	TypeCircleText ElementType = "circle-text" // circle hosting inline text
	TypeTriangle   ElementType = "triangle"
	TypeText       ElementType = "text"
	TypeStickyNote ElementType = "sticky-note"
	TypeImage      ElementType = "image"
	TypeTable      ElementType = "table"
	TypeConnector  ElementType = "connector"
)

// Element is an externally owned drawable record. The core treats it as
// immutable: every change goes through ElementStore.UpdateElement.
//
// Only the geometry fields relevant to Type are meaningful. Points are
// relative to (X, Y).
type Element struct {
	ID       string
	Type     ElementType
	X, Y     float64
	Rotation float64

	Width, Height float64
	Radius        float64
	Points        []Vec2

	Text     string
	FontSize float64

	// Table
	Rows, Cols   int
	ColumnWidths []float64
	RowHeights   []float64

	// Connector endpoints (element ids).
	From, To string

	GroupID string
}

// Clone returns a deep copy of e.
func (e Element) Clone() Element {
	e.Points = slices.Clone(e.Points)
	e.ColumnWidths = slices.Clone(e.ColumnWidths)
	e.RowHeights = slices.Clone(e.RowHeights)
	return e
}

// Equal reports whether e and other describe the same element snapshot.
func (e Element) Equal(other Element) bool {
	return e.ID == other.ID &&
		e.Type == other.Type &&
		e.X == other.X && e.Y == other.Y &&
		e.Rotation == other.Rotation &&
		e.Width == other.Width && e.Height == other.Height &&
		e.Radius == other.Radius &&
		slices.Equal(e.Points, other.Points) &&
		e.Text == other.Text && e.FontSize == other.FontSize &&
		e.Rows == other.Rows && e.Cols == other.Cols &&
		slices.Equal(e.ColumnWidths, other.ColumnWidths) &&
		slices.Equal(e.RowHeights, other.RowHeights) &&
		e.From == other.From && e.To == other.To &&
		e.GroupID == other.GroupID
}

// ElementUpdate is a partial update. Nil fields are left unchanged.
type ElementUpdate struct {
	X, Y     *float64
	Rotation *float64

	Width, Height *float64
	Radius        *float64
	Points        []Vec2

	FontSize *float64

	ColumnWidths []float64
	RowHeights   []float64
}

// IsEmpty reports whether the update changes nothing.
func (u ElementUpdate) IsEmpty() bool {
	return u.X == nil && u.Y == nil && u.Rotation == nil &&
		u.Width == nil && u.Height == nil && u.Radius == nil &&
		u.Points == nil && u.FontSize == nil &&
		u.ColumnWidths == nil && u.RowHeights == nil
}

// Apply returns a copy of e with the update's non-nil fields applied.
func (u ElementUpdate) Apply(e Element) Element {
	e = e.Clone()
	setIf(&e.X, u.X)
	setIf(&e.Y, u.Y)
	setIf(&e.Rotation, u.Rotation)
	setIf(&e.Width, u.Width)
	setIf(&e.Height, u.Height)
	setIf(&e.Radius, u.Radius)
	setIf(&e.FontSize, u.FontSize)
	if u.Points != nil {
		e.Points = slices.Clone(u.Points)
	}
	if u.ColumnWidths != nil {
		e.ColumnWidths = slices.Clone(u.ColumnWidths)
	}
	if u.RowHeights != nil {
		e.RowHeights = slices.Clone(u.RowHeights)
	}
	return e
}

func setIf(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// Float returns a pointer to v, for building ElementUpdate literals.
func Float(v float64) *float64 { return &v }

// UpdateOptions tunes how the store records an update.
type UpdateOptions struct {
	// SkipHistory suppresses an undo checkpoint for this update. Used when
	// the caller already called SaveSnapshot for the whole gesture.
	SkipHistory bool
}
