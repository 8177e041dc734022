package easel

import "time"

const (
	defaultCellWidth        = 100.0
	defaultCellHeight       = 40.0
	defaultMinFontSize      = 8.0
	defaultMaxFontSize      = 72.0
	defaultMinTransformSize = 5.0
)

// Config holds per-canvas settings. Zero fields fall back to the values of
// DefaultConfig.
type Config struct {
	// CellWidth and CellHeight size the grid used to map a double-click on a
	// table to a cell.
	CellWidth  float64
	CellHeight float64

	// MinFontSize and MaxFontSize clamp the font size of text elements when
	// a transform is normalized.
	MinFontSize float64
	MaxFontSize float64

	// MinTransformSize is the smallest width or height the shared
	// transformer lets a node shrink to.
	MinTransformSize float64

	// SpatialIndex keeps registered node bounds in an R-tree, enabling
	// Registry.QueryRect and Router.MarqueeSelect.
	SpatialIndex bool

	// Measurer re-measures text height after a resize. Nil uses the Go
	// Regular font via NewFontMeasurer.
	Measurer TextMeasurer

	// Clock stamps registry entries. Nil uses time.Now.
	Clock func() time.Time

	Callbacks Callbacks
}

// DefaultConfig returns the default canvas settings.
func DefaultConfig() Config {
	return Config{
		CellWidth:        defaultCellWidth,
		CellHeight:       defaultCellHeight,
		MinFontSize:      defaultMinFontSize,
		MaxFontSize:      defaultMaxFontSize,
		MinTransformSize: defaultMinTransformSize,
		SpatialIndex:     true,
	}
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.CellWidth <= 0 {
		c.CellWidth = defaultCellWidth
	}
	if c.CellHeight <= 0 {
		c.CellHeight = defaultCellHeight
	}
	if c.MinFontSize <= 0 {
		c.MinFontSize = defaultMinFontSize
	}
	if c.MaxFontSize <= 0 {
		c.MaxFontSize = defaultMaxFontSize
	}
	if c.MinTransformSize <= 0 {
		c.MinTransformSize = defaultMinTransformSize
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}
