package easel

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// defaultLineSpacing multiplies the font's own line height.
const defaultLineSpacing = 1.2

// TextMeasurer computes the height of wrapped text.
type TextMeasurer interface {
	MeasureHeight(text string, fontSize, width float64) float64
}

// FontMeasurer wraps text greedily at word boundaries using real glyph
// advances and reports lines × line height.
type FontMeasurer struct {
	font        *opentype.Font
	faces       map[float64]font.Face
	lineSpacing float64
}

// NewFontMeasurer creates a measurer for the Go Regular font.
func NewFontMeasurer() (*FontMeasurer, error) {
	return NewFontMeasurerFromTTF(goregular.TTF)
}

// NewFontMeasurerFromTTF creates a measurer from raw TTF/OTF data.
func NewFontMeasurerFromTTF(ttf []byte) (*FontMeasurer, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("easel: parse font: %w", err)
	}
	return &FontMeasurer{
		font:        f,
		faces:       make(map[float64]font.Face),
		lineSpacing: defaultLineSpacing,
	}, nil
}

func (m *FontMeasurer) face(size float64) (font.Face, error) {
	if f, ok := m.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(m.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[size] = f
	return f, nil
}

// MeasureHeight implements TextMeasurer.
func (m *FontMeasurer) MeasureHeight(text string, fontSize, width float64) float64 {
	face, err := m.face(fontSize)
	if err != nil {
		Logger().Warn("easel: font face unavailable, estimating text height", "size", fontSize, "err", err)
		return estimateHeight(text, fontSize, width)
	}
	advance := func(s string) float64 {
		return float64(font.MeasureString(face, s)) / 64
	}
	lines := WrapLines(text, width, advance)
	lineHeight := float64(face.Metrics().Height) / 64 * m.lineSpacing
	return math.Ceil(float64(len(lines)) * lineHeight)
}

// WrapLines greedily wraps text at word boundaries so that no line is wider
// than width, as measured by advance. Explicit newlines always break. A
// single word wider than the box takes a line of its own.
func WrapLines(text string, width float64, advance func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			next := cur + " " + w
			if advance(next) <= width {
				cur = next
				continue
			}
			lines = append(lines, cur)
			cur = w
		}
		lines = append(lines, cur)
	}
	return lines
}

// estimateHeight assumes an average glyph advance of 0.6 em.
func estimateHeight(text string, fontSize, width float64) float64 {
	lines := WrapLines(text, width, func(s string) float64 {
		return float64(len([]rune(s))) * fontSize * 0.6
	})
	return math.Ceil(float64(len(lines)) * fontSize * defaultLineSpacing)
}

type estimateMeasurer struct{}

func (estimateMeasurer) MeasureHeight(text string, fontSize, width float64) float64 {
	return estimateHeight(text, fontSize, width)
}
