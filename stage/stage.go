package stage

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/easel"
)

const (
	defaultDragDeadZone        = 4.0 // pixels
	defaultDoubleClickInterval = 400 * time.Millisecond
	defaultGridSpacing         = 20.0
)

// RunConfig holds optional settings for Run.
type RunConfig struct {
	// Title sets the window title.
	Title string
	// Width and Height set the window size. Zero keeps the stage size.
	Width, Height int
	// ShowFPS draws an FPS/TPS readout in the top-left corner.
	ShowFPS bool
}

// Stage is the root rendering surface: it owns the layers, the camera, the
// frame queue, the input pump and the shared transformer. It satisfies
// easel.Surface and ebiten.Game.
type Stage struct {
	// ClearColor fills the background layer.
	ClearColor Color
	// GridColor and GridSpacing draw a world-space grid on the background
	// layer. A zero spacing disables the grid.
	GridColor   Color
	GridSpacing float64

	// ScreenshotDir receives Screenshot captures. Empty means
	// "screenshots" in the working directory.
	ScreenshotDir string

	width, height int
	layers        []*Layer
	camera        *Camera
	frames        FrameQueue
	handler       Handler
	transformer   *Transformer
	marquee       *Node

	pointer             pointerState
	lastClick           clickRecord
	injectQueue         []syntheticEvent
	keyQueue            []syntheticKey
	injectedShift       bool
	hitBuf              []*Node
	shiftDown           bool
	dragDeadZone        float64
	doubleClickInterval time.Duration
	clock               func() time.Time

	script      *Script
	screenshots []string

	showFPS  bool
	updateFn func() error
}

// New creates a stage of the given logical size with a camera whose world
// origin is the top-left corner of the screen.
func New(width, height int) *Stage {
	s := &Stage{
		ClearColor:          RGB(0xf7, 0xf7, 0xf9),
		GridColor:           RGB(0xe4, 0xe6, 0xeb),
		GridSpacing:         defaultGridSpacing,
		width:               width,
		height:              height,
		camera:              NewCamera(easel.Rect{Width: float64(width), Height: float64(height)}),
		dragDeadZone:        defaultDragDeadZone,
		doubleClickInterval: defaultDoubleClickInterval,
		clock:               time.Now,
	}
	s.transformer = newTransformer(s)
	return s
}

// Camera returns the stage camera.
func (s *Stage) Camera() *Camera { return s.camera }

// Frames returns the frame queue to hand to easel.New as its scheduler.
func (s *Stage) Frames() *FrameQueue { return &s.frames }

// Transformer returns the shared resize/rotate affordance.
func (s *Stage) Transformer() *Transformer { return s.transformer }

// SetHandler routes pointer and keyboard input to h, usually the canvas
// router.
func (s *Stage) SetHandler(h Handler) { s.handler = h }

// SetUpdateFunc sets a callback run once per tick after input processing.
func (s *Stage) SetUpdateFunc(fn func() error) { s.updateFn = fn }

// SetDragDeadZone sets the minimum screen movement in pixels before a drag
// starts.
func (s *Stage) SetDragDeadZone(pixels float64) { s.dragDeadZone = pixels }

// SetDoubleClickInterval sets the maximum gap between two clicks that form
// a double click.
func (s *Stage) SetDoubleClickInterval(d time.Duration) { s.doubleClickInterval = d }

// SetClock replaces the time source used for double-click detection.
func (s *Stage) SetClock(clock func() time.Time) { s.clock = clock }

// Size returns the logical screen size.
func (s *Stage) Size() (int, int) { return s.width, s.height }

// --- easel.Surface ---

// Layer returns the layer with the given name.
func (s *Stage) Layer(name easel.LayerName) (easel.Layer, bool) {
	if l := s.layer(name); l != nil {
		return l, true
	}
	return nil, false
}

// StageLayer is Layer returning the concrete type, or nil.
func (s *Stage) StageLayer(name easel.LayerName) *Layer { return s.layer(name) }

func (s *Stage) layer(name easel.LayerName) *Layer {
	for _, l := range s.layers {
		if l.name == name {
			return l
		}
	}
	return nil
}

// CreateLayer creates a layer on top of the existing ones. Creating the
// preview layer also attaches the marquee band; creating the overlay layer
// attaches the transformer.
func (s *Stage) CreateLayer(name easel.LayerName) (easel.Layer, error) {
	if name == "" {
		return nil, errors.New("stage: layer name is empty")
	}
	if s.layer(name) != nil {
		return nil, fmt.Errorf("stage: layer %s already exists", name)
	}
	l := newLayer(s, name)
	s.layers = append(s.layers, l)
	switch name {
	case easel.LayerPreview:
		s.marquee = newMarqueeNode()
		l.root.AddChild(s.marquee)
	case easel.LayerOverlay:
		s.transformer.attach(l)
	}
	return l, nil
}

// Layers returns the layers in z-order, bottom first.
func (s *Stage) Layers() []*Layer { return slices.Clone(s.layers) }

func (s *Stage) moveLayer(l *Layer, top bool) {
	i := slices.Index(s.layers, l)
	if i < 0 {
		return
	}
	s.layers = slices.Delete(s.layers, i, i+1)
	if top {
		s.layers = append(s.layers, l)
	} else {
		s.layers = slices.Insert(s.layers, 0, l)
	}
}

func (s *Stage) removeLayer(l *Layer) {
	if i := slices.Index(s.layers, l); i >= 0 {
		s.layers = slices.Delete(s.layers, i, i+1)
	}
	if l.name == easel.LayerPreview {
		s.marquee = nil
	}
}

// invalidate marks the named layers for repaint on the next Draw.
func (s *Stage) invalidate(names ...easel.LayerName) {
	for _, name := range names {
		if l := s.layer(name); l != nil {
			l.stale = true
		}
	}
}

// --- Hit testing ---

// HitTest returns the topmost interactable node at world coordinates
// (wx, wy), searching listening layers from the top. Returns nil for the
// background.
func (s *Stage) HitTest(wx, wy float64) *Node {
	for i := len(s.layers) - 1; i >= 0; i-- {
		l := s.layers[i]
		if !l.listening || !l.visible {
			continue
		}
		var hit *Node
		hit, s.hitBuf = hitTestTree(l.root, wx, wy, s.hitBuf)
		if hit != nil {
			return hit
		}
	}
	return nil
}

// --- ebiten.Game ---

// Update advances the camera and processes input. Called by Ebitengine once
// per tick.
func (s *Stage) Update() error {
	s.camera.update(float32(1.0 / float64(ebiten.TPS())))
	if s.script != nil {
		s.script.step(s)
	}
	s.processInput()
	if s.updateFn != nil {
		return s.updateFn()
	}
	return nil
}

// Draw runs the frame queue, repaints layers whose image no longer matches
// the camera, and composites every visible layer onto screen.
func (s *Stage) Draw(screen *ebiten.Image) {
	s.frames.Flush()

	view := s.camera.ViewMatrix()
	for _, l := range s.layers {
		if !l.visible {
			continue
		}
		if l.needsPaint(view) {
			if err := l.Draw(); err != nil {
				easel.Logger().Warn("stage: layer paint failed", "layer", l.name, "err", err)
			}
		}
		if l.image != nil {
			screen.DrawImage(l.image, nil)
		}
	}

	if s.showFPS {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
	s.flushScreenshots(screen)
}

// Layout returns the stage's logical size.
func (s *Stage) Layout(_, _ int) (int, int) {
	return s.width, s.height
}

// paintBackground fills dst with the clear color and strokes the world grid.
func (s *Stage) paintBackground(dst *ebiten.Image, view easel.Affine) {
	dst.Fill(s.ClearColor.RGBA())
	if s.GridSpacing <= 0 || s.GridColor.A <= 0 {
		return
	}
	vis := s.camera.VisibleBounds()
	step := s.GridSpacing
	// Skip lines that would crowd closer than a few pixels when zoomed out.
	for step*s.camera.Zoom < 8 {
		step *= 2
	}
	p := painter{dst: dst}
	for x := math.Floor(vis.X/step) * step; x <= vis.X+vis.Width; x += step {
		p.stroke([]easel.Vec2{{X: x, Y: vis.Y}, {X: x, Y: vis.Y + vis.Height}}, false, view, s.GridColor, 1/s.camera.Zoom)
	}
	for y := math.Floor(vis.Y/step) * step; y <= vis.Y+vis.Height; y += step {
		p.stroke([]easel.Vec2{{X: vis.X, Y: y}, {X: vis.X + vis.Width, Y: y}}, false, view, s.GridColor, 1/s.camera.Zoom)
	}
}

// Run opens a window and runs s as an Ebitengine game until the window is
// closed or an update returns an error.
func Run(s *Stage, cfg RunConfig) error {
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	w, h := cfg.Width, cfg.Height
	if w <= 0 || h <= 0 {
		w, h = s.width, s.height
	}
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	s.showFPS = cfg.ShowFPS
	return ebiten.RunGame(s)
}
