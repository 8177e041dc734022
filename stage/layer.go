package stage

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/easel"
)

// Layer is one offscreen drawing surface of a Stage. It satisfies
// easel.Layer. Draw renders the layer's node tree into its own image; the
// stage composites layer images every frame without repainting them.
type Layer struct {
	name  easel.LayerName
	stage *Stage
	root  *Node

	image       *ebiten.Image
	painter     painter
	painted     bool
	paintedView easel.Affine
	stale       bool
	draws       int

	listening bool
	visible   bool
	destroyed bool

	prepaint []func()
}

func newLayer(s *Stage, name easel.LayerName) *Layer {
	return &Layer{
		name:      name,
		stage:     s,
		root:      NewNode(string(name), ShapeNone),
		listening: true,
		visible:   true,
	}
}

// Name returns the layer name.
func (l *Layer) Name() easel.LayerName { return l.name }

// Root returns the container node every added node hangs from.
func (l *Layer) Root() *Node { return l.root }

// Add attaches node to the layer. Only *Node values are accepted.
func (l *Layer) Add(node easel.SceneNode) error {
	if l.destroyed {
		return fmt.Errorf("stage: layer %s is destroyed", l.name)
	}
	n, ok := node.(*Node)
	if !ok || n == nil {
		return fmt.Errorf("stage: layer %s cannot hold %T", l.name, node)
	}
	if n.disposed {
		return fmt.Errorf("stage: cannot add disposed %s", n)
	}
	l.root.AddChild(n)
	return nil
}

// Draw repaints the layer into its offscreen image using the stage camera.
func (l *Layer) Draw() error {
	if l.destroyed {
		return fmt.Errorf("stage: layer %s is destroyed", l.name)
	}
	for _, fn := range l.prepaint {
		fn()
	}

	w, h := l.stage.width, l.stage.height
	if l.image == nil || l.image.Bounds().Dx() != w || l.image.Bounds().Dy() != h {
		if l.image != nil {
			l.image.Deallocate()
		}
		l.image = ebiten.NewImage(w, h)
	}
	l.image.Clear()

	view := l.stage.camera.ViewMatrix()
	if l.name == easel.LayerBackground {
		l.stage.paintBackground(l.image, view)
	}
	l.painter.dst = l.image
	l.painter.err = nil
	l.painter.paintTree(l.root, view)
	l.painter.dst = nil

	l.painted = true
	l.paintedView = view
	l.stale = false
	l.draws++
	return l.painter.err
}

// Draws returns how many times the layer has been painted.
func (l *Layer) Draws() int { return l.draws }

// needsPaint reports whether the cached image is out of date with the view
// or was invalidated by the stage itself.
func (l *Layer) needsPaint(view easel.Affine) bool {
	return l.stale || !l.painted || l.paintedView != view
}

// Invalidate marks the layer for repaint on the next stage Draw without
// going through a scheduler.
func (l *Layer) Invalidate() { l.stale = true }

// MoveToTop moves the layer to the top of the stage z-order.
func (l *Layer) MoveToTop() { l.stage.moveLayer(l, true) }

// MoveToBottom moves the layer to the bottom of the stage z-order.
func (l *Layer) MoveToBottom() { l.stage.moveLayer(l, false) }

// SetListening controls whether the layer takes part in hit testing.
func (l *Layer) SetListening(listening bool) { l.listening = listening }

// Listening reports whether the layer takes part in hit testing.
func (l *Layer) Listening() bool { return l.listening }

// SetVisible controls whether the layer is composited.
func (l *Layer) SetVisible(visible bool) { l.visible = visible }

// OnPrepaint registers fn to run at the start of every Draw.
func (l *Layer) OnPrepaint(fn func()) {
	l.prepaint = append(l.prepaint, fn)
}

// Destroy removes the layer from its stage, disposes its nodes and frees
// the offscreen image. Destroying twice is an error.
func (l *Layer) Destroy() error {
	if l.destroyed {
		return fmt.Errorf("stage: layer %s already destroyed", l.name)
	}
	l.destroyed = true
	l.stage.removeLayer(l)
	l.root.Dispose()
	l.prepaint = nil
	if l.image != nil {
		l.image.Deallocate()
		l.image = nil
	}
	return nil
}
