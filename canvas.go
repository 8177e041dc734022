package easel

import (
	"errors"
	"fmt"
)

// Canvas wires one registry, draw batcher, event router and selection
// normalizer around an element store. It is not safe for concurrent use:
// every method must be called from the goroutine driving the event loop.
type Canvas struct {
	cfg       Config
	store     ElementStore
	registry  *Registry
	batcher   *DrawBatcher
	router    *Router
	selection *Selection
}

// New creates a canvas. Call Init before dispatching events.
func New(store ElementStore, scheduler FrameScheduler, transformer Transformer, cfg Config) *Canvas {
	cfg = cfg.withDefaults()
	c := &Canvas{cfg: cfg, store: store}
	c.registry = NewRegistry(cfg)
	c.batcher = NewDrawBatcher(c.registry, scheduler)
	c.selection = NewSelection(c.registry, store, c.batcher, transformer, cfg)
	c.router = NewRouter(c.registry, store, c.batcher, cfg)

	c.router.selectionChanged = func(ids []string) {
		if err := c.selection.SyncSelection(ids); err != nil {
			Logger().Warn("easel: selection sync failed", "err", err)
		}
	}
	c.router.OnShiftChange(c.selection.SetShiftHeld)
	return c
}

// Registry returns the node registry.
func (c *Canvas) Registry() *Registry { return c.registry }

// Batcher returns the draw batcher.
func (c *Canvas) Batcher() *DrawBatcher { return c.batcher }

// Router returns the event router.
func (c *Canvas) Router() *Router { return c.router }

// Selection returns the selection normalizer.
func (c *Canvas) Selection() *Selection { return c.selection }

// Init attaches the canvas to surface and paints every layer once.
func (c *Canvas) Init(surface Surface) error {
	if err := c.registry.Init(surface); err != nil {
		return err
	}
	if err := c.batcher.ForceDrawAll(); err != nil {
		Logger().Warn("easel: initial paint incomplete", "err", err)
	}
	return nil
}

// Destroy cancels the pending frame, drops interaction state, removes every
// node and destroys the layers. Structural failures are returned.
func (c *Canvas) Destroy() error {
	c.batcher.CancelScheduledDraw()
	c.router.Reset()
	c.selection.Detach()

	var errs []error
	if c.registry.State() == StateReady {
		if err := c.registry.ClearAllNodes(); err != nil {
			errs = append(errs, fmt.Errorf("clear nodes: %w", err))
		}
	}
	if err := c.registry.Destroy(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SyncElements reconciles the scene graph with elements, repaints the main
// layer and re-attaches the transformer to the store's selection.
func (c *Canvas) SyncElements(elements []Element, builder NodeBuilder) (SyncResult, error) {
	res, err := c.registry.SyncElements(elements, builder)
	if err != nil {
		return res, err
	}
	c.batcher.ScheduleDraw(LayerMain)
	if err := c.selection.SyncSelection(c.store.SelectedIDs()); err != nil {
		Logger().Warn("easel: selection sync failed", "err", err)
	}
	return res, nil
}
