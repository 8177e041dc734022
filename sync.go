package easel

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// SyncResult lists the ids touched by SyncElements, each in sorted order.
type SyncResult struct {
	Created []string
	Updated []string
	Rebuilt []string
	Removed []string
	// Failed ids have no fresh node: a build failed, or an in-place update
	// failed and the previous node was kept.
	Failed []string
	// Duplicates are ids that appeared more than once in the snapshot.
	// They are dropped from the snapshot entirely.
	Duplicates []string
}

// Changed reports whether the sync created, updated or removed anything.
func (r SyncResult) Changed() bool {
	return len(r.Created)+len(r.Updated)+len(r.Rebuilt)+len(r.Removed) > 0
}

// SyncElements makes the registry hold exactly one node per element in
// elements. Stale entries are removed, new elements are built and added to
// the main layer, and changed elements are updated in place or rebuilt.
//
// The outcome depends only on the set of elements, not their order, and a
// second call with the same snapshot does nothing.
func (r *Registry) SyncElements(elements []Element, builder NodeBuilder) (SyncResult, error) {
	var res SyncResult
	if err := r.ready("sync elements"); err != nil {
		return res, err
	}
	if builder == nil {
		return res, errors.New("easel: sync elements: nil builder")
	}

	wanted := make(map[string]Element, len(elements))
	for id, group := range lo.GroupBy(elements, func(el Element) string { return el.ID }) {
		switch {
		case id == "":
			Logger().Warn("easel: sync skipped elements without id", "count", len(group))
		case len(group) > 1:
			res.Duplicates = append(res.Duplicates, id)
		default:
			wanted[id] = group[0]
		}
	}
	if len(res.Duplicates) > 0 {
		slices.Sort(res.Duplicates)
		Logger().Warn("easel: sync dropped duplicated element ids", "ids", res.Duplicates)
	}

	for _, id := range sortedKeys(r.entries) {
		if _, ok := wanted[id]; !ok {
			r.release(r.entries[id])
			res.Removed = append(res.Removed, id)
		}
	}

	for _, id := range sortedKeys(wanted) {
		el := wanted[id]
		e, ok := r.entries[id]
		switch {
		case !ok:
			if err := r.build(el, builder); err != nil {
				Logger().Warn("easel: build node failed", "id", id, "type", el.Type, "err", err)
				res.Failed = append(res.Failed, id)
				continue
			}
			res.Created = append(res.Created, id)

		case e.hasSnapshot && e.snapshot.Equal(el):
			// unchanged

		case e.ElementType != el.Type:
			res = r.rebuild(el, builder, res)

		default:
			err := safely(func() error { return builder.Update(e.Node, el) })
			switch {
			case errors.Is(err, ErrRebuild):
				res = r.rebuild(el, builder, res)
			case err != nil:
				Logger().Warn("easel: update node failed", "id", id, "type", el.Type, "err", err)
				res.Failed = append(res.Failed, id)
			default:
				e.snapshot = el.Clone()
				e.hasSnapshot = true
				e.LastUpdated = r.clock()
				r.index.insert(id, e.Node.Bounds())
				res.Updated = append(res.Updated, id)
			}
		}
	}

	if res.Changed() {
		Logger().Debug("easel: synced elements",
			"created", len(res.Created), "updated", len(res.Updated),
			"rebuilt", len(res.Rebuilt), "removed", len(res.Removed))
	}
	return res, nil
}

func (r *Registry) rebuild(el Element, builder NodeBuilder, res SyncResult) SyncResult {
	if err := r.build(el, builder); err != nil {
		Logger().Warn("easel: rebuild node failed", "id", el.ID, "type", el.Type, "err", err)
		res.Failed = append(res.Failed, el.ID)
		return res
	}
	res.Rebuilt = append(res.Rebuilt, el.ID)
	return res
}

// build creates a node for el, adds it to the main layer and registers it,
// replacing any previous entry.
func (r *Registry) build(el Element, builder NodeBuilder) error {
	var node SceneNode
	err := safely(func() error {
		var err error
		node, err = builder.Build(el)
		return err
	})
	if err != nil {
		return err
	}
	if node == nil {
		return fmt.Errorf("builder returned nil node for %s", el.Type)
	}
	if main, ok := r.layers[LayerMain]; ok {
		if err := safely(func() error { return main.Add(node) }); err != nil {
			_ = safely(node.Destroy)
			return fmt.Errorf("add to main layer: %w", err)
		}
	}
	e := r.register(el.ID, node, el.Type)
	e.snapshot = el.Clone()
	e.hasSnapshot = true
	return nil
}
