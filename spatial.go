package easel

import (
	"slices"

	"github.com/dhconnelly/rtreego"
)

// minExtent keeps zero-sized bounds (points, straight connectors) indexable;
// rtreego rejects non-positive lengths.
const minExtent = 1e-6

// spatialItem is one indexed node's bounds.
type spatialItem struct {
	id   string
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (s *spatialItem) Bounds() rtreego.Rect {
	return s.rect
}

// spatialIndex is an R-tree over registered node bounds. A nil index is
// valid and ignores every call.
type spatialIndex struct {
	tree  *rtreego.Rtree
	items map[string]*spatialItem
}

func newSpatialIndex() *spatialIndex {
	return &spatialIndex{
		tree:  rtreego.NewTree(2, 25, 50),
		items: make(map[string]*spatialItem),
	}
}

func toRTreeRect(r Rect) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{r.X, r.Y},
		[]float64{max(r.Width, minExtent), max(r.Height, minExtent)},
	)
}

func (s *spatialIndex) insert(id string, bounds Rect) {
	if s == nil {
		return
	}
	s.remove(id)
	rect, err := toRTreeRect(bounds)
	if err != nil {
		Logger().Warn("easel: node bounds not indexable", "id", id, "bounds", bounds, "err", err)
		return
	}
	item := &spatialItem{id: id, rect: rect}
	s.items[id] = item
	s.tree.Insert(item)
}

func (s *spatialIndex) remove(id string) {
	if s == nil {
		return
	}
	if item, ok := s.items[id]; ok {
		s.tree.Delete(item)
		delete(s.items, id)
	}
}

func (s *spatialIndex) reset() {
	if s == nil {
		return
	}
	s.tree = rtreego.NewTree(2, 25, 50)
	s.items = make(map[string]*spatialItem)
}

func (s *spatialIndex) query(r Rect) []string {
	if s == nil {
		return nil
	}
	rect, err := toRTreeRect(r)
	if err != nil {
		return nil
	}
	hits := s.tree.SearchIntersect(rect)
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.(*spatialItem).id)
	}
	slices.Sort(ids)
	return ids
}
