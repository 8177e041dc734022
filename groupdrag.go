package easel

// GroupDragSession holds each group member's position at drag start. It
// lives for one gesture and is never persisted.
type GroupDragSession struct {
	GroupID string
	// Base maps member element id to its position when the drag started.
	Base map[string]Vec2
}

// newGroupDragSession captures the current node position of every member
// that has a registered node.
func newGroupDragSession(groupID string, members []string, reg *Registry) (*GroupDragSession, error) {
	s := &GroupDragSession{
		GroupID: groupID,
		Base:    make(map[string]Vec2, len(members)),
	}
	for _, id := range members {
		node, err := reg.Node(id)
		if err != nil {
			return nil, err
		}
		if node == nil {
			continue
		}
		s.Base[id] = node.Position()
	}
	return s, nil
}

// delta is the offset of the dragged member from its captured base.
func (s *GroupDragSession) delta(id string, current Vec2) (Delta, bool) {
	base, ok := s.Base[id]
	if !ok {
		return Delta{}, false
	}
	return Delta{DX: current.X - base.X, DY: current.Y - base.Y}, true
}

// apply moves every member except the dragged one to its base plus d.
func (s *GroupDragSession) apply(dragged string, d Delta, reg *Registry) error {
	for _, id := range sortedKeys(s.Base) {
		if id == dragged {
			continue
		}
		node, err := reg.Node(id)
		if err != nil {
			return err
		}
		if node == nil {
			continue
		}
		base := s.Base[id]
		node.SetPosition(Vec2{X: base.X + d.DX, Y: base.Y + d.DY})
	}
	return nil
}

// restore moves every member back to its base position.
func (s *GroupDragSession) restore(reg *Registry) error {
	for _, id := range sortedKeys(s.Base) {
		node, err := reg.Node(id)
		if err != nil {
			return err
		}
		if node != nil {
			node.SetPosition(s.Base[id])
		}
	}
	return nil
}
