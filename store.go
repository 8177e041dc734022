package easel

// ElementStore is the adapter contract of the external element store.
// All element and selection mutations made by the core go through it.
type ElementStore interface {
	// Element returns the element with the given id.
	Element(id string) (Element, bool)

	SelectedIDs() []string
	SetSelectedIDs(ids []string) error
	AddToSelection(id string) error
	RemoveFromSelection(id string) error
	ClearSelection() error

	// GroupMembers returns the ids of every element in the group,
	// including the one asked about.
	GroupMembers(groupID string) []string

	UpdateElement(id string, update ElementUpdate, opts UpdateOptions) error

	// SaveSnapshot records an undo-history checkpoint.
	SaveSnapshot() error
}

// Delta is a translation applied to every member of a dragged group.
type Delta struct {
	DX, DY float64
}

// Callbacks are invoked by the core on the event-loop goroutine. Any field
// may be nil.
type Callbacks struct {
	OnSelectionChange func(ids []string)
	OnDragStart       func(id string)
	OnDragEnd         func(id string)
	OnGroupDragMove   func(groupID string, d Delta)
	OnTextEditorOpen  func(id string, node SceneNode)
	OnTableCellEdit   func(id string, row, col int)
	// OnConnectorHover receives the hovered connector id, or "" when the
	// pointer leaves every connector.
	OnConnectorHover func(id string)
}
