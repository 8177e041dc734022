// Package memstore is an in-memory easel.ElementStore with selection,
// groups and snapshot-based undo history.
package memstore

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/phanxgames/easel"
)

const defaultMaxHistory = 100

// ErrNotFound is returned for operations on an unknown element id.
var ErrNotFound = errors.New("memstore: element not found")

// snapshot is one undo-history entry. Selection is not part of history.
type snapshot struct {
	elements []easel.Element
}

// Store holds elements in insertion order. It is not safe for concurrent
// use.
type Store struct {
	// MaxHistory caps the undo stack. Zero means the default of 100.
	MaxHistory int

	elements map[string]easel.Element
	order    []string
	selected []string

	undo []snapshot
	redo []snapshot

	version   uint64
	listeners []func()
}

// New creates a store holding elements. Elements without an id get a
// fresh UUID.
func New(elements ...easel.Element) *Store {
	s := &Store{elements: make(map[string]easel.Element, len(elements))}
	for _, el := range elements {
		s.insert(el)
	}
	return s
}

// OnChange registers fn to run after every element or selection change.
func (s *Store) OnChange(fn func()) {
	s.listeners = append(s.listeners, fn)
}

// Version increases on every element change. Callers compare versions to
// decide whether the scene needs a resync.
func (s *Store) Version() uint64 { return s.version }

func (s *Store) changed(elementsTouched bool) {
	if elementsTouched {
		s.version++
	}
	for _, fn := range s.listeners {
		fn()
	}
}

func (s *Store) insert(el easel.Element) string {
	if el.ID == "" {
		el.ID = uuid.NewString()
	}
	if _, exists := s.elements[el.ID]; !exists {
		s.order = append(s.order, el.ID)
	}
	s.elements[el.ID] = el.Clone()
	return el.ID
}

// --- Element collection ---

// Elements returns copies of every element in insertion order.
func (s *Store) Elements() []easel.Element {
	return lo.Map(s.order, func(id string, _ int) easel.Element {
		return s.elements[id].Clone()
	})
}

// Len returns the number of elements.
func (s *Store) Len() int { return len(s.order) }

// Add records a history checkpoint and inserts el, returning its id.
func (s *Store) Add(el easel.Element) string {
	s.checkpoint()
	id := s.insert(el)
	s.changed(true)
	return id
}

// Remove records a history checkpoint and deletes the element, also
// dropping it from the selection.
func (s *Store) Remove(id string) error {
	if _, ok := s.elements[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.checkpoint()
	delete(s.elements, id)
	s.order = lo.Without(s.order, id)
	s.selected = lo.Without(s.selected, id)
	s.changed(true)
	return nil
}

// Group assigns a fresh group id to the given elements and returns it.
func (s *Store) Group(ids ...string) (string, error) {
	for _, id := range ids {
		if _, ok := s.elements[id]; !ok {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}
	s.checkpoint()
	groupID := uuid.NewString()
	for _, id := range lo.Uniq(ids) {
		el := s.elements[id]
		el.GroupID = groupID
		s.elements[id] = el
	}
	s.changed(true)
	return groupID, nil
}

// Ungroup clears the group id of every member.
func (s *Store) Ungroup(groupID string) {
	members := s.GroupMembers(groupID)
	if len(members) == 0 {
		return
	}
	s.checkpoint()
	for _, id := range members {
		el := s.elements[id]
		el.GroupID = ""
		s.elements[id] = el
	}
	s.changed(true)
}

// --- easel.ElementStore ---

// Element returns a copy of the element with the given id.
func (s *Store) Element(id string) (easel.Element, bool) {
	el, ok := s.elements[id]
	if !ok {
		return easel.Element{}, false
	}
	return el.Clone(), true
}

// SelectedIDs returns the selection in selection order.
func (s *Store) SelectedIDs() []string { return slices.Clone(s.selected) }

// SetSelectedIDs replaces the selection. Unknown ids are rejected.
func (s *Store) SetSelectedIDs(ids []string) error {
	for _, id := range ids {
		if _, ok := s.elements[id]; !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}
	s.selected = lo.Uniq(ids)
	s.changed(false)
	return nil
}

// AddToSelection appends id to the selection.
func (s *Store) AddToSelection(id string) error {
	if _, ok := s.elements[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if lo.Contains(s.selected, id) {
		return nil
	}
	s.selected = append(s.selected, id)
	s.changed(false)
	return nil
}

// RemoveFromSelection drops id from the selection.
func (s *Store) RemoveFromSelection(id string) error {
	if !lo.Contains(s.selected, id) {
		return nil
	}
	s.selected = lo.Without(s.selected, id)
	s.changed(false)
	return nil
}

// ClearSelection empties the selection.
func (s *Store) ClearSelection() error {
	if len(s.selected) == 0 {
		return nil
	}
	s.selected = nil
	s.changed(false)
	return nil
}

// GroupMembers returns every element in the group in insertion order.
func (s *Store) GroupMembers(groupID string) []string {
	if groupID == "" {
		return nil
	}
	return lo.Filter(s.order, func(id string, _ int) bool {
		return s.elements[id].GroupID == groupID
	})
}

// UpdateElement applies update to the element. Unless opts.SkipHistory is
// set, a history checkpoint is recorded first.
func (s *Store) UpdateElement(id string, update easel.ElementUpdate, opts easel.UpdateOptions) error {
	el, ok := s.elements[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if update.IsEmpty() {
		return nil
	}
	if !opts.SkipHistory {
		s.checkpoint()
	}
	s.elements[id] = update.Apply(el)
	s.changed(true)
	return nil
}

// SaveSnapshot records an undo checkpoint of the current state.
func (s *Store) SaveSnapshot() error {
	s.checkpoint()
	return nil
}

// --- History ---

func (s *Store) capture() snapshot {
	return snapshot{elements: s.Elements()}
}

// restore replaces the elements with snap and drops selected ids that no
// longer exist.
func (s *Store) restore(snap snapshot) {
	s.elements = make(map[string]easel.Element, len(snap.elements))
	s.order = s.order[:0]
	for _, el := range snap.elements {
		s.insert(el)
	}
	s.selected = lo.Filter(s.selected, func(id string, _ int) bool {
		_, ok := s.elements[id]
		return ok
	})
	s.changed(true)
}

func (s *Store) checkpoint() {
	limit := s.MaxHistory
	if limit <= 0 {
		limit = defaultMaxHistory
	}
	s.undo = append(s.undo, s.capture())
	if len(s.undo) > limit {
		s.undo = slices.Delete(s.undo, 0, len(s.undo)-limit)
	}
	s.redo = nil
}

// CanUndo reports whether Undo would change anything.
func (s *Store) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether Redo would change anything.
func (s *Store) CanRedo() bool { return len(s.redo) > 0 }

// Undo restores the most recent checkpoint. Returns false when the history
// is empty.
func (s *Store) Undo() bool {
	if len(s.undo) == 0 {
		return false
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.capture())
	s.restore(prev)
	return true
}

// Redo re-applies the most recently undone state. Returns false when there
// is nothing to redo.
func (s *Store) Redo() bool {
	if len(s.redo) == 0 {
		return false
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, s.capture())
	s.restore(next)
	return true
}
