// Package namespaces holds the globally selected namespace set that list
// views share, and publishes its changes to registered callbacks.
package namespaces

import (
	"slices"
	"sort"
	"sync"
)

// Selection is a snapshot of the selected namespaces. When AllSelected is
// set, Namespaces lists the namespaces currently known to exist.
type Selection struct {
	Namespaces  []string
	AllSelected bool
}

// Equal reports whether both selections name the same set.
func (s Selection) Equal(o Selection) bool {
	if s.AllSelected != o.AllSelected {
		return false
	}
	return slices.Equal(normalize(s.Namespaces), normalize(o.Namespaces))
}

// Contains reports whether ns is part of the selection.
func (s Selection) Contains(ns string) bool {
	return s.AllSelected || slices.Contains(s.Namespaces, ns)
}

// ChangeFunc is called with the previous and the new selection.
type ChangeFunc func(prev, next Selection)

// Selector is safe for concurrent use. Callbacks run synchronously on the
// goroutine that changed the selection, one change at a time and in the order
// the changes were made. A callback must not change the selection.
type Selector struct {
	// dispatchMu orders changes together with their callbacks.
	dispatchMu sync.Mutex

	mu        sync.Mutex
	selected  []string
	available []string
	all       bool

	listenersMu sync.Mutex
	listeners   map[int]ChangeFunc
	nextID      int
}

// NewSelector returns a selector with the given namespaces selected, or all
// namespaces when none are given.
func NewSelector(initial ...string) *Selector {
	s := &Selector{listeners: make(map[int]ChangeFunc)}
	s.selected = normalize(initial)
	s.all = len(s.selected) == 0
	return s
}

// Selected returns the current selection.
func (s *Selector) Selected() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectionLocked()
}

func (s *Selector) selectionLocked() Selection {
	if s.all {
		return Selection{Namespaces: slices.Clone(s.available), AllSelected: true}
	}
	return Selection{Namespaces: slices.Clone(s.selected)}
}

// Available returns the namespaces known to exist.
func (s *Selector) Available() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.available)
}

// Select selects exactly names. An empty call selects all namespaces.
func (s *Selector) Select(names ...string) {
	names = normalize(names)
	if len(names) == 0 {
		s.SelectAll()
		return
	}
	s.update(func() {
		s.selected = names
		s.all = false
	})
}

// SelectAll selects every namespace, including ones created later.
func (s *Selector) SelectAll() {
	s.update(func() {
		s.all = true
	})
}

// Toggle adds ns to an explicit selection or removes it. Toggling the last
// namespace off selects all.
func (s *Selector) Toggle(ns string) {
	cur := s.Selected()
	if cur.AllSelected {
		s.Select(ns)
		return
	}
	if i := slices.Index(cur.Namespaces, ns); i >= 0 {
		s.Select(slices.Delete(cur.Namespaces, i, i+1)...)
		return
	}
	s.Select(append(cur.Namespaces, ns)...)
}

// SetAvailable replaces the list of existing namespaces. While all
// namespaces are selected this changes the selection's concrete list.
func (s *Selector) SetAvailable(names []string) {
	names = normalize(names)
	s.update(func() {
		s.available = names
	})
}

// OnChange registers fn and returns a function that removes it.
func (s *Selector) OnChange(fn ChangeFunc) (cancel func()) {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *Selector) update(mutate func()) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	prev := s.selectionLocked()
	mutate()
	next := s.selectionLocked()
	s.mu.Unlock()

	if prev.Equal(next) {
		return
	}
	for _, fn := range s.snapshotListeners() {
		fn(prev, next)
	}
}

func (s *Selector) snapshotListeners() []ChangeFunc {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]ChangeFunc, len(ids))
	for i, id := range ids {
		out[i] = s.listeners[id]
	}
	return out
}

// normalize returns a sorted copy of names without blanks or duplicates.
func normalize(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
