package listing

import "slices"

// Selection is the set of ids picked for bulk operations, independent of paging.
// Ids keep the order in which they were selected.
type Selection struct {
	active bool
	ids    []string
	set    map[string]struct{}

	// restore holds the selection seen before the last select-all, so that a
	// second select-all over the same visible ids puts it back.
	restore []string
	visible []string
}

// NewSelection returns an empty, inactive selection.
func NewSelection() *Selection {
	return &Selection{set: make(map[string]struct{})}
}

// Active reports whether selection mode is on.
func (s *Selection) Active() bool { return s.active }

// SetActive turns selection mode on or off. Leaving selection mode clears the set.
func (s *Selection) SetActive(active bool) {
	s.active = active
	if !active {
		s.Clear()
	}
}

// Toggle adds or removes id and reports whether it is now selected.
func (s *Selection) Toggle(id string) bool {
	s.forgetRestore()
	if _, ok := s.set[id]; ok {
		s.remove(id)
		return false
	}
	s.add(id)
	return true
}

// ToggleAll selects every visible id, or, when all of them are already
// selected, undoes the previous select-all (or deselects them if there was none).
func (s *Selection) ToggleAll(visible []string) {
	if len(visible) == 0 {
		return
	}
	if s.allSelected(visible) {
		if s.restore != nil && slices.Equal(s.visible, visible) {
			prev := s.restore
			s.Clear()
			for _, id := range prev {
				s.add(id)
			}
			return
		}
		for _, id := range visible {
			s.remove(id)
		}
		s.forgetRestore()
		return
	}

	prev := slices.Clone(s.ids)
	for _, id := range visible {
		s.add(id)
	}
	s.restore = prev
	s.visible = slices.Clone(visible)
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	_, ok := s.set[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int { return len(s.ids) }

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string { return slices.Clone(s.ids) }

// Remove drops the given ids.
func (s *Selection) Remove(ids ...string) {
	s.forgetRestore()
	for _, id := range ids {
		s.remove(id)
	}
}

// Retain drops every selected id that is not in keep.
func (s *Selection) Retain(keep map[string]struct{}) {
	for _, id := range slices.Clone(s.ids) {
		if _, ok := keep[id]; !ok {
			s.remove(id)
			s.forgetRestore()
		}
	}
}

// Clear empties the set without leaving selection mode.
func (s *Selection) Clear() {
	s.ids = nil
	s.set = make(map[string]struct{})
	s.forgetRestore()
}

func (s *Selection) allSelected(ids []string) bool {
	for _, id := range ids {
		if _, ok := s.set[id]; !ok {
			return false
		}
	}
	return true
}

func (s *Selection) add(id string) {
	if _, ok := s.set[id]; ok {
		return
	}
	s.set[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *Selection) remove(id string) {
	if _, ok := s.set[id]; !ok {
		return
	}
	delete(s.set, id)
	s.ids = slices.DeleteFunc(s.ids, func(v string) bool { return v == id })
}

func (s *Selection) forgetRestore() {
	s.restore = nil
	s.visible = nil
}
