package editstore

import (
	"sort"

	"rehabinv-cli/internal/model"
)

// Snapshot is an immutable copy of the store's observable state.
type Snapshot struct {
	Items     []model.Item
	Dirty     map[string]bool
	UndoDepth int
	Loaded    bool
}

func (s *Store) Snapshot() Snapshot {
	dirty := make(map[string]bool, len(s.dirty))
	for id := range s.dirty {
		dirty[id] = true
	}
	return Snapshot{
		Items:     model.CloneItems(s.working),
		Dirty:     dirty,
		UndoDepth: len(s.undo),
		Loaded:    s.loaded,
	}
}

func (s Snapshot) IsDirty(id string) bool { return s.Dirty[id] }

func (s Snapshot) DirtyCount() int { return len(s.Dirty) }

func (s Snapshot) CanUndo() bool { return s.UndoDepth > 0 }

// DirtyIDs returns the dirty ids sorted.
func (s Snapshot) DirtyIDs() []string {
	out := make([]string, 0, len(s.Dirty))
	for id := range s.Dirty {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
