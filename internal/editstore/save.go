package editstore

import (
	"context"
	"time"

	"rehabinv-cli/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PendingUpdate is the value persisted for one dirty item.
type PendingUpdate struct {
	ID        string
	Value     int
	UpdatedAt time.Time
}

// SaveBatch is a frozen copy of the dirty set taken by PendingSave.
// Persist may run on any goroutine; CommitSave must run on the store's owner.
type SaveBatch struct {
	Updates []PendingUpdate

	gen       uint64
	limit     int
	persisted bool
}

func (b *SaveBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Updates)
}

// PendingSave snapshots the dirty items in working order. It returns nil when
// there is nothing to save.
func (s *Store) PendingSave() *SaveBatch {
	if len(s.dirty) == 0 || s.closed {
		return nil
	}
	b := &SaveBatch{gen: s.gen, limit: s.saveConcurrency}
	for _, it := range s.working {
		if _, ok := s.dirty[it.ID]; !ok {
			continue
		}
		b.Updates = append(b.Updates, PendingUpdate{ID: it.ID, Value: it.Value, UpdatedAt: it.UpdatedAt})
	}
	return b
}

// Persist sends every update concurrently and waits for all of them. Any
// failure yields a *SaveError listing each rejected id; the batch is then
// not committable.
func (b *SaveBatch) Persist(ctx context.Context, gw Gateway) error {
	if b.Len() == 0 {
		return nil
	}
	errs := make([]error, len(b.Updates))
	var g errgroup.Group
	if b.limit > 0 {
		g.SetLimit(b.limit)
	}
	for i, u := range b.Updates {
		g.Go(func() error {
			v, at := u.Value, u.UpdatedAt
			_, err := gw.UpdateItem(ctx, u.ID, model.ItemPatch{Value: &v, UpdatedAt: &at})
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	var failures []*PersistenceError
	for i, err := range errs {
		if err != nil {
			failures = append(failures, &PersistenceError{Op: "update", ID: b.Updates[i].ID, Err: err})
		}
	}
	if len(failures) > 0 {
		return &SaveError{Attempted: len(b.Updates), Failures: failures}
	}
	b.persisted = true
	return nil
}

// CommitSave moves the persisted values into the baseline. Items edited again
// while the batch was in flight stay dirty. It reports false when the batch
// was not persisted, or the store was closed or reloaded in the meantime.
func (s *Store) CommitSave(b *SaveBatch) bool {
	if b == nil || !b.persisted || s.closed || b.gen != s.gen {
		return false
	}
	for _, u := range b.Updates {
		i, ok := s.index[u.ID]
		if !ok {
			continue
		}
		base := s.baseline[u.ID]
		if base.ID == "" {
			base = s.working[i]
		}
		base.Value = u.Value
		base.UpdatedAt = u.UpdatedAt
		s.baseline[u.ID] = base
		s.recompute(u.ID)
	}
	s.log.Info("saved", zap.Int("items", len(b.Updates)), zap.Int("still_dirty", len(s.dirty)))
	s.notify()
	return true
}

// Save persists every dirty item. On any failure nothing is committed and the
// aggregate *SaveError is returned. The undo log is kept either way.
func (s *Store) Save(ctx context.Context) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	b := s.PendingSave()
	if b.Len() == 0 {
		return 0, nil
	}
	if err := b.Persist(ctx, s.gw); err != nil {
		s.log.Warn("save failed", zap.Error(err))
		return 0, err
	}
	s.CommitSave(b)
	return b.Len(), nil
}
