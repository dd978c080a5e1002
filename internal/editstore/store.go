// Package editstore holds the editable copy of the inventory: a working set
// tracked against the last-saved baseline, the dirty-id set and a bounded undo log.
//
// A Store is not safe for concurrent mutation. One goroutine (the TUI's Update
// loop, or a CLI command) owns it; gateway I/O may run elsewhere through the
// split save API (PendingSave / SaveBatch.Persist / CommitSave).
package editstore

import (
	"context"
	"strings"
	"time"

	"rehabinv-cli/internal/inventory"
	"rehabinv-cli/internal/model"

	"go.uber.org/zap"
)

// UndoLimit is the maximum number of history entries retained.
const UndoLimit = 50

const defaultSaveConcurrency = 8

// Gateway is the persistence boundary. Implementations: local sqlite (store),
// REST client (apiclient) and mongo (mongostore).
type Gateway interface {
	GetAll(ctx context.Context) ([]model.Item, error)
	AddItem(ctx context.Context, draft model.ItemDraft) (model.Item, error)
	UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (model.Item, error)
	DeleteItem(ctx context.Context, id string) error
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source used to stamp UpdatedAt and history entries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSaveConcurrency bounds the number of in-flight updates during a save.
func WithSaveConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.saveConcurrency = n
		}
	}
}

type Store struct {
	gw              Gateway
	log             *zap.Logger
	now             func() time.Time
	saveConcurrency int

	working  []model.Item
	index    map[string]int
	baseline map[string]model.Item
	dirty    map[string]struct{}
	undo     []model.HistoryEntry

	loaded bool
	closed bool
	// gen changes on every Load; a save batch taken before a Load cannot
	// commit into the reloaded state.
	gen uint64

	subs   map[int]func(Snapshot)
	nextID int
}

func New(gw Gateway, opts ...Option) *Store {
	s := &Store{
		gw:              gw,
		log:             zap.NewNop(),
		now:             time.Now,
		saveConcurrency: defaultSaveConcurrency,
		index:           map[string]int{},
		baseline:        map[string]model.Item{},
		dirty:           map[string]struct{}{},
		subs:            map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Gateway() Gateway { return s.gw }

// Load replaces working and baseline with items and clears dirty and undo state.
// It is ignored after Close.
func (s *Store) Load(items []model.Item) {
	if s.closed {
		s.log.Debug("load ignored: store closed")
		return
	}
	s.working = model.CloneItems(items)
	s.reindex()
	s.baseline = make(map[string]model.Item, len(items))
	for _, it := range s.working {
		s.baseline[it.ID] = it
	}
	s.dirty = map[string]struct{}{}
	s.undo = nil
	s.loaded = true
	s.gen++
	s.log.Debug("loaded", zap.Int("items", len(items)))
	s.notify()
}

// Fetch reads every item from the gateway without touching the store. It is
// safe to call off the owning goroutine; pair it with Load.
func (s *Store) Fetch(ctx context.Context) ([]model.Item, error) {
	items, err := s.gw.GetAll(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	return items, nil
}

// Reload fetches from the gateway and loads the result.
func (s *Store) Reload(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	items, err := s.Fetch(ctx)
	if err != nil {
		return err
	}
	s.Load(items)
	return nil
}

// Mutate sets the value of id, clamped to the item type's range. It reports
// whether anything changed: unknown ids and values equal to the current one are no-ops.
func (s *Store) Mutate(id string, newValue int) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	it := s.working[i]
	v := inventory.Clamp(newValue, it.Type)
	if v == it.Value {
		return false
	}
	now := s.now()
	s.pushUndo(model.HistoryEntry{ItemID: id, PreviousValue: it.Value, NewValue: v, Timestamp: now})
	it.Value = v
	it.UpdatedAt = now
	s.working[i] = it
	s.recompute(id)
	s.notify()
	return true
}

// Step adds delta to the current value of id (clamped). See Mutate.
func (s *Store) Step(id string, delta int) bool {
	it, ok := s.Item(id)
	if !ok {
		return false
	}
	return s.Mutate(id, it.Value+delta)
}

func (s *Store) pushUndo(e model.HistoryEntry) {
	s.undo = append(s.undo, e)
	if over := len(s.undo) - UndoLimit; over > 0 {
		s.undo = append([]model.HistoryEntry(nil), s.undo[over:]...)
	}
}

// Undo reverts the most recent mutation across all items. Entries for items that
// no longer exist are dropped. It returns the entry it reverted.
func (s *Store) Undo() (model.HistoryEntry, bool) {
	for len(s.undo) > 0 {
		last := s.undo[len(s.undo)-1]
		s.undo = s.undo[:len(s.undo)-1]
		i, ok := s.index[last.ItemID]
		if !ok {
			continue
		}
		it := s.working[i]
		it.Value = last.PreviousValue
		it.UpdatedAt = s.now()
		s.working[i] = it
		s.recompute(last.ItemID)
		s.notify()
		return last, true
	}
	return model.HistoryEntry{}, false
}

// Discard reverts every item to its baseline and clears the undo log.
func (s *Store) Discard() {
	for i, it := range s.working {
		if b, ok := s.baseline[it.ID]; ok {
			s.working[i] = b
		}
	}
	s.dirty = map[string]struct{}{}
	s.undo = nil
	s.notify()
}

// AddItem validates and creates a new item through the gateway. The created
// item joins working and baseline and is not dirty.
func (s *Store) AddItem(ctx context.Context, name string, t model.ItemType, value int, notes string) (model.Item, error) {
	if s.closed {
		return model.Item{}, ErrClosed
	}
	draft, err := s.PrepareAdd(name, t, value, notes)
	if err != nil {
		return model.Item{}, err
	}
	created, err := s.gw.AddItem(ctx, draft)
	if err != nil {
		return model.Item{}, &PersistenceError{Op: "add", Err: err}
	}
	s.InsertSaved(created)
	s.log.Info("item added", zap.String("id", created.ID), zap.String("name", created.Name))
	return created, nil
}

// PrepareAdd validates a new item against the working set and builds the draft
// handed to the gateway. Nothing is sent on error.
func (s *Store) PrepareAdd(name string, t model.ItemType, value int, notes string) (model.ItemDraft, error) {
	if err := inventory.ValidateName(name, s.working, ""); err != nil {
		return model.ItemDraft{}, err
	}
	if err := inventory.ValidateValue(value, t); err != nil {
		return model.ItemDraft{}, err
	}
	return model.ItemDraft{
		Name:      strings.TrimSpace(name),
		Type:      t,
		Value:     value,
		Notes:     strings.TrimSpace(notes),
		UpdatedAt: s.now(),
	}, nil
}

// InsertSaved appends an item the gateway has already persisted.
func (s *Store) InsertSaved(it model.Item) {
	if s.closed {
		return
	}
	if i, ok := s.index[it.ID]; ok {
		s.working[i] = it
	} else {
		s.working = append(s.working, it)
		s.index[it.ID] = len(s.working) - 1
	}
	s.baseline[it.ID] = it
	s.recompute(it.ID)
	s.notify()
}

// DeleteItem removes id through the gateway and then from every part of the
// store, including its undo entries. Unknown ids are a no-op.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.index[id]; !ok {
		return nil
	}
	if err := s.gw.DeleteItem(ctx, id); err != nil {
		return &PersistenceError{Op: "delete", ID: id, Err: err}
	}
	s.RemoveDeleted(id)
	s.log.Info("item deleted", zap.String("id", id))
	return nil
}

// RemoveDeleted drops id locally after the gateway confirmed the delete.
func (s *Store) RemoveDeleted(id string) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	s.working = append(s.working[:i:i], s.working[i+1:]...)
	s.reindex()
	delete(s.baseline, id)
	delete(s.dirty, id)
	kept := s.undo[:0:0]
	for _, e := range s.undo {
		if e.ItemID != id {
			kept = append(kept, e)
		}
	}
	s.undo = kept
	s.notify()
}

// Close tears the store down. Late loads and save commits are ignored afterwards.
func (s *Store) Close() {
	s.closed = true
	s.subs = map[int]func(Snapshot){}
}

func (s *Store) Closed() bool { return s.closed }

// Subscribe registers fn to receive a snapshot after every state change.
// The returned func unregisters it.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

func (s *Store) notify() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range s.subs {
		fn(snap)
	}
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.working))
	for i, it := range s.working {
		s.index[it.ID] = i
	}
}

// recompute re-establishes: id is dirty iff its working value differs from the baseline value.
func (s *Store) recompute(id string) {
	i, ok := s.index[id]
	if !ok {
		delete(s.dirty, id)
		return
	}
	b, ok := s.baseline[id]
	if !ok || b.Value != s.working[i].Value {
		s.dirty[id] = struct{}{}
		return
	}
	delete(s.dirty, id)
}

func (s *Store) Item(id string) (model.Item, bool) {
	i, ok := s.index[id]
	if !ok {
		return model.Item{}, false
	}
	return s.working[i], true
}

// Baseline returns the last-saved version of id.
func (s *Store) Baseline(id string) (model.Item, bool) {
	b, ok := s.baseline[id]
	return b, ok
}

func (s *Store) Items() []model.Item { return model.CloneItems(s.working) }

func (s *Store) IsDirty(id string) bool {
	_, ok := s.dirty[id]
	return ok
}

func (s *Store) DirtyCount() int { return len(s.dirty) }

func (s *Store) CanUndo() bool { return len(s.undo) > 0 }

func (s *Store) UndoDepth() int { return len(s.undo) }

func (s *Store) Loaded() bool { return s.loaded }
