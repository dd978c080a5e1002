package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rehabinv-cli/internal/editstore"
	"rehabinv-cli/internal/inventory"
	"rehabinv-cli/internal/model"
)

var _ editstore.Gateway = Store{}

func TestSQLiteStore_AddUpdateDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := Store{Dir: t.TempDir()}

	items, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll (empty): %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty store, got %d", len(items))
	}

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	a, err := s.AddItem(ctx, model.ItemDraft{Name: " Gauze ", Type: model.ItemTypeQuantity, Value: 12, UpdatedAt: now})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if a.Name != "Gauze" || a.ID == "" {
		t.Fatalf("unexpected item: %+v", a)
	}
	b, err := s.AddItem(ctx, model.ItemDraft{Name: "Crème", Type: model.ItemTypePercentage, Value: 40, Notes: "tube"})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if _, err := s.AddItem(ctx, model.ItemDraft{Name: "CREME", Type: model.ItemTypePercentage, Value: 1}); !errors.Is(err, inventory.ErrDuplicateName) {
		t.Fatalf("expected duplicate name, got %v", err)
	}

	v := 3
	later := now.Add(time.Hour)
	got, err := s.UpdateItem(ctx, a.ID, model.ItemPatch{Value: &v, UpdatedAt: &later})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if got.Value != 3 || !got.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected update result: %+v", got)
	}

	items, err = s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(items) != 2 || items[0].ID != a.ID || items[1].ID != b.ID {
		t.Fatalf("expected insertion order, got %+v", items)
	}
	if items[0].Value != 3 {
		t.Fatalf("update not persisted: %+v", items[0])
	}

	if err := s.DeleteItem(ctx, a.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if err := s.DeleteItem(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateItem(ctx, "item-missing", model.ItemPatch{Value: &v}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestSQLiteStore_ImportsLegacyJSONOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	legacy := `[
		{"id":"1700000000000-abc","name":"Gauze","type":"qty","value":2.7,"updatedAt":"2025-01-02T03:04:05.000Z"},
		{"id":"1700000000001-def","name":"Hand Cream","type":"pct","value":140,"notes":"pump","updatedAt":"2025-01-02T03:04:05.000Z"},
		{"id":"bad","name":"","type":"qty","value":1,"updatedAt":""}
	]`
	if err := os.WriteFile(filepath.Join(dir, legacyJSONFileName), []byte(legacy), 0o644); err != nil {
		t.Fatalf("write legacy: %v", err)
	}
	s := Store{Dir: dir}

	items, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 imported items, got %+v", items)
	}
	if items[0].Value != 2 || items[1].Value != 100 {
		t.Fatalf("expected truncated/clamped values, got %d and %d", items[0].Value, items[1].Value)
	}
	if items[1].Notes != "pump" {
		t.Fatalf("notes lost: %+v", items[1])
	}

	// Clearing must not re-trigger the import.
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	items, err = s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll after clear: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("legacy import ran twice: %+v", items)
	}
}

func TestSQLiteStore_ReplaceAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := Store{Dir: t.TempDir()}
	if _, err := s.AddItem(ctx, model.ItemDraft{Name: "Old", Type: model.ItemTypeQuantity, Value: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	next := []model.Item{
		{ID: "item-b", Name: "B", Type: model.ItemTypePercentage, Value: 500, UpdatedAt: now},
		{Name: "A", Type: model.ItemTypeQuantity, Value: 4, UpdatedAt: now},
	}
	if err := s.ReplaceAll(ctx, next); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	items, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(items) != 2 || items[0].ID != "item-b" || items[1].Name != "A" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].Value != 100 {
		t.Fatalf("expected clamp on replace, got %d", items[0].Value)
	}
	if items[1].ID == "" {
		t.Fatalf("expected id assigned")
	}
}

func TestSQLiteStore_DrivesEditStoreSave(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := Store{Dir: t.TempDir()}
	for _, name := range []string{"A", "B", "C", "D"} {
		if _, err := s.AddItem(ctx, model.ItemDraft{Name: name, Type: model.ItemTypeQuantity, Value: 5}); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
	}
	es := editstore.New(s)
	if err := es.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	for _, it := range es.Items() {
		es.Mutate(it.ID, 0)
	}
	if _, err := es.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	items, _ := s.GetAll(ctx)
	for _, it := range items {
		if it.Value != 0 {
			t.Fatalf("concurrent save lost an update: %+v", it)
		}
	}
}
