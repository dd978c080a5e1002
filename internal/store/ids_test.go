package store

import (
	"strings"
	"testing"
)

func TestNewRandomID_ItemIDs(t *testing.T) {
	id, err := newRandomID("item")
	if err != nil {
		t.Fatalf("newRandomID: %v", err)
	}
	if !strings.HasPrefix(id, "item-") {
		t.Fatalf("expected item prefix, got %q", id)
	}
	suffix := strings.TrimPrefix(id, "item-")
	if got, want := len(suffix), 8; got != want {
		t.Fatalf("expected item id suffix len %d, got %d (%q)", want, got, suffix)
	}
	if suffix != strings.ToLower(suffix) {
		t.Fatalf("expected lowercase suffix, got %q", suffix)
	}
}
