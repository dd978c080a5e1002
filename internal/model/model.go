package model

import (
	"errors"
	"time"
)

// ErrNotFound is matched (errors.Is) by every gateway's missing-id error.
var ErrNotFound = errors.New("item not found")

type ItemType string

const (
	ItemTypeQuantity   ItemType = "qty"
	ItemTypePercentage ItemType = "pct"
)

// ParseItemType accepts the wire values plus the long spellings used on the command line.
func ParseItemType(s string) (ItemType, bool) {
	switch s {
	case "qty", "quantity", "Quantity":
		return ItemTypeQuantity, true
	case "pct", "percentage", "Percentage", "%":
		return ItemTypePercentage, true
	default:
		return "", false
	}
}

func (t ItemType) Valid() bool {
	return t == ItemTypeQuantity || t == ItemTypePercentage
}

// Label is the human name shown in the UI and the CSV export.
func (t ItemType) Label() string {
	if t == ItemTypePercentage {
		return "Percentage"
	}
	return "Quantity"
}

// Max is the inclusive upper bound for values of this type.
func (t ItemType) Max() int {
	if t == ItemTypePercentage {
		return 100
	}
	return 9999
}

type Item struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Type      ItemType  `json:"type" bson:"type"`
	Value     int       `json:"value" bson:"value"`
	Notes     string    `json:"notes,omitempty" bson:"notes,omitempty"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// ItemDraft is an item that has not been assigned an id yet.
type ItemDraft struct {
	Name      string    `json:"name"`
	Type      ItemType  `json:"type"`
	Value     int       `json:"value"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ItemPatch carries the fields of a partial update; nil fields are left alone.
type ItemPatch struct {
	Value     *int       `json:"value,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Apply returns a copy of it with the patch fields applied.
func (p ItemPatch) Apply(it Item) Item {
	if p.Value != nil {
		it.Value = *p.Value
	}
	if p.Notes != nil {
		it.Notes = *p.Notes
	}
	if p.UpdatedAt != nil {
		it.UpdatedAt = *p.UpdatedAt
	}
	return it
}

type HistoryEntry struct {
	ItemID        string    `json:"itemId"`
	PreviousValue int       `json:"previousValue"`
	NewValue      int       `json:"newValue"`
	Timestamp     time.Time `json:"timestamp"`
}

// CloneItems returns a shallow copy of xs (Items hold no pointers).
func CloneItems(xs []Item) []Item {
	out := make([]Item, len(xs))
	copy(out, xs)
	return out
}
