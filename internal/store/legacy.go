package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"rehabinv-cli/internal/inventory"
	"rehabinv-cli/internal/model"
)

const metaLegacyImported = "legacy_json_imported"

// legacyItem is one entry of the inventory.json dump written by the browser
// build (a bare JSON array). Values may be fractional there.
type legacyItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Value     float64 `json:"value"`
	Notes     string  `json:"notes"`
	UpdatedAt string  `json:"updatedAt"`
}

// importLegacyOnce copies inventory.json into an empty database the first time
// the database is opened. The json file is left in place.
func (s Store) importLegacyOnce(ctx context.Context, db *sql.DB) error {
	var done string
	err := db.QueryRowContext(ctx, `SELECT v FROM state_meta WHERE k = ?`, metaLegacyImported).Scan(&done)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM items`).Scan(&n); err != nil {
		return err
	}

	var items []model.Item
	if n == 0 {
		b, err := os.ReadFile(s.legacyJSONPath())
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if len(b) > 0 {
			items, err = ParseItemsJSON(b)
			if err != nil {
				return fmt.Errorf("import %s: %w", legacyJSONFileName, err)
			}
		}
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for i, it := range items {
		if it.ID == "" {
			if it.ID, err = newItemID(ctx, tx); err != nil {
				return err
			}
		}
		if err := upsertItem(ctx, tx, it, int64(i)); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v) VALUES(?, ?)`, metaLegacyImported, fmt.Sprintf("%d", len(items))); err != nil {
		return err
	}
	return tx.Commit()
}

// ParseItemsJSON decodes a JSON array of items in the browser dump format.
// Entries without a name or a known type are skipped, as are repeated ids.
// Values are truncated and clamped. Ids may be empty.
func ParseItemsJSON(b []byte) ([]model.Item, error) {
	var raw []legacyItem
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, len(raw))
	seen := map[string]bool{}
	for _, r := range raw {
		t, ok := model.ParseItemType(strings.TrimSpace(r.Type))
		name := strings.TrimSpace(r.Name)
		id := strings.TrimSpace(r.ID)
		if !ok || name == "" || (id != "" && seen[id]) {
			continue
		}
		seen[id] = true
		updated, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(r.UpdatedAt))
		if err != nil {
			updated = time.Now().UTC()
		}
		out = append(out, model.Item{
			ID:        id,
			Name:      name,
			Type:      t,
			Value:     inventory.ClampFloat(r.Value, t),
			Notes:     strings.TrimSpace(r.Notes),
			UpdatedAt: updated.UTC(),
		})
	}
	return out, nil
}
