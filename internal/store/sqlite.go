package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"rehabinv-cli/internal/inventory"
	"rehabinv-cli/internal/model"

	_ "modernc.org/sqlite"
)

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite". busy_timeout must hold on every
	// pooled connection and write transactions take the lock up front, since
	// saves update several rows from parallel goroutines.
	dsn := "file:" + s.sqlitePath() + "?_pragma=busy_timeout(5000)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.importLegacyOnce(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS state_meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			name_fold TEXT NOT NULL,
			type TEXT NOT NULL,
			value INTEGER NOT NULL,
			notes TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			position INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_items_name_fold ON items(name_fold);`,
		`CREATE INDEX IF NOT EXISTS idx_items_position ON items(position);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertItem(ctx context.Context, x execer, it model.Item, position int64) error {
	raw, err := json.Marshal(it)
	if err != nil {
		return err
	}
	_, err = x.ExecContext(ctx, `INSERT OR REPLACE INTO items(
		id, name, name_fold, type, value, notes, json, updated_at_unixms, position
	) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Name, inventory.Fold(strings.TrimSpace(it.Name)), string(it.Type), it.Value, it.Notes,
		string(raw), it.UpdatedAt.UTC().UnixMilli(), position,
	)
	return err
}

// GetAll returns every item in insertion order.
func (s Store) GetAll(ctx context.Context) ([]model.Item, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	out, err := readJSONRows[model.Item](ctx, db, `SELECT json FROM items ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Item{}
	}
	return out, nil
}

func (s Store) Get(ctx context.Context, id string) (model.Item, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Item{}, err
	}
	defer db.Close()
	return getItem(ctx, db, id)
}

func getItem(ctx context.Context, q queryer, id string) (model.Item, error) {
	var js string
	err := q.QueryRowContext(ctx, `SELECT json FROM items WHERE id = ?`, id).Scan(&js)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, errNotFound(id)
	}
	if err != nil {
		return model.Item{}, err
	}
	var it model.Item
	if err := json.Unmarshal([]byte(js), &it); err != nil {
		return model.Item{}, err
	}
	return it, nil
}

// AddItem assigns an id and appends the item. Names are unique after folding.
func (s Store) AddItem(ctx context.Context, draft model.ItemDraft) (model.Item, error) {
	if !draft.Type.Valid() {
		return model.Item{}, inventory.ValidateValue(draft.Value, draft.Type)
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Item{}, err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return model.Item{}, err
	}
	defer func() { _ = tx.Rollback() }()

	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return model.Item{}, &inventory.ValidationError{Field: "name", Err: inventory.ErrNameRequired}
	}
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM items WHERE name_fold = ? LIMIT 1`, inventory.Fold(name)).Scan(&one)
	if err == nil {
		return model.Item{}, &inventory.ValidationError{Field: "name", Err: inventory.ErrDuplicateName}
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, err
	}

	id, err := newItemID(ctx, tx)
	if err != nil {
		return model.Item{}, err
	}
	var pos int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM items`).Scan(&pos); err != nil {
		return model.Item{}, err
	}
	updated := draft.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	it := model.Item{
		ID:        id,
		Name:      name,
		Type:      draft.Type,
		Value:     inventory.Clamp(draft.Value, draft.Type),
		Notes:     strings.TrimSpace(draft.Notes),
		UpdatedAt: updated.UTC(),
	}
	if err := upsertItem(ctx, tx, it, pos); err != nil {
		return model.Item{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Item{}, err
	}
	return it, nil
}

// UpdateItem applies patch to id (last write wins).
func (s Store) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (model.Item, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Item{}, err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return model.Item{}, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := getItem(ctx, tx, id)
	if err != nil {
		return model.Item{}, err
	}
	var pos int64
	if err := tx.QueryRowContext(ctx, `SELECT position FROM items WHERE id = ?`, id).Scan(&pos); err != nil {
		return model.Item{}, err
	}
	next := patch.Apply(cur)
	next.Value = inventory.Clamp(next.Value, next.Type)
	next.UpdatedAt = next.UpdatedAt.UTC()
	if err := upsertItem(ctx, tx, next, pos); err != nil {
		return model.Item{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Item{}, err
	}
	return next, nil
}

func (s Store) DeleteItem(ctx context.Context, id string) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNotFound(id)
	}
	return nil
}

// ReplaceAll overwrites the whole collection with items, preserving their order.
func (s Store) ReplaceAll(ctx context.Context, items []model.Item) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return err
	}
	for i, it := range items {
		if strings.TrimSpace(it.ID) == "" {
			id, err := newItemID(ctx, tx)
			if err != nil {
				return err
			}
			it.ID = id
		}
		it.Value = inventory.Clamp(it.Value, it.Type)
		if err := upsertItem(ctx, tx, it, int64(i)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpsertAll overwrites items whose id exists and appends the rest (assigning
// ids where missing). Returns the stored items in input order.
func (s Store) UpsertAll(ctx context.Context, items []model.Item) ([]model.Item, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var next int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM items`).Scan(&next); err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if !it.Type.Valid() {
			return nil, inventory.ValidateValue(it.Value, it.Type)
		}
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" {
			return nil, &inventory.ValidationError{Field: "name", Err: inventory.ErrNameRequired}
		}
		it.Value = inventory.Clamp(it.Value, it.Type)
		if it.UpdatedAt.IsZero() {
			it.UpdatedAt = time.Now().UTC()
		}
		pos := next
		if strings.TrimSpace(it.ID) == "" {
			id, err := newItemID(ctx, tx)
			if err != nil {
				return nil, err
			}
			it.ID = id
			next++
		} else {
			err := tx.QueryRowContext(ctx, `SELECT position FROM items WHERE id = ?`, it.ID).Scan(&pos)
			if errors.Is(err, sql.ErrNoRows) {
				pos = next
				next++
			} else if err != nil {
				return nil, err
			}
		}
		if err := upsertItem(ctx, tx, it, pos); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// Clear removes every item. The legacy import does not run again afterwards.
func (s Store) Clear(ctx context.Context) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `DELETE FROM items`)
	return err
}

func readJSONRows[T any](ctx context.Context, db *sql.DB, query string) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
