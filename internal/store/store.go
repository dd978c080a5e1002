// Package store is the local persistence gateway: a SQLite file in the data
// directory, plus a one-time import of the legacy inventory.json dump.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rehabinv-cli/internal/model"
)

const (
	sqliteFileName     = "inventory.sqlite"
	legacyJSONFileName = "inventory.json"
)

// ErrNotFound is returned when an id does not exist.
var ErrNotFound = model.ErrNotFound

type notFoundError struct {
	id string
}

func (e notFoundError) Error() string { return fmt.Sprintf("item not found: %s", e.id) }

func (e notFoundError) Is(target error) bool { return target == ErrNotFound }

func errNotFound(id string) error { return notFoundError{id: id} }

// Store opens the database per call; it holds no handles and is safe to copy
// and to use from several goroutines.
type Store struct {
	Dir string
}

// DefaultDir returns ~/.rehabinv.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".rehabinv"), nil
}

func (s Store) Ensure() error {
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("store: missing data dir")
	}
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string {
	return filepath.Join(s.Dir, sqliteFileName)
}

func (s Store) legacyJSONPath() string {
	return filepath.Join(s.Dir, legacyJSONFileName)
}

// Describe is shown in the TUI header connection indicator.
func (s Store) Describe() string {
	return "local " + s.sqlitePath()
}
