// Package tui is the interactive inventory editor.
package tui

import (
	"context"
	"time"

	"rehabinv-cli/internal/editstore"
	"rehabinv-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// StateStore persists filters and the cursor between sessions.
type StateStore interface {
	LoadTUIState() (*store.TUIState, error)
	SaveTUIState(st *store.TUIState) error
}

type Options struct {
	Store *editstore.Store
	// Source labels the backend in the header (e.g. "local ~/.rehabinv/inventory.sqlite").
	Source string
	State  StateStore
	Logger *zap.Logger

	SearchDebounce time.Duration
	// ExportDir receives CSV files written with the export key.
	ExportDir string
	Theme     string
}

// Run blocks until the user quits. Unsaved edits are dropped; the store is
// closed on return so late gateway results are ignored.
func Run(ctx context.Context, opts Options) error {
	applyThemePreference(opts.Theme)
	applyColorProfilePreference()

	m := newAppModel(ctx, opts)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	opts.Store.Close()
	if fm, ok := final.(appModel); ok {
		fm.persistState()
	}
	return err
}
