package tui

import (
	"bytes"
	"context"
	"path/filepath"

	"rehabinv-cli/internal/editstore"
	"rehabinv-cli/internal/export"
	"rehabinv-cli/internal/model"
	"rehabinv-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// Gateway I/O runs in these commands; results come back to Update as messages
// and are applied to the edit store there.

type itemsLoadedMsg struct {
	items []model.Item
	err   error
}

type saveDoneMsg struct {
	batch *editstore.SaveBatch
	err   error
}

type addDoneMsg struct {
	item model.Item
	err  error
}

type deleteDoneMsg struct {
	id   string
	name string
	err  error
}

type searchDebounceMsg struct{ seq int }

type exportDoneMsg struct {
	path  string
	count int
	err   error
}

type copyDoneMsg struct {
	count int
	err   error
}

func (m appModel) loadCmd() tea.Cmd {
	es, parent := m.es, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, opTimeout)
		defer cancel()
		items, err := es.Fetch(ctx)
		return itemsLoadedMsg{items: items, err: err}
	}
}

func (m appModel) saveCmd(b *editstore.SaveBatch) tea.Cmd {
	gw, parent := m.es.Gateway(), m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, opTimeout)
		defer cancel()
		return saveDoneMsg{batch: b, err: b.Persist(ctx, gw)}
	}
}

func (m appModel) addCmd(draft model.ItemDraft) tea.Cmd {
	gw, parent := m.es.Gateway(), m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, opTimeout)
		defer cancel()
		it, err := gw.AddItem(ctx, draft)
		if err != nil {
			return addDoneMsg{err: &editstore.PersistenceError{Op: "add", Err: err}}
		}
		return addDoneMsg{item: it}
	}
}

func (m appModel) deleteCmd(it model.Item) tea.Cmd {
	gw, parent := m.es.Gateway(), m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, opTimeout)
		defer cancel()
		if err := gw.DeleteItem(ctx, it.ID); err != nil {
			return deleteDoneMsg{id: it.ID, name: it.Name, err: &editstore.PersistenceError{Op: "delete", ID: it.ID, Err: err}}
		}
		return deleteDoneMsg{id: it.ID, name: it.Name}
	}
}

// exportCmd writes the working items (unsaved edits included) to a timestamped
// file in the export directory.
func (m appModel) exportCmd(items []model.Item) tea.Cmd {
	dir, now := m.exportDir, m.now()
	return func() tea.Msg {
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, items); err != nil {
			return exportDoneMsg{err: err}
		}
		path := filepath.Join(dir, export.Filename(now))
		if err := store.WriteFileAtomic(path, buf.Bytes()); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: path, count: len(items)}
	}
}

func copyCmd(items []model.Item) tea.Cmd {
	return func() tea.Msg {
		s, err := export.CSV(items)
		if err != nil {
			return copyDoneMsg{err: err}
		}
		return copyDoneMsg{count: len(items), err: writeClipboard(s)}
	}
}
