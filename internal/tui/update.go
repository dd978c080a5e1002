package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"rehabinv-cli/internal/editstore"
	"rehabinv-cli/internal/export"
	"rehabinv-cli/internal/inventory"
	"rehabinv-cli/internal/model"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	if next.shared.version != next.seenVersion {
		next.refilter()
	}
	return next, cmd
}

func (m appModel) update(msg tea.Msg) (appModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.clampScroll()
		return m, nil

	case spinner.TickMsg:
		// The spinner only runs while something is in flight.
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case itemsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err.Error()
			m.log.Error("load failed", zap.Error(msg.err))
			return m, m.pushToast(toastError, "Failed to load inventory")
		}
		m.loadErr = ""
		m.es.Load(msg.items)
		return m, nil

	case saveDoneMsg:
		m.saving = false
		if msg.err != nil {
			m.log.Warn("save failed", zap.Error(msg.err))
			return m, m.pushToast(toastError, saveErrorText(msg.err))
		}
		if !m.es.CommitSave(msg.batch) {
			return m, nil
		}
		return m, m.pushToast(toastSuccess, "Saved "+plural(msg.batch.Len(), "change"))

	case addDoneMsg:
		m.pending--
		if msg.err != nil {
			m.log.Warn("add failed", zap.Error(msg.err))
			if m.modal == modalAdd {
				m.add.err, m.add.errField = "Failed to add item: "+errorCause(msg.err), ""
				return m, nil
			}
			return m, m.pushToast(toastError, "Failed to add item")
		}
		m.es.InsertSaved(msg.item)
		m.selectedID = msg.item.ID
		if m.modal == modalAdd {
			m.modal = modalNone
		}
		return m, m.pushToast(toastSuccess, "Added "+msg.item.Name)

	case deleteDoneMsg:
		m.pending--
		if msg.err != nil {
			m.log.Warn("delete failed", zap.Error(msg.err))
			return m, m.pushToast(toastError, "Failed to delete "+msg.name)
		}
		m.es.RemoveDeleted(msg.id)
		return m, m.pushToast(toastSuccess, "Deleted "+msg.name)

	case searchDebounceMsg:
		if msg.seq != m.searchSeq {
			return m, nil
		}
		m.query.Search = m.search.Value()
		m.refilter()
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			return m, m.pushToast(toastError, "Export failed: "+msg.err.Error())
		}
		return m, m.pushToast(toastSuccess, fmt.Sprintf("Exported %s to %s", plural(msg.count, "item"), msg.path))

	case copyDoneMsg:
		if msg.err != nil {
			return m, m.pushToast(toastError, "Copy failed: "+msg.err.Error())
		}
		return m, m.pushToast(toastSuccess, "Copied "+plural(msg.count, "item")+" as CSV")

	case toastExpiredMsg:
		m.dropToast(msg.id)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, m.updateInputs(msg)
}

// updateInputs forwards non-key messages (cursor blink) to the focused input.
func (m *appModel) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.modal == modalAdd:
		cmd = m.add.update(msg)
	case m.searching:
		m.search, cmd = m.search.Update(msg)
	case m.editing:
		m.editInput, cmd = m.editInput.Update(msg)
	}
	return cmd
}

func (m appModel) handleKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.modal {
	case modalAdd:
		return m.handleAddKey(msg)
	case modalConfirm:
		return m.handleConfirmKey(msg)
	case modalHelp:
		switch msg.String() {
		case "?", "esc", "q", "enter":
			m.modal = modalNone
		}
		return m, nil
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}
	if m.editing {
		return m.handleEditKey(msg)
	}
	return m.handleListKey(msg)
}

func (m appModel) handleListKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		if n := m.es.DirtyCount(); n > 0 {
			m.openConfirm(confirmQuit, "")
			return m, nil
		}
		return m, tea.Quit
	case key.Matches(msg, k.Up):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(msg, k.Down):
		m.moveCursor(1)
		return m, nil
	case key.Matches(msg, k.PageUp):
		m.moveCursor(-m.listHeight())
		return m, nil
	case key.Matches(msg, k.PageDown):
		m.moveCursor(m.listHeight())
		return m, nil
	case key.Matches(msg, k.Top):
		m.moveCursor(-len(m.visible))
		return m, nil
	case key.Matches(msg, k.Bottom):
		m.moveCursor(len(m.visible))
		return m, nil
	case key.Matches(msg, k.Help):
		m.openHelp()
		return m, nil
	case key.Matches(msg, k.Search):
		m.searching = true
		m.search.CursorEnd()
		return m, m.search.Focus()
	case key.Matches(msg, k.Status):
		m.query.Status = m.query.Status.Next()
		m.refilter()
		return m, nil
	case key.Matches(msg, k.Reset):
		m.query = inventory.Query{Status: inventory.StatusAll}
		m.search.SetValue("")
		m.searchSeq++
		m.refilter()
		return m, nil
	case key.Matches(msg, k.Undo):
		if _, ok := m.es.Undo(); !ok {
			return m, m.pushToast(toastInfo, "Nothing to undo")
		}
		return m, m.pushToast(toastInfo, "Undone last change")
	case key.Matches(msg, k.Save):
		return m.startSave()
	case key.Matches(msg, k.Discard):
		if m.es.DirtyCount() == 0 {
			return m, nil
		}
		m.openConfirm(confirmDiscard, "")
		return m, nil
	case key.Matches(msg, k.Reload):
		if m.loading {
			return m, nil
		}
		if m.es.DirtyCount() > 0 {
			m.openConfirm(confirmReload, "")
			return m, nil
		}
		return m.startReload()
	case key.Matches(msg, k.Add):
		if !m.es.Loaded() {
			return m, nil
		}
		m.modal = modalAdd
		return m, m.add.reset()
	case key.Matches(msg, k.Export):
		items := m.es.Items()
		if len(items) == 0 {
			return m, m.pushToast(toastInfo, export.EmptyMessage)
		}
		return m, m.exportCmd(items)
	case key.Matches(msg, k.Copy):
		items := m.es.Items()
		if len(items) == 0 {
			return m, m.pushToast(toastInfo, export.EmptyMessage)
		}
		return m, copyCmd(items)
	}

	it, ok := m.selected()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, k.Delete):
		m.openConfirm(confirmDelete, it.ID)
	case key.Matches(msg, k.Inc), key.Matches(msg, k.Right):
		m.es.Step(it.ID, 1)
	case key.Matches(msg, k.Dec), key.Matches(msg, k.Left):
		m.es.Step(it.ID, -1)
	case key.Matches(msg, k.BigRight):
		m.es.Step(it.ID, 5)
	case key.Matches(msg, k.BigLeft):
		m.es.Step(it.ID, -5)
	case key.Matches(msg, k.Min):
		m.es.Mutate(it.ID, 0)
	case key.Matches(msg, k.Max):
		if it.Type == model.ItemTypePercentage {
			m.es.Mutate(it.ID, it.Type.Max())
		}
	case key.Matches(msg, k.Type):
		m.editing = true
		m.editInput.SetValue(strconv.Itoa(it.Value))
		m.editInput.CursorEnd()
		return m, m.editInput.Focus()
	}
	return m, nil
}

// startSave snapshots the dirty set and persists it off the UI goroutine.
// It is a no-op while clean or while a save is already running.
func (m appModel) startSave() (appModel, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	b := m.es.PendingSave()
	if b == nil {
		return m, nil
	}
	m.saving = true
	return m, tea.Batch(m.saveCmd(b), m.spinner.Tick)
}

func (m appModel) startReload() (appModel, tea.Cmd) {
	m.loading = true
	return m, tea.Batch(m.loadCmd(), m.spinner.Tick)
}

func (m appModel) handleEditKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.editInput.Blur()
		return m, nil
	case "enter":
		m.editing = false
		m.editInput.Blur()
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		raw := strings.TrimSpace(m.editInput.Value())
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return m, m.pushToast(toastError, fmt.Sprintf("%q is not a number", raw))
		}
		m.es.Mutate(it.ID, inventory.ClampFloat(v, it.Type))
		return m, nil
	}
	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

func (m appModel) handleSearchKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.searchSeq++
		m.query.Search = ""
		m.refilter()
		return m, nil
	case "enter", "down":
		m.searching = false
		m.search.Blur()
		m.searchSeq++
		m.query.Search = m.search.Value()
		m.refilter()
		return m, nil
	}

	prev := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == prev {
		return m, cmd
	}
	m.searchSeq++
	seq := m.searchSeq
	debounce := tea.Tick(m.debounce, func(time.Time) tea.Msg { return searchDebounceMsg{seq: seq} })
	return m, tea.Batch(cmd, debounce)
}

func (m *appModel) openConfirm(action confirmAction, id string) {
	m.modal = modalConfirm
	m.confirm = action
	m.confirmID = id
	m.confirmFocus = confirmFocusCancel
	if action == confirmQuit {
		m.confirmFocus = confirmFocusConfirm
	}
}

func (m appModel) handleConfirmKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "left", "right", "h", "l":
		if m.confirmFocus == confirmFocusConfirm {
			m.confirmFocus = confirmFocusCancel
		} else {
			m.confirmFocus = confirmFocusConfirm
		}
		return m, nil
	case "esc", "n", "ctrl+g":
		m.modal = modalNone
		return m, nil
	case "y":
		return m.runConfirm()
	case "enter":
		if m.confirmFocus == confirmFocusConfirm {
			return m.runConfirm()
		}
		m.modal = modalNone
		return m, nil
	}
	return m, nil
}

func (m appModel) runConfirm() (appModel, tea.Cmd) {
	m.modal = modalNone
	switch m.confirm {
	case confirmDelete:
		it, ok := m.es.Item(m.confirmID)
		if !ok {
			return m, nil
		}
		m.pending++
		return m, tea.Batch(m.deleteCmd(it), m.spinner.Tick)
	case confirmDiscard:
		m.es.Discard()
		return m, m.pushToast(toastInfo, "Changes discarded")
	case confirmReload:
		return m.startReload()
	case confirmQuit:
		return m, tea.Quit
	}
	return m, nil
}

func (m appModel) handleAddKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+g":
		m.modal = modalNone
		return m, nil
	case "tab", "down":
		return m, m.add.cycleFocus(1)
	case "shift+tab", "up":
		return m, m.add.cycleFocus(-1)
	case "enter":
		return m.submitAdd()
	}
	if m.add.focus == addFieldType {
		switch msg.String() {
		case " ", "left", "right", "h", "l", "t":
			m.add.toggleType()
		}
		return m, nil
	}
	if m.add.errField != "" {
		m.add.err, m.add.errField = "", ""
	}
	return m, m.add.update(msg)
}

// submitAdd validates locally first; nothing reaches the gateway on a validation error.
func (m appModel) submitAdd() (appModel, tea.Cmd) {
	if m.pending > 0 {
		return m, nil
	}
	v, ok := m.add.parsedValue()
	if !ok {
		m.add.err, m.add.errField = "Value must be a whole number", "value"
		return m, nil
	}
	draft, err := m.es.PrepareAdd(m.add.name.Value(), m.add.typ, v, m.add.notes.Value())
	if err != nil {
		var ve *inventory.ValidationError
		if errors.As(err, &ve) {
			m.add.err, m.add.errField = sentence(ve.Error()), ve.Field
		} else {
			m.add.err, m.add.errField = sentence(err.Error()), ""
		}
		return m, nil
	}
	m.add.err, m.add.errField = "", ""
	m.pending++
	return m, tea.Batch(m.addCmd(draft), m.spinner.Tick)
}

func (m *appModel) openHelp() {
	m.modal = modalHelp
	w := modalBodyWidth(m.width)
	if m.helpRendered != "" && m.helpRenderedW == w {
		return
	}
	m.helpRendered = renderHelp(w)
	m.helpRenderedW = w
}

func saveErrorText(err error) string {
	var se *editstore.SaveError
	if errors.As(err, &se) {
		return fmt.Sprintf("Save failed for %d of %d items; nothing was saved", len(se.Failures), se.Attempted)
	}
	return "Save failed: " + err.Error()
}

// errorCause strips the persistence wrapper for display.
func errorCause(err error) string {
	var pe *editstore.PersistenceError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

func sentence(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
