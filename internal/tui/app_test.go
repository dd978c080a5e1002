package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"rehabinv-cli/internal/editstore"
	"rehabinv-cli/internal/model"
	"rehabinv-cli/internal/store"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type memGateway struct {
	mu      sync.Mutex
	items   []model.Item
	adds    int
	updates int
	deletes []string
}

func (g *memGateway) GetAll(context.Context) ([]model.Item, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return model.CloneItems(g.items), nil
}

func (g *memGateway) AddItem(_ context.Context, d model.ItemDraft) (model.Item, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.adds++
	it := model.Item{ID: fmt.Sprintf("new-%d", g.adds), Name: d.Name, Type: d.Type, Value: d.Value, Notes: d.Notes, UpdatedAt: d.UpdatedAt}
	g.items = append(g.items, it)
	return it, nil
}

func (g *memGateway) UpdateItem(_ context.Context, id string, p model.ItemPatch) (model.Item, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates++
	for i, it := range g.items {
		if it.ID == id {
			g.items[i] = p.Apply(it)
			return g.items[i], nil
		}
	}
	return model.Item{}, model.ErrNotFound
}

func (g *memGateway) DeleteItem(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletes = append(g.deletes, id)
	for i, it := range g.items {
		if it.ID == id {
			g.items = append(g.items[:i], g.items[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

type memState struct {
	loaded *store.TUIState
	saved  *store.TUIState
}

func (s *memState) LoadTUIState() (*store.TUIState, error) { return s.loaded, nil }

func (s *memState) SaveTUIState(st *store.TUIState) error {
	s.saved = st
	return nil
}

func seedItems() []model.Item {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []model.Item{
		{ID: "a", Name: "Gauze Pads", Type: model.ItemTypeQuantity, Value: 4, UpdatedAt: at},
		{ID: "b", Name: "Lotion", Type: model.ItemTypePercentage, Value: 40, UpdatedAt: at},
		{ID: "c", Name: "Tape", Type: model.ItemTypeQuantity, Value: 0, UpdatedAt: at},
	}
}

func newTestModel(t *testing.T, items []model.Item, state StateStore) (appModel, *memGateway) {
	t.Helper()
	gw := &memGateway{items: model.CloneItems(items)}
	es := editstore.New(gw)
	m := newAppModel(context.Background(), Options{Store: es, Source: "local test.sqlite", State: state})
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = send(t, m, itemsLoadedMsg{items: model.CloneItems(items)})
	return m, gw
}

func send(t *testing.T, m appModel, msg tea.Msg) appModel {
	t.Helper()
	next, _ := sendCmd(t, m, msg)
	return next
}

func sendCmd(t *testing.T, m appModel, msg tea.Msg) (appModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	am, ok := next.(appModel)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return am, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// ioMsg runs an I/O command (optionally batched with a spinner tick) and
// returns the first message that is not a spinner tick.
func ioMsg(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			if got := c(); got != nil {
				if _, tick := got.(spinner.TickMsg); !tick {
					return got
				}
			}
		}
		t.Fatalf("batch produced no I/O message")
	}
	return msg
}

func lastToast(m appModel) string {
	if len(m.toasts) == 0 {
		return ""
	}
	return m.toasts[len(m.toasts)-1].text
}

func mustWorking(t *testing.T, m appModel, id string) model.Item {
	t.Helper()
	it, ok := m.es.Item(id)
	if !ok {
		t.Fatalf("item %q missing", id)
	}
	return it
}

func TestApp_LoadRendersHeaderAndRows(t *testing.T) {
	m, _ := newTestModel(t, seedItems(), nil)

	if m.loading || len(m.visible) != 3 {
		t.Fatalf("expected loaded with 3 rows, loading=%v visible=%d", m.loading, len(m.visible))
	}
	v := m.View()
	for _, want := range []string{"Rehab Inventory", "local test.sqlite", "3 items", "1 out", "Gauze Pads", "Out of Stock", "40%"} {
		if !strings.Contains(v, want) {
			t.Fatalf("view missing %q:\n%s", want, v)
		}
	}
	if got := len(strings.Split(v, "\n")); got != 30 {
		t.Fatalf("expected view to fill 30 lines, got %d", got)
	}
}

func TestApp_StepMarksDirtyAndSaves(t *testing.T) {
	m, gw := newTestModel(t, seedItems(), nil)

	if _, cmd := sendCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlS}); cmd != nil {
		t.Fatalf("save while clean should be a no-op")
	}

	m = send(t, m, runes("+"))
	if got := mustWorking(t, m, "a").Value; got != 5 {
		t.Fatalf("expected 5 after +, got %d", got)
	}
	if !strings.Contains(m.View(), "1 change unsaved") {
		t.Fatalf("expected save bar:\n%s", m.View())
	}

	m, cmd := sendCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.saving {
		t.Fatalf("expected saving state")
	}
	if _, again := sendCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlS}); again != nil {
		t.Fatalf("second save while saving should be a no-op")
	}
	done, ok := ioMsg(t, cmd).(saveDoneMsg)
	if !ok || done.err != nil {
		t.Fatalf("unexpected save result: %#v", done)
	}
	m = send(t, m, done)
	if m.saving || m.es.DirtyCount() != 0 {
		t.Fatalf("expected clean after save, saving=%v dirty=%d", m.saving, m.es.DirtyCount())
	}
	if lastToast(m) != "Saved 1 change" {
		t.Fatalf("unexpected toast %q", lastToast(m))
	}
	if gw.updates != 1 {
		t.Fatalf("expected one gateway update, got %d", gw.updates)
	}
	if strings.Contains(m.View(), "unsaved") {
		t.Fatalf("save bar should be hidden when clean")
	}
}

func TestApp_UndoAndDiscard(t *testing.T) {
	m, _ := newTestModel(t, seedItems(), nil)

	m = send(t, m, runes("u"))
	if lastToast(m) != "Nothing to undo" {
		t.Fatalf("unexpected toast %q", lastToast(m))
	}

	m = send(t, m, runes("+"))
	m = send(t, m, runes("+"))
	m = send(t, m, runes("u"))
	if got := mustWorking(t, m, "a").Value; got != 5 {
		t.Fatalf("expected 5 after undo, got %d", got)
	}

	m = send(t, m, runes("D"))
	if m.modal != modalConfirm || m.confirm != confirmDiscard || m.confirmFocus != confirmFocusCancel {
		t.Fatalf("expected discard confirm focused on cancel")
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.modal != modalNone || m.es.DirtyCount() != 1 {
		t.Fatalf("enter on cancel should keep edits")
	}
	m = send(t, m, runes("D"))
	m = send(t, m, runes("y"))
	if m.es.DirtyCount() != 0 || mustWorking(t, m, "a").Value != 4 {
		t.Fatalf("expected discard to restore baseline")
	}
}

func TestApp_PercentageKeys(t *testing.T) {
	m, _ := newTestModel(t, seedItems(), nil)

	m = send(t, m, runes("j"))
	if it, _ := m.selected(); it.ID != "b" {
		t.Fatalf("expected Lotion selected, got %+v", it)
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyShiftRight})
	if got := mustWorking(t, m, "b").Value; got != 45 {
		t.Fatalf("expected 45, got %d", got)
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyHome})
	if got := mustWorking(t, m, "b").Value; got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnd})
	if got := mustWorking(t, m, "b").Value; got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyShiftRight})
	if got := mustWorking(t, m, "b").Value; got != 100 {
		t.Fatalf("expected clamp at 100, got %d", got)
	}
}

func TestApp_TypedValueClampsAndEscReverts(t *testing.T) {
	m, _ := newTestModel(t, seedItems(), nil)
	m = send(t, m, runes("j"))

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.editing || m.editInput.Value() != "40" {
		t.Fatalf("expected inline edit seeded with 40, got editing=%v %q", m.editing, m.editInput.Value())
	}
	m.editInput.SetValue("150")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.editing || mustWorking(t, m, "b").Value != 100 {
		t.Fatalf("expected 150 clamped to 100")
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.editInput.SetValue("7")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.editing || mustWorking(t, m, "b").Value != 100 {
		t.Fatalf("esc should leave the value untouched")
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.editInput.SetValue("abc")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if mustWorking(t, m, "b").Value != 100 || !strings.Contains(lastToast(m), "not a number") {
		t.Fatalf("expected parse error toast, got %q", lastToast(m))
	}
}

func TestApp_SearchDebounceIgnoresStaleTicks(t *testing.T) {
	m, _ := newTestModel(t, seedItems(), nil)

	m = send(t, m, runes("/"))
	if !m.searching {
		t.Fatalf("expected search mode")
	}
	m = send(t, m, runes("l"))
	stale := m.searchSeq
	m = send(t, m, runes("o"))
	if m.search.Value() != "lo" {
		t.Fatalf("unexpected search input %q", m.search.Value())
	}

	m = send(t, m, searchDebounceMsg{seq: stale})
	if len(m.visible) != 3 {
		t.Fatalf("stale debounce should not filter, got %d rows", len(m.visible))
	}
	m = send(t, m, searchDebounceMsg{seq: m.searchSeq})
	if len(m.visible) != 1 || m.visible[0].ID != "b" {
		t.Fatalf("expected only Lotion, got %+v", m.visible)
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.searching || m.query.Search != "" || len(m.visible) != 3 {
		t.Fatalf("esc should clear the search")
	}

	m = send(t, m, runes("s"))
	if len(m.visible) != 1 || m.visible[0].ID != "c" {
		t.Fatalf("expected critical filter to show Tape, got %+v", m.visible)
	}
	m = send(t, m, runes("r"))
	if len(m.visible) != 3 {
		t.Fatalf("reset should show every item")
	}
}

func TestApp_AddModal(t *testing.T) {
	m, gw := newTestModel(t, seedItems(), nil)

	m = send(t, m, runes("a"))
	if m.modal != modalAdd {
		t.Fatalf("expected add modal")
	}
	m.add.name.SetValue("  gauze pads ")
	m, cmd := sendCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.add.errField != "name" || !strings.Contains(m.add.err, "already exists") {
		t.Fatalf("expected inline duplicate error, got err=%q field=%q", m.add.err, m.add.errField)
	}
	if gw.adds != 0 {
		t.Fatalf("gateway must not be called on validation errors")
	}
	if !strings.Contains(m.View(), "already exists") {
		t.Fatalf("expected error in modal view:\n%s", m.View())
	}

	m.add.name.SetValue("Hand Cream")
	m.add.toggleType()
	m.add.value.SetValue("101")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.add.errField != "value" {
		t.Fatalf("expected value error, got %q", m.add.err)
	}

	m.add.value.SetValue("80")
	m, cmd = sendCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	done, ok := ioMsg(t, cmd).(addDoneMsg)
	if !ok || done.err != nil {
		t.Fatalf("unexpected add result: %#v", done)
	}
	m = send(t, m, done)
	if m.modal != modalNone || len(m.visible) != 4 || m.pending != 0 {
		t.Fatalf("expected modal closed with 4 rows, modal=%v rows=%d", m.modal, len(m.visible))
	}
	if it, _ := m.selected(); it.Name != "Hand Cream" || it.Type != model.ItemTypePercentage {
		t.Fatalf("expected new item selected, got %+v", it)
	}
	if m.es.DirtyCount() != 0 {
		t.Fatalf("a created item is not dirty")
	}
}

func TestApp_DeleteConfirm(t *testing.T) {
	m, gw := newTestModel(t, seedItems(), nil)
	m = send(t, m, runes("G"))

	m = send(t, m, runes("x"))
	if m.modal != modalConfirm || m.confirm != confirmDelete || m.confirmID != "c" {
		t.Fatalf("expected delete confirm for Tape")
	}
	if !strings.Contains(m.View(), "Delete Item?") {
		t.Fatalf("expected confirm view:\n%s", m.View())
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.modal != modalNone || len(gw.deletes) != 0 {
		t.Fatalf("esc should cancel")
	}

	m = send(t, m, runes("x"))
	m, cmd := sendCmd(t, m, runes("y"))
	done, ok := ioMsg(t, cmd).(deleteDoneMsg)
	if !ok || done.err != nil {
		t.Fatalf("unexpected delete result: %#v", done)
	}
	m = send(t, m, done)
	if len(m.visible) != 2 || lastToast(m) != "Deleted Tape" {
		t.Fatalf("expected Tape removed, rows=%d toast=%q", len(m.visible), lastToast(m))
	}
	if it, _ := m.selected(); it.ID != "b" {
		t.Fatalf("cursor should clamp to the last row, got %+v", it)
	}
}

func TestApp_QuitConfirmsWhenDirty(t *testing.T) {
	m, _ := newTestModel(t, seedItems(), nil)

	if _, cmd := sendCmd(t, m, runes("q")); cmd == nil {
		t.Fatalf("expected quit when clean")
	}
	m = send(t, m, runes("+"))
	m, cmd := sendCmd(t, m, runes("q"))
	if cmd != nil || m.modal != modalConfirm || m.confirm != confirmQuit {
		t.Fatalf("expected quit confirmation when dirty")
	}
}

func TestApp_WindowedListFollowsCursor(t *testing.T) {
	items := make([]model.Item, 200)
	for i := range items {
		items[i] = model.Item{ID: fmt.Sprintf("id-%03d", i), Name: fmt.Sprintf("Item %03d", i), Type: model.ItemTypeQuantity, Value: 5}
	}
	m, _ := newTestModel(t, items, nil)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	if m.cursor != m.listHeight() {
		t.Fatalf("expected cursor at %d, got %d", m.listHeight(), m.cursor)
	}
	v := m.View()
	if !strings.Contains(v, fmt.Sprintf("Item %03d", m.cursor)) {
		t.Fatalf("selected row must be visible:\n%s", v)
	}

	m = send(t, m, runes("G"))
	v = m.View()
	if !strings.Contains(v, "Item 199") || strings.Contains(v, "Item 000") || strings.Contains(v, "Item 100") {
		t.Fatalf("expected only the tail of the list:\n%s", v)
	}
	if got := len(strings.Split(v, "\n")); got != 30 {
		t.Fatalf("expected 30 lines, got %d", got)
	}
}

func TestApp_CopyAsCSV(t *testing.T) {
	var got string
	prev := writeClipboard
	writeClipboard = func(s string) error {
		got = s
		return nil
	}
	t.Cleanup(func() { writeClipboard = prev })

	m, _ := newTestModel(t, seedItems(), nil)
	m, cmd := sendCmd(t, m, runes("y"))
	done, ok := ioMsg(t, cmd).(copyDoneMsg)
	if !ok || done.err != nil || done.count != 3 {
		t.Fatalf("unexpected copy result: %#v", done)
	}
	m = send(t, m, done)
	if !strings.HasPrefix(got, "ID,Item Name,Type,Value,Notes,Updated At\n") || !strings.Contains(got, "b,Lotion,Percentage,40,") {
		t.Fatalf("unexpected clipboard:\n%s", got)
	}
	if lastToast(m) != "Copied 3 items as CSV" {
		t.Fatalf("unexpected toast %q", lastToast(m))
	}
}

func TestApp_ExportWritesWorkingItems(t *testing.T) {
	m, _ := newTestModel(t, seedItems(), nil)
	m.exportDir = t.TempDir()
	m.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	m = send(t, m, runes("+"))
	_, cmd := sendCmd(t, m, runes("e"))
	done, ok := ioMsg(t, cmd).(exportDoneMsg)
	if !ok || done.err != nil || done.count != 3 {
		t.Fatalf("unexpected export result: %#v", done)
	}
	if !strings.HasSuffix(done.path, "rehabinv-inventory_2026-03-04_05-06-07.csv") {
		t.Fatalf("unexpected path %q", done.path)
	}
}

func TestApp_RestoresAndPersistsState(t *testing.T) {
	st := &memState{loaded: &store.TUIState{Version: 1, Search: "lot", Status: "all", SelectedItemID: "b"}}
	m, _ := newTestModel(t, seedItems(), st)

	if m.query.Search != "lot" || len(m.visible) != 1 {
		t.Fatalf("expected restored search, got %q with %d rows", m.query.Search, len(m.visible))
	}
	if it, _ := m.selected(); it.ID != "b" {
		t.Fatalf("expected restored selection, got %+v", it)
	}

	m = send(t, m, runes("r"))
	m = send(t, m, runes("s"))
	m.persistState()
	if st.saved == nil || st.saved.Search != "" || st.saved.Status != "critical" {
		t.Fatalf("unexpected saved state: %+v", st.saved)
	}
}

func TestApp_LateResultsAfterCloseAreIgnored(t *testing.T) {
	m, _ := newTestModel(t, seedItems(), nil)
	m = send(t, m, runes("+"))
	m, cmd := sendCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	done := ioMsg(t, cmd)

	m.es.Close()
	m = send(t, m, done)
	if m.saving {
		t.Fatalf("saving flag should clear")
	}
	if len(m.toasts) != 0 {
		t.Fatalf("no toast expected for a save that was not committed, got %q", lastToast(m))
	}
}
