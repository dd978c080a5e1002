package tui

import (
	"context"
	"time"

	"rehabinv-cli/internal/editstore"
	"rehabinv-cli/internal/inventory"
	"rehabinv-cli/internal/model"
	"rehabinv-cli/internal/store"
	"rehabinv-cli/internal/windowing"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const (
	defaultSearchDebounce = 200 * time.Millisecond
	opTimeout             = 30 * time.Second

	// Lines above and below the list: header, filters, column header / save bar, toasts, help.
	chromeTop    = 3
	chromeBottom = 3
)

type modal int

const (
	modalNone modal = iota
	modalAdd
	modalConfirm
	modalHelp
)

type confirmAction int

const (
	confirmDelete confirmAction = iota
	confirmDiscard
	confirmQuit
	confirmReload
)

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

// storeView is shared by every copy of the model; the edit store subscription
// writes into it and Update compares versions to know when to refilter.
type storeView struct {
	snap    editstore.Snapshot
	version int
}

type appModel struct {
	ctx    context.Context
	es     *editstore.Store
	source string
	state  StateStore
	log    *zap.Logger
	now    func() time.Time

	exportDir string
	debounce  time.Duration

	width  int
	height int

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	shared      *storeView
	seenVersion int

	loading bool
	loadErr string
	saving  bool
	pending int // add/delete requests in flight

	query       inventory.Query
	search      textinput.Model
	searching   bool
	searchSeq   int
	visible     []model.Item
	cursor      int
	scroll      int
	selectedID  string
	windowCfg   windowing.Config

	editing   bool
	editInput textinput.Model

	modal         modal
	confirm       confirmAction
	confirmID     string
	confirmFocus  confirmModalFocus
	add           addForm
	helpRendered  string
	helpRenderedW int

	toasts   []toast
	toastSeq int
}

func newAppModel(ctx context.Context, opts Options) appModel {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := opts.SearchDebounce
	if debounce <= 0 {
		debounce = defaultSearchDebounce
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search by name"
	search.CharLimit = 120

	edit := textinput.New()
	edit.Prompt = ""
	edit.CharLimit = 8

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := appModel{
		ctx:       ctx,
		es:        opts.Store,
		source:    opts.Source,
		state:     opts.State,
		log:       logger,
		now:       time.Now,
		exportDir: opts.ExportDir,
		debounce:  debounce,
		keys:      defaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		shared:    &storeView{},
		loading:   true,
		query:     inventory.Query{Status: inventory.StatusAll},
		search:    search,
		editInput: edit,
		windowCfg: windowing.DefaultConfig(1),
		add:       newAddForm(),
	}

	m.shared.snap = m.es.Snapshot()
	shared := m.shared
	m.es.Subscribe(func(s editstore.Snapshot) {
		shared.snap = s
		shared.version++
	})

	m.restoreState()
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

// restoreState applies the filters and cursor from the previous session.
func (m *appModel) restoreState() {
	if m.state == nil {
		return
	}
	st, err := m.state.LoadTUIState()
	if err != nil || st == nil {
		if err != nil {
			m.log.Warn("failed to load tui state", zap.Error(err))
		}
		return
	}
	if sf, err := inventory.ParseStatusFilter(st.Status); err == nil {
		m.query.Status = sf
	}
	m.query.Search = st.Search
	m.search.SetValue(st.Search)
	m.selectedID = st.SelectedItemID
}

func (m appModel) persistState() {
	if m.state == nil {
		return
	}
	st := &store.TUIState{
		Version:        1,
		Search:         m.query.Search,
		Status:         string(m.query.Status),
		SelectedItemID: m.selectedID,
	}
	if err := m.state.SaveTUIState(st); err != nil {
		m.log.Warn("failed to save tui state", zap.Error(err))
	}
}

func (m appModel) busy() bool {
	return m.loading || m.saving || m.pending > 0
}

func (m appModel) listHeight() int {
	h := m.height - chromeTop - chromeBottom
	if h < 1 {
		return 1
	}
	return h
}

func (m appModel) selected() (model.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return model.Item{}, false
	}
	return m.visible[m.cursor], true
}

// refilter recomputes the visible rows and keeps the cursor on the same item
// when it is still visible.
func (m *appModel) refilter() {
	m.seenVersion = m.shared.version
	m.visible = m.query.Apply(m.es.Items())

	idx := -1
	if m.selectedID != "" {
		for i, it := range m.visible {
			if it.ID == m.selectedID {
				idx = i
				break
			}
		}
	}
	switch {
	case idx >= 0:
		m.cursor = idx
	case m.cursor >= len(m.visible):
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if it, ok := m.selected(); ok {
		m.selectedID = it.ID
	}
	m.clampScroll()
}

func (m *appModel) moveCursor(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	m.selectedID = m.visible[m.cursor].ID
	m.clampScroll()
}

func (m *appModel) clampScroll() {
	m.scroll = m.windowCfg.ScrollTo(m.scroll, m.cursor, len(m.visible), m.listHeight())
}
