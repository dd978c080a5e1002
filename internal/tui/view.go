package tui

import (
	"fmt"
	"strconv"
	"strings"

	"rehabinv-cli/internal/inventory"
	"rehabinv-cli/internal/model"
	"rehabinv-cli/internal/windowing"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	colCursor  = 2
	colDirty   = 2
	colType    = 11
	colValue   = 8
	colStatus  = 13
	colUpdated = 16
	minNameCol = 12
)

func (m appModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	switch m.modal {
	case modalAdd:
		return m.renderAddModal()
	case modalConfirm:
		return m.viewConfirm()
	case modalHelp:
		return m.renderHelpModal()
	}

	parts := []string{
		m.viewHeader(),
		m.viewFilters(),
		m.viewColumns(),
		m.viewList(),
		m.viewSaveBar(),
		m.viewToasts(),
		m.help.ShortHelpView(m.keys.ShortHelp()),
	}
	return normalizePane(strings.Join(parts, "\n"), m.width, m.height)
}

func (m appModel) viewHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render("Rehab Inventory")

	dot := styleStatus(inventory.TierOK).Render("●")
	if m.loadErr != "" {
		dot = styleStatus(inventory.TierCritical).Render("●")
	}
	conn := dot + " " + styleChrome().Render(m.source)

	snap := m.shared.snap
	var critical, low int
	for _, it := range snap.Items {
		switch inventory.ClassifyItem(it) {
		case inventory.TierCritical:
			critical++
		case inventory.TierLow:
			low++
		}
	}
	counts := styleChrome().Render(fmt.Sprintf("%s · ", plural(len(snap.Items), "item"))) +
		styleStatus(inventory.TierCritical).Render(fmt.Sprintf("%d out", critical)) +
		styleChrome().Render(" · ") +
		styleStatus(inventory.TierLow).Render(fmt.Sprintf("%d low", low))

	if m.loading {
		counts = m.spinner.View() + " " + styleMuted().Render("Loading…")
	}
	return title + "  " + conn + "  " + counts
}

func (m appModel) viewFilters() string {
	var search string
	switch {
	case m.searching:
		search = m.search.View()
	case m.query.Search != "":
		search = styleChrome().Render("/ ") + m.query.Search
	default:
		search = styleMuted().Render("/ search")
	}
	status := styleChrome().Render("status: ")
	if m.query.Status == inventory.StatusAll {
		status += "all"
	} else {
		status += styleStatus(inventory.StatusTier(m.query.Status)).Render(inventory.StatusTier(m.query.Status).Label())
	}
	shown := styleMuted().Render(fmt.Sprintf("%d shown", len(m.visible)))
	return search + "   " + status + "   " + shown
}

func (m appModel) nameWidth() int {
	w := m.width - colCursor - colDirty - colType - colValue - colStatus - 4
	if m.showUpdated() {
		w -= colUpdated + 1
	}
	if w < minNameCol {
		w = minNameCol
	}
	return w
}

func (m appModel) showUpdated() bool {
	return m.width >= 80
}

func (m appModel) viewColumns() string {
	cols := []string{
		strings.Repeat(" ", colCursor+colDirty) + fitWidth("Name", m.nameWidth()),
		fitWidth("Type", colType),
		fitWidth("Value", colValue),
		fitWidth("Status", colStatus),
	}
	if m.showUpdated() {
		cols = append(cols, fitWidth("Updated", colUpdated))
	}
	return styleMuted().Render(strings.Join(cols, " "))
}

// viewList renders only the rows the windower selects, then cuts the buffer
// rows above the scroll position so exactly listHeight lines remain.
func (m appModel) viewList() string {
	h := m.listHeight()
	if len(m.visible) == 0 {
		msg := "No items match the current filters."
		switch {
		case m.loading:
			msg = "Loading inventory…"
		case m.loadErr != "":
			msg = "Could not load inventory: " + m.loadErr + " (ctrl+r to retry)"
		case len(m.shared.snap.Items) == 0:
			msg = "No items yet. Press a to add one."
		}
		return normalizePane(styleMuted().Render(msg), m.width, h)
	}

	rng := m.windowCfg.Window(len(m.visible), m.scroll, h)
	rows := windowing.Slice(m.visible, rng)
	lines := make([]string, 0, len(rows))
	for i, it := range rows {
		lines = append(lines, m.viewRow(it, rng.Start+i == m.cursor))
	}
	skip := m.scroll - rng.OffsetY
	if skip > 0 && skip < len(lines) {
		lines = lines[skip:]
	}
	return normalizePane(strings.Join(lines, "\n"), m.width, h)
}

func (m appModel) viewRow(it model.Item, selected bool) string {
	cursor := "  "
	if selected {
		cursor = lipgloss.NewStyle().Foreground(colorAccent).Render("▸ ")
	}
	dirty := "  "
	if m.shared.snap.IsDirty(it.ID) {
		dirty = lipgloss.NewStyle().Foreground(colorDirty).Render("● ")
	}

	value := fitWidth(displayValue(it), colValue)
	if selected && m.editing {
		value = fitWidth(lipgloss.NewStyle().Background(colorInputBg).Render(m.editInput.View()), colValue)
	}
	tier := inventory.ClassifyItem(it)

	name := it.Name
	if selected {
		name = lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Render(name)
	}
	cols := []string{
		cursor + dirty + fitWidth(name, m.nameWidth()),
		fitWidth(styleMuted().Render(it.Type.Label()), colType),
		value,
		fitWidth(styleStatus(tier).Render(tier.Label()), colStatus),
	}
	if m.showUpdated() {
		cols = append(cols, fitWidth(styleMuted().Render(humanize.RelTime(it.UpdatedAt, m.now(), "ago", "from now")), colUpdated))
	}
	return strings.Join(cols, " ")
}

func displayValue(it model.Item) string {
	if it.Type == model.ItemTypePercentage {
		return strconv.Itoa(it.Value) + "%"
	}
	return strconv.Itoa(it.Value)
}

// viewSaveBar is blank while there are no unsaved changes.
func (m appModel) viewSaveBar() string {
	n := m.shared.snap.DirtyCount()
	if m.saving {
		return m.spinner.View() + " Saving " + plural(n, "change") + "…"
	}
	if n == 0 {
		return ""
	}
	bar := lipgloss.NewStyle().Bold(true).Foreground(colorDirty).Render(fmt.Sprintf("%s unsaved", plural(n, "change")))
	hints := styleMuted().Render("  u undo · D discard · ctrl+s save")
	return bar + hints
}

func (m appModel) viewToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	t := m.toasts[len(m.toasts)-1]
	return styleToast(t.kind).Render(t.text)
}

func (m appModel) viewConfirm() string {
	switch m.confirm {
	case confirmDelete:
		name := m.confirmID
		if it, ok := m.es.Item(m.confirmID); ok {
			name = it.Name
		}
		return m.renderConfirmModal("Delete Item?", fmt.Sprintf("Are you sure you want to delete %q? This action cannot be undone.", name), "Delete", "Cancel")
	case confirmDiscard:
		return m.renderConfirmModal("Discard Changes?", fmt.Sprintf("Revert %s to the last saved values? The undo history is cleared.", plural(m.es.DirtyCount(), "unsaved change")), "Discard", "Keep editing")
	case confirmReload:
		return m.renderConfirmModal("Reload?", fmt.Sprintf("Reloading drops %s.", plural(m.es.DirtyCount(), "unsaved change")), "Reload", "Cancel")
	default:
		return m.renderConfirmModal("Quit?", fmt.Sprintf("You have %s. Quit without saving?", plural(m.es.DirtyCount(), "unsaved change")), "Quit", "Cancel")
	}
}
