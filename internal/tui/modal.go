package tui

import (
	"strconv"
	"strings"

	"rehabinv-cli/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

type addField int

const (
	addFieldName addField = iota
	addFieldType
	addFieldValue
	addFieldNotes
	addFieldCount
)

// addForm is the add-item modal: name, type toggle, initial value, notes.
type addForm struct {
	name  textinput.Model
	value textinput.Model
	notes textinput.Model
	typ   model.ItemType
	focus addField

	err      string
	errField string
}

func newAddForm() addForm {
	name := textinput.New()
	name.Placeholder = "e.g. Gauze Pads"
	name.CharLimit = 120
	name.Prompt = ""

	value := textinput.New()
	value.Placeholder = "0"
	value.CharLimit = 6
	value.Prompt = ""

	notes := textinput.New()
	notes.Placeholder = "optional"
	notes.CharLimit = 500
	notes.Prompt = ""

	return addForm{name: name, value: value, notes: notes, typ: model.ItemTypeQuantity}
}

func (f *addForm) reset() tea.Cmd {
	*f = newAddForm()
	return f.setFocus(addFieldName)
}

func (f *addForm) setFocus(field addField) tea.Cmd {
	f.focus = field
	f.name.Blur()
	f.value.Blur()
	f.notes.Blur()
	switch field {
	case addFieldName:
		return f.name.Focus()
	case addFieldValue:
		return f.value.Focus()
	case addFieldNotes:
		return f.notes.Focus()
	}
	return nil
}

func (f *addForm) cycleFocus(delta int) tea.Cmd {
	next := (int(f.focus) + delta + int(addFieldCount)) % int(addFieldCount)
	return f.setFocus(addField(next))
}

func (f *addForm) toggleType() {
	if f.typ == model.ItemTypeQuantity {
		f.typ = model.ItemTypePercentage
	} else {
		f.typ = model.ItemTypeQuantity
	}
}

// parsedValue returns the typed value; an empty field means 0.
func (f addForm) parsedValue() (int, bool) {
	v := strings.TrimSpace(f.value.Value())
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func (f *addForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case addFieldName:
		f.name, cmd = f.name.Update(msg)
	case addFieldValue:
		f.value, cmd = f.value.Update(msg)
	case addFieldNotes:
		f.notes, cmd = f.notes.Update(msg)
	}
	return cmd
}

func modalWidth(width int) int {
	w := width - 8
	if w > 64 {
		w = 64
	}
	if w < 24 {
		w = 24
	}
	return w
}

func modalBodyWidth(width int) int {
	return modalWidth(width) - 4
}

// renderModalBox draws a titled bordered box centered in width x height.
func renderModalBox(width, height int, title, content string) string {
	w := modalWidth(width)
	header := lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render(title)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1).
		Width(w - 2).
		Render(header + "\n\n" + content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func renderInputLine(bodyW int, inputView string, focused bool) string {
	if bodyW < 10 {
		bodyW = 10
	}
	// Inputs always render as one visual line.
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")

	bg := colorInputBg
	if focused {
		bg = colorSelectedBg
	}
	line := lipgloss.PlaceHorizontal(
		bodyW,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(bg),
	)
	if xansi.StringWidth(line) > bodyW {
		line = xansi.Cut(line, 0, bodyW) + "\x1b[0m"
	}
	return line
}

func (m appModel) renderAddModal() string {
	f := m.add
	bodyW := modalBodyWidth(m.width)
	label := func(text string, field addField, errField string) string {
		st := styleChrome()
		if f.focus == field {
			st = st.Foreground(colorAccent).Bold(true)
		}
		out := st.Render(text)
		if f.err != "" && f.errField == errField {
			out += "  " + styleError().Render(f.err)
		}
		return out
	}

	qty, pct := "( ) Quantity", "( ) Percentage"
	if f.typ == model.ItemTypePercentage {
		pct = "(•) Percentage"
	} else {
		qty = "(•) Quantity"
	}
	typeLine := qty + "   " + pct
	if f.focus == addFieldType {
		typeLine = lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Render(typeLine)
	}

	rangeHint := styleMuted().Render("0 to " + strconv.Itoa(f.typ.Max()))
	lines := []string{
		label("Name", addFieldName, "name"),
		renderInputLine(bodyW, f.name.View(), f.focus == addFieldName),
		"",
		label("Type", addFieldType, "type"),
		typeLine,
		"",
		label("Initial value", addFieldValue, "value") + "  " + rangeHint,
		renderInputLine(bodyW, f.value.View(), f.focus == addFieldValue),
		"",
		label("Notes", addFieldNotes, "notes"),
		renderInputLine(bodyW, f.notes.View(), f.focus == addFieldNotes),
	}
	if f.err != "" && f.errField == "" {
		lines = append(lines, "", styleError().Render(f.err))
	}
	lines = append(lines, "", styleMuted().Width(bodyW).Render("tab: next field   space: toggle type   enter: add   esc: cancel"))
	return renderModalBox(m.width, m.height, "Add Item", strings.Join(lines, "\n"))
}

func (m appModel) renderConfirmModal(title, body, confirmLabel, cancelLabel string) string {
	btnBase := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	btnActive := btnBase.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true)

	confirm := btnBase.Render(confirmLabel)
	cancel := btnBase.Render(cancelLabel)
	if m.confirmFocus == confirmFocusConfirm {
		confirm = btnActive.Render(confirmLabel)
	} else {
		cancel = btnActive.Render(cancelLabel)
	}
	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, " ", cancel)

	bodyW := modalBodyWidth(m.width)
	helpLine := styleMuted().Width(bodyW).Render("tab: focus   enter: select   y/n   esc: cancel")
	content := strings.Join([]string{
		lipgloss.NewStyle().Width(bodyW).Render(body),
		"",
		controls,
		"",
		helpLine,
	}, "\n")
	return renderModalBox(m.width, m.height, title, content)
}

func (m appModel) renderHelpModal() string {
	return renderModalBox(m.width, m.height, "Help", m.helpRendered)
}
