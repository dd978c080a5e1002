package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)

const (
	toastTTL      = 3 * time.Second
	toastErrorTTL = 6 * time.Second
	maxToasts     = 3
)

type toast struct {
	id   int
	kind toastKind
	text string
}

type toastExpiredMsg struct{ id int }

// pushToast shows text and schedules its removal. Only the newest few are kept.
func (m *appModel) pushToast(kind toastKind, text string) tea.Cmd {
	m.toastSeq++
	id := m.toastSeq
	m.toasts = append(m.toasts, toast{id: id, kind: kind, text: text})
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
	ttl := toastTTL
	if kind == toastError {
		ttl = toastErrorTTL
	}
	return tea.Tick(ttl, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
}

func (m *appModel) dropToast(id int) {
	out := m.toasts[:0]
	for _, t := range m.toasts {
		if t.id != id {
			out = append(out, t)
		}
	}
	m.toasts = out
}
