package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Tabular is implemented by payloads that can render as a table.
type Tabular interface {
	Header() []string
	Rows() [][]string
}

var ErrNotTabular = errors.New("output is not tabular; use --format json")

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - table (payloads implementing Tabular)
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "table":
		t, ok := v.(Tabular)
		if !ok {
			return ErrNotTabular
		}
		return WriteTable(w, t)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteTable renders t with a rounded border. Colors follow the global lipgloss
// profile, so piped output stays plain.
func WriteTable(w io.Writer, t Tabular) error {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(t.Header()...).
		Rows(t.Rows()...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}
