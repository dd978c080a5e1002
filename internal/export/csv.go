// Package export renders the inventory as CSV.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"rehabinv-cli/internal/model"
)

// EmptyMessage is written instead of a table when there is nothing to export.
const EmptyMessage = "No data to export"

var header = []string{"ID", "Item Name", "Type", "Value", "Notes", "Updated At"}

// WriteCSV writes items with a header row. Fields containing commas, quotes or
// newlines are quoted and embedded quotes doubled. Rows end in \n.
func WriteCSV(w io.Writer, items []model.Item) error {
	if len(items) == 0 {
		_, err := io.WriteString(w, EmptyMessage)
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, it := range items {
		row := []string{
			it.ID,
			it.Name,
			it.Type.Label(),
			strconv.Itoa(it.Value),
			it.Notes,
			it.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func CSV(items []model.Item) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, items); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Filename returns rehabinv-inventory_YYYY-MM-DD_HH-MM-SS.csv for now in UTC.
func Filename(now time.Time) string {
	return fmt.Sprintf("rehabinv-inventory_%s.csv", now.UTC().Format("2006-01-02_15-04-05"))
}
