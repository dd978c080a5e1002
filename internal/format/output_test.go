package format

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

type pairs [][2]string

func (p pairs) Header() []string { return []string{"Name", "Value"} }

func (p pairs) Rows() [][]string {
	out := make([][]string, 0, len(p))
	for _, kv := range p {
		out = append(out, []string{kv[0], kv[1]})
	}
	return out
}

func TestWrite_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": 1}, "", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != "{\"data\":1}\n" {
		t.Fatalf("unexpected json: %q", buf.String())
	}

	buf.Reset()
	if err := Write(&buf, map[string]any{"data": 1}, "json", true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"data\": 1\n") {
		t.Fatalf("expected indented json, got %q", buf.String())
	}
}

func TestWrite_Table(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, pairs{{"Gauze", "3"}, {"Hand Cream", "50%"}}, "table", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Name", "Value", "Gauze", "Hand Cream", "50%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestWrite_Errors(t *testing.T) {
	t.Parallel()

	if err := Write(&bytes.Buffer{}, map[string]any{}, "table", false); !errors.Is(err, ErrNotTabular) {
		t.Fatalf("expected ErrNotTabular, got %v", err)
	}
	if err := Write(&bytes.Buffer{}, 1, "edn", false); err == nil {
		t.Fatalf("expected unknown format error")
	}
}
