package docs

import (
	"strings"
	"testing"
)

func TestTopics(t *testing.T) {
	t.Parallel()

	got := strings.Join(Topics(), ",")
	if got != "export,keys,overview,server,storage" {
		t.Fatalf("unexpected topics: %s", got)
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	body, ok := Get(" KEYS ")
	if !ok || !strings.Contains(body, "ctrl+s") {
		t.Fatalf("expected keys topic, ok=%v", ok)
	}
	if _, ok := Get("missing"); ok {
		t.Fatalf("expected unknown topic")
	}
	if _, ok := Get(""); ok {
		t.Fatalf("expected empty topic to be unknown")
	}
}

func TestRender_PlainStyle(t *testing.T) {
	t.Parallel()

	out := Render("# Title\n\nSome *text*.", "notty", 40)
	if !strings.Contains(out, "Title") || !strings.Contains(out, "text") {
		t.Fatalf("unexpected render: %q", out)
	}
}
