package windowing

import "testing"

func TestWindow_VirtualizesLargeLists(t *testing.T) {
	t.Parallel()

	c := Config{RowHeight: 120, Buffer: 3, Threshold: 50}
	r := c.Window(200, 0, 600)
	if !r.Virtualized {
		t.Fatalf("expected virtualized range")
	}
	if r.Start != 0 {
		t.Fatalf("start: got %d want 0", r.Start)
	}
	// ceil(600/120)+3 = 8, exclusive end.
	if r.End != 8 {
		t.Fatalf("end: got %d want 8", r.End)
	}
	if r.End > 12 {
		t.Fatalf("range should not reach beyond ~11, got end=%d", r.End)
	}
	if r.TotalHeight != 200*120 {
		t.Fatalf("total height: %d", r.TotalHeight)
	}
	if r.OffsetY != 0 {
		t.Fatalf("offset: %d", r.OffsetY)
	}
}

func TestWindow_ScrolledMiddle(t *testing.T) {
	t.Parallel()

	c := Config{RowHeight: 120, Buffer: 3, Threshold: 50}
	r := c.Window(200, 1200, 600)
	// floor(1200/120)-3 = 7; ceil(1800/120)+3 = 18
	if r.Start != 7 || r.End != 18 {
		t.Fatalf("got [%d,%d) want [7,18)", r.Start, r.End)
	}
	if r.OffsetY != 7*120 {
		t.Fatalf("offset: got %d", r.OffsetY)
	}
}

func TestWindow_ClampsAtEnd(t *testing.T) {
	t.Parallel()

	c := DefaultConfig(10)
	r := c.Window(60, 10_000, 100)
	if r.End != 60 {
		t.Fatalf("end should clamp to count, got %d", r.End)
	}
	if r.Start > r.End {
		t.Fatalf("start past end: %+v", r)
	}
}

func TestWindow_BelowThresholdRendersEverything(t *testing.T) {
	t.Parallel()

	c := Config{RowHeight: 120, Buffer: 3, Threshold: 50}
	for _, off := range []int{0, 600, 99999} {
		r := c.Window(30, off, 600)
		if r.Virtualized || r.Start != 0 || r.End != 30 || r.OffsetY != 0 {
			t.Fatalf("offset %d: expected full range, got %+v", off, r)
		}
	}
}

func TestWindow_Empty(t *testing.T) {
	t.Parallel()

	if r := DefaultConfig(3).Window(0, 0, 10); r.Len() != 0 {
		t.Fatalf("expected empty range, got %+v", r)
	}
}

func TestScrollTo_KeepsRowVisible(t *testing.T) {
	t.Parallel()

	c := DefaultConfig(3)
	// Row 10 spans lines [30,33); container 12 lines.
	if got := c.ScrollTo(0, 10, 100, 12); got != 21 {
		t.Fatalf("scroll down: got %d want 21", got)
	}
	if got := c.ScrollTo(60, 5, 100, 12); got != 15 {
		t.Fatalf("scroll up: got %d want 15", got)
	}
	if got := c.ScrollTo(15, 6, 100, 12); got != 15 {
		t.Fatalf("already visible: got %d want 15", got)
	}
	if got := c.ScrollTo(0, 3, 4, 100); got != 0 {
		t.Fatalf("short list: got %d want 0", got)
	}
}

func TestSlice(t *testing.T) {
	t.Parallel()

	xs := []int{0, 1, 2, 3, 4}
	got := Slice(xs, Range{Start: 1, End: 3})
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("slice: %v", got)
	}
	if got := Slice(xs, Range{Start: 7, End: 9}); got != nil {
		t.Fatalf("out of range slice: %v", got)
	}
}
