// Package windowing computes which slice of a long list intersects the visible viewport.
//
// All quantities share one unit (pixels in a browser, terminal lines in the TUI).
package windowing

const (
	DefaultBuffer    = 3
	DefaultThreshold = 50
)

type Config struct {
	// RowHeight is the fixed height of one row. Values < 1 are treated as 1.
	RowHeight int
	// Buffer rows are rendered above and below the viewport to reduce pop-in while scrolling.
	Buffer int
	// Lists shorter than Threshold are rendered in full.
	Threshold int
}

func DefaultConfig(rowHeight int) Config {
	return Config{RowHeight: rowHeight, Buffer: DefaultBuffer, Threshold: DefaultThreshold}
}

// Range is a half-open index range [Start, End) plus the geometry needed to place it
// inside a full-height scroll track.
type Range struct {
	Start       int
	End         int
	OffsetY     int
	TotalHeight int
	Virtualized bool
}

func (r Range) Len() int { return r.End - r.Start }

func (r Range) Contains(i int) bool { return i >= r.Start && i < r.End }

func (c Config) rowHeight() int {
	if c.RowHeight < 1 {
		return 1
	}
	return c.RowHeight
}

// Window returns the visible range for a list of count rows scrolled to scrollOffset
// inside a container of containerHeight.
func (c Config) Window(count, scrollOffset, containerHeight int) Range {
	rh := c.rowHeight()
	if count <= 0 {
		return Range{}
	}
	total := count * rh
	if count < c.Threshold {
		return Range{Start: 0, End: count, OffsetY: 0, TotalHeight: total}
	}
	if scrollOffset < 0 {
		scrollOffset = 0
	}
	if containerHeight < 0 {
		containerHeight = 0
	}
	buf := c.Buffer
	if buf < 0 {
		buf = 0
	}

	start := scrollOffset/rh - buf
	if start < 0 {
		start = 0
	}
	end := ceilDiv(scrollOffset+containerHeight, rh) + buf
	if end > count {
		end = count
	}
	if start > end {
		start = end
	}
	return Range{
		Start:       start,
		End:         end,
		OffsetY:     start * rh,
		TotalHeight: total,
		Virtualized: true,
	}
}

// ScrollTo returns the smallest change to scrollOffset that keeps row index fully visible,
// clamped to the scrollable extent.
func (c Config) ScrollTo(scrollOffset, index, count, containerHeight int) int {
	rh := c.rowHeight()
	top := index * rh
	bottom := top + rh
	if top < scrollOffset {
		scrollOffset = top
	}
	if bottom > scrollOffset+containerHeight {
		scrollOffset = bottom - containerHeight
	}
	maxOffset := count*rh - containerHeight
	if scrollOffset > maxOffset {
		scrollOffset = maxOffset
	}
	if scrollOffset < 0 {
		scrollOffset = 0
	}
	return scrollOffset
}

// Slice cuts the visible items out of xs. r must come from Window over len(xs).
func Slice[T any](xs []T, r Range) []T {
	if r.Start >= len(xs) || r.End <= r.Start {
		return nil
	}
	end := r.End
	if end > len(xs) {
		end = len(xs)
	}
	return xs[r.Start:end]
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
