package tui

import (
	"strings"

	"github.com/atotto/clipboard"
)

// writeClipboard is swapped out in tests.
var writeClipboard = func(s string) error {
	return clipboard.WriteAll(strings.ReplaceAll(s, "\r\n", "\n"))
}
