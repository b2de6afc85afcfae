// Package render turns profile snapshots into displayable text frames.
// A Frame is a fixed block of lines suitable for in-place replacement on a
// terminal, appending to a log, or JSON encoding for remote viewers.
package render

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Frame is an immutable rendered snapshot. Ownership transfers to the sink
// on push; it is never mutated afterwards.
type Frame struct {
	Lines []string  `json:"lines"`
	Final bool      `json:"final"`
	Taken time.Time `json:"taken"`
}

// ANSI style codes used by the table renderer.
const (
	Reset         = "\033[0m"
	Bold          = "\033[1m"
	Dim           = "\033[2m"
	FgGreen       = "\033[32m"
	FgYellow      = "\033[33m"
	FgCyan        = "\033[36m"
	FgBrightBlack = "\033[90m"
)

// PadOrTruncate pads or truncates a string to exactly width characters,
// measuring visual width in runes.
func PadOrTruncate(s string, width int) string {
	if width <= 0 {
		return ""
	}

	runeLen := utf8.RuneCountInString(s)
	if runeLen == width {
		return s
	}
	if runeLen < width {
		return s + strings.Repeat(" ", width-runeLen)
	}

	runes := []rune(s)
	if width >= 3 {
		return string(runes[:width-3]) + "..."
	}
	return string(runes[:width])
}

// RightAlign right-aligns text within the given width.
func RightAlign(s string, width int) string {
	runeLen := utf8.RuneCountInString(s)
	if runeLen >= width {
		return PadOrTruncate(s, width)
	}
	return strings.Repeat(" ", width-runeLen) + s
}

// ShareBar renders a horizontal bar for a share in [0, 1] followed by the
// percentage, e.g. "██████░░░░  61.2%".
func ShareBar(share float64, width int) string {
	if width < 4 {
		return ""
	}
	if share < 0 {
		share = 0
	}
	if share > 1 {
		share = 1
	}

	filled := int(share*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	return bar + "  " + Percent(share)
}

// Truncate truncates a string to max width, adding ellipsis if needed.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width >= 3 {
		return string(runes[:width-3]) + "..."
	}
	return string(runes[:width])
}

// Percent formats a share in [0, 1] as a fixed-width percentage.
func Percent(share float64) string {
	return fmt.Sprintf("%5.1f%%", share*100)
}
