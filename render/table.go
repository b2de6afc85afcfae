package render

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/liveprof/liveprof/live"
	"github.com/liveprof/liveprof/profile"
)

// DefaultWidth is the frame width used when the caller passes zero.
const DefaultWidth = 80

const barWidth = 14

// Table renders profile.Stats snapshots as a text table: a status header,
// runtime summary lines, and the hottest allocation size classes with share
// bars. It implements live.Renderer.
type Table struct {
	width int
	color bool
}

// NewTable creates a Table renderer. width <= 0 selects DefaultWidth; color
// controls ANSI styling.
func NewTable(width int, color bool) *Table {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Table{width: width, color: color}
}

// Render implements live.Renderer. It accepts *profile.Stats snapshots.
func (t *Table) Render(snap live.Snapshot, final bool) (live.Content, error) {
	stats, ok := snap.(*profile.Stats)
	if !ok {
		return nil, fmt.Errorf("render: unsupported snapshot type %T", snap)
	}

	lines := make([]string, 0, len(stats.Rows)+8)
	lines = append(lines, t.header(stats, final))
	lines = append(lines, t.summary(stats)...)
	lines = append(lines, "")

	if len(stats.Rows) == 0 {
		if final {
			lines = append(lines, t.style("  no allocation activity recorded", Dim))
		} else {
			lines = append(lines, t.style("  collecting first sample...", Dim))
		}
	} else {
		lines = append(lines, t.style(t.columns(), Dim))
		for _, row := range stats.Rows {
			lines = append(lines, t.row(row))
		}
	}

	if final {
		lines = append(lines, "")
		lines = append(lines, t.footer(stats))
	}

	// Plain output is clipped to the target width; styled lines carry
	// ANSI codes that rune counting would miscount, so they pass through.
	if !t.color {
		for i, line := range lines {
			lines[i] = Truncate(line, t.width)
		}
	}

	return &Frame{Lines: lines, Final: final, Taken: stats.Taken}, nil
}

func (t *Table) header(stats *profile.Stats, final bool) string {
	status := t.style("● running", FgYellow)
	if final {
		status = t.style("● complete", FgGreen+Bold)
	}
	up := stats.Uptime.Round(100 * time.Millisecond)
	return fmt.Sprintf("%s  %s  up %s  %d goroutines",
		t.style("liveprof", Bold), status, up, stats.Goroutines)
}

func (t *Table) summary(stats *profile.Stats) []string {
	heap := fmt.Sprintf("heap %s in use, %s objects, %s allocated (+%s)",
		humanize.Bytes(stats.HeapInUse),
		humanize.Comma(int64(stats.HeapObjects)),
		humanize.Bytes(stats.TotalAlloc),
		humanize.Bytes(stats.AllocDelta))
	gc := fmt.Sprintf("gc %d cycles, %s paused, mutex wait %s",
		stats.GCCycles,
		stats.GCPause.Round(time.Microsecond),
		stats.MutexWait.Round(time.Microsecond))
	return []string{t.style(heap, Dim), t.style(gc, Dim)}
}

func (t *Table) columns() string {
	return "  " + RightAlign("SIZE", 8) + RightAlign("MALLOCS", 14) + RightAlign("+NEW", 12) + "  SHARE"
}

func (t *Table) row(row profile.Row) string {
	return "  " +
		RightAlign(humanize.Comma(int64(row.SizeClass)), 8) +
		RightAlign(humanize.Comma(int64(row.Mallocs)), 14) +
		RightAlign(humanize.Comma(int64(row.Delta)), 12) +
		"  " + ShareBar(row.Share, barWidth)
}

func (t *Table) footer(stats *profile.Stats) string {
	msg := fmt.Sprintf("final snapshot: %s allocated over %s",
		humanize.Bytes(stats.TotalAlloc),
		stats.Uptime.Round(10*time.Millisecond))
	return t.style(msg, FgGreen)
}

// style wraps s in ANSI codes when color is enabled.
func (t *Table) style(s string, codes string) string {
	if !t.color || s == "" {
		return s
	}
	return codes + s + Reset
}
