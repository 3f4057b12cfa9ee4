package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/redcode-editor/redcode/internal/document"
	"github.com/redcode-editor/redcode/internal/tui/styles"
)

// Tab bar layout
const (
	maxTabTitleWidth = 24
	dirtyMarker      = " •"
	overflowLeft     = "‹ "
	overflowRight    = " ›"
)

// tabTitle returns the label for one tab, truncated to fit maxTabTitleWidth
// with the dirty marker kept visible.
func tabTitle(snap document.Snapshot) string {
	name := snap.DisplayName
	limit := maxTabTitleWidth
	if snap.Dirty {
		limit -= runewidth.StringWidth(dirtyMarker)
	}
	if runewidth.StringWidth(name) > limit {
		name = runewidth.Truncate(name, limit, "…")
	}
	return name
}

// renderTab renders one tab cell.
func renderTab(s styles.Styles, snap document.Snapshot, active bool) string {
	title := tabTitle(snap)
	if snap.Dirty {
		title += s.TabDirty.Render(dirtyMarker)
	}
	if active {
		return s.TabActive.Render(title)
	}
	return s.TabInactive.Render(title)
}

// visibleTabs picks the widest run of tabs around the active one that fits
// in width. widths holds the rendered width of each tab.
func visibleTabs(widths []int, active, width int) (start, end int) {
	if len(widths) == 0 {
		return 0, 0
	}
	active = max(0, min(active, len(widths)-1))
	start, end = active, active+1
	used := widths[active]
	reserve := runewidth.StringWidth(overflowLeft) + runewidth.StringWidth(overflowRight)

	// Grow right first so the tabs after the active one stay in view, then left.
	for {
		grew := false
		if end < len(widths) && used+widths[end]+reserve <= width {
			used += widths[end]
			end++
			grew = true
		}
		if start > 0 && used+widths[start-1]+reserve <= width {
			start--
			used += widths[start]
			grew = true
		}
		if !grew {
			return start, end
		}
	}
}

// renderTabBar renders every tab that fits in width, with overflow markers on
// the sides that were cut.
func renderTabBar(s styles.Styles, snaps []document.Snapshot, active, width int) string {
	if len(snaps) == 0 {
		return ""
	}
	cells := make([]string, len(snaps))
	widths := make([]int, len(snaps))
	total := 0
	for i, snap := range snaps {
		cells[i] = renderTab(s, snap, i == active)
		widths[i] = lipgloss.Width(cells[i])
		total += widths[i]
	}
	if width <= 0 || total <= width {
		return strings.Join(cells, "")
	}

	start, end := visibleTabs(widths, active, width)
	var b strings.Builder
	if start > 0 {
		b.WriteString(s.TabOverflow.Render(overflowLeft))
	}
	for _, c := range cells[start:end] {
		b.WriteString(c)
	}
	if end < len(cells) {
		b.WriteString(s.TabOverflow.Render(overflowRight))
	}
	return b.String()
}
