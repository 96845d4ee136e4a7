package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/skirt-timeline/internal/index"
)

// linesPerItem is the number of terminal lines each run occupies.
const linesPerItem = 2

// renderList renders the left panel: the indexed runs with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.results) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No runs")
		return empty
	}

	var lines []string
	for i, r := range m.results {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		rows := formatRunLine(r, width, i == m.cursor)
		lines = append(lines, rows...)
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

// formatRunLine formats a single run as two lines:
//
//	line 1: [>] date  Np  prefix
//	line 2:    total and directory (dimmed)
func formatRunLine(r index.RunRow, width int, selected bool) []string {
	// "2016-05-12T10:00:00Z" -> "2016-05-12"
	date := r.StartedAt
	if len(date) >= 10 {
		date = date[:10]
	}
	procs := styleProcs.Render(fmt.Sprintf("%3dp", r.Summary.Processes))

	prefixMax := width - 2 - 10 - 1 - 4 - 1
	if prefixMax < 0 {
		prefixMax = 0
	}
	prefix := runewidth.Truncate(r.Prefix, prefixMax, "…")

	line1 := fmt.Sprintf("%s %s %s", date, procs, prefix)
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	detail := fmt.Sprintf("%.1fs  %s", r.Summary.Total, r.Dir)
	detailMax := width - 4
	if detailMax < 0 {
		detailMax = 0
	}
	// keep the tail of long directories, it is the distinctive part
	if runewidth.StringWidth(detail) > detailMax {
		detail = truncateLeft(detail, detailMax)
	}
	line2 := "    " + lipgloss.NewStyle().Foreground(colorDim).Render(detail)

	return []string{line1, line2}
}

// truncateLeft drops leading runes until s fits in width columns.
func truncateLeft(s string, width int) string {
	if width <= 1 {
		return ""
	}
	runes := []rune(s)
	for i := range runes {
		rest := string(runes[i:])
		if runewidth.StringWidth(rest) <= width-1 {
			return "…" + rest
		}
	}
	return ""
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := listHeight / linesPerItem
	if visibleItems < 1 {
		visibleItems = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
