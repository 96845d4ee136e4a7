package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/skirt-timeline/internal/index"
	"github.com/Zuo-Peng/skirt-timeline/internal/render"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	runKey  string
	content string
	err     error
}

// loadPreviewCmd returns a tea.Cmd that renders the timeline of a run async.
func loadPreviewCmd(db *index.DB, r index.RunRow, width int, rows bool) tea.Cmd {
	return func() tea.Msg {
		content, err := renderPreview(db, r, width, rows)
		return previewRenderedMsg{runKey: r.RunKey, content: content, err: err}
	}
}

func renderPreview(db *index.DB, r index.RunRow, width int, rows bool) (string, error) {
	table, err := db.GetTimeline(r.RunKey)
	if err != nil {
		return "", fmt.Errorf("load timeline: %w", err)
	}
	// room for the process label and the bar delimiters
	chart := width - 8
	if chart < 10 {
		chart = 10
	}
	title := r.Prefix
	if r.Host != "" {
		title += " @ " + r.Host
	}
	return render.RenderTimeline(table, render.Options{
		Title: title,
		Width: chart,
		Color: true,
		Rows:  rows,
	}), nil
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
