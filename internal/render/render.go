package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/skirt-timeline/internal/parse"
	"github.com/Zuo-Peng/skirt-timeline/internal/timeline"
)

const (
	colorReset = "\033[0m"
	colorDim   = "\033[2m"
	colorBold  = "\033[1m"
)

// phaseStyle is the glyph and color used for a phase in the Gantt chart.
type phaseStyle struct {
	glyph rune
	color string
}

var phaseStyles = map[parse.Phase]phaseStyle{
	parse.PhaseStart:   {'.', "\033[2m"},    // dim
	parse.PhaseSetup:   {'u', "\033[36m"},   // cyan
	parse.PhaseStellar: {'*', "\033[1;33m"}, // bold yellow
	parse.PhaseComm:    {'~', "\033[35m"},   // magenta
	parse.PhaseSpectra: {'p', "\033[32m"},   // green
	parse.PhaseDust:    {'d', "\033[1;31m"}, // bold red
	parse.PhaseWrite:   {'w', "\033[34m"},   // blue
	parse.PhaseWait:    {'_', "\033[2;37m"}, // dim white
	parse.PhaseNone:    {' ', ""},
}

type Options struct {
	Title string
	Width int  // chart width in cells (0 = 60)
	Color bool // ANSI colors
	Rows  bool // include the row table
}

// RenderTimeline renders the per-process Gantt chart of a table, optionally
// preceded by its rows, and followed by the summary.
func RenderTimeline(table *timeline.Table, opts Options) string {
	if opts.Width <= 0 {
		opts.Width = 60
	}

	var b strings.Builder
	if opts.Title != "" {
		b.WriteString(paint(opts.Color, colorBold, runewidth.Truncate(opts.Title, opts.Width+8, "...")))
		b.WriteString("\n")
	}
	if table.Len() == 0 {
		b.WriteString("(empty timeline)\n")
		return b.String()
	}

	if opts.Rows {
		b.WriteString(RenderRows(table))
		b.WriteString("\n")
	}
	b.WriteString(RenderGantt(table, opts.Width, opts.Color))
	b.WriteString("\n")
	b.WriteString(RenderSummary(table.Summary()))
	return b.String()
}

// RenderRows renders the rows of a table as aligned columns.
func RenderRows(table *timeline.Table) string {
	header := []string{"rank", "phase", "start", "end", "duration"}
	cells := [][]string{header}
	for _, r := range table.Rows() {
		cells = append(cells, []string{
			strconv.Itoa(r.Process),
			r.Phase.String(),
			formatSeconds(r.Start),
			formatSeconds(r.End),
			formatSeconds(r.Duration()),
		})
	}
	return AlignColumns(cells)
}

// RenderGantt draws one bar per process. Every cell shows the phase active at
// the middle of the time slice it covers.
func RenderGantt(table *timeline.Table, width int, color bool) string {
	span := 0.0
	for _, r := range table.Rows() {
		if r.End > span {
			span = r.End
		}
	}

	var b strings.Builder
	label := len(fmt.Sprintf("P%d", table.Processes()-1))
	for p := 0; p < table.Processes(); p++ {
		rows := table.ProcessRows(p)
		b.WriteString(runewidth.FillRight(fmt.Sprintf("P%d", p), label))
		b.WriteString(" |")
		b.WriteString(bar(rows, span, width, color))
		b.WriteString("|\n")
	}
	b.WriteString(runewidth.FillRight("", label))
	b.WriteString(" 0")
	end := formatSeconds(span) + " s"
	b.WriteString(runewidth.FillLeft(end, width+1))
	b.WriteString("\n")
	b.WriteString(legend(color))
	return b.String()
}

func bar(rows []timeline.Row, span float64, width int, color bool) string {
	var b strings.Builder
	prev := ""
	for i := 0; i < width; i++ {
		phase := parse.PhaseNone
		if span > 0 {
			mid := (float64(i) + 0.5) * span / float64(width)
			for _, r := range rows {
				if mid >= r.Start && mid < r.End {
					phase = r.Phase
					break
				}
			}
		}
		st := phaseStyles[phase]
		if color && st.color != prev {
			if prev != "" {
				b.WriteString(colorReset)
			}
			b.WriteString(st.color)
			prev = st.color
		}
		b.WriteRune(st.glyph)
	}
	if color && prev != "" {
		b.WriteString(colorReset)
	}
	return b.String()
}

func legend(color bool) string {
	var parts []string
	for _, p := range parse.Phases {
		if p == parse.PhaseNone {
			continue
		}
		st := phaseStyles[p]
		parts = append(parts, paint(color, st.color, string(st.glyph))+" "+p.String())
	}
	return paint(color, colorDim, "legend:") + " " + strings.Join(parts, "  ") + "\n"
}

// RenderSummary lists the named aggregates of a timeline.
func RenderSummary(s timeline.Summary) string {
	pct := func(v float64) string {
		if s.Total == 0 {
			return "-"
		}
		return fmt.Sprintf("%5.1f%%", 100*v/s.Total)
	}
	cells := [][]string{
		{"processes", strconv.Itoa(s.Processes), ""},
		{"total", formatSeconds(s.Total), ""},
		{"setup", formatSeconds(s.Setup), pct(s.Setup)},
		{"stellar", formatSeconds(s.Stellar), pct(s.Stellar)},
		{"spectra", formatSeconds(s.Spectra), pct(s.Spectra)},
		{"dust", formatSeconds(s.Dust), pct(s.Dust)},
	}
	if s.HasDustEm {
		cells = append(cells, []string{"dust emission", formatSeconds(s.DustEm), pct(s.DustEm)})
	}
	cells = append(cells,
		[]string{"writing", formatSeconds(s.Writing), pct(s.Writing)},
		[]string{"communication", formatSeconds(s.Communication), pct(s.Communication)},
		[]string{"waiting", formatSeconds(s.Waiting), pct(s.Waiting)},
		[]string{"other", formatSeconds(s.Other), pct(s.Other)},
		[]string{"serial", formatSeconds(s.Serial), pct(s.Serial)},
		[]string{"parallel", formatSeconds(s.Parallel), pct(s.Parallel)},
		[]string{"overhead", formatSeconds(s.Overhead), pct(s.Overhead)},
	)
	return AlignColumns(cells)
}

// AlignColumns pads every cell to the display width of its column.
func AlignColumns(cells [][]string) string {
	var widths []int
	for _, row := range cells {
		for i, c := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := runewidth.StringWidth(c); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for _, row := range cells {
		var line strings.Builder
		for i, c := range row {
			if i > 0 {
				line.WriteString("  ")
			}
			line.WriteString(runewidth.FillRight(c, widths[i]))
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteString("\n")
	}
	return b.String()
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func paint(enabled bool, color, s string) string {
	if !enabled || color == "" {
		return s
	}
	return color + s + colorReset
}
