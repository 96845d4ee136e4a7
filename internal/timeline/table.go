package timeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Zuo-Peng/skirt-timeline/internal/parse"
)

var ErrRootFirst = errors.New("timeline must start with a row of the root process")

// Table is the timeline of a simulation run. It is not modified after construction.
type Table struct {
	rows []Row

	// Path is the file the table was read from or last saved to.
	Path string

	summaryOnce sync.Once
	summary     Summary
}

// Summary holds the named duration aggregates of the root process, in seconds.
type Summary struct {
	Processes     int
	Total         float64
	Setup         float64
	Stellar       float64
	Spectra       float64
	Dust          float64
	DustEm        float64
	HasDustEm     bool
	Writing       float64
	Communication float64
	Waiting       float64
	Other         float64
	Serial        float64
	Parallel      float64
	Overhead      float64
}

// NewTable creates a table from rows. The first row must belong to process 0.
func NewTable(rows []Row) (*Table, error) {
	if len(rows) > 0 && rows[0].Process != 0 {
		return nil, fmt.Errorf("%w: got process %d", ErrRootFirst, rows[0].Process)
	}
	cp := make([]Row, len(rows))
	copy(cp, rows)
	return &Table{rows: cp}, nil
}

// Rows returns a copy of the table rows.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

func (t *Table) Row(i int) Row {
	return t.rows[i]
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Processes returns the number of processes, one more than the highest rank.
func (t *Table) Processes() int {
	n := 0
	for _, r := range t.rows {
		if r.Process+1 > n {
			n = r.Process + 1
		}
	}
	return n
}

// ProcessRows returns the rows of one process in table order.
func (t *Table) ProcessRows(process int) []Row {
	var out []Row
	for _, r := range t.rows {
		if r.Process == process {
			out = append(out, r)
		}
	}
	return out
}

// rootRows returns the leading block of rows that belong to the root process.
func (t *Table) rootRows() []Row {
	for i, r := range t.rows {
		if r.Process > 0 {
			return t.rows[:i]
		}
	}
	return t.rows
}

// Duration returns the time the root process spent in phase. With single set,
// only the first matching row counts.
func (t *Table) Duration(phase parse.Phase, single bool) float64 {
	total := 0.0
	for _, r := range t.rootRows() {
		if r.Phase != phase {
			continue
		}
		if single {
			return r.Duration()
		}
		total += r.Duration()
	}
	return total
}

// DurationWithout returns the time the root process spent outside the given phases.
func (t *Table) DurationWithout(phases ...parse.Phase) float64 {
	skip := make(map[parse.Phase]bool, len(phases))
	for _, p := range phases {
		skip[p] = true
	}
	total := 0.0
	for _, r := range t.rootRows() {
		if !skip[r.Phase] {
			total += r.Duration()
		}
	}
	return total
}

// DustEm returns the duration of the last dust row of the root process, which
// is the photon shooting of the final dust emission phase.
func (t *Table) DustEm() (float64, bool) {
	root := t.rootRows()
	for i := len(root) - 1; i >= 0; i-- {
		if root[i].Phase == parse.PhaseDust {
			return root[i].Duration(), true
		}
	}
	return 0, false
}

// Summary returns the named aggregates. They are computed once.
func (t *Table) Summary() Summary {
	t.summaryOnce.Do(func() {
		s := Summary{
			Processes:     t.Processes(),
			Total:         t.DurationWithout(),
			Setup:         t.Duration(parse.PhaseSetup, false),
			Stellar:       t.Duration(parse.PhaseStellar, true),
			Spectra:       t.Duration(parse.PhaseSpectra, false),
			Dust:          t.Duration(parse.PhaseDust, false),
			Writing:       t.Duration(parse.PhaseWrite, false),
			Communication: t.Duration(parse.PhaseComm, false),
			Waiting:       t.Duration(parse.PhaseWait, false),
			Other:         t.Duration(parse.PhaseNone, false),
		}
		s.DustEm, s.HasDustEm = t.DustEm()
		s.Serial = s.Setup + s.Writing + s.Other
		s.Parallel = s.Stellar + s.Spectra + s.Dust
		s.Overhead = s.Communication + s.Waiting
		t.summary = s
	})
	return t.summary
}

func (t *Table) Total() float64         { return t.Summary().Total }
func (t *Table) Setup() float64         { return t.Summary().Setup }
func (t *Table) Stellar() float64       { return t.Summary().Stellar }
func (t *Table) Spectra() float64       { return t.Summary().Spectra }
func (t *Table) Dust() float64          { return t.Summary().Dust }
func (t *Table) Writing() float64       { return t.Summary().Writing }
func (t *Table) Communication() float64 { return t.Summary().Communication }
func (t *Table) Waiting() float64       { return t.Summary().Waiting }
func (t *Table) Other() float64         { return t.Summary().Other }
func (t *Table) Serial() float64        { return t.Summary().Serial }
func (t *Table) Parallel() float64      { return t.Summary().Parallel }
func (t *Table) Overhead() float64      { return t.Summary().Overhead }

// Equal reports whether both tables hold the same rows.
func (t *Table) Equal(o *Table) bool {
	if t.Len() != o.Len() {
		return false
	}
	for i := range t.rows {
		if t.rows[i] != o.rows[i] {
			return false
		}
	}
	return true
}
