package timeline

import (
	"errors"
	"fmt"

	"github.com/Zuo-Peng/skirt-timeline/internal/parse"
)

var ErrInconsistentPhases = errors.New("inconsistent set of timeline columns")

// Row is one phase interval of one process. Times are in seconds since the
// earliest recorded time of the run.
type Row struct {
	Process int
	Phase   parse.Phase
	Start   float64
	End     float64
}

// Duration returns End - Start.
func (r Row) Duration() float64 {
	return r.End - r.Start
}

// Columns holds the timeline while it is being assembled.
type Columns struct {
	Process []int
	Phase   []parse.Phase
	Start   []float64
	End     []float64
}

func (c *Columns) Len() int {
	return len(c.Process)
}

func (c *Columns) open(process int, phase parse.Phase, start float64) {
	c.Process = append(c.Process, process)
	c.Phase = append(c.Phase, phase)
	c.Start = append(c.Start, start)
}

func (c *Columns) close(end float64) {
	c.End = append(c.End, end)
}

func (c *Columns) insert(i int, r Row) {
	c.Process = append(c.Process[:i], append([]int{r.Process}, c.Process[i:]...)...)
	c.Phase = append(c.Phase[:i], append([]parse.Phase{r.Phase}, c.Phase[i:]...)...)
	c.Start = append(c.Start[:i], append([]float64{r.Start}, c.Start[i:]...)...)
	c.End = append(c.End[:i], append([]float64{r.End}, c.End[i:]...)...)
}

// Rows converts the columns to rows.
func (c *Columns) Rows() []Row {
	rows := make([]Row, c.Len())
	for i := range rows {
		rows[i] = Row{Process: c.Process[i], Phase: c.Phase[i], Start: c.Start[i], End: c.End[i]}
	}
	return rows
}

// Reconcile repairs the one known mismatch between process blocks: the root
// process ends one phase short of rank 1. The missing row is copied from rank 1
// and starts where the last root row ends. It reports whether a row was
// inserted. Any other mismatch is an error.
func Reconcile(c *Columns) (bool, error) {
	n := c.Len()
	if n == 0 {
		return false, nil
	}
	if c.Process[0] != 0 {
		return false, fmt.Errorf("%w: first row belongs to process %d", ErrInconsistentPhases, c.Process[0])
	}

	nprocs := 0
	for _, p := range c.Process {
		if p+1 > nprocs {
			nprocs = p + 1
		}
	}
	if nprocs < 2 {
		return false, nil
	}

	// index of the first row of every rank
	blockStart := make([]int, nprocs)
	for i := range blockStart {
		blockStart[i] = -1
	}
	for i, p := range c.Process {
		if blockStart[p] < 0 {
			blockStart[p] = i
		}
	}
	for rank, s := range blockStart {
		if s < 0 {
			return false, fmt.Errorf("%w: no rows for process %d", ErrInconsistentPhases, rank)
		}
		if rank > 0 && s < blockStart[rank-1] {
			return false, fmt.Errorf("%w: process %d rows precede process %d", ErrInconsistentPhases, rank, rank-1)
		}
	}

	blockLen := func(rank int) int {
		if rank+1 < nprocs {
			return blockStart[rank+1] - blockStart[rank]
		}
		return n - blockStart[rank]
	}

	bound := blockLen(1)
	for rank := 0; rank+1 < nprocs; rank++ {
		if l := blockLen(rank); l > bound {
			bound = l
		}
	}

	inserted := false
	for i := 0; i < bound && i < c.Len(); i++ {
		if c.Process[i] == 0 {
			continue
		}
		if c.Process[i] != 1 {
			return inserted, fmt.Errorf("%w: row %d belongs to process %d", ErrInconsistentPhases, i, c.Process[i])
		}
		if inserted {
			return inserted, fmt.Errorf("%w: root process misses more than one phase", ErrInconsistentPhases)
		}
		if i >= blockLen(1) {
			return inserted, fmt.Errorf("%w: process 1 has no row %d", ErrInconsistentPhases, i)
		}
		src := blockStart[1] + i
		c.insert(i, Row{
			Process: 0,
			Phase:   c.Phase[src],
			Start:   c.End[i-1],
			End:     c.End[src],
		})
		inserted = true
	}
	return inserted, nil
}
