package timeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Zuo-Peng/skirt-timeline/internal/simulation"
)

var ErrNoLogs = errors.New("no log files to extract a timeline from")

// LogSource yields the parsed log files of a completed simulation.
type LogSource interface {
	LogFiles(ctx context.Context) ([]*simulation.LogFile, error)
}

// Extract builds the timeline of a run from the logs of its processes. The
// logs are processed in the given order, which should be ascending rank.
func Extract(logs []*simulation.LogFile) (*Table, error) {
	table, _, err := build(logs)
	return table, err
}

func build(logs []*simulation.LogFile) (*Table, bool, error) {
	cols, err := extractColumns(logs)
	if err != nil {
		return nil, false, err
	}
	inserted := false
	if countProcesses(logs) > 1 {
		if inserted, err = Reconcile(cols); err != nil {
			return nil, false, err
		}
	}
	table, err := NewTable(cols.Rows())
	return table, inserted, err
}

func extractColumns(logs []*simulation.LogFile) (*Columns, error) {
	if len(logs) == 0 {
		return nil, ErrNoLogs
	}

	// the earliest recorded time over all processes
	var t0 time.Time
	for i, lf := range logs {
		t, err := lf.T0()
		if err != nil {
			return nil, err
		}
		if i == 0 || t.Before(t0) {
			t0 = t
		}
	}
	seconds := func(t time.Time) float64 {
		return t.Sub(t0).Seconds()
	}

	cols := &Columns{}
	for _, lf := range logs {
		first, err := lf.T0()
		if err != nil {
			return nil, err
		}
		last, err := lf.TLast()
		if err != nil {
			return nil, err
		}

		entries := lf.Entries()
		current := entries[0].Phase
		cols.open(lf.Process, current, seconds(first))

		for _, e := range entries {
			// lines without a usable timestamp cannot mark a boundary
			if !e.TimeKnown || e.Phase == current {
				continue
			}
			s := seconds(e.Time)
			cols.close(s)
			cols.open(lf.Process, e.Phase, s)
			current = e.Phase
		}

		cols.close(seconds(last))
	}
	return cols, nil
}

func countProcesses(logs []*simulation.LogFile) int {
	seen := make(map[int]struct{})
	for _, lf := range logs {
		seen[lf.Process] = struct{}{}
	}
	return len(seen)
}

// Extractor runs the extraction for a simulation and optionally writes the result.
type Extractor struct {
	Logger *zap.SugaredLogger
}

// Run obtains the log files of sim, extracts the timeline and, when
// outputPath is not empty, saves the table there.
func (x *Extractor) Run(ctx context.Context, sim LogSource, outputPath string) (*Table, error) {
	log := x.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	logs, err := sim.LogFiles(ctx)
	if err != nil {
		return nil, err
	}

	table, inserted, err := build(logs)
	if err != nil {
		return nil, err
	}
	if inserted {
		log.Infow("root process missed a trailing phase, inserted row copied from process 1", "processes", table.Processes())
	}
	log.Debugw("timeline extracted", "rows", table.Len(), "processes", table.Processes())

	if outputPath != "" {
		if err := table.SaveTo(outputPath); err != nil {
			return nil, fmt.Errorf("write timeline: %w", err)
		}
	}
	return table, nil
}
