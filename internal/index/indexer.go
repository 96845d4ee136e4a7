package index

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Zuo-Peng/skirt-timeline/internal/scan"
	"github.com/Zuo-Peng/skirt-timeline/internal/simulation"
	"github.com/Zuo-Peng/skirt-timeline/internal/timeline"
)

type Stats struct {
	Scanned int
	Updated int
	Skipped int
	Pruned  int
	Errors  int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d pruned=%d errors=%d",
		s.Scanned, s.Updated, s.Skipped, s.Pruned, s.Errors)
}

// Indexer extracts the timelines of all runs below Root into a DB.
type Indexer struct {
	DB      *DB
	Root    string
	Workers int
	Logger  *zap.SugaredLogger
}

func (ix *Indexer) IndexAll(ctx context.Context) (Stats, error) {
	var stats Stats
	log := ix.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	runs, err := scan.ScanRoot(ix.Root)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(runs)

	// runs still on disk, for pruning
	seenKeys := make(map[string]struct{})

	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		seenKeys[run.Key] = struct{}{}

		needs, err := needsUpdate(ix.DB, run)
		if err != nil {
			stats.Errors++
			continue
		}
		if !needs {
			stats.Skipped++
			continue
		}

		if err := ix.indexRun(ctx, run); err != nil {
			stats.Errors++
			log.Warnw("skipping run", "run", run.Key, "error", err)
			continue
		}
		log.Debugw("indexed run", "run", run.Key, "files", len(run.Files))
		stats.Updated++
	}

	pruned, err := pruneRuns(ix.DB, seenKeys)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	return stats, nil
}

func needsUpdate(db *DB, run scan.Run) (bool, error) {
	info, err := db.GetRunInfo(run.Key)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil
	}
	return info.Mtime != run.Mtime() || info.Size != run.Size(), nil
}

func (ix *Indexer) indexRun(ctx context.Context, run scan.Run) error {
	sim := &simulation.Simulation{Dir: run.Dir, Prefix: run.Prefix, Workers: ix.Workers, Logger: ix.Logger}
	logs, err := sim.LogFiles(ctx)
	if err != nil {
		return err
	}
	table, err := timeline.Extract(logs)
	if err != nil {
		return err
	}

	root := logs[0]
	t0, err := root.T0()
	if err != nil {
		return err
	}
	host, _ := root.Host()

	return storeRun(ix.DB, run, host, t0, table)
}

func storeRun(db *DB, run scan.Run, host string, started time.Time, table *timeline.Table) error {
	if err := db.DeleteRun(run.Key); err != nil {
		return err
	}

	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	s := table.Summary()
	var dustem any
	if s.HasDustEm {
		dustem = s.DustEm
	}
	_, err = tx.Exec(
		`INSERT INTO runs (`+RunColumns+`, mtime, size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Key, run.Dir, run.Prefix, host, started.Format("2006-01-02T15:04:05Z"), s.Processes,
		s.Total, s.Setup, s.Stellar, s.Spectra, s.Dust, dustem, s.Writing, s.Communication,
		s.Waiting, s.Other, s.Serial, s.Parallel, s.Overhead,
		run.Mtime(), run.Size(),
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO timeline_rows (run_key, row_id, process, phase, start_s, end_s)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range table.Rows() {
		if _, err := stmt.Exec(run.Key, i, r.Process, string(r.Phase), r.Start, r.End); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func pruneRuns(db *DB, seenKeys map[string]struct{}) (int, error) {
	allKeys, err := db.AllRunKeys()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for key := range allKeys {
		if _, ok := seenKeys[key]; !ok {
			if err := db.DeleteRun(key); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}
