package simulation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Zuo-Peng/skirt-timeline/internal/scan"
)

var ErrNoLogFiles = errors.New("no log files found")

// Simulation is a completed SKIRT run identified by its output directory and prefix.
type Simulation struct {
	Dir     string
	Prefix  string
	Workers int // parallel parses, <= 0 means 1
	Logger  *zap.SugaredLogger
}

// LogFiles parses the logs written by every process of the simulation and
// returns them in ascending rank order.
func (s *Simulation) LogFiles(ctx context.Context) ([]*LogFile, error) {
	files, err := scan.FindLogs(s.Dir, s.Prefix)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w for prefix %q", s.Dir, ErrNoLogFiles, s.Prefix)
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return OpenAll(ctx, paths, s.Workers, s.Logger)
}

// OpenAll parses the log files at paths concurrently. The result is sorted by
// process rank; parsing stops at the first error.
func OpenAll(ctx context.Context, paths []string, workers int, log *zap.SugaredLogger) ([]*LogFile, error) {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	logs := make([]*LogFile, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			lf, err := Open(path)
			if err != nil {
				return err
			}
			unknown := 0
			for _, e := range lf.Entries() {
				if !e.TimeKnown {
					unknown++
				}
			}
			if unknown > 0 {
				log.Warnw("unparseable timestamps", "file", path, "lines", unknown)
			}
			logs[i] = lf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Process < logs[j].Process
	})
	return logs, nil
}
