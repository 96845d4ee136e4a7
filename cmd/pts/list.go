package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/skirt-timeline/internal/index"
	"github.com/Zuo-Peng/skirt-timeline/internal/logger"
	"github.com/Zuo-Peng/skirt-timeline/internal/search"
	"github.com/Zuo-Peng/skirt-timeline/internal/tui"
)

func listCmd() *cobra.Command {
	var opts search.Options
	var noUpdate bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse indexed runs, newest first",
		Long: `Opens a TUI panel with the indexed runs and a preview of the selected timeline.
Type to filter by prefix; Enter copies a cd command for the run directory.

When stdout is not a terminal the runs are printed as TSV:
  runKey, started, processes, total, serial, parallel, overhead, dir`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if !noUpdate {
				if _, err := newIndexer(cmd, db, cfg.SimRoot, cfg.Workers).IndexAll(cmd.Context()); err != nil {
					logger.Get(cmd.Context()).Warnw("index update failed", "error", err)
				}
			}

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			if stdoutIsTerminal() {
				return tui.RunList(db, opts)
			}

			runs, err := search.ListRuns(db, opts)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(os.Stderr, "No runs found.")
				return nil
			}
			for _, r := range runs {
				s := r.Summary
				fmt.Printf("%s\t%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%s\n",
					r.RunKey, r.StartedAt, s.Processes,
					s.Total, s.Serial, s.Parallel, s.Overhead,
					strings.ReplaceAll(r.Dir, "\t", " "),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "Filter by simulation prefix")
	cmd.Flags().StringVar(&opts.Dir, "dir", "", "Filter by run directory substring")
	cmd.Flags().StringVar(&opts.Since, "since", "", "Filter runs started since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.MinProcs, "min-procs", 0, "Only runs with at least this many processes")
	cmd.Flags().StringVar(&opts.OrderBy, "sort", "started", "Sort by started, total or overhead")
	cmd.Flags().IntVar(&opts.Limit, "limit", 100, "Max results")
	cmd.Flags().BoolVar(&noUpdate, "no-update", false, "Skip the index update")

	return cmd
}
