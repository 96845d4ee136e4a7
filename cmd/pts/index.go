package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/skirt-timeline/internal/index"
	"github.com/Zuo-Peng/skirt-timeline/internal/logger"
)

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Scan the simulation root and index the timeline of every run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			fmt.Fprintf(os.Stderr, "Scanning %s...\n", cfg.SimRoot)

			stats, err := newIndexer(cmd, db, cfg.SimRoot, cfg.Workers).IndexAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}
}

func newIndexer(cmd *cobra.Command, db *index.DB, root string, workers int) *index.Indexer {
	return &index.Indexer{
		DB:      db,
		Root:    root,
		Workers: workers,
		Logger:  logger.Get(cmd.Context()),
	}
}
