package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/skirt-timeline/internal/index"
	"github.com/Zuo-Peng/skirt-timeline/internal/scan"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify the simulation root and the DB, and show stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			fmt.Println("=== Config ===")
			fmt.Printf("  Workers: %d\n", cfg.Workers)
			fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
			if cfg.Logging.Path != "" {
				fmt.Printf("  Log file: %s\n", cfg.Logging.Path)
			}

			fmt.Println("\n=== Simulation root ===")
			checkDir("Root", cfg.SimRoot)

			fmt.Println("\n=== Log Scan ===")
			runs, err := scan.ScanRoot(cfg.SimRoot)
			if err != nil {
				fmt.Printf("  scan error: %v\n", err)
			} else {
				files, multi := 0, 0
				for _, r := range runs {
					files += len(r.Files)
					if len(r.Files) > 1 {
						multi++
					}
				}
				fmt.Printf("  Runs:      %d (%d with several processes)\n", len(runs), multi)
				fmt.Printf("  Log files: %d\n", files)
			}

			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'pts index' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			runCount, err := db.RunCount()
			if err != nil {
				return fmt.Errorf("count runs: %w", err)
			}
			rowCount, err := db.RowCount()
			if err != nil {
				return fmt.Errorf("count rows: %w", err)
			}
			fmt.Printf("  Runs: %d\n", runCount)
			fmt.Printf("  Rows: %d\n", rowCount)

			var orphans int
			err = db.Raw().QueryRow(
				"SELECT COUNT(DISTINCT run_key) FROM timeline_rows WHERE run_key NOT IN (SELECT run_key FROM runs)",
			).Scan(&orphans)
			if err != nil {
				fmt.Printf("  Consistency check error: %v\n", err)
			} else if orphans == 0 {
				fmt.Println("  Status: OK")
			} else {
				fmt.Printf("  Status: %d orphaned timelines (re-run 'pts index')\n", orphans)
			}

			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}
