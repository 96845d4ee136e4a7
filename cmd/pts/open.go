package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/skirt-timeline/internal/index"
	"github.com/Zuo-Peng/skirt-timeline/internal/open"
)

func openCmd() *cobra.Command {
	var rank int
	var phase string

	cmd := &cobra.Command{
		Use:   "open <runKey>",
		Short: "Open the log of a run in $EDITOR at the line where a phase starts",
		Args:  cobra.ExactArgs(1),
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

			return open.OpenRun(db, args[0], rank, phase)
		},
	}

	cmd.Flags().IntVar(&rank, "rank", 0, "Process rank whose log to open")
	cmd.Flags().StringVar(&phase, "phase", "", "Phase to jump to (setup, stellar, comm, spectra, dust, write, wait)")

	return cmd
}
