package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/skirt-timeline/internal/logger"
	"github.com/Zuo-Peng/skirt-timeline/internal/render"
	"github.com/Zuo-Peng/skirt-timeline/internal/simulation"
	"github.com/Zuo-Peng/skirt-timeline/internal/timeline"
)

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <table.ecsv | dir prefix>",
		Short: "Print the named aggregates of a timeline",
		Long:  `Loads a timeline table written by 'pts extract -o', or extracts it from the logs in <dir> when a prefix is given, and prints its aggregates.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var table *timeline.Table
			if len(args) == 1 {
				table, err = timeline.Load(args[0])
			} else {
				log := logger.Get(cmd.Context())
				sim := &simulation.Simulation{Dir: args[0], Prefix: args[1], Workers: cfg.Workers, Logger: log}
				table, err = (&timeline.Extractor{Logger: log}).Run(cmd.Context(), sim, "")
			}
			if err != nil {
				return err
			}

			fmt.Print(render.RenderSummary(table.Summary()))
			return nil
		},
	}
}
