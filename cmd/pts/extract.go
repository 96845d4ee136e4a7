package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/skirt-timeline/internal/logger"
	"github.com/Zuo-Peng/skirt-timeline/internal/metrics"
	"github.com/Zuo-Peng/skirt-timeline/internal/render"
	"github.com/Zuo-Peng/skirt-timeline/internal/simulation"
	"github.com/Zuo-Peng/skirt-timeline/internal/timeline"
)

func extractCmd() *cobra.Command {
	var output, metricsPath string
	var rows, quiet bool
	var width int

	cmd := &cobra.Command{
		Use:   "extract <dir> <prefix>",
		Short: "Extract the timeline of a finished simulation from its log files",
		Long: `Reads <dir>/<prefix>_log.txt and the <prefix>_logP<N>.txt files of the other
processes, reconstructs the phase timeline and prints it. With -o the table is
written as ECSV; with --metrics the aggregates are written as a Prometheus textfile.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			log := logger.Get(ctx)

			sim := &simulation.Simulation{
				Dir:     args[0],
				Prefix:  args[1],
				Workers: cfg.Workers,
				Logger:  log,
			}
			table, err := (&timeline.Extractor{Logger: log}).Run(ctx, sim, output)
			if err != nil {
				return fmt.Errorf("extract %s: %w", args[1], err)
			}
			if output != "" {
				fmt.Fprintf(os.Stderr, "Wrote %d rows to %s\n", table.Len(), output)
			}

			if metricsPath != "" {
				e := metrics.NewExporter()
				e.Observe(args[1], table)
				if err := e.WriteTextfile(metricsPath); err != nil {
					return err
				}
			}

			if quiet {
				return nil
			}
			fmt.Print(render.RenderTimeline(table, render.Options{
				Title: args[1],
				Width: width,
				Color: stdoutIsTerminal(),
				Rows:  rows,
			}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the timeline table to this ECSV file")
	cmd.Flags().StringVar(&metricsPath, "metrics", "", "Write the aggregates to this Prometheus textfile")
	cmd.Flags().BoolVar(&rows, "rows", false, "Print the table rows")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print nothing")
	cmd.Flags().IntVar(&width, "width", 60, "Chart width")

	return cmd
}
