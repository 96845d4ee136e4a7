package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/skirt-timeline/internal/index"
	"github.com/Zuo-Peng/skirt-timeline/internal/render"
)

func showCmd() *cobra.Command {
	var rows bool
	var width int
	var output string

	cmd := &cobra.Command{
		Use:   "show <runKey>",
		Short: "Render the timeline of an indexed run",
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

			run, err := db.GetRunByKey(args[0])
			if err != nil {
				return fmt.Errorf("get run: %w", err)
			}
			if run == nil {
				return fmt.Errorf("run not found: %s (run 'pts index' first)", args[0])
			}

			table, err := db.GetTimeline(run.RunKey)
			if err != nil {
				return fmt.Errorf("get timeline: %w", err)
			}
			if output != "" {
				return table.SaveTo(output)
			}

			title := run.Prefix + "  " + run.StartedAt
			if run.Host != "" {
				title += "  " + run.Host
			}
			fmt.Print(render.RenderTimeline(table, render.Options{
				Title: title,
				Width: width,
				Color: stdoutIsTerminal(),
				Rows:  rows,
			}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&rows, "rows", false, "Print the table rows")
	cmd.Flags().IntVar(&width, "width", 60, "Chart width")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the stored table to this ECSV file instead")

	return cmd
}
