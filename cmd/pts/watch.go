package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/skirt-timeline/internal/logger"
	"github.com/Zuo-Peng/skirt-timeline/internal/watch"
)

func watchCmd() *cobra.Command {
	var noFollow, poll bool

	cmd := &cobra.Command{
		Use:   "watch <logfile>",
		Short: "Follow the log of a running simulation and print phase changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}

			f := &watch.Follower{
				Path:   args[0],
				Follow: !noFollow,
				Poll:   poll,
				Logger: logger.Get(cmd.Context()),
			}
			err := f.Run(cmd.Context(), func(t watch.Transition) {
				fmt.Println(t)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&noFollow, "no-follow", false, "Stop at the end of the file")
	cmd.Flags().BoolVar(&poll, "poll", false, "Poll for changes instead of using inotify")

	return cmd
}
