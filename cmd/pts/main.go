package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/skirt-timeline/internal/config"
	"github.com/Zuo-Peng/skirt-timeline/internal/logger"
)

var version = "dev"

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:          "pts",
		Short:        "SKIRT timelines - extract and browse the phase timeline of SKIRT simulations",
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(logfileCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(doctorCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, sets up logging from it and attaches a
// logger tagged with the command name to the command's context.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	lc := cfg.Logging
	if verbose {
		lc.Level = "debug"
		lc.Path = ""
	}
	logger.Init(lc)
	cmd.SetContext(logger.WithContext(cmd.Context(), logger.Get(context.Background()).With("cmd", cmd.Name())))
	return cfg, nil
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
