package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/skirt-timeline/internal/render"
	"github.com/Zuo-Peng/skirt-timeline/internal/simulation"
)

func logfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logfile <path>",
		Short: "Show the facts recorded in one SKIRT log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}

			lf, err := simulation.Open(args[0])
			if err != nil {
				return err
			}

			cells := [][]string{
				{"file", lf.Path},
				{"prefix", lf.Prefix},
				{"process", strconv.Itoa(lf.Process)},
				{"entries", strconv.Itoa(len(lf.Entries()))},
				{"columns", strings.Join(lf.Log.Columns(), ", ")},
			}
			add := func(name, value string) {
				cells = append(cells, []string{name, value})
			}

			if t, err := lf.T0(); err == nil {
				add("first entry", t.Format(time.DateTime+".000"))
			} else {
				add("first entry", "error: "+err.Error())
			}
			if t, err := lf.TLast(); err == nil {
				add("last entry", t.Format(time.DateTime+".000"))
			}
			add("last message", lf.LastMessage())

			if host, ok := lf.Host(); ok {
				add("host", host)
			} else {
				add("host", "-")
			}
			add("total runtime", optFloat(lf.TotalRuntime()))
			if peak, err := lf.PeakMemory(); err == nil {
				add("peak memory", fmt.Sprintf("%g GB", peak))
			} else {
				add("peak memory", "-")
			}
			add("stellar packages", optInt(lf.StellarPackages()))
			add("dust packages", optInt(lf.DustPackages()))
			add("wavelengths", optInt(lf.Wavelengths()))
			add("dust cells", optInt(lf.DustCells()))
			add("tree nodes", optInt(lf.TreeNodes()))
			add("tree levels", optInt(lf.TreeLevels()))
			if dist, ok := lf.TreeLeafDistribution(); ok {
				var parts []string
				for _, lc := range dist {
					parts = append(parts, fmt.Sprintf("%d:%d", lc.Level, lc.Cells))
				}
				add("leaf distribution", strings.Join(parts, " "))
			}

			if n, err := lf.Processes(); err == nil {
				add("processes", strconv.Itoa(n))
			} else {
				add("processes", "error: "+err.Error())
			}
			if n, err := lf.Threads(); err == nil {
				add("threads", strconv.Itoa(n))
			} else {
				add("threads", "error: "+err.Error())
			}

			fmt.Print(render.AlignColumns(cells))
			return nil
		},
	}
}

func optInt(v int, ok bool) string {
	if !ok {
		return "-"
	}
	return strconv.Itoa(v)
}

func optFloat(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return strconv.FormatFloat(v, 'g', -1, 64) + " s"
}
