package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Zuo-Peng/skirt-timeline/internal/timeline"
)

// Exporter turns timeline aggregates into Prometheus gauges, for a node
// exporter textfile collector or any other gatherer.
type Exporter struct {
	Registry *prometheus.Registry

	phaseSeconds *prometheus.GaugeVec
	totalSeconds *prometheus.GaugeVec
	processes    *prometheus.GaugeVec
	rows         *prometheus.GaugeVec
}

func NewExporter() *Exporter {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Exporter{
		Registry: reg,
		phaseSeconds: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "skirt_timeline_phase_seconds",
				Help: "Wall time the root process spent in each aggregate of the simulation",
			},
			[]string{"prefix", "aggregate"},
		),
		totalSeconds: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "skirt_timeline_total_seconds",
				Help: "Total wall time of the simulation",
			},
			[]string{"prefix"},
		),
		processes: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "skirt_timeline_processes",
				Help: "Number of processes that wrote a log",
			},
			[]string{"prefix"},
		),
		rows: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "skirt_timeline_rows",
				Help: "Number of timeline rows per process",
			},
			[]string{"prefix", "process"},
		),
	}
}

// Observe records the aggregates of a simulation's timeline.
func (e *Exporter) Observe(prefix string, table *timeline.Table) {
	s := table.Summary()
	e.totalSeconds.WithLabelValues(prefix).Set(s.Total)
	e.processes.WithLabelValues(prefix).Set(float64(s.Processes))

	aggregates := map[string]float64{
		"setup":         s.Setup,
		"stellar":       s.Stellar,
		"spectra":       s.Spectra,
		"dust":          s.Dust,
		"writing":       s.Writing,
		"communication": s.Communication,
		"waiting":       s.Waiting,
		"other":         s.Other,
		"serial":        s.Serial,
		"parallel":      s.Parallel,
		"overhead":      s.Overhead,
	}
	if s.HasDustEm {
		aggregates["dustem"] = s.DustEm
	}
	for name, v := range aggregates {
		e.phaseSeconds.WithLabelValues(prefix, name).Set(v)
	}

	for p := 0; p < s.Processes; p++ {
		e.rows.WithLabelValues(prefix, fmt.Sprint(p)).Set(float64(len(table.ProcessRows(p))))
	}
}

// WriteTextfile writes every observed gauge to path in the text exposition
// format. The file is replaced atomically.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.Registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
