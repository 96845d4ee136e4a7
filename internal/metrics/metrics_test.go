package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/skirt-timeline/internal/parse"
	"github.com/Zuo-Peng/skirt-timeline/internal/timeline"
)

func sample(t *testing.T) *timeline.Table {
	t.Helper()
	table, err := timeline.NewTable([]timeline.Row{
		{Process: 0, Phase: parse.PhaseStart, Start: 0, End: 1},
		{Process: 0, Phase: parse.PhaseSetup, Start: 1, End: 3},
		{Process: 0, Phase: parse.PhaseStellar, Start: 3, End: 9},
		{Process: 1, Phase: parse.PhaseStart, Start: 0, End: 9},
	})
	require.NoError(t, err)
	return table
}

func TestObserve(t *testing.T) {
	e := NewExporter()
	e.Observe("galaxy", sample(t))

	assert.Equal(t, 9.0, testutil.ToFloat64(e.totalSeconds.WithLabelValues("galaxy")))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.processes.WithLabelValues("galaxy")))
	assert.Equal(t, 6.0, testutil.ToFloat64(e.phaseSeconds.WithLabelValues("galaxy", "stellar")))
	assert.Equal(t, 3.0, testutil.ToFloat64(e.rows.WithLabelValues("galaxy", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.rows.WithLabelValues("galaxy", "1")))

	// 11 aggregates without dust emission
	assert.Equal(t, 11, testutil.CollectAndCount(e.phaseSeconds))
}

func TestWriteTextfile(t *testing.T) {
	e := NewExporter()
	e.Observe("galaxy", sample(t))

	path := filepath.Join(t.TempDir(), "skirt.prom")
	require.NoError(t, e.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "# TYPE skirt_timeline_total_seconds gauge")
	assert.Contains(t, out, `skirt_timeline_total_seconds{prefix="galaxy"} 9`)
	assert.Contains(t, out, `skirt_timeline_phase_seconds{aggregate="setup",prefix="galaxy"} 2`)
}
