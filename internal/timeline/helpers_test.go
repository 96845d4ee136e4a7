package timeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/skirt-timeline/internal/parse"
	"github.com/Zuo-Peng/skirt-timeline/internal/simulation"
)

var baseTime = time.Date(2020, time.April, 3, 10, 0, 0, 0, time.UTC)

// logLine is one message at a number of seconds after baseTime.
type logLine struct {
	at  float64
	msg string
}

func renderLog(lines []logLine) string {
	var b strings.Builder
	for _, l := range lines {
		ts := baseTime.Add(time.Duration(l.at * float64(time.Second)))
		b.WriteString(ts.Format("02/01/2006 15:04:05.000"))
		b.WriteString("   ")
		b.WriteString(l.msg)
		b.WriteString("\n")
	}
	return b.String()
}

func logFile(t *testing.T, name string, lines []logLine) *simulation.LogFile {
	t.Helper()
	log, err := parse.Parse(strings.NewReader(renderLog(lines)), name)
	require.NoError(t, err)
	return simulation.NewLogFile(name, log)
}

func writeRun(t *testing.T, dir string, logs map[string][]logLine) {
	t.Helper()
	for name, lines := range logs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(renderLog(lines)), 0o644))
	}
}

var rootLines = []logLine{
	{0, "Starting simulation galaxy with 2 processes..."},
	{2, "Starting setup..."},
	{4, "Starting the stellar emission phase..."},
	{6, "Launched stellar emission photon packages: 50%"},
	{8, "Starting writing results..."},
	{10, "Writing the dust grid..."},
}

// rank 1 waits for the other processes after writing; the root process does not
var rank1Lines = append(append([]logLine{}, rootLines...),
	logLine{10, "Waiting for other processes to finish the dust emission phase"},
	logLine{11, "Done waiting"},
)
