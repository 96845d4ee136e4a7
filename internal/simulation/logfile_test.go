package simulation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/skirt-timeline/internal/parse"
)

const fullLog = `12/05/2016 14:00:00.000   Welcome to SKIRT v7.4 (git 123 built on May 10 2016 at 10:00:00)
12/05/2016 14:00:00.010   Running on node17 for user
12/05/2016 14:00:00.100   Starting simulation galaxy with 2 processes...
12/05/2016 14:00:00.200   Initializing random number generator for thread number 0 with seed 4357...
12/05/2016 14:00:00.210   Initializing random number generator for thread number 1 with seed 4358...
12/05/2016 14:00:00.220   Initializing random number generator for thread number 2 with seed 4359...
12/05/2016 14:00:00.300   Starting setup...
12/05/2016 14:00:00.400   Starting subdivision of level 1...
12/05/2016 14:00:00.500   Starting subdivision of level 2...
12/05/2016 14:00:00.600   Starting subdivision of level 3...
12/05/2016 14:00:00.700   Construction of the tree finished.
12/05/2016 14:00:00.710   Total number of nodes: 1025
12/05/2016 14:00:00.720   Total number of leaves: 897
12/05/2016 14:00:00.730   Number of leaf cells of each level:
12/05/2016 14:00:00.731     Level 0: 0 cells
12/05/2016 14:00:00.732     Level 1: 7 cells
12/05/2016 14:00:00.733     Level 2: 50 cells
12/05/2016 14:00:00.740   Writing data to plot the dust grid...
12/05/2016 14:00:02.000 - Finished setup in 1.9 s.
12/05/2016 14:00:02.000   Starting the stellar emission phase...
12/05/2016 14:00:02.100   Launching 1e+06 photon packages (10000 photon packages for each of 100 wavelengths)
12/05/2016 14:00:08.000 - Finished the stellar emission phase in 6 s.
12/05/2016 14:00:08.100   Library entries in use: 1 out of 1.
12/05/2016 14:00:08.200   Dust emission spectra calculated.
12/05/2016 14:00:08.300   Launching 1e+05 photon packages (1000 photon packages for each of 100 wavelengths)
12/05/2016 14:00:09.000   Dust emission spectra calculated.
12/05/2016 14:00:09.100   Launching 1e+05 photon packages (2000 photon packages for each of 100 wavelengths)
12/05/2016 14:00:09.800 - Finished the dust emission phase in 1.6 s.
12/05/2016 14:00:09.900   Starting writing results...
12/05/2016 14:00:10.000 - Finished writing results in 0.1 s.
12/05/2016 14:00:10.000 - Finished simulation galaxy in 10.0 s
12/05/2016 14:00:10.000   Peak memory usage: 1.25 GB
`

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func openLog(t *testing.T, content string) *LogFile {
	t.Helper()
	log, err := parse.Parse(strings.NewReader(content), "galaxy_log.txt")
	require.NoError(t, err)
	return NewLogFile("galaxy_log.txt", log)
}

func TestLogFileFacts(t *testing.T) {
	lf := openLog(t, fullLog)

	assert.False(t, lf.T0Computed())
	t0, err := lf.T0()
	require.NoError(t, err)
	assert.True(t, lf.T0Computed())
	assert.Equal(t, time.Date(2016, time.May, 12, 14, 0, 0, 0, time.UTC), t0)

	tLast, err := lf.TLast()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, tLast.Sub(t0))

	host, ok := lf.Host()
	assert.True(t, ok)
	assert.Equal(t, "node17", host)

	runtime, ok := lf.TotalRuntime()
	assert.True(t, ok)
	assert.InDelta(t, 10.0, runtime, 1e-9)

	peak, err := lf.PeakMemory()
	require.NoError(t, err)
	assert.InDelta(t, 1.25, peak, 1e-9)

	stellar, ok := lf.StellarPackages()
	assert.True(t, ok)
	assert.Equal(t, 10000, stellar)

	dust, ok := lf.DustPackages()
	assert.True(t, ok)
	assert.Equal(t, 2000, dust)

	wl, ok := lf.Wavelengths()
	assert.True(t, ok)
	assert.Equal(t, 100, wl)

	cells, ok := lf.DustCells()
	assert.True(t, ok)
	assert.Equal(t, 897, cells)

	nodes, ok := lf.TreeNodes()
	assert.True(t, ok)
	assert.Equal(t, 1025, nodes)

	levels, ok := lf.TreeLevels()
	assert.True(t, ok)
	assert.Equal(t, 3, levels)

	dist, ok := lf.TreeLeafDistribution()
	assert.True(t, ok)
	assert.Equal(t, LeafDistribution{{0, 0}, {1, 7}, {2, 50}}, dist)
	fr := dist.Fractions()
	assert.InDelta(t, 7.0/57.0, fr[1], 1e-12)

	procs, err := lf.Processes()
	require.NoError(t, err)
	assert.Equal(t, 2, procs)

	threads, err := lf.Threads()
	require.NoError(t, err)
	assert.Equal(t, 3, threads)
}

func TestLogFileMissingOptional(t *testing.T) {
	lf := openLog(t, "12/05/2016 14:00:00.100   Starting simulation galaxy...\n"+
		"12/05/2016 14:00:01.000   Something\n")

	_, ok := lf.StellarPackages()
	assert.False(t, ok)
	_, ok = lf.DustPackages()
	assert.False(t, ok)
	_, ok = lf.DustCells()
	assert.False(t, ok)
	_, ok = lf.TreeNodes()
	assert.False(t, ok)
	_, ok = lf.TreeLevels()
	assert.False(t, ok)
	_, ok = lf.TreeLeafDistribution()
	assert.False(t, ok)
	_, ok = lf.TotalRuntime()
	assert.False(t, ok)
	_, ok = lf.Host()
	assert.False(t, ok)

	procs, err := lf.Processes()
	require.NoError(t, err)
	assert.Equal(t, 1, procs)
}

func TestLogFileMissingRequired(t *testing.T) {
	lf := openLog(t, "12/05/2016 14:00:00.100   Hello\n")

	_, err := lf.Processes()
	assert.ErrorIs(t, err, ErrMissingMarker)
	assert.Contains(t, err.Error(), "Starting simulation")

	_, err = lf.Threads()
	assert.ErrorIs(t, err, ErrMissingMarker)

	_, err = lf.PeakMemory()
	assert.ErrorIs(t, err, ErrAborted)
}

func TestLogFileEmpty(t *testing.T) {
	lf := openLog(t, "")
	_, err := lf.T0()
	assert.ErrorIs(t, err, ErrEmptyLog)
	_, err = lf.TLast()
	assert.ErrorIs(t, err, ErrEmptyLog)
	assert.Equal(t, "", lf.LastMessage())
}

func TestLogFileCachesErrors(t *testing.T) {
	lf := openLog(t, "12/05/2016 14:00:00.100   Hello\n")
	_, err1 := lf.Processes()
	_, err2 := lf.Processes()
	assert.Same(t, err1, err2)
}

func TestLogFileConcurrentAccess(t *testing.T) {
	lf := openLog(t, fullLog)
	want := time.Date(2016, time.May, 12, 14, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lf.T0Computed()
			t0, err := lf.T0()
			assert.NoError(t, err)
			assert.Equal(t, want, t0)
			assert.True(t, lf.T0Computed())
		}()
	}
	wg.Wait()
	assert.True(t, lf.T0Computed())
}

func TestSimulationLogFiles(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "galaxy_logP1.txt", fullLog)
	writeLog(t, dir, "galaxy_log.txt", fullLog)
	writeLog(t, dir, "other_log.txt", fullLog)

	sim := &Simulation{Dir: dir, Prefix: "galaxy", Workers: 2}
	logs, err := sim.LogFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, 0, logs[0].Process)
	assert.Equal(t, 1, logs[1].Process)
	assert.Equal(t, "galaxy", logs[1].Prefix)
}

func TestSimulationLogFilesErrors(t *testing.T) {
	dir := t.TempDir()
	sim := &Simulation{Dir: dir, Prefix: "galaxy"}
	_, err := sim.LogFiles(context.Background())
	assert.ErrorIs(t, err, ErrNoLogFiles)

	writeLog(t, dir, "galaxy_log.txt", "12/05/2016 14:00:00.100 ? broken\n")
	_, err = sim.LogFiles(context.Background())
	assert.ErrorIs(t, err, parse.ErrMalformedLine)
}
