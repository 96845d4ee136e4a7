package parse

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	ts, ok := ParseTimestamp("03/04/2020", "10:22:01.123")
	require.True(t, ok)
	assert.Equal(t, time.Date(2020, time.April, 3, 10, 22, 1, 123000000, time.UTC), ts)

	ts, ok = ParseTimestamp("03/04/2020", "10:22:01.000456")
	require.True(t, ok)
	assert.Equal(t, 456000, ts.Nanosecond())

	ts, ok = ParseTimestamp("03/04/2020", "10:22:01.5")
	require.True(t, ok)
	assert.Equal(t, 500*time.Millisecond, time.Duration(ts.Nanosecond()))

	ts, ok = ParseTimestamp("03/04/2020", "10:22:01.123456789")
	require.True(t, ok)
	assert.Equal(t, 123456000, ts.Nanosecond())

	ts, ok = ParseTimestamp("03/04/2020", "10:22:01")
	require.True(t, ok)
	assert.Equal(t, 0, ts.Nanosecond())
}

func TestParseTimestampInvalid(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		clock string
	}{
		{"two date fields", "03/04", "10:22:01.123"},
		{"four date fields", "03/04/2020/1", "10:22:01.123"},
		{"non numeric date", "aa/04/2020", "10:22:01.123"},
		{"bad clock", "03/04/2020", "10:22"},
		{"bad fraction", "03/04/2020", "10:22:01.x"},
		{"month out of range", "03/13/2020", "10:22:01.123"},
		{"day out of range", "31/04/2020", "10:22:01.123"},
		{"negative second", "03/04/2020", "10:22:-5.000"},
		{"negative hour", "03/04/2020", "-3:22:01.000"},
		{"hour out of range", "03/04/2020", "24:00:00.000"},
		{"empty fraction", "03/04/2020", "10:22:01."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := ParseTimestamp(tc.date, tc.clock)
			assert.False(t, ok)
		})
	}
}

func TestParseLineTime(t *testing.T) {
	ts, ok := ParseLineTime("03/04/2020 10:22:01.123   Starting the stellar emission phase")
	require.True(t, ok)
	assert.Equal(t, 22, ts.Minute())

	_, ok = ParseLineTime("garbage")
	assert.False(t, ok)
}

func TestNextPhase(t *testing.T) {
	tests := []struct {
		line    string
		current Phase
		want    Phase
	}{
		{"Starting simulation galaxy with 4 processes", PhaseNone, PhaseStart},
		{"Starting setup...", PhaseStart, PhaseSetup},
		{"Finished setup in 2.1 s.", PhaseSetup, PhaseNone},
		{"Waiting for other processes to finish the setup", PhaseNone, PhaseWait},
		{"Starting communication of the absorbed luminosities...", PhaseWait, PhaseComm},
		{"Starting communication of something new", PhaseWait, PhaseComm},
		{"Finished communication of something new", PhaseComm, PhaseNone},
		{"Finished communication of the dust densities", PhaseComm, PhaseNone},
		{"Starting the stellar emission phase...", PhaseNone, PhaseStellar},
		{"Finished the stellar emission phase in 6 s.", PhaseStellar, PhaseNone},
		{"Library entries in use: 1000 out of 1000.", PhaseNone, PhaseSpectra},
		{"Dust emission spectra calculated.", PhaseSpectra, PhaseDust},
		{"Finished the 2-stage dust self-absorption cycle in 3 s.", PhaseDust, PhaseNone},
		{"Finished the dust emission phase in 4 s.", PhaseDust, PhaseNone},
		{"Starting writing results...", PhaseNone, PhaseWrite},
		{"Finished writing results in 1 s.", PhaseWrite, PhaseNone},
		{"Launched photon packages: 50%", PhaseStellar, PhaseStellar},
		{"Some unrelated message", PhaseNone, PhaseNone},
	}
	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			assert.Equal(t, tc.want, NextPhase(tc.line, tc.current))
		})
	}
}

func TestNextPhaseStickyAfterStellar(t *testing.T) {
	phase := NextPhase("03/04/2020 10:22:01.123   Starting the stellar emission phase", PhaseSetup)
	assert.Equal(t, PhaseStellar, phase)

	phase = NextPhase("03/04/2020 10:22:02.500   Launched stellar emission photon packages: 10%", phase)
	assert.Equal(t, PhaseStellar, phase)
}

func TestParsePhase(t *testing.T) {
	for _, p := range Phases {
		got, ok := ParsePhase(string(p))
		require.True(t, ok)
		assert.Equal(t, p, got)
	}
	got, ok := ParsePhase("None")
	assert.True(t, ok)
	assert.Equal(t, PhaseNone, got)

	_, ok = ParsePhase("bogus")
	assert.False(t, ok)
}

func TestParseLogName(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		rank   int
	}{
		{"galaxy_log.txt", "galaxy", 0},
		{"galaxy_logP3.txt", "galaxy", 3},
		{"/tmp/run/my_model_logP12.txt", "my_model", 12},
		{"galaxy.txt", "galaxy", 0},
		{"galaxy_logPx.txt", "galaxy", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prefix, rank := ParseLogName(tc.name)
			assert.Equal(t, tc.prefix, prefix)
			assert.Equal(t, tc.rank, rank)
		})
	}
}

const plainLog = `03/04/2020 10:22:00.000   Welcome to SKIRT v8
03/04/2020 10:22:00.100   Starting simulation galaxy with 2 processes...
03/04/2020 10:22:00.200   Starting setup...
03/04/2020 10:22:01.000 ! Something looks odd
03/04/2020 10:22:02.000 - Finished setup in 1.8 s.
03/04/2020 10:22:02.000   Starting the stellar emission phase...
03/04/2020 10:22:03.000   Launched stellar emission photon packages: 50%
03/04/2020 10:22:04.000 * *** Error: Convergence not reached
03/04/2020 10:22:05.000 * Something failed but we continue
03/04/2020 10:22:08.000 - Finished the stellar emission phase in 6 s.
`

func TestParsePlain(t *testing.T) {
	log, err := Parse(strings.NewReader(plainLog), "galaxy_logP1.txt")
	require.NoError(t, err)

	assert.Equal(t, "galaxy", log.Prefix)
	assert.Equal(t, 1, log.Process)
	assert.False(t, log.Verbose)
	assert.False(t, log.MemoryLogging)
	assert.Equal(t, []string{"Time", "Phase", "Message", "Type"}, log.Columns())

	require.Equal(t, 9, log.Len())
	for _, e := range log.Entries {
		assert.NotContains(t, e.Message, "*** Error:")
	}

	first := log.Entries[0]
	assert.Equal(t, "Welcome to SKIRT v8", first.Message)
	assert.Equal(t, SeverityInfo, first.Severity)
	assert.Equal(t, PhaseNone, first.Phase)
	assert.True(t, first.TimeKnown)
	assert.Equal(t, 1, first.Line)

	assert.Equal(t, PhaseStart, log.Entries[1].Phase)
	assert.Equal(t, PhaseSetup, log.Entries[2].Phase)
	assert.Equal(t, SeverityWarning, log.Entries[3].Severity)
	assert.Equal(t, SeveritySuccess, log.Entries[4].Severity)
	assert.Equal(t, PhaseNone, log.Entries[4].Phase)
	assert.Equal(t, PhaseStellar, log.Entries[5].Phase)
	assert.Equal(t, PhaseStellar, log.Entries[6].Phase)

	// the error line without the fatal marker is kept
	errEntry := log.Entries[7]
	assert.Equal(t, SeverityError, errEntry.Severity)
	assert.Equal(t, "Something failed but we continue", errEntry.Message)
	assert.Equal(t, 9, errEntry.Line)
}

func TestParseVerbose(t *testing.T) {
	in := "03/04/2020 10:22:00.000   [P0] Starting simulation galaxy with 2 processes...\n" +
		"03/04/2020 10:22:01.000 - [P0] Finished setup in 1 s.\n"
	log, err := Parse(strings.NewReader(in), "galaxy_log.txt")
	require.NoError(t, err)

	assert.True(t, log.Verbose)
	assert.False(t, log.MemoryLogging)
	require.Equal(t, 2, log.Len())
	assert.Equal(t, "Starting simulation galaxy with 2 processes...", log.Entries[0].Message)
	assert.Equal(t, SeveritySuccess, log.Entries[1].Severity)
}

func TestParseVerboseMissingTag(t *testing.T) {
	in := "03/04/2020 10:22:00.000   [P0] Starting simulation galaxy with 2 processes...\n" +
		"03/04/2020 10:22:01.000   Starting setup...\n"
	_, err := Parse(strings.NewReader(in), "galaxy_log.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedLine)
	assert.Contains(t, err.Error(), "galaxy_log.txt:2")
}

func TestModeSplit(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantMsg string
		wantMem float64
		wantErr bool
	}{
		{"plain", "03/04/2020 10:22:00.000   Starting setup...", "Starting setup...", 0, false},
		{"verbose", "03/04/2020 10:22:00.000   [P3] Starting setup...", "Starting setup...", 0, false},
		{"memory", "03/04/2020 10:22:00.000   (1.5 GB) Starting setup...", "Starting setup...", 1.5, false},
		{"verbose without tag", "03/04/2020 10:22:00.000   Starting setup...", "", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mode := DetectMode(tc.line)
			if tc.wantErr {
				mode = Mode{Verbose: true}
			}
			msg, mem, err := mode.Split(tc.line)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMalformedLine)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantMsg, msg)
			assert.InDelta(t, tc.wantMem, mem, 1e-12)
		})
	}
}

func TestParseMemory(t *testing.T) {
	in := "03/04/2020 10:22:00.000   (0.25 GB) Starting simulation galaxy...\n" +
		"03/04/2020 10:22:01.000   (1.5 GB) Starting setup...\n"
	log, err := Parse(strings.NewReader(in), "galaxy_log.txt")
	require.NoError(t, err)

	assert.True(t, log.MemoryLogging)
	assert.Equal(t, []string{"Time", "Phase", "Message", "Type", "Memory"}, log.Columns())
	require.Equal(t, 2, log.Len())
	assert.InDelta(t, 0.25, log.Entries[0].Memory, 1e-12)
	assert.True(t, log.Entries[0].HasMemory)
	assert.Equal(t, "Starting setup...", log.Entries[1].Message)
	assert.InDelta(t, 1.5, log.Entries[1].Memory, 1e-12)
}

func TestParseMalformedSeverity(t *testing.T) {
	in := "03/04/2020 10:22:00.000   Starting simulation\n" +
		"03/04/2020 10:22:01.000 ? Strange flag\n"
	_, err := Parse(strings.NewReader(in), "galaxy_log.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedLine)
	assert.Contains(t, err.Error(), "galaxy_log.txt:2")
}

func TestParseUnknownTimestamp(t *testing.T) {
	in := "03/04/2020 10:22:00.000   Starting simulation\n" +
		"03-04-2020 10:22:01.000   Odd date format\n"
	log, err := Parse(strings.NewReader(in), "galaxy_log.txt")
	require.NoError(t, err)
	require.Equal(t, 2, log.Len())
	assert.True(t, log.Entries[0].TimeKnown)
	assert.False(t, log.Entries[1].TimeKnown)
	assert.Equal(t, PhaseStart, log.Entries[1].Phase)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "galaxy_logP2.txt")
	require.NoError(t, os.WriteFile(path, []byte(plainLog), 0o644))

	log, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, log.Process)
	assert.Equal(t, "galaxy_logP2.txt", log.Name)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing_log.txt"))
	assert.Error(t, err)
}
