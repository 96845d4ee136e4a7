package timeline

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFormat(t *testing.T) {
	table := sampleTable(t)
	var buf bytes.Buffer
	require.NoError(t, table.Write(&buf))

	out := buf.String()
	lines := strings.Split(out, "\n")
	assert.Equal(t, "# %ECSV 1.0", lines[0])
	assert.Equal(t, "# ---", lines[1])
	assert.Contains(t, out, "unit: s")
	assert.Contains(t, out, `"Process rank" "Simulation phase" "Start time" "End time"`)
	assert.Contains(t, out, "\n0 start 0 0.5\n")
	assert.Contains(t, out, `0 "" 3 4`)
}

func TestRoundTrip(t *testing.T) {
	table := sampleTable(t)
	var buf bytes.Buffer
	require.NoError(t, table.Write(&buf))

	back, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, table.Rows(), back.Rows())
	assert.Equal(t, table.Summary(), back.Summary())
}

func TestRoundTripAwkwardFloats(t *testing.T) {
	table, err := NewTable([]Row{
		{0, "start", 0.1 + 0.2, 1.0 / 3.0},
		{0, "", 1.0 / 3.0, 1e-7},
		{0, "dust", 12345.678901234567, 1e21},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, table.Write(&buf))
	back, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, table.Rows(), back.Rows())
}

func TestSaveLoad(t *testing.T) {
	table := sampleTable(t)
	path := filepath.Join(t.TempDir(), "timeline.dat")

	assert.Error(t, table.Save())
	require.NoError(t, table.SaveTo(path))
	assert.Equal(t, path, table.Path)
	require.NoError(t, table.Save())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, loaded.Path)
	assert.True(t, table.Equal(loaded))
}

func TestReadRejects(t *testing.T) {
	valid := func() string {
		var buf bytes.Buffer
		table, _ := NewTable([]Row{{0, "start", 0, 1}})
		_ = table.Write(&buf)
		return buf.String()
	}()

	tests := []struct {
		name  string
		input string
	}{
		{"no signature", "Process rank\n0 start 0 1\n"},
		{"no column names", "# %ECSV 1.0\n# ---\n"},
		{"wrong unit", strings.Replace(valid, "unit: s", "unit: min", 1)},
		{"bad phase", valid + "0 bogus 1 2\n"},
		{"bad rank", valid + "x start 1 2\n"},
		{"too few fields", valid + "0 start 1\n"},
		{"unterminated quote", valid + "0 \"start 1 2\n"},
		{"renamed column", strings.Replace(valid, `"End time"`, `"Stop time"`, 1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.input))
			assert.ErrorIs(t, err, ErrBadFormat)
		})
	}
}

func TestSplitFields(t *testing.T) {
	fields, err := splitFields(`0 "" 1.5 "a ""b"" c"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "", "1.5", `a "b" c`}, fields)
}
