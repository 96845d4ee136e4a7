package timeline

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Zuo-Peng/skirt-timeline/internal/parse"
)

// Tables are stored as ECSV: a YAML header in comment lines that names the
// columns with their types and units, followed by space separated rows.

const (
	ecsvSignature = "# %ECSV 1.0"
	ecsvSeparator = "# ---"

	ColProcess = "Process rank"
	ColPhase   = "Simulation phase"
	ColStart   = "Start time"
	ColEnd     = "End time"

	timeUnit = "s"
)

var ErrBadFormat = errors.New("not a timeline table")

type ecsvColumn struct {
	Name     string `yaml:"name"`
	Unit     string `yaml:"unit,omitempty"`
	Datatype string `yaml:"datatype"`
}

type ecsvHeader struct {
	Delimiter string            `yaml:"delimiter,omitempty"`
	Datatype  []ecsvColumn      `yaml:"datatype"`
	Meta      map[string]string `yaml:"meta,omitempty"`
	Schema    string            `yaml:"schema,omitempty"`
}

var timelineColumns = []ecsvColumn{
	{Name: ColProcess, Datatype: "int64"},
	{Name: ColPhase, Datatype: "string"},
	{Name: ColStart, Unit: timeUnit, Datatype: "float64"},
	{Name: ColEnd, Unit: timeUnit, Datatype: "float64"},
}

// Write writes the table in ECSV format.
func (t *Table) Write(w io.Writer) error {
	hdr, err := yaml.Marshal(ecsvHeader{
		Datatype: timelineColumns,
		Schema:   "astropy-2.0",
	})
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(ecsvSignature + "\n")
	bw.WriteString(ecsvSeparator + "\n")
	for _, line := range strings.Split(strings.TrimRight(string(hdr), "\n"), "\n") {
		fmt.Fprintf(bw, "# %s\n", line)
	}

	names := make([]string, len(timelineColumns))
	for i, c := range timelineColumns {
		names[i] = quoteField(c.Name)
	}
	fmt.Fprintln(bw, strings.Join(names, " "))

	for _, r := range t.rows {
		fmt.Fprintf(bw, "%d %s %s %s\n",
			r.Process,
			quoteField(string(r.Phase)),
			strconv.FormatFloat(r.Start, 'g', -1, 64),
			strconv.FormatFloat(r.End, 'g', -1, 64),
		)
	}
	return bw.Flush()
}

// SaveTo writes the table to path and remembers the path.
func (t *Table) SaveTo(path string) error {
	var buf bytes.Buffer
	if err := t.Write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	t.Path = path
	return nil
}

// Save writes the table back to the path it was loaded from or last saved to.
func (t *Table) Save() error {
	if t.Path == "" {
		return errors.New("table has no path")
	}
	return t.SaveTo(t.Path)
}

// Load reads a table written by SaveTo.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Path = path
	return t, nil
}

// Read parses an ECSV timeline table.
func Read(r io.Reader) (*Table, error) {
	scanner := bufio.NewScanner(r)

	var hdrLines []string
	lineNum := 0
	inHeader := false
	var names []string
	var rows []Row

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")

		if lineNum == 1 {
			if !strings.HasPrefix(line, "# %ECSV") {
				return nil, fmt.Errorf("%w: missing ECSV signature", ErrBadFormat)
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			if strings.TrimSpace(line) == ecsvSeparator {
				inHeader = true
				continue
			}
			if inHeader {
				hdrLines = append(hdrLines, strings.TrimPrefix(strings.TrimPrefix(line, "#"), " "))
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields, err := splitFields(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if names == nil {
			names = fields
			if err := checkHeader(hdrLines, names); err != nil {
				return nil, err
			}
			continue
		}
		row, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if names == nil {
		return nil, fmt.Errorf("%w: missing column names", ErrBadFormat)
	}
	return NewTable(rows)
}

func checkHeader(hdrLines, names []string) error {
	var hdr ecsvHeader
	if err := yaml.Unmarshal([]byte(strings.Join(hdrLines, "\n")), &hdr); err != nil {
		return fmt.Errorf("%w: header: %v", ErrBadFormat, err)
	}
	if hdr.Delimiter != "" && hdr.Delimiter != " " {
		return fmt.Errorf("%w: unsupported delimiter %q", ErrBadFormat, hdr.Delimiter)
	}
	if len(hdr.Datatype) != len(timelineColumns) || len(names) != len(timelineColumns) {
		return fmt.Errorf("%w: expected %d columns", ErrBadFormat, len(timelineColumns))
	}
	for i, want := range timelineColumns {
		got := hdr.Datatype[i]
		if got.Name != want.Name || names[i] != want.Name {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrBadFormat, i, got.Name, want.Name)
		}
		if got.Unit != want.Unit {
			return fmt.Errorf("%w: column %q has unit %q, want %q", ErrBadFormat, want.Name, got.Unit, want.Unit)
		}
	}
	return nil
}

func parseRow(fields []string) (Row, error) {
	if len(fields) != len(timelineColumns) {
		return Row{}, fmt.Errorf("%w: %d fields", ErrBadFormat, len(fields))
	}
	process, err := strconv.Atoi(fields[0])
	if err != nil {
		return Row{}, fmt.Errorf("%w: process rank %q", ErrBadFormat, fields[0])
	}
	phase, ok := parse.ParsePhase(fields[1])
	if !ok {
		return Row{}, fmt.Errorf("%w: phase %q", ErrBadFormat, fields[1])
	}
	start, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Row{}, fmt.Errorf("%w: start time %q", ErrBadFormat, fields[2])
	}
	end, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Row{}, fmt.Errorf("%w: end time %q", ErrBadFormat, fields[3])
	}
	return Row{Process: process, Phase: phase, Start: start, End: end}, nil
}

// quoteField quotes values that would otherwise not survive space splitting.
func quoteField(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// splitFields splits a space delimited line, honouring double quotes.
func splitFields(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuotes, quoted := false, false

	flush := func() {
		if cur.Len() > 0 || quoted {
			fields = append(fields, cur.String())
		}
		cur.Reset()
		quoted = false
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuotes && c == '"':
			if i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = false
			}
		case inQuotes:
			cur.WriteByte(c)
		case c == '"':
			inQuotes, quoted = true, true
		case c == ' ' || c == '\t':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("%w: unterminated quote", ErrBadFormat)
	}
	flush()
	return fields, nil
}
