package parse

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

// Column layout of a plain SKIRT log line:
//
//	DD/MM/YYYY HH:MM:SS.mmm   message
//	                        ^ severity flag
const (
	SeverityOffset = 24
	MessageOffset  = 26
)

// FatalMarker flags lines that SKIRT writes when it aborts a cycle; they are
// not part of the regular message stream.
const FatalMarker = "*** Error:"

var ErrMalformedLine = errors.New("unrecognized log line format")

// ParseFile opens and parses the log file at path.
func ParseFile(path string) (*ParsedLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f, filepath.Base(path))
}

// Parse reads a SKIRT log from r. name is the base name of the log file and is
// used to derive the simulation prefix and the process rank.
func Parse(r io.Reader, name string) (*ParsedLog, error) {
	prefix, rank := ParseLogName(name)
	result := &ParsedLog{
		Name:    name,
		Prefix:  prefix,
		Process: rank,
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	detected := false
	var mode Mode
	current := PhaseNone

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.Contains(line, FatalMarker) {
			continue
		}

		ts, ok := ParseLineTime(line)

		// the logging mode is decided by the first line only
		if !detected {
			mode = DetectMode(line)
			result.Verbose = mode.Verbose
			result.MemoryLogging = mode.Memory
			detected = true
		}

		entry := Entry{
			Time:      ts,
			TimeKnown: ok,
			Line:      lineNum,
		}

		msg, mem, err := mode.Split(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, lineNum, err)
		}
		entry.Message = msg
		if mode.Memory {
			entry.Memory = mem
			entry.HasMemory = true
		}

		if len(line) <= SeverityOffset {
			return nil, fmt.Errorf("%s:%d: %w: line too short", name, lineNum, ErrMalformedLine)
		}
		sev, err := severityOf(line[SeverityOffset])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, lineNum, err)
		}
		entry.Severity = sev

		current = NextPhase(line, current)
		entry.Phase = current

		result.Entries = append(result.Entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return result, nil
}

// Mode is the logging mode of a SKIRT log. It is fixed by the first line.
type Mode struct {
	Verbose bool // messages carry a [P<rank>] tag
	Memory  bool // messages carry a (<x> GB) tag
}

// DetectMode decides the logging mode from the first line of a log.
func DetectMode(line string) Mode {
	return Mode{
		Verbose: strings.Contains(line, "[P"),
		Memory:  strings.Contains(line, "GB)"),
	}
}

// Split returns the message of line without its mode tags, and the memory
// usage when memory logging is on.
func (m Mode) Split(line string) (msg string, mem float64, err error) {
	switch {
	case m.Memory:
		mem, msg, err = splitMemory(line)
		return msg, mem, err
	case m.Verbose:
		var ok bool
		if _, msg, ok = strings.Cut(line, "] "); !ok {
			return "", 0, fmt.Errorf("%w: missing process tag", ErrMalformedLine)
		}
		return msg, 0, nil
	}
	if len(line) > MessageOffset {
		return line[MessageOffset:], 0, nil
	}
	return "", 0, nil
}

func severityOf(c byte) (Severity, error) {
	switch c {
	case ' ':
		return SeverityInfo, nil
	case '-':
		return SeveritySuccess, nil
	case '!':
		return SeverityWarning, nil
	case '*':
		return SeverityError, nil
	}
	return "", fmt.Errorf("%w: severity flag %q", ErrMalformedLine, c)
}

// splitMemory extracts the memory usage and the message from a line written
// with memory logging: "... (1.23 GB) message".
func splitMemory(line string) (float64, string, error) {
	_, rest, ok := strings.Cut(line, " (")
	if !ok {
		return 0, "", fmt.Errorf("%w: missing memory tag", ErrMalformedLine)
	}
	value, _, ok := strings.Cut(rest, " GB)")
	if !ok {
		return 0, "", fmt.Errorf("%w: missing memory tag", ErrMalformedLine)
	}
	mem, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: memory value %q", ErrMalformedLine, value)
	}
	_, msg, _ := strings.Cut(line, "GB) ")
	return mem, msg, nil
}

// ParseLogName derives the simulation prefix and the process rank from a log
// file name of the form <prefix>_log.txt or <prefix>_logP<rank>.txt. Names
// without a _logP<rank> suffix belong to the root process.
func ParseLogName(name string) (prefix string, rank int) {
	base := filepath.Base(name)
	prefix = strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.LastIndex(prefix, "_log"); i >= 0 {
		prefix = prefix[:i]
	}

	_, after, ok := strings.Cut(base, "_logP")
	if !ok {
		return prefix, 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(after, ".txt"))
	if err != nil || n < 0 {
		return prefix, 0
	}
	return prefix, n
}
