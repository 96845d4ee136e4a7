package parse

import "time"

// Severity is the one-character message type flag of a SKIRT log line.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Entry struct {
	Time      time.Time
	TimeKnown bool // false when the timestamp could not be parsed
	Phase     Phase
	Message   string
	Severity  Severity
	Memory    float64 // GB, only set when HasMemory
	HasMemory bool
	Line      int // 1-based line number in the raw file
}

// ParsedLog is the parsed contents of the log file written by one process.
type ParsedLog struct {
	Name          string // base name of the log file
	Prefix        string // simulation prefix
	Process       int    // process rank
	Verbose       bool
	MemoryLogging bool
	Entries       []Entry
}

// Columns lists the table columns this log provides. The memory column is only
// present when the simulation ran with memory logging.
func (p *ParsedLog) Columns() []string {
	cols := []string{"Time", "Phase", "Message", "Type"}
	if p.MemoryLogging {
		cols = append(cols, "Memory")
	}
	return cols
}

// Len returns the number of entries.
func (p *ParsedLog) Len() int {
	return len(p.Entries)
}
