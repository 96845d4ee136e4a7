package parse

import (
	"strings"
	"time"
)

// ParseLineTime parses the date and time fields that lead every log line.
func ParseLineTime(line string) (time.Time, bool) {
	fields := strings.SplitN(strings.TrimLeft(line, " \t"), " ", 3)
	if len(fields) < 2 {
		return time.Time{}, false
	}
	return ParseTimestamp(fields[0], fields[1])
}

const timestampLayout = "02/01/2006 15:04:05"

// ParseTimestamp combines a DD/MM/YYYY date token and a HH:MM:SS.fff time token.
// The fraction is read as a decimal fraction of a second and truncated to
// microseconds. ok is false when either token is malformed.
func ParseTimestamp(date, clock string) (time.Time, bool) {
	if strings.Count(date, "/") != 2 {
		return time.Time{}, false
	}
	t, err := time.Parse(timestampLayout, date+" "+clock)
	if err != nil {
		return time.Time{}, false
	}
	return t.Truncate(time.Microsecond), true
}
