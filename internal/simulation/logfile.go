package simulation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Zuo-Peng/skirt-timeline/internal/parse"
)

var (
	ErrMissingMarker = errors.New("required log message not found")
	ErrAborted       = errors.New("log file was aborted before it could state the peak memory usage")
	ErrEmptyLog      = errors.New("log file contains no timestamped entries")
)

// LevelCount is the number of tree leaf cells at one subdivision level.
type LevelCount struct {
	Level int
	Cells int
}

// LeafDistribution is the distribution of dust grid leaf cells over tree levels.
type LeafDistribution []LevelCount

// Fractions returns the fraction of leaf cells at each level.
func (d LeafDistribution) Fractions() []float64 {
	total := 0
	for _, lc := range d {
		total += lc.Cells
	}
	out := make([]float64, len(d))
	if total == 0 {
		return out
	}
	for i, lc := range d {
		out[i] = float64(lc.Cells) / float64(total)
	}
	return out
}

// LogFile gives access to the facts recorded in the log of one process.
// Every derived value is computed on first use and cached.
type LogFile struct {
	Path    string
	Prefix  string
	Process int
	Log     *parse.ParsedLog

	t0              lazy[time.Time]
	tLast           lazy[time.Time]
	host            lazy[optional[string]]
	totalRuntime    lazy[optional[float64]]
	peakMemory      lazy[float64]
	stellarPackages lazy[optional[int]]
	dustPackages    lazy[optional[int]]
	wavelengths     lazy[optional[int]]
	dustCells       lazy[optional[int]]
	treeNodes       lazy[optional[int]]
	treeLevels      lazy[optional[int]]
	leafDist        lazy[optional[LeafDistribution]]
	processes       lazy[int]
	threads         lazy[int]
}

// Open parses the log file at path.
func Open(path string) (*LogFile, error) {
	log, err := parse.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return NewLogFile(path, log), nil
}

// NewLogFile wraps an already parsed log.
func NewLogFile(path string, log *parse.ParsedLog) *LogFile {
	return &LogFile{
		Path:    path,
		Prefix:  log.Prefix,
		Process: log.Process,
		Log:     log,
	}
}

// Entries returns the parsed log entries.
func (l *LogFile) Entries() []parse.Entry {
	return l.Log.Entries
}

func (l *LogFile) markerError(marker string) error {
	return fmt.Errorf("%s: %w: %q", l.Path, ErrMissingMarker, marker)
}

// T0 returns the time of the first timestamped log message.
func (l *LogFile) T0() (time.Time, error) {
	return l.t0.get(func() (time.Time, error) {
		for _, e := range l.Log.Entries {
			if e.TimeKnown {
				return e.Time, nil
			}
		}
		return time.Time{}, fmt.Errorf("%s: %w", l.Path, ErrEmptyLog)
	})
}

// TLast returns the time of the last timestamped log message.
func (l *LogFile) TLast() (time.Time, error) {
	return l.tLast.get(func() (time.Time, error) {
		entries := l.Log.Entries
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].TimeKnown {
				return entries[i].Time, nil
			}
		}
		return time.Time{}, fmt.Errorf("%s: %w", l.Path, ErrEmptyLog)
	})
}

// T0Computed reports whether T0 has been evaluated.
func (l *LogFile) T0Computed() bool {
	return l.t0.Computed()
}

// LastMessage returns the text of the last log message.
func (l *LogFile) LastMessage() string {
	if len(l.Log.Entries) == 0 {
		return ""
	}
	return l.Log.Entries[len(l.Log.Entries)-1].Message
}

// Host returns the name of the machine the simulation ran on.
func (l *LogFile) Host() (string, bool) {
	v, _ := l.host.get(func() (optional[string], error) {
		for _, e := range l.Log.Entries {
			if !strings.Contains(e.Message, "Running on") {
				continue
			}
			_, after, _ := strings.Cut(e.Message, "on ")
			host, _, _ := strings.Cut(after, " for")
			return some(host)
		}
		return none[string]()
	})
	return v.v, v.ok
}

// TotalRuntime returns the runtime in seconds stated by the "Finished simulation" message.
func (l *LogFile) TotalRuntime() (float64, bool) {
	v, _ := l.totalRuntime.get(func() (optional[float64], error) {
		for _, e := range l.Log.Entries {
			if !strings.Contains(e.Message, "Finished simulation") {
				continue
			}
			_, after, ok := strings.Cut(e.Message, " in ")
			if !ok {
				continue
			}
			secs, _, _ := strings.Cut(after, " s")
			f, err := strconv.ParseFloat(strings.TrimSpace(secs), 64)
			if err != nil {
				continue
			}
			return some(f)
		}
		return none[float64]()
	})
	return v.v, v.ok
}

// PeakMemory returns the peak memory usage in GB stated by the last log message.
func (l *LogFile) PeakMemory() (float64, error) {
	return l.peakMemory.get(func() (float64, error) {
		last := l.LastMessage()
		if !strings.Contains(last, "Peak memory usage") {
			return 0, fmt.Errorf("%s: %w", l.Path, ErrAborted)
		}
		_, after, _ := strings.Cut(last, "Peak memory usage: ")
		value, _, _ := strings.Cut(after, " GB")
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, fmt.Errorf("%s: peak memory %q: %w", l.Path, value, err)
		}
		return f, nil
	})
}

// packagesOf extracts N from "... (N photon packages for each of ...".
func packagesOf(msg string) (int, bool) {
	if !strings.Contains(msg, "photon packages for each of") {
		return 0, false
	}
	_, after, ok := strings.Cut(msg, "(")
	if !ok {
		return 0, false
	}
	num, _, _ := strings.Cut(after, " photon")
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return 0, false
	}
	return n, true
}

// StellarPackages returns the number of photon packages launched per wavelength
// in the stellar emission phase.
func (l *LogFile) StellarPackages() (int, bool) {
	v, _ := l.stellarPackages.get(func() (optional[int], error) {
		for _, e := range l.Log.Entries {
			if e.Phase != parse.PhaseStellar {
				continue
			}
			if n, ok := packagesOf(e.Message); ok {
				return some(n)
			}
		}
		return none[int]()
	})
	return v.v, v.ok
}

// DustPackages returns the number of photon packages launched per wavelength
// in the final dust emission phase.
func (l *LogFile) DustPackages() (int, bool) {
	v, _ := l.dustPackages.get(func() (optional[int], error) {
		entries := l.Log.Entries
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].Phase != parse.PhaseDust {
				continue
			}
			if n, ok := packagesOf(entries[i].Message); ok {
				return some(n)
			}
		}
		return none[int]()
	})
	return v.v, v.ok
}

// Wavelengths returns the number of wavelengths photon packages were launched for.
func (l *LogFile) Wavelengths() (int, bool) {
	v, _ := l.wavelengths.get(func() (optional[int], error) {
		for _, e := range l.Log.Entries {
			if !strings.Contains(e.Message, "photon packages for each of") {
				continue
			}
			_, after, _ := strings.Cut(e.Message, "for each of ")
			num, _, _ := strings.Cut(after, " wavelengths")
			if n, err := strconv.Atoi(strings.TrimSpace(num)); err == nil {
				return some(n)
			}
		}
		return none[int]()
	})
	return v.v, v.ok
}

func (l *LogFile) countAfterColon(marker string) (optional[int], error) {
	for _, e := range l.Log.Entries {
		if !strings.Contains(e.Message, marker) {
			continue
		}
		_, after, _ := strings.Cut(e.Message, ": ")
		if n, err := strconv.Atoi(strings.TrimSpace(after)); err == nil {
			return some(n)
		}
	}
	return none[int]()
}

// DustCells returns the number of cells (tree leaves) in the dust grid.
func (l *LogFile) DustCells() (int, bool) {
	v, _ := l.dustCells.get(func() (optional[int], error) {
		return l.countAfterColon("Total number of leaves")
	})
	return v.v, v.ok
}

// TreeNodes returns the number of nodes in the dust grid tree.
func (l *LogFile) TreeNodes() (int, bool) {
	v, _ := l.treeNodes.get(func() (optional[int], error) {
		return l.countAfterColon("Total number of nodes")
	})
	return v.v, v.ok
}

// TreeLevels returns the deepest subdivision level reached when the tree was built.
func (l *LogFile) TreeLevels() (int, bool) {
	v, _ := l.treeLevels.get(func() (optional[int], error) {
		level, seen := 0, false
		for _, e := range l.Log.Entries {
			switch {
			case strings.Contains(e.Message, "Starting subdivision of level"):
				_, after, _ := strings.Cut(e.Message, "of level ")
				num, _, _ := strings.Cut(after, "...")
				if n, err := strconv.Atoi(strings.TrimSpace(num)); err == nil {
					level, seen = n, true
				}
			case strings.Contains(e.Message, "Construction of the tree finished"):
				if seen {
					return some(level)
				}
				return none[int]()
			}
		}
		return none[int]()
	})
	return v.v, v.ok
}

// TreeLeafDistribution returns the number of leaf cells per tree level.
func (l *LogFile) TreeLeafDistribution() (LeafDistribution, bool) {
	v, _ := l.leafDist.get(func() (optional[LeafDistribution], error) {
		var dist LeafDistribution
		level := -1
		for _, e := range l.Log.Entries {
			if strings.Contains(e.Message, "Number of leaf cells of each level") {
				level = 0
				dist = nil
				continue
			}
			if level < 0 {
				continue
			}
			label := "Level " + strconv.Itoa(level) + ": "
			if !strings.Contains(e.Message, label) {
				return some(dist)
			}
			_, after, _ := strings.Cut(e.Message, label)
			num, _, _ := strings.Cut(after, " cells")
			n, err := strconv.Atoi(strings.TrimSpace(num))
			if err != nil {
				return some(dist)
			}
			dist = append(dist, LevelCount{Level: level, Cells: n})
			level++
		}
		return none[LeafDistribution]()
	})
	return v.v, v.ok
}

// Processes returns the number of processes the simulation was started with.
func (l *LogFile) Processes() (int, error) {
	return l.processes.get(func() (int, error) {
		for _, e := range l.Log.Entries {
			if !strings.Contains(e.Message, "Starting simulation") {
				continue
			}
			if !strings.Contains(e.Message, "with") {
				return 1, nil
			}
			_, after, ok := strings.Cut(e.Message, " with ")
			fields := strings.Fields(after)
			if !ok || len(fields) == 0 {
				return 0, fmt.Errorf("%s: cannot read process count from %q", l.Path, e.Message)
			}
			n, err := strconv.Atoi(fields[0])
			if err != nil {
				return 0, fmt.Errorf("%s: cannot read process count from %q: %w", l.Path, e.Message, err)
			}
			return n, nil
		}
		return 0, l.markerError("Starting simulation")
	})
}

// Threads returns the number of threads per process, counted from the random
// number generator initialization messages.
func (l *LogFile) Threads() (int, error) {
	return l.threads.get(func() (int, error) {
		triggered := false
		maxIndex := 0
		for _, e := range l.Log.Entries {
			if strings.Contains(e.Message, "Initializing random number generator") {
				_, after, _ := strings.Cut(e.Message, "thread number ")
				num, _, _ := strings.Cut(after, " with seed")
				n, err := strconv.Atoi(strings.TrimSpace(num))
				if err != nil {
					return 0, fmt.Errorf("%s: cannot read thread index from %q: %w", l.Path, e.Message, err)
				}
				triggered = true
				maxIndex = n
			} else if triggered {
				return maxIndex + 1, nil
			}
		}
		if triggered {
			return maxIndex + 1, nil
		}
		return 0, l.markerError("Initializing random number generator")
	})
}
