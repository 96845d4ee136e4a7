package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Zuo-Peng/skirt-timeline/internal/parse"
)

type FileInfo struct {
	Path   string
	Dir    string
	Prefix string
	Rank   int
	Mtime  int64
	Size   int64
}

// Run is the set of log files written by one simulation.
type Run struct {
	Key    string // "<dir>/<prefix>"
	Dir    string
	Prefix string
	Files  []FileInfo // ascending rank
}

// Mtime returns the latest modification time of the run's log files.
func (r Run) Mtime() int64 {
	var m int64
	for _, f := range r.Files {
		if f.Mtime > m {
			m = f.Mtime
		}
	}
	return m
}

// Size returns the combined size of the run's log files.
func (r Run) Size() int64 {
	var s int64
	for _, f := range r.Files {
		s += f.Size
	}
	return s
}

// IsLogName reports whether name looks like a SKIRT log file.
func IsLogName(name string) bool {
	if filepath.Ext(name) != ".txt" {
		return false
	}
	base := strings.TrimSuffix(name, ".txt")
	if strings.HasSuffix(base, "_log") {
		return true
	}
	i := strings.LastIndex(base, "_logP")
	if i < 0 {
		return false
	}
	digits := base[i+len("_logP"):]
	if digits == "" {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FindLogs lists the log files of the simulation with the given prefix in dir,
// ordered by process rank.
func FindLogs(dir, prefix string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !IsLogName(e.Name()) {
			continue
		}
		p, rank := parse.ParseLogName(e.Name())
		if p != prefix {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:   filepath.Join(dir, e.Name()),
			Dir:    dir,
			Prefix: p,
			Rank:   rank,
			Mtime:  info.ModTime().Unix(),
			Size:   info.Size(),
		})
	}
	sortByRank(files)
	return files, nil
}

// ScanRoot walks root and groups every log file it finds into runs.
func ScanRoot(root string) ([]Run, error) {
	var files []FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsLogName(info.Name()) {
			return nil
		}
		prefix, rank := parse.ParseLogName(info.Name())
		files = append(files, FileInfo{
			Path:   path,
			Dir:    filepath.Dir(path),
			Prefix: prefix,
			Rank:   rank,
			Mtime:  info.ModTime().Unix(),
			Size:   info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GroupRuns(files), nil
}

// GroupRuns groups log files by directory and prefix. Runs are sorted by key.
func GroupRuns(files []FileInfo) []Run {
	byKey := make(map[string]*Run)
	var keys []string
	for _, f := range files {
		key := RunKey(f.Dir, f.Prefix)
		r, ok := byKey[key]
		if !ok {
			r = &Run{Key: key, Dir: f.Dir, Prefix: f.Prefix}
			byKey[key] = r
			keys = append(keys, key)
		}
		r.Files = append(r.Files, f)
	}
	sort.Strings(keys)

	runs := make([]Run, 0, len(keys))
	for _, k := range keys {
		r := byKey[k]
		sortByRank(r.Files)
		runs = append(runs, *r)
	}
	return runs
}

// RunKey identifies a simulation run.
func RunKey(dir, prefix string) string {
	return filepath.Join(dir, prefix)
}

func sortByRank(files []FileInfo) {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Rank < files[j].Rank
	})
}
