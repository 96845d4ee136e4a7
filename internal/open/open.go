package open

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/skirt-timeline/internal/index"
	"github.com/Zuo-Peng/skirt-timeline/internal/parse"
	"github.com/Zuo-Peng/skirt-timeline/internal/scan"
)

var ErrPhaseNotFound = errors.New("phase does not occur in log")

// OpenRun opens the log of process rank of an indexed run in $EDITOR, at the
// line where phase first starts. An empty phase opens the log at its top.
func OpenRun(db *index.DB, runKey string, rank int, phase string) error {
	run, err := db.GetRunByKey(runKey)
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", runKey)
	}

	filePath, err := LogPath(run.Dir, run.Prefix, rank)
	if err != nil {
		return err
	}

	lineNum := 1
	if phase != "" {
		p, ok := parse.ParsePhase(phase)
		if !ok {
			return fmt.Errorf("unknown phase %q", phase)
		}
		if lineNum, err = PhaseLine(filePath, p); err != nil {
			return err
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}

	cmd := editorCommand(editor, filePath, lineNum)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// LogPath returns the path of the log written by process rank of a run.
func LogPath(dir, prefix string, rank int) (string, error) {
	files, err := scan.FindLogs(dir, prefix)
	if err != nil {
		return "", fmt.Errorf("list logs: %w", err)
	}
	for _, f := range files {
		if f.Rank == rank {
			return f.Path, nil
		}
	}
	return "", fmt.Errorf("no log for process %d of %s", rank, scan.RunKey(dir, prefix))
}

// PhaseLine returns the 1-based line number at which phase is first entered.
func PhaseLine(path string, phase parse.Phase) (int, error) {
	log, err := parse.ParseFile(path)
	if err != nil {
		return 0, err
	}
	for _, e := range log.Entries {
		if e.Phase == phase {
			return e.Line, nil
		}
	}
	return 0, fmt.Errorf("%s: %w: %s", path, ErrPhaseNotFound, phase)
}

func editorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		return exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		return exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"), strings.Contains(editor, "emacs"), strings.Contains(editor, "nano"):
		return exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		return exec.Command(editor, filePath)
	}
}
