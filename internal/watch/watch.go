package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nxadm/tail"
	"go.uber.org/zap"

	"github.com/Zuo-Peng/skirt-timeline/internal/parse"
)

// Transition is a change of the active phase in a log being written.
type Transition struct {
	Time      time.Time
	TimeKnown bool
	From      parse.Phase
	To        parse.Phase
	Line      int
	Message   string
}

func (t Transition) String() string {
	ts := "??:??:??.???"
	if t.TimeKnown {
		ts = t.Time.Format("15:04:05.000")
	}
	return fmt.Sprintf("%s  %-7s -> %-7s  %s", ts, t.From, t.To, t.Message)
}

// Follower reads a SKIRT log line by line and reports phase transitions.
type Follower struct {
	Path   string
	Follow bool // keep reading as the log grows
	Poll   bool // poll for changes instead of using inotify
	Logger *zap.SugaredLogger
}

// finishMarker is written by the root process as the last regular message.
const finishMarker = "Finished simulation"

// Run calls fn for every transition until the log reports the end of the
// simulation, the file ends and Follow is false, or ctx is cancelled.
func (f *Follower) Run(ctx context.Context, fn func(Transition)) error {
	log := f.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	tailer, err := tail.TailFile(f.Path, tail.Config{
		Follow:    f.Follow,
		ReOpen:    f.Follow,
		MustExist: true,
		Poll:      f.Poll,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("tail %s: %w", f.Path, err)
	}
	defer tailer.Cleanup()

	current := parse.PhaseNone
	lineNum := 0
	var mode *parse.Mode
	for {
		select {
		case <-ctx.Done():
			tailer.Stop()
			return ctx.Err()

		case line, ok := <-tailer.Lines:
			if !ok {
				return tailer.Wait()
			}
			lineNum++
			if line.Err != nil {
				log.Warnw("read error", "file", f.Path, "line", lineNum, "error", line.Err)
				continue
			}
			text := strings.TrimRight(line.Text, "\r")
			if strings.TrimSpace(text) == "" || strings.Contains(text, parse.FatalMarker) {
				continue
			}
			if mode == nil {
				m := parse.DetectMode(text)
				mode = &m
			}

			next := parse.NextPhase(text, current)
			if next != current {
				ts, known := parse.ParseLineTime(text)
				fn(Transition{
					Time:      ts,
					TimeKnown: known,
					From:      current,
					To:        next,
					Line:      lineNum,
					Message:   message(*mode, text),
				})
				current = next
			}

			if strings.Contains(text, finishMarker) {
				log.Debugw("simulation finished", "file", f.Path, "lines", lineNum)
				tailer.Stop()
				return nil
			}
		}
	}
}

// message strips the timestamp and mode tags from line, falling back to the
// raw line when it does not match the mode.
func message(mode parse.Mode, line string) string {
	msg, _, err := mode.Split(line)
	if err != nil || msg == "" {
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(msg)
}
