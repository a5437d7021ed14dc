package pipeline

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level is the severity of a transcript line.
type Level int

const (
	LevelDebug Level = iota
	LevelMessage
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelError:
		return "error"
	default:
		return "message"
	}
}

// MarshalText renders the level by name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Line is one transcript entry.
type Line struct {
	Level Level     `json:"level"`
	Text  string    `json:"text"`
	Time  time.Time `json:"time"`
}

// String returns the line with its severity prefix.
func (l Line) String() string {
	switch l.Level {
	case LevelDebug:
		return "[Debug] " + l.Text
	case LevelError:
		return "[ERROR] " + l.Text
	default:
		return l.Text
	}
}

// Reporter records the run transcript. Debug lines are kept only when
// verbose; every line is mirrored to the zap logger.
type Reporter struct {
	mu       sync.Mutex
	lines    []Line
	verbose  bool
	logger   *zap.Logger
	observer Observer
}

// NewReporter creates a reporter. logger and observer may be nil.
func NewReporter(verbose bool, logger *zap.Logger, observer Observer) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{verbose: verbose, logger: logger, observer: observer}
}

func (r *Reporter) Debugf(format string, args ...any) {
	r.log(LevelDebug, fmt.Sprintf(format, args...))
}

func (r *Reporter) Messagef(format string, args ...any) {
	r.log(LevelMessage, fmt.Sprintf(format, args...))
}

func (r *Reporter) Errorf(format string, args ...any) {
	r.log(LevelError, fmt.Sprintf(format, args...))
}

func (r *Reporter) log(level Level, text string) {
	switch level {
	case LevelDebug:
		r.logger.Debug(text)
	case LevelError:
		r.logger.Error(text)
	default:
		r.logger.Info(text)
	}

	if level == LevelDebug && !r.verbose {
		return
	}

	line := Line{Level: level, Text: text, Time: time.Now()}
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()

	if r.observer != nil {
		r.observer.LineLogged(line)
	}
}

// Lines returns a copy of the transcript.
func (r *Reporter) Lines() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Line, len(r.lines))
	copy(out, r.lines)
	return out
}

// Text returns the transcript as prefixed lines.
func (r *Reporter) Text() string {
	var b strings.Builder
	for _, l := range r.Lines() {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return b.String()
}
