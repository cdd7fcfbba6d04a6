// Package logx adds levels and subsystem tags on top of a hal.Logger sink.
//
// Lines look like "W netcfg: entry 0042 skipped: malformed value".
package logx

import (
	"fmt"
	"sync/atomic"

	"wallclock/hal"
)

// Level orders log severities.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", l)
	}
}

func (l Level) letter() byte {
	switch l {
	case LevelDebug:
		return 'D'
	case LevelInfo:
		return 'I'
	case LevelWarn:
		return 'W'
	default:
		return 'E'
	}
}

// ParseLevel accepts the names printed by Level.String.
func ParseLevel(s string) (Level, error) {
	for l := LevelDebug; l <= LevelError; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Root owns the sink and the minimum level shared by every tagged Logger.
type Root struct {
	sink hal.Logger
	min  atomic.Uint32
	tee  atomic.Pointer[func(line string)]
}

// New returns a Root writing to sink. A nil sink discards everything.
func New(sink hal.Logger, min Level) *Root {
	r := &Root{sink: sink}
	r.min.Store(uint32(min))
	return r
}

// SetLevel changes the minimum level.
func (r *Root) SetLevel(l Level) { r.min.Store(uint32(l)) }

// Tee mirrors every emitted line to fn as well as the sink. Passing nil
// removes the mirror.
func (r *Root) Tee(fn func(line string)) {
	if fn == nil {
		r.tee.Store(nil)
		return
	}
	r.tee.Store(&fn)
}

// Tag returns a Logger that prefixes lines with tag.
func (r *Root) Tag(tag string) *Logger {
	return &Logger{root: r, tag: tag}
}

// Logger writes tagged, levelled lines.
type Logger struct {
	root *Root
	tag  string
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

// Enabled reports whether lines at lvl are emitted.
func (l *Logger) Enabled(lvl Level) bool {
	return l != nil && l.root != nil && uint32(lvl) >= l.root.min.Load()
}

func (l *Logger) logf(lvl Level, format string, args ...any) {
	if !l.Enabled(lvl) {
		return
	}
	line := string(lvl.letter()) + " " + l.tag + ": " + fmt.Sprintf(format, args...)
	if l.root.sink != nil {
		l.root.sink.WriteLineString(line)
	}
	if fn := l.root.tee.Load(); fn != nil {
		(*fn)(line)
	}
}

// Discard is a Logger that never emits.
var Discard = &Logger{}
