package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// LogLevel is the [logging].level enum from the configuration file.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
	LevelAll
)

func parseLogLevel(s string) LogLevel {
	switch s {
	case "error":
		return LevelError
	case "warn":
		return LevelWarn
	case "debug":
		return LevelDebug
	case "trace":
		return LevelTrace
	case "all":
		return LevelAll
	default:
		return LevelInfo
	}
}

func (l LogLevel) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelTrace:
		return "TRACE"
	default:
		return "ALL"
	}
}

var levelColor = map[LogLevel]*color.Color{
	LevelError: color.New(color.FgRed, color.Bold),
	LevelWarn:  color.New(color.FgYellow),
	LevelInfo:  color.New(color.FgWhite),
	LevelDebug: color.New(color.FgCyan),
	LevelTrace: color.New(color.FgHiBlack),
}

type logRecord struct {
	level LogLevel
	msg   string
	at    time.Time
}

// Logger is a producer/consumer async logger: callers enqueue records onto
// a buffered channel and a single drain goroutine formats and writes them,
// so a slow sink never blocks a request-handling goroutine.
type Logger struct {
	level  LogLevel
	sink   io.Writer
	color  bool
	queue  chan logRecord
	done   chan struct{}
	wg     sync.WaitGroup
	dropMu sync.Mutex
	closed bool
}

// NewLogger starts the drain goroutine. sink defaults to os.Stdout if nil.
func NewLogger(level LogLevel, sink io.Writer, colorize bool) *Logger {
	if sink == nil {
		sink = os.Stdout
	}
	l := &Logger{
		level: level,
		sink:  sink,
		color: colorize,
		queue: make(chan logRecord, 1024),
		done:  make(chan struct{}),
	}
	l.wg.Add(1)
	go l.drain()
	return l
}

func (l *Logger) drain() {
	defer l.wg.Done()
	for {
		select {
		case rec, ok := <-l.queue:
			if !ok {
				return
			}
			l.write(rec)
		case <-l.done:
			// drain whatever is already queued, then exit.
			for {
				select {
				case rec := <-l.queue:
					l.write(rec)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) write(rec logRecord) {
	ts := rec.at.Format("2006-01-02 15:04:05")
	if l.color {
		c := levelColor[rec.level]
		fmt.Fprintf(l.sink, "%s [%s] %s\n", ts, c.Sprint(rec.level.String()), rec.msg)
		return
	}
	fmt.Fprintf(l.sink, "%s [%s] %s\n", ts, rec.level.String(), rec.msg)
}

func (l *Logger) enqueue(level LogLevel, msg string) {
	if level > l.level {
		return
	}
	l.dropMu.Lock()
	closed := l.closed
	l.dropMu.Unlock()
	if closed {
		return
	}
	select {
	case l.queue <- logRecord{level: level, msg: msg, at: time.Now()}:
	default:
		// queue full: drop rather than block the caller.
	}
}

func (l *Logger) Errorf(format string, args ...any) { l.enqueue(LevelError, fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)  { l.enqueue(LevelWarn, fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)  { l.enqueue(LevelInfo, fmt.Sprintf(format, args...)) }
func (l *Logger) Debugf(format string, args ...any) { l.enqueue(LevelDebug, fmt.Sprintf(format, args...)) }
func (l *Logger) Tracef(format string, args ...any) { l.enqueue(LevelTrace, fmt.Sprintf(format, args...)) }

// Close stops accepting new records, flushes anything already queued, and
// waits for the drain goroutine to exit.
func (l *Logger) Close() {
	l.dropMu.Lock()
	if l.closed {
		l.dropMu.Unlock()
		return
	}
	l.closed = true
	l.dropMu.Unlock()
	close(l.done)
	l.wg.Wait()
}
