// Package logger is the process-wide leveled logger. Messages below
// the configured level are dropped; everything else goes to a single
// writer with a timestamp and level prefix.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level orders severities from most to least verbose.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

var (
	mu    sync.Mutex
	level = LevelInfo
	out   io.Writer = os.Stdout
)

// SetLevel sets the minimum severity that gets written. The name is
// matched case-insensitively; an unknown name leaves the level
// unchanged.
func SetLevel(name string) {
	for i, n := range levelNames {
		if strings.EqualFold(name, n) {
			mu.Lock()
			level = Level(i)
			mu.Unlock()
			return
		}
	}
}

// SetOutput redirects log output, for example to a file.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

// emit writes one line under the lock, so concurrent callers cannot
// interleave output.
func emit(l Level, format string, v ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(out, "[%s] [%s] %s\n", ts, l, fmt.Sprintf(format, v...))
}

// Debug logs a printf-style message at DEBUG level.
func Debug(format string, v ...any) { emit(LevelDebug, format, v...) }

// Info logs a printf-style message at INFO level.
func Info(format string, v ...any) { emit(LevelInfo, format, v...) }

// Warn logs a printf-style message at WARN level.
func Warn(format string, v ...any) { emit(LevelWarn, format, v...) }

// Error logs a printf-style message at ERROR level.
func Error(format string, v ...any) { emit(LevelError, format, v...) }
