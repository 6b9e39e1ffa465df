// Package logger provides the leveled, component-tagged console logger
// shared by the run program and the calibration tool.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	SILENT // No logging
)

var levelNames = map[LogLevel]string{
	DEBUG:  "DEBUG",
	INFO:   "INFO",
	WARN:   "WARN",
	ERROR:  "ERROR",
	SILENT: "SILENT",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel converts a flag value such as "info" or "WARN" into a LogLevel
func ParseLevel(s string) (LogLevel, error) {
	switch s {
	case "debug", "DEBUG":
		return DEBUG, nil
	case "info", "INFO", "":
		return INFO, nil
	case "warn", "WARN", "warning":
		return WARN, nil
	case "error", "ERROR":
		return ERROR, nil
	case "silent", "SILENT":
		return SILENT, nil
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

// Logger writes component-tagged lines: [15:04:05.000][COMPONENT] message
type Logger struct {
	mu     sync.Mutex
	level  LogLevel
	output io.Writer
	now    func() time.Time
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(INFO, os.Stdout)
)

// New creates a new Logger instance
func New(level LogLevel, output io.Writer) *Logger {
	if output == nil {
		output = os.Stderr
	}
	return &Logger{
		level:  level,
		output: output,
		now:    time.Now,
	}
}

// Default returns the process-wide logger used by the package helpers
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger. Passing nil silences it.
func SetDefault(l *Logger) {
	if l == nil {
		l = New(SILENT, io.Discard)
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *Logger) log(level LogLevel, component, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level || l.level == SILENT {
		return
	}

	msg := fmt.Sprintf(format, args...)
	prefix := ""
	if level >= WARN {
		prefix = level.String() + ": "
	}
	fmt.Fprintf(l.output, "[%s][%s] %s%s\n", l.now().Format("15:04:05.000"), component, prefix, msg)
}

// Debug logs a debug message for a component
func (l *Logger) Debug(component, format string, args ...interface{}) {
	l.log(DEBUG, component, format, args...)
}

// Info logs an info message for a component
func (l *Logger) Info(component, format string, args ...interface{}) {
	l.log(INFO, component, format, args...)
}

// Warn logs a warning message for a component
func (l *Logger) Warn(component, format string, args ...interface{}) {
	l.log(WARN, component, format, args...)
}

// Error logs an error message for a component
func (l *Logger) Error(component, format string, args ...interface{}) {
	l.log(ERROR, component, format, args...)
}

// Package-level convenience functions

// Debug logs a debug message through the default logger
func Debug(component, format string, args ...interface{}) {
	Default().Debug(component, format, args...)
}

// Info logs an info message through the default logger
func Info(component, format string, args ...interface{}) {
	Default().Info(component, format, args...)
}

// Warn logs a warning through the default logger
func Warn(component, format string, args ...interface{}) {
	Default().Warn(component, format, args...)
}

// Error logs an error through the default logger
func Error(component, format string, args ...interface{}) {
	Default().Error(component, format, args...)
}
