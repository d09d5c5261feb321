// Package logger provides structured logging for the game server.
// Every command a player or the autopilot issues is traceable through Event.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger provides levelled logging with context.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	debug       bool
}

// NewLogger creates a new logger instance writing to stdout and stderr.
func NewLogger() *Logger {
	return New(os.Stdout, os.Stderr)
}

// New creates a logger with explicit destinations.
func New(out, errOut io.Writer) *Logger {
	flags := log.Ldate | log.Ltime | log.Lmicroseconds
	return &Logger{
		infoLogger:  log.New(out, "[SNAKE-INFO] ", flags),
		warnLogger:  log.New(out, "[SNAKE-WARN] ", flags),
		errorLogger: log.New(errOut, "[SNAKE-ERROR] ", flags),
	}
}

// Discard returns a logger that drops everything. Used by tests and tools.
func Discard() *Logger {
	return New(io.Discard, io.Discard)
}

// SetDebug enables Debug output.
func (l *Logger) SetDebug(on bool) {
	l.debug = on
}

// Writer exposes the info destination, for libraries that want an io.Writer.
func (l *Logger) Writer() io.Writer {
	return l.infoLogger.Writer()
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	l.infoLogger.Println(msg)
}

// Infof logs a formatted informational message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.infoLogger.Println(fmt.Sprintf(format, args...))
}

// Debug logs only when debug output is on.
func (l *Logger) Debug(msg string) {
	if l.debug {
		l.infoLogger.Println("[debug] " + msg)
	}
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	l.warnLogger.Println(msg)
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	l.errorLogger.Println(msg)
}

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.errorLogger.Println(fmt.Sprintf(format, args...))
}

// Event logs a specific game event.
func (l *Logger) Event(eventType string, actorID string, details string) {
	l.infoLogger.Printf("[EVENT:%s] Actor:%s | %s", eventType, actorID, details)
}
