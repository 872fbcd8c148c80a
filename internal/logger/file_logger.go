// Package logger writes the engine's activity log and the machine-readable
// risk-event log. The activity log is a dated plain-text file; risk events go
// to a separate JSON-lines file so dashboards can tail it.
package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger is a leveled file logger for one engine instance.
type Logger struct {
	name      string
	logDir    string
	logFile   *os.File
	logger    *log.Logger
	eventFile *os.File
	mu        sync.Mutex
}

// LogLevel tags each activity-log entry.
type LogLevel string

const (
	LogLevelInfo     LogLevel = "INFO"
	LogLevelWarning  LogLevel = "WARN"
	LogLevelError    LogLevel = "ERROR"
	LogLevelDecision LogLevel = "DECISION"
)

// RiskEvent is one entry in the JSON-lines risk-event log.
type RiskEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	Type      string                 `json:"type"`
	Symbol    string                 `json:"symbol,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// NewLogger creates a logger writing to <logDir>/<name>_<date>.log and
// <logDir>/<name>_risk_events_<date>.jsonl.
func NewLogger(name, logDir string) (*Logger, error) {
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logDir, fmt.Sprintf("%s_%s.log", name, date))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	eventPath := filepath.Join(logDir, fmt.Sprintf("%s_risk_events_%s.jsonl", name, date))
	eventFile, err := os.OpenFile(eventPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to open risk-event log: %w", err)
	}

	l := &Logger{
		name:      name,
		logDir:    logDir,
		logFile:   file,
		logger:    log.New(file, "", 0),
		eventFile: eventFile,
	}
	l.Info("session started for %s", name)
	return l, nil
}

// Log writes a formatted entry at the given level.
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	l.logger.Printf("[%s] [%s] %s", timestamp, level, fmt.Sprintf(format, args...))
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message.
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Decision logs a gate or sizing decision.
func (l *Logger) Decision(format string, args ...interface{}) {
	l.Log(LogLevelDecision, format, args...)
}

// LogError logs an error with leading context.
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// LogRiskEvent appends a risk event to the JSON-lines event log and mirrors
// a one-line summary into the activity log.
func (l *Logger) LogRiskEvent(eventType, symbol string, details map[string]interface{}) error {
	event := RiskEvent{
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Symbol:    symbol,
		Details:   details,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal risk event: %w", err)
	}

	l.mu.Lock()
	if _, err := l.eventFile.Write(append(data, '\n')); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("failed to write risk event: %w", err)
	}
	l.mu.Unlock()

	l.Decision("risk event %s %s", eventType, symbol)
	return nil
}

// Close flushes and closes both log files.
func (l *Logger) Close() error {
	l.Info("session ended for %s", l.name)

	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	if l.eventFile != nil {
		if err := l.eventFile.Close(); err != nil {
			firstErr = err
		}
	}
	if l.logFile != nil {
		if err := l.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetLogPath returns the activity log path for today.
func (l *Logger) GetLogPath() string {
	date := time.Now().Format("2006-01-02")
	return filepath.Join(l.logDir, fmt.Sprintf("%s_%s.log", l.name, date))
}
