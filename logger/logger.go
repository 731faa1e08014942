// Package logger provides structured logging for the stream processing
// pipeline: a lightweight context-aware logger for inline diagnostics and a
// logrus-backed observability logger emitting JSONL for ingestion.
package logger

import (
	"context"
	"fmt"
	"log"
	"strings"

	"waldiez-stream/internal"
)

// Level represents the severity level of a log message
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of a log level
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to its Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger defines the interface for structured logging
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	WithField(key, value string) Logger
	WithMessageType(msgType string) Logger
	WithComponent(component string) Logger
}

// LoggerConfig holds configuration for the logger
type LoggerConfig interface {
	ShouldLogForType(msgType string) bool
	GetMinLogLevel() Level
}

// ContextLogger implements the Logger interface with context-aware filtering
type ContextLogger struct {
	ctx       context.Context
	config    LoggerConfig
	fields    map[string]string
	msgType   string
	component string
}

// contextKey is used for storing logger in context
type contextKey string

const (
	loggerContextKey contextKey = "logger"
)

// New creates a new ContextLogger with the given config
func New(ctx context.Context, config LoggerConfig) Logger {
	return &ContextLogger{
		ctx:    ctx,
		config: config,
		fields: make(map[string]string),
	}
}

// FromContext returns a logger from context, or creates a new one if none exists
func FromContext(ctx context.Context, config LoggerConfig) Logger {
	if logger, ok := ctx.Value(loggerContextKey).(Logger); ok {
		return logger
	}
	return New(ctx, config)
}

// WithContext stores the logger in context for later retrieval
func (l *ContextLogger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerContextKey, l)
}

// WithField adds a field to the logger context
func (l *ContextLogger) WithField(key, value string) Logger {
	newFields := make(map[string]string)
	for k, v := range l.fields {
		newFields[k] = v
	}
	newFields[key] = value

	return &ContextLogger{
		ctx:       l.ctx,
		config:    l.config,
		fields:    newFields,
		msgType:   l.msgType,
		component: l.component,
	}
}

// WithMessageType sets the message type for filtering decisions
func (l *ContextLogger) WithMessageType(msgType string) Logger {
	return &ContextLogger{
		ctx:       l.ctx,
		config:    l.config,
		fields:    l.fields,
		msgType:   msgType,
		component: l.component,
	}
}

// WithComponent sets the component for the logger
func (l *ContextLogger) WithComponent(component string) Logger {
	return &ContextLogger{
		ctx:       l.ctx,
		config:    l.config,
		fields:    l.fields,
		msgType:   l.msgType,
		component: component,
	}
}

// shouldLog determines if a message should be logged based on level and message-type filtering
func (l *ContextLogger) shouldLog(level Level) bool {
	if level < l.config.GetMinLogLevel() {
		return false
	}
	if l.msgType != "" && !l.config.ShouldLogForType(l.msgType) {
		return false
	}
	return true
}

// formatMessage creates a structured log message
func (l *ContextLogger) formatMessage(level Level, format string, args ...interface{}) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s]", level.String()))

	if requestID := internal.GetRequestID(l.ctx); requestID != "" && requestID != "unknown" {
		parts = append(parts, fmt.Sprintf("[%s]", requestID))
	}

	if l.component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", l.component))
	}

	parts = append(parts, fmt.Sprintf(format, args...))

	if len(l.fields) > 0 {
		var fieldParts []string
		for k, v := range l.fields {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%s", k, v))
		}
		parts = append(parts, fmt.Sprintf("fields={%s}", strings.Join(fieldParts, ", ")))
	}

	return strings.Join(parts, " ")
}

// Debug logs a debug level message
func (l *ContextLogger) Debug(format string, args ...interface{}) {
	if l.shouldLog(DEBUG) {
		log.Println(l.formatMessage(DEBUG, format, args...))
	}
}

// Info logs an info level message
func (l *ContextLogger) Info(format string, args ...interface{}) {
	if l.shouldLog(INFO) {
		log.Println(l.formatMessage(INFO, format, args...))
	}
}

// Warn logs a warning level message
func (l *ContextLogger) Warn(format string, args ...interface{}) {
	if l.shouldLog(WARN) {
		log.Println(l.formatMessage(WARN, format, args...))
	}
}

// Error logs an error level message
func (l *ContextLogger) Error(format string, args ...interface{}) {
	if l.shouldLog(ERROR) {
		log.Println(l.formatMessage(ERROR, format, args...))
	}
}

// nopLogger discards everything. Used where a Logger is required but the
// caller did not supply one, keeping the processors nil-safe.
type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})     {}
func (nopLogger) Info(string, ...interface{})      {}
func (nopLogger) Warn(string, ...interface{})      {}
func (nopLogger) Error(string, ...interface{})     {}
func (n nopLogger) WithField(string, string) Logger { return n }
func (n nopLogger) WithMessageType(string) Logger   { return n }
func (n nopLogger) WithComponent(string) Logger     { return n }

// Nop returns a logger that drops all output.
func Nop() Logger {
	return nopLogger{}
}
