package logger

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ObservabilityLogger provides structured JSONL logging using logrus.
type ObservabilityLogger struct {
	logger *logrus.Logger
	file   *os.File
}

// Component constants for consistent labeling
const (
	ComponentParser        = "recovery_parser"
	ComponentChatProcessor = "chat_processor"
	ComponentStepProcessor = "step_processor"
	ComponentBridge        = "chat_step_bridge"
	ComponentStream        = "stream_consumer"
	ComponentConfig        = "configuration"
)

// Category constants for log classification
const (
	CategoryParse          = "parse"
	CategoryClassification = "classification"
	CategoryValidation     = "validation"
	CategorySuccess        = "success"
	CategoryDropped        = "dropped"
	CategoryError          = "error"
	CategoryDebug          = "debug"
)

// NewObservabilityLogger creates a new structured logger writing JSONL to
// the given directory.
func NewObservabilityLogger(logDir string) (*ObservabilityLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	logPath := filepath.Join(logDir, "waldiez-stream.jsonl")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(file)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logger.SetLevel(logrus.InfoLevel)

	logger = logger.WithField("service", "waldiez-stream").Logger

	return &ObservabilityLogger{
		logger: logger,
		file:   file,
	}, nil
}

// Close closes the log file
func (o *ObservabilityLogger) Close() error {
	if o.file != nil {
		return o.file.Close()
	}
	return nil
}

// createEntry creates a logrus entry with standard fields
func (o *ObservabilityLogger) createEntry(component, category, requestID string, fields map[string]interface{}) *logrus.Entry {
	entry := o.logger.WithFields(logrus.Fields{
		"component": component,
		"category":  category,
	})

	if requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}

	if fields != nil {
		entry = entry.WithFields(fields)
	}

	return entry
}

// Debug logs a debug message
func (o *ObservabilityLogger) Debug(component, category, requestID, message string, fields map[string]interface{}) {
	o.createEntry(component, category, requestID, fields).Debug(message)
}

// Info logs an info message
func (o *ObservabilityLogger) Info(component, category, requestID, message string, fields map[string]interface{}) {
	o.createEntry(component, category, requestID, fields).Info(message)
}

// Warn logs a warning message
func (o *ObservabilityLogger) Warn(component, category, requestID, message string, fields map[string]interface{}) {
	o.createEntry(component, category, requestID, fields).Warn(message)
}

// Error logs an error message
func (o *ObservabilityLogger) Error(component, category, requestID, message string, fields map[string]interface{}) {
	o.createEntry(component, category, requestID, fields).Error(message)
}

// Dropped logs a silently dropped payload with its message type.
func (o *ObservabilityLogger) Dropped(requestID, msgType string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["message_type"] = msgType
	o.Info(ComponentChatProcessor, CategoryDropped, requestID, "Payload dropped", fields)
}

// StepError logs a structured step-processing failure.
func (o *ObservabilityLogger) StepError(requestID, code, message string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["code"] = code
	o.Error(ComponentStepProcessor, CategoryError, requestID, message, fields)
}
