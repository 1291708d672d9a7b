package logger

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures log messages so tests can assert on them. It is safe
// for concurrent use.
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	nop      zerolog.Logger
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	return &TestLogger{nop: zerolog.Nop()}
}

func (l *TestLogger) root() *scopedTestLogger {
	return &scopedTestLogger{sink: l}
}

func (l *TestLogger) Debug(msg string) { l.root().Debug(msg) }
func (l *TestLogger) Info(msg string)  { l.root().Info(msg) }
func (l *TestLogger) Warn(msg string)  { l.root().Warn(msg) }
func (l *TestLogger) Error(msg string) { l.root().Error(msg) }
func (l *TestLogger) Fatal(msg string) { l.root().Fatal(msg) }

func (l *TestLogger) DebugWithFields(msg string, f map[string]interface{}) {
	l.root().DebugWithFields(msg, f)
}
func (l *TestLogger) InfoWithFields(msg string, f map[string]interface{}) {
	l.root().InfoWithFields(msg, f)
}
func (l *TestLogger) WarnWithFields(msg string, f map[string]interface{}) {
	l.root().WarnWithFields(msg, f)
}
func (l *TestLogger) ErrorWithFields(msg string, f map[string]interface{}) {
	l.root().ErrorWithFields(msg, f)
}
func (l *TestLogger) FatalWithFields(msg string, f map[string]interface{}) {
	l.root().FatalWithFields(msg, f)
}

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.root().WithField(key, value)
}
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return l.root().WithFields(fields)
}
func (l *TestLogger) WithError(err error) Logger             { return l.root().WithError(err) }
func (l *TestLogger) WithContext(ctx context.Context) Logger { return l }
func (l *TestLogger) GetZerolog() *zerolog.Logger            { return &l.nop }

func (l *TestLogger) record(msg LogMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

// GetMessages returns a copy of all captured log messages
func (l *TestLogger) GetMessages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages := make([]LogMessage, len(l.messages))
	copy(messages, l.messages)
	return messages
}

// GetMessagesByLevel returns all messages of a specific level
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	var filtered []LogMessage
	for _, msg := range l.GetMessages() {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage checks if a message with the given text was logged
func (l *TestLogger) HasMessage(text string) bool {
	for _, msg := range l.GetMessages() {
		if msg.Message == text {
			return true
		}
	}
	return false
}

// HasMessageContaining checks if any message contains the given substring
func (l *TestLogger) HasMessageContaining(substr string) bool {
	for _, msg := range l.GetMessages() {
		if strings.Contains(msg.Message, substr) {
			return true
		}
	}
	return false
}

// HasError checks if an error was logged
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear clears all captured messages
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = nil
}

// scopedTestLogger carries fields and an error attached via WithField and
// WithError, writing through to the shared sink.
type scopedTestLogger struct {
	sink   *TestLogger
	fields map[string]interface{}
	err    error
}

func (s *scopedTestLogger) log(level, msg string, extra map[string]interface{}) {
	var fields map[string]interface{}
	if len(s.fields)+len(extra) > 0 {
		fields = make(map[string]interface{}, len(s.fields)+len(extra))
		for k, v := range s.fields {
			fields[k] = v
		}
		for k, v := range extra {
			fields[k] = v
		}
	}
	s.sink.record(LogMessage{Level: level, Message: msg, Fields: fields, Error: s.err})
}

func (s *scopedTestLogger) Debug(msg string) { s.log("DEBUG", msg, nil) }
func (s *scopedTestLogger) Info(msg string)  { s.log("INFO", msg, nil) }
func (s *scopedTestLogger) Warn(msg string)  { s.log("WARN", msg, nil) }
func (s *scopedTestLogger) Error(msg string) { s.log("ERROR", msg, nil) }
func (s *scopedTestLogger) Fatal(msg string) { s.log("FATAL", msg, nil) }

func (s *scopedTestLogger) DebugWithFields(msg string, f map[string]interface{}) {
	s.log("DEBUG", msg, f)
}
func (s *scopedTestLogger) InfoWithFields(msg string, f map[string]interface{}) {
	s.log("INFO", msg, f)
}
func (s *scopedTestLogger) WarnWithFields(msg string, f map[string]interface{}) {
	s.log("WARN", msg, f)
}
func (s *scopedTestLogger) ErrorWithFields(msg string, f map[string]interface{}) {
	s.log("ERROR", msg, f)
}
func (s *scopedTestLogger) FatalWithFields(msg string, f map[string]interface{}) {
	s.log("FATAL", msg, f)
}

func (s *scopedTestLogger) WithField(key string, value interface{}) Logger {
	return s.WithFields(map[string]interface{}{key: value})
}

func (s *scopedTestLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(s.fields)+len(fields))
	for k, v := range s.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &scopedTestLogger{sink: s.sink, fields: merged, err: s.err}
}

func (s *scopedTestLogger) WithError(err error) Logger {
	joined := err
	if s.err != nil && err != nil {
		joined = errors.Join(s.err, err)
	}
	return &scopedTestLogger{sink: s.sink, fields: s.fields, err: joined}
}

func (s *scopedTestLogger) WithContext(ctx context.Context) Logger { return s }
func (s *scopedTestLogger) GetZerolog() *zerolog.Logger            { return &s.sink.nop }
