package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Aspect download outcomes reported by LogAspect
const (
	OutcomeStored      = "stored"
	OutcomeSkipped     = "skipped"
	OutcomeUnavailable = "unavailable"
)

// LogCooldown logs a rate-limit cool-down on a paginated stream
func LogCooldown(l Logger, stream string, cursor int64, delay time.Duration) {
	l.WithFields(map[string]interface{}{
		"stream":   stream,
		"cursor":   cursor,
		"cooldown": delay,
		"resume":   time.Now().Add(delay).Format("15:04:05"),
	}).Warn("Rate limit reached, cooling down")
}

// LogAspect logs the per-user, per-aspect progress line
func LogAspect(l Logger, aspect, userID, outcome string, count int) {
	fields := map[string]interface{}{
		"aspect":  aspect,
		"user_id": userID,
		"outcome": outcome,
	}
	if count >= 0 {
		fields["count"] = count
	}

	switch outcome {
	case OutcomeStored:
		l.InfoWithFields("Aspect stored", fields)
	case OutcomeSkipped:
		l.DebugWithFields("Aspect already present", fields)
	default:
		l.WarnWithFields("Aspect not available", fields)
	}
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, cfg map[string]interface{}) {
	l = l.WithField("component", component)
	if len(cfg) > 0 {
		l = l.WithFields(cfg)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
