// Package logger provides the structured logging interface used across the
// ingester. It wraps zerolog with a colored console writer and an optional
// file sink.
//
// Components receive a Logger explicitly; the package-level functions exist
// for the command layer:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//		return err
//	}
//	log := logger.WithField("run_id", runID)
//	log.InfoWithFields("Search started", map[string]interface{}{
//		"query": q,
//		"target": cfg.Search.Target,
//	})
//
// Per-user progress is reported through LogAspect, and pager cool-downs
// through LogCooldown. Tests use NewTestLogger to capture and assert on
// emitted messages, or NewNopLogger to discard them.
package logger
