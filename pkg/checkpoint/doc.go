// Package checkpoint persists search-stream progress so an interrupted
// search run can resume from the last fully ingested page.
//
// Checkpoints are JSON files under the user data directory, one per
// (query, sort, collection) stream, written atomically. A stream that runs
// to exhaustion deletes its checkpoint.
package checkpoint
