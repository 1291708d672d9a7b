// Package ingest drives the remote API into the document store.
//
// SearchIngestor streams one keyword search into a collection until a
// target count is reached. Coordinator fills per-user records: it discovers
// the authors of stored posts, seeds a placeholder per user, and runs one
// worker per aspect (profile, timeline, follower ids, following ids). Each
// worker skips users whose record already carries its field, so a re-run
// only fetches what is missing.
package ingest
