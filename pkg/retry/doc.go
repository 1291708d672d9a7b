// Package retry runs an operation until it succeeds, fails with a
// non-retryable error, or exhausts its attempts.
//
// Two loops in the ingester are built on it: the remote adapter retries
// transport failures a fixed number of times with a fixed delay, and the
// pager re-runs a rate-limited page fetch after a cool-down.
//
//	cfg := retry.Fixed(ctx, 5, 5*time.Second, errors.IsTransport)
//	page, err := retry.DoWithResult(func() (Page, error) {
//		return fetch(ctx, cursor)
//	}, cfg)
package retry
