// Package twitter adapts the v1.1 REST API, through go-twitter and OAuth1
// signing, to the page-at-a-time shape the pager expects.
//
// Every request waits on a rate limiter first. Transport failures (network
// errors and 5xx responses) are retried here with a fixed delay; rate
// limits and authorization failures are returned as typed errors for the
// caller to handle.
package twitter
