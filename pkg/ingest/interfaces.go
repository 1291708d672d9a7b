package ingest

import (
	"context"

	"twitterkeywordsearch/pkg/logger"
	"twitterkeywordsearch/pkg/metrics"
	"twitterkeywordsearch/pkg/models"
	"twitterkeywordsearch/pkg/pager"
	"twitterkeywordsearch/pkg/twitter"
)

// TwitterAPI is the page-at-a-time remote API the ingesters drive.
// *twitter.Client implements it.
type TwitterAPI interface {
	SearchTweets(ctx context.Context, params twitter.SearchParams, maxID int64) (pager.Page[models.Document], error)
	GetUser(ctx context.Context, id string) (models.Document, error)
	FollowerIDs(ctx context.Context, id string, cursor int64) (pager.Page[int64], error)
	FollowingIDs(ctx context.Context, id string, cursor int64) (pager.Page[int64], error)
	UserTimeline(ctx context.Context, id string, maxID int64) (pager.Page[models.Document], error)
}

var _ TwitterAPI = (*twitter.Client)(nil)

// streamOptions derives the pager options for one stream. Cool-downs are
// counted in metrics before any hook the caller set runs.
func streamOptions(base pager.Options, stream string, log logger.Logger) pager.Options {
	opts := base
	opts.Stream = stream
	opts.Logger = log
	hook := base.OnCooldown
	opts.OnCooldown = func(s string) {
		metrics.IncCooldown(s)
		if hook != nil {
			hook(s)
		}
	}
	return opts
}
