package ingest

import (
	"context"
	"fmt"
	"time"

	"twitterkeywordsearch/pkg/errors"
	"twitterkeywordsearch/pkg/logger"
	"twitterkeywordsearch/pkg/models"
	"twitterkeywordsearch/pkg/normalize"
	"twitterkeywordsearch/pkg/pager"
	"twitterkeywordsearch/pkg/twitter"
)

// Downloader fetches single aspects of single users. Its methods never
// return errors: a false second result means the aspect is not available
// this run, and the reason has been logged.
type Downloader struct {
	API          TwitterAPI
	Logger       logger.Logger
	PagerOptions pager.Options

	// MaxFollowerIDs and MaxFollowingIDs cap the id lists; zero is
	// unlimited. A cap may be overshot by the rest of the last page.
	MaxFollowerIDs  int
	MaxFollowingIDs int
	// CutoffYear stops a timeline once a page reaches posts older than
	// this year; zero fetches the whole timeline
	CutoffYear int
}

func (d *Downloader) log() logger.Logger {
	if d.Logger == nil {
		return logger.GetLogger()
	}
	return d.Logger
}

// unavailable logs why an aspect could not be fetched.
func (d *Downloader) unavailable(aspect, id string, err error) {
	log := d.log().WithFields(map[string]interface{}{
		"aspect":  aspect,
		"user_id": id,
	})

	switch {
	case errors.IsAuthorization(err):
		log.WithError(err).Warn(fmt.Sprintf("User %s has been deleted, suspended, or has a protected profile", id))
	case errors.IsCanceled(err):
		log.Debug("Download canceled")
	default:
		log.WithError(err).Error(fmt.Sprintf("Failed to download %s for user %s", aspect, id))
	}
}

// Profile fetches and normalizes a user's profile.
func (d *Downloader) Profile(ctx context.Context, id string) (models.Document, bool) {
	doc, err := d.API.GetUser(ctx, id)
	if err != nil {
		d.unavailable(models.AspectProfile, id, err)
		return nil, false
	}
	if _, err := normalize.User(doc); err != nil {
		d.log().WithError(err).WarnWithFields("Profile has unconverted fields", map[string]interface{}{
			"user_id": id,
		})
	}
	return doc, true
}

// Timeline fetches a user's posts, most recent first. With a cutoff year,
// it stops after the first page whose oldest post is older than the cutoff;
// that page is kept whole.
func (d *Downloader) Timeline(ctx context.Context, id string) ([]models.Document, bool) {
	log := d.log().WithField("user_id", id)
	p := pager.New(func(ctx context.Context, cursor int64) (pager.Page[models.Document], error) {
		return d.API.UserTimeline(ctx, id, cursor)
	}, 0, streamOptions(d.PagerOptions, "user_timeline", log))

	tweets := []models.Document{}
	for page, err := range p.Pages(ctx) {
		if err != nil {
			d.unavailable(models.AspectTweets, id, err)
			return nil, false
		}

		var oldest time.Time
		for _, doc := range page {
			if _, err := normalize.Post(doc); err != nil {
				log.WithError(err).WarnWithFields("Post has unconverted fields", map[string]interface{}{
					"id_str": models.String(doc, models.FieldIDStr),
				})
			}
			if ts, ok := normalize.CreatedAt(doc); ok && (oldest.IsZero() || ts.Before(oldest)) {
				oldest = ts
			}
			tweets = append(tweets, doc)
		}

		if d.CutoffYear > 0 && !oldest.IsZero() && oldest.Year() < d.CutoffYear {
			log.DebugWithFields("Timeline reached cutoff year", map[string]interface{}{
				"cutoff_year": d.CutoffYear,
				"oldest":      oldest,
				"count":       len(tweets),
			})
			break
		}
	}
	return tweets, true
}

// FollowerIDs fetches the ids following a user.
func (d *Downloader) FollowerIDs(ctx context.Context, id string) ([]int64, bool) {
	ids, err := d.collectIDs(ctx, id, "followers_ids", d.API.FollowerIDs, d.MaxFollowerIDs)
	if err != nil {
		d.unavailable(models.AspectFollowers, id, err)
		return nil, false
	}
	return ids, true
}

// FollowingIDs fetches the ids a user follows.
func (d *Downloader) FollowingIDs(ctx context.Context, id string) ([]int64, bool) {
	ids, err := d.collectIDs(ctx, id, "friends_ids", d.API.FollowingIDs, d.MaxFollowingIDs)
	if err != nil {
		d.unavailable(models.AspectFollowing, id, err)
		return nil, false
	}
	return ids, true
}

type idsFunc func(ctx context.Context, id string, cursor int64) (pager.Page[int64], error)

func (d *Downloader) collectIDs(ctx context.Context, id, stream string, fetch idsFunc, max int) ([]int64, error) {
	log := d.log().WithField("user_id", id)
	p := pager.New(func(ctx context.Context, cursor int64) (pager.Page[int64], error) {
		return fetch(ctx, id, cursor)
	}, twitter.FirstIDsCursor, streamOptions(d.PagerOptions, stream, log))

	ids := []int64{}
	for page, err := range p.Pages(ctx) {
		if err != nil {
			return nil, err
		}
		ids = append(ids, page...)
		if max > 0 && len(ids) >= max {
			break
		}
	}
	return ids, nil
}
