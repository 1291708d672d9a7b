package ingest

import (
	"context"
	"fmt"

	"twitterkeywordsearch/internal/fanout"
	"twitterkeywordsearch/pkg/logger"
	"twitterkeywordsearch/pkg/metrics"
	"twitterkeywordsearch/pkg/models"
	"twitterkeywordsearch/pkg/store"
)

// AspectStats counts per-user outcomes of one aspect worker.
type AspectStats struct {
	Stored      int
	Skipped     int
	Unavailable int
}

// CoordinatorResult summarizes a users run.
type CoordinatorResult struct {
	Users   int
	Seeded  int
	Aspects map[string]AspectStats
}

// Coordinator fills user records in Destination for every author found in
// Source.
type Coordinator struct {
	Downloader  *Downloader
	Source      store.Collection
	Destination store.Collection
	Logger      logger.Logger
}

// aspect describes one worker: the field whose presence marks a user done
// and how to turn a download into the fields to set.
type aspect struct {
	name  string
	field string
	fetch func(ctx context.Context, id string) (set models.Document, count int, ok bool)
}

func (c *Coordinator) aspects() []aspect {
	d := c.Downloader
	return []aspect{
		{
			name: models.AspectProfile,
			// every profile carries id_str, the placeholder only id
			field: models.FieldIDStr,
			fetch: func(ctx context.Context, id string) (models.Document, int, bool) {
				profile, ok := d.Profile(ctx, id)
				if !ok {
					return nil, 0, false
				}
				set := models.Clone(profile)
				// the numeric id would overwrite the record key
				delete(set, models.FieldID)
				return set, -1, true
			},
		},
		{
			name:  models.AspectTweets,
			field: models.AspectTweets,
			fetch: func(ctx context.Context, id string) (models.Document, int, bool) {
				tweets, ok := d.Timeline(ctx, id)
				return models.Document{models.AspectTweets: tweets}, len(tweets), ok
			},
		},
		{
			name:  models.AspectFollowers,
			field: models.AspectFollowers,
			fetch: func(ctx context.Context, id string) (models.Document, int, bool) {
				ids, ok := d.FollowerIDs(ctx, id)
				return models.Document{models.AspectFollowers: ids}, len(ids), ok
			},
		},
		{
			name:  models.AspectFollowing,
			field: models.AspectFollowing,
			fetch: func(ctx context.Context, id string) (models.Document, int, bool) {
				ids, ok := d.FollowingIDs(ctx, id)
				return models.Document{models.AspectFollowing: ids}, len(ids), ok
			},
		},
	}
}

func (c *Coordinator) log() logger.Logger {
	if c.Logger == nil {
		return logger.GetLogger()
	}
	return c.Logger
}

// Run discovers users, seeds their records and runs the four aspect
// workers. Store failures and cancellation abort the run; remote failures
// only skip the affected user and aspect.
func (c *Coordinator) Run(ctx context.Context) (CoordinatorResult, error) {
	log := c.log().WithField("component", "users")
	result := CoordinatorResult{Aspects: make(map[string]AspectStats)}

	ids, err := c.Discover(ctx)
	if err != nil {
		return result, err
	}
	result.Users = len(ids)
	log.InfoWithFields("Discovered users", map[string]interface{}{"users": len(ids)})

	if result.Seeded, err = c.Seed(ctx, ids); err != nil {
		return result, err
	}
	log.InfoWithFields("Seeded user records", map[string]interface{}{"seeded": result.Seeded})

	aspects := c.aspects()
	stats := make([]AspectStats, len(aspects))
	jobs := make([]fanout.Job, len(aspects))
	for i, a := range aspects {
		jobs[i] = fanout.Job{
			Name: a.name,
			Run: func(ctx context.Context) error {
				return c.runAspect(ctx, log.WithField("aspect", a.name), a, ids, &stats[i])
			},
		}
	}

	_, err = fanout.Run(ctx, jobs, log)
	for i, a := range aspects {
		result.Aspects[a.name] = stats[i]
	}
	return result, err
}

// Discover returns the distinct user.id_str values of the source
// collection in first-seen order.
func (c *Coordinator) Discover(ctx context.Context) ([]string, error) {
	cur, err := c.Source.Find(ctx, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("discover users: %w", err)
	}
	defer cur.Close(ctx)

	seen := make(map[string]struct{})
	var ids []string
	for cur.Next(ctx) {
		var doc models.Document
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("discover users: %w", err)
		}
		id := models.String(doc, "user.id_str")
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("discover users: %w", err)
	}
	return ids, ctx.Err()
}

// Seed inserts a placeholder {id} record for each user without one.
func (c *Coordinator) Seed(ctx context.Context, ids []string) (int, error) {
	seeded := 0
	for _, id := range ids {
		n, err := c.Destination.Count(ctx, store.Filter{models.FieldID: id})
		if err != nil {
			return seeded, fmt.Errorf("seed user %s: %w", id, err)
		}
		if n > 0 {
			continue
		}
		if err := c.Destination.InsertOne(ctx, models.Document{models.FieldID: id}); err != nil {
			return seeded, fmt.Errorf("seed user %s: %w", id, err)
		}
		seeded++
	}
	return seeded, nil
}

func (c *Coordinator) runAspect(ctx context.Context, log logger.Logger, a aspect, ids []string, stats *AspectStats) error {
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		done, err := c.Destination.Count(ctx, store.Filter{
			models.FieldID: id,
			a.field:        map[string]any{"$exists": true},
		})
		if err != nil {
			return fmt.Errorf("check user %s: %w", id, err)
		}
		if done > 0 {
			stats.Skipped++
			logger.LogAspect(log, a.name, id, logger.OutcomeSkipped, -1)
			continue
		}

		set, count, ok := a.fetch(ctx, id)
		if !ok {
			stats.Unavailable++
			metrics.IncAspect(a.name, logger.OutcomeUnavailable)
			logger.LogAspect(log, a.name, id, logger.OutcomeUnavailable, -1)
			continue
		}

		if _, err := c.Destination.UpdateMany(ctx, store.Filter{models.FieldID: id}, set); err != nil {
			return fmt.Errorf("store %s for user %s: %w", a.name, id, err)
		}
		stats.Stored++
		metrics.IncAspect(a.name, logger.OutcomeStored)
		logger.LogAspect(log, a.name, id, logger.OutcomeStored, count)
	}
	return nil
}
