package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"twitterkeywordsearch/pkg/ingest"
	"twitterkeywordsearch/pkg/logger"
	"twitterkeywordsearch/pkg/metrics"
	"twitterkeywordsearch/pkg/models"
	"twitterkeywordsearch/pkg/ui"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Download profiles, timelines and follow graphs of search result authors",
	Long: `Users collects the distinct authors of the posts in the input collection
and fills one record per author in the output collection with their
profile, timeline, follower ids and following ids.

Each of the four runs in its own worker. A user whose record already has
an aspect is skipped for it, so an interrupted run can simply be started
again. Deleted, suspended and protected users are logged and skipped.`,
	Example: `  # Authors of posts in "search", written back into "search"
  twitterkeywordsearch users -i search -o search

  # Separate output, bounded follow lists, timelines back to 2020
  twitterkeywordsearch users -i search -o users --max-followers 50000 --cutoff-year 2020`,
	Args: cobra.NoArgs,
	RunE: runUsers,
}

func init() {
	rootCmd.AddCommand(usersCmd)

	f := usersCmd.Flags()
	f.Int("max-followers", 0, "stop collecting follower ids after this many (0 is unlimited)")
	f.Int("max-following", 0, "stop collecting following ids after this many (0 is unlimited)")
	f.Int("cutoff-year", 0, "stop a timeline at posts older than this year (0 fetches all)")
}

func runUsers(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	e, err := setup(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer e.close()
	start := time.Now()
	defer metrics.ObserveRunDuration("users", start)

	logger.LogComponentStart(e.log, "users", map[string]interface{}{
		"in_collection":     cfg.Users.InCollection,
		"out_collection":    cfg.Users.OutCollection,
		"max_follower_ids":  cfg.Users.MaxFollowerIDs,
		"max_following_ids": cfg.Users.MaxFollowingIDs,
		"cutoff_year":       cfg.Users.TimelineCutoffYear,
	})

	c := &ingest.Coordinator{
		Downloader: &ingest.Downloader{
			API:             e.client,
			Logger:          e.log,
			PagerOptions:    e.pagerOptions(),
			MaxFollowerIDs:  cfg.Users.MaxFollowerIDs,
			MaxFollowingIDs: cfg.Users.MaxFollowingIDs,
			CutoffYear:      cfg.Users.TimelineCutoffYear,
		},
		Source:      e.store.Collection(cfg.Users.InCollection),
		Destination: e.store.Collection(cfg.Users.OutCollection),
		Logger:      e.log,
	}

	res, err := c.Run(ctx)
	if err != nil {
		logger.LogComponentStop(e.log, "users", err.Error())
		return err
	}
	logger.LogComponentStop(e.log, "users", "all workers finished")

	stats := []ui.Stat{
		{Label: "Users", Value: fmt.Sprint(res.Users)},
		{Label: "New records", Value: fmt.Sprint(res.Seeded)},
	}
	for _, a := range []string{models.AspectProfile, models.AspectTweets, models.AspectFollowers, models.AspectFollowing} {
		s := res.Aspects[a]
		stats = append(stats, ui.Stat{
			Label: a,
			Value: fmt.Sprintf("%d stored, %d skipped, %d unavailable", s.Stored, s.Skipped, s.Unavailable),
		})
	}
	stats = append(stats, ui.Stat{Label: "Elapsed", Value: formatDuration(time.Since(start))})
	ui.PrintSummary("Users downloaded into "+cfg.Users.OutCollection, stats)
	return nil
}
