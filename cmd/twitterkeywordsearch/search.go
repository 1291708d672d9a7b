package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"twitterkeywordsearch/pkg/checkpoint"
	"twitterkeywordsearch/pkg/config"
	"twitterkeywordsearch/pkg/ingest"
	"twitterkeywordsearch/pkg/logger"
	"twitterkeywordsearch/pkg/metrics"
	"twitterkeywordsearch/pkg/query"
	"twitterkeywordsearch/pkg/ui"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Stream keyword search results into a collection",
	Long: `Search reads up to 10 keywords, one per line, from the query file and
streams English results for any of them into the output collection until
the target is reached or the search is exhausted.

Results are stored as returned by the API, with created_at fields
converted to timestamps.`,
	Example: `  # Popular results for the keywords in search.txt
  twitterkeywordsearch search -q search.txt -o search

  # Most recent results, skipping ones already stored, resumable
  twitterkeywordsearch search -s recent -t 5000 --dedupe --resume`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	f := searchCmd.Flags()
	f.StringP("query", "q", "", "file with one keyword per line (default search.txt)")
	f.StringP("sort", "s", "", "result order: popular, recent or mixed (default popular)")
	f.IntP("target", "t", 0, "stop after inserting this many results (default 100000)")
	f.Bool("dedupe", false, "skip results whose id_str is already stored")
	f.Bool("resume", false, "continue from the last checkpoint of the same query; earlier inserts count toward the target")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, baseLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	req, err := searchRequest(cfg)
	if err != nil {
		return err
	}

	e, err := setup(ctx, cfg, baseLog)
	if err != nil {
		return err
	}
	defer e.close()
	start := time.Now()
	defer metrics.ObserveRunDuration("search", start)

	runID := uuid.NewString()
	log := e.log.WithField("run_id", runID)

	logger.LogComponentStart(log, "search", map[string]interface{}{
		"query":      req.Query,
		"sort":       cfg.Search.Sort,
		"target":     cfg.Search.Target,
		"collection": cfg.Search.Collection,
		"dedupe":     cfg.Search.Dedupe,
		"resume":     cfg.Search.Resume,
	})

	s := &ingest.SearchIngestor{
		API:            e.client,
		Collection:     e.store.Collection(cfg.Search.Collection),
		CollectionName: cfg.Search.Collection,
		Logger:         log,
		PagerOptions:   e.pagerOptions(),
		Dedupe:         cfg.Search.Dedupe,
		RunID:          runID,
	}
	if cfg.Search.Resume {
		s.Checkpoint, err = checkpoint.NewManager(checkpoint.Key(req.Query, cfg.Search.Sort, cfg.Search.Collection), log)
		if err != nil {
			return err
		}
	}

	progress := ui.NewProgress("inserted", cfg.Search.Target)
	s.OnPage = func(r ingest.SearchResult) { progress.Set(r.PriorInserted + r.Inserted) }

	res, err := s.Run(ctx, req)
	progress.Done()
	if err != nil {
		logger.LogComponentStop(log, "search", err.Error())
		return err
	}

	reason := "target reached"
	if res.Exhausted {
		reason = "search exhausted"
	}
	logger.LogComponentStop(log, "search", reason)

	ui.PrintSummary("Search "+reason, []ui.Stat{
		{Label: "Collection", Value: cfg.Search.Collection},
		{Label: "Inserted", Value: strconv.Itoa(res.Inserted)},
		{Label: "Skipped", Value: strconv.Itoa(res.Skipped)},
		{Label: "Pages", Value: strconv.Itoa(res.Pages)},
		{Label: "Resumed", Value: fmt.Sprint(res.Resumed)},
		{Label: "Inserted earlier", Value: strconv.Itoa(res.PriorInserted)},
		{Label: "Elapsed", Value: formatDuration(time.Since(start))},
	})
	return nil
}

// searchRequest loads the keyword file and checks the request without
// touching the store or the API.
func searchRequest(cfg *config.Config) (ingest.SearchRequest, error) {
	q, err := query.Load(cfg.Search.QueryFile)
	if err != nil {
		return ingest.SearchRequest{}, err
	}
	req := ingest.SearchRequest{
		Query:  q,
		Sort:   cfg.Search.Sort,
		Target: cfg.Search.Target,
	}
	if err := req.Validate(); err != nil {
		return ingest.SearchRequest{}, err
	}
	return req, nil
}
