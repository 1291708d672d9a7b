package ingest

import (
	"context"
	stderrors "errors"
	"fmt"

	"twitterkeywordsearch/pkg/checkpoint"
	"twitterkeywordsearch/pkg/config"
	"twitterkeywordsearch/pkg/errors"
	"twitterkeywordsearch/pkg/logger"
	"twitterkeywordsearch/pkg/metrics"
	"twitterkeywordsearch/pkg/models"
	"twitterkeywordsearch/pkg/normalize"
	"twitterkeywordsearch/pkg/pager"
	"twitterkeywordsearch/pkg/store"
	"twitterkeywordsearch/pkg/twitter"
)

// SearchLanguage is the only language searched.
const SearchLanguage = "en"

// SearchState is a phase of a search run.
type SearchState int

const (
	StateInit SearchState = iota
	StateStreaming
	StateDone
)

func (s SearchState) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateStreaming:
		return "STREAMING"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("SearchState(%d)", int(s))
	}
}

// SearchRequest is one search run.
type SearchRequest struct {
	Query  string
	Sort   string
	Target int
}

// SearchResult summarizes a search run.
type SearchResult struct {
	State    SearchState
	Inserted int
	Skipped  int
	Pages    int
	// Exhausted is true when the stream ran out before the target
	Exhausted bool
	// Resumed is true when the run continued from a checkpoint
	Resumed bool
	// PriorInserted is what earlier runs of a resumed stream inserted. It
	// counts toward the target.
	PriorInserted int
}

// SearchIngestor streams a keyword search into a collection.
type SearchIngestor struct {
	API        TwitterAPI
	Collection store.Collection
	// CollectionName labels metrics
	CollectionName string
	Logger         logger.Logger
	PagerOptions   pager.Options
	// Dedupe skips results whose id_str is already stored
	Dedupe bool
	// Checkpoint, when set, resumes from and records the stream cursor
	Checkpoint *checkpoint.Manager
	RunID      string
	// OnPage, when set, is called with the running totals after each page
	OnPage func(SearchResult)

	state SearchState
}

// State returns the current phase.
func (s *SearchIngestor) State() SearchState {
	return s.state
}

func (s *SearchIngestor) transition(log logger.Logger, next SearchState, fields map[string]interface{}) {
	log.WithFields(fields).InfoWithFields("Search state changed", map[string]interface{}{
		"from": s.state.String(),
		"to":   next.String(),
	})
	s.state = next
}

// Validate checks a request before any network activity.
func (r SearchRequest) Validate() error {
	var errs []error
	if r.Query == "" {
		errs = append(errs, errors.New(errors.ErrorTypeValidation, "search query is empty"))
	}
	if !config.IsSortMode(r.Sort) {
		errs = append(errs, errors.Newf(errors.ErrorTypeValidation,
			"sort must be one of %v, got %q", config.SortModes, r.Sort))
	}
	if r.Target <= 0 {
		errs = append(errs, errors.Newf(errors.ErrorTypeValidation, "target must be positive, got %d", r.Target))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Wrap(errors.ErrorTypeValidation, stderrors.Join(errs...), "invalid search request")
}

// Run ingests results until req.Target documents were inserted or the
// stream is exhausted. On resume, the checkpoint's inserted total counts
// toward req.Target.
func (s *SearchIngestor) Run(ctx context.Context, req SearchRequest) (SearchResult, error) {
	log := s.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("component", "search")

	s.state = StateInit
	result := SearchResult{State: StateInit}
	if err := req.Validate(); err != nil {
		return result, err
	}
	log.InfoWithFields("Search initialized", map[string]interface{}{
		"state":  StateInit.String(),
		"query":  req.Query,
		"sort":   req.Sort,
		"target": req.Target,
		"dedupe": s.Dedupe,
	})

	var start int64
	remaining := req.Target
	var cp *checkpoint.Checkpoint
	if s.Checkpoint != nil {
		var err error
		cp, err = s.Checkpoint.Load()
		if err != nil {
			log.WithError(err).Warn("Ignoring unreadable checkpoint")
			cp = nil
		}
		if cp != nil && cp.Query == req.Query && cp.Sort == req.Sort {
			start = cp.MaxID
			result.Resumed = true
			result.PriorInserted = cp.TotalInserted
			remaining -= cp.TotalInserted
			log.InfoWithFields("Resuming search from checkpoint", map[string]interface{}{
				"max_id":         cp.MaxID,
				"total_inserted": cp.TotalInserted,
			})
		} else {
			if cp, err = s.Checkpoint.Create(req.Query, req.Sort, s.CollectionName, s.RunID); err != nil {
				return result, err
			}
		}
	}

	params := twitter.SearchParams{
		Query:      req.Query,
		Lang:       SearchLanguage,
		ResultType: req.Sort,
		Count:      twitter.SearchPageSize,
	}
	p := pager.New(func(ctx context.Context, cursor int64) (pager.Page[models.Document], error) {
		return s.API.SearchTweets(ctx, params, cursor)
	}, start, streamOptions(s.PagerOptions, "search", log))

	if remaining <= 0 {
		s.transition(log, StateDone, map[string]interface{}{
			"reason":         "target reached",
			"prior_inserted": result.PriorInserted,
		})
		result.State = StateDone
		return result, nil
	}

	s.transition(log, StateStreaming, map[string]interface{}{"max_id": start})
	result.State = StateStreaming

	for {
		page, ok, err := p.NextPage(ctx)
		if err != nil {
			return result, fmt.Errorf("search stream: %w", err)
		}
		if !ok {
			result.Exhausted = true
			break
		}
		result.Pages++

		insertedBefore := result.Inserted
		consumed := true
		for i, doc := range page {
			if err := s.ingest(ctx, log, doc, &result); err != nil {
				return result, err
			}
			if result.Inserted >= remaining {
				consumed = i == len(page)-1
				break
			}
		}

		// A partially consumed page is not recorded, so a resumed run
		// fetches it again.
		if consumed && cp != nil {
			if err := s.Checkpoint.UpdateProgress(cp, p.Cursor(), result.Inserted-insertedBefore); err != nil {
				log.WithError(err).Warn("Failed to save checkpoint")
			}
		}
		log.DebugWithFields("Search page ingested", map[string]interface{}{
			"page":     result.Pages,
			"inserted": result.Inserted,
			"skipped":  result.Skipped,
		})
		if s.OnPage != nil {
			s.OnPage(result)
		}
		if result.Inserted >= remaining {
			break
		}
	}

	if result.Exhausted && cp != nil {
		if err := s.Checkpoint.Delete(); err != nil {
			log.WithError(err).Warn("Failed to delete checkpoint")
		}
	}

	reason := "target reached"
	if result.Exhausted {
		reason = "stream exhausted"
	}
	s.transition(log, StateDone, map[string]interface{}{
		"reason":   reason,
		"inserted": result.Inserted,
		"skipped":  result.Skipped,
		"pages":    result.Pages,
	})
	result.State = StateDone
	return result, nil
}

// ingest normalizes and stores one search result. Only store failures are
// returned.
func (s *SearchIngestor) ingest(ctx context.Context, log logger.Logger, doc models.Document, result *SearchResult) error {
	id := models.String(doc, models.FieldIDStr)
	if _, err := normalize.Post(doc); err != nil {
		log.WithError(err).WarnWithFields("Storing post with unconverted fields", map[string]interface{}{
			"id_str": id,
		})
	}

	if s.Dedupe && id != "" {
		n, err := s.Collection.Count(ctx, store.Filter{models.FieldIDStr: id})
		if err != nil {
			return fmt.Errorf("dedupe check: %w", err)
		}
		if n > 0 {
			result.Skipped++
			metrics.IncSkipped(s.CollectionName)
			return nil
		}
	}

	if err := s.Collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert post %s: %w", id, err)
	}
	result.Inserted++
	metrics.IncInserted(s.CollectionName)
	return nil
}
