package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"twitterkeywordsearch/pkg/checkpoint"
	"twitterkeywordsearch/pkg/errors"
	"twitterkeywordsearch/pkg/logger"
	"twitterkeywordsearch/pkg/models"
	"twitterkeywordsearch/pkg/pager"
	"twitterkeywordsearch/pkg/store"
	"twitterkeywordsearch/pkg/store/memstore"
)

func threeSearchPages() [][]models.Document {
	return [][]models.Document{
		{post("1", "42", 2021), post("2", "42", 2021)},
		{post("3", "7", 2021), post("4", "8", 2021)},
		{post("5", "42", 2020), post("6", "9", 2020)},
	}
}

func newSearchIngestor(api *fakeAPI, coll *memstore.Collection, tl *logger.TestLogger) *SearchIngestor {
	return &SearchIngestor{
		API:            api,
		Collection:     coll,
		CollectionName: "search",
		Logger:         tl,
		PagerOptions:   pager.Options{Cooldown: time.Millisecond},
	}
}

func TestSearchRunUntilExhausted(t *testing.T) {
	api := newFakeAPI()
	api.search = threeSearchPages()
	coll := memstore.New().C("search")
	tl := logger.NewTestLogger()
	s := newSearchIngestor(api, coll, tl)

	res, err := s.Run(context.Background(), SearchRequest{Query: `"golang"`, Sort: "recent", Target: 100})
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, StateDone, s.State())
	assert.Equal(t, 6, res.Inserted)
	assert.Equal(t, 3, res.Pages)
	assert.True(t, res.Exhausted)
	assert.Equal(t, 6, coll.Len())

	assert.Equal(t, `"golang"`, api.lastSearch.Query)
	assert.Equal(t, "en", api.lastSearch.Lang)
	assert.Equal(t, "recent", api.lastSearch.ResultType)
	assert.Equal(t, 100, api.lastSearch.Count)

	cur, err := coll.Find(context.Background(), store.Filter{"id_str": "1"})
	require.NoError(t, err)
	docs, err := store.All(context.Background(), cur)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.IsType(t, time.Time{}, docs[0]["created_at"], "stored posts are normalized")
	assert.IsType(t, time.Time{}, docs[0]["user"].(map[string]any)["created_at"])

	assert.True(t, tl.HasMessage("Search state changed"))
}

func TestSearchStopsAtTarget(t *testing.T) {
	api := newFakeAPI()
	api.search = threeSearchPages()
	coll := memstore.New().C("search")
	s := newSearchIngestor(api, coll, logger.NewTestLogger())

	res, err := s.Run(context.Background(), SearchRequest{Query: "q", Sort: "popular", Target: 3})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Inserted)
	assert.False(t, res.Exhausted)
	assert.Equal(t, int64(2), api.searchCalls.Load())
	assert.Equal(t, 3, coll.Len())
}

func TestSearchDuplicatesWithoutDedupe(t *testing.T) {
	api := newFakeAPI()
	api.search = threeSearchPages()
	coll := memstore.New().C("search")
	s := newSearchIngestor(api, coll, logger.NewTestLogger())

	for i := 0; i < 2; i++ {
		_, err := s.Run(context.Background(), SearchRequest{Query: "q", Sort: "mixed", Target: 100})
		require.NoError(t, err)
	}
	assert.Equal(t, 12, coll.Len(), "re-running search inserts again")
}

func TestSearchDedupe(t *testing.T) {
	api := newFakeAPI()
	api.search = threeSearchPages()
	coll := memstore.New().C("search")
	require.NoError(t, coll.InsertOne(context.Background(), post("3", "7", 2021)))

	s := newSearchIngestor(api, coll, logger.NewTestLogger())
	s.Dedupe = true

	res, err := s.Run(context.Background(), SearchRequest{Query: "q", Sort: "recent", Target: 100})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 6, coll.Len())
}

func TestSearchValidationBeforeNetwork(t *testing.T) {
	tests := []struct {
		name string
		req  SearchRequest
	}{
		{"empty query", SearchRequest{Query: "", Sort: "popular", Target: 10}},
		{"bad sort", SearchRequest{Query: "q", Sort: "oldest", Target: 10}},
		{"zero target", SearchRequest{Query: "q", Sort: "popular", Target: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			s := newSearchIngestor(api, memstore.New().C("search"), logger.NewTestLogger())

			_, err := s.Run(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
			assert.Zero(t, api.totalCalls())
		})
	}
}

func TestSearchCooldownResumesSameCursor(t *testing.T) {
	api := newFakeAPI()
	api.search = threeSearchPages()
	api.rateLimits["search:1"] = 1
	coll := memstore.New().C("search")
	tl := logger.NewTestLogger()
	s := newSearchIngestor(api, coll, tl)

	res, err := s.Run(context.Background(), SearchRequest{Query: "q", Sort: "recent", Target: 100})
	require.NoError(t, err)

	assert.Equal(t, 6, res.Inserted)
	assert.Equal(t, []int64{0, 1, 1, 2}, api.searchCursors)
	assert.True(t, tl.HasMessage("Rate limit reached, cooling down"))
}

func TestSearchStreamErrorPropagates(t *testing.T) {
	api := newFakeAPI()
	api.search = threeSearchPages()
	api.errs["search:1"] = errors.New(errors.ErrorTypeTransport, "connection reset")
	coll := memstore.New().C("search")
	s := newSearchIngestor(api, coll, logger.NewTestLogger())

	res, err := s.Run(context.Background(), SearchRequest{Query: "q", Sort: "recent", Target: 100})
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
	assert.Equal(t, 2, res.Inserted, "first page was stored")
}

func TestSearchCheckpointResume(t *testing.T) {
	dir := t.TempDir()
	key := checkpoint.Key("q", "recent", "search")
	newManager := func() *checkpoint.Manager {
		m, err := checkpoint.NewManagerInDir(dir, key, logger.NewNopLogger())
		require.NoError(t, err)
		return m
	}

	api := newFakeAPI()
	api.search = threeSearchPages()
	coll := memstore.New().C("search")

	first := newSearchIngestor(api, coll, logger.NewTestLogger())
	first.Checkpoint = newManager()
	res, err := first.Run(context.Background(), SearchRequest{Query: "q", Sort: "recent", Target: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.False(t, res.Resumed)

	cp, err := newManager().Load()
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, int64(1), cp.MaxID)

	second := newSearchIngestor(api, coll, logger.NewTestLogger())
	second.Checkpoint = newManager()
	res, err = second.Run(context.Background(), SearchRequest{Query: "q", Sort: "recent", Target: 100})
	require.NoError(t, err)
	assert.True(t, res.Resumed)
	assert.True(t, res.Exhausted)
	assert.Equal(t, 4, res.Inserted)
	assert.Equal(t, 6, coll.Len(), "no page was ingested twice")
	assert.Equal(t, []int64{0, 1, 2}, api.searchCursors)

	assert.False(t, newManager().Exists(), "exhausted stream removes its checkpoint")
}

func TestSearchResumeCountsEarlierInsertsTowardTarget(t *testing.T) {
	dir := t.TempDir()
	key := checkpoint.Key("q", "recent", "search")
	newManager := func() *checkpoint.Manager {
		m, err := checkpoint.NewManagerInDir(dir, key, logger.NewNopLogger())
		require.NoError(t, err)
		return m
	}

	api := newFakeAPI()
	api.search = threeSearchPages()
	coll := memstore.New().C("search")
	req := SearchRequest{Query: "q", Sort: "recent", Target: 4}

	first := newSearchIngestor(api, coll, logger.NewTestLogger())
	first.Checkpoint = newManager()
	_, err := first.Run(context.Background(), SearchRequest{Query: "q", Sort: "recent", Target: 2})
	require.NoError(t, err)

	second := newSearchIngestor(api, coll, logger.NewTestLogger())
	second.Checkpoint = newManager()
	res, err := second.Run(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Resumed)
	assert.Equal(t, 2, res.PriorInserted)
	assert.Equal(t, 2, res.Inserted, "only the rest of the target is fetched")
	assert.False(t, res.Exhausted)
	assert.Equal(t, 4, coll.Len())
	assert.Equal(t, []int64{0, 1}, api.searchCursors)

	third := newSearchIngestor(api, coll, logger.NewTestLogger())
	third.Checkpoint = newManager()
	res, err = third.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, 4, res.PriorInserted)
	assert.Zero(t, res.Inserted)
	assert.Equal(t, []int64{0, 1}, api.searchCursors, "a reached target makes no requests")
	assert.True(t, newManager().Exists(), "an unfinished stream keeps its checkpoint")
}

func TestSearchStateString(t *testing.T) {
	assert.Equal(t, "INIT", StateInit.String())
	assert.Equal(t, "STREAMING", StateStreaming.String())
	assert.Equal(t, "DONE", StateDone.String())
	assert.Equal(t, "SearchState(7)", SearchState(7).String())
}

func TestSearchOnPage(t *testing.T) {
	api := newFakeAPI()
	api.search = threeSearchPages()
	s := newSearchIngestor(api, memstore.New().C("search"), logger.NewTestLogger())

	var seen []int
	s.OnPage = func(r SearchResult) { seen = append(seen, r.Inserted) }

	_, err := s.Run(context.Background(), SearchRequest{Query: "q", Sort: "recent", Target: 100})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, seen)
}
