package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"twitterkeywordsearch/pkg/errors"
	"twitterkeywordsearch/pkg/models"
	"twitterkeywordsearch/pkg/pager"
	"twitterkeywordsearch/pkg/twitter"
)

// fakeAPI serves canned pages. Tweet streams use the page index as cursor;
// id listings start at -1 like the real API.
type fakeAPI struct {
	mu sync.Mutex

	search    [][]models.Document
	users     map[string]models.Document
	timelines map[string][][]models.Document
	followers map[string][][]int64
	following map[string][][]int64

	// errs fails a call, keyed by "<method>:<user id>"
	errs map[string]error
	// rateLimits rate-limits a stream once, keyed by "<method>:<cursor>"
	rateLimits map[string]int

	searchCursors []int64
	lastSearch    twitter.SearchParams

	searchCalls    atomic.Int64
	userCalls      atomic.Int64
	timelineCalls  atomic.Int64
	followerCalls  atomic.Int64
	followingCalls atomic.Int64
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		users:      map[string]models.Document{},
		timelines:  map[string][][]models.Document{},
		followers:  map[string][][]int64{},
		following:  map[string][][]int64{},
		errs:       map[string]error{},
		rateLimits: map[string]int{},
	}
}

func (f *fakeAPI) totalCalls() int64 {
	return f.searchCalls.Load() + f.userCalls.Load() + f.timelineCalls.Load() +
		f.followerCalls.Load() + f.followingCalls.Load()
}

func (f *fakeAPI) failure(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[key]; ok {
		return err
	}
	if f.rateLimits[key] > 0 {
		f.rateLimits[key]--
		return errors.New(errors.ErrorTypeRateLimit, "Rate limit exceeded").WithCode(88)
	}
	return nil
}

func tweetPage(pages [][]models.Document, cursor int64) pager.Page[models.Document] {
	if int(cursor) >= len(pages) {
		return pager.Page[models.Document]{}
	}
	items := make([]models.Document, len(pages[cursor]))
	for i, d := range pages[cursor] {
		items[i] = models.Clone(d)
	}
	return pager.Page[models.Document]{
		Items:   items,
		Next:    cursor + 1,
		HasNext: int(cursor)+1 < len(pages),
	}
}

func idsPage(pages [][]int64, cursor int64) pager.Page[int64] {
	idx := int64(0)
	if cursor > 0 {
		idx = cursor
	}
	if int(idx) >= len(pages) {
		return pager.Page[int64]{}
	}
	page := pager.Page[int64]{Items: append([]int64(nil), pages[idx]...)}
	if int(idx)+1 < len(pages) {
		page.Next = idx + 1
		page.HasNext = true
	}
	return page
}

func (f *fakeAPI) SearchTweets(ctx context.Context, params twitter.SearchParams, maxID int64) (pager.Page[models.Document], error) {
	f.searchCalls.Add(1)
	f.mu.Lock()
	f.searchCursors = append(f.searchCursors, maxID)
	f.lastSearch = params
	f.mu.Unlock()
	if err := f.failure(fmt.Sprintf("search:%d", maxID)); err != nil {
		return pager.Page[models.Document]{}, err
	}
	return tweetPage(f.search, maxID), nil
}

func (f *fakeAPI) GetUser(ctx context.Context, id string) (models.Document, error) {
	f.userCalls.Add(1)
	if err := f.failure("user:" + id); err != nil {
		return nil, err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New(errors.ErrorTypeAuth, "User not found.").WithCode(50)
	}
	return models.Clone(u), nil
}

func (f *fakeAPI) FollowerIDs(ctx context.Context, id string, cursor int64) (pager.Page[int64], error) {
	f.followerCalls.Add(1)
	if err := f.failure("followers:" + id); err != nil {
		return pager.Page[int64]{}, err
	}
	return idsPage(f.followers[id], cursor), nil
}

func (f *fakeAPI) FollowingIDs(ctx context.Context, id string, cursor int64) (pager.Page[int64], error) {
	f.followingCalls.Add(1)
	if err := f.failure("following:" + id); err != nil {
		return pager.Page[int64]{}, err
	}
	return idsPage(f.following[id], cursor), nil
}

func (f *fakeAPI) UserTimeline(ctx context.Context, id string, maxID int64) (pager.Page[models.Document], error) {
	f.timelineCalls.Add(1)
	if err := f.failure("timeline:" + id); err != nil {
		return pager.Page[models.Document]{}, err
	}
	return tweetPage(f.timelines[id], maxID), nil
}

func createdAt(year int) string {
	return time.Date(year, time.June, 1, 12, 0, 0, 0, time.UTC).Format("Mon Jan 02 15:04:05 +0000 2006")
}

func post(id string, authorID string, year int) models.Document {
	return models.Document{
		"id_str":     id,
		"created_at": createdAt(year),
		"full_text":  "post " + id,
		"user": map[string]any{
			"id_str":     authorID,
			"created_at": createdAt(2010),
		},
	}
}

func profile(id, screenName string) models.Document {
	return models.Document{
		"id":          int64(len(id)) * 1000,
		"id_str":      id,
		"screen_name": screenName,
		"created_at":  createdAt(2012),
	}
}
