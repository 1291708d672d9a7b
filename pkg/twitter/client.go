package twitter

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dghubble/go-twitter/twitter"
	"github.com/dghubble/oauth1"

	"twitterkeywordsearch/pkg/errors"
	"twitterkeywordsearch/pkg/logger"
	"twitterkeywordsearch/pkg/metrics"
	"twitterkeywordsearch/pkg/models"
	"twitterkeywordsearch/pkg/pager"
	"twitterkeywordsearch/pkg/ratelimit"
	"twitterkeywordsearch/pkg/retry"
)

// Page sizes are the per-endpoint maximums of the v1.1 API.
const (
	SearchPageSize   = 100
	TimelinePageSize = 200
	IDsPageSize      = 5000

	// ExtendedMode requests untruncated full_text
	ExtendedMode = "extended"

	// FirstIDsCursor starts a cursored id listing
	FirstIDsCursor int64 = -1
)

// Credentials are the OAuth1 consumer and access token pairs.
type Credentials struct {
	APIKey      string
	APISecret   string
	AccessToken string
	TokenSecret string
}

// Valid reports whether every part of the key set is present.
func (c Credentials) Valid() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.TokenSecret != ""
}

// Options tune request pacing and transport retries.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Limiter    ratelimit.Limiter
}

// DefaultOptions retries transport failures 5 times, 5 seconds apart.
func DefaultOptions() Options {
	return Options{
		Timeout:    30 * time.Second,
		MaxRetries: 5,
		RetryDelay: 5 * time.Second,
	}
}

// SearchParams describe a keyword search stream.
type SearchParams struct {
	Query string
	Lang  string
	// ResultType is one of popular, recent or mixed
	ResultType string
	Count      int
}

// Client is the remote API adapter. It paces every request through a
// limiter, retries transport failures and converts responses into
// documents keyed by the API's JSON field names.
type Client struct {
	api        *twitter.Client
	limiter    ratelimit.Limiter
	maxRetries int
	retryDelay time.Duration
	logger     logger.Logger
}

// NewClient creates an OAuth1-signed client.
func NewClient(creds Credentials, opts Options, log logger.Logger) (*Client, error) {
	if !creds.Valid() {
		return nil, errors.New(errors.ErrorTypeValidation,
			"twitter credentials are incomplete: api key, api secret, access token and token secret are required")
	}

	base := &http.Client{Timeout: opts.Timeout}
	ctx := context.WithValue(context.Background(), oauth1.HTTPClient, base)
	httpClient := oauth1.NewConfig(creds.APIKey, creds.APISecret).
		Client(ctx, oauth1.NewToken(creds.AccessToken, creds.TokenSecret))
	httpClient.Timeout = opts.Timeout

	return NewClientWithHTTP(httpClient, opts, log), nil
}

// NewClientWithHTTP creates a client over an already-authenticated HTTP
// client.
func NewClientWithHTTP(httpClient *http.Client, opts Options, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	return &Client{
		api:        twitter.NewClient(httpClient),
		limiter:    limiter,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		logger:     log.WithField("component", "twitter"),
	}
}

// call paces and runs one request, retrying transport failures.
func (c *Client) call(ctx context.Context, endpoint string, fields map[string]interface{}, fn func() (*http.Response, error)) error {
	log := c.logger.WithField("endpoint", endpoint)
	if len(fields) > 0 {
		log = log.WithFields(fields)
	}

	cfg := retry.Fixed(ctx, c.maxRetries, c.retryDelay, errors.IsTransport)
	cfg.Logger = log
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		metrics.IncAPIRetry(endpoint)
	}

	return retry.Do(func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		start := time.Now()
		resp, err := fn()
		if apiErr := classify(resp, err); apiErr != nil {
			log.WithError(apiErr).DebugWithFields("request failed", map[string]interface{}{
				"duration": time.Since(start),
			})
			metrics.ObserveRequest(endpoint, string(errors.TypeOf(apiErr)))
			return apiErr
		}

		log.DebugWithFields("request completed", map[string]interface{}{
			"status":   resp.StatusCode,
			"duration": time.Since(start),
		})
		metrics.ObserveRequest(endpoint, "ok")
		return nil
	}, cfg)
}

// Verify checks the credentials and returns the authenticated account.
func (c *Client) Verify(ctx context.Context) (models.Document, error) {
	var user *twitter.User
	err := c.call(ctx, "account/verify_credentials", nil, func() (*http.Response, error) {
		var resp *http.Response
		var err error
		user, resp, err = c.api.Accounts.VerifyCredentials(&twitter.AccountVerifyParams{
			SkipStatus: twitter.Bool(true),
		})
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return toDocument(user)
}

// SearchTweets fetches one page of search results older than maxID. The
// next cursor is one below the smallest id returned.
func (c *Client) SearchTweets(ctx context.Context, params SearchParams, maxID int64) (pager.Page[models.Document], error) {
	count := params.Count
	if count <= 0 {
		count = SearchPageSize
	}

	var search *twitter.Search
	err := c.call(ctx, "search/tweets", map[string]interface{}{"max_id": maxID}, func() (*http.Response, error) {
		var resp *http.Response
		var err error
		search, resp, err = c.api.Search.Tweets(&twitter.SearchTweetParams{
			Query:      params.Query,
			Lang:       params.Lang,
			ResultType: params.ResultType,
			Count:      count,
			MaxID:      maxID,
			TweetMode:  ExtendedMode,
		})
		return resp, err
	})
	if err != nil {
		return pager.Page[models.Document]{}, err
	}
	return tweetPage(search.Statuses)
}

// GetUser fetches a single user profile.
func (c *Client) GetUser(ctx context.Context, id string) (models.Document, error) {
	uid, err := parseUserID(id)
	if err != nil {
		return nil, err
	}

	var user *twitter.User
	err = c.call(ctx, "users/show", map[string]interface{}{"user_id": id}, func() (*http.Response, error) {
		var resp *http.Response
		var err error
		user, resp, err = c.api.Users.Show(&twitter.UserShowParams{UserID: uid})
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return toDocument(user)
}

// FollowerIDs fetches one cursored page of follower ids. Start with
// FirstIDsCursor; a zero next cursor ends the listing.
func (c *Client) FollowerIDs(ctx context.Context, id string, cursor int64) (pager.Page[int64], error) {
	uid, err := parseUserID(id)
	if err != nil {
		return pager.Page[int64]{}, err
	}

	var ids *twitter.FollowerIDs
	err = c.call(ctx, "followers/ids", map[string]interface{}{"user_id": id, "cursor": cursor}, func() (*http.Response, error) {
		var resp *http.Response
		var err error
		ids, resp, err = c.api.Followers.IDs(&twitter.FollowerIDParams{
			UserID: uid,
			Cursor: cursor,
			Count:  IDsPageSize,
		})
		return resp, err
	})
	if err != nil {
		return pager.Page[int64]{}, err
	}
	return idPage(ids.IDs, ids.NextCursor), nil
}

// FollowingIDs fetches one cursored page of the ids a user follows.
func (c *Client) FollowingIDs(ctx context.Context, id string, cursor int64) (pager.Page[int64], error) {
	uid, err := parseUserID(id)
	if err != nil {
		return pager.Page[int64]{}, err
	}

	var ids *twitter.FriendIDs
	err = c.call(ctx, "friends/ids", map[string]interface{}{"user_id": id, "cursor": cursor}, func() (*http.Response, error) {
		var resp *http.Response
		var err error
		ids, resp, err = c.api.Friends.IDs(&twitter.FriendIDParams{
			UserID: uid,
			Cursor: cursor,
			Count:  IDsPageSize,
		})
		return resp, err
	})
	if err != nil {
		return pager.Page[int64]{}, err
	}
	return idPage(ids.IDs, ids.NextCursor), nil
}

// UserTimeline fetches one page of a user's posts older than maxID, most
// recent first.
func (c *Client) UserTimeline(ctx context.Context, id string, maxID int64) (pager.Page[models.Document], error) {
	uid, err := parseUserID(id)
	if err != nil {
		return pager.Page[models.Document]{}, err
	}

	var tweets []twitter.Tweet
	err = c.call(ctx, "statuses/user_timeline", map[string]interface{}{"user_id": id, "max_id": maxID}, func() (*http.Response, error) {
		var resp *http.Response
		var err error
		tweets, resp, err = c.api.Timelines.UserTimeline(&twitter.UserTimelineParams{
			UserID:          uid,
			Count:           TimelinePageSize,
			MaxID:           maxID,
			IncludeRetweets: twitter.Bool(true),
			TweetMode:       ExtendedMode,
		})
		return resp, err
	})
	if err != nil {
		return pager.Page[models.Document]{}, err
	}
	return tweetPage(tweets)
}

func parseUserID(id string) (int64, error) {
	uid, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrorTypeValidation, err, "invalid user id "+strconv.Quote(id))
	}
	return uid, nil
}

// tweetPage builds a max_id page: the next request asks for posts strictly
// older than the oldest one seen, and an empty page ends the stream.
func tweetPage(tweets []twitter.Tweet) (pager.Page[models.Document], error) {
	page := pager.Page[models.Document]{Items: make([]models.Document, 0, len(tweets))}
	var minID int64
	for i := range tweets {
		doc, err := toDocument(&tweets[i])
		if err != nil {
			return pager.Page[models.Document]{}, err
		}
		page.Items = append(page.Items, doc)
		if id := tweets[i].ID; minID == 0 || id < minID {
			minID = id
		}
	}
	if len(tweets) > 0 && minID > 0 {
		page.Next = minID - 1
		page.HasNext = true
	}
	return page, nil
}

func idPage(ids []int64, next int64) pager.Page[int64] {
	return pager.Page[int64]{
		Items:   append([]int64(nil), ids...),
		Next:    next,
		HasNext: next != 0,
	}
}
