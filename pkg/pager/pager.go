// Package pager walks a cursor-paginated remote endpoint and absorbs rate
// limiting: when a fetch reports a rate limit, the pager sleeps for a fixed
// cool-down and re-fetches the same cursor, so no page is skipped or seen
// twice.
//
// Transport failures are not retried here. The remote client retries those
// itself before returning.
package pager

import (
	"context"
	"iter"
	"time"

	"twitterkeywordsearch/pkg/errors"
	"twitterkeywordsearch/pkg/logger"
	"twitterkeywordsearch/pkg/retry"
)

// DefaultCooldown is the remote API's rate-limit window.
const DefaultCooldown = 900 * time.Second

// Page is one response of a paginated endpoint. Next is the cursor for the
// following page and is only meaningful when HasNext is true.
type Page[T any] struct {
	Items   []T
	Next    int64
	HasNext bool
}

// FetchFunc fetches the page at cursor.
type FetchFunc[T any] func(ctx context.Context, cursor int64) (Page[T], error)

// Options tune a pager.
type Options struct {
	// Stream names the endpoint in log lines and metrics
	Stream string
	// Cooldown is the wait after a rate limit; zero means DefaultCooldown
	Cooldown time.Duration
	// MaxCooldowns caps consecutive cool-downs on one cursor; zero is unbounded
	MaxCooldowns int
	Logger       logger.Logger
	// OnCooldown is called before each cool-down wait
	OnCooldown func(stream string)
}

// Pager is a forward-only, non-restartable sequence of pages.
type Pager[T any] struct {
	fetch  FetchFunc[T]
	opts   Options
	cursor int64
	done   bool

	buf     []T
	fetched int
}

// New creates a pager that starts fetching at cursor start.
func New[T any](fetch FetchFunc[T], start int64, opts Options) *Pager[T] {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	return &Pager[T]{fetch: fetch, opts: opts, cursor: start}
}

// Cursor returns the cursor the next advance will fetch.
func (p *Pager[T]) Cursor() int64 {
	return p.cursor
}

// PagesFetched returns the number of pages fetched successfully.
func (p *Pager[T]) PagesFetched() int {
	return p.fetched
}

// Done reports whether the sequence is exhausted.
func (p *Pager[T]) Done() bool {
	return p.done && len(p.buf) == 0
}

// NextPage fetches the next page. It returns false once the endpoint is
// exhausted. An empty final page ends the sequence without being returned.
func (p *Pager[T]) NextPage(ctx context.Context) ([]T, bool, error) {
	if p.done {
		return nil, false, nil
	}

	cfg := &retry.Config{
		Backoff: &retry.ConstantBackoff{Delay: p.opts.Cooldown},
		RetryIf: errors.IsRateLimit,
		Context: ctx,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.LogCooldown(p.opts.Logger, p.opts.Stream, p.cursor, delay)
			if p.opts.OnCooldown != nil {
				p.opts.OnCooldown(p.opts.Stream)
			}
		},
	}
	if p.opts.MaxCooldowns > 0 {
		cfg.MaxAttempts = p.opts.MaxCooldowns + 1
	}

	page, err := retry.DoWithResult(func() (Page[T], error) {
		if err := ctx.Err(); err != nil {
			return Page[T]{}, err
		}
		return p.fetch(ctx, p.cursor)
	}, cfg)
	if err != nil {
		return nil, false, err
	}

	p.fetched++
	if !page.HasNext {
		p.done = true
	} else {
		p.cursor = page.Next
	}
	if len(page.Items) == 0 {
		p.done = true
		return nil, false, nil
	}
	return page.Items, true, nil
}

// Next returns the next item, fetching a new page when the current one is
// used up.
func (p *Pager[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	for len(p.buf) == 0 {
		items, ok, err := p.NextPage(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		p.buf = items
	}
	item := p.buf[0]
	p.buf = p.buf[1:]
	return item, true, nil
}

// Pages adapts the pager to a range-over-func sequence of pages. Iteration
// stops after the first error is yielded.
func (p *Pager[T]) Pages(ctx context.Context) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		for {
			items, ok, err := p.NextPage(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok || !yield(items, nil) {
				return
			}
		}
	}
}

// Items adapts the pager to a range-over-func sequence of items.
func (p *Pager[T]) Items(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			item, ok, err := p.Next(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !ok || !yield(item, nil) {
				return
			}
		}
	}
}
