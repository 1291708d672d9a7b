package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"twitterkeywordsearch/pkg/logger"
)

func TestRunAllJobs(t *testing.T) {
	var ran atomic.Int32
	var running, peak atomic.Int32

	job := func(ctx context.Context) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
		ran.Add(1)
		return nil
	}

	jobs := []Job{{"profile", job}, {"tweets", job}, {"follower_ids", job}, {"following_ids", job}}
	results, err := Run(context.Background(), jobs, logger.NewTestLogger())
	require.NoError(t, err)

	assert.Equal(t, int32(4), ran.Load())
	assert.Equal(t, int32(4), peak.Load(), "jobs run concurrently")
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, jobs[i].Name, r.Name)
		assert.NoError(t, r.Err)
	}
}

func TestRunFailureCancelsOthers(t *testing.T) {
	boom := errors.New("store unavailable")
	tl := logger.NewTestLogger()

	jobs := []Job{
		{"failing", func(ctx context.Context) error { return boom }},
		{"waiting", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}},
	}

	results, err := Run(context.Background(), jobs, tl)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing worker")
	assert.ErrorIs(t, results[1].Err, context.Canceled)
	assert.True(t, tl.HasMessage("Worker failed"))
}

func TestRunNoJobs(t *testing.T) {
	results, err := Run(context.Background(), nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, results)
}
