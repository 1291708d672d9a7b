package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "twitterkeywordsearch/pkg/errors"
	"twitterkeywordsearch/pkg/logger"
)

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errs.New(errs.ErrorTypeTransport, "connection reset")
		}
		return nil
	}

	cfg := Fixed(context.Background(), 5, time.Millisecond, errs.IsTransport)
	require.NoError(t, Do(op, cfg))
	assert.Equal(t, 3, attempts)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return errs.New(errs.ErrorTypeTransport, "timeout")
	}

	err := Do(op, Fixed(context.Background(), 5, time.Millisecond, errs.IsTransport))
	require.Error(t, err)
	assert.Equal(t, 6, attempts)
	assert.True(t, errs.IsTransport(err), "exhausted error keeps its type")
	assert.Contains(t, err.Error(), "max retry attempts (6) exceeded")
}

func TestRetryNonRetryable(t *testing.T) {
	attempts := 0
	authErr := errs.New(errs.ErrorTypeAuth, "Not authorized.")

	err := Do(func() error {
		attempts++
		return authErr
	}, Fixed(context.Background(), 5, time.Millisecond, errs.IsTransport))

	assert.Equal(t, 1, attempts)
	assert.Same(t, authErr, err)
}

func TestRetryUnlimited(t *testing.T) {
	attempts := 0
	var delays []time.Duration
	cfg := Fixed(context.Background(), -1, time.Millisecond, errs.IsRateLimit)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		delays = append(delays, delay)
	}

	err := Do(func() error {
		attempts++
		if attempts <= 20 {
			return errs.New(errs.ErrorTypeRateLimit, "rate limit exceeded")
		}
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, 21, attempts)
	assert.Len(t, delays, 20)
	assert.Equal(t, time.Millisecond, delays[0])
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(func() error {
		return errs.New(errs.ErrorTypeRateLimit, "rate limit exceeded")
	}, Fixed(ctx, -1, time.Hour, errs.IsRateLimit))

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	tl := logger.NewTestLogger()
	cfg := Fixed(context.Background(), 2, time.Millisecond, errs.IsTransport)
	cfg.Logger = tl

	got, err := DoWithResult(func() (int, error) {
		attempts++
		if attempts == 1 {
			return 0, errs.New(errs.ErrorTypeTransport, "503")
		}
		return 42, nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.True(t, tl.HasMessage("retrying operation"))
	assert.True(t, tl.HasMessage("operation succeeded after retry"))
}

func TestDefaultRetryIf(t *testing.T) {
	assert.True(t, DefaultRetryIf(errs.New(errs.ErrorTypeTransport, "x")))
	assert.True(t, DefaultRetryIf(errs.New(errs.ErrorTypeRateLimit, "x")))
	assert.False(t, DefaultRetryIf(errs.New(errs.ErrorTypeAuth, "x")))
	assert.False(t, DefaultRetryIf(errors.New("plain")))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(nil))
}

func TestConstantBackoff(t *testing.T) {
	b := &ConstantBackoff{Delay: 5 * time.Second}
	assert.Equal(t, time.Duration(0), b.NextDelay(0))
	assert.Equal(t, 5*time.Second, b.NextDelay(1))
	assert.Equal(t, 5*time.Second, b.NextDelay(9))
}
