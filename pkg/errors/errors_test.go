package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOfWrappedChain(t *testing.T) {
	base := New(ErrorTypeRateLimit, "rate limit exceeded").WithCode(88)
	wrapped := fmt.Errorf("fetching page 3: %w", base)

	assert.True(t, IsRateLimit(wrapped))
	assert.False(t, IsTransport(wrapped))
	assert.Equal(t, ErrorTypeRateLimit, TypeOf(wrapped))
	assert.Equal(t, "rate_limit error (code 88): rate limit exceeded", base.Error())
}

func TestTypeOfUntyped(t *testing.T) {
	assert.Equal(t, ErrorType(""), TypeOf(nil))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("boom")))
	assert.False(t, IsAuthorization(nil))
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	err := Wrap(ErrorTypeConnection, cause, "could not connect to database")

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, IsConnection(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsCanceled(t *testing.T) {
	assert.True(t, IsCanceled(fmt.Errorf("retry cancelled: %w", context.Canceled)))
	assert.True(t, IsCanceled(context.DeadlineExceeded))
	assert.False(t, IsCanceled(New(ErrorTypeTransport, "timeout")))
}

func TestTypeForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{0, ErrorTypeTransport},
		{400, ErrorTypeUnknown},
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeAuth},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeTransport},
		{503, ErrorTypeTransport},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, TypeForStatus(tt.status))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeTransport))
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	assert.False(t, IsRetryable(ErrorTypeAuth))
	assert.False(t, IsRetryable(ErrorTypeValidation))
}
