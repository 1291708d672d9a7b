package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacerBurst(t *testing.T) {
	p := NewPacer(60, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, p.Allow(), "burst token %d", i)
	}
	assert.False(t, p.Allow(), "burst exhausted")
}

func TestPacerWaitHonoursContext(t *testing.T) {
	p := NewPacer(1, 1)
	require.True(t, p.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Wait(ctx)
	assert.Error(t, err)
}

func TestPacerDisabled(t *testing.T) {
	p := NewPacer(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, p.Allow())
	}
	assert.NoError(t, p.Wait(context.Background()))
}

func TestUnlimited(t *testing.T) {
	var l Limiter = Unlimited{}
	assert.True(t, l.Allow())
	assert.NoError(t, l.Wait(context.Background()))
}
