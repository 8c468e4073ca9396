package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitWithin(tb *TokenBucket, d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return tb.Wait(ctx)
}

func TestTokenBucketBurst(t *testing.T) {
	tb := NewTokenBucket(5, time.Minute)

	for i := 0; i < 5; i++ {
		require.NoError(t, waitWithin(tb, 20*time.Millisecond), "token %d should be available", i+1)
	}
	assert.Error(t, waitWithin(tb, 20*time.Millisecond), "bucket should be exhausted")
}

func TestTokenBucketRefills(t *testing.T) {
	tb := NewTokenBucket(10, time.Second)

	for i := 0; i < 10; i++ {
		require.NoError(t, waitWithin(tb, 20*time.Millisecond))
	}

	// one token every 100ms
	start := time.Now()
	require.NoError(t, waitWithin(tb, time.Second))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestTokenBucketWaitHonorsContext(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	require.NoError(t, tb.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, tb.Wait(ctx))
}

func TestNew(t *testing.T) {
	assert.IsType(t, Unlimited{}, New(0))
	assert.IsType(t, Unlimited{}, New(-5))
	assert.IsType(t, &TokenBucket{}, New(60))
}

func TestUnlimited(t *testing.T) {
	l := Unlimited{}
	for i := 0; i < 1000; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}
