package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestRateLimiter_WaitHonoursBackoff(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 100, BurstSize: 10})
	limiter.RecordRateLimitError(1)

	start := time.Now()
	err := limiter.Wait(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestRateLimiter_WaitWithoutBackoffIsImmediate(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 100, BurstSize: 10})

	start := time.Now()
	err := limiter.Wait(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRateLimiter_WaitCancelledDuringBackoff(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 100, BurstSize: 10})
	limiter.RecordRateLimitError(30)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryAfterSeconds(t *testing.T) {
	header := http.Header{}
	header.Set("Retry-After", "42")
	err := fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusTooManyRequests, Header: header})

	assert.Equal(t, 42, RetryAfterSeconds(err))
}

func TestRetryAfterSeconds_MissingHeader(t *testing.T) {
	err := &googleapi.Error{Code: http.StatusTooManyRequests, Header: http.Header{}}

	assert.Equal(t, 0, RetryAfterSeconds(err))
	assert.Equal(t, 0, RetryAfterSeconds(errors.New("not an api error")))
}
