package ratelimiter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/sessionguard/pkg/ratelimiter"
)

func TestFormatRetryAfter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "1 second"},
		{time.Second, "1 second"},
		{1500 * time.Millisecond, "2 seconds"},
		{45 * time.Second, "45 seconds"},
		{59 * time.Second, "59 seconds"},
		{60 * time.Second, "1 minute"},
		{61 * time.Second, "2 minutes"},
		{2 * time.Minute, "2 minutes"},
		{14*time.Minute + 30*time.Second, "15 minutes"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ratelimiter.FormatRetryAfter(tt.in), tt.in.String())
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, ratelimiter.RetryAfterSeconds(0))
	assert.Equal(t, 1, ratelimiter.RetryAfterSeconds(-time.Second))
	assert.Equal(t, 2, ratelimiter.RetryAfterSeconds(1100*time.Millisecond))
	assert.Equal(t, 900, ratelimiter.RetryAfterSeconds(15*time.Minute))
}
