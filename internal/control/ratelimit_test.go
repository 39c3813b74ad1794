package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(WithMethodLimits(map[string]RateLimitConfig{
		"/test/Method": {RequestsPerSecond: 0.001, BurstSize: 3},
	}))

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("/test/Method"), "request %d", i)
	}
	assert.False(t, rl.Allow("/test/Method"))
	assert.True(t, rl.Allow("/test/Unlimited"))
}

func TestRateLimiterGlobal(t *testing.T) {
	rl := NewRateLimiter(WithGlobalLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 2}))

	assert.True(t, rl.Allow(MethodStatus))
	assert.True(t, rl.Allow(MethodPing))
	assert.False(t, rl.Allow(MethodStatus))
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(
		WithEnabled(false),
		WithMethodLimits(map[string]RateLimitConfig{"/test/Method": {RequestsPerSecond: 0.001, BurstSize: 1}}),
	)
	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("/test/Method"))
	}

	rl.SetEnabled(true)
	assert.True(t, rl.Allow("/test/Method"))
	assert.False(t, rl.Allow("/test/Method"))
}

func TestRateLimiterStats(t *testing.T) {
	rl := NewRateLimiter(WithMethodLimits(map[string]RateLimitConfig{
		MethodPlay: {RequestsPerSecond: 0.001, BurstSize: 1},
	}))
	rl.Allow(MethodPlay)
	rl.Allow(MethodPlay)

	var play *MethodStats
	for _, s := range rl.Stats() {
		if s.Method == MethodPlay {
			s := s
			play = &s
		}
	}
	require.NotNil(t, play)
	assert.EqualValues(t, 2, play.TotalRequests)
	assert.EqualValues(t, 1, play.DeniedRequests)
	assert.Less(t, play.Available, 1.0)
	assert.Len(t, rl.Stats(), len(DefaultRateLimits))
}
