package control

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RateLimitConfig defines rate limits for a specific method or globally.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustainable rate (tokens added per second).
	RequestsPerSecond float64

	// BurstSize is the maximum number of requests allowed in a burst.
	BurstSize int
}

// DefaultRateLimits bounds the methods that post to the worker. Status reads
// are only subject to the global limit.
var DefaultRateLimits = map[string]RateLimitConfig{
	MethodPlay:      {RequestsPerSecond: 20, BurstSize: 40},
	MethodPause:     {RequestsPerSecond: 20, BurstSize: 40},
	MethodStop:      {RequestsPerSecond: 20, BurstSize: 40},
	MethodResize:    {RequestsPerSecond: 30, BurstSize: 60},
	MethodSetSource: {RequestsPerSecond: 2, BurstSize: 5},
	MethodSetScheme: {RequestsPerSecond: 5, BurstSize: 10},

	// Limits stream creation, not messages.
	MethodStreamEvents: {RequestsPerSecond: 2, BurstSize: 5},
}

type tokenBucket struct {
	mu           sync.Mutex
	tokens       float64
	lastUpdate   time.Time
	ratePerSec   float64
	maxTokens    float64
	requestCount int64
	deniedCount  int64
}

func newTokenBucket(cfg RateLimitConfig) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(cfg.BurstSize),
		lastUpdate: time.Now(),
		ratePerSec: cfg.RequestsPerSecond,
		maxTokens:  float64(cfg.BurstSize),
	}
}

func (tb *tokenBucket) refill(now time.Time) float64 {
	tokens := tb.tokens + now.Sub(tb.lastUpdate).Seconds()*tb.ratePerSec
	if tokens > tb.maxTokens {
		tokens = tb.maxTokens
	}
	return tokens
}

// allow consumes a token if one is available.
func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.requestCount++
	now := time.Now()
	tb.tokens = tb.refill(now)
	tb.lastUpdate = now

	if tb.tokens >= 1.0 {
		tb.tokens--
		return true
	}
	tb.deniedCount++
	return false
}

func (tb *tokenBucket) stats() (available float64, requestCount, deniedCount int64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.refill(time.Now()), tb.requestCount, tb.deniedCount
}

// RateLimiter manages rate limits for multiple methods.
type RateLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*tokenBucket
	configs map[string]RateLimitConfig

	globalBucket *tokenBucket
	globalConfig *RateLimitConfig

	enabled bool
}

// RateLimiterOption configures the RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithMethodLimits sets custom limits for specific methods.
func WithMethodLimits(limits map[string]RateLimitConfig) RateLimiterOption {
	return func(rl *RateLimiter) {
		for method, cfg := range limits {
			rl.configs[method] = cfg
		}
	}
}

// WithGlobalLimit sets a rate limit applied to all methods.
func WithGlobalLimit(cfg RateLimitConfig) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.globalConfig = &cfg
		rl.globalBucket = newTokenBucket(cfg)
	}
}

// WithEnabled enables or disables rate limiting.
func WithEnabled(enabled bool) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.enabled = enabled
	}
}

// NewRateLimiter creates a rate limiter seeded with DefaultRateLimits.
func NewRateLimiter(opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*tokenBucket),
		configs: make(map[string]RateLimitConfig),
		enabled: true,
	}
	for method, cfg := range DefaultRateLimits {
		rl.configs[method] = cfg
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Allow reports whether a call to method may proceed.
func (rl *RateLimiter) Allow(method string) bool {
	rl.mu.RLock()
	enabled := rl.enabled
	rl.mu.RUnlock()
	if !enabled {
		return true
	}

	if rl.globalBucket != nil && !rl.globalBucket.allow() {
		return false
	}

	bucket := rl.getBucket(method)
	if bucket == nil {
		return true
	}
	return bucket.allow()
}

func (rl *RateLimiter) getBucket(method string) *tokenBucket {
	rl.mu.RLock()
	bucket, exists := rl.buckets[method]
	rl.mu.RUnlock()
	if exists {
		return bucket
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if bucket, exists = rl.buckets[method]; exists {
		return bucket
	}
	cfg, ok := rl.configs[method]
	if !ok {
		return nil
	}
	bucket = newTokenBucket(cfg)
	rl.buckets[method] = bucket
	return bucket
}

// MethodStats reports rate limit usage for one method.
type MethodStats struct {
	Method         string
	Available      float64
	RequestsPerSec float64
	BurstSize      int
	TotalRequests  int64
	DeniedRequests int64
}

// Stats returns usage for every configured method.
func (rl *RateLimiter) Stats() []MethodStats {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	stats := make([]MethodStats, 0, len(rl.configs))
	for method, cfg := range rl.configs {
		ms := MethodStats{
			Method:         method,
			RequestsPerSec: cfg.RequestsPerSecond,
			BurstSize:      cfg.BurstSize,
			Available:      float64(cfg.BurstSize),
		}
		if bucket, ok := rl.buckets[method]; ok {
			ms.Available, ms.TotalRequests, ms.DeniedRequests = bucket.stats()
		}
		stats = append(stats, ms)
	}
	return stats
}

// SetEnabled enables or disables rate limiting at runtime.
func (rl *RateLimiter) SetEnabled(enabled bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.enabled = enabled
}

// UnaryServerInterceptor rejects unary calls over their limit.
func (rl *RateLimiter) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !rl.Allow(info.FullMethod) {
			return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded for method %s", info.FullMethod)
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor limits the rate of stream creation.
func (rl *RateLimiter) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if !rl.Allow(info.FullMethod) {
			return status.Errorf(codes.ResourceExhausted, "rate limit exceeded for stream %s", info.FullMethod)
		}
		return handler(srv, ss)
	}
}
