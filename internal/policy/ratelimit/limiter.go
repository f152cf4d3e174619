// Package ratelimit implements the politeness delay shared by listing and
// detail requests, built on token buckets keyed by host.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/eurlex-harvester/internal/metrics"
)

// Limiter enforces a minimum interval between requests to the same host.
// Listing-page and detail-page fetches share the same bucket, so K sequential
// requests to one host take at least (K-1) * Interval of wall-clock time.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// Config holds rate limiter configuration.
type Config struct {
	// Interval is the politeness delay between requests. Zero or negative
	// disables limiting.
	Interval time.Duration
	// Burst sets the bucket size; defaults to 1, which yields strict
	// one-request-per-interval pacing.
	Burst int
}

// New creates a new Limiter.
func New(cfg Config) *Limiter {
	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// Wait blocks until a token is available for the host of rawURL, respecting
// the context. URLs that fail to parse share a single fallback bucket rather
// than escaping the limit.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}

	l.mu.Lock()
	limiter, exists := l.limiters[host]
	if !exists {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	metrics.ObserveRateLimitWait(rawURL, time.Since(start))
	return nil
}
