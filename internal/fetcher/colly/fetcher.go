// Package collyfetcher implements the plain-HTTP Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/eurlex-harvester/internal/eurlex"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// RespectRobots makes the collector honor robots.txt. Off by default:
	// EUR-Lex disallows some search paths that the harvester needs, and
	// politeness is enforced by the rate limiter instead.
	RespectRobots bool
}

// Fetcher implements eurlex.Fetcher using the Colly collector. EUR-Lex
// renders listings and detail pages server-side, so plain fetches are the
// common path; the headless renderer only takes over on script walls.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	// Deduplication is the registry's job, not the transport's. Listing
	// pages may legitimately be revisited across strategies.
	c.AllowURLRevisit = true
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET using Colly. Network failures and non-2xx
// statuses come back as *eurlex.TransportError so callers can classify them.
func (f *Fetcher) Fetch(ctx context.Context, url string) (eurlex.FetchResult, error) {
	var (
		result    eurlex.FetchResult
		errStatus int
		fetchErr  error
	)
	start := time.Now()
	collector := f.buildCollector(start, &result, &errStatus, &fetchErr)

	if err := f.runCollector(ctx, collector, url, &fetchErr); err != nil {
		return eurlex.FetchResult{}, &eurlex.TransportError{URL: url, Status: errStatus, Err: err}
	}
	return result, nil
}

func (f *Fetcher) buildCollector(
	start time.Time,
	result *eurlex.FetchResult,
	errStatus *int,
	fetchErr *error,
) *colly.Collector {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = !f.cfg.RespectRobots
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	f.configureCollectorHooks(collector, start, result, errStatus, fetchErr)
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	start time.Time,
	result *eurlex.FetchResult,
	errStatus *int,
	fetchErr *error,
) {
	hooks.OnResponse(func(r *colly.Response) {
		*result = eurlex.FetchResult{
			URL:          r.Request.URL.String(),
			StatusCode:   r.StatusCode,
			Body:         append([]byte(nil), r.Body...),
			Duration:     time.Since(start),
			UsedHeadless: false,
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			*errStatus = r.StatusCode
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
