package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"classifieds-scraper/internal/config"
	"classifieds-scraper/internal/observability"
	"classifieds-scraper/internal/scrapeerr"
)

// Fetcher issues every outbound request of a run through one rate limiter, so the
// search page GET and the form submission are throttled alike.
type Fetcher struct {
	transport   Transport
	logger      *observability.Logger
	rateLimiter *RateLimiter
	requests    atomic.Int64
}

// NewFetcher picks the go-rod browser transport when rod.enabled is set and plain
// HTTP otherwise.
func NewFetcher(cfg *config.Config, logger *observability.Logger) (*Fetcher, error) {
	var (
		transport Transport
		err       error
	)
	if cfg.Rod.Enabled {
		transport, err = NewBrowserTransport(cfg, logger)
	} else {
		transport, err = NewHTTPTransport(cfg, logger)
	}
	if err != nil {
		return nil, err
	}

	return New(transport, cfg.GetRequestDelay(), logger), nil
}

func New(transport Transport, delay time.Duration, logger *observability.Logger) *Fetcher {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Fetcher{
		transport:   transport,
		logger:      logger.With("component", "fetcher"),
		rateLimiter: NewRateLimiter(delay),
	}
}

// Fetch GETs urlStr and parses the response.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*Page, error) {
	return f.Do(ctx, &Request{Method: http.MethodGet, URL: urlStr})
}

// Do sends req after the rate limiter allows it. Transport failures and non-2xx
// responses are network errors; nothing is retried.
func (f *Fetcher) Do(ctx context.Context, req *Request) (*Page, error) {
	if err := f.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	started := time.Now()
	resp, err := f.transport.RoundTrip(ctx, req)
	f.rateLimiter.Done()
	n := f.requests.Add(1)

	if err != nil {
		f.logger.Error("Request failed",
			"method", req.Method,
			"url", req.URL,
			"request", n,
			"error", err.Error(),
		)
		return nil, scrapeerr.NewNetwork(fmt.Sprintf("%s %s", req.Method, req.URL), err)
	}

	f.logger.Info("Request completed",
		"method", req.Method,
		"url", resp.URL,
		"status", resp.StatusCode,
		"request", n,
		"elapsed_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, scrapeerr.NewNetwork(
			fmt.Sprintf("%s %s", req.Method, req.URL),
			fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		)
	}

	return NewPage(resp.URL, resp.StatusCode, resp.Body)
}

// Requests returns how many requests have been sent so far.
func (f *Fetcher) Requests() int {
	return int(f.requests.Load())
}

func (f *Fetcher) Close() error {
	return f.transport.Close()
}
