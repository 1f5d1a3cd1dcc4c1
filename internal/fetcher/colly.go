package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// PageResult is the outcome of one page fetch.
type PageResult struct {
	// FinalURL is the URL the response came from, which differs from the
	// requested URL after redirects.
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// PageFetcher fetches a single URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (PageResult, error)
}

// CollyConfig controls collector behavior.
type CollyConfig struct {
	UserAgent     string
	RespectRobots bool
	Timeout       time.Duration
}

// CollyFetcher implements PageFetcher using the Colly collector.
type CollyFetcher struct {
	cfg           CollyConfig
	baseCollector *colly.Collector
}

// NewCollyFetcher builds a CollyFetcher sharing one pooled transport
// across all fetches.
func NewCollyFetcher(cfg CollyConfig) *CollyFetcher {
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	return &CollyFetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET. Robots rules are honored by the
// collector itself when RespectRobots is set.
func (f *CollyFetcher) Fetch(ctx context.Context, url string) (PageResult, error) {
	var (
		result   PageResult
		fetchErr error
	)
	start := time.Now()

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

	collector.OnResponse(func(r *colly.Response) {
		result = PageResult{
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return PageResult{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return PageResult{}, fmt.Errorf("visit %s: %w", url, err)
		}
		if fetchErr != nil {
			return PageResult{}, fmt.Errorf("fetch %s: %w", url, fetchErr)
		}
		return result, nil
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
