// Package collyfetcher implements lottery.Fetcher using gocolly.
package collyfetcher

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
	"github.com/ymkfssy/shuangse-sub001/internal/metrics"
)

// Waiter blocks until a request to rawURL may proceed.
type Waiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Config controls collector behavior.
type Config struct {
	Profiles []lottery.HeaderProfile
	Timeout  time.Duration
	MinDelay time.Duration
	MaxDelay time.Duration
	// Transport replaces the pooled HTTP transport, mostly for tests.
	Transport http.RoundTripper
	Limiter   Waiter
	Sleep     func(ctx context.Context, d time.Duration) error
	// Jitter returns a value in [0, n).
	Jitter func(n int64) int64
	Logger *zap.Logger
}

// Fetcher implements lottery.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger

	mu   sync.Mutex
	next map[string]int
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

type capturedResponse struct {
	status int
	body   []byte
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if len(cfg.Profiles) == 0 {
		cfg.Profiles = DefaultProfiles()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MinDelay < 0 {
		cfg.MinDelay = 0
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepWithContext
	}
	if cfg.Jitter == nil {
		cfg.Jitter = rand.Int64N
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	transport := cfg.Transport
	if transport == nil {
		transport = newHTTPTransport()
	}

	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)
	c.WithTransport(transport)
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger.Named("fetcher"),
		next:          make(map[string]int),
	}
}

// Fetch waits out the pacing delay and the host rate limit, then issues a
// single GET. Failures are reported through the outcome, never as panics.
func (f *Fetcher) Fetch(ctx context.Context, src lottery.Source) lottery.FetchResult {
	start := time.Now()
	profile := f.nextProfile(src)

	result := f.fetch(ctx, src, profile)
	result.Profile = profile
	result.Duration = time.Since(start)

	metrics.ObserveFetch(src.Name, string(result.Outcome), len(result.Body), result.Duration)
	f.logger.Debug("fetch finished",
		zap.String("source", src.Name),
		zap.String("outcome", string(result.Outcome)),
		zap.Int("status", result.StatusCode),
		zap.Int("bytes", len(result.Body)),
		zap.Duration("duration", result.Duration),
		zap.Error(result.Err),
	)
	return result
}

func (f *Fetcher) fetch(ctx context.Context, src lottery.Source, profile lottery.HeaderProfile) lottery.FetchResult {
	if err := f.cfg.Sleep(ctx, f.delay()); err != nil {
		return transportFailure(0, fmt.Errorf("pacing delay: %w", err))
	}
	if f.cfg.Limiter != nil {
		if err := f.cfg.Limiter.Wait(ctx, src.URL); err != nil {
			return transportFailure(0, err)
		}
	}

	var (
		resp     capturedResponse
		fetchErr error
	)
	collector := f.buildCollector(ctx, profile, &resp, &fetchErr)
	finished, err := f.runCollector(ctx, collector, src.URL, &fetchErr)
	if !finished {
		// The collector goroutine may still write resp.
		return transportFailure(0, err)
	}
	if err != nil {
		return transportFailure(resp.status, err)
	}
	return classify(resp)
}

func (f *Fetcher) buildCollector(
	ctx context.Context,
	profile lottery.HeaderProfile,
	resp *capturedResponse,
	fetchErr *error,
) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.Context = ctx
	collector.AllowURLRevisit = true
	collector.ParseHTTPErrorResponse = true
	if profile.UserAgent != "" {
		collector.UserAgent = profile.UserAgent
	}
	f.configureCollectorHooks(collector, profile.Headers(), resp, fetchErr)
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	headers http.Header,
	resp *capturedResponse,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		for key, values := range headers {
			r.Headers.Del(key)
			for _, v := range values {
				r.Headers.Add(key, v)
			}
		}
	})

	hooks.OnResponse(func(r *colly.Response) {
		resp.status = r.StatusCode
		resp.body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			resp.status = r.StatusCode
		}
		*fetchErr = err
	})
}

// runCollector reports finished=false when ctx ended before the visit
// returned; the hooks' captures must not be read in that case.
func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) (bool, error) {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return false, fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return true, fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return true, fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return true, nil
	}
}

// nextProfile rotates round-robin per source.
func (f *Fetcher) nextProfile(src lottery.Source) lottery.HeaderProfile {
	f.mu.Lock()
	idx := f.next[src.Name]
	f.next[src.Name] = (idx + 1) % len(f.cfg.Profiles)
	f.mu.Unlock()

	profile := f.cfg.Profiles[idx]
	if src.Referer != "" {
		profile.Referer = src.Referer
	}
	return profile
}

func (f *Fetcher) delay() time.Duration {
	span := f.cfg.MaxDelay - f.cfg.MinDelay
	if span <= 0 {
		return f.cfg.MinDelay
	}
	return f.cfg.MinDelay + time.Duration(f.cfg.Jitter(int64(span)+1))
}

func classify(resp capturedResponse) lottery.FetchResult {
	switch {
	case resp.status < http.StatusOK || resp.status >= http.StatusMultipleChoices:
		return transportFailure(resp.status, fmt.Errorf("unexpected status %d", resp.status))
	case len(bytes.TrimSpace(resp.body)) == 0:
		return lottery.FetchResult{Outcome: lottery.OutcomeEmpty, StatusCode: resp.status}
	default:
		return lottery.FetchResult{Outcome: lottery.OutcomeOK, StatusCode: resp.status, Body: resp.body}
	}
}

func transportFailure(status int, err error) lottery.FetchResult {
	return lottery.FetchResult{
		Outcome:    lottery.OutcomeTransportFailure,
		StatusCode: status,
		Err:        err,
	}
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("sleep interrupted: %w", ctx.Err())
	case <-timer.C:
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
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
	}
}
