package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 * 1024 * 1024 // 10 MB

// FetchPolicy tunes the retry discipline for one class of downloads.
type FetchPolicy struct {
	// MaxRetries is the retry budget; the attempt loop runs MaxRetries+1 times.
	MaxRetries int

	// AggressiveThrottle applies the backoff twice per throttling signal.
	// Used for binary assets, where servers throttle harder.
	AggressiveThrottle bool
}

// Fetcher performs rate-limited HTTP retrieval with bounded retries. The
// header bag is fixed at construction and copied into every request; the
// fetcher itself carries no per-request mutable state and is safe for
// concurrent use.
type Fetcher struct {
	client  *http.Client
	limiter *RateLimiter
	headers http.Header
}

// NewFetcher builds a fetcher around the given rate limiter.
func NewFetcher(cfg config.FetchConfig, limiter *RateLimiter) *Fetcher {
	var transport *http.Transport
	if cfg.ChromeTLS {
		transport = newChromeTransport()
	} else {
		transport = &http.Transport{}
	}

	headers := http.Header{}
	headers.Set("User-Agent", chromeUA)
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	headers.Set("Accept-Language", "en-US,en;q=0.9")

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		limiter: limiter,
		headers: headers,
	}
}

// Limiter exposes the shared rate limiter.
func (f *Fetcher) Limiter() *RateLimiter { return f.limiter }

// Fetch retrieves rawURL and parses the body into a Document.
//
// Attempt discipline: maxRetries+1 tries; the limiter's delay is applied
// before every retry but not the first attempt. A throttling signal grows
// the delay; a clean success resets it. 404/403 abort immediately since
// retrying cannot help. Timeouts and connection failures are retried within
// the budget.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, maxRetries int) (*Document, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		body, status, err := f.do(ctx, http.MethodGet, rawURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !isTransient(err) {
				// Non-recoverable condition: fail fast without consuming
				// the remaining budget.
				return nil, models.NewHarvestError(models.ErrCodeFetchFailed, "request failed", err)
			}
			slog.Warn("fetch attempt failed", "url", rawURL, "attempt", attempt, "error", err)
			lastErr = classifyTransient(rawURL, err)
			continue
		}

		switch {
		case status == http.StatusTooManyRequests:
			f.limiter.IncreaseDelay()
			slog.Warn("throttled", "url", rawURL, "delay", f.limiter.CurrentDelay())
			lastErr = models.NewHarvestError(models.ErrCodeRateLimited,
				fmt.Sprintf("rate limited fetching %s, retries exhausted", rawURL), nil)
			continue
		case status >= 200 && status < 300:
			f.limiter.ResetDelay()
			return parseDocument(rawURL, body)
		case status == http.StatusNotFound || status == http.StatusForbidden || status == http.StatusGone:
			return nil, models.NewHarvestError(models.ErrCodeClientRejected,
				fmt.Sprintf("HTTP %d for %s", status, rawURL), nil)
		case status >= 500:
			slog.Warn("server error", "url", rawURL, "status", status, "attempt", attempt)
			lastErr = models.NewHarvestError(models.ErrCodeFetchFailed,
				fmt.Sprintf("HTTP %d for %s", status, rawURL), nil)
			continue
		default:
			return nil, models.NewHarvestError(models.ErrCodeFetchFailed,
				fmt.Sprintf("unexpected HTTP %d for %s", status, rawURL), nil)
		}
	}

	return nil, lastErr
}

// FetchBytes retrieves a binary resource under the given policy and returns
// the raw bytes. Used for assets, which need a harsher throttle response and
// must never burn retries on a hard 404.
func (f *Fetcher) FetchBytes(ctx context.Context, rawURL string, policy FetchPolicy) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		body, status, err := f.do(ctx, http.MethodGet, rawURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !isTransient(err) {
				return nil, models.NewHarvestError(models.ErrCodeFetchFailed, "request failed", err)
			}
			lastErr = classifyTransient(rawURL, err)
			continue
		}

		switch {
		case status == http.StatusTooManyRequests:
			f.limiter.IncreaseDelay()
			if policy.AggressiveThrottle {
				f.limiter.IncreaseDelay()
			}
			lastErr = models.NewHarvestError(models.ErrCodeRateLimited,
				fmt.Sprintf("rate limited fetching %s, retries exhausted", rawURL), nil)
			continue
		case status >= 200 && status < 300:
			f.limiter.ResetDelay()
			return body, nil
		case status == http.StatusNotFound || status == http.StatusForbidden || status == http.StatusGone:
			return nil, models.NewHarvestError(models.ErrCodeClientRejected,
				fmt.Sprintf("HTTP %d for %s", status, rawURL), nil)
		default:
			lastErr = models.NewHarvestError(models.ErrCodeFetchFailed,
				fmt.Sprintf("HTTP %d for %s", status, rawURL), nil)
			continue
		}
	}

	return nil, lastErr
}

// Head performs a rate-limited existence probe. Returns true only for a 2xx
// response; 404-class statuses report false without an error, a throttling
// signal grows the delay and reports false so the caller moves on.
func (f *Fetcher) Head(ctx context.Context, rawURL string) (bool, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false, fmt.Errorf("scraper: build request: %w", err)
	}
	f.applyHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return false, classifyTransient(rawURL, err)
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		f.limiter.IncreaseDelay()
		return false, nil
	default:
		return false, nil
	}
}

// do performs one HTTP attempt and returns the capped body and status.
func (f *Fetcher) do(ctx context.Context, method, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, 0, errBadRequest{err}
	}
	f.applyHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func (f *Fetcher) applyHeaders(req *http.Request) {
	for k, vs := range f.headers {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
}

// errBadRequest marks request construction failures, which are never
// retryable.
type errBadRequest struct{ err error }

func (e errBadRequest) Error() string { return e.err.Error() }
func (e errBadRequest) Unwrap() error { return e.err }

// isTransient reports whether err is worth retrying: timeouts and network
// level failures are, malformed requests are not.
func isTransient(err error) bool {
	var bad errBadRequest
	return !errors.As(err, &bad)
}

// classifyTransient tags a transport error as timeout or generic failure.
func classifyTransient(rawURL string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.NewHarvestError(models.ErrCodeFetchTimeout,
			fmt.Sprintf("timeout fetching %s", rawURL), err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewHarvestError(models.ErrCodeFetchTimeout,
			fmt.Sprintf("timeout fetching %s", rawURL), err)
	}
	return models.NewHarvestError(models.ErrCodeFetchFailed,
		fmt.Sprintf("connection failure fetching %s", rawURL), err)
}

// parseDocument builds a Document from raw HTML bytes.
func parseDocument(rawURL string, body []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, models.NewHarvestError(models.ErrCodeFetchFailed, "parse HTML", err)
	}
	return &Document{URL: rawURL, Doc: doc}, nil
}
