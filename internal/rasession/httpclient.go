// Package rasession implements the repository-access Session interface
// consumed by the core (spec.md §6): an HTTP client speaking a
// DAV-flavored write protocol (MKACTIVITY/CHECKOUT/PROPPATCH/MKCOL/PUT/
// COPY/DELETE/MERGE) and REPORT-style read verbs (get-log/get-dir/
// get-file/get-location-segments/get-deleted-rev).
package rasession

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/tonimelisma/svngo/internal/svnerr"
)

// Retry tuning, grounded on the same backoff shape the teacher uses for
// its Graph API client: base 1s, factor 2x, max 60s, ±25% jitter, max 5
// retries.
const (
	maxRetries     = 5
	baseBackoff    = 1 * time.Second
	maxBackoff     = 60 * time.Second
	backoffFactor  = 2.0
	jitterFraction = 0.25
	userAgent      = "svngo/0.1"
)

// Authenticator supplies the Authorization header value for each request.
// Defined at the consumer per "accept interfaces, return structs" — the
// concrete credential machinery lives in internal/auth.
type Authenticator interface {
	AuthHeader(ctx context.Context) (string, error)
}

// httpClient is the transport used by Session: request construction,
// retry with exponential backoff, and HTTP-status error classification.
type httpClient struct {
	baseURL    string
	httpClient *http.Client
	auth       Authenticator
	logger     *slog.Logger
	sleepFunc  func(ctx context.Context, d time.Duration) error
}

func newHTTPClient(baseURL string, hc *http.Client, auth Authenticator, logger *slog.Logger) *httpClient {
	if logger == nil {
		logger = slog.Default()
	}
	if hc == nil {
		hc = http.DefaultClient
	}

	return &httpClient{baseURL: baseURL, httpClient: hc, auth: auth, logger: logger, sleepFunc: timeSleep}
}

// do executes an authenticated request with retry on transient failures.
// The caller must close the response body on success.
func (c *httpClient) do(ctx context.Context, method, path string, body []byte, extraHeaders http.Header) (*http.Response, error) {
	url := c.baseURL + path

	var attempt int
	for {
		resp, err := c.doOnce(ctx, method, url, body, extraHeaders)
		if err != nil {
			if ctx.Err() != nil {
				return nil, svnerr.Cancelled()
			}

			if attempt < maxRetries {
				backoff := c.calcBackoff(attempt)
				c.logger.Warn("retrying after network error", "method", method, "path", path, "attempt", attempt+1, "backoff", backoff, "error", err)
				if sleepErr := c.sleepFunc(ctx, backoff); sleepErr != nil {
					return nil, svnerr.Cancelled()
				}
				attempt++
				continue
			}

			return nil, svnerr.Wrap(svnerr.KindServerError, err, "%s %s failed after %d retries", method, path, maxRetries)
		}

		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			return resp, nil
		}

		errBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			errBody = []byte("(failed to read response body)")
		}

		if isRetryable(resp.StatusCode) && attempt < maxRetries {
			backoff := c.retryBackoff(resp, attempt)
			c.logger.Warn("retrying after HTTP error", "method", method, "path", path, "status", resp.StatusCode, "attempt", attempt+1, "backoff", backoff)
			if err := c.sleepFunc(ctx, backoff); err != nil {
				return nil, svnerr.Cancelled()
			}
			attempt++
			continue
		}

		return nil, classifyStatus(resp.StatusCode, string(errBody))
	}
}

func (c *httpClient) doOnce(ctx context.Context, method, url string, body []byte, extraHeaders http.Header) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, svnerr.Wrap(svnerr.KindCreatingRequest, err, "creating request")
	}

	authHeader, err := c.auth.AuthHeader(ctx)
	if err != nil {
		return nil, fmt.Errorf("rasession: obtaining auth header: %w", err)
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for key, vals := range extraHeaders {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}

	return c.httpClient.Do(req)
}

func (c *httpClient) retryBackoff(resp *http.Response, attempt int) time.Duration {
	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}
	return c.calcBackoff(attempt)
}

func (c *httpClient) calcBackoff(attempt int) time.Duration {
	backoff := float64(baseBackoff) * math.Pow(backoffFactor, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}

	jitter := backoff * jitterFraction * (rand.Float64()*2 - 1)
	backoff += jitter

	return time.Duration(backoff)
}

func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// classifyStatus maps an HTTP status code to the svnerr taxonomy.
func classifyStatus(code int, message string) error {
	kind := svnerr.KindServerError

	switch code {
	case http.StatusBadRequest:
		kind = svnerr.KindBadRequest
	case http.StatusUnauthorized:
		kind = svnerr.KindUnauthorized
	case http.StatusForbidden:
		kind = svnerr.KindForbidden
	case http.StatusNotFound:
		kind = svnerr.KindNotFound
	case http.StatusConflict:
		kind = svnerr.KindConflict
	case http.StatusGone:
		kind = svnerr.KindGone
	case http.StatusTooManyRequests:
		kind = svnerr.KindThrottled
	case http.StatusLocked:
		kind = svnerr.KindLocked
	}

	return svnerr.New(kind, "HTTP %d: %s", code, message)
}

func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
