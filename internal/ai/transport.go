package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// retryPolicy is the backoff shared by all runtimes: exponential from
// baseDelay, capped at maxDelay, +/-20% jitter, Retry-After honoured.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func newRetryPolicy(maxAttempts int, baseDelay, maxDelay time.Duration, defaults retryPolicy) retryPolicy {
	p := retryPolicy{maxAttempts: maxAttempts, baseDelay: baseDelay, maxDelay: maxDelay}
	if p.maxAttempts <= 0 {
		p.maxAttempts = defaults.maxAttempts
	}
	if p.baseDelay <= 0 {
		p.baseDelay = defaults.baseDelay
	}
	if p.maxDelay <= 0 {
		p.maxDelay = defaults.maxDelay
	}
	return p
}

// jsonEndpoint posts JSON payloads with retries and decodes JSON replies.
type jsonEndpoint struct {
	httpClient *http.Client
	host       string
	policy     retryPolicy
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// post sends payload to url and decodes a 2xx body into out. 429 and 5xx
// responses and transient network errors are retried; everything else is
// classified and returned immediately.
func (e *jsonEndpoint) post(ctx context.Context, url string, header http.Header, payload any, out any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	backoff := e.policy.baseDelay
	var lastErr error
	for attempt := 1; attempt <= e.policy.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		last := attempt == e.policy.maxAttempts
		resp, err := e.do(ctx, url, header, body)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = &UnreachableError{Host: e.host, Err: err}
			if !isRetryableNetErr(err) || last {
				return "", lastErr
			}
			if err := sleepCtx(ctx, e.capped(withJitter(backoff))); err != nil {
				return "", err
			}
			backoff *= 2
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := decodeAPIError(resp)
			resp.Body.Close()
			retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
			lastErr = classifyAPIError(apiErr, resp)
			if !retryable || last {
				return "", lastErr
			}
			wait := e.capped(withJitter(backoff))
			if secs, err := parseRetryAfterSeconds(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				wait = time.Duration(secs) * time.Second
			}
			if err := sleepCtx(ctx, wait); err != nil {
				return "", err
			}
			backoff *= 2
			continue
		}
		reqID := extractRequestID(resp)
		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return reqID, fmt.Errorf("decode response: %w", err)
		}
		return reqID, nil
	}
	return "", lastErr
}

// open sends a single streaming request and returns the live response.
// The caller closes the body.
func (e *jsonEndpoint) open(ctx context.Context, url string, header http.Header, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	resp, err := e.do(ctx, url, header, body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &UnreachableError{Host: e.host, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, classifyAPIError(decodeAPIError(resp), resp)
	}
	return resp, nil
}

func (e *jsonEndpoint) do(ctx context.Context, url string, header http.Header, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	return e.httpClient.Do(req)
}

func (e *jsonEndpoint) capped(d time.Duration) time.Duration {
	if e.policy.maxDelay > 0 && d > e.policy.maxDelay {
		return e.policy.maxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// parseRetryAfterSeconds interprets a Retry-After value as seconds or an HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if v == "" {
		return 0, errors.New("empty Retry-After")
	}
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// withJitter returns d with +/-20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
