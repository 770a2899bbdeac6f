package httpx

import (
	"context"
	"io"
	"net/http"
	"time"
)

// RetryPolicy drives Retry. Backoff doubles after every attempt and is
// capped by MaxSleep, unless the server sent a shorter Retry-After.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
	MaxSleep   time.Duration
	// OnRetry is called before each sleep; attempt starts at 1.
	OnRetry func(attempt int, sleep time.Duration, err error)
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.Backoff <= 0 {
		p.Backoff = time.Second
	}
	if p.MaxSleep <= 0 {
		p.MaxSleep = 10 * time.Second
	}
	return p
}

// Retry runs call until it succeeds, fails with a non-retryable error, or
// the retry budget is spent. The response from the last failed attempt, if
// any, is consulted for Retry-After.
func Retry(ctx context.Context, p RetryPolicy, call func(ctx context.Context) (*http.Response, error)) error {
	p = p.withDefaults()
	backoff := p.Backoff
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, err := call(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !IsRetryableError(err) || ctx.Err() != nil {
			return err
		}
		sleepFor := JitterSleep(RetryAfterDuration(resp, backoff, p.MaxSleep))
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, sleepFor, err)
		}
		if err := Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
}

// Do sends req and drains the body. Non-2xx responses are returned with
// their body and no error; callers decide how to decode failures.
func Do(client *http.Client, req *http.Request) (*http.Response, []byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	return resp, raw, nil
}

func IsSuccess(resp *http.Response) bool {
	return resp != nil && resp.StatusCode >= 200 && resp.StatusCode < 300
}
