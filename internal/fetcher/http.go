package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fedreturn/internal/resilience"
)

// maxBodyBytes bounds how much of a response body is read into memory.
const maxBodyBytes = 32 << 20

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	// Timeout bounds each attempt, including reading the body.
	Timeout time.Duration
	Retry   resilience.Policy
}

// HTTPFetcher implements Fetcher using net/http with bounded timeouts and
// retry on transient failures.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "fedreturn/1.0"
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.LogRetries("http_post")
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts: opts,
	}
}

// PostJSON posts payload to url. Transport failures and retryable statuses
// (429, 5xx) are retried per the configured policy; once attempts run out the
// last response is returned so the caller can inspect its status and body.
func (f *HTTPFetcher) PostJSON(ctx context.Context, url string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: encode request body")
	}

	var last *Response
	resp, err := resilience.Retry(ctx, f.opts.Retry, func(ctx context.Context) (*Response, error) {
		last = nil
		r, err := f.post(ctx, url, body)
		if err != nil {
			return nil, err
		}
		last = r
		if resilience.IsTransientStatus(r.StatusCode) {
			return nil, resilience.NewTransientError(
				eris.Errorf("fetcher: http %d from %s", r.StatusCode, url), r.StatusCode)
		}
		return r, nil
	})
	if err != nil {
		if last != nil {
			return last, nil
		}
		return nil, err
	}
	return resp, nil
}

func (f *HTTPFetcher) post(ctx context.Context, url string, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.opts.UserAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: post %s", url)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read response from %s", url)
	}

	zap.L().Debug("http post complete",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
