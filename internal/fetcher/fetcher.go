// Package fetcher posts JSON to upstream APIs and reads tabular files (CSV, XLSX).
package fetcher

import (
	"context"
	"net/http"
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher sends JSON requests to remote endpoints.
type Fetcher interface {
	// PostJSON encodes payload as the request body and returns the final
	// response for any HTTP status. An error means no response was obtained.
	PostJSON(ctx context.Context, url string, payload any) (*Response, error)
}
