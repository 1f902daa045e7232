// Package spending fetches per-county federal award totals from the
// USAspending spending_by_geography endpoint.
package spending

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fedreturn/internal/county"
	"github.com/sells-group/fedreturn/internal/fetcher"
	"github.com/sells-group/fedreturn/internal/model"
	"github.com/sells-group/fedreturn/internal/resilience"
)

const (
	DefaultBaseURL = "https://api.usaspending.gov"
	DefaultScope   = "recipient_location"
	DefaultCountry = "USA"

	geographyPath = "/api/v2/search/spending_by_geography/"
	geoLayer      = "county"
)

// GeographyRequest is the spending_by_geography request body.
type GeographyRequest struct {
	Scope    string  `json:"scope,omitempty"`
	GeoLayer string  `json:"geo_layer"`
	Filters  Filters `json:"filters"`
}

// Filters restricts awards by recipient location and action date.
type Filters struct {
	RecipientLocations []Location   `json:"recipient_locations"`
	TimePeriod         []TimePeriod `json:"time_period"`
}

// Location is a recipient location filter.
type Location struct {
	Country string `json:"country"`
	State   string `json:"state"`
}

// TimePeriod is an inclusive action-date window.
type TimePeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// FetchObserver receives the outcome of each fetch. result is "ok" or a FetchError kind.
type FetchObserver interface {
	ObserveFetch(result string, elapsed time.Duration)
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Scope   string
	Country string
	// DebugResponse logs the raw response body of every fetch.
	DebugResponse bool
	Observer      FetchObserver
}

// Client queries the spending_by_geography endpoint.
type Client struct {
	f    fetcher.Fetcher
	opts Options
}

// NewClient creates a Client that sends requests through f.
func NewClient(f fetcher.Fetcher, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Country == "" {
		opts.Country = DefaultCountry
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{f: f, opts: opts}
}

// BuildRequest returns the request body for state and period.
func (c *Client) BuildRequest(state string, period model.DateRange) GeographyRequest {
	return GeographyRequest{
		Scope:    c.opts.Scope,
		GeoLayer: geoLayer,
		Filters: Filters{
			RecipientLocations: []Location{{Country: c.opts.Country, State: strings.ToUpper(strings.TrimSpace(state))}},
			TimePeriod:         []TimePeriod{{StartDate: period.StartDate(), EndDate: period.EndDate()}},
		},
	}
}

// GetFundingRecords fetches county award totals for state over period and
// keeps only counties in allow. A nil or empty allow keeps every county.
// Every failure is returned as a *FetchError.
func (c *Client) GetFundingRecords(ctx context.Context, state string, period model.DateRange, allow county.Set) ([]model.CountyFundingRecord, error) {
	start := time.Now()
	records, err := c.fetch(ctx, state, period, allow)

	result := "ok"
	if err != nil {
		result = string(err.Kind)
	}
	if c.opts.Observer != nil {
		c.opts.Observer.ObserveFetch(result, time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) fetch(ctx context.Context, state string, period model.DateRange, allow county.Set) ([]model.CountyFundingRecord, *FetchError) {
	log := zap.L().With(zap.String("state", state), zap.String("period", period.String()))

	if strings.TrimSpace(state) == "" {
		return nil, &FetchError{Kind: KindRequest, Err: eris.New("spending: state is required")}
	}
	if err := period.Validate(); err != nil {
		return nil, &FetchError{Kind: KindRequest, Err: err}
	}

	url := c.opts.BaseURL + geographyPath
	resp, err := c.f.PostJSON(ctx, url, c.BuildRequest(state, period))
	if err != nil {
		kind := KindTransport
		if resilience.IsTimeout(err) {
			kind = KindTimeout
		}
		log.Warn("spending request failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, &FetchError{Kind: kind, Err: err}
	}

	if c.opts.DebugResponse {
		log.Info("raw spending response",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", resp.Body),
		)
	}

	if !resp.OK() {
		log.Warn("spending request returned non-success status", zap.Int("status", resp.StatusCode))
		return nil, &FetchError{
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Err:        eris.Errorf("spending: unexpected status %d from %s", resp.StatusCode, url),
		}
	}

	all, skipped, err := ParseResults(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: KindDecode, StatusCode: resp.StatusCode, Body: string(resp.Body), Err: err}
	}

	records := FilterCounties(all, allow)
	log.Info("fetched county funding",
		zap.Int("results", len(all)+skipped),
		zap.Int("skipped", skipped),
		zap.Int("kept", len(records)),
	)
	return records, nil
}

// FilterCounties keeps the records whose normalized county is in allow.
func FilterCounties(records []model.CountyFundingRecord, allow county.Set) []model.CountyFundingRecord {
	if allow.Len() == 0 {
		return records
	}
	out := make([]model.CountyFundingRecord, 0, len(records))
	for _, r := range records {
		if allow.Contains(r.County) {
			out = append(out, r)
		}
	}
	return out
}
