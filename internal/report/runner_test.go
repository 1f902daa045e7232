package report

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fedreturn/internal/county"
	"github.com/sells-group/fedreturn/internal/district"
	"github.com/sells-group/fedreturn/internal/fetcher"
	"github.com/sells-group/fedreturn/internal/metrics"
	"github.com/sells-group/fedreturn/internal/model"
	"github.com/sells-group/fedreturn/internal/reconcile"
	"github.com/sells-group/fedreturn/internal/resilience"
	"github.com/sells-group/fedreturn/internal/spending"
	"github.com/sells-group/fedreturn/internal/taxsource"
)

type fakeFunding struct {
	records []model.CountyFundingRecord
	err     error
	calls   int
	state   string
	allow   county.Set
}

func (f *fakeFunding) GetFundingRecords(_ context.Context, state string, _ model.DateRange, allow county.Set) ([]model.CountyFundingRecord, error) {
	f.calls++
	f.state = state
	f.allow = allow
	if f.err != nil {
		return nil, f.err
	}
	return spending.FilterCounties(f.records, allow), nil
}

type failingTax struct{}

func (failingTax) TaxRecords(context.Context) ([]model.CountyTaxRecord, error) {
	return nil, taxsource.ErrDataUnavailable
}

var (
	clinton = model.District{ID: "T-1", Name: "Test District", State: "NY", Counties: []string{"Clinton", "Essex"}}
	fixed   = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
)

func newRunner(tax taxsource.Provider, funding FundingSource) *Runner {
	r := NewRunner(tax, funding)
	r.Now = func() time.Time { return fixed }
	return r
}

func TestRun_MatchesSuffixedCounty(t *testing.T) {
	tax := &taxsource.Static{Records: []model.CountyTaxRecord{{County: "Clinton", IncomeTaxPaid: 50000000}}}
	funding := &fakeFunding{records: []model.CountyFundingRecord{{County: "Clinton County", FederalFunding: 10000000}}}

	rep, err := newRunner(tax, funding).Run(context.Background(), Request{District: clinton, Period: model.CalendarYear(2023)})
	require.NoError(t, err)

	assert.Equal(t, "NY", funding.state)
	assert.True(t, funding.allow.Contains("essex county"))
	require.Len(t, rep.Records, 1)
	assert.InDelta(t, 0.2, rep.Records[0].ReturnPerDollar, 1e-12)
	assert.InDelta(t, 0.2, rep.AggregateRatio, 1e-12)
	assert.Equal(t, fixed, rep.GeneratedAt)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, "$0.20", FormatRatio(rep.AggregateRatio))
}

func TestRun_NoOverlapIsEmptyResult(t *testing.T) {
	tax := &taxsource.Static{Records: []model.CountyTaxRecord{{County: "Essex", IncomeTaxPaid: 30000000}}}
	funding := &fakeFunding{records: []model.CountyFundingRecord{{County: "Other County", FederalFunding: 5000000}}}

	rep, err := newRunner(tax, funding).Run(context.Background(), Request{District: clinton, Period: model.CalendarYear(2023)})
	assert.Nil(t, rep)

	var empty *EmptyResultError
	require.True(t, errors.As(err, &empty))
	assert.Equal(t, "Test District", empty.District)
}

func TestRun_UpstreamErrorSkipsJoin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	client := spending.NewClient(
		fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: time.Second, Retry: resilience.Policy{MaxAttempts: 1}}),
		spending.Options{BaseURL: srv.URL},
	)
	rec := metrics.NewManager()
	r := newRunner(taxsource.NewNY21(), client)
	r.Recorder = rec

	rep, err := r.Run(context.Background(), Request{District: district.NY21, Period: model.CalendarYear(2023)})
	assert.Nil(t, rep)

	var fe *spending.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, spending.KindStatus, fe.Kind)
	assert.Equal(t, "upstream down", fe.Body)

	var empty *EmptyResultError
	assert.False(t, errors.As(err, &empty))
	assert.Equal(t, metrics.OutcomeFetchError, outcome(err))
	assert.Equal(t, 1, mustGatherCount(t, rec))
}

func TestRun_MissingAmountCountsAsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"display_name":"Clinton County"}]}`))
	}))
	defer srv.Close()

	client := spending.NewClient(
		fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: time.Second, Retry: resilience.Policy{MaxAttempts: 1}}),
		spending.Options{BaseURL: srv.URL},
	)

	rep, err := newRunner(taxsource.NewNY21(), client).Run(context.Background(), Request{District: district.NY21, Period: model.CalendarYear(2023)})
	require.NoError(t, err)
	require.Len(t, rep.Records, 1)
	assert.Equal(t, "Clinton County", rep.Records[0].County)
	assert.Zero(t, rep.Records[0].FederalFunding)
	assert.True(t, rep.Records[0].RatioDefined)
	assert.Zero(t, rep.Records[0].ReturnPerDollar)
}

func TestRun_TaxUnavailable(t *testing.T) {
	funding := &fakeFunding{}
	_, err := newRunner(failingTax{}, funding).Run(context.Background(), Request{District: clinton, Period: model.CalendarYear(2023)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, taxsource.ErrDataUnavailable))
	assert.Zero(t, funding.calls)
}

func TestRun_DuplicateCounty(t *testing.T) {
	tax := &taxsource.Static{Records: []model.CountyTaxRecord{{County: "Clinton", IncomeTaxPaid: 1}}}
	funding := &fakeFunding{records: []model.CountyFundingRecord{{County: "Clinton"}, {County: "Clinton County"}}}

	_, err := newRunner(tax, funding).Run(context.Background(), Request{District: clinton, Period: model.CalendarYear(2023)})
	var dup *reconcile.DuplicateCountyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, metrics.OutcomeError, outcome(err))
}

func TestRun_InvalidRequest(t *testing.T) {
	funding := &fakeFunding{}
	r := newRunner(taxsource.NewNY21(), funding)

	_, err := r.Run(context.Background(), Request{District: model.District{ID: "X"}, Period: model.CalendarYear(2023)})
	assert.Error(t, err)

	_, err = r.Run(context.Background(), Request{District: clinton})
	assert.Error(t, err)
	assert.Zero(t, funding.calls)
}

func TestRun_RecordsOutcome(t *testing.T) {
	rec := metrics.NewManager()
	tax := &taxsource.Static{Records: []model.CountyTaxRecord{{County: "Clinton", IncomeTaxPaid: 10}}}
	r := newRunner(tax, &fakeFunding{records: []model.CountyFundingRecord{{County: "Clinton", FederalFunding: 5}}})
	r.Recorder = rec

	_, err := r.Run(context.Background(), Request{District: clinton, Period: model.CalendarYear(2023)})
	require.NoError(t, err)

	r.Funding = &fakeFunding{}
	_, err = r.Run(context.Background(), Request{District: clinton, Period: model.CalendarYear(2023)})
	require.Error(t, err)

	assert.Equal(t, 2, mustGatherCount(t, rec))
}

func TestRunner_NilRecorderAndClock(t *testing.T) {
	tax := &taxsource.Static{Records: []model.CountyTaxRecord{{County: "Clinton", IncomeTaxPaid: 10}}}
	r := &Runner{Tax: tax, Funding: &fakeFunding{records: []model.CountyFundingRecord{{County: "Clinton", FederalFunding: 5}}}}

	rep, err := r.Run(context.Background(), Request{District: clinton, Period: model.CalendarYear(2023)})
	require.NoError(t, err)
	assert.False(t, rep.GeneratedAt.IsZero())
}

func mustGatherCount(t *testing.T, m *metrics.Manager) int {
	t.Helper()
	n, err := testutil.GatherAndCount(m.Registry(), "fedreturn_report_runs_total")
	require.NoError(t, err)
	return n
}
