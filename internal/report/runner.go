// Package report runs one fetch, join, and compute cycle for a district and
// renders the result.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fedreturn/internal/county"
	"github.com/sells-group/fedreturn/internal/metrics"
	"github.com/sells-group/fedreturn/internal/model"
	"github.com/sells-group/fedreturn/internal/reconcile"
	"github.com/sells-group/fedreturn/internal/spending"
	"github.com/sells-group/fedreturn/internal/taxsource"
)

// FundingSource fetches county funding for a state and period, restricted to allow.
// *spending.Client implements it.
type FundingSource interface {
	GetFundingRecords(ctx context.Context, state string, period model.DateRange, allow county.Set) ([]model.CountyFundingRecord, error)
}

// EmptyResultError means the run succeeded but no county survived the join.
// Callers render a no-data state instead of failing.
type EmptyResultError struct {
	District string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("report: no data available for %s counties", e.District)
}

// Request selects the district and period for a run.
type Request struct {
	District model.District
	Period   model.DateRange
}

// Report is the output handed to the display layer.
type Report struct {
	RunID       string                   `json:"run_id"`
	GeneratedAt time.Time                `json:"generated_at"`
	District    model.District           `json:"district"`
	Period      model.DateRange          `json:"period"`
	Records     []model.ReconciledRecord `json:"records"`

	TotalTax       int64   `json:"total_income_tax_paid"`
	TotalFunding   float64 `json:"total_federal_funding"`
	AggregateRatio float64 `json:"aggregate_ratio"`
}

// Runner executes report runs. Steps run in order on the caller's goroutine.
type Runner struct {
	Tax      taxsource.Provider
	Funding  FundingSource
	Recorder metrics.Recorder
	Now      func() time.Time
}

// NewRunner creates a Runner with a no-op recorder.
func NewRunner(tax taxsource.Provider, funding FundingSource) *Runner {
	return &Runner{Tax: tax, Funding: funding, Recorder: metrics.Nop{}, Now: time.Now}
}

// Run fetches tax figures, fetches funding, and reconciles them.
//
// A funding failure is returned as the *spending.FetchError and the join is
// skipped. A join with no counties returns *EmptyResultError.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	recorder := r.Recorder
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	start := time.Now()
	rep, err := r.run(ctx, req, now)
	recorder.ObserveRun(req.District.ID, outcome(err), time.Since(start))
	return rep, err
}

func (r *Runner) run(ctx context.Context, req Request, now func() time.Time) (*Report, error) {
	runID := uuid.NewString()
	log := zap.L().With(
		zap.String("run_id", runID),
		zap.String("district", req.District.ID),
		zap.String("period", req.Period.String()),
	)

	if err := req.District.Validate(); err != nil {
		return nil, eris.Wrap(err, "report: invalid district")
	}
	if err := req.Period.Validate(); err != nil {
		return nil, eris.Wrap(err, "report: invalid period")
	}

	tax, err := r.Tax.TaxRecords(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load tax records")
	}
	log.Debug("loaded tax records", zap.Int("count", len(tax)))

	allow := county.NewSet(req.District.Counties...)
	funding, err := r.Funding.GetFundingRecords(ctx, req.District.State, req.Period, allow)
	if err != nil {
		log.Warn("funding fetch failed", zap.Error(err))
		return nil, err
	}

	res, err := reconcile.Reconcile(tax, funding)
	if err != nil {
		return nil, eris.Wrap(err, "report: reconcile")
	}
	if len(res.Records) == 0 {
		log.Info("no counties reconciled",
			zap.Int("tax_records", len(tax)),
			zap.Int("funding_records", len(funding)),
		)
		return nil, &EmptyResultError{District: req.District.DisplayName()}
	}

	log.Info("report complete",
		zap.Int("counties", len(res.Records)),
		zap.Float64("aggregate_ratio", res.AggregateRatio),
	)

	return &Report{
		RunID:          runID,
		GeneratedAt:    now().UTC(),
		District:       req.District,
		Period:         req.Period,
		Records:        res.Records,
		TotalTax:       res.TotalTax,
		TotalFunding:   res.TotalFunding,
		AggregateRatio: res.AggregateRatio,
	}, nil
}

func outcome(err error) string {
	var fe *spending.FetchError
	var empty *EmptyResultError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &empty):
		return metrics.OutcomeNoData
	case errors.As(err, &fe):
		return metrics.OutcomeFetchError
	default:
		return metrics.OutcomeError
	}
}
