// Package taxsource supplies county-level income tax paid figures.
package taxsource

import (
	"context"
	"errors"
	"fmt"

	"github.com/sells-group/fedreturn/internal/model"
)

// ErrDataUnavailable is returned when tax figures cannot be loaded.
var ErrDataUnavailable = errors.New("taxsource: data unavailable")

// UnavailableError reports a tax file that could not be read. It matches
// ErrDataUnavailable and unwraps to the underlying cause.
type UnavailableError struct {
	Path string
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: read %s: %v", ErrDataUnavailable, e.Path, e.Err)
}

func (e *UnavailableError) Is(target error) bool { return target == ErrDataUnavailable }

func (e *UnavailableError) Unwrap() error { return e.Err }

// Provider returns the tax records for one run.
type Provider interface {
	TaxRecords(ctx context.Context) ([]model.CountyTaxRecord, error)
}

// Static serves a fixed set of records and never fails.
type Static struct {
	Records []model.CountyTaxRecord
}

// NewNY21 returns the simulated NY-21 figures used when no tax file is configured.
func NewNY21() *Static {
	return &Static{Records: []model.CountyTaxRecord{
		{County: "Clinton County", IncomeTaxPaid: 48357621},
		{County: "Essex County", IncomeTaxPaid: 31248950},
		{County: "Franklin County", IncomeTaxPaid: 21087432},
		{County: "Jefferson County", IncomeTaxPaid: 25679044},
		{County: "Lewis County", IncomeTaxPaid: 15463221},
		{County: "St. Lawrence County", IncomeTaxPaid: 21356789},
		{County: "Warren County", IncomeTaxPaid: 31578943},
		{County: "Washington County", IncomeTaxPaid: 18654329},
		{County: "Hamilton County", IncomeTaxPaid: 9821345},
		{County: "Fulton County", IncomeTaxPaid: 15456789},
		{County: "Montgomery County", IncomeTaxPaid: 12654321},
		{County: "Schoharie County", IncomeTaxPaid: 10456789},
	}}
}

// TaxRecords returns a copy of the static records.
func (s *Static) TaxRecords(_ context.Context) ([]model.CountyTaxRecord, error) {
	out := make([]model.CountyTaxRecord, len(s.Records))
	copy(out, s.Records)
	return out, nil
}
