// Package reconcile joins tax and funding records by county and computes
// the return on federal tax per dollar.
package reconcile

import (
	"fmt"

	"github.com/sells-group/fedreturn/internal/county"
	"github.com/sells-group/fedreturn/internal/model"
)

// Result is the output of Reconcile.
type Result struct {
	Records []model.ReconciledRecord `json:"records"`

	TotalTax     int64   `json:"total_income_tax_paid"`
	TotalFunding float64 `json:"total_federal_funding"`

	// AggregateRatio is TotalFunding / TotalTax, or 0 when TotalTax is 0.
	AggregateRatio float64 `json:"aggregate_ratio"`
}

// DuplicateCountyError reports a county that appears twice in one input.
type DuplicateCountyError struct {
	Source string // "tax" or "funding"
	County string // normalized name
}

func (e *DuplicateCountyError) Error() string {
	return fmt.Sprintf("reconcile: county %q appears more than once in %s records", e.County, e.Source)
}

// Reconcile inner-joins tax and funding on normalized county name. Records
// come back in the order of the tax input and carry the tax record's name.
// A county present in only one input is dropped. A county listed twice in
// either input is a *DuplicateCountyError. Reconcile does no I/O.
func Reconcile(tax []model.CountyTaxRecord, funding []model.CountyFundingRecord) (*Result, error) {
	fundingByCounty := make(map[string]model.CountyFundingRecord, len(funding))
	for _, f := range funding {
		key := county.Normalize(f.County)
		if _, dup := fundingByCounty[key]; dup {
			return nil, &DuplicateCountyError{Source: "funding", County: key}
		}
		fundingByCounty[key] = f
	}

	seen := make(map[string]struct{}, len(tax))
	res := &Result{Records: []model.ReconciledRecord{}}
	for _, t := range tax {
		key := county.Normalize(t.County)
		if _, dup := seen[key]; dup {
			return nil, &DuplicateCountyError{Source: "tax", County: key}
		}
		seen[key] = struct{}{}

		f, ok := fundingByCounty[key]
		if !ok {
			continue
		}

		ratio, defined := Ratio(f.FederalFunding, t.IncomeTaxPaid)
		res.Records = append(res.Records, model.ReconciledRecord{
			County:          t.County,
			IncomeTaxPaid:   t.IncomeTaxPaid,
			FederalFunding:  f.FederalFunding,
			ReturnPerDollar: ratio,
			RatioDefined:    defined,
		})
		res.TotalTax += t.IncomeTaxPaid
		res.TotalFunding += f.FederalFunding
	}

	res.AggregateRatio, _ = Ratio(res.TotalFunding, res.TotalTax)
	return res, nil
}

// Ratio returns funding / tax. When tax is not positive it returns (0, false).
func Ratio(funding float64, tax int64) (float64, bool) {
	if tax <= 0 {
		return 0, false
	}
	return funding / float64(tax), true
}
