// Package model defines the county-level records that flow between the tax
// source, the spending client, and the reconciler.
package model

// CountyTaxRecord is the income tax paid by residents of one county, in whole dollars.
type CountyTaxRecord struct {
	County        string `json:"county" yaml:"county"`
	IncomeTaxPaid int64  `json:"income_tax_paid" yaml:"income_tax_paid"`
}

// CountyFundingRecord is the federal award total attributed to one county.
type CountyFundingRecord struct {
	County         string  `json:"county" yaml:"county"`
	FederalFunding float64 `json:"federal_funding" yaml:"federal_funding"`
}

// ReconciledRecord joins a tax record and a funding record for the same county.
//
// ReturnPerDollar is FederalFunding / IncomeTaxPaid. When IncomeTaxPaid is zero the
// ratio is undefined: RatioDefined is false and ReturnPerDollar holds 0.
type ReconciledRecord struct {
	County          string  `json:"county"`
	IncomeTaxPaid   int64   `json:"income_tax_paid"`
	FederalFunding  float64 `json:"federal_funding"`
	ReturnPerDollar float64 `json:"return_per_dollar"`
	RatioDefined    bool    `json:"ratio_defined"`
}
