package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// DateLayout is the wire format for period boundaries.
const DateLayout = "2006-01-02"

// DateRange is an inclusive time-period filter.
type DateRange struct {
	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

// ParseDateRange parses two YYYY-MM-DD dates into a validated range.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, eris.Wrapf(err, "model: parse start date %q", start)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, eris.Wrapf(err, "model: parse end date %q", end)
	}
	r := DateRange{Start: s, End: e}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// CalendarYear returns the range covering January 1 through December 31 of year.
func CalendarYear(year int) DateRange {
	return DateRange{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// Validate checks that both bounds are set and Start is not after End.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return eris.New("model: date range requires start and end")
	}
	if r.Start.After(r.End) {
		return eris.Errorf("model: start date %s is after end date %s", r.StartDate(), r.EndDate())
	}
	return nil
}

// StartDate returns Start in wire format.
func (r DateRange) StartDate() string { return r.Start.Format(DateLayout) }

// EndDate returns End in wire format.
func (r DateRange) EndDate() string { return r.End.Format(DateLayout) }

// String renders the range as "start..end".
func (r DateRange) String() string {
	return r.StartDate() + ".." + r.EndDate()
}

// MarshalJSON encodes the range as {"start_date": ..., "end_date": ...}.
func (r DateRange) MarshalJSON() ([]byte, error) {
	return []byte(`{"start_date":"` + r.StartDate() + `","end_date":"` + r.EndDate() + `"}`), nil
}
