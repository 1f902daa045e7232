package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fedreturn/internal/model"
)

// Format selects an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// ParseFormat validates s. Empty means table.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", eris.Errorf("report: invalid format %q (want table, json, or csv)", s)
	}
}

var columns = []string{"County", "Income Tax Paid", "Federal Funding", "Return per $1 Tax"}

// FormatRatio renders a return-per-dollar value as currency, e.g. "$0.20".
func FormatRatio(r float64) string {
	return fmt.Sprintf("$%.2f", r)
}

// FormatRecordRatio renders a record's ratio, or "n/a" when undefined.
func FormatRecordRatio(r model.ReconciledRecord) string {
	if !r.RatioDefined {
		return "n/a"
	}
	return FormatRatio(r.ReturnPerDollar)
}

// FormatDollars renders an amount with thousands separators and cents.
func FormatDollars(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// FormatTax renders a whole-dollar amount with thousands separators.
func FormatTax(v int64) string {
	return "$" + humanize.Comma(v)
}

// Summary is the aggregate line shown under the table.
func Summary(rep *Report) string {
	return fmt.Sprintf("Total Return per $1 of Federal Tax Paid in %s: %s",
		rep.District.DisplayName(), FormatRatio(rep.AggregateRatio))
}

// NoDataMessage is shown when a run yields no reconciled counties.
func NoDataMessage(district string) string {
	return fmt.Sprintf("No data available for %s counties.", district)
}

// Render writes rep to w in the given format.
func Render(w io.Writer, format Format, rep *Report) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, rep)
	case FormatCSV:
		return renderCSV(w, rep)
	case FormatTable, "":
		return renderTable(w, rep)
	default:
		return eris.Errorf("report: unsupported format %q", format)
	}
}

// RenderNoData writes the no-data state in the given format.
func RenderNoData(w io.Writer, format Format, district string) error {
	msg := NoDataMessage(district)
	if format == FormatJSON {
		return json.NewEncoder(w).Encode(map[string]string{"status": "no_data", "message": msg})
	}
	_, err := fmt.Fprintln(w, msg)
	return err
}

func row(r model.ReconciledRecord) []string {
	return []string{r.County, FormatTax(r.IncomeTaxPaid), FormatDollars(r.FederalFunding), FormatRecordRatio(r)}
}

func renderTable(w io.Writer, rep *Report) error {
	align := []tw.Align{tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignRight}
	cfg := tablewriter.Config{}
	cfg.Header.Alignment = tw.CellAlignment{PerColumn: align}
	cfg.Row.Alignment = tw.CellAlignment{PerColumn: align}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(cfg))

	headers := make([]any, len(columns))
	for i, c := range columns {
		headers[i] = c
	}
	table.Header(headers...)

	for _, r := range rep.Records {
		cells := row(r)
		rowData := make([]any, len(cells))
		for i, c := range cells {
			rowData[i] = c
		}
		if err := table.Append(rowData...); err != nil {
			return eris.Wrap(err, "report: append table row")
		}
	}
	if err := table.Render(); err != nil {
		return eris.Wrap(err, "report: render table")
	}

	_, err := fmt.Fprintf(w, "\n%s\n", Summary(rep))
	return err
}

func renderCSV(w io.Writer, rep *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, r := range rep.Records {
		ratio := ""
		if r.RatioDefined {
			ratio = fmt.Sprintf("%.6f", r.ReturnPerDollar)
		}
		rec := []string{
			r.County,
			fmt.Sprintf("%d", r.IncomeTaxPaid),
			fmt.Sprintf("%.2f", r.FederalFunding),
			ratio,
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

type jsonReport struct {
	*Report
	ReturnPerDollar string `json:"return_per_dollar"`
	Summary         string `json:"summary"`
}

func renderJSON(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Report:          rep,
		ReturnPerDollar: FormatRatio(rep.AggregateRatio),
		Summary:         Summary(rep),
	})
}
