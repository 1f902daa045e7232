package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fedreturn/internal/district"
	"github.com/sells-group/fedreturn/internal/model"
	"github.com/sells-group/fedreturn/internal/report"
	"github.com/sells-group/fedreturn/internal/spending"
)

var (
	reportDistrict      string
	reportState         string
	reportStart         string
	reportEnd           string
	reportTaxFile       string
	reportFormat        string
	reportDebugResponse bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute federal return per tax dollar for a district",
	Long:  "Fetches county award totals for the district's state, joins them with county income tax figures, and prints per-county and aggregate return per $1 of tax.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportTaxFile != "" {
			cfg.Tax.File = reportTaxFile
		}
		if err := cfg.Validate("report"); err != nil {
			return err
		}

		format, err := report.ParseFormat(reportFormat)
		if err != nil {
			return err
		}

		env, err := initEnv(cfg, reportDebugResponse)
		if err != nil {
			return err
		}

		req, err := resolveRequest(env.Districts, requestParams{
			District: firstNonEmpty(reportDistrict, cfg.District.ID),
			State:    reportState,
			Start:    firstNonEmpty(reportStart, cfg.Period.StartDate),
			End:      firstNonEmpty(reportEnd, cfg.Period.EndDate),
		})
		if err != nil {
			return err
		}

		return runReport(cmd.Context(), env.Runner, req, format, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportDistrict, "district", "", "district id (default from config)")
	f.StringVar(&reportState, "state", "", "override the district's two-letter state code")
	f.StringVar(&reportStart, "start", "", "period start date YYYY-MM-DD (default from config)")
	f.StringVar(&reportEnd, "end", "", "period end date YYYY-MM-DD (default from config)")
	f.StringVar(&reportTaxFile, "tax-file", "", "CSV or XLSX file with county income tax figures")
	f.StringVar(&reportFormat, "format", "table", "output format: table, json, or csv")
	f.BoolVar(&reportDebugResponse, "debug-response", false, "log the raw USAspending response body")
	rootCmd.AddCommand(reportCmd)
}

// requestParams are the raw per-run selectors from flags or query parameters.
type requestParams struct {
	District string
	State    string
	Start    string
	End      string
}

// resolveRequest looks up the district, applies a state override, and parses the period.
func resolveRequest(reg *district.Registry, p requestParams) (report.Request, error) {
	d, err := reg.Lookup(p.District)
	if err != nil {
		return report.Request{}, err
	}
	if s := strings.TrimSpace(p.State); s != "" {
		d.State = strings.ToUpper(s)
	}
	if err := d.Validate(); err != nil {
		return report.Request{}, err
	}
	period, err := model.ParseDateRange(p.Start, p.End)
	if err != nil {
		return report.Request{}, eris.Wrap(err, "invalid period")
	}
	return report.Request{District: d, Period: period}, nil
}

// runReport executes one run and renders it. Fetch failures and empty joins
// render the no-data state and return nil; other failures are returned.
func runReport(ctx context.Context, runner *report.Runner, req report.Request, format report.Format, out, errOut io.Writer) error {
	rep, err := runner.Run(ctx, req)
	if err == nil {
		return report.Render(out, format, rep)
	}

	var fe *spending.FetchError
	var empty *report.EmptyResultError
	switch {
	case errors.As(err, &fe):
		fmt.Fprintf(errOut, "Error fetching federal spending data: %s\n", fe.Error())
		fmt.Fprintf(errOut, "Response text: %s\n", fe.ResponseText())
	case errors.As(err, &empty):
		zap.L().Info("no reconciled counties", zap.String("district", req.District.ID))
	default:
		return err
	}
	return report.RenderNoData(out, format, req.District.DisplayName())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
