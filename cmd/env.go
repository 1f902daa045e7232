package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fedreturn/internal/config"
	"github.com/sells-group/fedreturn/internal/district"
	"github.com/sells-group/fedreturn/internal/fetcher"
	"github.com/sells-group/fedreturn/internal/metrics"
	"github.com/sells-group/fedreturn/internal/report"
	"github.com/sells-group/fedreturn/internal/resilience"
	"github.com/sells-group/fedreturn/internal/spending"
	"github.com/sells-group/fedreturn/internal/taxsource"
)

// appEnv holds the district registry, the runner, and metrics shared by the
// report and serve commands.
type appEnv struct {
	Districts *district.Registry
	Runner    *report.Runner
	Metrics   *metrics.Manager // nil when metrics are disabled
}

// initEnv wires the tax source, the USAspending client, and the runner from c.
// debugResponse forces raw-body logging on top of c.Spending.DebugResponse.
func initEnv(c *config.Config, debugResponse bool) (*appEnv, error) {
	reg := district.NewRegistry()
	if c.District.File != "" {
		if err := reg.LoadFile(c.District.File); err != nil {
			return nil, eris.Wrap(err, "load districts")
		}
	}

	var tax taxsource.Provider = taxsource.NewNY21()
	if c.Tax.File != "" {
		fp := taxsource.NewFileProvider(c.Tax.File)
		fp.Sheet = c.Tax.Sheet
		if c.Tax.CountyColumn != "" {
			fp.CountyColumn = c.Tax.CountyColumn
		}
		if c.Tax.AmountColumn != "" {
			fp.AmountColumn = c.Tax.AmountColumn
		}
		tax = fp
	}

	var recorder metrics.Recorder = metrics.Nop{}
	var mgr *metrics.Manager
	if c.Metrics.Enabled {
		mgr = metrics.NewManager()
		recorder = mgr
	}

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: c.Spending.UserAgent,
		Timeout:   c.Spending.Timeout(),
		Retry:     resilience.PolicyFrom(c.Spending.MaxAttempts, c.Spending.InitialBackoffMs),
	})
	client := spending.NewClient(f, spending.Options{
		BaseURL:       c.Spending.BaseURL,
		Scope:         c.Spending.Scope,
		Country:       c.Spending.Country,
		DebugResponse: c.Spending.DebugResponse || debugResponse,
		Observer:      recorder,
	})

	runner := report.NewRunner(tax, client)
	runner.Recorder = recorder

	zap.L().Debug("environment ready",
		zap.Int("districts", len(reg.All())),
		zap.String("spending_base_url", c.Spending.BaseURL),
		zap.Bool("metrics", mgr != nil),
	)

	return &appEnv{Districts: reg, Runner: runner, Metrics: mgr}, nil
}
