package taxsource

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fedreturn/internal/fetcher"
	"github.com/sells-group/fedreturn/internal/model"
)

// Default column headers, matching the IRS county extract layout.
const (
	DefaultCountyColumn = "County"
	DefaultAmountColumn = "Income Tax Paid"
)

// FileProvider reads tax records from a CSV or XLSX file on every call.
type FileProvider struct {
	Path         string
	Sheet        string // XLSX only; empty means the first sheet
	CountyColumn string
	AmountColumn string
}

// NewFileProvider returns a FileProvider with default column names.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{
		Path:         path,
		CountyColumn: DefaultCountyColumn,
		AmountColumn: DefaultAmountColumn,
	}
}

// TaxRecords loads the file. Failures to read the file or locate the columns
// wrap ErrDataUnavailable. Rows with a blank county or an unusable amount are skipped.
func (p *FileProvider) TaxRecords(ctx context.Context) ([]model.CountyTaxRecord, error) {
	log := zap.L().With(zap.String("tax_file", p.Path))

	rows, err := p.readRows(ctx)
	if err != nil {
		return nil, &UnavailableError{Path: p.Path, Err: err}
	}
	if len(rows) == 0 {
		return nil, eris.Wrapf(ErrDataUnavailable, "%s has no rows", p.Path)
	}

	countyIdx, amountIdx := headerIndex(rows[0], p.countyColumn()), headerIndex(rows[0], p.amountColumn())
	if countyIdx < 0 || amountIdx < 0 {
		return nil, eris.Wrapf(ErrDataUnavailable, "%s: header must contain %q and %q", p.Path, p.countyColumn(), p.amountColumn())
	}

	var records []model.CountyTaxRecord
	for i, row := range rows[1:] {
		line := i + 2
		if countyIdx >= len(row) || amountIdx >= len(row) {
			log.Warn("skipping short row", zap.Int("row", line))
			continue
		}
		name := strings.TrimSpace(row[countyIdx])
		if name == "" {
			log.Warn("skipping row with blank county", zap.Int("row", line))
			continue
		}
		amount, err := ParseAmount(row[amountIdx])
		if err != nil {
			log.Warn("skipping row with unusable amount",
				zap.Int("row", line),
				zap.String("county", name),
				zap.Error(err),
			)
			continue
		}
		records = append(records, model.CountyTaxRecord{County: name, IncomeTaxPaid: amount})
	}

	log.Debug("loaded tax records", zap.Int("count", len(records)))
	return records, nil
}

func (p *FileProvider) readRows(ctx context.Context) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(p.Path)) {
	case ".xlsx":
		return fetcher.ReadXLSX(p.Path, fetcher.XLSXOptions{SheetName: p.Sheet})
	case ".csv", ".txt":
		f, err := os.Open(p.Path)
		if err != nil {
			return nil, eris.Wrap(err, "open")
		}
		defer f.Close() //nolint:errcheck
		return fetcher.ReadCSV(ctx, f, fetcher.CSVOptions{})
	default:
		return nil, eris.Errorf("unsupported file type %q (want .csv or .xlsx)", filepath.Ext(p.Path))
	}
}

func (p *FileProvider) countyColumn() string {
	if p.CountyColumn == "" {
		return DefaultCountyColumn
	}
	return p.CountyColumn
}

func (p *FileProvider) amountColumn() string {
	if p.AmountColumn == "" {
		return DefaultAmountColumn
	}
	return p.AmountColumn
}

func headerIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

// ParseAmount parses a whole-dollar amount such as "$21,356,789" or "1500.00".
// Fractions of a dollar are truncated. Negative values are rejected.
func ParseAmount(s string) (int64, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return 0, eris.New("taxsource: empty amount")
	}
	if whole, frac, ok := strings.Cut(clean, "."); ok {
		if _, err := strconv.ParseUint(frac, 10, 64); err != nil && frac != "" {
			return 0, eris.Wrapf(err, "taxsource: parse amount %q", s)
		}
		clean = whole
	}
	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "taxsource: parse amount %q", s)
	}
	if n < 0 {
		return 0, eris.Errorf("taxsource: negative amount %q", s)
	}
	return n, nil
}
