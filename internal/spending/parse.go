package spending

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fedreturn/internal/model"
)

// Accepted field names for a result item, in priority order. The upstream
// schema has used both spellings.
var (
	NameFields   = []string{"display_name", "name"}
	AmountFields = []string{"aggregated_amount", "amount"}
)

type geographyResponse struct {
	Results []json.RawMessage `json:"results"`
}

// ParseResults decodes a spending_by_geography body. Items without a usable
// name are skipped and counted; a missing, null, or unparsable amount becomes 0.
// A body that is not a JSON object, or whose results is not a list, is an error.
func ParseResults(body []byte) ([]model.CountyFundingRecord, int, error) {
	var resp geographyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, 0, eris.Wrap(err, "spending: decode response")
	}

	records := make([]model.CountyFundingRecord, 0, len(resp.Results))
	skipped := 0
	for i, raw := range resp.Results {
		rec, ok := parseItem(raw)
		if !ok {
			zap.L().Debug("skipping unusable result item", zap.Int("index", i), zap.ByteString("item", raw))
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

func parseItem(raw json.RawMessage) (model.CountyFundingRecord, bool) {
	var item map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&item); err != nil || item == nil {
		return model.CountyFundingRecord{}, false
	}

	name := firstString(item, NameFields)
	if name == "" {
		return model.CountyFundingRecord{}, false
	}

	return model.CountyFundingRecord{
		County:         name,
		FederalFunding: firstAmount(item, AmountFields),
	}, true
}

func firstString(item map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := item[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// firstAmount returns the first present, parsable, finite amount. Negative
// totals (net deobligations) are clamped to 0.
func firstAmount(item map[string]any, keys []string) float64 {
	for _, k := range keys {
		v, ok := item[k]
		if !ok || v == nil {
			continue
		}
		var f float64
		var err error
		switch n := v.(type) {
		case json.Number:
			f, err = n.Float64()
		case string:
			f, err = strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(n), ",", ""), 64)
		default:
			continue
		}
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		if f < 0 {
			zap.L().Debug("clamping negative award total", zap.String("field", k), zap.Float64("amount", f))
			return 0
		}
		return f
	}
	return 0
}
