package analysis

import (
	"github.com/KaramelBytes/bizdata-cli/internal/dataset"
)

// Capabilities gates every role-dependent statistic.
type Capabilities struct {
	HasFinancialData bool `json:"hasFinancialData" yaml:"hasFinancialData"`
	HasTimeData      bool `json:"hasTimeData" yaml:"hasTimeData"`
}

// Trend reports whether month-over-month growth can be computed.
func (c Capabilities) Trend() bool { return c.HasFinancialData && c.HasTimeData }

// DetectCapabilities classifies which analyses are valid for ds.
//
// Financial data exists when some revenue-role header holds at least one cell
// that parses as an amount. Time data exists when some header holds a date in
// the first opt.TimeSampleRows rows; numeric cells only count under date-hint
// headers so large integer amounts are not read as timestamps.
func DetectCapabilities(ds *dataset.Dataset, opt Options) Capabilities {
	opt = opt.withDefaults()
	if ds.Len() == 0 {
		return Capabilities{}
	}
	return Capabilities{
		HasFinancialData: detectFinancial(ds, opt),
		HasTimeData:      detectTime(ds, opt),
	}
}

func detectFinancial(ds *dataset.Dataset, opt Options) bool {
	for _, h := range opt.Rules.Filter(ds.Headers, RoleRevenue) {
		for _, row := range ds.Rows {
			if _, ok := ParseAmount(row[h]); ok {
				return true
			}
		}
	}
	return false
}

func detectTime(ds *dataset.Dataset, opt Options) bool {
	sample := ds.Rows
	if len(sample) > opt.TimeSampleRows {
		sample = sample[:opt.TimeSampleRows]
	}
	for _, h := range ds.Headers {
		hint := opt.Rules.Is(h, RoleDateHint)
		for _, row := range sample {
			if isDateCandidate(row[h], hint) {
				if _, ok := ParseDate(row[h], opt.Location); ok {
					return true
				}
			}
		}
	}
	return false
}

// isDateCandidate limits detection to text cells, and to numbers only under a
// date-like header.
func isDateCandidate(v any, hint bool) bool {
	if !hasDateValue(v) {
		return false
	}
	switch v.(type) {
	case string:
		return true
	case float64:
		return hint
	}
	return false
}
