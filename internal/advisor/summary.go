package advisor

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/KaramelBytes/bizdata-cli/internal/analysis"
)

// InsufficientData labels the growth highlight when no months exist.
const InsufficientData = "Insufficient data"

// Summary is the compact view of a Result the advisor is briefed with.
// It never carries raw rows.
type Summary struct {
	Name               string                 `json:"name,omitempty"`
	TotalRevenue       float64                `json:"totalRevenue"`
	AverageTransaction float64                `json:"averageTransaction"`
	RecordCount        int                    `json:"recordCount"`
	CustomerCount      int                    `json:"customerCount"`
	Columns            []string               `json:"columns"`
	HighestGrowth      string                 `json:"highestGrowth"`
	WeekdayAverage     float64                `json:"weekdayAverage"`
	WeekendAverage     float64                `json:"weekendAverage"`
	TopEntities        []analysis.Contributor `json:"topEntities"`
	RevenueTrend       []analysis.DatePoint   `json:"revenueTrend"`
	HasNegativeGrowth  bool                   `json:"hasNegativeGrowth"`
}

// Summarize condenses res for the advisory prompt.
func Summarize(res *analysis.Result) Summary {
	if res == nil {
		return Summary{HighestGrowth: InsufficientData, Columns: []string{}}
	}
	s := res.Stats
	wd, we := s.Heatmap.WeekSplit()
	out := Summary{
		Name:               res.Name(),
		TotalRevenue:       s.TotalRevenue,
		AverageTransaction: s.AverageTransaction,
		RecordCount:        res.RecordCount(),
		CustomerCount:      s.CustomerCount,
		Columns:            []string{},
		HighestGrowth:      highestGrowth(s.MonthlyGrowth),
		WeekdayAverage:     wd,
		WeekendAverage:     we,
		TopEntities:        s.TopEntities,
		RevenueTrend:       s.RevenueByDate,
		HasNegativeGrowth: lo.SomeBy(s.MonthlyGrowth, func(m analysis.MonthlyGrowth) bool {
			return m.Growth != nil && *m.Growth < 0
		}),
	}
	if res.Dataset != nil {
		out.Columns = append(out.Columns, res.Dataset.Headers...)
	}
	return out
}

// WeekendsLead reports whether weekend days average more revenue than weekdays.
func (s Summary) WeekendsLead() bool { return s.WeekendAverage > s.WeekdayAverage }

// WeeklyPattern phrases the weekday/weekend comparison.
func (s Summary) WeeklyPattern() string {
	if s.WeekendsLead() {
		return fmt.Sprintf("Weekends are more profitable on average (%s/day) than weekdays (%s/day).",
			analysis.FormatMoney(s.WeekendAverage), analysis.FormatMoney(s.WeekdayAverage))
	}
	return fmt.Sprintf("Weekdays perform better on average (%s/day) than weekends (%s/day).",
		analysis.FormatMoney(s.WeekdayAverage), analysis.FormatMoney(s.WeekendAverage))
}

// TopSegments renders "name ($value)" pairs.
func (s Summary) TopSegments() string {
	return strings.Join(lo.Map(s.TopEntities, func(c analysis.Contributor, _ int) string {
		return fmt.Sprintf("%s (%s)", c.Name, analysis.FormatMoney(c.Value))
	}), ", ")
}

// Trend renders the revenue-by-label series as "label: $amount" pairs.
func (s Summary) Trend() string {
	return strings.Join(lo.Map(s.RevenueTrend, func(p analysis.DatePoint, _ int) string {
		return fmt.Sprintf("%s: %s", p.Date, analysis.FormatMoney(p.Amount))
	}), "; ")
}

// highestGrowth picks the first month with maximal growth, reading undefined
// growth as 0.
func highestGrowth(months []analysis.MonthlyGrowth) string {
	if len(months) == 0 {
		return InsufficientData
	}
	best := lo.MaxBy(months, func(a, b analysis.MonthlyGrowth) bool {
		return growthOrZero(a) > growthOrZero(b)
	})
	growth := "n/a"
	if best.Growth != nil {
		growth = fmt.Sprintf("%.1f%%", *best.Growth)
	}
	return fmt.Sprintf("%s (Growth: %s)", best.Month, growth)
}

func growthOrZero(m analysis.MonthlyGrowth) float64 {
	if m.Growth == nil {
		return 0
	}
	return *m.Growth
}
