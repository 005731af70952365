package analysis

import (
	"fmt"
	"strings"
)

// Markdown renders a compact report suitable for prompts or standalone docs.
// Sections whose capability is missing print a placeholder instead of data.
func (r *Result) Markdown() string {
	var b strings.Builder
	s := r.Stats
	b.WriteString("[DATASET SUMMARY]\n")
	if name := r.Name(); name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.RecordCount()))
	if r.Dataset != nil {
		b.WriteString(fmt.Sprintf("Columns: %d (%s)\n", len(r.Dataset.Headers), strings.Join(r.Dataset.Headers, ", ")))
	}
	if r.Cleaned {
		b.WriteString("Cleaned: yes\n")
	}

	b.WriteString("\n[CAPABILITIES]\n")
	b.WriteString(fmt.Sprintf("- financial data: %s\n", yesNo(r.Capabilities.HasFinancialData)))
	b.WriteString(fmt.Sprintf("- time data: %s\n", yesNo(r.Capabilities.HasTimeData)))
	writeColumn(&b, "revenue column", r.Columns.Revenue)
	writeColumn(&b, "date column", r.Columns.Date)
	writeColumn(&b, "entity column", r.Columns.Entity)

	b.WriteString("\n[REVENUE]\n")
	if r.Capabilities.HasFinancialData {
		b.WriteString(fmt.Sprintf("- total revenue: %s\n", FormatMoney(s.TotalRevenue)))
		b.WriteString(fmt.Sprintf("- average transaction: %s\n", FormatMoney(s.AverageTransaction)))
	} else {
		b.WriteString("- (no financial data detected)\n")
	}
	b.WriteString(fmt.Sprintf("- customers: %d\n", s.CustomerCount))

	if len(s.TopEntities) > 0 {
		b.WriteString("\n[TOP CONTRIBUTORS]\n")
		for i, c := range s.TopEntities {
			b.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, safeCell(c.Name), FormatMoney(c.Value)))
		}
	}

	b.WriteString("\n[MONTHLY GROWTH]\n")
	switch {
	case !r.Capabilities.Trend():
		b.WriteString("- (requires both financial and time data)\n")
	case len(s.MonthlyGrowth) == 0:
		b.WriteString("- (no dated rows)\n")
	default:
		for _, m := range s.MonthlyGrowth {
			b.WriteString(fmt.Sprintf("- %s: %s (%s)\n", m.Month, FormatMoney(m.Revenue), FormatGrowth(m.Growth)))
		}
	}

	if !r.Capabilities.HasTimeData {
		b.WriteString("\n[REVENUE BY PERIOD]\n- (no time data detected)\n")
		return b.String()
	}
	b.WriteString("\n[REVENUE BY PERIOD]\n")
	if len(s.RevenueByDate) == 0 {
		b.WriteString("- (no dated rows)\n")
	}
	for _, p := range s.RevenueByDate {
		b.WriteString(fmt.Sprintf("- %s: %s\n", p.Date, FormatMoney(p.Amount)))
	}

	b.WriteString("\n[WEEKLY PATTERN]\n")
	if day, hour, v, ok := s.Heatmap.Peak(); ok {
		b.WriteString(fmt.Sprintf("- busiest slot: %s %s (%s)\n", Weekdays[day], HourLabels[hour], FormatMoney(v)))
	}
	wd, we := s.Heatmap.WeekSplit()
	b.WriteString(fmt.Sprintf("- weekday average: %s/day\n", FormatMoney(wd)))
	b.WriteString(fmt.Sprintf("- weekend average: %s/day\n", FormatMoney(we)))
	return b.String()
}

func writeColumn(b *strings.Builder, label, col string) {
	if col == "" {
		col = "(none)"
	}
	b.WriteString(fmt.Sprintf("- %s: %s\n", label, col))
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func safeCell(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
