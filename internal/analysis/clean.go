package analysis

import (
	"strings"

	"github.com/KaramelBytes/bizdata-cli/internal/dataset"
)

// Calendar feature headers appended by Clean when time data exists.
const (
	MonthHeader     = "Month"
	DayOfWeekHeader = "Day_of_Week"
	HourHeader      = "Hour"
	IsWeekendHeader = "Is_Weekend"
)

// Unknown replaces blank non-financial cells.
const Unknown = "Unknown"

// Clean returns a normalized copy of res: calendar features derived from the
// date column, canonical YYYY-MM-DD dates, trimmed strings and imputed blanks.
// Capabilities carry over from res; they are not detected again.
func Clean(res *Result, opt Options) *Result {
	opt = opt.withDefaults()
	src := res.Dataset
	caps := res.Capabilities

	headers := append([]string(nil), src.Headers...)
	dateCol, hasDate := opt.Rules.Column(src.Headers, RoleDate)
	features := caps.HasTimeData && hasDate
	if features {
		for _, f := range []string{MonthHeader, DayOfWeekHeader, HourHeader, IsWeekendHeader} {
			if !contains(headers, f) {
				headers = append(headers, f)
			}
		}
	}

	rows := make([]dataset.Record, len(src.Rows))
	for i, row := range src.Rows {
		out := row.Clone()
		if features && hasDateValue(out[dateCol]) {
			if t, ok := ParseDate(out[dateCol], opt.Location); ok {
				out[MonthHeader] = t.Month().String()
				out[DayOfWeekHeader] = t.Weekday().String()
				out[HourHeader] = float64(t.Hour())
				wd := weekdayIndex(t.Weekday())
				out[IsWeekendHeader] = wd >= 5
				out[dateCol] = t.Format("2006-01-02")
			}
		}
		for _, h := range src.Headers {
			v := out[h]
			switch {
			case dataset.IsBlank(v):
				if opt.Rules.Is(h, RoleZeroFill) {
					out[h] = float64(0)
				} else {
					out[h] = Unknown
				}
			default:
				if s, ok := v.(string); ok {
					out[h] = strings.TrimSpace(s)
				}
			}
		}
		rows[i] = out
	}

	cleaned := dataset.New(headers, rows)
	cleaned.Name = src.Name
	next := newResult(cleaned, caps, opt)
	next.Cleaned = true
	return next
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
