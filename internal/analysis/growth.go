package analysis

import "sort"

// Growth turns per-ISO-month revenue into a chronologically sorted
// month-over-month series. It is empty unless caps allows a trend.
func Growth(months map[string]float64, caps Capabilities) []MonthlyGrowth {
	out := []MonthlyGrowth{}
	if !caps.Trend() {
		return out
	}
	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	// "YYYY-MM" sorts chronologically as text.
	sort.Strings(keys)
	for i, k := range keys {
		g := MonthlyGrowth{Month: k, Revenue: months[k]}
		if i > 0 {
			if prev := months[keys[i-1]]; prev > 0 {
				pct := (g.Revenue - prev) / prev * 100
				g.Growth = &pct
			}
		}
		out = append(out, g)
	}
	return out
}
