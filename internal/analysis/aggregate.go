package analysis

import (
	"sort"

	"github.com/KaramelBytes/bizdata-cli/internal/dataset"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Compute derives a fresh Snapshot from ds in a single pass. Role-dependent
// statistics degrade to zero or empty values when caps lacks the role.
func Compute(ds *dataset.Dataset, caps Capabilities, opt Options) Snapshot {
	opt = opt.withDefaults()
	cols := opt.Rules.ResolveColumns(ds.Headers)
	useRevenue := caps.HasFinancialData && cols.Revenue != ""
	useDate := caps.HasTimeData && cols.Date != ""

	var total float64
	byLabel := orderedmap.New[string, float64]()
	byMonth := make(map[string]float64)
	byEntity := orderedmap.New[string, float64]()
	heat := newHeatmap()

	for _, row := range ds.Rows {
		var rev float64
		if useRevenue {
			// An unparseable amount contributes 0 everywhere.
			rev, _ = ParseAmount(row[cols.Revenue])
		}
		total += rev

		if cols.Entity != "" {
			if v := row[cols.Entity]; !dataset.IsBlank(v) {
				addTo(byEntity, dataset.String(v), rev)
			}
		}

		if !useDate {
			continue
		}
		v := row[cols.Date]
		if !hasDateValue(v) {
			continue
		}
		t, ok := ParseDate(v, opt.Location)
		if !ok {
			continue
		}
		addTo(byLabel, t.Format("Jan 2006"), rev)
		byMonth[t.Format("2006-01")] += rev
		heat.Z[weekdayIndex(t.Weekday())][t.Hour()] += rev
	}

	snap := Snapshot{
		TotalRevenue:  total,
		CustomerCount: byEntity.Len(),
		RevenueByDate: make([]DatePoint, 0, byLabel.Len()),
		TopEntities:   topContributors(byEntity, opt.TopN),
		MonthlyGrowth: Growth(byMonth, caps),
		Heatmap:       heat,
	}
	if n := ds.Len(); n > 0 {
		snap.AverageTransaction = total / float64(n)
	}
	if snap.CustomerCount == 0 {
		snap.CustomerCount = ds.Len()
	}
	for p := byLabel.Oldest(); p != nil; p = p.Next() {
		snap.RevenueByDate = append(snap.RevenueByDate, DatePoint{Date: p.Key, Amount: p.Value})
	}
	return snap
}

func addTo(m *orderedmap.OrderedMap[string, float64], key string, v float64) {
	cur, _ := m.Get(key)
	m.Set(key, cur+v)
}

// topContributors ranks by value descending; ties keep first-seen order.
func topContributors(m *orderedmap.OrderedMap[string, float64], n int) []Contributor {
	out := make([]Contributor, 0, m.Len())
	for p := m.Oldest(); p != nil; p = p.Next() {
		out = append(out, Contributor{Name: p.Key, Value: p.Value})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
