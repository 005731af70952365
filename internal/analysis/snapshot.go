package analysis

import (
	"strconv"
	"time"
)

// DatePoint is revenue accumulated under a month-year label such as "Jan 2024".
type DatePoint struct {
	Date   string  `json:"date" yaml:"date"`
	Amount float64 `json:"amount" yaml:"amount"`
}

// Contributor is an entity with its accumulated revenue.
type Contributor struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// MonthlyGrowth is one ISO month of revenue with its change from the previous
// month in percent. Growth is nil for the first month and after a month whose
// revenue was zero or negative.
type MonthlyGrowth struct {
	Month   string   `json:"month" yaml:"month"`
	Revenue float64  `json:"revenue" yaml:"revenue"`
	Growth  *float64 `json:"growth" yaml:"growth"`
}

// Heatmap is revenue density by weekday (rows, Monday first) and hour (columns).
type Heatmap struct {
	X []string    `json:"x" yaml:"x"`
	Y []string    `json:"y" yaml:"y"`
	Z [][]float64 `json:"z" yaml:"z"`
}

// Total sums every cell.
func (h Heatmap) Total() float64 {
	var t float64
	for _, row := range h.Z {
		for _, v := range row {
			t += v
		}
	}
	return t
}

// RowTotal sums one weekday row; out of range rows are 0.
func (h Heatmap) RowTotal(day int) float64 {
	if day < 0 || day >= len(h.Z) {
		return 0
	}
	var t float64
	for _, v := range h.Z[day] {
		t += v
	}
	return t
}

// Snapshot is the immutable statistics bundle derived from one dataset.
type Snapshot struct {
	TotalRevenue       float64         `json:"totalRevenue" yaml:"totalRevenue"`
	AverageTransaction float64         `json:"averageTransaction" yaml:"averageTransaction"`
	CustomerCount      int             `json:"customerCount" yaml:"customerCount"`
	RevenueByDate      []DatePoint     `json:"revenueByDate" yaml:"revenueByDate"`
	TopEntities        []Contributor   `json:"topEntities" yaml:"topEntities"`
	MonthlyGrowth      []MonthlyGrowth `json:"monthlyGrowth" yaml:"monthlyGrowth"`
	Heatmap            Heatmap         `json:"heatmap" yaml:"heatmap"`
}

// Weekdays lists heatmap row labels, Monday first.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// HourLabels lists heatmap column labels "0:00".."23:00".
var HourLabels = func() []string {
	out := make([]string, 24)
	for i := range out {
		out[i] = strconv.Itoa(i) + ":00"
	}
	return out
}()

func newHeatmap() Heatmap {
	z := make([][]float64, len(Weekdays))
	for i := range z {
		z[i] = make([]float64, len(HourLabels))
	}
	return Heatmap{
		X: append([]string(nil), HourLabels...),
		Y: append([]string(nil), Weekdays...),
		Z: z,
	}
}

// weekdayIndex remaps time.Weekday so Monday is 0 and Sunday is 6.
func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// WeekSplit returns the average revenue per weekday (rows 0..4) and per
// weekend day (rows 5..6).
func (h Heatmap) WeekSplit() (weekdayAvg, weekendAvg float64) {
	var wd, we float64
	for d := 0; d < 5; d++ {
		wd += h.RowTotal(d)
	}
	for d := 5; d < 7; d++ {
		we += h.RowTotal(d)
	}
	return wd / 5, we / 2
}

// Peak returns the busiest weekday/hour cell. ok is false when no cell is positive.
func (h Heatmap) Peak() (day, hour int, value float64, ok bool) {
	for d, row := range h.Z {
		for hr, v := range row {
			if v > value {
				day, hour, value, ok = d, hr, v, true
			}
		}
	}
	return day, hour, value, ok
}
