package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/bizdata-cli/internal/dataset"
)

func messyFixture() *dataset.Dataset {
	ds := dataset.New([]string{"Date", "Amount", "Region", "Customer"}, []dataset.Record{
		{"Date": "2024-03-16T10:00:00Z", "Amount": nil, "Region": "", "Customer": "  Ann "},
		{"Date": "03/18/2024", "Amount": 5.0, "Region": "West", "Customer": "Bob"},
		{"Date": "soon", "Amount": "$7", "Region": "East", "Customer": nil},
	})
	ds.Name = "messy.csv"
	return ds
}

func TestCleanImputesAndDerivesFeatures(t *testing.T) {
	res := Analyze(messyFixture(), DefaultOptions())
	require.True(t, res.Capabilities.HasTimeData)

	c := Clean(res, DefaultOptions())
	assert.True(t, c.Cleaned)
	assert.Equal(t, res.Capabilities, c.Capabilities)
	assert.Equal(t, "messy.csv", c.Name())
	assert.Equal(t, []string{"Date", "Amount", "Region", "Customer", MonthHeader, DayOfWeekHeader, HourHeader, IsWeekendHeader}, c.Dataset.Headers)

	first := c.Dataset.Rows[0]
	assert.Equal(t, "2024-03-16", first["Date"])
	assert.Equal(t, float64(0), first["Amount"])
	assert.Equal(t, Unknown, first["Region"])
	assert.Equal(t, "Ann", first["Customer"])
	assert.Equal(t, "March", first[MonthHeader])
	assert.Equal(t, "Saturday", first[DayOfWeekHeader])
	assert.Equal(t, float64(10), first[HourHeader])
	assert.Equal(t, true, first[IsWeekendHeader])

	second := c.Dataset.Rows[1]
	assert.Equal(t, "2024-03-18", second["Date"])
	assert.Equal(t, "Monday", second[DayOfWeekHeader])
	assert.Equal(t, false, second[IsWeekendHeader])

	third := c.Dataset.Rows[2]
	assert.Equal(t, "soon", third["Date"])
	assert.Equal(t, Unknown, third["Customer"])
	_, hasMonth := third[MonthHeader]
	assert.False(t, hasMonth)

	// The input result is untouched.
	assert.Nil(t, res.Dataset.Rows[0]["Amount"])
	assert.Equal(t, "  Ann ", res.Dataset.Rows[0]["Customer"])
	assert.Len(t, res.Dataset.Headers, 4)
}

func TestCleanWithoutTimeData(t *testing.T) {
	ds := dataset.New([]string{"Region", "Price"}, []dataset.Record{
		{"Region": nil, "Price": nil},
		{"Region": " North ", "Price": "12"},
	})
	c := Clean(Analyze(ds, DefaultOptions()), DefaultOptions())
	assert.Equal(t, []string{"Region", "Price"}, c.Dataset.Headers)
	assert.Equal(t, dataset.Record{"Region": Unknown, "Price": float64(0)}, c.Dataset.Rows[0])
	assert.Equal(t, dataset.Record{"Region": "North", "Price": "12"}, c.Dataset.Rows[1])
}

func TestCleanIsStableAfterSecondPass(t *testing.T) {
	c1 := Clean(Analyze(messyFixture(), DefaultOptions()), DefaultOptions())
	c2 := Clean(c1, DefaultOptions())
	c3 := Clean(c2, DefaultOptions())

	assert.Equal(t, c2.Dataset, c3.Dataset)
	assert.Equal(t, c2.Stats, c3.Stats)
	assert.Len(t, c3.Dataset.Headers, 8)
	// Canonical dates drop the time of day, so the derived hour resets once.
	assert.Equal(t, float64(0), c2.Dataset.Rows[0][HourHeader])
}

func TestCleanKeepsRevenueTotals(t *testing.T) {
	res := Analyze(salesFixture(), DefaultOptions())
	c := Clean(res, DefaultOptions())
	assert.InDelta(t, res.Stats.TotalRevenue, c.Stats.TotalRevenue, 1e-9)
	assert.Equal(t, res.Stats.MonthlyGrowth, c.Stats.MonthlyGrowth)
	assert.Equal(t, res.Stats.TopEntities, c.Stats.TopEntities)
}
