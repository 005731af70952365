package analysis

import "time"

// Options controls role detection and aggregation.
type Options struct {
	// Rules resolves header roles. Nil means DefaultRules().
	Rules Rules
	// Location is the fixed zone for weekday/hour buckets and canonical dates.
	Location *time.Location
	// TimeSampleRows bounds how many leading rows time detection inspects.
	TimeSampleRows int
	// TopN caps the contributor ranking.
	TopN int
}

// DefaultOptions returns the standard heuristics in UTC.
func DefaultOptions() Options {
	return Options{
		Rules:          DefaultRules(),
		Location:       time.UTC,
		TimeSampleRows: 10,
		TopN:           5,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Rules == nil {
		o.Rules = d.Rules
	}
	if o.Location == nil {
		o.Location = d.Location
	}
	if o.TimeSampleRows <= 0 {
		o.TimeSampleRows = d.TimeSampleRows
	}
	if o.TopN <= 0 {
		o.TopN = d.TopN
	}
	return o
}
