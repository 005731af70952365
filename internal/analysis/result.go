package analysis

import (
	"github.com/KaramelBytes/bizdata-cli/internal/dataset"
)

// Result bundles a dataset with the capabilities detected on it and the
// snapshot computed from both. A Result is never updated in place.
type Result struct {
	Dataset      *dataset.Dataset `json:"-" yaml:"-"`
	Capabilities Capabilities     `json:"capabilities" yaml:"capabilities"`
	Columns      Columns          `json:"columns" yaml:"columns"`
	Stats        Snapshot         `json:"stats" yaml:"stats"`
	Cleaned      bool             `json:"cleaned" yaml:"cleaned"`
}

// Analyze detects capabilities on ds and computes its snapshot.
func Analyze(ds *dataset.Dataset, opt Options) *Result {
	if ds == nil {
		ds = dataset.New(nil, nil)
	}
	opt = opt.withDefaults()
	caps := DetectCapabilities(ds, opt)
	return newResult(ds, caps, opt)
}

func newResult(ds *dataset.Dataset, caps Capabilities, opt Options) *Result {
	return &Result{
		Dataset:      ds,
		Capabilities: caps,
		Columns:      opt.Rules.ResolveColumns(ds.Headers),
		Stats:        Compute(ds, caps, opt),
	}
}

// Name returns the dataset name, if any.
func (r *Result) Name() string {
	if r == nil || r.Dataset == nil {
		return ""
	}
	return r.Dataset.Name
}

// RecordCount returns the number of analysed rows.
func (r *Result) RecordCount() int {
	if r == nil {
		return 0
	}
	return r.Dataset.Len()
}
