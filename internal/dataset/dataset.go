package dataset

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ErrEmptyInput is returned by the loaders when a file has no data rows.
var ErrEmptyInput = errors.New("the file appears to be empty")

// ErrUnsupportedFormat indicates a file extension no loader handles.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Record is one input row keyed by column name. Values are string, float64,
// bool or nil (absent cell).
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is an ordered row set plus its ordered, distinct header list.
// All rows are assumed to share the header set.
type Dataset struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Headers []string `json:"headers" yaml:"headers"`
	Rows    []Record `json:"rows" yaml:"rows"`
}

// New builds a dataset, keeping the first occurrence of each header.
func New(headers []string, rows []Record) *Dataset {
	seen := make(map[string]bool, len(headers))
	hs := make([]string, 0, len(headers))
	for _, h := range headers {
		if seen[h] {
			continue
		}
		seen[h] = true
		hs = append(hs, h)
	}
	if rows == nil {
		rows = []Record{}
	}
	return &Dataset{Headers: hs, Rows: rows}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// HasHeader reports whether name is one of the dataset headers.
func (d *Dataset) HasHeader(name string) bool {
	for _, h := range d.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// IsBlank reports whether a cell counts as missing: nil or the empty string.
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// IsNumber reports whether v holds a numeric cell.
func IsNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32:
		return true
	}
	return false
}

// String renders a cell the way it is shown and grouped. nil renders as "".
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	}
	return cast.ToString(v)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// inferValue types a raw text cell: blank -> nil, float -> float64,
// true/false -> bool, otherwise the original text.
func inferValue(s string) any {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	switch strings.ToLower(t) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// normalizeHeaders names blank headers __EMPTY, __EMPTY_1, ... and
// disambiguates duplicates with _1, _2 suffixes.
func normalizeHeaders(raw []string) []string {
	out := make([]string, len(raw))
	taken := make(map[string]bool, len(raw))
	for i, h := range raw {
		base := strings.TrimSpace(h)
		if base == "" {
			base = "__EMPTY"
		}
		name := base
		for n := 1; taken[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		taken[name] = true
		out[i] = name
	}
	return out
}
