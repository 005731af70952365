package analysis

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/bizdata-cli/internal/dataset"
)

var (
	nonNumeric    = regexp.MustCompile(`[^0-9.\-]+`)
	leadingNumber = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// maxEpochMillis bounds numeric timestamps to ±100,000,000 days around 1970.
const maxEpochMillis = 8.64e15

// ParseAmount strips every character that is not a digit, '.' or '-' and reads
// the leading decimal number. ok is false when nothing numeric remains.
func ParseAmount(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	s := nonNumeric.ReplaceAllString(dataset.String(v), "")
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// dateLayouts are tried in order; month-first for slash and dash forms (en-US).
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006-01",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"1/2/06 15:04:05",
	"1/2/06 15:04",
	"1/2/06 3:04:05 PM",
	"1/2/06 3:04 PM",
	"1/2/06",
	"1-2-2006 15:04",
	"1-2-2006",
	"1-2-06 15:04",
	"1-2-06",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2006",
	"January 2006",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC850,
	time.ANSIC,
}

// hasDateValue reports whether a date cell holds anything worth parsing.
// Blank cells, numeric zero and booleans are skipped.
func hasDateValue(v any) bool {
	switch x := v.(type) {
	case nil, bool:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case time.Time:
		return !x.IsZero()
	}
	return true
}

// ParseDate interprets v as a point in time in loc. Strings are matched against
// ISO-8601 and common US date layouts; numbers are Unix epoch milliseconds.
func ParseDate(v any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch x := v.(type) {
	case time.Time:
		return x.In(loc), !x.IsZero()
	case float64:
		if math.IsNaN(x) || math.Abs(x) > maxEpochMillis {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(x)).In(loc), true
	case int:
		return ParseDate(float64(x), loc)
	case int64:
		return ParseDate(float64(x), loc)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, l := range dateLayouts {
			if t, err := time.ParseInLocation(l, s, loc); err == nil {
				return t.In(loc), true
			}
		}
	}
	return time.Time{}, false
}
