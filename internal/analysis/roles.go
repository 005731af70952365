package analysis

import "regexp"

// Role is a semantic column role inferred from a header name.
type Role int

const (
	// RoleRevenue marks monetary columns (amounts, totals, prices).
	RoleRevenue Role = iota
	// RoleDate marks the column used as the transaction timestamp.
	RoleDate
	// RoleEntity marks customer/product identifiers used for ranking.
	RoleEntity
	// RoleDateHint marks headers whose numeric cells may still be dates.
	RoleDateHint
	// RoleZeroFill marks headers whose blank cells are imputed with 0.
	RoleZeroFill
)

func (r Role) String() string {
	switch r {
	case RoleRevenue:
		return "revenue"
	case RoleDate:
		return "date"
	case RoleEntity:
		return "entity"
	case RoleDateHint:
		return "date-hint"
	case RoleZeroFill:
		return "zero-fill"
	}
	return "unknown"
}

// RoleRule binds a case-insensitive header pattern to a role.
type RoleRule struct {
	Role    Role
	Pattern *regexp.Regexp
}

// Matches reports whether header satisfies the rule.
func (r RoleRule) Matches(header string) bool {
	return r.Pattern != nil && r.Pattern.MatchString(header)
}

// Rules is an ordered rule list; earlier rules for a role take precedence.
type Rules []RoleRule

// DefaultRules returns the built-in header heuristics.
func DefaultRules() Rules {
	return Rules{
		{Role: RoleRevenue, Pattern: regexp.MustCompile(`(?i)revenue|amount|total|price|sales|cost|value`)},
		{Role: RoleDate, Pattern: regexp.MustCompile(`(?i)date|time|created|period|timestamp`)},
		{Role: RoleEntity, Pattern: regexp.MustCompile(`(?i)customer|name|client|user|item|product|description`)},
		{Role: RoleDateHint, Pattern: regexp.MustCompile(`(?i)date|time|year|month`)},
		{Role: RoleZeroFill, Pattern: regexp.MustCompile(`(?i)revenue|amount|price|cost`)},
	}
}

// Is reports whether header matches any rule for role.
func (rs Rules) Is(header string, role Role) bool {
	for _, r := range rs {
		if r.Role == role && r.Matches(header) {
			return true
		}
	}
	return false
}

// Column returns the first header, in header order, matching role.
func (rs Rules) Column(headers []string, role Role) (string, bool) {
	for _, h := range headers {
		if rs.Is(h, role) {
			return h, true
		}
	}
	return "", false
}

// Filter returns every header matching role, preserving order.
func (rs Rules) Filter(headers []string, role Role) []string {
	var out []string
	for _, h := range headers {
		if rs.Is(h, role) {
			out = append(out, h)
		}
	}
	return out
}

// Columns is the resolved column choice for one dataset.
type Columns struct {
	Revenue string `json:"revenue,omitempty" yaml:"revenue,omitempty"`
	Date    string `json:"date,omitempty" yaml:"date,omitempty"`
	Entity  string `json:"entity,omitempty" yaml:"entity,omitempty"`
}

// ResolveColumns picks the revenue, date and entity columns.
func (rs Rules) ResolveColumns(headers []string) Columns {
	var c Columns
	c.Revenue, _ = rs.Column(headers, RoleRevenue)
	c.Date, _ = rs.Column(headers, RoleDate)
	c.Entity, _ = rs.Column(headers, RoleEntity)
	return c
}
