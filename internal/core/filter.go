package core

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"donorregistry/pkg/domain"
)

// Query is the active search text and blood-group filter.
type Query struct {
	Search string `json:"q"`
	Blood  string `json:"blood"`
}

// Normalize trims both fields.
func (q Query) Normalize() Query {
	return Query{Search: strings.TrimSpace(q.Search), Blood: strings.TrimSpace(q.Blood)}
}

// IsZero reports whether the query filters nothing.
func (q Query) IsZero() bool {
	n := q.Normalize()
	return n.Search == "" && n.Blood == ""
}

// Filter returns the donors matching query and category, in input order.
// A non-empty category must equal the donor's blood group ignoring case; a
// non-empty query must be a substring of name, blood, organ, location or
// contact ignoring case. Both empty returns a copy of all.
func Filter(all []domain.Donor, query, category string) []domain.Donor {
	q := strings.TrimSpace(query)
	c := strings.TrimSpace(category)
	if q == "" && c == "" {
		return slices.Clone(all)
	}
	// cases.Caser is stateful, one per call.
	lower := cases.Lower(language.Und)
	q = lower.String(q)
	c = lower.String(c)

	out := make([]domain.Donor, 0, len(all))
	for _, d := range all {
		if c != "" && lower.String(d.Blood) != c {
			continue
		}
		if q != "" && !matchesAny(lower, q, d.Name, d.Blood, d.Organ, d.Location, d.Contact) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func matchesAny(lower cases.Caser, needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(lower.String(f), needle) {
			return true
		}
	}
	return false
}
