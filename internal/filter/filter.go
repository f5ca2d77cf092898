// Package filter narrows a transaction list by category and date range.
package filter

import (
	"net/url"
	"sort"
	"strings"

	"cashboard/internal/core"
)

// All is the category value that matches every transaction.
const All = "all"

// Filter is a value; the zero value is not pass-through, use Reset.
type Filter struct {
	Category string
	Start    core.Date
	End      core.Date
}

// Reset returns the pass-through filter.
func Reset() Filter {
	return Filter{Category: All}
}

// IsDefault reports whether f lets every transaction through.
func (f Filter) IsDefault() bool {
	return (f.Category == All || f.Category == "") && f.Start.IsZero() && f.End.IsZero()
}

// Match applies the category and inclusive date bounds. A transaction
// without a category only matches "all".
func (f Filter) Match(t core.Transaction) bool {
	if f.Category != All && f.Category != "" {
		if t.Category == nil || *t.Category != f.Category {
			return false
		}
	}
	if !f.Start.IsZero() && t.Date.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && t.Date.After(f.End) {
		return false
	}
	return true
}

// Apply returns the matching transactions in their original order. The
// input slice is never modified.
func (f Filter) Apply(transactions []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Parse builds a filter from query parameters. Malformed dates are returned
// in invalid so the caller can report them; the bound is left open.
func Parse(q url.Values) (f Filter, invalid []string) {
	f = Reset()
	if c := strings.TrimSpace(q.Get("category")); c != "" {
		f.Category = c
	}
	if s := strings.TrimSpace(q.Get("start")); s != "" {
		if d, err := core.ParseDate(s); err == nil {
			f.Start = d
		} else {
			invalid = append(invalid, "start")
		}
	}
	if s := strings.TrimSpace(q.Get("end")); s != "" {
		if d, err := core.ParseDate(s); err == nil {
			f.End = d
		} else {
			invalid = append(invalid, "end")
		}
	}
	return f, invalid
}

// Values renders f back to query parameters.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.Category != "" && f.Category != All {
		v.Set("category", f.Category)
	}
	if !f.Start.IsZero() {
		v.Set("start", f.Start.String())
	}
	if !f.End.IsZero() {
		v.Set("end", f.End.String())
	}
	return v
}

// Categories lists the distinct big-category names offered by the
// selector, sorted.
func Categories(categories []core.Category) []string {
	seen := make(map[string]bool, len(categories))
	var names []string
	for _, c := range categories {
		if c.BigCategory == "" || seen[c.BigCategory] {
			continue
		}
		seen[c.BigCategory] = true
		names = append(names, c.BigCategory)
	}
	sort.Strings(names)
	return names
}

// Next cycles through "all" followed by names, for keyboard selectors.
func (f Filter) Next(names []string) Filter {
	if len(names) == 0 {
		f.Category = All
		return f
	}
	if f.Category == All || f.Category == "" {
		f.Category = names[0]
		return f
	}
	for i, n := range names {
		if n == f.Category {
			if i+1 < len(names) {
				f.Category = names[i+1]
			} else {
				f.Category = All
			}
			return f
		}
	}
	f.Category = All
	return f
}
