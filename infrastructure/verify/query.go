package verify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/infrastructure/synth"
)

// Rows is an in-memory result set supporting the handful of operators the
// exercises are solved with.
type Rows []*entity.Record

// Predicate selects records
type Predicate func(r *entity.Record) bool

// From returns the rows of one table, or nil when the table is missing
func From(ds *entity.Dataset, table string) Rows {
	t := ds.Table(table)
	if t == nil {
		return nil
	}
	return Rows(t.Records)
}

// Where keeps records matching every predicate
func (rows Rows) Where(preds ...Predicate) Rows {
	var out Rows
	for _, r := range rows {
		if matchAll(r, preds) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of rows
func (rows Rows) Count() int {
	return len(rows)
}

// Distinct returns the distinct values of field in first-seen order
func (rows Rows) Distinct(field string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		v := valueString(r, field)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// CountBy groups rows by field and counts each group
func (rows Rows) CountBy(field string) map[string]int {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[valueString(r, field)]++
	}
	return counts
}

// DistinctCountBy counts distinct values of field per group of key
func (rows Rows) DistinctCountBy(key, field string) map[string]int {
	sets := make(map[string]map[string]bool)
	for _, r := range rows {
		k := valueString(r, key)
		if sets[k] == nil {
			sets[k] = make(map[string]bool)
		}
		sets[k][valueString(r, field)] = true
	}

	counts := make(map[string]int, len(sets))
	for k, set := range sets {
		counts[k] = len(set)
	}
	return counts
}

// SortByDesc returns a copy sorted on field, largest first. Ties keep input order.
func (rows Rows) SortByDesc(field string) Rows {
	out := make(Rows, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return valueString(out[i], field) > valueString(out[j], field)
	})
	return out
}

// Group is one summarize row
type Group struct {
	Key   string
	Count int
}

// Top orders grouped counts descending, breaking ties by key
func Top(counts map[string]int) []Group {
	groups := make([]Group, 0, len(counts))
	for k, n := range counts {
		groups = append(groups, Group{Key: k, Count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// Contains matches a case-sensitive substring
func Contains(field, substr string) Predicate {
	return func(r *entity.Record) bool {
		return strings.Contains(r.String(field), substr)
	}
}

// ContainsFold matches a case-insensitive substring
func ContainsFold(field, substr string) Predicate {
	substr = strings.ToLower(substr)
	return func(r *entity.Record) bool {
		return strings.Contains(strings.ToLower(r.String(field)), substr)
	}
}

// Equals matches a field value exactly
func Equals(field string, value any) Predicate {
	return func(r *entity.Record) bool {
		v, ok := r.Get(field)
		return ok && v == value
	}
}

// NotEquals matches records whose field differs from value
func NotEquals(field string, value any) Predicate {
	return func(r *entity.Record) bool {
		v, _ := r.Get(field)
		return v != value
	}
}

// In matches a field against a list of strings
func In(field string, values ...string) Predicate {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return func(r *entity.Record) bool {
		return set[r.String(field)]
	}
}

// Or matches when any predicate does
func Or(preds ...Predicate) Predicate {
	return func(r *entity.Record) bool {
		for _, p := range preds {
			if p(r) {
				return true
			}
		}
		return false
	}
}

// HourBetween matches timestamps whose hour of day is in [from, to)
func HourBetween(field string, from, to int) Predicate {
	return func(r *entity.Record) bool {
		t, err := time.Parse(synth.TimeLayout, r.String(field))
		if err != nil {
			return false
		}
		return t.Hour() >= from && t.Hour() < to
	}
}

func matchAll(r *entity.Record, preds []Predicate) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}

func valueString(r *entity.Record, field string) string {
	v, ok := r.Get(field)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
