// Package ranking holds the small counting and averaging helpers shared by
// the safety and sentiment aggregations.
package ranking

import (
	"math"
	"sort"
	"strings"
)

// NormalizeKey trims, collapses internal whitespace and lower-cases s so that
// "  Sodium  Laureth Sulfate" and "sodium laureth sulfate" compare equal.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Display trims and collapses whitespace but keeps the original casing.
func Display(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Round rounds x half away from zero to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Mean accumulates a running arithmetic mean.
type Mean struct {
	sum   float64
	count int
}

// Add includes v in the mean.
func (m *Mean) Add(v float64) {
	m.sum += v
	m.count++
}

// Count is the number of values added so far.
func (m *Mean) Count() int { return m.count }

// Value reports the mean and whether any value was added.
func (m *Mean) Value() (float64, bool) {
	if m.count == 0 {
		return 0, false
	}
	return m.sum / float64(m.count), true
}

// Entry is one counted key.
type Entry struct {
	Key   string
	Count int
}

// Tally counts normalized keys and remembers the order in which each key was
// first seen. The zero value is ready to use.
type Tally struct {
	counts map[string]int
	order  []string
}

// Add counts one occurrence of key. Keys that normalize to "" are ignored.
func (t *Tally) Add(key string) {
	k := NormalizeKey(key)
	if k == "" {
		return
	}
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if _, seen := t.counts[k]; !seen {
		t.order = append(t.order, k)
	}
	t.counts[k]++
}

// Len is the number of distinct keys.
func (t *Tally) Len() int { return len(t.order) }

// Top returns at most n entries ordered by count descending, ties broken by
// first appearance. n <= 0 returns every entry.
func (t *Tally) Top(n int) []Entry {
	entries := make([]Entry, 0, len(t.order))
	for _, k := range t.order {
		entries = append(entries, Entry{Key: k, Count: t.counts[k]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
