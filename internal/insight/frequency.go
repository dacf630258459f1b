package insight

import (
	"sort"

	"github.com/balubo/insight-api/internal/models"
)

// FrequencyTable holds per-tag occurrence counts over a user's works.
// A work contributes at most once to a tag's count, even when it lists
// the same tag twice. Tag order is the order tags were first seen across
// the input, which makes downstream tie-breaking deterministic.
type FrequencyTable struct {
	counts map[string]int
	order  []string
}

// CountTagFrequencies builds a FrequencyTable from works. Nil or empty
// tag slices are treated as empty; empty input yields an empty table.
func CountTagFrequencies(works []*models.Work) *FrequencyTable {
	t := &FrequencyTable{counts: make(map[string]int)}
	for _, work := range works {
		if work == nil || len(work.Tags) == 0 {
			continue
		}
		seen := make(map[string]bool, len(work.Tags))
		for _, tag := range work.Tags {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			if _, ok := t.counts[tag]; !ok {
				t.order = append(t.order, tag)
			}
			t.counts[tag]++
		}
	}
	return t
}

// Count returns the number of works carrying tag.
func (t *FrequencyTable) Count(tag string) int {
	return t.counts[tag]
}

// Tags returns all distinct tags in first-seen order.
func (t *FrequencyTable) Tags() []string {
	return t.order
}

// Len returns the number of distinct tags.
func (t *FrequencyTable) Len() int {
	return len(t.order)
}

// TopN returns up to n tags ordered by descending count, ties broken by
// first-seen order.
func (t *FrequencyTable) TopN(n int) []string {
	top := make([]string, len(t.order))
	copy(top, t.order)
	sort.SliceStable(top, func(i, j int) bool {
		return t.counts[top[i]] > t.counts[top[j]]
	})
	if len(top) > n {
		top = top[:n]
	}
	return top
}
