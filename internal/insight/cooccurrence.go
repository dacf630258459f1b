package insight

import (
	"sort"

	"github.com/balubo/insight-api/internal/models"
)

// TagPair is an unordered pair of distinct tags that appeared together on
// at least one work, with the number of works they co-occurred on.
type TagPair struct {
	A     string
	B     string
	Count int
}

// TagCluster is a named group of tags sharing a category bucket. Clusters
// are recomputed on every run and carry no identity across runs.
type TagCluster struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// CountPairs returns co-occurrence counts for every unordered pair of
// distinct tags that appear together on a work. Pairs are returned in the
// order they were first observed, and tags are de-duplicated per work
// before pairing, so the output is fully deterministic for a given input.
func CountPairs(works []*models.Work) []TagPair {
	var pairs []TagPair
	index := make(map[[2]string]int)

	for _, work := range works {
		if work == nil || len(work.Tags) < 2 {
			continue
		}
		tags := dedupe(work.Tags)
		for i := 0; i < len(tags); i++ {
			for j := i + 1; j < len(tags); j++ {
				key := pairKey(tags[i], tags[j])
				if at, ok := index[key]; ok {
					pairs[at].Count++
					continue
				}
				index[key] = len(pairs)
				pairs = append(pairs, TagPair{A: tags[i], B: tags[j], Count: 1})
			}
		}
	}
	return pairs
}

// RarestPairs returns up to n pairs with the lowest co-occurrence counts.
// The lowest-count pairs are the most distinctive tag combinations for a
// user. Ties keep first-observed order.
func RarestPairs(pairs []TagPair, n int) []TagPair {
	sorted := make([]TagPair, len(pairs))
	copy(sorted, pairs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count < sorted[j].Count
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// ClusterByCategory groups tags into named clusters by their category
// bucket. Input order determines both tag order within a cluster and the
// order clusters appear in.
func ClusterByCategory(tags []string) []TagCluster {
	var clusters []TagCluster
	index := make(map[string]int)

	for _, tag := range tags {
		category := Classify(tag)
		if at, ok := index[category]; ok {
			clusters[at].Tags = append(clusters[at].Tags, tag)
			continue
		}
		index[category] = len(clusters)
		clusters = append(clusters, TagCluster{Name: category, Tags: []string{tag}})
	}
	return clusters
}

// pairKey normalizes an unordered pair so (a,b) and (b,a) share a key.
func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
