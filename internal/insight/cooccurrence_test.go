package insight

import (
	"reflect"
	"testing"

	"github.com/balubo/insight-api/internal/models"
)

func TestCountPairs(t *testing.T) {
	t.Parallel()

	works := []*models.Work{
		workWithTags("A", "B", "C"),
		workWithTags("B", "A"), // reversed order still increments (A,B)
		workWithTags("A"),      // single tag contributes no pair
		nil,
	}

	pairs := CountPairs(works)

	want := []TagPair{
		{A: "A", B: "B", Count: 2},
		{A: "A", B: "C", Count: 1},
		{A: "B", B: "C", Count: 1},
	}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("CountPairs() = %v, want %v", pairs, want)
	}
}

func TestCountPairs_DuplicateTagsInWork(t *testing.T) {
	t.Parallel()

	// Duplicates are collapsed before pairing, so (A,A) never appears
	// and (A,B) counts once per work.
	works := []*models.Work{
		workWithTags("A", "A", "B", "B"),
	}

	pairs := CountPairs(works)

	want := []TagPair{{A: "A", B: "B", Count: 1}}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("CountPairs() = %v, want %v", pairs, want)
	}
}

func TestRarestPairs(t *testing.T) {
	t.Parallel()

	pairs := []TagPair{
		{A: "A", B: "B", Count: 5},
		{A: "C", B: "D", Count: 1},
		{A: "E", B: "F", Count: 2},
		{A: "G", B: "H", Count: 1},
	}

	got := RarestPairs(pairs, 3)

	// Lowest counts first, ties in first-observed order.
	want := []TagPair{
		{A: "C", B: "D", Count: 1},
		{A: "G", B: "H", Count: 1},
		{A: "E", B: "F", Count: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RarestPairs() = %v, want %v", got, want)
	}

	// Input slice is left untouched.
	if pairs[0].A != "A" || pairs[0].Count != 5 {
		t.Errorf("RarestPairs mutated its input: %v", pairs)
	}
}

func TestRarestPairs_NFitsAll(t *testing.T) {
	t.Parallel()

	pairs := []TagPair{{A: "A", B: "B", Count: 1}}
	if got := RarestPairs(pairs, 5); len(got) != 1 {
		t.Errorf("RarestPairs() returned %d pairs, want 1", len(got))
	}
	if got := RarestPairs(nil, 5); len(got) != 0 {
		t.Errorf("RarestPairs(nil) returned %d pairs, want 0", len(got))
	}
}

func TestClusterByCategory(t *testing.T) {
	t.Parallel()

	tags := []string{"ライティング", "デザイン", "記事", "陶芸", "イラスト"}

	clusters := ClusterByCategory(tags)

	want := []TagCluster{
		{Name: "Writing", Tags: []string{"ライティング", "記事"}},
		{Name: "Design", Tags: []string{"デザイン", "イラスト"}},
		{Name: "陶芸", Tags: []string{"陶芸"}},
	}
	if !reflect.DeepEqual(clusters, want) {
		t.Errorf("ClusterByCategory() = %v, want %v", clusters, want)
	}
}

func TestClusterByCategory_Empty(t *testing.T) {
	t.Parallel()

	if got := ClusterByCategory(nil); len(got) != 0 {
		t.Errorf("ClusterByCategory(nil) = %v, want empty", got)
	}
}
