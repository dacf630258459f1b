package insight

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/balubo/insight-api/internal/models"
	"github.com/google/uuid"
)

// ScoreConfig holds the heuristic level-scoring constants for one insight
// axis. A level is base plus one point per PerWorks works, plus one point
// per PerTags distinct tags (the diversity contribution capped at
// DiversityCap), clamped to [1,9].
//
// The constants are tuning knobs, not a validated model; only the shape
// matters (monotonic in work count and tag diversity, capped at 9).
type ScoreConfig struct {
	Base         int
	PerWorks     int
	DiversityCap int
	PerTags      int
}

var (
	// ExpertiseScore rewards volume of published work most directly.
	ExpertiseScore = ScoreConfig{Base: 3, PerWorks: 3, DiversityCap: 3, PerTags: 10}
	// UniquenessScore starts higher and grows slowly; distinctiveness is
	// assumed until volume proves otherwise.
	UniquenessScore = ScoreConfig{Base: 5, PerWorks: 4, DiversityCap: 2, PerTags: 7}
	// InterestsScore sits between the two.
	InterestsScore = ScoreConfig{Base: 4, PerWorks: 4, DiversityCap: 2, PerTags: 12}
)

// Level computes the 1..9 level for this axis.
func (c ScoreConfig) Level(workCount, distinctTags int) int {
	diversity := distinctTags / c.PerTags
	if diversity > c.DiversityCap {
		diversity = c.DiversityCap
	}
	level := c.Base + workCount/c.PerWorks + diversity
	if level > 9 {
		level = 9
	}
	if level < 1 {
		level = 1
	}
	return level
}

const (
	topListSize     = 3
	specialtiesSize = 5
	rarestPairsSize = 5
)

// Default filler entries, used to pad the top-3 lists so consumers always
// receive exactly three entries regardless of how thin the data is.
var (
	defaultSkills = []string{"コンテンツ制作", "企画構成", "情報整理"}

	defaultDifferentiators = []string{"独自の視点", "多様な表現力", "丁寧なリサーチ"}

	defaultInterests = []string{"クリエイティブ", "コンテンツ", "トレンド"}
)

// Placeholder summaries returned when a user has no analyzable works.
const (
	placeholderExpertiseSummary  = "登録された作品がまだ少ないため、専門性の分析には実績の追加が必要です。"
	placeholderUniquenessSummary = "作品が増えると、他のクリエイターにはないタグの組み合わせから独自性を分析できます。"
	placeholderInterestsSummary  = "作品を登録すると、よく扱うテーマから興味・関心を分析できます。"
)

// BuildRecord assembles a complete InsightRecord from a user's works.
// It never fails and never returns partial output: with zero works every
// field is populated from the defaults above.
func BuildRecord(userID uuid.UUID, works []*models.Work, now time.Time) *models.InsightRecord {
	freq := CountTagFrequencies(works)
	pairs := RarestPairs(CountPairs(works), rarestPairsSize)
	clusters := ClusterByCategory(freq.Tags())

	topSkills := freq.TopN(topListSize)

	var differentiators []string
	for _, p := range pairs {
		differentiators = append(differentiators, p.A+" × "+p.B)
	}
	if len(differentiators) > topListSize {
		differentiators = differentiators[:topListSize]
	}

	topInterests := topCategories(freq, topListSize)

	record := &models.InsightRecord{
		UserID: userID,
		Expertise: models.ExpertiseInsight{
			Summary:   expertiseSummary(topSkills),
			TopSkills: fillToThree(topSkills, defaultSkills),
			Level:     ExpertiseScore.Level(len(works), freq.Len()),
		},
		Uniqueness: models.UniquenessInsight{
			Summary:         uniquenessSummary(differentiators),
			Differentiators: fillToThree(differentiators, defaultDifferentiators),
			Level:           UniquenessScore.Level(len(works), freq.Len()),
		},
		Interests: models.InterestsInsight{
			Summary:      interestsSummary(topInterests),
			TopInterests: fillToThree(topInterests, defaultInterests),
			Level:        InterestsScore.Level(len(works), freq.Len()),
		},
		Specialties:  freq.TopN(specialtiesSize),
		DesignStyles: designStyles(clusters),
		UpdatedAt:    now,
	}
	if record.Specialties == nil {
		record.Specialties = []string{}
	}
	return record
}

// topCategories aggregates tag counts into category buckets and returns
// the top n buckets by total count, first-seen order breaking ties.
func topCategories(freq *FrequencyTable, n int) []string {
	totals := make(map[string]int)
	var order []string
	for _, tag := range freq.Tags() {
		category := Classify(tag)
		if _, ok := totals[category]; !ok {
			order = append(order, category)
		}
		totals[category] += freq.Count(tag)
	}

	top := make([]string, len(order))
	copy(top, order)
	sort.SliceStable(top, func(i, j int) bool {
		return totals[top[i]] > totals[top[j]]
	})
	if len(top) > n {
		top = top[:n]
	}
	return top
}

// designStyles surfaces the tags in the Design cluster, capped at five.
func designStyles(clusters []TagCluster) []string {
	for _, c := range clusters {
		if c.Name == "Design" {
			tags := c.Tags
			if len(tags) > specialtiesSize {
				tags = tags[:specialtiesSize]
			}
			return tags
		}
	}
	return []string{}
}

// fillToThree pads real entries with fillers so the result is always
// exactly three entries long. Fillers already present are skipped.
func fillToThree(real []string, fillers []string) []string {
	out := make([]string, 0, topListSize)
	seen := make(map[string]bool)
	for _, entry := range real {
		if len(out) == topListSize {
			break
		}
		if seen[entry] {
			continue
		}
		seen[entry] = true
		out = append(out, entry)
	}
	for _, filler := range fillers {
		if len(out) == topListSize {
			break
		}
		if seen[filler] {
			continue
		}
		seen[filler] = true
		out = append(out, filler)
	}
	return out
}

func expertiseSummary(topSkills []string) string {
	if len(topSkills) == 0 {
		return placeholderExpertiseSummary
	}
	return fmt.Sprintf("%sの分野で継続的に作品を発表しており、確かな専門性が見られます。", strings.Join(topSkills, "、"))
}

func uniquenessSummary(differentiators []string) string {
	if len(differentiators) == 0 {
		return placeholderUniquenessSummary
	}
	return fmt.Sprintf("「%s」という組み合わせは希少で、他のクリエイターとの差別化ポイントです。", differentiators[0])
}

func interestsSummary(topInterests []string) string {
	if len(topInterests) == 0 {
		return placeholderInterestsSummary
	}
	return fmt.Sprintf("%sといったテーマへの関心が作品から読み取れます。", strings.Join(topInterests, "、"))
}
