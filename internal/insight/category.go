package insight

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var categoriesYAML []byte

type categoryTable struct {
	Categories []struct {
		Name     string   `yaml:"name"`
		Synonyms []string `yaml:"synonyms"`
	} `yaml:"categories"`
}

// synonymToCategory is built once at init and never mutated afterwards.
var synonymToCategory map[string]string

// categoryNames preserves the table's category order for deterministic
// cluster ordering when categories tie on first-seen position.
var categoryNames []string

func init() {
	var table categoryTable
	if err := yaml.Unmarshal(categoriesYAML, &table); err != nil {
		panic(fmt.Sprintf("insight: invalid embedded category table: %v", err))
	}
	synonymToCategory = make(map[string]string)
	for _, c := range table.Categories {
		categoryNames = append(categoryNames, c.Name)
		for _, s := range c.Synonyms {
			synonymToCategory[s] = c.Name
		}
	}
}

// Classify maps a tag to its category bucket. Lookup is exact and
// case-sensitive; an unmapped tag becomes its own category, so
// classification is total and never fails.
func Classify(tag string) string {
	if category, ok := synonymToCategory[tag]; ok {
		return category
	}
	return tag
}

// KnownCategories returns the configured category names in table order.
func KnownCategories() []string {
	out := make([]string, len(categoryNames))
	copy(out, categoryNames)
	return out
}

// CategorySynonyms returns the synonyms configured for a category name,
// or nil if the category is not in the table. Used by the admin CLI.
func CategorySynonyms(name string) []string {
	var out []string
	for synonym, category := range synonymToCategory {
		if category == name {
			out = append(out, synonym)
		}
	}
	sort.Strings(out)
	return out
}
