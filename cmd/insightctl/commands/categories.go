package commands

import (
	"fmt"
	"strings"

	"github.com/balubo/insight-api/internal/insight"
	"github.com/spf13/cobra"
)

// NewCategoriesCmd creates the categories command
func NewCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories [name]",
		Short: "List the tag category table",
		Long:  "List the built-in tag categories, or the synonyms of one category. Tags outside the table classify as themselves.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				name := args[0]
				synonyms := insight.CategorySynonyms(name)
				if synonyms == nil {
					return fmt.Errorf("unknown category %q", name)
				}
				fmt.Printf("%s (%d synonyms):\n", name, len(synonyms))
				for _, s := range synonyms {
					fmt.Printf("  - %s\n", s)
				}
				return nil
			}

			names := insight.KnownCategories()
			fmt.Printf("Tag categories (%d):\n", len(names))
			for _, name := range names {
				fmt.Printf("  - %s: %s\n", name, strings.Join(insight.CategorySynonyms(name), ", "))
			}
			return nil
		},
	}

	return cmd
}
