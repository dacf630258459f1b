package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/balubo/insight-api/internal/config"
	"github.com/balubo/insight-api/internal/database"
	"github.com/balubo/insight-api/internal/validation"
	"github.com/spf13/cobra"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show the stored insight record for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := validation.ParseUserID(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			insightRepo := database.NewInsightRepository(db)
			record, err := insightRepo.GetByUserID(context.Background(), userID)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					fmt.Printf("No insight record for %s. Run 'insightctl analyze %s' first.\n", userID, userID)
					return nil
				}
				return fmt.Errorf("get insight record: %w", err)
			}

			if asJSON {
				out, err := json.MarshalIndent(record, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal record: %w", err)
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Printf("Insight record for %s (updated %s)\n", record.UserID, record.UpdatedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("  Expertise (level %d): %s\n", record.Expertise.Level, record.Expertise.Summary)
			fmt.Printf("    Top skills:      %s\n", strings.Join(record.Expertise.TopSkills, ", "))
			fmt.Printf("  Uniqueness (level %d): %s\n", record.Uniqueness.Level, record.Uniqueness.Summary)
			fmt.Printf("    Differentiators: %s\n", strings.Join(record.Uniqueness.Differentiators, ", "))
			fmt.Printf("  Interests (level %d): %s\n", record.Interests.Level, record.Interests.Summary)
			fmt.Printf("    Top interests:   %s\n", strings.Join(record.Interests.TopInterests, ", "))
			fmt.Printf("  Specialties:   %s\n", strings.Join(record.Specialties, ", "))
			fmt.Printf("  Design styles: %s\n", strings.Join(record.DesignStyles, ", "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the record as JSON")
	return cmd
}
