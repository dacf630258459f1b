package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/balubo/insight-api/internal/config"
	"github.com/balubo/insight-api/internal/database"
	"github.com/balubo/insight-api/internal/insight"
	"github.com/balubo/insight-api/internal/logger"
	"github.com/balubo/insight-api/internal/validation"
	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze command
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <user-id>",
		Short: "Run the insight pipeline for a user",
		Long:  "Run the full analysis synchronously against the database and upsert the resulting record. Bypasses the job queue and the summary enricher.",
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

			zapLogger, err := logger.NewDevelopmentLogger(false)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = zapLogger.Sync() }()

			workRepo := database.NewWorkRepository(db)
			insightRepo := database.NewInsightRepository(db)
			aggregator := insight.NewAggregator(workRepo, insightRepo, zapLogger)

			record, err := aggregator.ComputeInsights(context.Background(), userID)
			if err != nil {
				return fmt.Errorf("compute insights: %w", err)
			}

			fmt.Printf("Analysis complete for %s\n", record.UserID)
			fmt.Printf("  Expertise level:  %d\n", record.Expertise.Level)
			fmt.Printf("  Uniqueness level: %d\n", record.Uniqueness.Level)
			fmt.Printf("  Interests level:  %d\n", record.Interests.Level)
			return nil
		},
	}

	return cmd
}
