package main

import (
	"fmt"
	"os"

	"github.com/balubo/insight-api/cmd/insightctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "insightctl",
		Short: "Admin tool for the insight aggregation service",
		Long:  "CLI tool for running analyses, inspecting stored insight records and the category table",
	}

	rootCmd.AddCommand(commands.NewAnalyzeCmd())
	rootCmd.AddCommand(commands.NewShowCmd())
	rootCmd.AddCommand(commands.NewCategoriesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
