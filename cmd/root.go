package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "Evaluation and promotion coordinator for self-play training pipelines",
	Long: `Arena coordinates a self-improving game-playing pipeline: self-play
workers generate games with the current best model, a training worker
proposes candidates, and the evaluator decides through head-to-head
tournaments which candidates become the new shared model fleet-wide.`,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
