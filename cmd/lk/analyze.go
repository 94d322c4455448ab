package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openclaw/lifekit/internal/docs"
)

var (
	analyzePattern string
	analyzeReport  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Summarize documents, single or in batch",
	Long: `Summarize a single document: character count, line count, and a
content preview.

Examples:
  lk analyze notes/proposal.md
  lk analyze batch ~/docs --pattern '*.md' --report plan.md`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var analyzeBatchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Categorize a directory of documents for upload planning",
	Long: `Recursively scan a directory, bucket files by filename keywords
(strategy, financial, technical, legal, marketing), pick priority files,
and print an upload plan with suggested questions. Optionally write a
markdown report.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyzeBatch,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&analyzePattern, "pattern", "*.md", "Filename glob to match")
	analyzeBatchCmd.Flags().StringVar(&analyzeReport, "report", "", "Write a markdown report to this path")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	analysis, err := docs.Analyze(args[0])
	if err != nil {
		return err
	}

	if jsonOutput(cfg) {
		return printJSON(analysis)
	}
	analysis.Render(os.Stdout)
	return nil
}

func runAnalyzeBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := docs.Batch(cmd.Context(), args[0], analyzePattern)
	if err != nil {
		return err
	}

	if jsonOutput(cfg) {
		return printJSON(result)
	}
	result.Render(os.Stdout)

	if analyzeReport != "" {
		if GetDryRun() {
			fmt.Printf("\nWould save report to: %s\n", analyzeReport)
			return nil
		}
		if err := result.WriteReport(analyzeReport); err != nil {
			return err
		}
		fmt.Printf("\n[*] Report saved to: %s\n", analyzeReport)
	}
	return nil
}
