package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclaw/lifekit/internal/patterns"
)

var patternsDays int

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Extract recurring topics from recent daily logs",
}

var patternsExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Generate a pattern report over the last N days",
	Long: `Scan memory/*.md daily logs inside the window, count recurring CJK
topics, and write a markdown report to
life/projects/pattern-extraction/pattern-report-YYYYMMDD.md.`,
	Args: cobra.NoArgs,
	RunE: runPatternsExtract,
}

func init() {
	rootCmd.AddCommand(patternsCmd)
	patternsCmd.AddCommand(patternsExtractCmd)
	patternsExtractCmd.Flags().IntVar(&patternsDays, "days", 7, "Window size in days")
}

func runPatternsExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	extractor := &patterns.Extractor{
		MemoryDir: cfg.MemoryDir(),
		OutputDir: cfg.PatternsDir(),
	}

	report, err := extractor.Extract(cmd.Context(), patternsDays)
	if errors.Is(err, patterns.ErrNoLogs) {
		fmt.Println("没有找到最近的日志文件")
		return nil
	}
	if err != nil {
		return err
	}

	if GetDryRun() {
		fmt.Printf("Would write a report covering %d files, %d topics\n", report.Files, len(report.Words))
		return nil
	}

	path, err := extractor.Write(report)
	if err != nil {
		return err
	}
	fmt.Printf("✓ 模式报告已生成：%s\n", path)
	return nil
}
