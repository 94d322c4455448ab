package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclaw/lifekit/internal/decision"
)

var decisionOptions []string

var decisionCmd = &cobra.Command{
	Use:   "decision",
	Short: "Log and list decision records",
}

var decisionLogCmd = &cobra.Command{
	Use:   "log <title> <context> <reason>",
	Short: "Record a decision",
	Long: `Write a decision record under life/decisions/ and update the index.

Examples:
  lk decision log "换用新的笔记工具" "旧工具同步太慢" "本地优先，迁移成本低"
  lk decision log "定价方案" "两档还是三档" "先简单" --option 两档 --option 三档`,
	Args: cobra.ExactArgs(3),
	RunE: runDecisionLog,
}

var decisionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List logged decisions",
	Args:  cobra.NoArgs,
	RunE:  runDecisionList,
}

func init() {
	rootCmd.AddCommand(decisionCmd)
	decisionCmd.AddCommand(decisionLogCmd)
	decisionCmd.AddCommand(decisionListCmd)
	decisionLogCmd.Flags().StringArrayVar(&decisionOptions, "option", nil, "Considered option (repeatable)")
}

func runDecisionLog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	title, context, reason := args[0], args[1], args[2]
	if GetDryRun() {
		fmt.Printf("Would log decision %q to %s\n", title, cfg.DecisionsDir())
		return nil
	}

	rec, err := decision.NewLog(cfg.DecisionsDir()).Create(title, context, reason, decisionOptions)
	if err != nil {
		return err
	}

	if jsonOutput(cfg) {
		return printJSON(rec)
	}
	fmt.Printf("✓ 决策已记录：%s\n", rec.ID)
	return nil
}

func runDecisionList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	idx, err := decision.NewLog(cfg.DecisionsDir()).ReadIndex()
	if err != nil {
		return err
	}

	if jsonOutput(cfg) {
		return printJSON(idx)
	}

	if len(idx.Decisions) == 0 {
		fmt.Println("No decisions logged yet.")
		return nil
	}
	for _, entry := range idx.Decisions {
		fmt.Printf("%s  %s  %s\n", entry.ID, entry.CreatedAt, entry.Title)
	}
	fmt.Printf("\n%d decisions, last updated %s\n", idx.Stats.Total, idx.Stats.LastUpdated)
	return nil
}
