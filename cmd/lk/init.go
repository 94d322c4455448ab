package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold the workspace directory tree",
	Long: `Create the workspace layout used by the other commands:

  memory/                              daily logs (YYYY-MM-DD.md)
  life/decisions/                      decision records + index
  life/projects/pattern-extraction/    pattern reports
  life/chat/                           chat dumps + archive

Idempotent: existing directories are left alone.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dirs := []string{
		cfg.MemoryDir(),
		cfg.DecisionsDir(),
		cfg.PatternsDir(),
		cfg.ChatDir(),
	}

	if GetDryRun() {
		fmt.Println("Would create:")
		for _, dir := range dirs {
			fmt.Printf("  %s\n", dir)
		}
		return nil
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	fmt.Printf("✓ Workspace ready at %s\n", cfg.Workspace)
	if _, err := os.Stat(cfg.SoulPath()); os.IsNotExist(err) {
		fmt.Printf("  (no SOUL.md yet; create %s when ready)\n", filepath.Base(cfg.SoulPath()))
	}
	return nil
}
