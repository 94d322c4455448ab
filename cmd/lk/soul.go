package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/lifekit/internal/soul"
)

var soulWrite bool

var soulCmd = &cobra.Command{
	Use:   "soul",
	Short: "Evolve SOUL.md from harvested insights",
}

var soulEvolveCmd = &cobra.Command{
	Use:   "evolve",
	Short: "Harvest chitin insights and update SOUL.md",
	Long: `Pull behavioral, personality, relational, principle, and skill
insights from the chitin CLI and render them as persona sections.

By default the sections are printed for review. With --write, the
managed insight block in SOUL.md is replaced in place; the previous
SOUL.md is always backed up to memory/ first.`,
	Args: cobra.NoArgs,
	RunE: runSoulEvolve,
}

func init() {
	rootCmd.AddCommand(soulCmd)
	soulCmd.AddCommand(soulEvolveCmd)
	soulEvolveCmd.Flags().BoolVar(&soulWrite, "write", false, "Update SOUL.md in place")
}

func runSoulEvolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	evolver := &soul.Evolver{
		SoulPath:  cfg.SoulPath(),
		BackupDir: cfg.MemoryDir(),
		Command:   cfg.Chitin.Command,
		Log:       newLogger(cfg),
	}

	if err := evolver.CheckBinary(); err != nil {
		return err
	}

	if backup, err := evolver.Backup(); err != nil {
		return err
	} else if backup != "" {
		fmt.Printf("✓ SOUL.md 已备份至 %s\n", backup)
	}

	if stats := evolver.Stats(cmd.Context()); stats != "" {
		fmt.Printf("Chitin 状态:\n%s\n", stats)
	}

	content := evolver.Generate(cmd.Context())
	if content == "" {
		fmt.Println("暂无新洞察可提取")
		return nil
	}

	fmt.Println("\n生成的人格洞察:")
	fmt.Println(content)

	if soulWrite {
		if GetDryRun() {
			fmt.Printf("Would update the insight block in %s\n", cfg.SoulPath())
		} else {
			if err := evolver.Write(content); err != nil {
				return err
			}
			fmt.Printf("✓ SOUL.md 已更新：%s\n", cfg.SoulPath())
		}
	}

	fmt.Printf("\n✓ SOUL 进化完成于 %s\n", time.Now().Format("2006-01-02 15:04:05"))
	return nil
}
