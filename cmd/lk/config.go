package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Long: `Print the effective configuration after merging flags, environment
variables, workspace and home config files, and defaults. Secrets are
redacted in JSON output.`,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if jsonOutput(cfg) {
		return printJSON(cfg)
	}

	redacted := *cfg
	if redacted.Feishu.AppSecret != "" {
		redacted.Feishu.AppSecret = "********"
	}
	data, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Print(string(data))
	return nil
}
