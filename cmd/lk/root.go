package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openclaw/lifekit/internal/config"
	"github.com/openclaw/lifekit/internal/logging"
)

var (
	// Global flags
	dryRun    bool
	verbose   bool
	output    string
	cfgFile   string
	workspace string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lk",
	Short: "Personal workspace automation CLI",
	Long: `lk automates a personal knowledge workspace: decision logging,
weekly pattern extraction, chat export analysis, document triage,
and SOUL.md evolution.

Core Commands:
  decision     Log and list decision records
  chat         Parse, fetch, and archive chat messages
  patterns     Extract recurring topics from recent daily logs
  analyze      Summarize documents, single or in batch
  soul         Evolve SOUL.md from harvested insights
  cognee       Talk to a local cognee knowledge API
  notebook     Drive NotebookLM for document Q&A

Everything lives under one workspace directory
(default ~/.openclaw/workspace) as plain files you own.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		syncConfigFlagToEnv()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show what would happen without executing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format (text, json)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.lifekit/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&workspace, "workspace", "", "Workspace directory (default: ~/.openclaw/workspace)")
}

// GetDryRun returns the dry-run flag value for use by subcommands.
func GetDryRun() bool {
	return dryRun
}

// GetVerbose returns the verbose flag value for use by subcommands.
func GetVerbose() bool {
	return verbose
}

func syncConfigFlagToEnv() {
	path := strings.TrimSpace(cfgFile)
	if path == "" {
		return
	}
	_ = os.Setenv("LIFEKIT_CONFIG", path)
}

// loadConfig resolves the effective configuration, layering the global
// flags on top of env and file sources.
func loadConfig() (*config.Config, error) {
	overrides := &config.Config{
		Workspace: workspace,
		Output:    output,
		Verbose:   verbose,
	}
	cfg, err := config.Load(overrides)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the command logger honoring --verbose and config.
func newLogger(cfg *config.Config) *zap.Logger {
	return logging.New(cfg.Verbose || verbose)
}

// jsonOutput reports whether JSON output was requested.
func jsonOutput(cfg *config.Config) bool {
	if output != "" {
		return output == "json"
	}
	return cfg.Output == "json"
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
