package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/lifekit/internal/archive"
	"github.com/openclaw/lifekit/internal/chat"
	"github.com/openclaw/lifekit/internal/config"
	"github.com/openclaw/lifekit/internal/feishu"
	"github.com/openclaw/lifekit/internal/storage"
)

var (
	chatParseOut    string
	chatFetchUser   string
	chatFetchOut    string
	chatFetchToArch bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Parse, fetch, and archive chat messages",
}

var chatParseCmd = &cobra.Command{
	Use:   "parse <export.txt> <target-name>",
	Short: "Parse a chat export and compute message statistics",
	Long: `Parse a plain-text chat export into structured messages, split them
into target vs other senders, and compute frequency statistics over the
target's messages (top characters, emoji, laugh ratio, phrases).

Writes parsed_messages.json and target_messages.txt to the output
directory (default: <workspace>/life/chat).`,
	Args: cobra.ExactArgs(2),
	RunE: runChatParse,
}

var chatFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch a user's messages from the Feishu API",
	Long: `Fetch all text messages sent by a user in your shared chat, via the
Feishu open API. App credentials come from config or the
LIFEKIT_FEISHU_APP_ID / LIFEKIT_FEISHU_APP_SECRET environment.

With --archive, messages are also upserted into the sqlite archive so
repeated fetches are incremental.`,
	Args: cobra.NoArgs,
	RunE: runChatFetch,
}

var chatRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past fetch runs",
	Long: `List the append-only fetch journal (life/chat/fetch_log.jsonl).
Every chat fetch appends one line, whether or not --archive was used.`,
	Args: cobra.NoArgs,
	RunE: runChatRuns,
}

var chatArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect the local message archive",
}

var chatArchiveStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archive totals per sender",
	Args:  cobra.NoArgs,
	RunE:  runChatArchiveStats,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.AddCommand(chatParseCmd)
	chatCmd.AddCommand(chatFetchCmd)
	chatCmd.AddCommand(chatRunsCmd)
	chatCmd.AddCommand(chatArchiveCmd)
	chatArchiveCmd.AddCommand(chatArchiveStatsCmd)

	chatParseCmd.Flags().StringVar(&chatParseOut, "out", "", "Output directory (default: <workspace>/life/chat)")
	chatFetchCmd.Flags().StringVar(&chatFetchUser, "user", "", "Target user open_id (required)")
	chatFetchCmd.Flags().StringVar(&chatFetchOut, "out", "", "Output file (default: <workspace>/life/chat/fetched_messages.json)")
	chatFetchCmd.Flags().BoolVar(&chatFetchToArch, "archive", false, "Also upsert messages into the sqlite archive")
	_ = chatFetchCmd.MarkFlagRequired("user")
}

func runChatParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	exportPath, target := args[0], args[1]
	outDir := chatParseOut
	if outDir == "" {
		outDir = cfg.ChatDir()
	}

	parser := &chat.Parser{TargetName: target}
	result, err := parser.ParseFile(exportPath)
	if err != nil {
		return err
	}

	stats := chat.Analyze(result.Target, target)

	if GetDryRun() {
		fmt.Printf("Would write %s and %s to %s\n", chat.ParsedFileName, chat.TargetFileName, outDir)
		fmt.Println(stats.Summary())
		return nil
	}

	jsonPath, err := chat.WriteOutputs(outDir, result, stats)
	if err != nil {
		return err
	}

	if jsonOutput(cfg) {
		return printJSON(stats)
	}
	fmt.Println(stats.Summary())
	fmt.Printf("✓ 解析完成：%s\n", jsonPath)
	if result.OrphanLines > 0 {
		fmt.Printf("  (%d lines before the first timestamp were skipped)\n", result.OrphanLines)
	}
	return nil
}

func runChatFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Feishu.AppID == "" || cfg.Feishu.AppSecret == "" {
		return errors.New("feishu app_id and app_secret must be configured")
	}

	outPath := chatFetchOut
	if outPath == "" {
		outPath = filepath.Join(cfg.ChatDir(), "fetched_messages.json")
	}

	if GetDryRun() {
		fmt.Printf("Would fetch messages for %s to %s\n", chatFetchUser, outPath)
		return nil
	}

	log := newLogger(cfg)
	defer func() {
		_ = log.Sync()
	}()

	client := feishu.NewClient(cfg.Feishu.BaseURL, cfg.Feishu.AppID, cfg.Feishu.AppSecret,
		feishu.WithPageSize(cfg.Feishu.PageSize),
		feishu.WithLogger(log))

	result, err := client.Fetch(cmd.Context(), chatFetchUser)
	if err != nil {
		return err
	}

	if err := storage.WriteJSON(outPath, result); err != nil {
		return fmt.Errorf("write fetch result: %w", err)
	}
	if err := appendFetchLog(cfg, result, outPath); err != nil {
		return err
	}
	fmt.Printf("✓ 已获取 %d 条消息：%s\n", len(result.Messages), outPath)

	if chatFetchToArch {
		run, err := archiveFetch(cmd.Context(), cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("✓ 归档：%d 条新消息（run %s）\n", run.New, run.RunID)
	}
	return nil
}

func archiveFetch(ctx context.Context, cfg *config.Config, result *feishu.FetchResult) (*archive.RunSummary, error) {
	arch, err := archive.Open(cfg.ArchivePath(), newLogger(cfg))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = arch.Close()
	}()
	return arch.RecordFetch(ctx, result)
}

// fetchLogName is the append-only fetch journal inside the chat dir.
const fetchLogName = "fetch_log.jsonl"

// fetchLogEntry is one journal line.
type fetchLogEntry struct {
	FetchedAt string `json:"fetched_at"`
	UserID    string `json:"user_id"`
	ChatID    string `json:"chat_id"`
	Messages  int    `json:"messages"`
	Out       string `json:"out"`
}

// appendFetchLog records the fetch in the journal.
func appendFetchLog(cfg *config.Config, result *feishu.FetchResult, outPath string) error {
	entry := fetchLogEntry{
		FetchedAt: result.FetchedAt.Format(time.RFC3339),
		UserID:    result.UserID,
		ChatID:    result.ChatID,
		Messages:  len(result.Messages),
		Out:       outPath,
	}
	path := filepath.Join(cfg.ChatDir(), fetchLogName)
	if err := storage.AppendJSONL(path, entry); err != nil {
		return fmt.Errorf("append fetch log: %w", err)
	}
	return nil
}

// readFetchLog loads every well-formed journal line.
func readFetchLog(cfg *config.Config) ([]fetchLogEntry, error) {
	var entries []fetchLogEntry
	path := filepath.Join(cfg.ChatDir(), fetchLogName)
	err := storage.ReadJSONL(path, func(line []byte) error {
		var entry fetchLogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read fetch log: %w", err)
	}
	return entries, nil
}

func runChatRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	entries, err := readFetchLog(cfg)
	if err != nil {
		return err
	}

	if jsonOutput(cfg) {
		return printJSON(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No fetch runs recorded yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %s  %d messages  %s\n", e.FetchedAt, e.UserID, e.Messages, e.Out)
	}
	return nil
}

func runChatArchiveStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	arch, err := archive.Open(cfg.ArchivePath(), newLogger(cfg))
	if err != nil {
		return err
	}
	defer func() {
		_ = arch.Close()
	}()

	stats, err := arch.Stats(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput(cfg) {
		return printJSON(stats)
	}
	fmt.Printf("Messages: %d (%d fetch runs)\n", stats.Messages, stats.Runs)
	for _, sc := range stats.Senders {
		fmt.Printf("  %-24s %d\n", sc.SenderID, sc.Messages)
	}
	return nil
}
