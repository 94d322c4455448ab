package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/lifekit/internal/cognee"
)

var cogneeCmd = &cobra.Command{
	Use:   "cognee",
	Short: "Talk to a local cognee knowledge API",
	Long: `Upload documents to a locally running cognee instance, process
datasets, and ask questions over them.

Examples:
  lk cognee upload /path/to/doc.pdf my-docs
  lk cognee process my-docs
  lk cognee search "总结文档内容" my-docs`,
}

var cogneeUploadCmd = &cobra.Command{
	Use:   "upload <file> [dataset]",
	Short: "Upload a file into a dataset",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCogneeUpload,
}

var cogneeProcessCmd = &cobra.Command{
	Use:   "process [dataset]",
	Short: "Process (cognify) a dataset",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCogneeProcess,
}

var cogneeSearchCmd = &cobra.Command{
	Use:   "search <query> [dataset]",
	Short: "Search a dataset and print the top answers",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCogneeSearch,
}

func init() {
	rootCmd.AddCommand(cogneeCmd)
	cogneeCmd.AddCommand(cogneeUploadCmd)
	cogneeCmd.AddCommand(cogneeProcessCmd)
	cogneeCmd.AddCommand(cogneeSearchCmd)
}

// cogneeDataset resolves the dataset argument at position pos, falling
// back to the configured default.
func cogneeDataset(args []string, pos int, fallback string) string {
	if len(args) > pos {
		return args[pos]
	}
	return fallback
}

func runCogneeUpload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dataset := cogneeDataset(args, 1, cfg.Cognee.Dataset)

	if GetDryRun() {
		fmt.Printf("Would upload %s to dataset %s\n", args[0], dataset)
		return nil
	}

	fmt.Printf("📤 上传文件：%s\n", args[0])
	client := cognee.NewClient(cfg.Cognee.BaseURL, cognee.WithLogger(newLogger(cfg)))
	if err := client.Upload(cmd.Context(), args[0], dataset); err != nil {
		return err
	}
	fmt.Println("✅ 上传成功")
	return nil
}

func runCogneeProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dataset := cogneeDataset(args, 0, cfg.Cognee.Dataset)

	fmt.Printf("🔄 处理数据集：%s\n", dataset)
	client := cognee.NewClient(cfg.Cognee.BaseURL, cognee.WithLogger(newLogger(cfg)))
	if err := client.Process(cmd.Context(), dataset); err != nil {
		return err
	}
	fmt.Println("✅ 处理完成")
	return nil
}

func runCogneeSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dataset := cogneeDataset(args, 1, cfg.Cognee.Dataset)

	fmt.Printf("🔍 搜索：%s\n", args[0])
	client := cognee.NewClient(cfg.Cognee.BaseURL, cognee.WithLogger(newLogger(cfg)))
	results, err := client.Search(cmd.Context(), args[0], dataset)
	if err != nil {
		return err
	}

	if jsonOutput(cfg) {
		return printJSON(results)
	}

	frame := strings.Repeat("=", 60)
	fmt.Printf("\n%s\n", frame)
	fmt.Println("📝 答案：")
	fmt.Println()
	for i, r := range results {
		fmt.Printf("%d. %s\n", i+1, r.Text)
	}
	fmt.Printf("%s\n\n", frame)
	return nil
}
