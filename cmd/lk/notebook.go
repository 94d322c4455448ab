package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/lifekit/internal/notebook"
)

var (
	notebookURL      string
	notebookShow     bool
	notebookPDF      string
	notebookQuestion string
)

var notebookCmd = &cobra.Command{
	Use:   "notebook",
	Short: "Drive NotebookLM for document Q&A",
}

var notebookAskCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question against a NotebookLM notebook",
	Long: `Open the notebook in a browser, submit the question, and print the
answer. Sign in once with --show-browser so the profile directory keeps
your Google session; afterwards headless asks work unattended.

Examples:
  lk notebook ask "What are the key risks?" --url "https://notebooklm.google.com/notebook/..."
  lk notebook ask "总结这份文档" --url "..." --show-browser`,
	Args: cobra.ExactArgs(1),
	RunE: runNotebookAsk,
}

var notebookUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Print the upload walkthrough for a local file",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotebookUpload,
}

var notebookSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Check the browser automation environment",
	Args:  cobra.NoArgs,
	RunE:  runNotebookSetup,
}

func init() {
	rootCmd.AddCommand(notebookCmd)
	notebookCmd.AddCommand(notebookAskCmd)
	notebookCmd.AddCommand(notebookUploadCmd)
	notebookCmd.AddCommand(notebookSetupCmd)

	notebookAskCmd.Flags().StringVar(&notebookURL, "url", "", "Notebook URL (required)")
	notebookAskCmd.Flags().BoolVar(&notebookShow, "show-browser", false, "Show the browser window")
	notebookAskCmd.Flags().StringVar(&notebookPDF, "pdf", "", "Save the answered page as PDF")
	_ = notebookAskCmd.MarkFlagRequired("url")

	notebookUploadCmd.Flags().StringVar(&notebookQuestion, "question",
		"Analyze this document and provide key insights, risks, and opportunities",
		"Question to suggest for the follow-up ask")
}

func newAsker() (*notebook.Asker, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return &notebook.Asker{
		BrowserPath: cfg.Notebook.BrowserPath,
		ProfileDir:  cfg.Notebook.ProfileDir,
		Headless:    cfg.Notebook.Headless && !notebookShow,
		Timeout:     time.Duration(cfg.Notebook.TimeoutSeconds) * time.Second,
		Log:         newLogger(cfg),
		PDFPath:     notebookPDF,
	}, nil
}

func runNotebookAsk(cmd *cobra.Command, args []string) error {
	asker, err := newAsker()
	if err != nil {
		return err
	}

	if GetDryRun() {
		fmt.Printf("Would ask %q at %s\n", args[0], notebookURL)
		return nil
	}

	answer, err := asker.Ask(cmd.Context(), args[0], notebookURL)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	if notebookPDF != "" {
		fmt.Printf("\n✓ PDF saved to %s\n", notebookPDF)
	}
	return nil
}

func runNotebookUpload(cmd *cobra.Command, args []string) error {
	return notebook.UploadGuide(os.Stdout, args[0], notebookQuestion)
}

func runNotebookSetup(cmd *cobra.Command, args []string) error {
	asker, err := newAsker()
	if err != nil {
		return err
	}
	return asker.Doctor(os.Stdout)
}
