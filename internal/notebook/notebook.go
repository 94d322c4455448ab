// Package notebook drives NotebookLM through headless chrome: ask a
// question against an existing notebook, print upload guidance, and
// doctor the local browser environment.
package notebook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/openclaw/lifekit/internal/storage"
)

var (
	// ErrBrowserMissing is returned when no chromium binary is found.
	ErrBrowserMissing = errors.New("notebook: no chromium browser found")

	// ErrNoAnswer is returned when the page produced no answer in time.
	ErrNoAnswer = errors.New("notebook: no answer appeared")
)

// Candidate binaries tried in order when none is configured.
var browserCandidates = []string{"chromium-browser", "chromium", "google-chrome", "chrome"}

// Selectors tracking NotebookLM's current DOM. These break when Google
// reshuffles the page; keeping them in one place makes that a one-line fix.
const (
	queryBoxSelector = `textarea.query-box-input`
	answerSelector   = `.to-user-message-card-content`
)

const answerPollInterval = 2 * time.Second

// Asker submits questions to a NotebookLM notebook.
type Asker struct {
	BrowserPath string
	ProfileDir  string
	Headless    bool
	Timeout     time.Duration
	Log         *zap.Logger

	// PDFPath, when set, saves the answered conversation page as PDF.
	PDFPath string
}

func (a *Asker) log() *zap.Logger {
	if a.Log != nil {
		return a.Log
	}
	return zap.NewNop()
}

// FindBrowser resolves the browser binary, preferring the configured
// path over the candidate list.
func (a *Asker) FindBrowser() (string, error) {
	if a.BrowserPath != "" {
		if path, err := exec.LookPath(a.BrowserPath); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("%w: %s not on PATH", ErrBrowserMissing, a.BrowserPath)
	}
	for _, name := range browserCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrBrowserMissing, strings.Join(browserCandidates, ", "))
}

// Ask opens the notebook, submits the question, and returns the answer
// text once the page renders it.
func (a *Asker) Ask(ctx context.Context, question, notebookURL string) (string, error) {
	browser, err := a.FindBrowser()
	if err != nil {
		return "", err
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(browser),
		chromedp.Flag("headless", a.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if a.ProfileDir != "" {
		opts = append(opts, chromedp.UserDataDir(a.ProfileDir))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	a.log().Debug("notebook ask",
		zap.String("browser", browser),
		zap.String("url", notebookURL),
		zap.Bool("headless", a.Headless))

	// The answer node for the previous turn may already exist, so count
	// answer cards before asking and wait for a new one.
	var before int
	err = chromedp.Run(taskCtx,
		chromedp.Navigate(notebookURL),
		chromedp.WaitVisible(queryBoxSelector, chromedp.ByQuery),
		chromedp.Evaluate(countExpr(answerSelector), &before),
		chromedp.Click(queryBoxSelector, chromedp.ByQuery),
		chromedp.SendKeys(queryBoxSelector, question, chromedp.ByQuery),
		chromedp.SendKeys(queryBoxSelector, kb.Enter, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("notebook: submit question: %w", err)
	}

	answer, err := a.waitForAnswer(taskCtx, before)
	if err != nil {
		return "", err
	}

	if a.PDFPath != "" {
		if err := a.savePDF(taskCtx); err != nil {
			return answer, err
		}
	}
	return answer, nil
}

// savePDF captures the current page as PDF.
func (a *Asker) savePDF(ctx context.Context) error {
	var data []byte
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		data, _, err = page.PrintToPDF().WithPrintBackground(true).Do(ctx)
		return err
	}))
	if err != nil {
		return fmt.Errorf("notebook: capture pdf: %w", err)
	}
	if err := storage.WriteBytes(a.PDFPath, data); err != nil {
		return fmt.Errorf("notebook: save pdf: %w", err)
	}
	return nil
}

// waitForAnswer polls until a new answer card renders with stable text.
func (a *Asker) waitForAnswer(ctx context.Context, before int) (string, error) {
	var last string
	for {
		select {
		case <-ctx.Done():
			if last != "" {
				return last, nil
			}
			return "", fmt.Errorf("%w: %v", ErrNoAnswer, ctx.Err())
		case <-time.After(answerPollInterval):
		}

		var count int
		var text string
		err := chromedp.Run(ctx,
			chromedp.Evaluate(countExpr(answerSelector), &count),
			chromedp.Evaluate(lastTextExpr(answerSelector), &text),
		)
		if err != nil {
			return "", fmt.Errorf("notebook: poll answer: %w", err)
		}
		if count <= before {
			continue
		}

		text = strings.TrimSpace(text)
		if text != "" && text == last {
			return text, nil
		}
		last = text
	}
}

func countExpr(selector string) string {
	return fmt.Sprintf(`document.querySelectorAll(%q).length`, selector)
}

func lastTextExpr(selector string) string {
	return fmt.Sprintf(`(() => {
		const nodes = document.querySelectorAll(%q);
		return nodes.length ? nodes[nodes.length - 1].innerText : "";
	})()`, selector)
}

// UploadGuide prints the manual upload walkthrough for a local file.
func UploadGuide(w io.Writer, path, question string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("notebook: stat file: %w", err)
	}

	fmt.Fprintf(w, "[*] Analyzing local file: %s\n", path)
	fmt.Fprintf(w, "[*] File size: %d bytes\n", info.Size())
	fmt.Fprintln(w, "[*] To upload this file to NotebookLM:")
	fmt.Fprintln(w, "    1. Go to https://notebooklm.google.com")
	fmt.Fprintln(w, "    2. Click 'Add source' > 'Google Drive' or 'Upload'")
	fmt.Fprintf(w, "    3. Upload: %s\n", info.Name())
	fmt.Fprintln(w, "    4. Copy the notebook URL and run:")
	fmt.Fprintf(w, "       lk notebook ask %q --url \"<PASTE_URL_HERE>\"\n", question)
	return nil
}

// Doctor checks the browser binary and profile directory, writing one
// status line per check. Returns an error when the environment is not
// usable.
func (a *Asker) Doctor(w io.Writer) error {
	fmt.Fprintln(w, "[*] NotebookLM environment check")

	browser, err := a.FindBrowser()
	if err != nil {
		fmt.Fprintf(w, "[!] Browser: %v\n", err)
		return err
	}
	fmt.Fprintf(w, "[+] Browser: %s\n", browser)

	if a.ProfileDir == "" {
		fmt.Fprintln(w, "[+] Profile: ephemeral (no profile_dir configured)")
	} else if err := os.MkdirAll(a.ProfileDir, 0700); err != nil {
		fmt.Fprintf(w, "[!] Profile: %s not writable: %v\n", a.ProfileDir, err)
		return fmt.Errorf("notebook: profile dir: %w", err)
	} else {
		fmt.Fprintf(w, "[+] Profile: %s\n", a.ProfileDir)
	}

	fmt.Fprintln(w, "\n[*] Usage examples:")
	fmt.Fprintln(w, `    lk notebook ask "Your question" --url "https://notebooklm.google.com/notebook/..."`)
	fmt.Fprintln(w, "    lk notebook upload /path/to/doc.pdf")
	return nil
}
