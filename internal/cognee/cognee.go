// Package cognee wraps the local cognee knowledge API: file upload,
// dataset processing (cognify), and search.
package cognee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	searchResults = 3
	searchRunes   = 500
)

// APIError is a non-200 response; Body carries the server's message.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cognee: status %d: %s", e.Status, e.Body)
}

// SearchResult is one search hit.
type SearchResult struct {
	Text string `json:"text"`
}

// Client talks to a cognee instance.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the debug logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a client for the given base URL
// (e.g. http://localhost:8000/api/v1).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 120 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends the request and decodes the JSON response, surfacing the
// body text on non-200 status.
func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cognee: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cognee: read response: %w", err)
	}

	c.log.Debug("cognee request",
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("cognee: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cognee: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// Upload multipart-POSTs the file to /add under the dataset.
func (c *Client) Upload(ctx context.Context, path, dataset string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cognee: open upload: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("cognee: build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("cognee: copy upload: %w", err)
	}
	if err := mw.WriteField("dataset_name", dataset); err != nil {
		return fmt.Errorf("cognee: build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("cognee: finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/add", &buf)
	if err != nil {
		return fmt.Errorf("cognee: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	_, err = c.do(req)
	return err
}

// Process triggers cognify for the dataset.
func (c *Client) Process(ctx context.Context, dataset string) error {
	_, err := c.postJSON(ctx, "/cognify", map[string]string{"dataset_name": dataset})
	return err
}

// Search queries the dataset and returns up to 3 results, each
// truncated to 500 runes. Responses without a results array come back
// as a single raw-text result.
func (c *Client) Search(ctx context.Context, query, dataset string) ([]SearchResult, error) {
	body, err := c.postJSON(ctx, "/search", map[string]string{
		"query":        query,
		"dataset_name": dataset,
	})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Results []SearchResult `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Results == nil {
		return []SearchResult{{Text: truncate(strings.TrimSpace(string(body)))}}, nil
	}

	results := envelope.Results
	if len(results) > searchResults {
		results = results[:searchResults]
	}
	for i := range results {
		results[i].Text = truncate(results[i].Text)
	}
	return results, nil
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= searchRunes {
		return s
	}
	return string([]rune(s)[:searchRunes])
}
