// Package feishu is a minimal client for the Feishu/Lark open API:
// tenant token auth, chat lookup by user, and paginated message listing.
package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// API paths under the configured base URL.
const (
	tokenPath    = "/open-apis/auth/v3/tenant_access_token/internal"
	chatListPath = "/open-apis/im/v1/chats"
	messagesPath = "/open-apis/im/v1/messages"
)

// DefaultPageSize is the message page size when none is configured.
const DefaultPageSize = 50

var (
	// ErrAuth is returned when the tenant token request is rejected.
	ErrAuth = errors.New("feishu: authentication failed")

	// ErrChatNotFound is returned when no chat exists with the user.
	ErrChatNotFound = errors.New("feishu: no chat found with user")
)

// APIError is a non-zero code in a Feishu response envelope.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("feishu: api error %d: %s", e.Code, e.Msg)
}

// Message is one fetched text message.
type Message struct {
	MessageID  string `json:"message_id"`
	SenderID   string `json:"sender_id"`
	Content    string `json:"content"`
	CreateTime string `json:"create_time"`
}

// FetchResult is the document written by chat fetch.
type FetchResult struct {
	UserID    string    `json:"user_id"`
	ChatID    string    `json:"chat_id"`
	FetchedAt time.Time `json:"fetched_at"`
	Messages  []Message `json:"messages"`
}

// Client talks to the Feishu open API.
type Client struct {
	baseURL   string
	appID     string
	appSecret string
	pageSize  int
	http      *http.Client
	log       *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPageSize sets the message page size.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a Feishu client for the given app credentials.
func NewClient(baseURL, appID, appSecret string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		appID:     appID,
		appSecret: appSecret,
		pageSize:  DefaultPageSize,
		http:      &http.Client{Timeout: 30 * time.Second},
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common Feishu response wrapper.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// doJSON performs a request and decodes the envelope, enforcing code == 0.
func (c *Client) doJSON(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("feishu: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	c.log.Debug("feishu request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("feishu: decode response: %w", err)
	}
	if env.Code != 0 {
		return &APIError{Code: env.Code, Msg: env.Msg}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("feishu: decode data: %w", err)
		}
	}
	return nil
}

// TenantToken obtains a tenant access token for the app.
func (c *Client) TenantToken(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"app_id":     c.appID,
		"app_secret": c.appSecret,
	})
	if err != nil {
		return "", fmt.Errorf("feishu: marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("feishu: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// The token lives beside code/msg, not under data.
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("feishu: request token: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	var body struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("feishu: decode token response: %w", err)
	}
	if body.Code != 0 {
		return "", fmt.Errorf("%w: %s (code %d)", ErrAuth, body.Msg, body.Code)
	}
	c.log.Debug("feishu token obtained")
	return body.TenantAccessToken, nil
}

// ChatID finds the chat shared with the given user. Returns
// ErrChatNotFound when the chat list is empty.
func (c *Client) ChatID(ctx context.Context, token, userID string) (string, error) {
	u := c.baseURL + chatListPath + "?" + url.Values{"user_id": {userID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("feishu: build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var data struct {
		Items []struct {
			ChatID string `json:"chat_id"`
		} `json:"items"`
	}
	if err := c.doJSON(req, &data); err != nil {
		return "", err
	}
	if len(data.Items) == 0 {
		return "", ErrChatNotFound
	}
	return data.Items[0].ChatID, nil
}

// rawMessage is the wire shape of a message list item.
type rawMessage struct {
	MessageID string `json:"message_id"`
	SenderID  struct {
		UserID string `json:"user_id"`
	} `json:"sender_id"`
	Content    string `json:"content"`
	CreateTime string `json:"create_time"`
}

// Messages pages through the chat and returns text messages sent by
// userID. The content field is itself JSON ({"text": ...}); messages
// whose content does not parse keep the raw string.
func (c *Client) Messages(ctx context.Context, token, chatID, userID string) ([]Message, error) {
	var messages []Message
	pageToken := ""

	for {
		page, next, err := c.messagePage(ctx, token, chatID, pageToken)
		if err != nil {
			return messages, err
		}

		for _, raw := range page {
			if raw.SenderID.UserID != userID {
				continue
			}
			messages = append(messages, Message{
				MessageID:  raw.MessageID,
				SenderID:   raw.SenderID.UserID,
				Content:    extractText(raw.Content),
				CreateTime: raw.CreateTime,
			})
		}

		if next == "" {
			break
		}
		pageToken = next
	}

	c.log.Debug("feishu messages fetched", zap.Int("count", len(messages)))
	return messages, nil
}

// messagePage fetches one page of messages. Returns the raw items and the
// next page token ("" when exhausted).
func (c *Client) messagePage(ctx context.Context, token, chatID, pageToken string) ([]rawMessage, string, error) {
	params := url.Values{
		"chat_id":   {chatID},
		"msg_type":  {"text"},
		"page_size": {strconv.Itoa(c.pageSize)},
	}
	if pageToken != "" {
		params.Set("page_token", pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+messagesPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("feishu: build messages request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var data struct {
		Items     []rawMessage `json:"items"`
		HasMore   bool         `json:"has_more"`
		PageToken string       `json:"page_token"`
	}
	if err := c.doJSON(req, &data); err != nil {
		return nil, "", err
	}

	if !data.HasMore {
		return data.Items, "", nil
	}
	return data.Items, data.PageToken, nil
}

// extractText pulls the text field out of a message content payload.
func extractText(content string) string {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return content
	}
	return payload.Text
}

// Fetch runs the full token -> chat -> messages flow for one user.
func (c *Client) Fetch(ctx context.Context, userID string) (*FetchResult, error) {
	token, err := c.TenantToken(ctx)
	if err != nil {
		return nil, err
	}

	chatID, err := c.ChatID(ctx, token, userID)
	if err != nil {
		return nil, err
	}

	messages, err := c.Messages(ctx, token, chatID, userID)
	if err != nil {
		return nil, err
	}

	return &FetchResult{
		UserID:    userID,
		ChatID:    chatID,
		FetchedAt: time.Now(),
		Messages:  messages,
	}, nil
}
