// Package ai talks to an OpenAI-compatible chat-completions API and turns
// its answers into the shapes the site needs: generated blog drafts,
// content recommendations and chat replies.
//
// Every call is a single request with no retries. Failures come back as
// apperror kinds: a 429 from the provider is ErrRateLimited, anything else
// (transport errors, non-2xx, unparseable model output, no API key) is
// ErrUpstream.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/semaphore"

	"github.com/sakif/portfolio/internal/apperror"
)

// Roles accepted by the chat-completions API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one chat completion. JSON asks the provider for a JSON object
// response (response_format json_object).
type Request struct {
	Messages    []Message
	JSON        bool
	Temperature float64
	MaxTokens   int
}

// Completer is the one operation the rest of the package needs. Tests
// substitute a fake.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

var errNoAPIKey = errors.New("ai: OPENAI_API_KEY is not set")

type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxConcurrency int
	Timeout        time.Duration
}

// Client is the HTTP implementation of Completer.
type Client struct {
	http    *http.Client
	baseURL string
	model   string
	hasKey  bool
	sem     *semaphore.Weighted
}

var _ Completer = (*Client)(nil)

// NewClient builds a client. A missing API key is not an error here: the
// site must still start, and each AI call then fails with ErrUpstream.
//
// The bearer header is added by an oauth2 transport over a static token,
// the same mechanism used for any OAuth-protected API.
func NewClient(cfg Config) *Client {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}

	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.APIKey,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = cfg.Timeout

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		hasKey:  cfg.APIKey != "",
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
	}
}

type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete sends req and returns the first choice's content.
//
// At most MaxConcurrency calls are in flight; further callers wait for a
// slot or for their context to end.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if !c.hasKey {
		return "", apperror.Upstream("AI service is not configured", errNoAPIKey)
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", apperror.Upstream("AI service is busy", err)
	}
	defer c.sem.Release(1)

	body := completionRequest{
		Model:       c.model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ai: encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ai: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", apperror.Upstream("AI request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", apperror.RateLimited("AI provider rate limit reached, please try again later")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", apperror.Upstream("AI request failed",
			fmt.Errorf("ai: provider returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet)))
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperror.Upstream("AI response could not be read", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", apperror.Upstream("AI response was empty", errors.New("ai: no choices in response"))
	}
	return out.Choices[0].Message.Content, nil
}

// decodeJSON parses model output into v. Models sometimes wrap JSON in a
// markdown fence even in JSON mode, so a surrounding ``` block is stripped.
func decodeJSON(content string, v any) error {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return apperror.Upstream("AI returned malformed JSON", err)
	}
	return nil
}
