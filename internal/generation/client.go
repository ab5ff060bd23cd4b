// Package generation asks an OpenAI-compatible chat completion endpoint for
// habit schedules and decodes the answer.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ayush/habit-tracker/backend/internal/logger"
	"github.com/ayush/habit-tracker/backend/internal/models"
)

const (
	maxTokens   = 2000
	temperature = 0.7
)

// Result is a decoded schedule plus what is needed to archive the call.
type Result struct {
	Tasks           []models.DailyTask
	Reasoning       string
	Recommendations []string
	Prompt          string
	RawResponse     string
	Model           string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client calls the chat completion API over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate asks for a fresh schedule covering req's date range.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	return c.run(ctx, schedulePrompt(req), req)
}

// Reschedule asks for a new task list that accounts for req.Progress.
func (c *Client) Reschedule(ctx context.Context, req Request) (*Result, error) {
	return c.run(ctx, reschedulePrompt(req), req)
}

func (c *Client) run(ctx context.Context, prompt string, req Request) (*Result, error) {
	content, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	decoded, err := Decode(content, req.StartDate, req.EndDate)
	if err != nil {
		logger.Warn("[generation] unparsable response", "model", c.model, "length", len(content))
		return nil, fmt.Errorf("generation: decode: %w", err)
	}

	return &Result{
		Tasks:           decoded.Tasks,
		Reasoning:       decoded.Reasoning,
		Recommendations: decoded.Recommendations,
		Prompt:          prompt,
		RawResponse:     content,
		Model:           c.model,
	}, nil
}

// complete sends one system+user exchange and returns the first choice.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generation: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("generation: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	logger.Debug("[generation] request", "method", http.MethodPost, "path", "/chat/completions", "model", c.model)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("generation: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("generation: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation: HTTP %d: %s", resp.StatusCode, truncate(raw, 500))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("generation: decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("generation: provider error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
