// Package generation provides the client for the external text-generation
// service that powers the pipeline's transformation stages.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client is the contract the workflow engine depends on. A single rendered
// instruction goes in; the raw completion text comes out. Implementations
// must be safe for concurrent use by independent runs.
type Client interface {
	Complete(ctx context.Context, instruction string) (string, error)
}

type httpClient struct {
	cfg    *Config
	http   *http.Client
	logger *slog.Logger
}

// New creates an HTTP-backed generation client. The underlying *http.Client
// carries the configured request timeout; pass a custom client via NewWithHTTP
// in tests.
func New(cfg *Config, logger *slog.Logger) Client {
	return NewWithHTTP(cfg, &http.Client{Timeout: cfg.TimeoutDuration()}, logger)
}

// NewWithHTTP creates a generation client using the provided *http.Client.
func NewWithHTTP(cfg *Config, hc *http.Client, logger *slog.Logger) Client {
	return &httpClient{
		cfg:    cfg,
		http:   hc,
		logger: logger.With("system", "generation"),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends the instruction as a single system message with zero
// sampling temperature and a bounded completion length. Transport failures
// and 5xx responses are retried up to the configured attempt cap with a
// linear delay; 4xx responses fail immediately.
func (c *httpClient) Complete(ctx context.Context, instruction string) (string, error) {
	payload := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "system", Content: instruction}},
		Temperature: 0,
		MaxTokens:   c.cfg.MaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode generation request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn(
				"retrying generation request",
				"attempt", attempt,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
			case <-time.After(c.cfg.RetryDelayDuration()):
			}
		}

		content, retryable, err := c.send(ctx, body)
		if err == nil {
			return content, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err
	}

	return "", lastErr
}

func (c *httpClient) send(ctx context.Context, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.endpoint(),
		bytes.NewReader(body),
	)
	if err != nil {
		return "", false, fmt.Errorf("build generation request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return "", true, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", false, fmt.Errorf(
			"%w: status %d: %s",
			ErrRequestRejected, resp.StatusCode, summarize(data),
		)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", false, fmt.Errorf("decode generation response: %w", err)
	}

	if parsed.Error != nil {
		return "", false, fmt.Errorf("%w: %s", ErrRequestRejected, parsed.Error.Message)
	}

	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", false, ErrEmptyReply
	}

	return parsed.Choices[0].Message.Content, false, nil
}

func (c *httpClient) endpoint() string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
}

func summarize(data []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(data))
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
