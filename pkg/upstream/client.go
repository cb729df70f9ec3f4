// Package upstream implements C1: the upstream streaming adapter. It wraps
// an OpenAI-compatible chat-completion HTTP API (Cerebras and compatible
// providers) into the uniform token-stream shape the rest of the engine
// consumes, per spec.md §4.1.
//
// Adapted from the teacher's pkg/client/openai_compat.go streaming client;
// trimmed to the streaming path only since the engine never makes
// non-streaming calls.
package upstream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mindglass/debate-engine/pkg/log"
	"github.com/mindglass/debate-engine/pkg/retry"
)

// ChatMessage is one turn in a chat-completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	// TimeInfo carries the provider's server-reported completion latency,
	// when the provider emits one (Cerebras does, on its final chunk).
	TimeInfo *struct {
		CompletionTime float64 `json:"completion_time"`
	} `json:"time_info,omitempty"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client is a minimal OpenAI-compatible streaming chat-completion client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a streaming chat-completion client against baseURL
// (e.g. "https://api.cerebras.ai/v1") authenticated with apiKey.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		maxRetries: 3,
	}
}

// streamOnce performs exactly one HTTP attempt at a streaming completion,
// invoking onDelta for every content delta and returning the final usage
// and server-reported completion time, if present.
func (c *Client) streamOnce(ctx context.Context, model string, messages []ChatMessage, onDelta func(string)) (usage *Usage, completionTime *float64, err error) {
	body, err := json.Marshal(chatCompletionRequest{Model: model, Messages: messages, Stream: true})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var eb apiErrorBody
		raw := new(bytes.Buffer)
		raw.ReadFrom(resp.Body)
		msg := raw.String()
		if json.Unmarshal(raw.Bytes(), &eb) == nil && eb.Error.Message != "" {
			msg = eb.Error.Message
		}
		return nil, nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, msg)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				onDelta(choice.Delta.Content)
			}
		}
		if chunk.Usage != nil {
			usage = &Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}
		if chunk.TimeInfo != nil {
			t := chunk.TimeInfo.CompletionTime
			completionTime = &t
		}
	}
	if err := scanner.Err(); err != nil {
		return usage, completionTime, fmt.Errorf("stream read failed: %w", err)
	}

	return usage, completionTime, nil
}

// streamWithRetry retries transport-level failures with exponential
// backoff, distinct from the round executor's higher-level
// retry-with-fallback-model policy.
func (c *Client) streamWithRetry(ctx context.Context, model string, messages []ChatMessage, onDelta func(string)) (*Usage, *float64, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := retry.Delay(attempt, 0)
			log.WithFields(map[string]interface{}{"attempt": attempt, "backoff": backoff.String()}).Debug("retrying upstream stream request")
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		usage, ct, err := c.streamOnce(ctx, model, messages, onDelta)
		if err == nil {
			return usage, ct, nil
		}
		lastErr = err
		if !retry.ShouldRetryTransport(err) {
			return nil, nil, err
		}
	}
	return nil, nil, fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}
