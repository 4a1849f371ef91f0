// Package ai wraps the hosted chat-completion APIs used for brief chat and
// content plan generation: OpenRouter as the default routing gateway, plus
// direct OpenAI-like and Anthropic-like backends when the user supplies
// their own API key.
package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"

	// DefaultModel is used when neither the request nor the user's settings
	// name a model.
	DefaultModel = "openai/gpt-5.2"

	chatMaxTokens     = 4096
	generateMaxTokens = 8192
	temperature       = 0.7
)

// Message is a single chat message in OpenAI wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client handles communication with the OpenRouter chat-completions API
type Client struct {
	baseURL    string
	apiKey     string
	appURL     string
	httpClient *http.Client
}

// NewClient creates a new OpenRouter client. appURL is sent as the
// HTTP-Referer attribution header.
func NewClient(apiKey, appURL string) *Client {
	return &Client{
		baseURL:    openRouterBaseURL,
		apiKey:     apiKey,
		appURL:     appURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// NewClientWithBaseURL creates a client against a non-default gateway URL.
// Used by tests to point at a stub server.
func NewClientWithBaseURL(apiKey, appURL, baseURL string) *Client {
	c := NewClient(apiKey, appURL)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Chat performs a one-shot completion and returns the full response text.
func (c *Client) Chat(ctx context.Context, messages []Message, model string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("OPENROUTER_API_KEY is not set")
	}
	if model == "" {
		model = DefaultModel
	}

	resp, err := c.post(ctx, chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty response from gateway")
	}

	return parsed.Choices[0].Message.Content, nil
}

// StreamChat performs a streaming completion, invoking onDelta for every
// text fragment as it arrives. Each fragment is forwarded immediately; the
// caller owns accumulation. Returns the error that interrupted the stream,
// or nil on a clean [DONE].
func (c *Client) StreamChat(ctx context.Context, messages []Message, model string, onDelta func(string) error) error {
	if c.apiKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is not set")
	}
	if model == "" {
		model = DefaultModel
	}

	resp, err := c.post(ctx, chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   chatMaxTokens,
		Stream:      true,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return consumeOpenAIStream(resp.Body, onDelta)
}

func (c *Client) post(ctx context.Context, body chatRequest) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", c.appURL)
	req.Header.Set("X-Title", "Content Machine")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	return resp, nil
}

// consumeOpenAIStream reads an OpenAI-style SSE body, forwarding each
// non-empty delta until "data: [DONE]".
func consumeOpenAIStream(body io.Reader, onDelta func(string) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return nil
		}

		var chunk chatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Malformed keep-alive or comment frame; skip it.
			continue
		}

		if len(chunk.Choices) == 0 {
			continue
		}

		if content := chunk.Choices[0].Delta.Content; content != "" {
			if err := onDelta(content); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read failed: %w", err)
	}

	// Stream ended without a [DONE] marker; treat as complete.
	return nil
}
