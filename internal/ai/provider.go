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
	openAIBaseURL    = "https://api.openai.com/v1"
	anthropicBaseURL = "https://api.anthropic.com/v1"

	anthropicVersion = "2023-06-01"
)

// Provider streams generated text for a single prompt. One interface, two
// variant implementations: OpenAI-like and Anthropic-like backends.
type Provider interface {
	GenerateStream(ctx context.Context, prompt, model string, onDelta func(string) error) error
}

// NewProvider returns the Provider implementation for the given provider name.
func NewProvider(provider, apiKey string) (Provider, error) {
	switch provider {
	case "openai":
		return &openAIProvider{apiKey: apiKey, baseURL: openAIBaseURL, httpClient: newProviderHTTPClient()}, nil
	case "anthropic":
		return &anthropicProvider{apiKey: apiKey, baseURL: anthropicBaseURL, httpClient: newProviderHTTPClient()}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", provider)
	}
}

// Generate runs a provider stream to completion and returns the accumulated text.
func Generate(ctx context.Context, p Provider, prompt, model string) (string, error) {
	var sb strings.Builder
	err := p.GenerateStream(ctx, prompt, model, func(delta string) error {
		sb.WriteString(delta)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

func newProviderHTTPClient() *http.Client {
	return &http.Client{Timeout: 180 * time.Second}
}

type openAIProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func (p *openAIProvider) GenerateStream(ctx context.Context, prompt, model string, onDelta func(string) error) error {
	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   generateMaxTokens,
		Stream:      true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(errBody))
	}

	return consumeOpenAIStream(resp.Body, onDelta)
}

type anthropicProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type anthropicStreamRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
	Stream    bool      `json:"stream"`
}

// anthropicEvent covers the subset of stream events carrying text deltas.
type anthropicEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *anthropicProvider) GenerateStream(ctx context.Context, prompt, model string, onDelta func(string) error) error {
	body, err := json.Marshal(anthropicStreamRequest{
		Model:     model,
		MaxTokens: generateMaxTokens,
		Messages:  []Message{{Role: "user", Content: prompt}},
		Stream:    true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/messages", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("anthropic returned status %d: %s", resp.StatusCode, string(errBody))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var event anthropicEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			continue
		}

		switch event.Type {
		case "content_block_delta":
			if event.Delta.Type == "text_delta" && event.Delta.Text != "" {
				if err := onDelta(event.Delta.Text); err != nil {
					return err
				}
			}
		case "error":
			return fmt.Errorf("anthropic stream error: %s", event.Error.Message)
		case "message_stop":
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read failed: %w", err)
	}

	return nil
}
