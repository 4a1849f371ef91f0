package ai

import (
	"context"
	"strings"
)

// Gateway routes one-shot generation either through the user's own provider
// key (direct OpenAI/Anthropic backend) or through OpenRouter by default.
type Gateway struct {
	router *Client
}

// NewGateway creates a gateway over the given OpenRouter client.
func NewGateway(router *Client) *Gateway {
	return &Gateway{router: router}
}

// GenerateText produces a one-shot completion for the prompt. When the user
// supplied their own API key for the chosen provider, the call goes straight
// to that provider; otherwise it is routed through OpenRouter with a
// provider-qualified model name.
func (g *Gateway) GenerateText(ctx context.Context, prompt, provider, model, userAPIKey string) (string, error) {
	if userAPIKey != "" {
		p, err := NewProvider(provider, userAPIKey)
		if err != nil {
			return "", err
		}
		return Generate(ctx, p, prompt, model)
	}

	if model != "" && !strings.Contains(model, "/") {
		model = provider + "/" + model
	}

	return g.router.Chat(ctx, []Message{{Role: "user", Content: prompt}}, model)
}
