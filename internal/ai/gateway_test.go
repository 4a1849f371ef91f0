package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayRoutesThroughOpenRouter(t *testing.T) {
	var gotReq chatRequest
	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "готово"}},
			},
		})
	})

	g := NewGateway(client)
	got, err := g.GenerateText(context.Background(), "промпт", "anthropic", "claude-sonnet-4-5", "")
	require.NoError(t, err)
	assert.Equal(t, "готово", got)
	// Bare model names get provider-qualified for the routing gateway.
	assert.Equal(t, "anthropic/claude-sonnet-4-5", gotReq.Model)
}

func TestGatewayKeepsQualifiedModel(t *testing.T) {
	var gotReq chatRequest
	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	})

	g := NewGateway(client)
	_, err := g.GenerateText(context.Background(), "промпт", "openai", "openai/gpt-5.2", "")
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-5.2", gotReq.Model)
}

func TestGatewayRejectsUnknownDirectProvider(t *testing.T) {
	g := NewGateway(NewClient("key", "http://localhost:3000"))
	_, err := g.GenerateText(context.Background(), "промпт", "mistral", "some-model", "user-key")
	assert.Error(t, err)
}
