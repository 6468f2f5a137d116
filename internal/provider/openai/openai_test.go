// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilrag-dev/veilrag/internal/provider"
	"github.com/veilrag-dev/veilrag/internal/provider/openai"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

var _ provider.Client = (*openai.Client)(nil)

func testConfig(baseURL string) provider.Config {
	return provider.Config{
		Kind:       provider.KindOpenAI,
		APIKey:     "test-key",
		BaseURL:    baseURL,
		Model:      "gpt-4.1-mini",
		EmbedModel: "text-embedding-3-small",
	}
}

func TestMissingAPIKey(t *testing.T) {
	cfg := testConfig("")
	cfg.APIKey = ""
	_, err := openai.New(cfg)
	require.Error(t, err)
	assert.True(t, veilerr.HasCode(err, veilerr.CodeProviderConfigInvalid))
	assert.Contains(t, err.Error(), "api_key")
}

func TestEmbed(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"), "unexpected path %s", r.URL.Path)

		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel = body.Model
		require.Len(t, body.Input, 2)

		// Deliberately out of order: the client must honor the index field.
		resp := map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float64{0, 1}},
				{"object": "embedding", "index": 0, "embedding": []float64{1, 0}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	client, err := openai.New(testConfig(srv.URL))
	require.NoError(t, err)

	vecs, err := client.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 0}, vecs[0])
	assert.Equal(t, []float32{0, 1}, vecs[1])
	assert.Equal(t, "text-embedding-3-small", gotModel)
}

func TestEmbedValidation(t *testing.T) {
	client, err := openai.New(testConfig(""))
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, veilerr.IsValidation(err))

	big := make([]string, 101)
	for i := range big {
		big[i] = "x"
	}
	_, err = client.Embed(context.Background(), big)
	require.Error(t, err)
	assert.True(t, veilerr.IsValidation(err))
}

func TestEmbedUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := openai.New(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.True(t, veilerr.IsUpstream(err))
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), "unexpected path %s", r.URL.Path)

		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 4)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "user", body.Messages[1].Role)
		assert.Equal(t, "assistant", body.Messages[2].Role)
		assert.Equal(t, "what about maps?", body.Messages[3].Content)

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "use sync.Map sparingly"}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	client, err := openai.New(testConfig(srv.URL))
	require.NoError(t, err)

	answer, err := client.Generate(context.Background(), provider.GenerateRequest{
		System: "You answer Go questions.",
		Prompt: "what about maps?",
		History: []provider.Turn{
			{Role: provider.RoleUser, Content: "tell me about slices"},
			{Role: provider.RoleAssistant, Content: "slices are views over arrays"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "use sync.Map sparingly", answer)
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client, err := openai.New(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), provider.GenerateRequest{Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, veilerr.HasCode(err, veilerr.CodeProviderResponseInvalid))
}
