// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

// Package ollama implements the provider contract against a local Ollama
// server. No API key is required; the base URL defaults to the standard
// local port.
package ollama

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/veilrag-dev/veilrag/internal/provider"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

const (
	defaultBaseURL = "http://localhost:11434"
	requestTimeout = 120 * time.Second
)

// Client implements provider.Client against an Ollama server.
type Client struct {
	client *api.Client
	config provider.Config
}

var _ provider.Client = (*Client)(nil)

// New creates an Ollama client.
func New(cfg provider.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, veilerr.Wrap(err, veilerr.CodeProviderConfigInvalid, "ollama: invalid base URL",
			veilerr.FieldProvider("ollama"))
	}

	hc := &http.Client{Timeout: requestTimeout}
	return &Client{client: api.NewClient(parsed, hc), config: cfg}, nil
}

func (c *Client) Name() string { return "ollama" }

// Embed vectorizes texts with the configured embedding model.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.config.EmbedModel == "" {
		return nil, veilerr.New(veilerr.CodeProviderConfigInvalid, "ollama: missing embed_model in config",
			veilerr.FieldProvider("ollama"))
	}
	if len(texts) == 0 {
		return nil, veilerr.New(veilerr.CodeProviderConfigInvalid, "ollama: no texts to embed",
			veilerr.FieldProvider("ollama"))
	}

	resp, err := c.client.Embed(ctx, &api.EmbedRequest{
		Model: c.config.EmbedModel,
		Input: texts,
	})
	if err != nil {
		return nil, veilerr.Wrap(err, veilerr.CodeProviderEmbedFailure, "ollama: embed call",
			veilerr.FieldProvider("ollama"))
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, veilerr.Errorf(veilerr.CodeProviderResponseInvalid,
			"ollama: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}
	return resp.Embeddings, nil
}

// Generate runs a non-streaming chat call, carrying history and the system
// prompt as chat messages.
func (c *Client) Generate(ctx context.Context, req provider.GenerateRequest) (string, error) {
	msgs := make([]api.Message, 0, len(req.History)+2)
	if req.System != "" {
		msgs = append(msgs, api.Message{Role: "system", Content: req.System})
	}
	for _, turn := range req.History {
		role := "user"
		if turn.Role == provider.RoleAssistant {
			role = "assistant"
		}
		msgs = append(msgs, api.Message{Role: role, Content: turn.Content})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: req.Prompt})

	stream := false
	chatReq := &api.ChatRequest{
		Model:    c.config.Model,
		Messages: msgs,
		Stream:   &stream,
	}
	if req.Temperature > 0 {
		chatReq.Options = map[string]any{"temperature": req.Temperature}
	}

	var sb strings.Builder
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", veilerr.Wrap(err, veilerr.CodeProviderGenerateFailure, "ollama: chat call",
			veilerr.FieldProvider("ollama"))
	}
	if sb.Len() == 0 {
		return "", veilerr.New(veilerr.CodeProviderResponseInvalid, "ollama: response carried no text",
			veilerr.FieldProvider("ollama"))
	}
	return sb.String(), nil
}

func (c *Client) Close() error { return nil }
