// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

// Package google implements the provider contract over the Gemini API.
package google

import (
	"context"

	"google.golang.org/genai"

	"github.com/veilrag-dev/veilrag/internal/provider"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// Client implements provider.Client using the Google Gemini API.
type Client struct {
	client *genai.Client
	config provider.Config
}

var _ provider.Client = (*Client)(nil)

// New creates a Gemini client. Returns an error if the API key is missing.
func New(ctx context.Context, cfg provider.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		return nil, veilerr.New(veilerr.CodeProviderConfigInvalid, "google: missing api_key in config",
			veilerr.FieldProvider("google"))
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, veilerr.Wrap(err, veilerr.CodeProviderConfigInvalid, "google: creating client",
			veilerr.FieldProvider("google"))
	}

	return &Client{client: client, config: cfg}, nil
}

func (c *Client) Name() string { return "google" }

// Embed vectorizes texts with the configured embedding model.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.config.EmbedModel == "" {
		return nil, veilerr.New(veilerr.CodeProviderConfigInvalid, "google: missing embed_model in config",
			veilerr.FieldProvider("google"))
	}
	if len(texts) == 0 {
		return nil, veilerr.New(veilerr.CodeProviderConfigInvalid, "google: no texts to embed",
			veilerr.FieldProvider("google"))
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{
			Parts: []*genai.Part{{Text: text}},
		}
	}

	var cfg *genai.EmbedContentConfig
	if c.config.Dimension > 0 {
		dim := int32(c.config.Dimension)
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &dim}
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.config.EmbedModel, contents, cfg)
	if err != nil {
		return nil, veilerr.Wrap(err, veilerr.CodeProviderEmbedFailure, "google: embed content",
			veilerr.FieldProvider("google"))
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, veilerr.Errorf(veilerr.CodeProviderResponseInvalid,
			"google: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	embeddings := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		embeddings[i] = emb.Values
	}
	return embeddings, nil
}

// Generate runs a non-streaming content request.
func (c *Client) Generate(ctx context.Context, req provider.GenerateRequest) (string, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := "user"
		if turn.Role == provider.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: turn.Content}},
		})
	}
	contents = append(contents, &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.Prompt}},
	})

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.config.Model, contents, cfg)
	if err != nil {
		return "", veilerr.Wrap(err, veilerr.CodeProviderGenerateFailure, "google: generate content",
			veilerr.FieldProvider("google"))
	}

	text := resp.Text()
	if text == "" {
		return "", veilerr.New(veilerr.CodeProviderResponseInvalid, "google: response carried no text",
			veilerr.FieldProvider("google"))
	}
	return text, nil
}

func (c *Client) Close() error { return nil }
