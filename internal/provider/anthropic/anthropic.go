// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

// Package anthropic implements answer generation over the Anthropic
// Messages API. Anthropic has no embeddings endpoint, so Embed always
// fails with a validation error pointing at a dedicated embedding backend.
package anthropic

import (
	"context"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/veilrag-dev/veilrag/internal/provider"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

const defaultMaxTokens = 4096

// Client implements provider.Client using the Anthropic Messages API.
type Client struct {
	client anthropicsdk.Client
	config provider.Config
}

var _ provider.Client = (*Client)(nil)

// New creates an Anthropic client. Returns an error if the API key is missing.
func New(cfg provider.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		return nil, veilerr.New(veilerr.CodeProviderConfigInvalid, "anthropic: missing api_key in config",
			veilerr.FieldProvider("anthropic"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{client: anthropicsdk.NewClient(opts...), config: cfg}, nil
}

func (c *Client) Name() string { return "anthropic" }

// Embed is unsupported: the Messages API offers no embeddings endpoint.
func (c *Client) Embed(_ context.Context, _ []string) ([][]float32, error) {
	return nil, veilerr.New(veilerr.CodeProviderConfigInvalid,
		"anthropic: no embeddings endpoint; configure a dedicated embedding provider",
		veilerr.FieldProvider("anthropic"))
}

// Generate runs a non-streaming message request and concatenates the text
// blocks of the response.
func (c *Client) Generate(ctx context.Context, req provider.GenerateRequest) (string, error) {
	msgs := make([]anthropicsdk.MessageParam, 0, len(req.History)+1)
	for _, turn := range req.History {
		switch turn.Role {
		case provider.RoleAssistant:
			msgs = append(msgs, anthropicsdk.NewAssistantMessage(
				anthropicsdk.NewTextBlock(turn.Content),
			))
		default:
			msgs = append(msgs, anthropicsdk.NewUserMessage(
				anthropicsdk.NewTextBlock(turn.Content),
			))
		}
	}
	msgs = append(msgs, anthropicsdk.NewUserMessage(
		anthropicsdk.NewTextBlock(req.Prompt),
	))

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(c.config.Model),
		Messages:  msgs,
		MaxTokens: maxTokens,
	}
	if req.System != "" {
		params.System = []anthropicsdk.TextBlockParam{
			{Text: req.System},
		}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropicsdk.Float(req.Temperature)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", veilerr.Wrap(err, veilerr.CodeProviderGenerateFailure, "anthropic: message request",
			veilerr.FieldProvider("anthropic"))
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", veilerr.New(veilerr.CodeProviderResponseInvalid, "anthropic: response carried no text blocks",
			veilerr.FieldProvider("anthropic"))
	}
	return sb.String(), nil
}

func (c *Client) Close() error { return nil }
