// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

// Package openai implements the provider contract over the OpenAI API:
// the embeddings endpoint for vectors and chat completions for answers.
package openai

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/veilrag-dev/veilrag/internal/provider"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// maxEmbedBatch is the largest input batch sent in one embeddings call.
const maxEmbedBatch = 100

// Client implements provider.Client using the OpenAI API.
type Client struct {
	client openaisdk.Client
	config provider.Config
}

var _ provider.Client = (*Client)(nil)

// New creates an OpenAI client. Returns an error if the API key is missing.
func New(cfg provider.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		return nil, veilerr.New(veilerr.CodeProviderConfigInvalid, "openai: missing api_key in config",
			veilerr.FieldProvider("openai"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{client: openaisdk.NewClient(opts...), config: cfg}, nil
}

func (c *Client) Name() string { return "openai" }

// Embed vectorizes texts with the configured embedding model, one vector
// per input in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.config.EmbedModel == "" {
		return nil, veilerr.New(veilerr.CodeProviderConfigInvalid, "openai: missing embed_model in config",
			veilerr.FieldProvider("openai"))
	}
	if len(texts) == 0 {
		return nil, veilerr.New(veilerr.CodeProviderConfigInvalid, "openai: no texts to embed",
			veilerr.FieldProvider("openai"))
	}
	if len(texts) > maxEmbedBatch {
		return nil, veilerr.Errorf(veilerr.CodeProviderConfigInvalid,
			"openai: embed batch of %d exceeds maximum of %d", len(texts), maxEmbedBatch)
	}

	params := openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(c.config.EmbedModel),
	}
	if len(texts) == 1 {
		params.Input = openaisdk.EmbeddingNewParamsInputUnion{
			OfString: openaisdk.String(texts[0]),
		}
	} else {
		params.Input = openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		}
	}
	if c.config.Dimension > 0 {
		params.Dimensions = openaisdk.Int(int64(c.config.Dimension))
	}

	resp, err := c.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, veilerr.Wrap(err, veilerr.CodeProviderEmbedFailure, "openai: embeddings call",
			veilerr.FieldProvider("openai"))
	}
	if len(resp.Data) != len(texts) {
		return nil, veilerr.Errorf(veilerr.CodeProviderResponseInvalid,
			"openai: expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	embeddings := make([][]float32, len(resp.Data))
	for _, data := range resp.Data {
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		embeddings[data.Index] = vec
	}
	return embeddings, nil
}

// Generate runs a non-streaming chat completion.
func (c *Client) Generate(ctx context.Context, req provider.GenerateRequest) (string, error) {
	msgs := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.System != "" {
		msgs = append(msgs, openaisdk.SystemMessage(req.System))
	}
	for _, turn := range req.History {
		switch turn.Role {
		case provider.RoleAssistant:
			msgs = append(msgs, openaisdk.AssistantMessage(turn.Content))
		default:
			msgs = append(msgs, openaisdk.UserMessage(turn.Content))
		}
	}
	msgs = append(msgs, openaisdk.UserMessage(req.Prompt))

	params := openaisdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.config.Model),
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", veilerr.Wrap(err, veilerr.CodeProviderGenerateFailure, "openai: chat completion",
			veilerr.FieldProvider("openai"))
	}
	if len(resp.Choices) == 0 {
		return "", veilerr.New(veilerr.CodeProviderResponseInvalid, "openai: completion returned no choices",
			veilerr.FieldProvider("openai"))
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) Close() error { return nil }
