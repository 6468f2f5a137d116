// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

// Package provider abstracts the LLM services the pipeline talks to. Each
// backend supplies text embedding and answer generation behind a common
// interface; per-SDK subpackages implement it.
package provider

import (
	"context"
	"strings"

	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// Role labels a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior exchange carried as conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest carries everything a backend needs to produce an answer.
type GenerateRequest struct {
	// System is the instruction block, sent via the backend's native system
	// channel rather than inline in the conversation.
	System string
	// Prompt is the final user message.
	Prompt string
	// History holds prior turns, oldest first.
	History []Turn
	// Temperature is applied when positive; zero means backend default.
	Temperature float64
	// MaxTokens caps the response when positive.
	MaxTokens int
}

// Embedder turns texts into vectors. Implementations return one vector per
// input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces an answer for a prompt.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Client is a full LLM backend.
type Client interface {
	Embedder
	Generator
	Name() string
	Close() error
}

// Kind selects the backend implementation. The set is closed.
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
	KindGoogle    Kind = "google"
	KindOllama    Kind = "ollama"
)

// ParseKind validates a backend tag.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindOpenAI:
		return KindOpenAI, nil
	case KindAnthropic:
		return KindAnthropic, nil
	case KindGoogle:
		return KindGoogle, nil
	case KindOllama:
		return KindOllama, nil
	default:
		return "", veilerr.Errorf(veilerr.CodeProviderKindUnsupported, "unsupported provider kind: %q", s)
	}
}

// Config holds backend connection settings. APIKey usually arrives via the
// secrets layer; BaseURL is optional and mostly useful for pointing tests
// at a mock server.
type Config struct {
	Kind       Kind
	APIKey     string
	BaseURL    string
	Model      string
	EmbedModel string
	// Dimension requests a specific embedding width from backends that
	// support it. Zero means model default.
	Dimension int
}

// Validate checks the settings common to all backends. Key requirements
// differ per backend and are checked by each constructor.
func (c Config) Validate() error {
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return err
	}
	if c.Model == "" {
		return veilerr.New(veilerr.CodeProviderConfigInvalid, "provider model must not be empty",
			veilerr.FieldProvider(string(c.Kind)))
	}
	return nil
}
