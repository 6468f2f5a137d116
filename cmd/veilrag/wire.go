// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/veilrag-dev/veilrag/internal/config"
	"github.com/veilrag-dev/veilrag/internal/pii"
	"github.com/veilrag-dev/veilrag/internal/pipeline"
	"github.com/veilrag-dev/veilrag/internal/provider"
	anthropicprov "github.com/veilrag-dev/veilrag/internal/provider/anthropic"
	googleprov "github.com/veilrag-dev/veilrag/internal/provider/google"
	ollamaprov "github.com/veilrag-dev/veilrag/internal/provider/ollama"
	openaiprov "github.com/veilrag-dev/veilrag/internal/provider/openai"
	"github.com/veilrag-dev/veilrag/internal/vectorstore"
	_ "github.com/veilrag-dev/veilrag/internal/vectorstore/flat"   // register flat backend
	_ "github.com/veilrag-dev/veilrag/internal/vectorstore/milvus" // register milvus backend
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// buildClient constructs the provider backend named by the config.
func buildClient(ctx context.Context, cfg provider.Config) (provider.Client, error) {
	kind, err := provider.ParseKind(string(cfg.Kind))
	if err != nil {
		return nil, err
	}

	switch kind {
	case provider.KindOpenAI:
		return openaiprov.New(cfg)
	case provider.KindAnthropic:
		return anthropicprov.New(cfg)
	case provider.KindGoogle:
		return googleprov.New(ctx, cfg)
	case provider.KindOllama:
		return ollamaprov.New(cfg)
	}
	return nil, veilerr.Errorf(veilerr.CodeProviderKindUnsupported, "no constructor for provider kind %q", kind)
}

// openStore loads the persisted index from the data directory, falling
// back to a fresh store when nothing has been ingested yet.
func openStore(ctx context.Context, cfg *config.Config) (vectorstore.Store, error) {
	storeCfg := cfg.StoreConfig()

	st, err := vectorstore.Load(ctx, storeCfg, cfg.Retrieval.DataDir)
	if err == nil {
		return st, nil
	}
	if !veilerr.IsNotFound(err) {
		return nil, err
	}

	slog.Debug("no persisted index, starting empty", "data_dir", cfg.Retrieval.DataDir)
	return vectorstore.New(ctx, storeCfg)
}

// saveStore persists the index to the data directory, creating it first.
func saveStore(store vectorstore.Store, cfg *config.Config) error {
	if err := os.MkdirAll(cfg.Retrieval.DataDir, 0o755); err != nil {
		return veilerr.Wrapf(err, veilerr.CodeCLISetupFailure, "creating data directory %s", cfg.Retrieval.DataDir)
	}
	return store.Save(cfg.Retrieval.DataDir)
}

// buildPipeline assembles the query flow from the config. The redaction
// engine is always present; a disabled engine passes text through.
func buildPipeline(cfg *config.Config, client provider.Client, store vectorstore.Store) *pipeline.Pipeline {
	engine := pii.New(cfg.PIIEngineConfig())

	return pipeline.New(
		pipeline.SanitizeStage{},
		pipeline.RedactInputStage{Engine: engine},
		pipeline.RetrieveStage{Embedder: client, Store: store, TopK: cfg.Retrieval.TopK},
		pipeline.GenerateStage{
			Generator:   client,
			System:      cfg.LLM.SystemPrompt,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
		pipeline.RedactOutputStage{Engine: engine},
	)
}
