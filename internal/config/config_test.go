// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilrag-dev/veilrag/internal/config"
	"github.com/veilrag-dev/veilrag/internal/pii"
	"github.com/veilrag-dev/veilrag/internal/provider"
	"github.com/veilrag-dev/veilrag/internal/vectorstore"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 500, cfg.Retrieval.ChunkSize)
	assert.Equal(t, 50, cfg.Retrieval.ChunkOverlap)
	assert.Equal(t, 384, cfg.Retrieval.Dimension)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, "flat", cfg.Retrieval.Store)
	assert.True(t, cfg.PII.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "veilrag.yaml")
	yaml := `
llm:
  provider: openai
  model: gpt-4.1-mini
  embed_model: text-embedding-3-small
retrieval:
  chunk_size: 200
  chunk_overlap: 20
  store: milvus
  metric: cosine
  milvus:
    address: milvus.internal:19530
    collection: handbook
pii:
  block_types: [EMAIL, SSN]
  mask_char: "*"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 200, cfg.Retrieval.ChunkSize)
	assert.Equal(t, "milvus", cfg.Retrieval.Store)
	assert.Equal(t, 384, cfg.Retrieval.Dimension, "defaults fill unset keys")

	pcfg := cfg.ProviderConfig()
	assert.Equal(t, provider.KindOpenAI, pcfg.Kind)
	assert.Equal(t, "text-embedding-3-small", pcfg.EmbedModel)

	scfg := cfg.StoreConfig()
	assert.Equal(t, vectorstore.KindMilvus, scfg.Kind)
	assert.Equal(t, vectorstore.MetricCosine, scfg.Milvus.Metric)
	assert.Equal(t, "handbook", scfg.Milvus.Collection)
	assert.Equal(t, 384, scfg.Milvus.Dimension)

	ecfg := cfg.PIIEngineConfig()
	assert.Equal(t, '*', ecfg.MaskRune)
	assert.Contains(t, ecfg.BlockTypes, pii.TypeEmail)
	assert.Contains(t, ecfg.BlockTypes, pii.TypeSSN)
	assert.NotContains(t, ecfg.BlockTypes, pii.TypePhone)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VEILRAG_RETRIEVAL_TOP_K", "7")
	t.Setenv("VEILRAG_LLM_PROVIDER", "anthropic")

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Retrieval.TopK)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "veilrag.yaml")
	yaml := `
llm:
  provider: watson
retrieval:
  chunk_size: -1
  top_k: 0
  store: pinecone
logging:
  level: loud
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := config.Load(path, nil)
	require.Error(t, err)
	assert.True(t, veilerr.IsValidation(err))
	for _, want := range []string{"watson", "chunk_size", "top_k", "pinecone", "loud"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
	assert.True(t, veilerr.HasCode(err, veilerr.CodeConfigLoadFailure))
}
