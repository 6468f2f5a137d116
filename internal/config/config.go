// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

// Package config loads and validates the application configuration from a
// file, environment variables (prefix VEILRAG_), and defaults, then maps
// it onto the typed configs of each subsystem.
package config

import (
	"errors"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/veilrag-dev/veilrag/internal/chunk"
	"github.com/veilrag-dev/veilrag/internal/pii"
	"github.com/veilrag-dev/veilrag/internal/provider"
	"github.com/veilrag-dev/veilrag/internal/secrets"
	"github.com/veilrag-dev/veilrag/internal/vectorstore"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	PII       PIIConfig       `mapstructure:"pii"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// LLMConfig selects the provider backend and its models.
type LLMConfig struct {
	Provider     string  `mapstructure:"provider"`
	APIKey       string  `mapstructure:"api_key"`
	BaseURL      string  `mapstructure:"base_url"`
	Model        string  `mapstructure:"model"`
	EmbedModel   string  `mapstructure:"embed_model"`
	SystemPrompt string  `mapstructure:"system_prompt"`
	Temperature  float64 `mapstructure:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens"`
}

// RetrievalConfig controls chunking and the vector store.
type RetrievalConfig struct {
	ChunkSize    int          `mapstructure:"chunk_size"`
	ChunkOverlap int          `mapstructure:"chunk_overlap"`
	Dimension    int          `mapstructure:"dimension"`
	TopK         int          `mapstructure:"top_k"`
	Store        string       `mapstructure:"store"`
	Metric       string       `mapstructure:"metric"`
	DataDir      string       `mapstructure:"data_dir"`
	Milvus       MilvusConfig `mapstructure:"milvus"`
}

// MilvusConfig holds the managed store connection settings.
type MilvusConfig struct {
	Address    string `mapstructure:"address"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// PIIConfig controls the redaction engine.
type PIIConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	BlockTypes []string `mapstructure:"block_types"`
	MaskChar   string   `mapstructure:"mask_char"`
	LogBlocked bool     `mapstructure:"log_blocked"`
}

// LoggingConfig controls the slog setup.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from path (optional) with environment variable
// overrides, resolves keyring:// secrets, and validates the result.
func Load(path string, secretStore secrets.Store) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VEILRAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, veilerr.Wrapf(err, veilerr.CodeConfigLoadFailure, "reading config %s", path)
		}
	}

	if secretStore != nil {
		secrets.ResolveViperSecrets(v, secretStore)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, veilerr.Wrapf(err, veilerr.CodeConfigLoadFailure, "unmarshalling config")
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, veilerr.Wrapf(errors.Join(errs...), veilerr.CodeConfigValueInvalid, "validating config")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.model", "llama3.1")
	v.SetDefault("llm.embed_model", "nomic-embed-text")
	v.SetDefault("llm.system_prompt", "You are a helpful assistant. Answer using the provided context when it is relevant.")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 0)

	v.SetDefault("retrieval.chunk_size", 500)
	v.SetDefault("retrieval.chunk_overlap", 50)
	v.SetDefault("retrieval.dimension", 384)
	v.SetDefault("retrieval.top_k", 3)
	v.SetDefault("retrieval.store", "flat")
	v.SetDefault("retrieval.metric", "l2")
	v.SetDefault("retrieval.data_dir", "./data/index")
	v.SetDefault("retrieval.milvus.address", "localhost:19530")
	v.SetDefault("retrieval.milvus.collection", "veilrag")

	v.SetDefault("pii.enabled", true)
	v.SetDefault("pii.block_types", defaultBlockTypeNames())
	v.SetDefault("pii.mask_char", "X")
	v.SetDefault("pii.log_blocked", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func defaultBlockTypeNames() []string {
	blocked := pii.DefaultBlockTypes()
	types := make([]string, 0, len(blocked))
	for t := range blocked {
		types = append(types, string(t))
	}
	sort.Strings(types)
	return types
}

// Validate collects every logical error rather than stopping at the first.
func (c *Config) Validate() []error {
	var errs []error

	if _, err := provider.ParseKind(c.LLM.Provider); err != nil {
		errs = append(errs, err)
	}
	if c.LLM.Model == "" {
		errs = append(errs, veilerr.New(veilerr.CodeConfigValueInvalid, "config: llm.model must not be empty"))
	}

	if c.Retrieval.ChunkSize <= 0 {
		errs = append(errs, veilerr.Errorf(veilerr.CodeConfigValueInvalid,
			"config: retrieval.chunk_size must be positive, got %d", c.Retrieval.ChunkSize))
	}
	if c.Retrieval.ChunkOverlap < 0 || c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		errs = append(errs, veilerr.Errorf(veilerr.CodeConfigValueInvalid,
			"config: retrieval.chunk_overlap must be in [0, chunk_size), got %d", c.Retrieval.ChunkOverlap))
	}
	if c.Retrieval.Dimension <= 0 {
		errs = append(errs, veilerr.Errorf(veilerr.CodeConfigValueInvalid,
			"config: retrieval.dimension must be positive, got %d", c.Retrieval.Dimension))
	}
	if c.Retrieval.TopK <= 0 {
		errs = append(errs, veilerr.Errorf(veilerr.CodeConfigValueInvalid,
			"config: retrieval.top_k must be positive, got %d", c.Retrieval.TopK))
	}
	if _, err := vectorstore.ParseKind(c.Retrieval.Store); err != nil {
		errs = append(errs, err)
	}
	if _, err := vectorstore.ParseMetric(c.Retrieval.Metric); err != nil {
		errs = append(errs, err)
	}

	if len(c.PII.MaskChar) > 0 && len([]rune(c.PII.MaskChar)) != 1 {
		errs = append(errs, veilerr.Errorf(veilerr.CodeConfigValueInvalid,
			"config: pii.mask_char must be a single character, got %q", c.PII.MaskChar))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, veilerr.Errorf(veilerr.CodeConfigValueInvalid,
			"config: logging.level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, veilerr.Errorf(veilerr.CodeConfigValueInvalid,
			"config: logging.format must be one of [text, json], got %q", c.Logging.Format))
	}

	return errs
}

// ProviderConfig maps the LLM section onto the provider package config.
func (c *Config) ProviderConfig() provider.Config {
	return provider.Config{
		Kind:       provider.Kind(strings.ToLower(c.LLM.Provider)),
		APIKey:     c.LLM.APIKey,
		BaseURL:    c.LLM.BaseURL,
		Model:      c.LLM.Model,
		EmbedModel: c.LLM.EmbedModel,
		Dimension:  c.Retrieval.Dimension,
	}
}

// ChunkConfig maps the retrieval section onto the chunker config.
func (c *Config) ChunkConfig() chunk.Config {
	return chunk.Config{
		Size:    c.Retrieval.ChunkSize,
		Overlap: c.Retrieval.ChunkOverlap,
	}
}

// StoreConfig maps the retrieval section onto the vector store config.
func (c *Config) StoreConfig() vectorstore.Config {
	metric := vectorstore.Metric(strings.ToLower(c.Retrieval.Metric))
	return vectorstore.Config{
		Kind: vectorstore.Kind(strings.ToLower(c.Retrieval.Store)),
		Flat: vectorstore.FlatConfig{
			Dimension: c.Retrieval.Dimension,
			Metric:    metric,
			TopK:      c.Retrieval.TopK,
		},
		Milvus: vectorstore.MilvusConfig{
			Address:    c.Retrieval.Milvus.Address,
			Username:   c.Retrieval.Milvus.Username,
			Password:   c.Retrieval.Milvus.Password,
			Database:   c.Retrieval.Milvus.Database,
			Collection: c.Retrieval.Milvus.Collection,
			Dimension:  c.Retrieval.Dimension,
			Metric:     metric,
			TopK:       c.Retrieval.TopK,
		},
	}
}

// PIIEngineConfig maps the pii section onto the redaction engine config.
func (c *Config) PIIEngineConfig() pii.Config {
	cfg := pii.Config{
		Enabled:    c.PII.Enabled,
		BlockTypes: make(map[pii.EntityType]struct{}, len(c.PII.BlockTypes)),
		LogBlocked: c.PII.LogBlocked,
	}
	for _, name := range c.PII.BlockTypes {
		cfg.BlockTypes[pii.EntityType(strings.ToUpper(name))] = struct{}{}
	}
	if c.PII.MaskChar != "" {
		cfg.MaskRune = []rune(c.PII.MaskChar)[0]
	}
	return cfg
}
