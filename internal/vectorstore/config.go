// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package vectorstore

import (
	"strings"

	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// Kind selects the store backend. The set is closed; unknown tags are
// rejected at configuration time, not discovered at first use.
type Kind string

const (
	KindFlat   Kind = "flat"
	KindMilvus Kind = "milvus"
)

// ParseKind validates a backend tag.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindFlat:
		return KindFlat, nil
	case KindMilvus:
		return KindMilvus, nil
	default:
		return "", veilerr.Errorf(veilerr.CodeStoreKindUnsupported, "unsupported vector store kind: %q", s)
	}
}

// Metric is the distance metric for nearest-neighbor search.
type Metric string

const (
	MetricL2     Metric = "l2"
	MetricCosine Metric = "cosine"
)

// ParseMetric validates a metric tag.
func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(s)) {
	case MetricL2:
		return MetricL2, nil
	case MetricCosine:
		return MetricCosine, nil
	default:
		return "", veilerr.Errorf(veilerr.CodeStoreMetricUnsupported, "unsupported metric: %q", s)
	}
}

// FlatConfig configures the embedded exact index.
type FlatConfig struct {
	Dimension int    `json:"dimension"`
	Metric    Metric `json:"metric"`
	TopK      int    `json:"top_k"`
}

// Validate checks the embedded index configuration.
func (c FlatConfig) Validate() error {
	if c.Dimension <= 0 {
		return veilerr.Errorf(veilerr.CodeConfigValueInvalid, "flat store dimension must be positive, got %d", c.Dimension)
	}
	if c.TopK <= 0 {
		return veilerr.Errorf(veilerr.CodeConfigValueInvalid, "flat store top_k must be positive, got %d", c.TopK)
	}
	if _, err := ParseMetric(string(c.Metric)); err != nil {
		return err
	}
	return nil
}

// MilvusConfig configures the managed service proxy. Username and Password
// are never written to disk by Save.
type MilvusConfig struct {
	Address    string `json:"address"`
	Username   string `json:"-"`
	Password   string `json:"-"`
	Database   string `json:"database"`
	Collection string `json:"collection"`
	Dimension  int    `json:"dimension"`
	Metric     Metric `json:"metric"`
	TopK       int    `json:"top_k"`
}

// Validate checks the managed proxy configuration.
func (c MilvusConfig) Validate() error {
	if c.Address == "" {
		return veilerr.New(veilerr.CodeConfigValueInvalid, "milvus address must not be empty")
	}
	if c.Collection == "" {
		return veilerr.New(veilerr.CodeConfigValueInvalid, "milvus collection must not be empty")
	}
	if c.Dimension <= 0 {
		return veilerr.Errorf(veilerr.CodeConfigValueInvalid, "milvus dimension must be positive, got %d", c.Dimension)
	}
	if c.TopK <= 0 {
		return veilerr.Errorf(veilerr.CodeConfigValueInvalid, "milvus top_k must be positive, got %d", c.TopK)
	}
	if _, err := ParseMetric(string(c.Metric)); err != nil {
		return err
	}
	return nil
}

// Config is the tagged store configuration: Kind selects which variant
// config applies.
type Config struct {
	Kind   Kind
	Flat   FlatConfig
	Milvus MilvusConfig
}

// Validate checks the selected variant.
func (c Config) Validate() error {
	switch c.Kind {
	case KindFlat:
		return c.Flat.Validate()
	case KindMilvus:
		return c.Milvus.Validate()
	default:
		return veilerr.Errorf(veilerr.CodeStoreKindUnsupported, "unsupported vector store kind: %q", c.Kind)
	}
}
