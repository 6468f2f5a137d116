// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package vectorstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilrag-dev/veilrag/internal/vectorstore"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    vectorstore.Kind
		wantErr bool
	}{
		{in: "flat", want: vectorstore.KindFlat},
		{in: "milvus", want: vectorstore.KindMilvus},
		{in: "FLAT", want: vectorstore.KindFlat},
		{in: "pinecone", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := vectorstore.ParseKind(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, veilerr.HasCode(err, veilerr.CodeStoreKindUnsupported))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    vectorstore.Metric
		wantErr bool
	}{
		{in: "l2", want: vectorstore.MetricL2},
		{in: "cosine", want: vectorstore.MetricCosine},
		{in: "Cosine", want: vectorstore.MetricCosine},
		{in: "dot", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := vectorstore.ParseMetric(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, veilerr.HasCode(err, veilerr.CodeStoreMetricUnsupported))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := vectorstore.Config{
		Kind: vectorstore.KindFlat,
		Flat: vectorstore.FlatConfig{Dimension: 3, Metric: vectorstore.MetricL2, TopK: 3},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		cfg  vectorstore.Config
	}{
		{
			name: "unknown kind",
			cfg:  vectorstore.Config{Kind: "qdrant"},
		},
		{
			name: "flat zero dimension",
			cfg: vectorstore.Config{
				Kind: vectorstore.KindFlat,
				Flat: vectorstore.FlatConfig{Metric: vectorstore.MetricL2, TopK: 3},
			},
		},
		{
			name: "flat bad metric",
			cfg: vectorstore.Config{
				Kind: vectorstore.KindFlat,
				Flat: vectorstore.FlatConfig{Dimension: 3, Metric: "dot", TopK: 3},
			},
		},
		{
			name: "milvus missing address",
			cfg: vectorstore.Config{
				Kind: vectorstore.KindMilvus,
				Milvus: vectorstore.MilvusConfig{
					Collection: "docs", Dimension: 3,
					Metric: vectorstore.MetricL2, TopK: 3,
				},
			},
		},
		{
			name: "milvus missing collection",
			cfg: vectorstore.Config{
				Kind: vectorstore.KindMilvus,
				Milvus: vectorstore.MilvusConfig{
					Address: "localhost:19530", Dimension: 3,
					Metric: vectorstore.MetricL2, TopK: 3,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestNewUnknownKind(t *testing.T) {
	_, err := vectorstore.New(context.Background(), vectorstore.Config{Kind: "qdrant"})
	require.Error(t, err)
	assert.True(t, veilerr.HasCode(err, veilerr.CodeStoreKindUnsupported))
}
