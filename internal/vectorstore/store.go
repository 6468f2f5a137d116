// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

// Package vectorstore defines the storage contract for embedded chunks and
// nearest-neighbor search. Two backends implement it: an embedded exact
// in-memory index (flat) and a proxy over a managed Milvus service (milvus).
package vectorstore

import (
	"context"

	"github.com/veilrag-dev/veilrag/internal/rag"
)

// Result is one ranked search hit.
type Result struct {
	Document rag.Document
	Score    float64
}

// Store holds embedded documents and serves nearest-neighbor search.
// AddDocuments must be serialized against concurrent AddDocuments and
// Search calls; Search calls may run in parallel with each other.
type Store interface {
	// AddDocuments inserts a batch. Every document must carry an embedding
	// of the configured dimension; on a validation failure no document from
	// the batch is inserted.
	AddDocuments(ctx context.Context, docs []rag.Document) error

	// Search returns up to k hits ranked best-score-first. k <= 0 uses the
	// configured top-k. An empty store returns an empty result, not an error.
	Search(ctx context.Context, query []float32, k int) ([]Result, error)

	// Save persists the store's local state to a directory.
	Save(dir string) error

	Close() error
}
