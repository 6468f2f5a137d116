// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

// Package flat implements the embedded exact vector index. Every search
// scores every stored vector; there is no approximation and no external
// service. Suited to corpora that fit comfortably in memory.
package flat

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/veilrag-dev/veilrag/internal/rag"
	"github.com/veilrag-dev/veilrag/internal/vectorstore"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

func init() {
	vectorstore.Register(vectorstore.KindFlat, vectorstore.Factory{
		New: func(_ context.Context, cfg vectorstore.Config) (vectorstore.Store, error) {
			return New(cfg.Flat)
		},
		Load: func(_ context.Context, cfg vectorstore.Config, dir string) (vectorstore.Store, error) {
			return Load(cfg.Flat, dir)
		},
	})
}

// Store is the embedded exact index. A single writer is serialized against
// concurrent readers; Search calls run in parallel with each other.
type Store struct {
	cfg vectorstore.FlatConfig

	mu      sync.RWMutex
	vectors [][]float32
	order   []string
	docs    map[string]rag.Document
}

var _ vectorstore.Store = (*Store)(nil)

// New creates an empty index.
func New(cfg vectorstore.FlatConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		cfg:  cfg,
		docs: make(map[string]rag.Document),
	}, nil
}

// AddDocuments inserts a batch. The whole batch is validated before any
// document is inserted, so a failure leaves the index unchanged.
func (s *Store) AddDocuments(_ context.Context, docs []rag.Document) error {
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			return veilerr.New(veilerr.CodeStoreDocumentInvalid, "document id must not be empty")
		}
		if _, dup := seen[doc.ID]; dup {
			return veilerr.New(veilerr.CodeStoreDocumentInvalid, "duplicate document id in batch",
				veilerr.FieldDocumentID(doc.ID))
		}
		if _, dup := s.docs[doc.ID]; dup {
			return veilerr.New(veilerr.CodeStoreDocumentInvalid, "document id already stored",
				veilerr.FieldDocumentID(doc.ID))
		}
		if doc.Embedding == nil {
			return veilerr.New(veilerr.CodeStoreDocumentInvalid, "document has no embedding",
				veilerr.FieldDocumentID(doc.ID))
		}
		if len(doc.Embedding) != s.cfg.Dimension {
			return veilerr.Errorf(veilerr.CodeStoreDimensionMismatch,
				"document %q embedding has dimension %d, index expects %d",
				doc.ID, len(doc.Embedding), s.cfg.Dimension)
		}
		seen[doc.ID] = struct{}{}
	}

	for _, doc := range docs {
		vec := make([]float32, len(doc.Embedding))
		copy(vec, doc.Embedding)
		if s.cfg.Metric == vectorstore.MetricCosine {
			normalize(vec)
		}

		stored := doc.Clone()
		stored.Embedding = nil

		s.vectors = append(s.vectors, vec)
		s.order = append(s.order, doc.ID)
		s.docs[doc.ID] = stored
	}
	return nil
}

// Search scores every stored vector against the query and returns the top
// k hits, best score first.
func (s *Store) Search(_ context.Context, query []float32, k int) ([]vectorstore.Result, error) {
	if query == nil {
		return nil, veilerr.New(veilerr.CodeStoreDocumentInvalid, "search query embedding must not be nil")
	}
	if len(query) != s.cfg.Dimension {
		return nil, veilerr.Errorf(veilerr.CodeStoreDimensionMismatch,
			"query embedding has dimension %d, index expects %d", len(query), s.cfg.Dimension)
	}
	if k <= 0 {
		k = s.cfg.TopK
	}

	q := query
	if s.cfg.Metric == vectorstore.MetricCosine {
		q = make([]float32, len(query))
		copy(q, query)
		normalize(q)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return []vectorstore.Result{}, nil
	}

	results := make([]vectorstore.Result, 0, len(s.order))
	for i, id := range s.order {
		score := s.score(q, s.vectors[i])
		// Clone so a caller mutating a hit cannot reach the index's
		// canonical copy.
		results = append(results, vectorstore.Result{
			Document: s.docs[id].Clone().WithScore(score),
			Score:    score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) Close() error {
	return nil
}

// score maps a distance to a similarity in (0, 1], larger meaning closer.
func (s *Store) score(query, vec []float32) float64 {
	switch s.cfg.Metric {
	case vectorstore.MetricCosine:
		// Both sides are unit-length, so the dot product is the cosine.
		d := 1 - dot(query, vec)
		return 1 - d/2
	default:
		return 1 / (1 + sqDistance(query, vec))
	}
}

func sqDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// normalize scales vec to unit length in place. The zero vector is left
// untouched.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * inv)
	}
}
