// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

// Package milvus proxies the vector store contract onto a managed Milvus
// deployment. Document bodies travel as a JSON payload column next to the
// embedding, and a local cache keeps search usable when the remote ranked
// path degrades.
package milvus

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/veilrag-dev/veilrag/internal/rag"
	"github.com/veilrag-dev/veilrag/internal/vectorstore"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

const (
	fieldID        = "id"
	fieldEmbedding = "embedding"
	fieldPayload   = "payload"

	payloadMaxLength = 65535
	indexNlist       = 128

	// fallbackScore marks hits from the unranked degraded path, where no
	// real similarity is available.
	fallbackScore = 0.7
)

func init() {
	vectorstore.Register(vectorstore.KindMilvus, vectorstore.Factory{
		New: func(ctx context.Context, cfg vectorstore.Config) (vectorstore.Store, error) {
			return New(ctx, cfg.Milvus)
		},
		Load: func(ctx context.Context, cfg vectorstore.Config, dir string) (vectorstore.Store, error) {
			return Load(ctx, cfg.Milvus, dir)
		},
	})
}

// payload is the JSON body stored in the varchar column next to each vector.
type payload struct {
	DocID    string       `json:"doc_id"`
	Content  string       `json:"content"`
	Metadata rag.Metadata `json:"metadata,omitempty"`
}

// Store is the managed service proxy. Surrogate int64 keys are assigned
// locally starting at 1; the caller-visible string ids live in the payload
// and in the local mapping.
type Store struct {
	cfg vectorstore.MilvusConfig
	cli client.Client
	log *slog.Logger

	mu     sync.RWMutex
	cache  map[string]rag.Document
	ids    map[string]int64
	nextID int64
}

var _ vectorstore.Store = (*Store)(nil)

// New dials the service, makes sure the collection exists and is loaded,
// and returns an empty proxy.
func New(ctx context.Context, cfg vectorstore.MilvusConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cli, err := client.NewClient(ctx, client.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.Database,
	})
	if err != nil {
		return nil, veilerr.Wrap(err, veilerr.CodeStoreUpstreamFailure, "connect to milvus",
			veilerr.FieldCollection(cfg.Collection))
	}

	s := newWithClient(cfg, cli)
	if err := s.ensureCollection(ctx); err != nil {
		cli.Close()
		return nil, err
	}
	return s, nil
}

// NewWithClient wraps an already-dialed client. The collection is still
// created and loaded on demand. Used by tests and by callers that manage
// the connection themselves.
func NewWithClient(ctx context.Context, cfg vectorstore.MilvusConfig, cli client.Client) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := newWithClient(cfg, cli)
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newWithClient(cfg vectorstore.MilvusConfig, cli client.Client) *Store {
	return &Store{
		cfg:    cfg,
		cli:    cli,
		log:    slog.Default().With("component", "vectorstore.milvus", "collection", cfg.Collection),
		cache:  make(map[string]rag.Document),
		ids:    make(map[string]int64),
		nextID: 1,
	}
}

// ensureCollection is idempotent: it creates the collection and its index
// only when missing, then loads the collection for search.
func (s *Store) ensureCollection(ctx context.Context) error {
	exists, err := s.cli.HasCollection(ctx, s.cfg.Collection)
	if err != nil {
		return veilerr.Wrap(err, veilerr.CodeStoreCollectionFailure, "check collection",
			veilerr.FieldCollection(s.cfg.Collection))
	}

	if !exists {
		schema := entity.NewSchema().
			WithName(s.cfg.Collection).
			WithField(entity.NewField().
				WithName(fieldID).
				WithDataType(entity.FieldTypeInt64).
				WithIsPrimaryKey(true)).
			WithField(entity.NewField().
				WithName(fieldEmbedding).
				WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(s.cfg.Dimension))).
			WithField(entity.NewField().
				WithName(fieldPayload).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(payloadMaxLength))

		if err := s.cli.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return veilerr.Wrap(err, veilerr.CodeStoreCollectionFailure, "create collection",
				veilerr.FieldCollection(s.cfg.Collection))
		}

		idx, err := entity.NewIndexIvfFlat(s.metricType(), indexNlist)
		if err != nil {
			return veilerr.Wrap(err, veilerr.CodeStoreCollectionFailure, "build index spec",
				veilerr.FieldCollection(s.cfg.Collection))
		}
		if err := s.cli.CreateIndex(ctx, s.cfg.Collection, fieldEmbedding, idx, false); err != nil {
			return veilerr.Wrap(err, veilerr.CodeStoreCollectionFailure, "create index",
				veilerr.FieldCollection(s.cfg.Collection))
		}
	}

	if err := s.cli.LoadCollection(ctx, s.cfg.Collection, false); err != nil {
		return veilerr.Wrap(err, veilerr.CodeStoreCollectionFailure, "load collection",
			veilerr.FieldCollection(s.cfg.Collection))
	}
	return nil
}

func (s *Store) metricType() entity.MetricType {
	if s.cfg.Metric == vectorstore.MetricCosine {
		return entity.IP
	}
	return entity.L2
}

// AddDocuments validates the whole batch, inserts it remotely, and only
// then commits the local cache and id mapping. A remote failure propagates
// and leaves local state untouched.
func (s *Store) AddDocuments(ctx context.Context, docs []rag.Document) error {
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
		if _, dup := s.ids[doc.ID]; dup {
			return veilerr.New(veilerr.CodeStoreDocumentInvalid, "document id already stored",
				veilerr.FieldDocumentID(doc.ID))
		}
		if doc.Embedding == nil {
			return veilerr.New(veilerr.CodeStoreDocumentInvalid, "document has no embedding",
				veilerr.FieldDocumentID(doc.ID))
		}
		if len(doc.Embedding) != s.cfg.Dimension {
			return veilerr.Errorf(veilerr.CodeStoreDimensionMismatch,
				"document %q embedding has dimension %d, collection expects %d",
				doc.ID, len(doc.Embedding), s.cfg.Dimension)
		}
		seen[doc.ID] = struct{}{}
	}

	surrogates := make([]int64, len(docs))
	vectors := make([][]float32, len(docs))
	payloads := make([]string, len(docs))
	for i, doc := range docs {
		surrogates[i] = s.nextID + int64(i)

		vec := make([]float32, len(doc.Embedding))
		copy(vec, doc.Embedding)
		if s.cfg.Metric == vectorstore.MetricCosine {
			normalize(vec)
		}
		vectors[i] = vec

		raw, err := json.Marshal(payload{DocID: doc.ID, Content: doc.Content, Metadata: doc.Metadata})
		if err != nil {
			return veilerr.Wrap(err, veilerr.CodeStoreDocumentInvalid, "encode document payload",
				veilerr.FieldDocumentID(doc.ID))
		}
		payloads[i] = string(raw)
	}

	_, err := s.cli.Insert(ctx, s.cfg.Collection, "",
		entity.NewColumnInt64(fieldID, surrogates),
		entity.NewColumnFloatVector(fieldEmbedding, s.cfg.Dimension, vectors),
		entity.NewColumnVarChar(fieldPayload, payloads),
	)
	if err != nil {
		return veilerr.Wrap(err, veilerr.CodeStoreUpstreamFailure, "insert batch",
			veilerr.FieldCollection(s.cfg.Collection))
	}

	for i, doc := range docs {
		stored := doc.Clone()
		stored.Embedding = nil
		s.cache[doc.ID] = stored
		s.ids[doc.ID] = surrogates[i]
	}
	s.nextID += int64(len(docs))
	return nil
}

// Search runs a ranked vector search. When the ranked path fails or comes
// back empty the proxy degrades rather than erroring: first an unranked
// listing of the collection with a flat placeholder score, then an empty
// result.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]vectorstore.Result, error) {
	if query == nil {
		return nil, veilerr.New(veilerr.CodeStoreDocumentInvalid, "search query embedding must not be nil")
	}
	if len(query) != s.cfg.Dimension {
		return nil, veilerr.Errorf(veilerr.CodeStoreDimensionMismatch,
			"query embedding has dimension %d, collection expects %d", len(query), s.cfg.Dimension)
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

	results, err := s.rankedSearch(ctx, q, k)
	if err == nil && len(results) > 0 {
		return results, nil
	}
	if err != nil {
		s.log.Warn("ranked search failed, falling back to unranked listing", "error", err)
	} else {
		s.log.Warn("ranked search returned no hits, falling back to unranked listing")
	}

	results, err = s.unrankedFallback(ctx, k)
	if err == nil {
		return results, nil
	}
	s.log.Warn("unranked fallback failed, returning empty result", "error", err)

	return []vectorstore.Result{}, nil
}

func (s *Store) rankedSearch(ctx context.Context, query []float32, k int) ([]vectorstore.Result, error) {
	sp, err := entity.NewIndexIvfFlatSearchParam(10)
	if err != nil {
		return nil, veilerr.Wrap(err, veilerr.CodeStoreUpstreamFailure, "build search params")
	}

	raw, err := s.cli.Search(ctx, s.cfg.Collection, nil, "",
		[]string{fieldID, fieldPayload},
		[]entity.Vector{entity.FloatVector(query)},
		fieldEmbedding, s.metricType(), k, sp,
	)
	if err != nil {
		return nil, veilerr.Wrap(err, veilerr.CodeStoreUpstreamFailure, "ranked search",
			veilerr.FieldCollection(s.cfg.Collection))
	}

	results := make([]vectorstore.Result, 0, k)
	for _, res := range raw {
		payloadCol, _ := findColumn(res.Fields, fieldPayload).(*entity.ColumnVarChar)
		if payloadCol == nil {
			return nil, veilerr.New(veilerr.CodeStoreUpstreamFailure, "search result missing payload column",
				veilerr.FieldCollection(s.cfg.Collection))
		}
		data := payloadCol.Data()
		for i := 0; i < res.ResultCount && i < len(data); i++ {
			doc, ok := s.decodePayload(data[i])
			if !ok {
				continue
			}
			score := s.scoreFromDistance(res.Scores[i])
			results = append(results, vectorstore.Result{
				Document: doc.WithScore(score),
				Score:    score,
			})
		}
	}
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// unrankedFallback lists up to k stored payloads with no similarity
// ordering. Every hit carries the flat placeholder score.
func (s *Store) unrankedFallback(ctx context.Context, k int) ([]vectorstore.Result, error) {
	rs, err := s.cli.Query(ctx, s.cfg.Collection, nil, "id >= 0",
		[]string{fieldID, fieldPayload}, client.WithLimit(int64(k)))
	if err != nil {
		return nil, veilerr.Wrap(err, veilerr.CodeStoreUpstreamFailure, "unranked listing",
			veilerr.FieldCollection(s.cfg.Collection))
	}

	payloadCol, _ := findColumn(rs, fieldPayload).(*entity.ColumnVarChar)
	if payloadCol == nil {
		return []vectorstore.Result{}, nil
	}

	results := make([]vectorstore.Result, 0, k)
	for _, raw := range payloadCol.Data() {
		if len(results) == k {
			break
		}
		doc, ok := s.decodePayload(raw)
		if !ok {
			continue
		}
		results = append(results, vectorstore.Result{
			Document: doc.WithScore(fallbackScore),
			Score:    fallbackScore,
		})
	}
	return results, nil
}

// decodePayload turns a payload column value back into a document,
// preferring the locally cached body when one exists.
func (s *Store) decodePayload(raw string) (rag.Document, bool) {
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.log.Warn("dropping result with malformed payload", "error", err)
		return rag.Document{}, false
	}

	s.mu.RLock()
	cached, ok := s.cache[p.DocID]
	s.mu.RUnlock()
	if ok {
		return cached.Clone(), true
	}

	return rag.Document{ID: p.DocID, Content: p.Content, Metadata: p.Metadata}, true
}

// scoreFromDistance maps the service's raw score for the active metric to
// the shared (0, 1] similarity scale.
func (s *Store) scoreFromDistance(raw float32) float64 {
	if s.cfg.Metric == vectorstore.MetricCosine {
		// Inner product of unit vectors is the cosine.
		d := 1 - float64(raw)
		return 1 - d/2
	}
	return 1 / (1 + float64(raw))
}

// Len returns the number of locally tracked documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *Store) Close() error {
	return s.cli.Close()
}

func findColumn(cols []entity.Column, name string) entity.Column {
	for _, col := range cols {
		if col.Name() == name {
			return col
		}
	}
	return nil
}

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
