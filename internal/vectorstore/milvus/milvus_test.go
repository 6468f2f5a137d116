// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package milvus_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilrag-dev/veilrag/internal/rag"
	"github.com/veilrag-dev/veilrag/internal/vectorstore"
	"github.com/veilrag-dev/veilrag/internal/vectorstore/milvus"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// fakeClient stubs the handful of client methods the proxy touches. The
// embedded interface covers the rest; calling anything else panics, which
// is exactly what a test wants.
type fakeClient struct {
	client.Client

	insertErr error
	searchErr error
	queryErr  error

	inserted      [][]entity.Column
	searchResults []client.SearchResult
	queryResult   client.ResultSet
}

func (f *fakeClient) HasCollection(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func (f *fakeClient) LoadCollection(_ context.Context, _ string, _ bool, _ ...client.LoadCollectionOption) error {
	return nil
}

func (f *fakeClient) Insert(_ context.Context, _ string, _ string, columns ...entity.Column) (entity.Column, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, columns)
	return nil, nil
}

func (f *fakeClient) Search(_ context.Context, _ string, _ []string, _ string, _ []string,
	_ []entity.Vector, _ string, _ entity.MetricType, _ int, _ entity.SearchParam,
	_ ...client.SearchQueryOptionFunc,
) ([]client.SearchResult, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults, nil
}

func (f *fakeClient) Query(_ context.Context, _ string, _ []string, _ string, _ []string,
	_ ...client.SearchQueryOptionFunc,
) (client.ResultSet, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryResult, nil
}

func (f *fakeClient) Close() error { return nil }

func testConfig() vectorstore.MilvusConfig {
	return vectorstore.MilvusConfig{
		Address:    "localhost:19530",
		Collection: "veilrag_test",
		Dimension:  4,
		Metric:     vectorstore.MetricL2,
		TopK:       3,
	}
}

func testDocs() []rag.Document {
	return []rag.Document{
		{ID: "a", Content: "alpha", Embedding: []float32{1, 0, 0, 0}},
		{ID: "b", Content: "bravo", Embedding: []float32{0, 1, 0, 0}, Metadata: rag.Metadata{rag.MetaSource: "b.txt"}},
	}
}

func payloadJSON(t *testing.T, id, content string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"doc_id": id, "content": content})
	require.NoError(t, err)
	return string(raw)
}

func searchHit(t *testing.T, payloads []string, scores []float32) client.SearchResult {
	t.Helper()
	require.Len(t, scores, len(payloads))
	return client.SearchResult{
		ResultCount: len(payloads),
		Fields:      client.ResultSet{entity.NewColumnVarChar("payload", payloads)},
		Scores:      scores,
	}
}

func TestAddDocumentsAssignsSurrogateIDs(t *testing.T) {
	fake := &fakeClient{}
	store, err := milvus.NewWithClient(context.Background(), testConfig(), fake)
	require.NoError(t, err)

	require.NoError(t, store.AddDocuments(context.Background(), testDocs()))
	assert.Equal(t, 2, store.Len())

	require.Len(t, fake.inserted, 1)
	cols := fake.inserted[0]
	require.Len(t, cols, 3)

	idCol, ok := cols[0].(*entity.ColumnInt64)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2}, idCol.Data(), "surrogate keys start at 1")

	payloadCol, ok := cols[2].(*entity.ColumnVarChar)
	require.True(t, ok)
	var p struct {
		DocID   string `json:"doc_id"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal([]byte(payloadCol.Data()[0]), &p))
	assert.Equal(t, "a", p.DocID)
	assert.Equal(t, "alpha", p.Content)

	// The next batch continues the sequence.
	more := []rag.Document{{ID: "c", Content: "charlie", Embedding: []float32{0, 0, 1, 0}}}
	require.NoError(t, store.AddDocuments(context.Background(), more))
	idCol, ok = fake.inserted[1][0].(*entity.ColumnInt64)
	require.True(t, ok)
	assert.Equal(t, []int64{3}, idCol.Data())
}

func TestAddDocumentsRemoteFailurePropagates(t *testing.T) {
	fake := &fakeClient{insertErr: errors.New("connection reset")}
	store, err := milvus.NewWithClient(context.Background(), testConfig(), fake)
	require.NoError(t, err)

	err = store.AddDocuments(context.Background(), testDocs())
	require.Error(t, err)
	assert.True(t, veilerr.IsUpstream(err), "insert failures are upstream errors, never swallowed")
	assert.Zero(t, store.Len(), "a failed insert must not commit local state")

	// After recovery the surrogate sequence has not been consumed.
	fake.insertErr = nil
	require.NoError(t, store.AddDocuments(context.Background(), testDocs()))
	idCol, ok := fake.inserted[0][0].(*entity.ColumnInt64)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2}, idCol.Data())
}

func TestAddDocumentsValidation(t *testing.T) {
	tests := []struct {
		name string
		docs []rag.Document
	}{
		{"empty id", []rag.Document{{ID: "", Embedding: []float32{1, 0, 0, 0}}}},
		{"nil embedding", []rag.Document{{ID: "x"}}},
		{"wrong dimension", []rag.Document{{ID: "x", Embedding: []float32{1, 0}}}},
		{"duplicate in batch", []rag.Document{
			{ID: "x", Embedding: []float32{1, 0, 0, 0}},
			{ID: "x", Embedding: []float32{0, 1, 0, 0}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeClient{}
			store, err := milvus.NewWithClient(context.Background(), testConfig(), fake)
			require.NoError(t, err)

			err = store.AddDocuments(context.Background(), tt.docs)
			require.Error(t, err)
			assert.Empty(t, fake.inserted, "validation failures never reach the service")
		})
	}
}

func TestSearchRankedPath(t *testing.T) {
	fake := &fakeClient{}
	store, err := milvus.NewWithClient(context.Background(), testConfig(), fake)
	require.NoError(t, err)
	require.NoError(t, store.AddDocuments(context.Background(), testDocs()))

	fake.searchResults = []client.SearchResult{searchHit(t,
		[]string{payloadJSON(t, "b", "stale remote copy"), payloadJSON(t, "a", "alpha")},
		[]float32{0, 2},
	)}

	results, err := store.Search(context.Background(), []float32{0, 1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// L2 distance 0 maps to score 1; distance 2 to 1/3.
	assert.Equal(t, "b", results[0].Document.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 1.0/3.0, results[1].Score, 1e-9)

	// The locally cached body wins over the remote payload.
	assert.Equal(t, "bravo", results[0].Document.Content)
	assert.Equal(t, rag.Metadata{rag.MetaSource: "b.txt"}, results[0].Document.Metadata)
	assert.True(t, results[0].Document.Scored)
}

func TestSearchCosineScoreTransform(t *testing.T) {
	cfg := testConfig()
	cfg.Metric = vectorstore.MetricCosine
	fake := &fakeClient{}
	store, err := milvus.NewWithClient(context.Background(), cfg, fake)
	require.NoError(t, err)

	fake.searchResults = []client.SearchResult{searchHit(t,
		[]string{payloadJSON(t, "same", "x"), payloadJSON(t, "orthogonal", "y")},
		[]float32{1, 0},
	)}

	results, err := store.Search(context.Background(), []float32{3, 0, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 0.5, results[1].Score, 1e-9)
}

func TestSearchFallsBackToUnrankedListing(t *testing.T) {
	fake := &fakeClient{searchErr: errors.New("index not ready")}
	store, err := milvus.NewWithClient(context.Background(), testConfig(), fake)
	require.NoError(t, err)
	require.NoError(t, store.AddDocuments(context.Background(), testDocs()))

	fake.queryResult = client.ResultSet{
		entity.NewColumnVarChar("payload", []string{
			payloadJSON(t, "a", "alpha"),
			payloadJSON(t, "b", "bravo"),
		}),
	}

	results, err := store.Search(context.Background(), []float32{1, 0, 0, 0}, 5)
	require.NoError(t, err, "a degraded ranked path must not surface an error")
	require.Len(t, results, 2)
	for _, r := range results {
		assert.InDelta(t, 0.7, r.Score, 1e-9, "unranked hits carry the flat placeholder score")
	}
}

func TestSearchEmptyRankedResultFallsBack(t *testing.T) {
	// Ranked search succeeds but finds nothing; the proxy still tries the
	// unranked listing before giving up.
	fake := &fakeClient{}
	store, err := milvus.NewWithClient(context.Background(), testConfig(), fake)
	require.NoError(t, err)
	require.NoError(t, store.AddDocuments(context.Background(), testDocs()))

	fake.queryResult = client.ResultSet{
		entity.NewColumnVarChar("payload", []string{
			payloadJSON(t, "a", "alpha"),
		}),
	}

	results, err := store.Search(context.Background(), []float32{1, 0, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Document.ID)
	assert.InDelta(t, 0.7, results[0].Score, 1e-9)
}

func TestSearchFullyDegradedReturnsEmpty(t *testing.T) {
	fake := &fakeClient{
		searchErr: errors.New("index not ready"),
		queryErr:  errors.New("service unavailable"),
	}
	store, err := milvus.NewWithClient(context.Background(), testConfig(), fake)
	require.NoError(t, err)

	results, err := store.Search(context.Background(), []float32{1, 0, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
}

func TestSearchValidatesQuery(t *testing.T) {
	store, err := milvus.NewWithClient(context.Background(), testConfig(), &fakeClient{})
	require.NoError(t, err)

	_, err = store.Search(context.Background(), nil, 3)
	require.Error(t, err)
	assert.True(t, veilerr.IsValidation(err))

	_, err = store.Search(context.Background(), []float32{1}, 3)
	require.Error(t, err)
	assert.True(t, veilerr.IsConsistency(err))
}

func TestSaveLoadRestoresLocalState(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeClient{}
	store, err := milvus.NewWithClient(context.Background(), testConfig(), fake)
	require.NoError(t, err)
	require.NoError(t, store.AddDocuments(context.Background(), testDocs()))
	require.NoError(t, store.Save(dir))

	reopened, err := milvus.LoadWithClient(context.Background(), fake, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Len())

	// The surrogate sequence resumes where it left off.
	more := []rag.Document{{ID: "c", Content: "charlie", Embedding: []float32{0, 0, 1, 0}}}
	require.NoError(t, reopened.AddDocuments(context.Background(), more))
	last := fake.inserted[len(fake.inserted)-1]
	idCol, ok := last[0].(*entity.ColumnInt64)
	require.True(t, ok)
	assert.Equal(t, []int64{3}, idCol.Data())
}

func TestLoadDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	store, err := milvus.NewWithClient(context.Background(), testConfig(), &fakeClient{})
	require.NoError(t, err)
	require.NoError(t, store.Save(dir))

	cfg := testConfig()
	cfg.Dimension = 16
	_, err = milvus.Load(context.Background(), cfg, dir)
	require.Error(t, err)
	assert.True(t, veilerr.IsConsistency(err))
}

func TestSavedConfigOmitsCredentials(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Username = "svc-user"
	cfg.Password = "svc-secret"
	store, err := milvus.NewWithClient(context.Background(), cfg, &fakeClient{})
	require.NoError(t, err)
	require.NoError(t, store.Save(dir))

	raw, err := os.ReadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "svc-user")
	assert.NotContains(t, string(raw), "svc-secret")
}
