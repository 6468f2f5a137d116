// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package ingest

import (
	"context"
	"log/slog"

	"github.com/veilrag-dev/veilrag/internal/chunk"
	"github.com/veilrag-dev/veilrag/internal/provider"
	"github.com/veilrag-dev/veilrag/internal/rag"
	"github.com/veilrag-dev/veilrag/internal/vectorstore"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// defaultEmbedBatch keeps embedding requests well under provider limits.
const defaultEmbedBatch = 32

// Processor chunks documents, embeds the chunks in batches, and stores
// them. One Ingest call commits everything to the store in a single batch,
// so a failure anywhere leaves the store unchanged.
type Processor struct {
	chunker  *chunk.Chunker
	embedder provider.Embedder
	store    vectorstore.Store
	batch    int
	log      *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithEmbedBatch overrides the embedding batch size.
func WithEmbedBatch(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.batch = n
		}
	}
}

// NewProcessor creates a Processor.
func NewProcessor(chunker *chunk.Chunker, embedder provider.Embedder, store vectorstore.Store, opts ...ProcessorOption) *Processor {
	p := &Processor{
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		batch:    defaultEmbedBatch,
		log:      slog.Default().With("component", "ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest processes documents end to end and reports how many chunks were
// stored.
func (p *Processor) Ingest(ctx context.Context, docs []rag.Document) (int, error) {
	var chunks []rag.Document
	for _, doc := range docs {
		chunks = append(chunks, p.chunker.Split(doc)...)
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	p.log.Info("chunked documents", "documents", len(docs), "chunks", len(chunks))

	for start := 0; start < len(chunks); start += p.batch {
		end := start + p.batch
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}
		vecs, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return 0, err
		}
		if len(vecs) != len(texts) {
			return 0, veilerr.Errorf(veilerr.CodeProviderResponseInvalid,
				"expected %d embeddings, got %d", len(texts), len(vecs))
		}
		for i := range vecs {
			chunks[start+i].Embedding = vecs[i]
		}
	}

	if err := p.store.AddDocuments(ctx, chunks); err != nil {
		return 0, err
	}
	p.log.Info("stored chunks", "chunks", len(chunks))
	return len(chunks), nil
}

// IngestFile loads, chunks, embeds, and stores a single file.
func (p *Processor) IngestFile(ctx context.Context, loader *Loader, path string) (int, error) {
	doc, err := loader.LoadFile(path)
	if err != nil {
		return 0, err
	}
	return p.Ingest(ctx, []rag.Document{doc})
}

// IngestDir loads, chunks, embeds, and stores every supported file under
// dir, descending into subdirectories when recursive is set.
func (p *Processor) IngestDir(ctx context.Context, loader *Loader, dir string, recursive bool) (int, error) {
	docs, err := loader.LoadDir(dir, recursive)
	if err != nil {
		return 0, err
	}
	return p.Ingest(ctx, docs)
}
