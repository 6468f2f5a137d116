// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

// Package chunk splits documents into overlapping fixed-size windows, the
// unit of embedding and retrieval.
package chunk

import (
	"fmt"
	"strconv"

	"github.com/veilrag-dev/veilrag/internal/rag"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// Config controls window size and overlap, both measured in bytes of the
// UTF-8 content.
type Config struct {
	Size    int
	Overlap int
}

// DefaultConfig matches the ingestion defaults (500-byte windows, 50 overlap).
func DefaultConfig() Config {
	return Config{Size: 500, Overlap: 50}
}

// Chunker splits documents into overlapping chunks. The zero value is not
// usable; construct with New so the size/overlap invariant is checked once,
// not rediscovered as an infinite loop at split time.
type Chunker struct {
	cfg Config
}

// New validates the configuration and returns a Chunker. Overlap must be
// strictly smaller than Size and both must be positive.
func New(cfg Config) (*Chunker, error) {
	if cfg.Size <= 0 {
		return nil, veilerr.Errorf(veilerr.CodeChunkConfigInvalid, "chunk size must be positive, got %d", cfg.Size)
	}
	if cfg.Overlap < 0 {
		return nil, veilerr.Errorf(veilerr.CodeChunkConfigInvalid, "chunk overlap must not be negative, got %d", cfg.Overlap)
	}
	if cfg.Overlap >= cfg.Size {
		return nil, veilerr.Errorf(veilerr.CodeChunkConfigInvalid,
			"chunk overlap %d must be smaller than chunk size %d", cfg.Overlap, cfg.Size)
	}
	return &Chunker{cfg: cfg}, nil
}

// Split cuts a document into overlapping windows. Content no longer than the
// configured size is returned unchanged as the sole chunk, keeping its id.
// Each produced chunk inherits the parent metadata plus parent_id, chunk_id,
// and the start/end offsets of the window. The loop terminates because every
// window advances start by at least Size-Overlap > 0.
func (c *Chunker) Split(doc rag.Document) []rag.Document {
	text := doc.Content
	if len(text) <= c.cfg.Size {
		return []rag.Document{doc}
	}

	var chunks []rag.Document
	start := 0
	for index := 0; start < len(text); index++ {
		end := start + c.cfg.Size
		if end > len(text) {
			end = len(text)
		}

		meta := doc.Metadata.Clone()
		if meta == nil {
			meta = rag.Metadata{}
		}
		meta[rag.MetaParentID] = doc.ID
		meta[rag.MetaChunkID] = strconv.Itoa(index)
		meta[rag.MetaStart] = strconv.Itoa(start)
		meta[rag.MetaEnd] = strconv.Itoa(end)

		chunks = append(chunks, rag.Document{
			ID:       fmt.Sprintf("%s_chunk_%d", doc.ID, index),
			Content:  text[start:end],
			Metadata: meta,
		})

		if end == len(text) {
			break
		}
		start = end - c.cfg.Overlap
	}

	return chunks
}
