// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

// Package rag holds the value types shared by the chunking, retrieval, and
// pipeline layers.
package rag

import "maps"

// Metadata is an order-irrelevant string-keyed map attached to a document.
// Numeric values such as chunk offsets are stored stringified so the map
// round-trips through JSON without type drift.
type Metadata map[string]string

// Clone returns a copy of the metadata. A nil map clones to nil.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// Document is a document or text chunk together with its metadata.
// Embedding is nil until computed; Score is meaningful only when Scored is
// set, which happens on documents returned from a search.
type Document struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
	Score     float64   `json:"score,omitempty"`
	Scored    bool      `json:"scored,omitempty"`
}

// Clone returns a deep copy. Documents are value-like and may be copied
// freely between pipeline stages; Clone exists for the places that hand a
// document to a long-lived cache and must not share slices with the caller.
func (d Document) Clone() Document {
	out := d
	out.Metadata = d.Metadata.Clone()
	if d.Embedding != nil {
		out.Embedding = make([]float32, len(d.Embedding))
		copy(out.Embedding, d.Embedding)
	}
	return out
}

// WithScore returns a copy of the document carrying a search score.
func (d Document) WithScore(score float64) Document {
	d.Score = score
	d.Scored = true
	return d
}

// Well-known metadata keys written by the chunker and the loaders.
const (
	MetaParentID = "parent_id"
	MetaChunkID  = "chunk_id"
	MetaStart    = "start"
	MetaEnd      = "end"
	MetaSource   = "source"
	MetaType     = "type"
)
