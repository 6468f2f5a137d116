// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/veilrag-dev/veilrag/internal/pii"
	"github.com/veilrag-dev/veilrag/internal/provider"
	"github.com/veilrag-dev/veilrag/internal/vectorstore"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// SanitizeStage trims the query and rejects input that is empty once the
// whitespace and NUL bytes are gone.
type SanitizeStage struct{}

func (SanitizeStage) Name() string { return "sanitize" }

func (SanitizeStage) Run(_ context.Context, req *Request, pc *Context) error {
	cleaned := strings.ReplaceAll(pc.Query, "\x00", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return veilerr.New(veilerr.CodePipelineInputInvalid, "query is empty after sanitation",
			veilerr.FieldSessionID(req.SessionID))
	}
	pc.Query = cleaned
	return nil
}

// RedactInputStage masks blocked entities in the query before anything
// downstream sees it.
type RedactInputStage struct {
	Engine *pii.Engine
}

func (RedactInputStage) Name() string { return "redact_input" }

func (s RedactInputStage) Run(_ context.Context, _ *Request, pc *Context) error {
	masked, audit := s.Engine.DetectAndBlock(pc.Query)
	pc.Query = masked
	pc.InputAudit = audit
	return nil
}

// RetrieveStage embeds the redacted query, searches the store, and formats
// the hits into the context blob. Documents with no usable content keep
// their rank number but are left out of the blob.
type RetrieveStage struct {
	Embedder provider.Embedder
	Store    vectorstore.Store
	TopK     int
}

func (RetrieveStage) Name() string { return "retrieve" }

func (s RetrieveStage) Run(ctx context.Context, _ *Request, pc *Context) error {
	vecs, err := s.Embedder.Embed(ctx, []string{pc.Query})
	if err != nil {
		return err
	}
	if len(vecs) != 1 {
		return veilerr.Errorf(veilerr.CodeProviderResponseInvalid,
			"expected 1 query embedding, got %d", len(vecs))
	}

	results, err := s.Store.Search(ctx, vecs[0], s.TopK)
	if err != nil {
		return err
	}

	blocks := make([]string, 0, len(results))
	pc.Sources = pc.Sources[:0]
	for i, res := range results {
		pc.Sources = append(pc.Sources, res.Document)
		if strings.TrimSpace(res.Document.Content) == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("Document %d [%s]:\n%s", i+1, res.Document.ID, res.Document.Content))
	}
	pc.ContextText = strings.Join(blocks, "\n\n")
	return nil
}

// GenerateStage asks the backend for an answer, appending the retrieved
// context to the system prompt.
type GenerateStage struct {
	Generator   provider.Generator
	System      string
	Temperature float64
	MaxTokens   int
}

func (GenerateStage) Name() string { return "generate" }

func (s GenerateStage) Run(ctx context.Context, req *Request, pc *Context) error {
	system := s.System
	if pc.ContextText != "" {
		system += "\n\nRelevant context:\n" + pc.ContextText
	}

	reply, err := s.Generator.Generate(ctx, provider.GenerateRequest{
		System:      system,
		Prompt:      pc.Query,
		History:     req.History,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
	})
	if err != nil {
		return err
	}
	pc.Reply = reply
	return nil
}

// RedactOutputStage scans the generated answer with the same engine used
// on the input, so nothing blocked can leak back out.
type RedactOutputStage struct {
	Engine *pii.Engine
}

func (RedactOutputStage) Name() string { return "redact_output" }

func (s RedactOutputStage) Run(_ context.Context, _ *Request, pc *Context) error {
	masked, audit := s.Engine.ScanOutput(pc.Reply)
	pc.Reply = masked
	pc.OutputAudit = audit
	return nil
}

// Standard assembles the canonical five-stage flow.
func Standard(engine *pii.Engine, embedder provider.Embedder, store vectorstore.Store, gen provider.Generator, system string, topK int) *Pipeline {
	return New(
		SanitizeStage{},
		RedactInputStage{Engine: engine},
		RetrieveStage{Embedder: embedder, Store: store, TopK: topK},
		GenerateStage{Generator: gen, System: system},
		RedactOutputStage{Engine: engine},
	)
}
