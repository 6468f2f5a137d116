// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

// Package pipeline runs a query through the staged retrieval flow:
// sanitize, redact the input, retrieve supporting documents, generate an
// answer, and scan the answer before it leaves. Stages share one Context
// value and the first failure stops the run.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/veilrag-dev/veilrag/internal/pii"
	"github.com/veilrag-dev/veilrag/internal/provider"
	"github.com/veilrag-dev/veilrag/internal/rag"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// Request is one user query entering the pipeline.
type Request struct {
	Query     string
	SessionID string
	// History holds prior turns of this conversation, oldest first.
	History []provider.Turn
}

// Context is the shared state threaded through the stages. Stages read
// what earlier stages wrote and never reach around each other.
type Context struct {
	// Query is the working copy of the user input; sanitation and
	// redaction rewrite it in place.
	Query string
	// Sources are the retrieved documents, ranked best first.
	Sources []rag.Document
	// ContextText is the formatted blob handed to the generator.
	ContextText string
	// Reply is the generated answer, scanned before the run returns.
	Reply string

	// InputAudit and OutputAudit record what redaction masked on each side.
	InputAudit  []pii.AuditEntry
	OutputAudit []pii.AuditEntry
}

// Response is the completed run.
type Response struct {
	// SessionID echoes the request's session.
	SessionID string
	// Query is the sanitized and redacted form of the input, the one the
	// later stages actually saw. Callers keeping conversation history must
	// record this form, never the raw input.
	Query       string
	Reply       string
	Sources     []rag.Document
	ContextText string
	InputAudit  []pii.AuditEntry
	OutputAudit []pii.AuditEntry
}

// Stage is one step of the pipeline. A stage mutates pc and returns an
// error to stop the run; stage errors propagate with their own codes.
type Stage interface {
	Name() string
	Run(ctx context.Context, req *Request, pc *Context) error
}

// Pipeline runs stages in order, failing fast. A Pipeline holds no
// per-request state and is safe for concurrent Run calls.
type Pipeline struct {
	stages []Stage
	log    *slog.Logger
}

// New assembles a pipeline from stages.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{
		stages: stages,
		log:    slog.Default().With("component", "pipeline"),
	}
}

// Run executes all stages against one request. Cancellation is observed
// between stages; the first stage error aborts the run and is returned
// unchanged so callers can classify it.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Response, error) {
	if req.Query == "" {
		return nil, veilerr.New(veilerr.CodePipelineInputInvalid, "query must not be empty",
			veilerr.FieldSessionID(req.SessionID))
	}

	pc := &Context{Query: req.Query}
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, veilerr.Wrap(err, veilerr.CodePipelineCancelled, "pipeline cancelled",
				veilerr.FieldStage(stage.Name()), veilerr.FieldSessionID(req.SessionID))
		}
		if err := stage.Run(ctx, &req, pc); err != nil {
			p.log.Error("stage failed", "stage", stage.Name(), "session_id", req.SessionID, "error", err)
			return nil, err
		}
		p.log.Debug("stage complete", "stage", stage.Name(), "session_id", req.SessionID)
	}

	return &Response{
		SessionID:   req.SessionID,
		Query:       pc.Query,
		Reply:       pc.Reply,
		Sources:     pc.Sources,
		ContextText: pc.ContextText,
		InputAudit:  pc.InputAudit,
		OutputAudit: pc.OutputAudit,
	}, nil
}
