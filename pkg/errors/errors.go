// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package errors

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error. The segment after
// the last dot is the reason, used by the Is* classifiers below.
type Code string

const (
	CodePipelineInputInvalid Code = "pipeline.input.invalid_input"
	CodePipelineStageFailure Code = "pipeline.stage.failure"
	CodePipelineCancelled    Code = "pipeline.run.cancelled"

	CodeChunkConfigInvalid Code = "chunk.config.invalid_value"

	CodeStoreKindUnsupported    Code = "store.kind.invalid_value"
	CodeStoreMetricUnsupported  Code = "store.metric.invalid_value"
	CodeStoreDocumentInvalid    Code = "store.document.invalid_input"
	CodeStorePersistNotFound    Code = "store.persist.not_found"
	CodeStorePersistFailure     Code = "store.persist.failure"
	CodeStoreDimensionMismatch  Code = "store.dimension.inconsistent"
	CodeStoreUpstreamFailure    Code = "store.remote.upstream.failure"
	CodeStoreCollectionFailure  Code = "store.collection.upstream.failure"

	CodeProviderKindUnsupported Code = "provider.kind.invalid_value"
	CodeProviderConfigInvalid   Code = "provider.config.invalid_value"
	CodeProviderEmbedFailure    Code = "provider.embed.upstream.failure"
	CodeProviderGenerateFailure Code = "provider.generate.upstream.failure"
	CodeProviderResponseInvalid Code = "provider.response.invalid_input"

	CodePIIConfigInvalid Code = "pii.config.invalid_value"

	CodeIngestFileUnsupported Code = "ingest.file.not_found"
	CodeIngestReadFailure     Code = "ingest.read.failure"

	CodeConfigLoadFailure    Code = "config.load.failure"
	CodeConfigValueInvalid   Code = "config.validate.invalid_value"
	CodeSecretInvalidInput   Code = "secret.uri.invalid_input"
	CodeSecretNotFound       Code = "secret.key.not_found"
	CodeSecretResolveFailure Code = "secret.resolve.failure"

	CodeCLIInputInvalid Code = "cli.input.invalid_input"
	CodeCLISetupFailure Code = "cli.setup.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldDocumentID(value string) Attr { return Field("document_id", value) }
func FieldSessionID(value string) Attr  { return Field("session_id", value) }
func FieldStage(value string) Attr      { return Field("stage", value) }
func FieldProvider(value string) Attr   { return Field("provider", value) }
func FieldCollection(value string) Attr { return Field("collection", value) }

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// CodeOf extracts the Code from an error chain, or "" when the error does
// not carry one.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

// FieldsOf returns the structured context attached to an error.
func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// IsValidation reports whether the error is a configuration or input
// validation failure. Validation failures are never silently recovered.
func IsValidation(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid_input" || r == "invalid_value"
}

// IsUpstream reports whether the error came from a remote collaborator
// (embedding, generation, or the managed search service).
func IsUpstream(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "failure"
}

// IsNotFound reports whether the error refers to a missing file, key, or
// persisted artifact.
func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

// IsConsistency reports whether the error indicates persisted state that
// disagrees with its own config, such as a dimension mismatch on load.
func IsConsistency(err error) bool {
	return reason(CodeOf(err)) == "inconsistent"
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
