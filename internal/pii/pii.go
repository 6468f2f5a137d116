// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

// Package pii detects and masks personally identifiable information in
// text, producing an audit trail of what was blocked. Structured identifiers
// (emails, phone numbers, SSNs, IP addresses, card numbers) are found with a
// fixed regex rule table; named entities (people, organizations, places)
// come from a pluggable Recognizer.
package pii

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// EntityType classifies a detected span.
type EntityType string

const (
	TypePerson      EntityType = "PERSON"
	TypeOrg         EntityType = "ORG"
	TypeGPE         EntityType = "GPE"
	TypeLoc         EntityType = "LOC"
	TypeEmail       EntityType = "EMAIL"
	TypePhone       EntityType = "PHONE"
	TypeSSN         EntityType = "SSN"
	TypeIPAddress   EntityType = "IP_ADDRESS"
	TypeCreditCard  EntityType = "CREDIT_CARD"
	TypeBankAccount EntityType = "BANK_ACCOUNT"
)

// DefaultBlockTypes returns the full default set of blocked entity types.
func DefaultBlockTypes() map[EntityType]struct{} {
	return map[EntityType]struct{}{
		TypePerson: {}, TypeOrg: {}, TypeGPE: {}, TypeLoc: {},
		TypeEmail: {}, TypePhone: {}, TypeSSN: {}, TypeIPAddress: {},
		TypeCreditCard: {}, TypeBankAccount: {},
	}
}

// Config controls detection and masking behavior.
type Config struct {
	Enabled    bool
	BlockTypes map[EntityType]struct{}
	MaskRune   rune
	LogBlocked bool
}

// DefaultConfig enables detection of all default types, masking with 'X'.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		BlockTypes: DefaultBlockTypes(),
		MaskRune:   'X',
		LogBlocked: true,
	}
}

// Entity is a detected span. Start and End are byte offsets into the
// normalized text the detection ran over.
type Entity struct {
	Type  EntityType
	Start int
	End   int
	Text  string
}

// AuditEntry records one masked entity. Context carries up to 20 characters
// of surrounding text on each side, taken from the pre-mask input.
type AuditEntry struct {
	Type      EntityType `json:"entity_type"`
	Text      string     `json:"original_text"`
	Timestamp time.Time  `json:"timestamp"`
	Context   string     `json:"surrounding_context"`
}

// Engine runs the merged regex and recognizer detection over text.
// It is safe for concurrent use; all state is read-only after construction.
type Engine struct {
	cfg        Config
	recognizer Recognizer
	now        func() time.Time
}

// Option configures optional Engine behavior.
type Option func(*Engine)

// WithRecognizer replaces the default lexical recognizer, for callers that
// wrap an external NER model.
func WithRecognizer(r Recognizer) Option {
	return func(e *Engine) { e.recognizer = r }
}

// withClock overrides the audit timestamp source for tests.
func withClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine. A zero MaskRune falls back to 'X'; nil BlockTypes
// falls back to the default set.
func New(cfg Config, opts ...Option) *Engine {
	if cfg.MaskRune == 0 {
		cfg.MaskRune = 'X'
	}
	if cfg.BlockTypes == nil {
		cfg.BlockTypes = DefaultBlockTypes()
	}

	e := &Engine{
		cfg:        cfg,
		recognizer: NewLexicalRecognizer(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DetectAndBlock masks every blocked entity in text and returns the
// redacted text plus the audit log for this call. When the engine is
// disabled the input is returned unchanged with an empty log.
//
// Masking is length-preserving: each character of a matched span is
// replaced by the mask character. Entities are applied in descending
// offset order so earlier replacements cannot invalidate later offsets.
func (e *Engine) DetectAndBlock(text string) (string, []AuditEntry) {
	if !e.cfg.Enabled {
		return text, nil
	}

	normalized := normalize(text)
	entities := e.detect(normalized)

	sort.Slice(entities, func(i, j int) bool {
		return entities[i].Start > entities[j].Start
	})

	masked := normalized
	var audit []AuditEntry
	for _, ent := range entities {
		if _, blocked := e.cfg.BlockTypes[ent.Type]; !blocked {
			continue
		}

		masked = e.maskSpan(masked, ent.Start, ent.End)

		if e.cfg.LogBlocked {
			audit = append(audit, AuditEntry{
				Type:      ent.Type,
				Text:      ent.Text,
				Timestamp: e.now().UTC(),
				Context:   surrounding(normalized, ent.Start, ent.End, 20),
			})
		}
	}

	return masked, audit
}

// ScanOutput applies the same detection to generated text. It is a distinct
// call site because PII can reach a reply through retrieved context even
// when the user's own input was clean.
func (e *Engine) ScanOutput(text string) (string, []AuditEntry) {
	return e.DetectAndBlock(text)
}

// detect merges regex matches with recognizer entities. When a regex match
// and a recognizer span overlap, the regex-declared type wins.
func (e *Engine) detect(text string) []Entity {
	entities := detectPatterns(text)

	for _, ent := range e.recognizer.Recognize(text) {
		if overlapsAny(entities, ent) {
			continue
		}
		entities = append(entities, ent)
	}

	return entities
}

// maskSpan replaces every rune in [start, end) with the mask rune.
func (e *Engine) maskSpan(text string, start, end int) string {
	runes := utf8.RuneCountInString(text[start:end])
	return text[:start] + strings.Repeat(string(e.cfg.MaskRune), runes) + text[end:]
}

func overlapsAny(entities []Entity, ent Entity) bool {
	for _, existing := range entities {
		if ent.Start < existing.End && existing.Start < ent.End {
			return true
		}
	}
	return false
}

// surrounding clips up to pad bytes of context on each side of [start, end),
// backing off to rune boundaries so the clip never splits a character.
func surrounding(text string, start, end, pad int) string {
	lo := start - pad
	if lo < 0 {
		lo = 0
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}

	hi := end + pad
	if hi > len(text) {
		hi = len(text)
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}

	return text[lo:hi]
}
