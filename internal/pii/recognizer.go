// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package pii

import "regexp"

// Recognizer finds named entities (PERSON, ORG, GPE, LOC) in text.
// Implementations may wrap an external NER model; the engine only needs
// spans with byte offsets into the text it was given.
type Recognizer interface {
	Recognize(text string) []Entity
}

// LexicalRecognizer is the built-in recognizer. It has no statistical model;
// it combines honorific and corporate-suffix cues with a small gazetteer of
// place names. It deliberately prefers precision over recall: a missed name
// passes through unmasked, but a false positive destroys user text.
type LexicalRecognizer struct {
	person *regexp.Regexp
	org    *regexp.Regexp
	places map[string]EntityType
	place  *regexp.Regexp
}

var _ Recognizer = (*LexicalRecognizer)(nil)

// capitalized word run: "Jane", "Jane Doe", "Jane van Doe" is out of reach
// on purpose; lowercase particles are a recall cost we accept.
const capRun = `[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*`

// NewLexicalRecognizer builds the built-in recognizer.
func NewLexicalRecognizer() *LexicalRecognizer {
	places := map[string]EntityType{
		// Geopolitical entities: countries, states, cities.
		"United States": TypeGPE, "United Kingdom": TypeGPE, "Germany": TypeGPE,
		"France": TypeGPE, "Japan": TypeGPE, "China": TypeGPE, "India": TypeGPE,
		"Canada": TypeGPE, "Australia": TypeGPE, "Brazil": TypeGPE,
		"London": TypeGPE, "Paris": TypeGPE, "Berlin": TypeGPE, "Tokyo": TypeGPE,
		"New York": TypeGPE, "San Francisco": TypeGPE, "Seattle": TypeGPE,
		"California": TypeGPE, "Texas": TypeGPE, "Washington": TypeGPE,

		// Physical locations.
		"Mount Everest": TypeLoc, "Pacific Ocean": TypeLoc, "Atlantic Ocean": TypeLoc,
		"Sahara": TypeLoc, "Amazon River": TypeLoc, "Alps": TypeLoc,
		"Grand Canyon": TypeLoc, "Lake Tahoe": TypeLoc,
	}

	placeAlt := ""
	for name := range places {
		if placeAlt != "" {
			placeAlt += "|"
		}
		placeAlt += regexp.QuoteMeta(name)
	}

	return &LexicalRecognizer{
		person: regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.?\s+(` + capRun + `)`),
		org:    regexp.MustCompile(`\b(` + capRun + `(?:\s+&\s+` + capRun + `)?)\s+(Inc|Corp|Corporation|Ltd|LLC|GmbH)\b\.?`),
		places: places,
		place:  regexp.MustCompile(`\b(?:` + placeAlt + `)\b`),
	}
}

// Recognize returns entity spans found in text.
func (r *LexicalRecognizer) Recognize(text string) []Entity {
	var entities []Entity

	// PERSON: honorific followed by a capitalized run; the span covers the
	// name only, not the honorific.
	for _, m := range r.person.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		entities = append(entities, Entity{
			Type: TypePerson, Start: start, End: end, Text: text[start:end],
		})
	}

	// ORG: capitalized run ending in a corporate suffix; the span includes
	// the suffix word but not its trailing period.
	for _, m := range r.org.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[5]
		entities = append(entities, Entity{
			Type: TypeOrg, Start: start, End: end, Text: text[start:end],
		})
	}

	// GPE / LOC from the gazetteer.
	for _, loc := range r.place.FindAllStringIndex(text, -1) {
		name := text[loc[0]:loc[1]]
		entities = append(entities, Entity{
			Type: r.places[name], Start: loc[0], End: loc[1], Text: name,
		})
	}

	return dedupeOverlaps(entities)
}

// dedupeOverlaps keeps the first entity claiming a region, in slice order.
func dedupeOverlaps(entities []Entity) []Entity {
	var out []Entity
	for _, ent := range entities {
		if overlapsAny(out, ent) {
			continue
		}
		out = append(out, ent)
	}
	return out
}
