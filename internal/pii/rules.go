// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package pii

import "regexp"

// patternRule is one structured-identifier detector. Rules are evaluated in
// table order; a later rule never claims bytes already claimed by an earlier
// one, so the more specific shapes (SSN, card numbers) must precede the
// generic digit-run phone rule.
type patternRule struct {
	Type    EntityType
	Pattern *regexp.Regexp
}

var patternRules = []patternRule{
	{
		Type:    TypeEmail,
		Pattern: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
	},
	{
		Type:    TypeSSN,
		Pattern: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	},
	{
		Type:    TypeCreditCard,
		Pattern: regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`),
	},
	{
		Type:    TypeIPAddress,
		Pattern: regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
	},
	{
		Type:    TypePhone,
		Pattern: regexp.MustCompile(`\+?\b\d{9,15}\b`),
	},
}

// detectPatterns runs the fixed rule table over text. Matches from later
// rules that overlap an earlier claim are dropped.
func detectPatterns(text string) []Entity {
	var entities []Entity
	for _, rule := range patternRules {
		for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
			ent := Entity{
				Type:  rule.Type,
				Start: loc[0],
				End:   loc[1],
				Text:  text[loc[0]:loc[1]],
			}
			if overlapsAny(entities, ent) {
				continue
			}
			entities = append(entities, ent)
		}
	}
	return entities
}
