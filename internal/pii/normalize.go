// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package pii

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// invisibleCharReplacer strips zero-width and other invisible Unicode
// characters so spans cannot dodge the detectors with homoglyph padding.
// Allocated once at package init.
var invisibleCharReplacer = strings.NewReplacer(
	"\u200B", "", // zero-width space
	"\u200C", "", // zero-width non-joiner
	"\u200D", "", // zero-width joiner
	"\uFEFF", "", // zero-width no-break space / BOM
	"\u00AD", "", // soft hyphen
	"\u2060", "", // word joiner
	"\u2061", "", // invisible function application
	"\u2062", "", // invisible times
	"\u2063", "", // invisible separator
	"\u2064", "", // invisible plus
)

// normalize applies NFKC normalization and strips invisible characters.
// Detection offsets refer to the normalized text, which is also the text
// masking is applied to, so offsets never drift.
func normalize(s string) string {
	s = invisibleCharReplacer.Replace(s)
	return norm.NFKC.String(s)
}
