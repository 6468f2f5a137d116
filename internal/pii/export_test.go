// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

// Package pii export_test.go exposes internal symbols to the external
// pii_test package during test runs only.

package pii

import "time"

// WithClock overrides the audit timestamp source.
func WithClock(now func() time.Time) Option {
	return withClock(now)
}

// Normalize exposes the detector input normalization.
func Normalize(s string) string {
	return normalize(s)
}
