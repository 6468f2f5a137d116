// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

// Package secrets keeps provider and store credentials out of config files.
// Config values may use the keyring://service/key URI scheme; resolution
// happens once after config load.
package secrets

// Store is secure secret storage. The default implementation uses the OS
// keyring; tests substitute an in-memory map.
type Store interface {
	// Set saves a secret value under service and key.
	Set(service, key, value string) error

	// Get fetches a secret. A missing key reports IsNotFound.
	Get(service, key string) (string, error)

	// Delete removes a secret. A missing key reports IsNotFound.
	Delete(service, key string) error
}
