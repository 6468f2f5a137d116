// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package secrets

import (
	"errors"

	"github.com/zalando/go-keyring"

	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// KeyringStore implements Store on the OS keyring: Keychain on macOS,
// secret-service on Linux, Credential Manager on Windows.
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

var _ Store = (*KeyringStore)(nil)

func (s *KeyringStore) Set(service, key, value string) error {
	if err := validate(service, key); err != nil {
		return err
	}
	if err := keyring.Set(service, key, value); err != nil {
		return veilerr.Wrapf(err, veilerr.CodeSecretResolveFailure, "storing secret %s/%s", service, key)
	}
	return nil
}

func (s *KeyringStore) Get(service, key string) (string, error) {
	if err := validate(service, key); err != nil {
		return "", err
	}
	val, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", veilerr.Errorf(veilerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return "", veilerr.Wrapf(err, veilerr.CodeSecretResolveFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := validate(service, key); err != nil {
		return err
	}
	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return veilerr.Errorf(veilerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return veilerr.Wrapf(err, veilerr.CodeSecretResolveFailure, "deleting secret %s/%s", service, key)
	}
	return nil
}

func validate(service, key string) error {
	if service == "" {
		return veilerr.New(veilerr.CodeSecretInvalidInput, "secret service must not be empty")
	}
	if key == "" {
		return veilerr.New(veilerr.CodeSecretInvalidInput, "secret key must not be empty")
	}
	return nil
}
