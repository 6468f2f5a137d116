// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilrag-dev/veilrag/internal/secrets"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// mockSecretStore is an in-memory secrets.Store for testing.
type mockSecretStore struct {
	data map[string]string
}

func newMockSecretStore() *mockSecretStore {
	return &mockSecretStore{data: make(map[string]string)}
}

func (m *mockSecretStore) Set(_, key, value string) error {
	m.data[key] = value
	return nil
}

func (m *mockSecretStore) Get(_, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", veilerr.Errorf(veilerr.CodeSecretNotFound, "not found")
	}
	return v, nil
}

func (m *mockSecretStore) Delete(_, key string) error {
	if _, ok := m.data[key]; !ok {
		return veilerr.Errorf(veilerr.CodeSecretNotFound, "not found")
	}
	delete(m.data, key)
	return nil
}

func withMockSecretStore(t *testing.T, mock *mockSecretStore) {
	t.Helper()
	orig := secretStoreFactory
	secretStoreFactory = func() secrets.Store { return mock }
	t.Cleanup(func() { secretStoreFactory = orig })
}

func TestSecretSetGetDelete(t *testing.T) {
	mock := newMockSecretStore()
	withMockSecretStore(t, mock)

	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"secret", "set", "openai-api-key", "sk-test"})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "Stored secret: openai-api-key")
	assert.Equal(t, "sk-test", mock.data["openai-api-key"])

	root = NewRootCmd()
	buf = new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"secret", "get", "openai-api-key"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "sk-test\n", buf.String())

	root = NewRootCmd()
	buf = new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"secret", "delete", "openai-api-key"})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "Deleted secret: openai-api-key")
	assert.Empty(t, mock.data)
}

func TestSecretGetNotFound(t *testing.T) {
	withMockSecretStore(t, newMockSecretStore())

	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"secret", "get", "missing"})

	err := root.Execute()
	require.Error(t, err)
	assert.True(t, veilerr.HasCode(err, veilerr.CodeSecretNotFound))
}

func TestSecretDeleteNotFound(t *testing.T) {
	withMockSecretStore(t, newMockSecretStore())

	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"secret", "delete", "missing"})

	err := root.Execute()
	require.Error(t, err)
	assert.True(t, veilerr.HasCode(err, veilerr.CodeSecretNotFound))
}
