// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilrag-dev/veilrag/internal/provider"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    provider.Kind
		wantErr bool
	}{
		{in: "openai", want: provider.KindOpenAI},
		{in: "Anthropic", want: provider.KindAnthropic},
		{in: "GOOGLE", want: provider.KindGoogle},
		{in: "ollama", want: provider.KindOllama},
		{in: "", wantErr: true},
		{in: "bedrock", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := provider.ParseKind(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, veilerr.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := provider.Config{Kind: provider.KindOllama, Model: "llama3.1"}
	require.NoError(t, valid.Validate())

	missingModel := provider.Config{Kind: provider.KindOpenAI}
	err := missingModel.Validate()
	require.Error(t, err)
	assert.True(t, veilerr.HasCode(err, veilerr.CodeProviderConfigInvalid))

	badKind := provider.Config{Kind: "azure", Model: "gpt-4.1"}
	err = badKind.Validate()
	require.Error(t, err)
	assert.True(t, veilerr.HasCode(err, veilerr.CodeProviderKindUnsupported))
}
