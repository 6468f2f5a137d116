// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package vectorstore

import (
	"context"
	"sync"

	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// Factory creates and reopens stores for one backend kind.
type Factory struct {
	// New builds an empty store from configuration.
	New func(ctx context.Context, cfg Config) (Store, error)
	// Load reopens a store persisted by Save. cfg supplies anything the
	// persisted record deliberately omits, such as credentials.
	Load func(ctx context.Context, cfg Config, dir string) (Store, error)
}

var (
	factories   = map[Kind]Factory{}
	factoriesMu sync.RWMutex
)

// Register installs the factory for a backend kind. Backend packages call
// this from init(). Goroutine-safe.
func Register(kind Kind, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[kind] = f
}

func resolve(kind Kind) (Factory, error) {
	factoriesMu.RLock()
	f, ok := factories[kind]
	factoriesMu.RUnlock()
	if !ok {
		return Factory{}, veilerr.Errorf(veilerr.CodeStoreKindUnsupported,
			"no vector store backend registered for kind %q", kind)
	}
	return f, nil
}

// New builds an empty store for the configured kind.
func New(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f, err := resolve(cfg.Kind)
	if err != nil {
		return nil, err
	}
	return f.New(ctx, cfg)
}

// Load reopens a persisted store for the configured kind.
func Load(ctx context.Context, cfg Config, dir string) (Store, error) {
	f, err := resolve(cfg.Kind)
	if err != nil {
		return nil, err
	}
	return f.Load(ctx, cfg, dir)
}
