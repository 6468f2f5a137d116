// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package milvus

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/milvus-io/milvus-sdk-go/v2/client"

	"github.com/veilrag-dev/veilrag/internal/rag"
	"github.com/veilrag-dev/veilrag/internal/vectorstore"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

const (
	cacheFile   = "cache.json"
	mappingFile = "mapping.json"
	configFile  = "config.json"
)

// mappingRecord is the JSON layout of the surrogate key state.
type mappingRecord struct {
	NextID int64            `json:"next_id"`
	IDs    map[string]int64 `json:"ids"`
}

// Save writes the proxy's local state to dir. The vectors themselves live
// in the remote collection; what persists here is the document cache, the
// surrogate id mapping, and the connection configuration. Credentials are
// never written.
func (s *Store) Save(dir string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return veilerr.Wrap(err, veilerr.CodeStorePersistFailure, "create store directory")
	}

	if err := writeJSON(filepath.Join(dir, cacheFile), s.cache); err != nil {
		return err
	}
	rec := mappingRecord{NextID: s.nextID, IDs: s.ids}
	if err := writeJSON(filepath.Join(dir, mappingFile), rec); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, configFile), s.cfg)
}

// Load reopens a persisted proxy: it restores the local state, reconnects
// to the service, and makes sure the collection is loaded. cfg supplies
// the credentials that Save deliberately omitted; its dimension and metric
// must agree with the persisted record.
func Load(ctx context.Context, cfg vectorstore.MilvusConfig, dir string) (*Store, error) {
	var persisted vectorstore.MilvusConfig
	if err := readJSON(filepath.Join(dir, configFile), &persisted); err != nil {
		return nil, err
	}
	if cfg.Dimension != 0 && cfg.Dimension != persisted.Dimension {
		return nil, veilerr.Errorf(veilerr.CodeStoreDimensionMismatch,
			"persisted collection has dimension %d, configuration expects %d",
			persisted.Dimension, cfg.Dimension)
	}
	if cfg.Metric != "" && cfg.Metric != persisted.Metric {
		return nil, veilerr.Errorf(veilerr.CodeStoreDimensionMismatch,
			"persisted collection uses metric %q, configuration expects %q",
			persisted.Metric, cfg.Metric)
	}

	persisted.Username = cfg.Username
	persisted.Password = cfg.Password
	if cfg.Address != "" {
		persisted.Address = cfg.Address
	}
	if err := persisted.Validate(); err != nil {
		return nil, err
	}

	cache := make(map[string]rag.Document)
	if err := readJSON(filepath.Join(dir, cacheFile), &cache); err != nil {
		return nil, err
	}
	var rec mappingRecord
	if err := readJSON(filepath.Join(dir, mappingFile), &rec); err != nil {
		return nil, err
	}
	if rec.IDs == nil {
		rec.IDs = make(map[string]int64)
	}
	if len(cache) != len(rec.IDs) {
		return nil, veilerr.Errorf(veilerr.CodeStoreDimensionMismatch,
			"persisted proxy state is internally inconsistent: %d cached documents, %d id mappings",
			len(cache), len(rec.IDs))
	}
	if rec.NextID < 1 {
		rec.NextID = 1
	}

	cli, err := client.NewClient(ctx, client.Config{
		Address:  persisted.Address,
		Username: persisted.Username,
		Password: persisted.Password,
		DBName:   persisted.Database,
	})
	if err != nil {
		return nil, veilerr.Wrap(err, veilerr.CodeStoreUpstreamFailure, "reconnect to milvus",
			veilerr.FieldCollection(persisted.Collection))
	}

	return loadWithClient(ctx, persisted, cli, cache, rec)
}

// LoadWithClient is Load over an already-dialed client.
func LoadWithClient(ctx context.Context, cli client.Client, dir string) (*Store, error) {
	var persisted vectorstore.MilvusConfig
	if err := readJSON(filepath.Join(dir, configFile), &persisted); err != nil {
		return nil, err
	}
	cache := make(map[string]rag.Document)
	if err := readJSON(filepath.Join(dir, cacheFile), &cache); err != nil {
		return nil, err
	}
	var rec mappingRecord
	if err := readJSON(filepath.Join(dir, mappingFile), &rec); err != nil {
		return nil, err
	}
	if rec.IDs == nil {
		rec.IDs = make(map[string]int64)
	}
	if rec.NextID < 1 {
		rec.NextID = 1
	}
	return loadWithClient(ctx, persisted, cli, cache, rec)
}

func loadWithClient(ctx context.Context, cfg vectorstore.MilvusConfig, cli client.Client, cache map[string]rag.Document, rec mappingRecord) (*Store, error) {
	s := newWithClient(cfg, cli)
	s.cache = cache
	s.ids = rec.IDs
	s.nextID = rec.NextID
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return veilerr.Wrap(err, veilerr.CodeStorePersistFailure, "marshal "+filepath.Base(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return veilerr.Wrap(err, veilerr.CodeStorePersistFailure, "write "+filepath.Base(path))
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return veilerr.Wrap(err, veilerr.CodeStorePersistNotFound, "missing persisted "+filepath.Base(path))
		}
		return veilerr.Wrap(err, veilerr.CodeStorePersistFailure, "open "+filepath.Base(path))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return veilerr.Wrap(err, veilerr.CodeStorePersistFailure, "parse "+filepath.Base(path))
	}
	return nil
}
