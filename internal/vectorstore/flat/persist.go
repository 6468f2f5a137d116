// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package flat

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/veilrag-dev/veilrag/internal/rag"
	"github.com/veilrag-dev/veilrag/internal/vectorstore"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

const (
	indexFile     = "index.gob"
	documentsFile = "documents.json"
	configFile    = "config.json"
)

// indexRecord is the gob layout of the raw vectors. Document bodies go to
// JSON separately so they stay inspectable on disk.
type indexRecord struct {
	Vectors [][]float32
	Order   []string
}

// Save writes the index to dir as three files: the vectors (gob), the
// document bodies (JSON), and the index configuration (JSON).
func (s *Store) Save(dir string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return veilerr.Wrap(err, veilerr.CodeStorePersistFailure, "create store directory")
	}

	f, err := os.Create(filepath.Join(dir, indexFile))
	if err != nil {
		return veilerr.Wrap(err, veilerr.CodeStorePersistFailure, "create index file")
	}
	rec := indexRecord{Vectors: s.vectors, Order: s.order}
	if err := gob.NewEncoder(f).Encode(rec); err != nil {
		f.Close()
		return veilerr.Wrap(err, veilerr.CodeStorePersistFailure, "encode index")
	}
	if err := f.Close(); err != nil {
		return veilerr.Wrap(err, veilerr.CodeStorePersistFailure, "close index file")
	}

	if err := writeJSON(filepath.Join(dir, documentsFile), s.docs); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, configFile), s.cfg)
}

// Load reopens an index persisted by Save. All three files must be present.
// The persisted configuration is authoritative for the data; it must agree
// with the requested configuration on dimension and metric.
func Load(cfg vectorstore.FlatConfig, dir string) (*Store, error) {
	var persisted vectorstore.FlatConfig
	if err := readJSON(filepath.Join(dir, configFile), &persisted); err != nil {
		return nil, err
	}
	if err := persisted.Validate(); err != nil {
		return nil, err
	}
	if cfg.Dimension != 0 && cfg.Dimension != persisted.Dimension {
		return nil, veilerr.Errorf(veilerr.CodeStoreDimensionMismatch,
			"persisted index has dimension %d, configuration expects %d",
			persisted.Dimension, cfg.Dimension)
	}
	if cfg.Metric != "" && cfg.Metric != persisted.Metric {
		return nil, veilerr.Errorf(veilerr.CodeStoreDimensionMismatch,
			"persisted index uses metric %q, configuration expects %q",
			persisted.Metric, cfg.Metric)
	}

	f, err := os.Open(filepath.Join(dir, indexFile))
	if err != nil {
		return nil, wrapOpen(err, "index")
	}
	defer f.Close()

	var rec indexRecord
	if err := gob.NewDecoder(f).Decode(&rec); err != nil {
		return nil, veilerr.Wrap(err, veilerr.CodeStorePersistFailure, "decode index")
	}

	docs := make(map[string]rag.Document)
	if err := readJSON(filepath.Join(dir, documentsFile), &docs); err != nil {
		return nil, err
	}

	if len(rec.Vectors) != len(rec.Order) || len(rec.Order) != len(docs) {
		return nil, veilerr.Errorf(veilerr.CodeStoreDimensionMismatch,
			"persisted index is internally inconsistent: %d vectors, %d ids, %d documents",
			len(rec.Vectors), len(rec.Order), len(docs))
	}
	for i, vec := range rec.Vectors {
		if len(vec) != persisted.Dimension {
			return nil, veilerr.Errorf(veilerr.CodeStoreDimensionMismatch,
				"persisted vector %d has dimension %d, index config says %d",
				i, len(vec), persisted.Dimension)
		}
	}
	for _, id := range rec.Order {
		if _, ok := docs[id]; !ok {
			return nil, veilerr.Errorf(veilerr.CodeStoreDimensionMismatch,
				"persisted index references document %q with no stored body", id)
		}
	}

	return &Store{
		cfg:     persisted,
		vectors: rec.Vectors,
		order:   rec.Order,
		docs:    docs,
	}, nil
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
		return wrapOpen(err, filepath.Base(path))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return veilerr.Wrap(err, veilerr.CodeStorePersistFailure, "parse "+filepath.Base(path))
	}
	return nil
}

func wrapOpen(err error, name string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return veilerr.Wrap(err, veilerr.CodeStorePersistNotFound, "missing persisted "+name+" file")
	}
	return veilerr.Wrap(err, veilerr.CodeStorePersistFailure, "open "+name+" file")
}
