// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

// Package ingest turns files on disk into embedded, searchable chunks.
package ingest

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/veilrag-dev/veilrag/internal/rag"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// supportedExts are the file types the loader reads as plain text.
var supportedExts = map[string]string{
	".txt": "text",
	".md":  "markdown",
}

// Loader reads documents from the filesystem. The document id is the file
// name without its extension; the path and type land in metadata.
type Loader struct{}

// NewLoader creates a Loader.
func NewLoader() *Loader { return &Loader{} }

// LoadFile reads one file. Asking for a file of an unsupported type is an
// error; during directory walks such files are silently skipped instead.
func (l *Loader) LoadFile(path string) (rag.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	docType, ok := supportedExts[ext]
	if !ok {
		return rag.Document{}, veilerr.Errorf(veilerr.CodeIngestFileUnsupported,
			"no loader for file type %q: %s", ext, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rag.Document{}, veilerr.Wrap(err, veilerr.CodeIngestReadFailure, "read "+path)
	}

	base := filepath.Base(path)
	return rag.Document{
		ID:      strings.TrimSuffix(base, filepath.Ext(base)),
		Content: string(data),
		Metadata: rag.Metadata{
			rag.MetaSource: path,
			rag.MetaType:   docType,
		},
	}, nil
}

// LoadDir loads every supported file under dir, sorted by path.
// Unsupported files are skipped. When recursive is false only the top
// level of dir is read; subdirectories are ignored.
func (l *Loader) LoadDir(dir string, recursive bool) ([]rag.Document, error) {
	var docs []rag.Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return veilerr.Wrap(err, veilerr.CodeIngestReadFailure, "walk "+dir)
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if _, ok := supportedExts[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		doc, err := l.LoadFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}
