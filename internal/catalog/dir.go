// Package catalog provides template catalog implementations: a directory
// of versioned JSON documents plus a caching wrapper.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mfeldt/stencil/internal/domain/template"
)

const indexFile = "index.json"

// Dir reads a catalog from a directory laid out as index.json plus one
// JSON document per template version (e.g. safety-review.v2.json).
type Dir struct {
	dir    string
	logger *slog.Logger
}

// NewDir creates a directory-backed catalog.
func NewDir(dir string, logger *slog.Logger) *Dir {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dir{dir: dir, logger: logger}
}

// FetchIndex reads and parses index.json. It never returns partial data:
// any read or parse failure is ErrCatalogUnavailable.
func (d *Dir) FetchIndex(ctx context.Context) ([]template.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(d.dir, indexFile))
	if err != nil {
		return nil, fmt.Errorf("%w: reading index: %v", template.ErrCatalogUnavailable, err)
	}

	var index []template.Summary
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("%w: parsing index: %v", template.ErrCatalogUnavailable, err)
	}
	return index, nil
}

// FetchVersionDocument reads one version document by its index file name.
// A missing file is ErrTemplateNotFound; unreadable or invalid content is
// ErrCatalogUnavailable.
func (d *Dir) FetchVersionDocument(ctx context.Context, templateID, file string) (*template.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// File names come from the index; strip any path components anyway.
	path := filepath.Join(d.dir, filepath.Base(file))
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s %s", template.ErrTemplateNotFound, templateID, file)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", template.ErrCatalogUnavailable, file, err)
	}

	var doc template.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", template.ErrCatalogUnavailable, file, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid document %s: %v", template.ErrCatalogUnavailable, file, err)
	}

	return &doc, nil
}
