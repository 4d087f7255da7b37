package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mfeldt/stencil/internal/domain/audit"
	"github.com/mfeldt/stencil/internal/domain/checklist"
)

// Collection keys.
const (
	keyProjects = "projects"
	keyAudit    = "audit"
)

// Store implements repository.Store over the collections table.
type Store struct {
	db     *DB
	logger *slog.Logger
}

// NewStore creates a new Store.
func NewStore(db *DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{db: db, logger: logger}
}

// LoadProjects returns the project collection. A missing or unparseable
// collection degrades to empty; corruption is logged, never fatal.
func (s *Store) LoadProjects(ctx context.Context) ([]checklist.Project, error) {
	body, ok, err := s.loadBody(ctx, keyProjects)
	if err != nil {
		return nil, err
	}
	projects := []checklist.Project{}
	if !ok {
		return projects, nil
	}
	if err := json.Unmarshal(body, &projects); err != nil {
		s.logger.Warn("discarding unparseable collection", "key", keyProjects, "error", err)
		return []checklist.Project{}, nil
	}
	if projects == nil {
		projects = []checklist.Project{}
	}
	return projects, nil
}

// SaveProjects replaces the whole project collection.
func (s *Store) SaveProjects(ctx context.Context, projects []checklist.Project) error {
	return s.save(ctx, keyProjects, projects)
}

// LoadAudit returns the audit log, newest first as stored. Corruption
// degrades to an empty log, same as LoadProjects.
func (s *Store) LoadAudit(ctx context.Context) ([]audit.Entry, error) {
	body, ok, err := s.loadBody(ctx, keyAudit)
	if err != nil {
		return nil, err
	}
	entries := []audit.Entry{}
	if !ok {
		return entries, nil
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		s.logger.Warn("discarding unparseable collection", "key", keyAudit, "error", err)
		return []audit.Entry{}, nil
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	return entries, nil
}

// SaveAudit replaces the whole audit log.
func (s *Store) SaveAudit(ctx context.Context, entries []audit.Entry) error {
	return s.save(ctx, keyAudit, entries)
}

func (s *Store) loadBody(ctx context.Context, key string) ([]byte, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM collections WHERE key = ?`, key,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load collection %s: %w", key, err)
	}
	return []byte(body), true, nil
}

func (s *Store) save(ctx context.Context, key string, value any) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO collections (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, key, string(body), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save collection %s: %w", key, err)
	}
	return nil
}
