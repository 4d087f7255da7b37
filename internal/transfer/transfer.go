// Package transfer implements bulk export/import of the project
// collection and audit log, standalone single-project export, and the
// template-authoring draft that proposes the next catalog revision.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mfeldt/stencil/internal/domain/audit"
	"github.com/mfeldt/stencil/internal/domain/checklist"
	"github.com/mfeldt/stencil/internal/domain/template"
	"github.com/mfeldt/stencil/internal/repository"
)

// ErrInvalidImport indicates the import document failed shape validation.
// The store is left untouched when this is returned.
var ErrInvalidImport = errors.New("invalid import document")

// Snapshot is the bulk export format.
type Snapshot struct {
	ExportedAt time.Time           `json:"exported_at"`
	Projects   []checklist.Project `json:"projects"`
	Audit      []audit.Entry       `json:"audit"`
}

// Revision is the template-authoring export: a re-stamped document copy
// plus the suggested index fragment a human merges into the catalog. The
// core only computes it; it never writes back to the catalog.
type Revision struct {
	Document   template.Document          `json:"document"`
	Descriptor template.VersionDescriptor `json:"descriptor"`
}

// Recorder appends entries to the audit trail.
type Recorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Service handles export/import operations.
type Service struct {
	store    repository.Store
	recorder Recorder
	logger   *slog.Logger
}

// NewService creates a new transfer service.
func NewService(store repository.Store, recorder Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: store, recorder: recorder, logger: logger}
}

// ExportAll snapshots the project collection and audit log.
func (s *Service) ExportAll(ctx context.Context) (*Snapshot, error) {
	projects, err := s.store.LoadProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}
	entries, err := s.store.LoadAudit(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading audit log: %w", err)
	}
	return &Snapshot{ExportedAt: time.Now(), Projects: projects, Audit: entries}, nil
}

// ExportProject returns one project record for standalone serialization.
func (s *Service) ExportProject(ctx context.Context, projectID string) (*checklist.Project, error) {
	projects, err := s.store.LoadProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}
	for i := range projects {
		if projects[i].ID == projectID {
			proj := projects[i]
			return &proj, nil
		}
	}
	return nil, checklist.ErrProjectNotFound
}

// rawSnapshot defers decoding so shape can be validated before any
// store mutation.
type rawSnapshot struct {
	Projects json.RawMessage `json:"projects"`
	Audit    json.RawMessage `json:"audit"`
}

func (r rawSnapshot) validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Projects, validation.Required, validation.By(jsonArray)),
		validation.Field(&r.Audit, validation.By(jsonArrayIfPresent)),
	)
}

// Import replaces the entire project collection and, when present, the
// entire audit log, then appends one import audit entry. A document whose
// top-level projects field is not an array is rejected before any mutation.
func (s *Service) Import(ctx context.Context, raw []byte) error {
	var doc rawSnapshot
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if err := doc.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}

	var projects []checklist.Project
	if err := json.Unmarshal(doc.Projects, &projects); err != nil {
		return fmt.Errorf("%w: projects: %v", ErrInvalidImport, err)
	}
	var entries []audit.Entry
	hasAudit := len(doc.Audit) > 0 && !bytes.Equal(bytes.TrimSpace(doc.Audit), []byte("null"))
	if hasAudit {
		if err := json.Unmarshal(doc.Audit, &entries); err != nil {
			return fmt.Errorf("%w: audit: %v", ErrInvalidImport, err)
		}
	}

	if err := s.store.SaveProjects(ctx, projects); err != nil {
		return fmt.Errorf("saving projects: %w", err)
	}
	if hasAudit {
		if err := s.store.SaveAudit(ctx, entries); err != nil {
			return fmt.Errorf("saving audit log: %w", err)
		}
	}

	if err := s.recorder.Record(ctx, audit.Entry{
		Event:   audit.EventImport,
		Message: "Data imported from file",
	}); err != nil {
		s.logger.Warn("audit entry dropped", "event", audit.EventImport, "error", err)
	}

	s.logger.Info("import complete", "projects", len(projects), "audit_replaced", hasAudit)
	return nil
}

// DraftRevision proposes the next revision of a template: the document
// re-stamped with the next version tag and a matching index fragment.
func DraftRevision(doc template.Document) Revision {
	next := template.NextVersionNumber(doc.Version)
	doc.Version = next
	now := time.Now()
	return Revision{
		Document: doc,
		Descriptor: template.VersionDescriptor{
			Version:     next,
			File:        fmt.Sprintf("%s.%s.json", doc.ID, next),
			PublishedAt: &now,
		},
	}
}

func jsonArray(value any) error {
	raw, _ := value.(json.RawMessage)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return errors.New("must be a JSON array")
	}
	return nil
}

func jsonArrayIfPresent(value any) error {
	raw, _ := value.(json.RawMessage)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '[' {
		return errors.New("must be a JSON array")
	}
	return nil
}
