package checklist

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mfeldt/stencil/internal/domain/audit"
	"github.com/mfeldt/stencil/internal/domain/template"
)

// Service is the project lifecycle engine: it creates, mutates, and
// supersedes project snapshots. All mutations are serialized behind one
// mutex because persistence is whole-collection read-modify-write; there
// is exactly one logical writer at a time.
type Service struct {
	mu       sync.Mutex
	store    Store
	recorder Recorder
	logger   *slog.Logger
}

// NewService creates a new lifecycle service.
func NewService(store Store, recorder Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: store, recorder: recorder, logger: logger}
}

// UpdateRequest carries a shallow merge: non-nil fields fully replace the
// stored values, including whole-array replacement for Items/NASections.
type UpdateRequest struct {
	Items        *[]Item
	NASections   *[]string
	CompletedAt  *time.Time
	SupersededBy *string
	UpgradedFrom *string
}

// ItemUpdate carries a partial item mutation. UpdatedAt is always
// force-set by the service.
type ItemUpdate struct {
	Status  *ItemStatus
	Notes   *string
	Flagged *bool
	NA      *bool
}

// CreateFromTemplate flattens the document's sections into a fresh project
// snapshot and inserts it at the front of the persisted collection.
func (s *Service) CreateFromTemplate(ctx context.Context, templateID, templateVersion string, doc *template.Document) (*Project, error) {
	proj, err := s.createSnapshot(ctx, templateID, templateVersion, doc, "")
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.Entry{
		Event:      audit.EventProjectCreated,
		ProjectID:  proj.ID,
		TemplateID: templateID,
		Version:    templateVersion,
	})
	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	projects, err := s.store.LoadProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}
	for i := range projects {
		if projects[i].ID == id {
			proj := projects[i]
			return &proj, nil
		}
	}
	return nil, ErrProjectNotFound
}

// List returns all projects, most recent first.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	projects, err := s.store.LoadProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}
	return projects, nil
}

// Update merges the non-nil request fields into the stored record.
func (s *Service) Update(ctx context.Context, projectID string, req UpdateRequest) (*Project, error) {
	return s.mutate(ctx, projectID, func(p *Project) error {
		applyUpdate(p, req)
		return nil
	})
}

// UpdateItem locates the item by id, merges the given fields, and stamps
// UpdatedAt with the current time.
func (s *Service) UpdateItem(ctx context.Context, projectID, itemID string, req ItemUpdate) (*Project, error) {
	return s.mutate(ctx, projectID, func(p *Project) error {
		for i := range p.Items {
			if p.Items[i].ID != itemID {
				continue
			}
			item := &p.Items[i]
			if req.Status != nil {
				item.Status = *req.Status
			}
			if req.Notes != nil {
				item.Notes = *req.Notes
			}
			if req.Flagged != nil {
				item.Flagged = *req.Flagged
			}
			if req.NA != nil {
				item.NA = *req.NA
			}
			now := time.Now()
			item.UpdatedAt = &now
			return nil
		}
		return ErrItemNotFound
	})
}

// Complete stamps CompletedAt with the current time.
func (s *Service) Complete(ctx context.Context, projectID string) (*Project, error) {
	now := time.Now()
	return s.Update(ctx, projectID, UpdateRequest{CompletedAt: &now})
}

// SetSectionNA toggles whole-section applicability. Idempotent: adding a
// present section or removing an absent one is a no-op on membership.
func (s *Service) SetSectionNA(ctx context.Context, projectID, sectionID string, na bool) (*Project, error) {
	return s.mutate(ctx, projectID, func(p *Project) error {
		present := p.SectionNA(sectionID)
		switch {
		case na && !present:
			p.NASections = append(p.NASections, sectionID)
		case !na && present:
			kept := p.NASections[:0]
			for _, id := range p.NASections {
				if id != sectionID {
					kept = append(kept, id)
				}
			}
			p.NASections = kept
		}
		return nil
	})
}

// Supersede marks the old project as replaced by newID. SupersededBy is
// set exactly once and never cleared.
func (s *Service) Supersede(ctx context.Context, oldID, newID string) error {
	if _, err := s.mutate(ctx, oldID, func(p *Project) error {
		p.SupersededBy = newID
		return nil
	}); err != nil {
		return err
	}
	s.record(ctx, audit.Entry{
		Event: audit.EventProjectSuperseded,
		OldID: oldID,
		NewID: newID,
	})
	return nil
}

// Upgrade re-snapshots a project against a newer template version. The
// successor is fully persisted with UpgradedFrom set before the old
// project is marked superseded, so a failure between the two steps leaves
// the old project still active rather than pointing at a half-created
// successor. No rollback is attempted on a supersede failure.
func (s *Service) Upgrade(ctx context.Context, oldID, templateID, newVersion string, doc *template.Document) (*Project, error) {
	if _, err := s.Get(ctx, oldID); err != nil {
		return nil, err
	}

	newProj, err := s.createSnapshot(ctx, templateID, newVersion, doc, oldID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.Entry{
		Event:      audit.EventProjectCreated,
		ProjectID:  newProj.ID,
		TemplateID: templateID,
		Version:    newVersion,
	})

	if err := s.Supersede(ctx, oldID, newProj.ID); err != nil {
		return nil, fmt.Errorf("superseding project %s: %w", oldID, err)
	}

	s.record(ctx, audit.Entry{
		Event:      audit.EventProjectUpgraded,
		OldID:      oldID,
		NewID:      newProj.ID,
		TemplateID: templateID,
		NewVersion: newVersion,
	})
	return newProj, nil
}

// createSnapshot materializes a project from a template document and
// inserts it at the front of the collection.
func (s *Service) createSnapshot(ctx context.Context, templateID, templateVersion string, doc *template.Document, upgradedFrom string) (*Project, error) {
	if doc == nil {
		return nil, ErrInvalidInput
	}

	name := doc.Name
	if name == "" {
		name = templateID
	}

	items := make([]Item, 0)
	for _, sec := range doc.Sections {
		title := sec.Title
		if title == "" {
			title = sec.ID
		}
		for _, it := range sec.Items {
			items = append(items, Item{
				ID:           it.ID,
				SectionID:    sec.ID,
				SectionTitle: title,
				Text:         it.Text,
				Status:       StatusPending,
				Notes:        "",
				Flagged:      false,
				NA:           false,
				CodeRef:      it.CodeRef,
				Article:      it.Article,
				Comments:     it.Comments,
				Details:      it.DetailsText(),
			})
		}
	}

	proj := Project{
		ID:              uuid.NewString(),
		TemplateID:      templateID,
		TemplateVersion: templateVersion,
		TemplateName:    name,
		CreatedAt:       time.Now(),
		Items:           items,
		NASections:      []string{},
		UpgradedFrom:    upgradedFrom,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.store.LoadProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}
	projects = append([]Project{proj}, projects...)
	if err := s.store.SaveProjects(ctx, projects); err != nil {
		return nil, fmt.Errorf("saving projects: %w", err)
	}

	return &proj, nil
}

// mutate runs a read-modify-write cycle on one project under the writer lock.
func (s *Service) mutate(ctx context.Context, projectID string, apply func(p *Project) error) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.store.LoadProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}

	idx := -1
	for i := range projects {
		if projects[i].ID == projectID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrProjectNotFound
	}

	if err := apply(&projects[idx]); err != nil {
		return nil, err
	}

	if err := s.store.SaveProjects(ctx, projects); err != nil {
		return nil, fmt.Errorf("saving projects: %w", err)
	}

	proj := projects[idx]
	return &proj, nil
}

func applyUpdate(p *Project, req UpdateRequest) {
	if req.Items != nil {
		p.Items = *req.Items
	}
	if req.NASections != nil {
		p.NASections = *req.NASections
	}
	if req.CompletedAt != nil {
		p.CompletedAt = req.CompletedAt
	}
	if req.SupersededBy != nil {
		p.SupersededBy = *req.SupersededBy
	}
	if req.UpgradedFrom != nil {
		p.UpgradedFrom = *req.UpgradedFrom
	}
}

// record appends an audit entry. Audit is best-effort history: failures
// are logged, not propagated.
func (s *Service) record(ctx context.Context, entry audit.Entry) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, entry); err != nil {
		s.logger.Warn("audit entry dropped", "event", entry.Event, "error", err)
	}
}
