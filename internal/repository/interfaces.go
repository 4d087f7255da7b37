package repository

import (
	"context"

	"github.com/mfeldt/stencil/internal/domain/audit"
	"github.com/mfeldt/stencil/internal/domain/checklist"
)

// ProjectStore persists the project collection as a single unit.
// There is exactly one logical writer, so every mutation is a
// whole-collection read-modify-write cycle.
type ProjectStore interface {
	LoadProjects(ctx context.Context) ([]checklist.Project, error)
	SaveProjects(ctx context.Context, projects []checklist.Project) error
}

// AuditStore persists the audit log as a single unit.
type AuditStore interface {
	LoadAudit(ctx context.Context) ([]audit.Entry, error)
	SaveAudit(ctx context.Context, entries []audit.Entry) error
}

// Store combines both collections behind one durable backend.
type Store interface {
	ProjectStore
	AuditStore
}
