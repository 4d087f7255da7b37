package checklist

import (
	"context"

	"github.com/mfeldt/stencil/internal/domain/audit"
)

// Store provides whole-collection persistence for projects. Each mutation
// rewrites the full project record; no partial-field persistence is assumed.
type Store interface {
	LoadProjects(ctx context.Context) ([]Project, error)
	SaveProjects(ctx context.Context, projects []Project) error
}

// Recorder appends entries to the audit trail.
type Recorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}
