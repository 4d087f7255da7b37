package mocks

import (
	"context"

	"github.com/mfeldt/stencil/internal/domain/audit"
	"github.com/mfeldt/stencil/internal/domain/checklist"
	"github.com/mfeldt/stencil/internal/domain/template"
	"github.com/stretchr/testify/mock"
)

// ProjectStore is a mock for repository.ProjectStore.
type ProjectStore struct {
	mock.Mock
}

func (m *ProjectStore) LoadProjects(ctx context.Context) ([]checklist.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]checklist.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectStore) SaveProjects(ctx context.Context, projects []checklist.Project) error {
	args := m.Called(ctx, projects)
	return args.Error(0)
}

// AuditStore is a mock for repository.AuditStore.
type AuditStore struct {
	mock.Mock
}

func (m *AuditStore) LoadAudit(ctx context.Context) ([]audit.Entry, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]audit.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuditStore) SaveAudit(ctx context.Context, entries []audit.Entry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

// Store is a mock for repository.Store.
type Store struct {
	mock.Mock
}

func (m *Store) LoadProjects(ctx context.Context) ([]checklist.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]checklist.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) SaveProjects(ctx context.Context, projects []checklist.Project) error {
	args := m.Called(ctx, projects)
	return args.Error(0)
}

func (m *Store) LoadAudit(ctx context.Context) ([]audit.Entry, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]audit.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) SaveAudit(ctx context.Context, entries []audit.Entry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

// Catalog is a mock for template.Catalog.
type Catalog struct {
	mock.Mock
}

func (m *Catalog) FetchIndex(ctx context.Context) ([]template.Summary, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]template.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Catalog) FetchVersionDocument(ctx context.Context, templateID, file string) (*template.Document, error) {
	args := m.Called(ctx, templateID, file)
	if doc, ok := args.Get(0).(*template.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

// Recorder is a mock for the audit recorder used by services.
type Recorder struct {
	mock.Mock
}

func (m *Recorder) Record(ctx context.Context, entry audit.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
