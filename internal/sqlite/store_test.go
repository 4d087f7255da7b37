package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mfeldt/stencil/internal/domain/audit"
	"github.com/mfeldt/stencil/internal/domain/checklist"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", "collections").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count, "collections table not found")
}

func TestStore_ProjectsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewTestDB(t), nil)

	// Empty database reads as an empty, non-nil collection.
	projects, err := store.LoadProjects(ctx)
	require.NoError(t, err)
	require.NotNil(t, projects)
	require.Empty(t, projects)

	now := time.Now().UTC().Truncate(time.Second)
	seed := []checklist.Project{{
		ID:              "p1",
		TemplateID:      "launch",
		TemplateVersion: "v1",
		TemplateName:    "Launch Checklist",
		CreatedAt:       now,
		Items: []checklist.Item{
			{ID: "a1", SectionID: "a", SectionTitle: "Alpha", Status: checklist.StatusDone, Notes: "checked"},
		},
		NASections: []string{"b"},
	}}

	require.NoError(t, store.SaveProjects(ctx, seed))

	loaded, err := store.LoadProjects(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "p1", loaded[0].ID)
	require.True(t, loaded[0].CreatedAt.Equal(now))
	require.Equal(t, []string{"b"}, loaded[0].NASections)
	require.Equal(t, checklist.StatusDone, loaded[0].Items[0].Status)

	// Save replaces the whole collection.
	require.NoError(t, store.SaveProjects(ctx, []checklist.Project{}))
	loaded, err = store.LoadProjects(ctx)
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestStore_AuditRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewTestDB(t), nil)

	entries := []audit.Entry{
		{Event: audit.EventProjectUpgraded, OldID: "p1", NewID: "p2", NewVersion: "v2", At: time.Now().UTC()},
		{Event: audit.EventProjectCreated, ProjectID: "p1", At: time.Now().UTC().Add(-time.Minute)},
	}
	require.NoError(t, store.SaveAudit(ctx, entries))

	loaded, err := store.LoadAudit(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, audit.EventProjectUpgraded, loaded[0].Event)
	require.Equal(t, "v2", loaded[0].NewVersion)
}

func TestStore_CorruptCollectionDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	db := NewTestDB(t)
	store := NewStore(db, nil)

	_, err := db.ExecContext(ctx,
		`INSERT INTO collections (key, body) VALUES (?, ?)`,
		keyProjects, `{"this is": "not an array`)
	require.NoError(t, err)

	projects, err := store.LoadProjects(ctx)
	require.NoError(t, err)
	require.NotNil(t, projects)
	require.Empty(t, projects)

	// A later save overwrites the corrupt body and reads recover.
	require.NoError(t, store.SaveProjects(ctx, []checklist.Project{{ID: "p1"}}))
	projects, err = store.LoadProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
}

func TestStore_NullBodyDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	db := NewTestDB(t)
	store := NewStore(db, nil)

	_, err := db.ExecContext(ctx,
		`INSERT INTO collections (key, body) VALUES (?, ?)`,
		keyAudit, `null`)
	require.NoError(t, err)

	entries, err := store.LoadAudit(ctx)
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}
