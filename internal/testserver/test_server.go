package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/mfeldt/stencil/internal/catalog"
	"github.com/mfeldt/stencil/internal/domain/audit"
	"github.com/mfeldt/stencil/internal/domain/checklist"
	"github.com/mfeldt/stencil/internal/domain/template"
	"github.com/mfeldt/stencil/internal/mcp"
	"github.com/mfeldt/stencil/internal/sqlite"
	"github.com/mfeldt/stencil/internal/transfer"
)

// TestServer hosts a full stack over the streamable HTTP transport for
// end-to-end tests.
type TestServer struct {
	Server     *httptest.Server
	DB         *sqlite.DB
	CatalogDir string
}

// New starts a server backed by an in-memory database and a temp
// catalog directory seeded with templates.
func New(t *testing.T, templates ...template.Summary) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	catalogDir := t.TempDir()
	writeCatalogIndex(t, catalogDir, templates)

	store := sqlite.NewStore(db, nil)
	cat := catalog.NewCached(catalog.NewDir(catalogDir, nil))

	recorder := audit.NewRecorder(store, nil)
	checklistSvc := checklist.NewService(store, recorder, nil)
	transferSvc := transfer.NewService(store, recorder, nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Checklist: checklistSvc,
			Audit:     recorder,
			Transfer:  transferSvc,
			Catalog:   cat,
		},
	})

	handler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute, JSONResponse: true},
	)
	server := httptest.NewServer(handler)

	ts := &TestServer{
		Server:     server,
		DB:         db,
		CatalogDir: catalogDir,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddVersionDocument writes a full version document into the catalog
// directory under the file name its descriptor points at.
func (ts *TestServer) AddVersionDocument(t *testing.T, file string, doc template.Document) {
	t.Helper()
	writeJSONFile(t, filepath.Join(ts.CatalogDir, file), doc)
}

func writeCatalogIndex(t *testing.T, dir string, templates []template.Summary) {
	t.Helper()
	if templates == nil {
		templates = []template.Summary{}
	}
	writeJSONFile(t, filepath.Join(dir, "index.json"), templates)
}

func writeJSONFile(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}
