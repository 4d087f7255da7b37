package mcp

import (
	"context"
	"log/slog"

	"github.com/mfeldt/stencil/internal/domain/audit"
	"github.com/mfeldt/stencil/internal/domain/checklist"
	"github.com/mfeldt/stencil/internal/domain/template"
	"github.com/mfeldt/stencil/internal/transfer"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ChecklistService defines lifecycle operations needed by MCP.
type ChecklistService interface {
	CreateFromTemplate(ctx context.Context, templateID, templateVersion string, doc *template.Document) (*checklist.Project, error)
	Get(ctx context.Context, id string) (*checklist.Project, error)
	List(ctx context.Context) ([]checklist.Project, error)
	UpdateItem(ctx context.Context, projectID, itemID string, req checklist.ItemUpdate) (*checklist.Project, error)
	SetSectionNA(ctx context.Context, projectID, sectionID string, na bool) (*checklist.Project, error)
	Complete(ctx context.Context, projectID string) (*checklist.Project, error)
	Upgrade(ctx context.Context, oldID, templateID, newVersion string, doc *template.Document) (*checklist.Project, error)
}

// AuditService defines audit operations needed by MCP.
type AuditService interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
}

// TransferService defines export/import operations needed by MCP.
type TransferService interface {
	ExportAll(ctx context.Context) (*transfer.Snapshot, error)
	ExportProject(ctx context.Context, projectID string) (*checklist.Project, error)
	Import(ctx context.Context, raw []byte) error
}

// Services contains all domain services needed by MCP.
type Services struct {
	Checklist ChecklistService
	Audit     AuditService
	Transfer  TransferService
	Catalog   template.Catalog
}

// Config contains server configuration.
type Config struct {
	Services Services
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "stencil",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, &handlers{services: cfg.Services, logger: cfg.Logger})

	return server
}
