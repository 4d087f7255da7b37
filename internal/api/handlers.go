package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mfeldt/stencil/internal/domain/audit"
	"github.com/mfeldt/stencil/internal/domain/checklist"
	"github.com/mfeldt/stencil/internal/domain/progress"
	"github.com/mfeldt/stencil/internal/domain/template"
	"github.com/mfeldt/stencil/internal/transfer"
)

// ChecklistService defines lifecycle reads needed by the REST surface.
type ChecklistService interface {
	Get(ctx context.Context, id string) (*checklist.Project, error)
	List(ctx context.Context) ([]checklist.Project, error)
}

// AuditService defines audit reads needed by the REST surface.
type AuditService interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
}

// TransferService defines export/import operations needed by the REST surface.
type TransferService interface {
	ExportAll(ctx context.Context) (*transfer.Snapshot, error)
	ExportProject(ctx context.Context, projectID string) (*checklist.Project, error)
	Import(ctx context.Context, raw []byte) error
}

// Deps bundles everything the router needs.
type Deps struct {
	Checklist ChecklistService
	Audit     AuditService
	Transfer  TransferService
	Catalog   template.Catalog
	Logger    *slog.Logger
}

// Handler holds API route handlers.
type Handler struct {
	deps Deps
}

// NewHandler creates a new Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// DashboardResponse carries the KPI tiles.
type DashboardResponse struct {
	Active      int `json:"active"`
	Completed   int `json:"completed"`
	Outdated    int `json:"outdated"`
	NeedsReview int `json:"needs_review"`
}

// Dashboard handles GET /api/dashboard. The outdated KPI needs the
// catalog; when it is unreachable the tile degrades to zero instead of
// failing the whole dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	projects, err := h.deps.Checklist.List(r.Context())
	if err != nil {
		slog.Error("dashboard list failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	var resp DashboardResponse
	index, indexErr := h.deps.Catalog.FetchIndex(r.Context())
	byID := make(map[string]template.Summary, len(index))
	for _, summary := range index {
		byID[summary.ID] = summary
	}

	for i := range projects {
		p := &projects[i]
		if p.Status() == checklist.StateActive {
			resp.Active++
		}
		if p.CompletedAt != nil {
			resp.Completed++
		}
		if p.Status() == checklist.StateSuperseded {
			continue
		}
		resp.NeedsReview += p.NeedsReview()
		if indexErr == nil {
			if summary, ok := byID[p.TemplateID]; ok && template.HasNewerVersion(summary, p.TemplateVersion) {
				resp.Outdated++
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListTemplates handles GET /api/templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	index, err := h.deps.Catalog.FetchIndex(r.Context())
	if err != nil {
		slog.Error("list templates failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("template catalog unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": index})
}

// ProjectSummary is one row of GET /api/projects.
type ProjectSummary struct {
	ID              string          `json:"id"`
	TemplateID      string          `json:"template_id"`
	TemplateVersion string          `json:"template_version"`
	TemplateName    string          `json:"template_name"`
	Status          checklist.State `json:"status"`
	CreatedAt       string          `json:"created_at"`
	Progress        progress.Counts `json:"progress"`
	NeedsReview     int             `json:"needs_review"`
}

// ListProjects handles GET /api/projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.deps.Checklist.List(r.Context())
	if err != nil {
		slog.Error("list projects failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	rows := make([]ProjectSummary, 0, len(projects))
	for i := range projects {
		p := &projects[i]
		rows = append(rows, ProjectSummary{
			ID:              p.ID,
			TemplateID:      p.TemplateID,
			TemplateVersion: p.TemplateVersion,
			TemplateName:    p.TemplateName,
			Status:          p.Status(),
			CreatedAt:       p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			Progress:        progress.ApplicableCounts(p),
			NeedsReview:     p.NeedsReview(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": rows})
}

// GetProject handles GET /api/projects/{id}.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	proj, err := h.deps.Checklist.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, checklist.ErrProjectNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("project not found"))
			return
		}
		slog.Error("get project failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project":      proj,
		"status":       proj.Status(),
		"sections":     progress.Sections(proj),
		"progress":     progress.ApplicableCounts(proj),
		"gamification": progress.Gamify(proj),
		"needs_review": proj.NeedsReview(),
	})
}

// ExportProject handles GET /api/projects/{id}/export.
func (h *Handler) ExportProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	proj, err := h.deps.Transfer.ExportProject(r.Context(), id)
	if err != nil {
		if errors.Is(err, checklist.ErrProjectNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("project not found"))
			return
		}
		slog.Error("export project failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="stencil-project-`+id+`.json"`)
	writeJSON(w, http.StatusOK, proj)
}

// ExportAll handles GET /api/export.
func (h *Handler) ExportAll(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.deps.Transfer.ExportAll(r.Context())
	if err != nil {
		slog.Error("export failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// Import handles POST /api/import. The document is validated before any
// mutation; a rejected import leaves the store untouched.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("unreadable request body"))
		return
	}
	if err := h.deps.Transfer.Import(r.Context(), raw); err != nil {
		if errors.Is(err, transfer.ErrInvalidImport) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		slog.Error("import failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "import complete"})
}

// Audit handles GET /api/audit.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.deps.Audit.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("audit read failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
