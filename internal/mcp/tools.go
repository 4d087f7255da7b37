package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfeldt/stencil/internal/domain/audit"
	"github.com/mfeldt/stencil/internal/domain/checklist"
	"github.com/mfeldt/stencil/internal/domain/progress"
	"github.com/mfeldt/stencil/internal/domain/template"
	"github.com/mfeldt/stencil/internal/transfer"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type handlers struct {
	services Services
	logger   *slog.Logger
}

func registerTools(server *sdkmcp.Server, h *handlers) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_templates",
		Description: "List the template catalog with current and available versions",
	}, h.listTemplates)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_template",
		Description: "Get one catalog entry including its full version history",
	}, h.getTemplate)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Start a new checklist project from a template (latest version unless one is given)",
	}, h.createProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List all projects with status and applicable progress",
	}, h.listProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get a project with items grouped by section, progress, and the level/XP view",
	}, h.getProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_item",
		Description: "Update a checklist item's status, notes, flag, or applicability",
	}, h.updateItem)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_section_na",
		Description: "Mark or unmark a whole section as not applicable (idempotent)",
	}, h.setSectionNA)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "complete_project",
		Description: "Mark a project completed",
	}, h.completeProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "project_status",
		Description: "Get a project's derived status and applicable progress without the item list",
	}, h.projectStatus)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "upgrade_project",
		Description: "Re-snapshot a project against the latest template version, superseding the old one",
	}, h.upgradeProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "recent_activity",
		Description: "List recent audit trail entries, newest first",
	}, h.recentActivity)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "export_data",
		Description: "Export the whole project collection and audit log",
	}, h.exportData)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "import_data",
		Description: "Replace the project collection (and audit log, if present) from an export document",
	}, h.importData)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "export_project",
		Description: "Export one project record standalone",
	}, h.exportProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "draft_template_revision",
		Description: "Propose the next template revision: re-stamped document plus a catalog index fragment",
	}, h.draftTemplateRevision)
}

// --- Templates ---

type listTemplatesInput struct{}

// TemplateInfo is a catalog row with the resolved latest version.
type TemplateInfo struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	CurrentVersion string   `json:"current_version"`
	LatestVersion  string   `json:"latest_version,omitempty"`
	Versions       []string `json:"versions"`
}

type listTemplatesResult struct {
	Templates []TemplateInfo `json:"templates"`
}

func (h *handlers) listTemplates(ctx context.Context, _ *sdkmcp.CallToolRequest, _ listTemplatesInput) (*sdkmcp.CallToolResult, listTemplatesResult, error) {
	index, err := h.services.Catalog.FetchIndex(ctx)
	if err != nil {
		return nil, listTemplatesResult{}, MapError(err)
	}
	infos := make([]TemplateInfo, 0, len(index))
	for _, summary := range index {
		infos = append(infos, summarizeTemplate(summary))
	}
	return nil, listTemplatesResult{Templates: infos}, nil
}

type getTemplateInput struct {
	TemplateID string `json:"template_id" jsonschema:"template identifier"`
}

type getTemplateResult struct {
	Template template.Summary `json:"template"`
	Latest   string           `json:"latest_version,omitempty"`
}

func (h *handlers) getTemplate(ctx context.Context, _ *sdkmcp.CallToolRequest, in getTemplateInput) (*sdkmcp.CallToolResult, getTemplateResult, error) {
	summary, err := h.findTemplate(ctx, in.TemplateID)
	if err != nil {
		return nil, getTemplateResult{}, MapError(err)
	}
	out := getTemplateResult{Template: summary}
	if latest := template.LatestVersion(summary); latest != nil {
		out.Latest = latest.Version
	}
	return nil, out, nil
}

// --- Projects ---

type createProjectInput struct {
	TemplateID string `json:"template_id" jsonschema:"template identifier"`
	Version    string `json:"version,omitempty" jsonschema:"template version (defaults to the latest)"`
}

type projectResult struct {
	Project *checklist.Project `json:"project"`
	Status  checklist.State    `json:"status"`
}

func (h *handlers) createProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in createProjectInput) (*sdkmcp.CallToolResult, projectResult, error) {
	summary, err := h.findTemplate(ctx, in.TemplateID)
	if err != nil {
		return nil, projectResult{}, MapError(err)
	}
	doc, version, err := h.fetchVersion(ctx, summary, in.Version)
	if err != nil {
		return nil, projectResult{}, MapError(err)
	}
	proj, err := h.services.Checklist.CreateFromTemplate(ctx, summary.ID, version, doc)
	if err != nil {
		return nil, projectResult{}, MapError(err)
	}
	return nil, projectResult{Project: proj, Status: proj.Status()}, nil
}

type listProjectsInput struct{}

// ProjectInfo is a listing row: provenance, derived status, and progress.
type ProjectInfo struct {
	ID              string          `json:"id"`
	TemplateID      string          `json:"template_id"`
	TemplateVersion string          `json:"template_version"`
	TemplateName    string          `json:"template_name"`
	Status          checklist.State `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	Progress        progress.Counts `json:"progress"`
	NeedsReview     int             `json:"needs_review"`
	SupersededBy    string          `json:"superseded_by,omitempty"`
	UpgradedFrom    string          `json:"upgraded_from,omitempty"`
}

type listProjectsResult struct {
	Projects []ProjectInfo `json:"projects"`
}

func (h *handlers) listProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, _ listProjectsInput) (*sdkmcp.CallToolResult, listProjectsResult, error) {
	projects, err := h.services.Checklist.List(ctx)
	if err != nil {
		return nil, listProjectsResult{}, MapError(err)
	}
	infos := make([]ProjectInfo, 0, len(projects))
	for i := range projects {
		p := &projects[i]
		infos = append(infos, ProjectInfo{
			ID:              p.ID,
			TemplateID:      p.TemplateID,
			TemplateVersion: p.TemplateVersion,
			TemplateName:    p.TemplateName,
			Status:          p.Status(),
			CreatedAt:       p.CreatedAt,
			Progress:        progress.ApplicableCounts(p),
			NeedsReview:     p.NeedsReview(),
			SupersededBy:    p.SupersededBy,
			UpgradedFrom:    p.UpgradedFrom,
		})
	}
	return nil, listProjectsResult{Projects: infos}, nil
}

type getProjectInput struct {
	ProjectID string `json:"project_id" jsonschema:"project identifier"`
}

type getProjectResult struct {
	Project      *checklist.Project     `json:"project"`
	Status       checklist.State        `json:"status"`
	Sections     []progress.SectionView `json:"sections"`
	Progress     progress.Counts        `json:"progress"`
	Gamification progress.Gamification  `json:"gamification"`
	NeedsReview  int                    `json:"needs_review"`
	NewerVersion bool                   `json:"newer_version_available"`
}

func (h *handlers) getProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in getProjectInput) (*sdkmcp.CallToolResult, getProjectResult, error) {
	proj, err := h.services.Checklist.Get(ctx, in.ProjectID)
	if err != nil {
		return nil, getProjectResult{}, MapError(err)
	}
	return nil, getProjectResult{
		Project:      proj,
		Status:       proj.Status(),
		Sections:     progress.Sections(proj),
		Progress:     progress.ApplicableCounts(proj),
		Gamification: progress.Gamify(proj),
		NeedsReview:  proj.NeedsReview(),
		NewerVersion: h.newerVersionAvailable(ctx, proj),
	}, nil
}

type updateItemInput struct {
	ProjectID string  `json:"project_id" jsonschema:"project identifier"`
	ItemID    string  `json:"item_id" jsonschema:"checklist item identifier"`
	Status    *string `json:"status,omitempty" jsonschema:"new status: pending or done"`
	Notes     *string `json:"notes,omitempty" jsonschema:"replacement notes text"`
	Flagged   *bool   `json:"flagged,omitempty" jsonschema:"flag for follow-up"`
	NA        *bool   `json:"na,omitempty" jsonschema:"mark the single item not applicable"`
}

func (h *handlers) updateItem(ctx context.Context, _ *sdkmcp.CallToolRequest, in updateItemInput) (*sdkmcp.CallToolResult, projectResult, error) {
	req := checklist.ItemUpdate{Notes: in.Notes, Flagged: in.Flagged, NA: in.NA}
	if in.Status != nil {
		status := checklist.ItemStatus(*in.Status)
		if status != checklist.StatusPending && status != checklist.StatusDone {
			return nil, projectResult{}, MapError(fmt.Errorf("%w: status %q", checklist.ErrInvalidInput, *in.Status))
		}
		req.Status = &status
	}
	proj, err := h.services.Checklist.UpdateItem(ctx, in.ProjectID, in.ItemID, req)
	if err != nil {
		return nil, projectResult{}, MapError(err)
	}
	return nil, projectResult{Project: proj, Status: proj.Status()}, nil
}

type setSectionNAInput struct {
	ProjectID string `json:"project_id" jsonschema:"project identifier"`
	SectionID string `json:"section_id" jsonschema:"section identifier"`
	NA        bool   `json:"na" jsonschema:"true to exclude the section, false to restore it"`
}

func (h *handlers) setSectionNA(ctx context.Context, _ *sdkmcp.CallToolRequest, in setSectionNAInput) (*sdkmcp.CallToolResult, projectResult, error) {
	proj, err := h.services.Checklist.SetSectionNA(ctx, in.ProjectID, in.SectionID, in.NA)
	if err != nil {
		return nil, projectResult{}, MapError(err)
	}
	return nil, projectResult{Project: proj, Status: proj.Status()}, nil
}

type completeProjectInput struct {
	ProjectID string `json:"project_id" jsonschema:"project identifier"`
}

func (h *handlers) completeProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in completeProjectInput) (*sdkmcp.CallToolResult, projectResult, error) {
	proj, err := h.services.Checklist.Complete(ctx, in.ProjectID)
	if err != nil {
		return nil, projectResult{}, MapError(err)
	}
	return nil, projectResult{Project: proj, Status: proj.Status()}, nil
}

type projectStatusInput struct {
	ProjectID string `json:"project_id" jsonschema:"project identifier"`
}

type projectStatusResult struct {
	ProjectID    string          `json:"project_id"`
	Status       checklist.State `json:"status"`
	Progress     progress.Counts `json:"progress"`
	Percent      int             `json:"percent"`
	NeedsReview  int             `json:"needs_review"`
	SupersededBy string          `json:"superseded_by,omitempty"`
	NewerVersion bool            `json:"newer_version_available"`
}

func (h *handlers) projectStatus(ctx context.Context, _ *sdkmcp.CallToolRequest, in projectStatusInput) (*sdkmcp.CallToolResult, projectStatusResult, error) {
	proj, err := h.services.Checklist.Get(ctx, in.ProjectID)
	if err != nil {
		return nil, projectStatusResult{}, MapError(err)
	}
	counts := progress.ApplicableCounts(proj)
	return nil, projectStatusResult{
		ProjectID:    proj.ID,
		Status:       proj.Status(),
		Progress:     counts,
		Percent:      progress.Percent(counts),
		NeedsReview:  proj.NeedsReview(),
		SupersededBy: proj.SupersededBy,
		NewerVersion: h.newerVersionAvailable(ctx, proj),
	}, nil
}

type upgradeProjectInput struct {
	ProjectID string `json:"project_id" jsonschema:"project identifier"`
}

type upgradeProjectResult struct {
	Project    *checklist.Project `json:"project"`
	OldID      string             `json:"old_id"`
	NewVersion string             `json:"new_version"`
}

func (h *handlers) upgradeProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in upgradeProjectInput) (*sdkmcp.CallToolResult, upgradeProjectResult, error) {
	proj, err := h.services.Checklist.Get(ctx, in.ProjectID)
	if err != nil {
		return nil, upgradeProjectResult{}, MapError(err)
	}
	summary, err := h.findTemplate(ctx, proj.TemplateID)
	if err != nil {
		return nil, upgradeProjectResult{}, MapError(err)
	}
	latest := template.LatestVersion(summary)
	if latest == nil || latest.Version == proj.TemplateVersion {
		return nil, upgradeProjectResult{}, &APIError{
			Code:         "ALREADY_CURRENT",
			Message:      "project is already on the latest template version",
			RecoveryHint: "Nothing to do; check get_template for the version list",
		}
	}
	doc, err := h.services.Catalog.FetchVersionDocument(ctx, summary.ID, latest.File)
	if err != nil {
		return nil, upgradeProjectResult{}, MapError(err)
	}
	newProj, err := h.services.Checklist.Upgrade(ctx, proj.ID, summary.ID, latest.Version, doc)
	if err != nil {
		return nil, upgradeProjectResult{}, MapError(err)
	}
	return nil, upgradeProjectResult{Project: newProj, OldID: proj.ID, NewVersion: latest.Version}, nil
}

// --- Audit and transfer ---

type recentActivityInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum entries to return"`
}

type recentActivityResult struct {
	Entries []audit.Entry `json:"entries"`
}

func (h *handlers) recentActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in recentActivityInput) (*sdkmcp.CallToolResult, recentActivityResult, error) {
	entries, err := h.services.Audit.Recent(ctx, in.Limit)
	if err != nil {
		return nil, recentActivityResult{}, MapError(err)
	}
	return nil, recentActivityResult{Entries: entries}, nil
}

type exportDataInput struct{}

type exportDataResult struct {
	Snapshot *transfer.Snapshot `json:"snapshot"`
}

func (h *handlers) exportData(ctx context.Context, _ *sdkmcp.CallToolRequest, _ exportDataInput) (*sdkmcp.CallToolResult, exportDataResult, error) {
	snapshot, err := h.services.Transfer.ExportAll(ctx)
	if err != nil {
		return nil, exportDataResult{}, MapError(err)
	}
	return nil, exportDataResult{Snapshot: snapshot}, nil
}

type importDataInput struct {
	Data string `json:"data" jsonschema:"the export document as JSON text"`
}

type importDataResult struct {
	Message string `json:"message"`
}

func (h *handlers) importData(ctx context.Context, _ *sdkmcp.CallToolRequest, in importDataInput) (*sdkmcp.CallToolResult, importDataResult, error) {
	if err := h.services.Transfer.Import(ctx, []byte(in.Data)); err != nil {
		return nil, importDataResult{}, MapError(err)
	}
	return nil, importDataResult{Message: "import complete"}, nil
}

type exportProjectInput struct {
	ProjectID string `json:"project_id" jsonschema:"project identifier"`
}

type exportProjectResult struct {
	Project *checklist.Project `json:"project"`
}

func (h *handlers) exportProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in exportProjectInput) (*sdkmcp.CallToolResult, exportProjectResult, error) {
	proj, err := h.services.Transfer.ExportProject(ctx, in.ProjectID)
	if err != nil {
		return nil, exportProjectResult{}, MapError(err)
	}
	return nil, exportProjectResult{Project: proj}, nil
}

type draftRevisionInput struct {
	TemplateID string `json:"template_id" jsonschema:"template identifier"`
	Version    string `json:"version,omitempty" jsonschema:"base version to draft from (defaults to the latest)"`
}

type draftRevisionResult struct {
	Revision transfer.Revision `json:"revision"`
}

func (h *handlers) draftTemplateRevision(ctx context.Context, _ *sdkmcp.CallToolRequest, in draftRevisionInput) (*sdkmcp.CallToolResult, draftRevisionResult, error) {
	summary, err := h.findTemplate(ctx, in.TemplateID)
	if err != nil {
		return nil, draftRevisionResult{}, MapError(err)
	}
	doc, _, err := h.fetchVersion(ctx, summary, in.Version)
	if err != nil {
		return nil, draftRevisionResult{}, MapError(err)
	}
	return nil, draftRevisionResult{Revision: transfer.DraftRevision(*doc)}, nil
}

// --- Helpers ---

func (h *handlers) findTemplate(ctx context.Context, templateID string) (template.Summary, error) {
	index, err := h.services.Catalog.FetchIndex(ctx)
	if err != nil {
		return template.Summary{}, err
	}
	for _, summary := range index {
		if summary.ID == templateID {
			return summary, nil
		}
	}
	return template.Summary{}, fmt.Errorf("%w: %s", template.ErrTemplateNotFound, templateID)
}

// fetchVersion resolves a version (latest when empty) and fetches its document.
func (h *handlers) fetchVersion(ctx context.Context, summary template.Summary, version string) (*template.Document, string, error) {
	var desc *template.VersionDescriptor
	if version == "" {
		desc = template.LatestVersion(summary)
	} else {
		desc = template.VersionInfo(summary, version)
	}
	if desc == nil {
		return nil, "", fmt.Errorf("%w: %s has no version %q", template.ErrTemplateNotFound, summary.ID, version)
	}
	doc, err := h.services.Catalog.FetchVersionDocument(ctx, summary.ID, desc.File)
	if err != nil {
		return nil, "", err
	}
	return doc, desc.Version, nil
}

// newerVersionAvailable is advisory: catalog failures degrade to false
// rather than failing the project read.
func (h *handlers) newerVersionAvailable(ctx context.Context, proj *checklist.Project) bool {
	summary, err := h.findTemplate(ctx, proj.TemplateID)
	if err != nil {
		return false
	}
	return template.HasNewerVersion(summary, proj.TemplateVersion)
}

func summarizeTemplate(summary template.Summary) TemplateInfo {
	versions := make([]string, 0, len(summary.Versions))
	for _, v := range summary.Versions {
		versions = append(versions, v.Version)
	}
	info := TemplateInfo{
		ID:             summary.ID,
		Name:           summary.Name,
		CurrentVersion: summary.CurrentVersion,
		Versions:       versions,
	}
	if latest := template.LatestVersion(summary); latest != nil {
		info.LatestVersion = latest.Version
	}
	return info
}
