package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `stencil tracks checklist projects instantiated from versioned templates.

Core concepts:
- Template: a versioned document of sections and items, served by a read-only catalog.
- Project: a structural snapshot of one template version. Later template edits never change existing projects.
- Applicability: whole sections (set_section_na) and single items (update_item with na) can be excluded; excluded items never count toward progress.
- Lineage: upgrading re-snapshots a project against a newer template version. The old project is marked superseded and keeps pointing forward to its successor.

Workflow:
1) Browse the catalog: list_templates, get_template.
2) Start work: create_project (latest version unless version is given).
3) Work items: update_item for status/notes/flags, set_section_na for whole sections.
4) Watch progress: get_project returns grouped sections, applicable counts, and the level/XP view; project_status is the same check without the item list.
5) When get_project reports a newer template version, call upgrade_project.
6) Finish: complete_project. Superseded and completed projects stay readable forever.

Backup:
- export_data / import_data move the whole collection. Import replaces everything, so export first.
- export_project serializes one project standalone.
- draft_template_revision proposes the next version tag and index fragment for template authors; merging into the catalog is manual.

Docs:
- stencil://docs/lifecycle (states, lineage, and upgrade semantics)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "stencil://docs/lifecycle",
		Name:        "docs_lifecycle",
		Title:       "Project lifecycle",
		Description: "How project states, applicability, and template upgrades behave.",
		Content: `# Project lifecycle

## States

A project's state is derived, never stored: superseded wins over completed,
which wins over active. A project with both completed_at and superseded_by
reports superseded.

## Applicability

Two independent exclusion mechanisms exist: a section id in na_sections, or
an item's own na flag. An item is applicable only when neither applies.
A project with zero applicable items is valid and reports 0% progress.

## Upgrades

upgrade_project snapshots the newest template version into a fresh project
and links lineage both ways: old.superseded_by points forward, and
new.upgraded_from points backward. The successor is fully persisted before
the predecessor is marked superseded, so an interrupted upgrade leaves the
old project active rather than referencing a half-created successor.
Superseded projects are read-only for status purposes and drop out of
active counts, but remain viewable and exportable.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
