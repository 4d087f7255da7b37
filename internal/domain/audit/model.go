package audit

import "time"

// Event identifies the kind of audit entry.
type Event string

const (
	EventProjectCreated    Event = "project_created"
	EventProjectSuperseded Event = "project_superseded"
	EventProjectUpgraded   Event = "project_upgraded"
	EventImport            Event = "import"
)

// Entry is one event in the audit trail. Fields beyond Event and At are
// populated depending on the event kind.
type Entry struct {
	Event      Event     `json:"event"`
	ProjectID  string    `json:"project_id,omitempty"`
	TemplateID string    `json:"template_id,omitempty"`
	Version    string    `json:"version,omitempty"`
	OldID      string    `json:"old_id,omitempty"`
	NewID      string    `json:"new_id,omitempty"`
	NewVersion string    `json:"new_version,omitempty"`
	Message    string    `json:"message,omitempty"`
	At         time.Time `json:"at"`
}
