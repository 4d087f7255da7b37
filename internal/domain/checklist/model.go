package checklist

import (
	"strings"
	"time"
)

// ItemStatus is the completion state of a checklist item.
// Transitions are pending<->done only.
type ItemStatus string

const (
	StatusPending ItemStatus = "pending"
	StatusDone    ItemStatus = "done"
)

// State is the derived lifecycle state of a project.
type State string

const (
	StateActive     State = "active"
	StateCompleted  State = "completed"
	StateSuperseded State = "superseded"
)

// Project is the mutable unit of work: a snapshot of a template version
// worked through item by item. Items are a structural copy of the template
// document, so later template edits never retroactively affect it.
type Project struct {
	ID              string     `json:"id"`
	TemplateID      string     `json:"template_id"`
	TemplateVersion string     `json:"template_version"`
	TemplateName    string     `json:"template_name"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	Items           []Item     `json:"items"`
	NASections      []string   `json:"na_sections"`
	SupersededBy    string     `json:"superseded_by,omitempty"`
	UpgradedFrom    string     `json:"upgraded_from,omitempty"`
}

// Item is one checklist entry, materialized from a template item at
// project creation. ID is unique within a project (inherited from the
// template item id). Section grouping is reconstructed from SectionID;
// it is not stored separately.
type Item struct {
	ID           string     `json:"id"`
	SectionID    string     `json:"sectionId"`
	SectionTitle string     `json:"sectionTitle"`
	Text         string     `json:"text"`
	Status       ItemStatus `json:"status"`
	Notes        string     `json:"notes"`
	UpdatedAt    *time.Time `json:"updated_at"`
	Flagged      bool       `json:"flagged"`
	NA           bool       `json:"na"`
	CodeRef      string     `json:"code_ref,omitempty"`
	Article      string     `json:"article,omitempty"`
	Comments     string     `json:"comments,omitempty"`
	Details      string     `json:"details,omitempty"`
}

// Status derives the lifecycle state. Superseded takes priority over
// completed, which takes priority over active. Pure; no I/O.
func (p *Project) Status() State {
	if p.SupersededBy != "" {
		return StateSuperseded
	}
	if p.CompletedAt != nil {
		return StateCompleted
	}
	return StateActive
}

// NeedsReview counts items that are still pending but carry non-blank
// notes. A KPI signal, not a blocking gate.
func (p *Project) NeedsReview() int {
	n := 0
	for _, item := range p.Items {
		if item.Status == StatusPending && strings.TrimSpace(item.Notes) != "" {
			n++
		}
	}
	return n
}

// SectionNA reports whether a whole section is marked not applicable.
func (p *Project) SectionNA(sectionID string) bool {
	for _, id := range p.NASections {
		if id == sectionID {
			return true
		}
	}
	return false
}
