package template

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// VersionDescriptor describes one published version of a template.
// Ordering is positional within the enclosing Summary.Versions slice.
type VersionDescriptor struct {
	Version     string     `json:"version"`
	File        string     `json:"file"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Changelog   string     `json:"changelog,omitempty"`
}

// Summary is one row of the catalog index. CurrentVersion is an explicit
// pointer into Versions; it is not necessarily the last element.
type Summary struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	CurrentVersion string              `json:"current_version"`
	Versions       []VersionDescriptor `json:"versions"`
}

// Document is a full version document: the section/item tree a project is
// snapshotted from. Immutable once fetched; identified by (ID, Version).
type Document struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Version  string    `json:"version"`
	Sections []Section `json:"sections"`
}

type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Items []Item `json:"items"`
}

type Item struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	CodeRef  string `json:"code_ref,omitempty"`
	Article  string `json:"article,omitempty"`
	Comments string `json:"comments,omitempty"`
	Details  string `json:"details,omitempty"`

	// ExplanatoryNotes is a legacy key still present in older documents;
	// DetailsText folds it into Details.
	ExplanatoryNotes string `json:"explanatory_notes,omitempty"`
}

// DetailsText returns the item details, falling back to the legacy
// explanatory_notes key.
func (i Item) DetailsText() string {
	if i.Details != "" {
		return i.Details
	}
	return i.ExplanatoryNotes
}

// Validate checks that a fetched document is complete enough to snapshot
// a project from. A document failing validation is treated as unreachable
// rather than returned partially.
func (d *Document) Validate() error {
	if err := validation.ValidateStruct(d,
		validation.Field(&d.ID, validation.Required),
		validation.Field(&d.Version, validation.Required),
	); err != nil {
		return err
	}
	for i := range d.Sections {
		if err := d.Sections[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Section) validate() error {
	if err := validation.ValidateStruct(s,
		validation.Field(&s.ID, validation.Required),
	); err != nil {
		return err
	}
	for i := range s.Items {
		item := &s.Items[i]
		if err := validation.ValidateStruct(item,
			validation.Field(&item.ID, validation.Required),
			validation.Field(&item.Text, validation.Required),
		); err != nil {
			return err
		}
	}
	return nil
}
