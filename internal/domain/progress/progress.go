// Package progress derives applicability-aware completion metrics from a
// project snapshot. Everything here is pure: no I/O, no clocks.
package progress

import "github.com/mfeldt/stencil/internal/domain/checklist"

// Counts is an applicable-item tally. Total of zero is a valid, meaningful
// state (e.g. a project entirely marked N/A).
type Counts struct {
	Total int `json:"total"`
	Done  int `json:"done"`
}

// IsSectionNA reports whole-section exclusion.
func IsSectionNA(p *checklist.Project, sectionID string) bool {
	return p.SectionNA(sectionID)
}

// ApplicableCounts tallies all items. An item is excluded when its section
// is N/A or its own NA flag is set; both mechanisms are independent.
func ApplicableCounts(p *checklist.Project) Counts {
	var c Counts
	for _, item := range p.Items {
		if item.NA || p.SectionNA(item.SectionID) {
			continue
		}
		c.Total++
		if item.Status == checklist.StatusDone {
			c.Done++
		}
	}
	return c
}

// SectionApplicableCounts tallies one section. An N/A section is {0,0}
// regardless of individual item flags.
func SectionApplicableCounts(p *checklist.Project, sectionID string) Counts {
	if p.SectionNA(sectionID) {
		return Counts{}
	}
	var c Counts
	for _, item := range p.Items {
		if item.SectionID != sectionID || item.NA {
			continue
		}
		c.Total++
		if item.Status == checklist.StatusDone {
			c.Done++
		}
	}
	return c
}

// Percent returns integer completion percent. Zero total is 0%, never a
// division error.
func Percent(c Counts) int {
	if c.Total == 0 {
		return 0
	}
	return c.Done * 100 / c.Total
}

// SectionView is one display group of a project's flat item list.
type SectionView struct {
	ID     string           `json:"id"`
	Title  string           `json:"title"`
	NA     bool             `json:"na"`
	Counts Counts           `json:"counts"`
	Items  []checklist.Item `json:"items"`
}

// Sections groups the flat item list by section, preserving first-seen
// order. Grouping is reconstructed from item data; it is not stored.
func Sections(p *checklist.Project) []SectionView {
	var views []SectionView
	index := make(map[string]int)
	for _, item := range p.Items {
		sid := item.SectionID
		if sid == "" {
			sid = "default"
		}
		i, ok := index[sid]
		if !ok {
			i = len(views)
			index[sid] = i
			views = append(views, SectionView{
				ID:    sid,
				Title: item.SectionTitle,
				NA:    p.SectionNA(sid),
			})
		}
		views[i].Items = append(views[i].Items, item)
	}
	for i := range views {
		views[i].Counts = SectionApplicableCounts(p, views[i].ID)
	}
	return views
}
