package model

import "time"

// Dataset is one imported applicant-tracking export.
type Dataset struct {
	ID           string        `json:"id" yaml:"id"`
	Name         string        `json:"name" yaml:"name"`
	ImportedAt   time.Time     `json:"imported_at,omitzero" yaml:"imported_at"`
	Candidates   []Candidate   `json:"candidates" yaml:"candidates"`
	Requisitions []Requisition `json:"requisitions" yaml:"requisitions"`
	Events       []Event       `json:"events" yaml:"events"`
	Users        []User        `json:"users" yaml:"users"`
}

// DatasetSummary is the listing shape of a Dataset.
type DatasetSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ImportedAt   time.Time `json:"imported_at"`
	Candidates   int       `json:"candidates"`
	Requisitions int       `json:"requisitions"`
	Events       int       `json:"events"`
	Users        int       `json:"users"`
}

// Summary returns the counts of each collection.
func (d *Dataset) Summary() DatasetSummary {
	return DatasetSummary{
		ID:           d.ID,
		Name:         d.Name,
		ImportedAt:   d.ImportedAt,
		Candidates:   len(d.Candidates),
		Requisitions: len(d.Requisitions),
		Events:       len(d.Events),
		Users:        len(d.Users),
	}
}
