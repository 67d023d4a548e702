// Package model contains the recruiting records shared between layers.
//
// Timestamps use the zero time.Time for "missing". The analysis engine only
// reads these types; it never mutates them.
package model

import (
	"strings"
	"time"
)

// Requisition status values.
const (
	StatusOpen     = "open"
	StatusClosed   = "closed"
	StatusCanceled = "canceled"
)

// Candidate disposition values.
const (
	DispositionActive    = "active"
	DispositionHired     = "hired"
	DispositionRejected  = "rejected"
	DispositionWithdrawn = "withdrawn"
)

// Event type values.
const (
	EventInterviewCompleted = "interview_completed"
	EventFeedbackSubmitted  = "feedback_submitted"
	EventStageChange        = "stage_change"
)

// Candidate is a person moving through a requisition's pipeline.
type Candidate struct {
	ID               string    `json:"id" yaml:"id"`
	RequisitionID    string    `json:"requisition_id" yaml:"requisition_id"`
	AppliedAt        time.Time `json:"applied_at,omitzero" yaml:"applied_at"`
	FirstContactedAt time.Time `json:"first_contacted_at,omitzero" yaml:"first_contacted_at"`
	OfferExtendedAt  time.Time `json:"offer_extended_at,omitzero" yaml:"offer_extended_at"`
	OfferAcceptedAt  time.Time `json:"offer_accepted_at,omitzero" yaml:"offer_accepted_at"`
	OfferDeclinedAt  time.Time `json:"offer_declined_at,omitzero" yaml:"offer_declined_at"`
	Disposition      string    `json:"disposition,omitempty" yaml:"disposition"`
	Source           string    `json:"source,omitempty" yaml:"source"`
}

// Hired reports whether the candidate was hired.
func (c Candidate) Hired() bool {
	return strings.EqualFold(c.Disposition, DispositionHired)
}

// Requisition is an open job slot.
type Requisition struct {
	ID              string    `json:"id" yaml:"id"`
	Function        string    `json:"function,omitempty" yaml:"function"`
	Level           string    `json:"level,omitempty" yaml:"level"`
	Region          string    `json:"region,omitempty" yaml:"region"`
	JobFamily       string    `json:"job_family,omitempty" yaml:"job_family"`
	RecruiterID     string    `json:"recruiter_id,omitempty" yaml:"recruiter_id"`
	HiringManagerID string    `json:"hiring_manager_id,omitempty" yaml:"hiring_manager_id"`
	Status          string    `json:"status" yaml:"status"`
	OpenedAt        time.Time `json:"opened_at,omitzero" yaml:"opened_at"`
	ClosedAt        time.Time `json:"closed_at,omitzero" yaml:"closed_at"`
}

// IsOpen reports whether the requisition is still open.
func (r Requisition) IsOpen() bool { return strings.EqualFold(r.Status, StatusOpen) }

// IsClosed reports whether the requisition was closed.
func (r Requisition) IsClosed() bool { return strings.EqualFold(r.Status, StatusClosed) }

// IsCanceled reports whether the requisition was canceled.
func (r Requisition) IsCanceled() bool { return strings.EqualFold(r.Status, StatusCanceled) }

// Filled reports whether the requisition closed with a recorded close date.
func (r Requisition) Filled() bool {
	return r.IsClosed() && !r.ClosedAt.IsZero()
}

// Event is a pipeline activity recorded against a candidate on a requisition.
type Event struct {
	RequisitionID string    `json:"requisition_id" yaml:"requisition_id"`
	CandidateID   string    `json:"candidate_id" yaml:"candidate_id"`
	Type          string    `json:"type" yaml:"type"`
	At            time.Time `json:"at,omitzero" yaml:"at"`
	FromStage     string    `json:"from_stage,omitempty" yaml:"from_stage"`
	ToStage       string    `json:"to_stage,omitempty" yaml:"to_stage"`
}

// User is a recruiter, hiring manager or admin.
type User struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name"`
	Role string `json:"role,omitempty" yaml:"role"`
}
