package model

import (
	"time"

	"github.com/google/uuid"
)

// Submission status enum constants
const (
	SubmissionPending   = "PENDING"
	SubmissionApproved  = "APPROVED"
	SubmissionRejected  = "REJECTED"
	SubmissionCancelled = "CANCELLED"
)

// FormSubmission is a CAT-1 / PDP / MDA form instance routed through an
// approval flow. A flow with at least one PENDING submission is "in use",
// which locks the flow's structural fields (form, charging) against edits.
type FormSubmission struct {
	ID              uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FormID          uuid.UUID     `gorm:"type:uuid;not null;index" json:"form_id"`
	Form            *Form         `gorm:"foreignKey:FormID" json:"form,omitempty"`
	FlowID          uuid.UUID     `gorm:"type:uuid;not null;index" json:"flow_id"`
	Flow            *ApprovalFlow `gorm:"foreignKey:FlowID" json:"flow,omitempty"`
	SubmittedBy     uuid.UUID     `gorm:"type:uuid;not null;index" json:"submitted_by"`
	Submitter       *User         `gorm:"foreignKey:SubmittedBy" json:"submitter,omitempty"`
	PayloadData     string        `gorm:"type:jsonb;not null" json:"payload_data"` // Full snapshot of the submitted form fields
	Status          string        `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CurrentStep     int           `gorm:"not null;default:1" json:"current_step"` // 1-based rank of the approver whose decision is pending
	DecidedBy       *uuid.UUID    `gorm:"type:uuid" json:"decided_by"`
	Decider         *User         `gorm:"foreignKey:DecidedBy" json:"decider,omitempty"`
	DecidedAt       *time.Time    `json:"decided_at"`
	RejectionReason string        `gorm:"type:text" json:"rejection_reason"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
