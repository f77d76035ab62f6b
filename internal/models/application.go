package models

import (
	"time"

	"gorm.io/datatypes"
)

// ApplicationStatus enumerates the lifecycle states of an identity application.
type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationUnderReview ApplicationStatus = "under_review"
	ApplicationApproved    ApplicationStatus = "approved"
	ApplicationRejected    ApplicationStatus = "rejected"
)

// CanTransitionTo reports whether the status may move to next. The machine is
// forward-only: approved and rejected are terminal for a decision cycle.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	switch s {
	case ApplicationPending:
		return next == ApplicationUnderReview || next == ApplicationApproved || next == ApplicationRejected
	case ApplicationUnderReview:
		return next == ApplicationApproved || next == ApplicationRejected
	default:
		return false
	}
}

// Terminal reports whether the status ends the current decision cycle.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationApproved || s == ApplicationRejected
}

// Application records one identity-credential submission and its outcome.
// Applications are never deleted; rejected ones are retained for audit.
type Application struct {
	BaseModel

	UserID      string            `gorm:"type:uuid;not null;index" json:"user_id"`
	Status      ApplicationStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	SubmittedAt time.Time         `gorm:"not null" json:"submitted_at"`

	// Claimed identity extracted from the document.
	FullName       string `gorm:"not null" json:"full_name"`
	DateOfBirth    string `gorm:"size:10" json:"date_of_birth"`
	DocumentNumber string `gorm:"size:64" json:"document_number"`
	Nationality    string `gorm:"size:64" json:"nationality"`
	DocumentType   string `gorm:"size:32" json:"document_type"`

	// Object storage keys for the submitted images.
	DocumentKey string `gorm:"size:256" json:"-"`
	SelfieKey   string `gorm:"size:256" json:"-"`

	// Raw text lines returned by document extraction, kept for review screens.
	ExtractedLines datatypes.JSON `json:"extracted_lines,omitempty"`

	// Verification metadata from the automated pipeline.
	Confidence           float64 `json:"confidence"`
	RequiresManualReview bool    `gorm:"default:false" json:"requires_manual_review"`
	EnrollmentRef        *string `gorm:"size:128" json:"enrollment_ref,omitempty"`

	// Outcome fields. Approval and rejection sets are mutually exclusive.
	UIN             *string    `gorm:"column:uin;size:32;uniqueIndex" json:"uin,omitempty"`
	IssuedAt        *time.Time `json:"issued_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`

	// Manual review attribution; set together or not at all.
	ReviewedBy *string    `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}
