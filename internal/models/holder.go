package models

import "time"

// HolderStatus enumerates credential holder states.
type HolderStatus string

const (
	HolderActive    HolderStatus = "active"
	HolderExpired   HolderStatus = "expired"
	HolderSuspended HolderStatus = "suspended"
)

// Holder is the durable record of an approved, currently issued credential.
// It is created only as a side effect of an application approval and carries a
// copy of the identity fields so verification never re-reads the application.
type Holder struct {
	BaseModel

	UIN           string `gorm:"column:uin;size:32;uniqueIndex;not null" json:"uin"`
	UserID        string `gorm:"type:uuid;not null;index" json:"user_id"`
	ApplicationID string `gorm:"type:uuid;not null" json:"application_id"`

	Status     HolderStatus `gorm:"size:16;not null;default:'active';index" json:"status"`
	IssuedAt   time.Time    `gorm:"not null" json:"issued_at"`
	ExpiryDate time.Time    `gorm:"not null;index" json:"expiry_date"`

	FullName       string `gorm:"not null" json:"full_name"`
	DateOfBirth    string `gorm:"size:10" json:"date_of_birth"`
	DocumentNumber string `gorm:"size:64" json:"document_number"`
	Nationality    string `gorm:"size:64" json:"nationality"`
	DocumentType   string `gorm:"size:32" json:"document_type"`

	PortraitKey string `gorm:"size:256" json:"-"`
}

// ValidAt reports whether the credential verifies as valid at the given time.
// A stored active status never outlives the expiry date.
func (h *Holder) ValidAt(now time.Time) bool {
	if h.Status != HolderActive {
		return false
	}
	return now.Before(h.ExpiryDate)
}
