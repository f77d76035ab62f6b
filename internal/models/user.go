package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles. Citizens authenticate with their face; reviewers use passwords
// and operate the manual review queue.
const (
	RoleCitizen  = "citizen"
	RoleReviewer = "reviewer"
)

// User is a portal account. UserID values referenced by applications and
// holders point at this table.
type User struct {
	ID       string  `gorm:"primaryKey;type:uuid" json:"id"`
	Email    *string `gorm:"uniqueIndex" json:"email,omitempty"` // nil for face-only citizens
	Password string  `json:"-"`                                  // bcrypt hash; empty for face-only citizens
	FullName string  `json:"full_name"`
	Role     string  `gorm:"size:16;not null;default:'citizen';index" json:"role"`
	IsActive bool    `gorm:"default:true" json:"is_active"`

	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
