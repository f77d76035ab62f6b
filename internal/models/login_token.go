package models

import "time"

// LoginToken is the persisted form of a one-time login token. The token string
// itself is the primary key so that a single DELETE decides the redemption
// race: exactly one concurrent redeemer observes RowsAffected == 1.
type LoginToken struct {
	Token      string    `gorm:"primaryKey;size:128" json:"-"`
	UserID     string    `gorm:"type:uuid;not null;index" json:"user_id"`
	ClaimedUIN string    `gorm:"size:32;not null" json:"claimed_uin"`
	ExpiresAt  time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}
