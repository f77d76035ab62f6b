package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/civigo/civigo/internal/models"
)

// errTokenNotFound is the stores' internal miss signal; the broker collapses
// every failure mode into one caller-visible error.
var errTokenNotFound = errors.New("token store: not found")

// TokenStore persists one-time login tokens. Redeem must be atomic under
// concurrent access: of any number of simultaneous redeemers of the same
// token, exactly one receives the record.
type TokenStore interface {
	Save(ctx context.Context, token models.LoginToken) error
	Redeem(ctx context.Context, token string, now time.Time) (*models.LoginToken, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// DatabaseTokenStore keeps tokens in the relational store. The DELETE keyed
// on the token primary key decides races: only the winner sees RowsAffected
// of one.
type DatabaseTokenStore struct {
	db *gorm.DB
}

// NewDatabaseTokenStore wraps the shared database handle.
func NewDatabaseTokenStore(db *gorm.DB) (*DatabaseTokenStore, error) {
	if db == nil {
		return nil, errors.New("token store: db is required")
	}
	return &DatabaseTokenStore{db: db}, nil
}

func (s *DatabaseTokenStore) Save(ctx context.Context, token models.LoginToken) error {
	if err := s.db.WithContext(ctx).Create(&token).Error; err != nil {
		return fmt.Errorf("token store: save: %w", err)
	}
	return nil
}

func (s *DatabaseTokenStore) Redeem(ctx context.Context, token string, now time.Time) (*models.LoginToken, error) {
	var record models.LoginToken
	err := s.db.WithContext(ctx).First(&record, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("token store: lookup: %w", err)
	}

	result := s.db.WithContext(ctx).Delete(&models.LoginToken{}, "token = ?", token)
	if result.Error != nil {
		return nil, fmt.Errorf("token store: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// A concurrent redeemer won the race.
		return nil, errTokenNotFound
	}

	if !now.Before(record.ExpiresAt) {
		return nil, errTokenNotFound
	}

	return &record, nil
}

func (s *DatabaseTokenStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.LoginToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("token store: purge: %w", result.Error)
	}
	return result.RowsAffected, nil
}
