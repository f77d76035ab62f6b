package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/civigo/civigo/internal/models"
	apperrors "github.com/civigo/civigo/pkg/errors"
	"github.com/civigo/civigo/pkg/logger"
)

// UserService manages portal accounts: password authentication for reviewers
// and the face-only citizen accounts created during application intake.
type UserService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewUserService builds the service over the shared database handle.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, log: logger.WithModule("users")}, nil
}

// GetByID loads a user by primary key.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}
	return &user, nil
}

// EnsureCitizen returns the citizen account with the given id, creating a
// face-only account when none exists yet.
func (s *UserService) EnsureCitizen(ctx context.Context, id, fullName string) (*models.User, error) {
	if id == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	user := models.User{
		ID:       id,
		FullName: fullName,
		Role:     models.RoleCitizen,
		IsActive: true,
	}
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}
	return &user, nil
}

// AuthenticateReviewer checks a reviewer's email/password pair. All failure
// modes return the same invalid-credentials error.
func (s *UserService) AuthenticateReviewer(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}

	if !user.IsActive || user.Role != models.RoleReviewer || user.Password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		s.log.Warn("update last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	user.LastLoginAt = &now

	return &user, nil
}

// EnsureBootstrapReviewer creates the initial reviewer account when the table
// has none. Called once at start-up with configured credentials.
func (s *UserService) EnsureBootstrapReviewer(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", models.RoleReviewer).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	reviewer := models.User{
		Email:    &email,
		Password: string(hash),
		FullName: "Bootstrap Reviewer",
		Role:     models.RoleReviewer,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(&reviewer).Error; err != nil {
		return err
	}

	s.log.Info("bootstrap reviewer created", zap.String("email", email))
	return nil
}
