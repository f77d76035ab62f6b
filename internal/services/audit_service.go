package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/civigo/civigo/internal/auditctx"
	"github.com/civigo/civigo/internal/models"
	"github.com/civigo/civigo/pkg/logger"
)

// Audit action names recorded by the pipeline.
const (
	AuditActionApplicationSubmitted = "application.submitted"
	AuditActionApplicationDecided   = "application.decided"
	AuditActionApplicationReviewed  = "application.reviewed"
	AuditActionLoginAttempt         = "login.attempt"
	AuditActionLoginCompleted       = "login.completed"
	AuditActionHolderSuspended      = "holder.suspended"
)

// AuditEntry is one event to record.
type AuditEntry struct {
	UserID    string
	Action    string
	Resource  string
	Result    string
	IPAddress string
	Metadata  map[string]any
}

// AuditFilter narrows audit listings.
type AuditFilter struct {
	UserID string
	Action string
	Limit  int
	Offset int
}

// AuditService persists and lists audit events. Recording failures are logged
// but never fail the operation being audited.
type AuditService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewAuditService builds the service over the shared database handle.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db, log: logger.WithModule("audit")}, nil
}

// Record writes one audit event. Actor fields left empty are backfilled from
// the request context when present.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if actor, ok := auditctx.FromContext(ctx); ok {
		if entry.UserID == "" {
			entry.UserID = actor.UserID
		}
		if entry.IPAddress == "" {
			entry.IPAddress = actor.IPAddress
		}
	}

	record := models.AuditLog{
		Action:    entry.Action,
		Resource:  entry.Resource,
		Result:    entry.Result,
		IPAddress: entry.IPAddress,
	}
	if entry.UserID != "" {
		record.UserID = &entry.UserID
	}

	if len(entry.Metadata) > 0 {
		payload, err := json.Marshal(entry.Metadata)
		if err != nil {
			s.log.Warn("encode audit metadata", zap.Error(err))
		} else {
			record.Metadata = string(payload)
		}
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.log.Error("record audit event",
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}

// List returns audit events newest first along with the total count.
func (s *AuditService) List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var entries []models.AuditLog
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// PurgeOlderThan deletes audit events created before the cutoff. Used by the
// retention sweep.
func (s *AuditService) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AuditLog{})
	return result.RowsAffected, result.Error
}
