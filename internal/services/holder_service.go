package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/civigo/civigo/internal/models"
	apperrors "github.com/civigo/civigo/pkg/errors"
	"github.com/civigo/civigo/pkg/logger"
)

// qrImageSize is the pixel width of rendered credential QR codes.
const qrImageSize = 256

// HolderVerification is the public validity answer for one credential.
type HolderVerification struct {
	UIN        string              `json:"uin"`
	Valid      bool                `json:"valid"`
	Status     models.HolderStatus `json:"status"`
	FullName   string              `json:"full_name,omitempty"`
	ExpiryDate *time.Time          `json:"expiry_date,omitempty"`
}

// HolderService manages issued credential records. Holders come into
// existence only through an application approval.
type HolderService struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

// NewHolderService builds the service over the shared database handle.
func NewHolderService(db *gorm.DB) (*HolderService, error) {
	if db == nil {
		return nil, errors.New("holder service: db is required")
	}
	return &HolderService{db: db, log: logger.WithModule("holders"), now: time.Now}, nil
}

// createInTx inserts a holder inside the caller's approval transaction. A
// user may hold at most one active credential.
func (s *HolderService) createInTx(tx *gorm.DB, holder *models.Holder) error {
	var active int64
	err := tx.Model(&models.Holder{}).
		Where("user_id = ? AND status = ?", holder.UserID, models.HolderActive).
		Count(&active).Error
	if err != nil {
		return apperrors.ErrInternalServer.WithInternal(err)
	}
	if active > 0 {
		return apperrors.ErrConflict.WithMessage("user already holds an active credential")
	}

	if err := tx.Create(holder).Error; err != nil {
		return apperrors.ErrInternalServer.WithInternal(err)
	}
	return nil
}

// GetByUIN loads a holder by its unique identification number.
func (s *HolderService) GetByUIN(ctx context.Context, uin string) (*models.Holder, error) {
	if uin == "" {
		return nil, apperrors.NewBadRequest("uin is required")
	}

	var holder models.Holder
	err := s.db.WithContext(ctx).First(&holder, "uin = ?", uin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound.WithMessage("Credential not found")
	}
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}
	return &holder, nil
}

// Verify answers the public validity check for a UIN. An active record past
// its expiry date reports as expired regardless of the stored status; the
// stored row is flipped lazily so later reads agree.
func (s *HolderService) Verify(ctx context.Context, uin string) (*HolderVerification, error) {
	holder, err := s.GetByUIN(ctx, uin)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.StatusCode == apperrors.ErrNotFound.StatusCode {
			return &HolderVerification{UIN: uin, Valid: false}, nil
		}
		return nil, err
	}

	now := s.now()
	status := holder.Status
	if status == models.HolderActive && !now.Before(holder.ExpiryDate) {
		status = models.HolderExpired
		if err := s.db.WithContext(ctx).Model(holder).
			Update("status", models.HolderExpired).Error; err != nil {
			s.log.Warn("flip expired holder", zap.String("uin", uin), zap.Error(err))
		}
	}

	expiry := holder.ExpiryDate
	return &HolderVerification{
		UIN:        holder.UIN,
		Valid:      holder.ValidAt(now),
		Status:     status,
		FullName:   holder.FullName,
		ExpiryDate: &expiry,
	}, nil
}

// Suspend marks a credential as suspended. Suspension is reviewer-initiated
// and immediately invalidates verification and biometric login.
func (s *HolderService) Suspend(ctx context.Context, uin, reviewerID string) (*models.Holder, error) {
	holder, err := s.GetByUIN(ctx, uin)
	if err != nil {
		return nil, err
	}
	if holder.Status == models.HolderSuspended {
		return nil, apperrors.ErrConflict.WithMessage("credential is already suspended")
	}

	if err := s.db.WithContext(ctx).Model(holder).
		Update("status", models.HolderSuspended).Error; err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}
	holder.Status = models.HolderSuspended

	s.log.Info("credential suspended",
		zap.String("uin", uin),
		zap.String("reviewer_id", reviewerID))
	return holder, nil
}

// QRCode renders the credential card QR as a PNG. The payload is the public
// verification record, so scanning works offline against the printed card.
func (s *HolderService) QRCode(ctx context.Context, uin string) ([]byte, error) {
	verification, err := s.Verify(ctx, uin)
	if err != nil {
		return nil, err
	}
	if !verification.Valid {
		return nil, apperrors.ErrNotFound.WithMessage("No valid credential for this UIN")
	}

	payload, err := json.Marshal(verification)
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}

	png, err := qrcode.Encode(string(payload), qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}
	return png, nil
}
