package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/civigo/civigo/internal/models"
	"github.com/civigo/civigo/internal/storage"
	"github.com/civigo/civigo/internal/verification"
	"github.com/civigo/civigo/pkg/crypto"
	apperrors "github.com/civigo/civigo/pkg/errors"
	"github.com/civigo/civigo/pkg/logger"
	"github.com/civigo/civigo/pkg/metrics"
)

// Rejection reasons produced by the automated pipeline.
const (
	ReasonFaceMismatch  = "face does not match document photo"
	ReasonLowConfidence = "verification confidence too low"
)

// SubmitApplicationInput carries one identity-credential submission. When
// ApplicationID names an existing rejected application the submission re-enters
// that record into a fresh decision cycle.
type SubmitApplicationInput struct {
	UserID        string
	ApplicationID string

	Document []byte
	Selfie   []byte

	FullName       string
	DateOfBirth    string
	DocumentNumber string
	Nationality    string
	DocumentType   string

	// Raw lines from a prior extraction call, kept on the record for review
	// screens.
	ExtractedLines []string
}

// ApplicationFilter narrows application listings.
type ApplicationFilter struct {
	Status string
	UserID string
	Limit  int
	Offset int
}

// ReviewInput is one manual review decision.
type ReviewInput struct {
	ApplicationID string
	ReviewerID    string
	Approve       bool
	Reason        string
}

// ApplicationService orchestrates the registration pipeline: quality gates,
// face comparison, the decision policy, and credential issuance.
type ApplicationService struct {
	db         *gorm.DB
	gate       *verification.QualityGate
	scorer     *verification.Scorer
	policy     verification.Policy
	objects    storage.ObjectStore
	holders    *HolderService
	users      *UserService
	audit      *AuditService
	log        *zap.Logger
	validity   time.Duration
	presignTTL time.Duration
	now        func() time.Time
}

// ApplicationServiceConfig wires the service's collaborators.
type ApplicationServiceConfig struct {
	DB             *gorm.DB
	Gate           *verification.QualityGate
	Scorer         *verification.Scorer
	Policy         verification.Policy
	Objects        storage.ObjectStore
	Holders        *HolderService
	Users          *UserService
	Audit          *AuditService
	HolderValidity time.Duration
	PresignTTL     time.Duration
	Clock          func() time.Time
}

// NewApplicationService validates the wiring and builds the service.
func NewApplicationService(cfg ApplicationServiceConfig) (*ApplicationService, error) {
	switch {
	case cfg.DB == nil:
		return nil, errors.New("application service: db is required")
	case cfg.Gate == nil:
		return nil, errors.New("application service: quality gate is required")
	case cfg.Scorer == nil:
		return nil, errors.New("application service: scorer is required")
	case cfg.Objects == nil:
		return nil, errors.New("application service: object store is required")
	case cfg.Holders == nil:
		return nil, errors.New("application service: holder service is required")
	}

	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}

	validity := cfg.HolderValidity
	if validity <= 0 {
		validity = 5 * 365 * 24 * time.Hour
	}

	presignTTL := cfg.PresignTTL
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &ApplicationService{
		db:         cfg.DB,
		gate:       cfg.Gate,
		scorer:     cfg.Scorer,
		policy:     cfg.Policy,
		objects:    cfg.Objects,
		holders:    cfg.Holders,
		users:      cfg.Users,
		audit:      cfg.Audit,
		log:        logger.WithModule("applications"),
		validity:   validity,
		presignTTL: presignTTL,
		now:        now,
	}, nil
}

// Submit runs the registration pipeline for one submission and returns the
// decided application. External-service failures surface as
// ErrServiceUnavailable and leave the application retryable; they are never
// converted into a rejection.
func (s *ApplicationService) Submit(ctx context.Context, input SubmitApplicationInput) (*models.Application, error) {
	if input.UserID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}
	if len(input.Document) == 0 || len(input.Selfie) == 0 {
		return nil, apperrors.NewBadRequest("document and selfie images are required")
	}
	if input.FullName == "" {
		return nil, apperrors.NewBadRequest("full name is required")
	}

	if s.users != nil {
		if _, err := s.users.EnsureCitizen(ctx, input.UserID, input.FullName); err != nil {
			return nil, err
		}
	}

	app, err := s.prepareRecord(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.storeImages(ctx, app, input); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, input.UserID, AuditActionApplicationSubmitted, app.ID, "accepted", nil)

	// Gate both captures before spending a comparison call.
	for _, image := range [][]byte{input.Document, input.Selfie} {
		verdict, err := s.gate.Check(ctx, image)
		if err != nil {
			return nil, apperrors.ErrServiceUnavailable.WithInternal(err)
		}
		if !verdict.OK {
			return s.reject(ctx, app, verdict.Reason)
		}
	}

	result, err := s.scorer.Compare(ctx, input.Selfie, input.Document)
	if errors.Is(err, verification.ErrNoFaceMatch) {
		return s.reject(ctx, app, ReasonFaceMismatch)
	}
	if err != nil {
		return nil, apperrors.ErrServiceUnavailable.WithInternal(err)
	}

	app.Confidence = result.Similarity

	switch s.policy.Evaluate(result.Similarity) {
	case verification.OutcomeApprove:
		return s.approve(ctx, app, input.Selfie)
	case verification.OutcomeReview:
		return s.sendToReview(ctx, app)
	default:
		return s.reject(ctx, app, ReasonLowConfidence)
	}
}

// prepareRecord creates a fresh pending application, or re-enters an existing
// rejected one into a new decision cycle. Any other prior state refuses
// resubmission.
func (s *ApplicationService) prepareRecord(ctx context.Context, input SubmitApplicationInput) (*models.Application, error) {
	lines, err := encodeLines(input.ExtractedLines)
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}

	if input.ApplicationID == "" {
		app := &models.Application{
			UserID:         input.UserID,
			Status:         models.ApplicationPending,
			SubmittedAt:    s.now(),
			FullName:       input.FullName,
			DateOfBirth:    input.DateOfBirth,
			DocumentNumber: input.DocumentNumber,
			Nationality:    input.Nationality,
			DocumentType:   input.DocumentType,
			ExtractedLines: lines,
		}
		if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
			return nil, apperrors.ErrInternalServer.WithInternal(err)
		}
		return app, nil
	}

	app, err := s.Get(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	if app.UserID != input.UserID {
		return nil, apperrors.ErrForbidden
	}
	if app.Status != models.ApplicationRejected {
		return nil, apperrors.ErrConflict.WithMessage(
			fmt.Sprintf("application in state %q cannot be resubmitted", app.Status))
	}

	app.Status = models.ApplicationPending
	app.SubmittedAt = s.now()
	app.FullName = input.FullName
	app.DateOfBirth = input.DateOfBirth
	app.DocumentNumber = input.DocumentNumber
	app.Nationality = input.Nationality
	app.DocumentType = input.DocumentType
	app.ExtractedLines = lines
	app.Confidence = 0
	app.RequiresManualReview = false
	app.RejectionReason = nil
	app.ReviewedBy = nil
	app.ReviewedAt = nil

	if err := s.db.WithContext(ctx).Save(app).Error; err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}
	return app, nil
}

func encodeLines(lines []string) (datatypes.JSON, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(payload), nil
}

func (s *ApplicationService) storeImages(ctx context.Context, app *models.Application, input SubmitApplicationInput) error {
	documentKey := fmt.Sprintf("applications/%s/document", app.ID)
	selfieKey := fmt.Sprintf("applications/%s/selfie", app.ID)

	if err := s.objects.Put(ctx, documentKey, input.Document, "image/jpeg"); err != nil {
		return apperrors.ErrServiceUnavailable.WithInternal(err)
	}
	if err := s.objects.Put(ctx, selfieKey, input.Selfie, "image/jpeg"); err != nil {
		return apperrors.ErrServiceUnavailable.WithInternal(err)
	}

	app.DocumentKey = documentKey
	app.SelfieKey = selfieKey
	if err := s.db.WithContext(ctx).Model(app).
		Updates(map[string]any{"document_key": documentKey, "selfie_key": selfieKey}).Error; err != nil {
		return apperrors.ErrInternalServer.WithInternal(err)
	}
	return nil
}

// approve enrolls the face, issues a UIN, and creates the holder record. The
// holder row is written before the application flips to approved, inside one
// transaction: a failure at any point leaves the application undecided and
// retryable, never approved without a credential.
func (s *ApplicationService) approve(ctx context.Context, app *models.Application, selfie []byte) (*models.Application, error) {
	uin, err := crypto.GenerateUIN()
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}

	enrollmentRef, err := s.scorer.Enroll(ctx, selfie, uin)
	if errors.Is(err, verification.ErrNotEnrollable) {
		// The comparison succeeded but the face cannot be indexed; a human
		// decides instead of silently issuing an unusable credential.
		return s.sendToReview(ctx, app)
	}
	if err != nil {
		return nil, apperrors.ErrServiceUnavailable.WithInternal(err)
	}

	issuedAt := s.now()

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		holder := &models.Holder{
			UIN:            uin,
			UserID:         app.UserID,
			ApplicationID:  app.ID,
			Status:         models.HolderActive,
			IssuedAt:       issuedAt,
			ExpiryDate:     issuedAt.Add(s.validity),
			FullName:       app.FullName,
			DateOfBirth:    app.DateOfBirth,
			DocumentNumber: app.DocumentNumber,
			Nationality:    app.Nationality,
			DocumentType:   app.DocumentType,
			PortraitKey:    app.SelfieKey,
		}
		if err := s.holders.createInTx(tx, holder); err != nil {
			return err
		}

		return s.transitionInTx(tx, app, models.ApplicationApproved, func(a *models.Application) {
			a.UIN = &uin
			a.IssuedAt = &issuedAt
			a.EnrollmentRef = &enrollmentRef
		})
	})
	if txErr != nil {
		s.log.Error("approval transaction failed",
			zap.String("application_id", app.ID),
			zap.Error(txErr))
		return nil, apperrors.FromError(txErr)
	}

	metrics.VerificationOutcomes.WithLabelValues("approved").Inc()
	s.recordAudit(ctx, app.UserID, AuditActionApplicationDecided, app.ID, "approved", map[string]any{
		"confidence": app.Confidence,
		"uin":        uin,
	})
	return app, nil
}

func (s *ApplicationService) sendToReview(ctx context.Context, app *models.Application) (*models.Application, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.transitionInTx(tx, app, models.ApplicationUnderReview, func(a *models.Application) {
			a.RequiresManualReview = true
		})
	})
	if err != nil {
		return nil, apperrors.FromError(err)
	}

	metrics.VerificationOutcomes.WithLabelValues("review").Inc()
	s.recordAudit(ctx, app.UserID, AuditActionApplicationDecided, app.ID, "review", map[string]any{
		"confidence": app.Confidence,
	})
	return app, nil
}

func (s *ApplicationService) reject(ctx context.Context, app *models.Application, reason string) (*models.Application, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.transitionInTx(tx, app, models.ApplicationRejected, func(a *models.Application) {
			a.RejectionReason = &reason
		})
	})
	if err != nil {
		return nil, apperrors.FromError(err)
	}

	metrics.VerificationOutcomes.WithLabelValues("rejected").Inc()
	s.recordAudit(ctx, app.UserID, AuditActionApplicationDecided, app.ID, "rejected", map[string]any{
		"confidence": app.Confidence,
		"reason":     reason,
	})
	return app, nil
}

// transitionInTx applies a checked state transition plus the mutations that
// belong to it, persisting the full record.
func (s *ApplicationService) transitionInTx(tx *gorm.DB, app *models.Application, next models.ApplicationStatus, mutate func(*models.Application)) error {
	if !app.Status.CanTransitionTo(next) {
		return apperrors.ErrConflict.WithMessage(
			fmt.Sprintf("application cannot move from %q to %q", app.Status, next))
	}

	app.Status = next
	if mutate != nil {
		mutate(app)
	}
	if err := tx.Save(app).Error; err != nil {
		return apperrors.ErrInternalServer.WithInternal(err)
	}
	return nil
}

// Review applies a manual decision to a pending or under-review application.
// Rejections always carry a reason; approvals reuse the holder-first
// transaction.
func (s *ApplicationService) Review(ctx context.Context, input ReviewInput) (*models.Application, error) {
	if input.ReviewerID == "" {
		return nil, apperrors.NewBadRequest("reviewer id is required")
	}
	if !input.Approve && input.Reason == "" {
		return nil, apperrors.NewBadRequest("a rejection reason is required")
	}

	app, err := s.Get(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	if app.Status.Terminal() {
		return nil, apperrors.ErrConflict.WithMessage(
			fmt.Sprintf("application in state %q has already been decided", app.Status))
	}

	reviewedAt := s.now()

	if !input.Approve {
		reason := input.Reason
		txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.transitionInTx(tx, app, models.ApplicationRejected, func(a *models.Application) {
				a.RejectionReason = &reason
				a.ReviewedBy = &input.ReviewerID
				a.ReviewedAt = &reviewedAt
			})
		})
		if txErr != nil {
			return nil, apperrors.FromError(txErr)
		}

		metrics.VerificationOutcomes.WithLabelValues("rejected").Inc()
		s.recordAudit(ctx, input.ReviewerID, AuditActionApplicationReviewed, app.ID, "rejected", map[string]any{
			"reason": reason,
		})
		return app, nil
	}

	selfie, err := s.objects.Get(ctx, app.SelfieKey)
	if err != nil {
		return nil, apperrors.ErrServiceUnavailable.WithInternal(err)
	}

	app.ReviewedBy = &input.ReviewerID
	app.ReviewedAt = &reviewedAt

	decided, err := s.approve(ctx, app, selfie)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, input.ReviewerID, AuditActionApplicationReviewed, app.ID, "approved", nil)
	return decided, nil
}

// Get loads one application by id.
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.Application, error) {
	if id == "" {
		return nil, apperrors.NewBadRequest("application id is required")
	}

	var app models.Application
	err := s.db.WithContext(ctx).First(&app, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound.WithMessage("Application not found")
	}
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}
	return &app, nil
}

// ApplicationImages carries short-lived links to the stored captures for
// review screens.
type ApplicationImages struct {
	DocumentURL string `json:"document_url"`
	SelfieURL   string `json:"selfie_url"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ImageLinks returns presigned URLs for the document and selfie captures of
// one application.
func (s *ApplicationService) ImageLinks(ctx context.Context, id string) (*ApplicationImages, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.DocumentKey == "" || app.SelfieKey == "" {
		return nil, apperrors.ErrNotFound.WithMessage("Application has no stored images")
	}

	docURL, err := s.objects.PresignGet(ctx, app.DocumentKey, s.presignTTL)
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}
	selfieURL, err := s.objects.PresignGet(ctx, app.SelfieKey, s.presignTTL)
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}

	return &ApplicationImages{
		DocumentURL: docURL,
		SelfieURL:   selfieURL,
		ExpiresIn:   int64(s.presignTTL.Seconds()),
	}, nil
}

// List returns applications newest first along with the total count.
func (s *ApplicationService) List(ctx context.Context, filter ApplicationFilter) ([]models.Application, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Application{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.ErrInternalServer.WithInternal(err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var apps []models.Application
	err := query.
		Order("submitted_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&apps).Error
	if err != nil {
		return nil, 0, apperrors.ErrInternalServer.WithInternal(err)
	}

	return apps, total, nil
}

func (s *ApplicationService) recordAudit(ctx context.Context, userID, action, resource, result string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		UserID:   userID,
		Action:   action,
		Resource: resource,
		Result:   result,
		Metadata: metadata,
	})
}
