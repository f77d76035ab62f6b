package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/civigo/civigo/internal/auth"
	"github.com/civigo/civigo/internal/models"
	"github.com/civigo/civigo/internal/verification"
	apperrors "github.com/civigo/civigo/pkg/errors"
	"github.com/civigo/civigo/pkg/logger"
	"github.com/civigo/civigo/pkg/metrics"
)

// Reasons returned on a failed biometric login.
const (
	ReasonIdentifierMismatch = "face does not match the provided identifier"
	ReasonLowLoginConfidence = "confidence too low for authentication"
	ReasonNoEnrolledMatch    = "no matching face found"
	ReasonCredentialInactive = "credential is not active"
)

// LoginInput is one biometric login attempt. ClaimedUIN is optional; when
// present the matched identity must be exactly that UIN.
type LoginInput struct {
	ClaimedUIN string
	Selfie     []byte
	IPAddress  string
}

// LoginResult reports the attempt outcome. Token is set only when
// authenticated and must be exchanged at the completion endpoint.
type LoginResult struct {
	Authenticated bool    `json:"authenticated"`
	Reason        string  `json:"reason,omitempty"`
	UIN           string  `json:"uin,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
	Token         string  `json:"token,omitempty"`
}

// LoginService runs the biometric login flow: quality gate, collection
// search, identifier binding, and one-time token issuance.
type LoginService struct {
	gate    *verification.QualityGate
	scorer  *verification.Scorer
	policy  verification.Policy
	holders *HolderService
	users   *UserService
	broker  *auth.TokenBroker
	jwt     *auth.JWTService
	audit   *AuditService
	log     *zap.Logger
}

// LoginServiceConfig wires the service's collaborators.
type LoginServiceConfig struct {
	Gate    *verification.QualityGate
	Scorer  *verification.Scorer
	Policy  verification.Policy
	Holders *HolderService
	Users   *UserService
	Broker  *auth.TokenBroker
	JWT     *auth.JWTService
	Audit   *AuditService
}

// NewLoginService validates the wiring and builds the service.
func NewLoginService(cfg LoginServiceConfig) (*LoginService, error) {
	switch {
	case cfg.Gate == nil:
		return nil, errors.New("login service: quality gate is required")
	case cfg.Scorer == nil:
		return nil, errors.New("login service: scorer is required")
	case cfg.Holders == nil:
		return nil, errors.New("login service: holder service is required")
	case cfg.Users == nil:
		return nil, errors.New("login service: user service is required")
	case cfg.Broker == nil:
		return nil, errors.New("login service: token broker is required")
	case cfg.JWT == nil:
		return nil, errors.New("login service: jwt service is required")
	}

	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}

	return &LoginService{
		gate:    cfg.Gate,
		scorer:  cfg.Scorer,
		policy:  cfg.Policy,
		holders: cfg.Holders,
		users:   cfg.Users,
		broker:  cfg.Broker,
		jwt:     cfg.JWT,
		audit:   cfg.Audit,
		log:     logger.WithModule("login"),
	}, nil
}

// Login runs one biometric authentication attempt. An identifier mismatch
// rejects regardless of the similarity score; the threshold applies only
// after the binding check.
func (s *LoginService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if len(input.Selfie) == 0 {
		return nil, apperrors.NewBadRequest("selfie image is required")
	}

	verdict, err := s.gate.Check(ctx, input.Selfie)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, apperrors.ErrServiceUnavailable.WithInternal(err)
	}
	if !verdict.OK {
		return s.deny(ctx, input, "quality", verdict.Reason), nil
	}

	best, err := s.scorer.Search(ctx, input.Selfie)
	if errors.Is(err, verification.ErrNoSearchMatch) {
		return s.deny(ctx, input, "mismatch", ReasonNoEnrolledMatch), nil
	}
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, apperrors.ErrServiceUnavailable.WithInternal(err)
	}

	if input.ClaimedUIN != "" && input.ClaimedUIN != best.ExternalID {
		return s.deny(ctx, input, "mismatch", ReasonIdentifierMismatch), nil
	}

	if !s.policy.LoginAuthenticated(best.Similarity) {
		return s.deny(ctx, input, "low_confidence", ReasonLowLoginConfidence), nil
	}

	holder, err := s.holders.GetByUIN(ctx, best.ExternalID)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrNotFound.Code {
			return s.deny(ctx, input, "mismatch", ReasonCredentialInactive), nil
		}
		return nil, err
	}
	if !holder.ValidAt(s.holders.now()) {
		return s.deny(ctx, input, "mismatch", ReasonCredentialInactive), nil
	}

	token, err := s.broker.Issue(ctx, holder.UserID, holder.UIN)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.recordAudit(ctx, holder.UserID, AuditActionLoginAttempt, holder.UIN, "success", input.IPAddress, map[string]any{
		"confidence": best.Similarity,
	})

	return &LoginResult{
		Authenticated: true,
		UIN:           holder.UIN,
		Confidence:    best.Similarity,
		Token:         token,
	}, nil
}

func (s *LoginService) deny(ctx context.Context, input LoginInput, label, reason string) *LoginResult {
	metrics.LoginAttempts.WithLabelValues(label).Inc()
	s.recordAudit(ctx, "", AuditActionLoginAttempt, input.ClaimedUIN, "denied", input.IPAddress, map[string]any{
		"reason": reason,
	})
	return &LoginResult{Authenticated: false, Reason: reason}
}

// CompleteLogin exchanges a one-time token for a JWT pair. Redemption is
// single-use; every failure is the uniform invalid-or-expired error.
func (s *LoginService) CompleteLogin(ctx context.Context, token string) (*auth.TokenPair, error) {
	record, err := s.broker.Redeem(ctx, token)
	if errors.Is(err, auth.ErrTokenInvalid) {
		return nil, apperrors.ErrLoginTokenInvalid
	}
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}

	pair, err := s.issuePair(record.UserID, record.ClaimedUIN, models.RoleCitizen)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, record.UserID, AuditActionLoginCompleted, record.ClaimedUIN, "success", "", nil)
	return pair, nil
}

// AdminLogin authenticates a reviewer by email and password.
func (s *LoginService) AdminLogin(ctx context.Context, email, password string) (*auth.TokenPair, *models.User, error) {
	user, err := s.users.AuthenticateReviewer(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issuePair(user.ID, "", user.Role)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *LoginService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.ErrUnauthorized.WithInternal(err)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, apperrors.ErrUnauthorized
	}

	return s.issuePair(claims.UserID, claims.UIN, user.Role)
}

func (s *LoginService) issuePair(userID, uin, role string) (*auth.TokenPair, error) {
	pair, err := s.jwt.GenerateTokenPair(auth.AccessTokenInput{
		UserID: userID,
		UIN:    uin,
		Role:   role,
	})
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}
	return pair, nil
}

func (s *LoginService) recordAudit(ctx context.Context, userID, action, resource, result, ip string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		Result:    result,
		IPAddress: ip,
		Metadata:  metadata,
	})
}
