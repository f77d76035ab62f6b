package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civigo/civigo/internal/services"
	"github.com/civigo/civigo/pkg/response"
)

// AuthHandler exposes biometric login, token completion, and reviewer login.
type AuthHandler struct {
	login *services.LoginService
}

// NewAuthHandler builds the handler.
func NewAuthHandler(login *services.LoginService) *AuthHandler {
	return &AuthHandler{login: login}
}

type loginRequest struct {
	UIN    string `json:"uin" validate:"omitempty,uin"`
	Selfie string `json:"selfie" validate:"required"`
}

// Login runs one biometric authentication attempt. A denial is a 200 with
// authenticated=false and a reason; only transport and service failures are
// error responses.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	selfie, err := decodeImage("selfie", req.Selfie)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.login.Login(requestContext(c), services.LoginInput{
		ClaimedUIN: req.UIN,
		Selfie:     selfie,
		IPAddress:  c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

type completeLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

// Complete exchanges a one-time login token for a JWT pair.
func (h *AuthHandler) Complete(c *gin.Context) {
	var req completeLoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pair, err := h.login.CompleteLogin(requestContext(c), req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, pair)
}

type adminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminLogin authenticates a reviewer with email and password.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pair, user, err := h.login.AdminLogin(requestContext(c), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"tokens": pair,
		"user":   user,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh exchanges a refresh token for a fresh pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pair, err := h.login.Refresh(requestContext(c), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, pair)
}
