package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civigo/civigo/internal/middleware"
	"github.com/civigo/civigo/internal/models"
	"github.com/civigo/civigo/internal/services"
	appErrors "github.com/civigo/civigo/pkg/errors"
	"github.com/civigo/civigo/pkg/response"
)

// ApplicationHandler exposes the registration pipeline over HTTP.
type ApplicationHandler struct {
	apps       *services.ApplicationService
	extraction *services.ExtractionService
}

// NewApplicationHandler builds the handler.
func NewApplicationHandler(apps *services.ApplicationService, extraction *services.ExtractionService) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, extraction: extraction}
}

type submitApplicationRequest struct {
	UserID        string `json:"user_id" validate:"required"`
	ApplicationID string `json:"application_id"`

	Document string `json:"document" validate:"required"`
	Selfie   string `json:"selfie" validate:"required"`

	FullName       string   `json:"full_name" validate:"required"`
	DateOfBirth    string   `json:"date_of_birth"`
	DocumentNumber string   `json:"document_number"`
	Nationality    string   `json:"nationality"`
	DocumentType   string   `json:"document_type"`
	ExtractedLines []string `json:"extracted_lines"`
}

// Submit runs one identity-credential submission through the pipeline.
func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req submitApplicationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	document, err := decodeImage("document", req.Document)
	if err != nil {
		response.Error(c, err)
		return
	}
	selfie, err := decodeImage("selfie", req.Selfie)
	if err != nil {
		response.Error(c, err)
		return
	}

	app, err := h.apps.Submit(requestContext(c), services.SubmitApplicationInput{
		UserID:         req.UserID,
		ApplicationID:  req.ApplicationID,
		Document:       document,
		Selfie:         selfie,
		FullName:       req.FullName,
		DateOfBirth:    req.DateOfBirth,
		DocumentNumber: req.DocumentNumber,
		Nationality:    req.Nationality,
		DocumentType:   req.DocumentType,
		ExtractedLines: req.ExtractedLines,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, app)
}

// Get returns one application. Citizens may read their own; reviewers any.
func (h *ApplicationHandler) Get(c *gin.Context) {
	app, err := h.apps.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	if c.GetString(middleware.CtxRoleKey) != models.RoleReviewer &&
		c.GetString(middleware.CtxUserIDKey) != app.UserID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	response.Success(c, http.StatusOK, app)
}

// List returns applications for the review queue.
func (h *ApplicationHandler) List(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	apps, total, err := h.apps.List(requestContext(c), services.ApplicationFilter{
		Status: c.Query("status"),
		UserID: c.Query("user_id"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, apps, &response.Meta{
		Total:   int(total),
		PerPage: limit,
	})
}

// Images returns short-lived links to the stored captures of an application.
func (h *ApplicationHandler) Images(c *gin.Context) {
	images, err := h.apps.ImageLinks(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, images)
}

type reviewApplicationRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string `json:"reason"`
}

// Review applies a manual decision to an application.
func (h *ApplicationHandler) Review(c *gin.Context) {
	var req reviewApplicationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	app, err := h.apps.Review(requestContext(c), services.ReviewInput{
		ApplicationID: c.Param("id"),
		ReviewerID:    c.GetString(middleware.CtxUserIDKey),
		Approve:       req.Decision == "approve",
		Reason:        req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, app)
}

type extractRequest struct {
	Document string `json:"document" validate:"required"`
}

// Extract reads text lines off a document image for form prefill. Extraction
// failures surface as errors; nothing is synthesized.
func (h *ApplicationHandler) Extract(c *gin.Context) {
	var req extractRequest
	if !bindAndValidate(c, &req) {
		return
	}

	document, err := decodeImage("document", req.Document)
	if err != nil {
		response.Error(c, err)
		return
	}

	lines, err := h.extraction.ExtractLines(requestContext(c), document)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"lines": lines})
}
