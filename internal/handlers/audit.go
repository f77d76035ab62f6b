package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civigo/civigo/internal/services"
	"github.com/civigo/civigo/pkg/response"
)

// AuditHandler exposes the audit trail to reviewers.
type AuditHandler struct {
	audit *services.AuditService
}

// NewAuditHandler builds the handler.
func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns audit events newest first.
func (h *AuditHandler) List(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	entries, total, err := h.audit.List(requestContext(c), services.AuditFilter{
		UserID: c.Query("user_id"),
		Action: c.Query("action"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, entries, &response.Meta{
		Total:   int(total),
		PerPage: limit,
	})
}
