package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civigo/civigo/internal/middleware"
	"github.com/civigo/civigo/internal/services"
	"github.com/civigo/civigo/pkg/response"
)

// HolderHandler exposes public credential verification and reviewer-side
// suspension.
type HolderHandler struct {
	holders *services.HolderService
}

// NewHolderHandler builds the handler.
func NewHolderHandler(holders *services.HolderService) *HolderHandler {
	return &HolderHandler{holders: holders}
}

// Verify answers the public validity check for a UIN.
func (h *HolderHandler) Verify(c *gin.Context) {
	result, err := h.holders.Verify(requestContext(c), c.Param("uin"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// QR renders the credential card QR code as a PNG.
func (h *HolderHandler) QR(c *gin.Context) {
	png, err := h.holders.QRCode(requestContext(c), c.Param("uin"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// Suspend marks a credential as suspended.
func (h *HolderHandler) Suspend(c *gin.Context) {
	holder, err := h.holders.Suspend(requestContext(c), c.Param("uin"), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, holder)
}
