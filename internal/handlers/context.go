package handlers

import (
	"context"
	"encoding/base64"

	"github.com/gin-gonic/gin"

	"github.com/civigo/civigo/internal/auditctx"
	"github.com/civigo/civigo/internal/middleware"
	appErrors "github.com/civigo/civigo/pkg/errors"
)

// requestContext returns the request context annotated with actor metadata
// for the audit trail, with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}

	ctx := context.Background()
	if req := c.Request; req != nil {
		ctx = req.Context()
	}

	actor := auditctx.Actor{UserID: c.GetString(middleware.CtxUserIDKey)}
	if req := c.Request; req != nil {
		actor.IPAddress = c.ClientIP()
		actor.UserAgent = req.UserAgent()
	}

	return auditctx.WithActor(ctx, actor)
}

// decodeImage decodes a base64 image field, tolerating both standard and
// URL-safe alphabets.
func decodeImage(field, value string) ([]byte, error) {
	if value == "" {
		return nil, appErrors.NewBadRequest(field + " is required")
	}

	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(value)
	}
	if err != nil {
		return nil, appErrors.NewBadRequest(field + " must be base64 encoded")
	}
	return data, nil
}
