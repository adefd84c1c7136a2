package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "treasurytracker/internal/errors"
	"treasurytracker/internal/logger"
)

// PipelineAPIKeyHeader carries the shared secret of the status pipeline.
const PipelineAPIKeyHeader = "X-API-Key"

// PipelineAuthMiddleware guards the endpoints driven by the scheduled status
// job. With no key configured the endpoints are disabled outright.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithError(c, apperrors.ErrPipelineNotConfigured)
			return
		}
		key := c.GetHeader(PipelineAPIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			logger.Get().Warnw("pipeline key rejected", "client_ip", c.ClientIP(), "path", c.Request.URL.Path)
			abortWithError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
