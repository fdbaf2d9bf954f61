package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HTTPAuthMiddleware rejects requests without a valid bearer token when
// authentication is enabled
func HTTPAuthMiddleware(auth Authenticator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.Enabled() {
			c.Next()
			return
		}

		authCtx, err := auth.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			logger.Warn("HTTP authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Error(err))

			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "Authentication failed",
				Code:  CodeUnauthorized,
			})
			return
		}

		c.Request = c.Request.WithContext(SetAuthContext(c.Request.Context(), authCtx))

		logger.Debug("HTTP authentication successful",
			zap.String("path", c.Request.URL.Path),
			zap.String("user_id", authCtx.UserID),
			zap.Strings("roles", authCtx.Roles))

		c.Next()
	}
}

// requestLogger logs one line per request
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
