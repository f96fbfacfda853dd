// internal/middleware/recovery_middleware.go
package middleware

import (
	"fmt"
	"net/http"

	xerrors "squadhub-service/internal/pkg/errors"
	"squadhub-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns a handler panic into a 500 envelope. The panic
// value is logged with the stack and never sent to the client.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			logger.Error("panic recovered",
				zap.Error(err),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", GetRequestID(c)),
				zap.String("user_id", c.GetString(ctxUserID)),
				zap.Stack("stack"),
			)

			if c.Writer.Written() {
				// Headers are gone; the client gets a truncated body.
				c.Abort()
				return
			}
			response.FromError(c, "internal server error", fmt.Errorf("%w: %v", xerrors.ErrInternal, err))
		}()
		c.Next()
	}
}
