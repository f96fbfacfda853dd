// internal/middleware/service_key_middleware.go
package middleware

import (
	"net/http"

	"squadhub-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const headerServiceKey = "X-Service-Key"

// ServiceKey guards internal routes called by other backends. keyHash is the
// bcrypt hash of the shared key; an empty hash disables the routes.
func ServiceKey(keyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if keyHash == "" {
			response.Error(c, http.StatusForbidden, "internal routes are disabled", nil)
			return
		}

		key := c.GetHeader(headerServiceKey)
		if key == "" {
			response.Error(c, http.StatusUnauthorized, "missing service key", nil)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid service key", nil)
			return
		}

		c.Next()
	}
}
