package middleware

import (
	"crypto/subtle"
	"net/http"

	"kleihaven/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

// SchedulerTokenHeader carries the shared secret for scheduled and
// administrative invocations (the sweep, period management).
const SchedulerTokenHeader = "X-Scheduler-Token"

// SchedulerToken rejects requests that do not carry the configured scheduler
// token. An empty configured token locks the routes entirely; there is no
// open-by-default mode.
func SchedulerToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(SchedulerTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			response.RespondError(c, http.StatusUnauthorized,
				response.CodeUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}
