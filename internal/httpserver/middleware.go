package httpserver

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"hayase/internal/service/session"

	"github.com/gin-gonic/gin"
)

const (
	sessionHeader  = "X-Cart-Session"
	adminKeyHeader = "X-Admin-Key"
	sessionCtxKey  = "hayase.session"
)

// sessionMiddleware resolves the shopper session named by X-Cart-Session,
// issuing a new one when the header is missing or malformed. The id in use
// is always echoed back.
func sessionMiddleware(sessions SessionRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, _ := sessions.Resolve(c.Request.Context(), strings.TrimSpace(c.GetHeader(sessionHeader)))
		c.Header(sessionHeader, s.ID)
		c.Set(sessionCtxKey, s)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionCtxKey).(*session.Session)
}

func adminMiddleware(keys []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(adminKeyHeader)
		if got == "" || !validAdminKey(keys, got) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Code: "unauthorized", Message: "admin key required"})
			return
		}
		c.Next()
	}
}

func validAdminKey(keys []string, got string) bool {
	ok := false
	for _, k := range keys {
		if k != "" && subtle.ConstantTimeCompare([]byte(k), []byte(got)) == 1 {
			ok = true
		}
	}
	return ok
}
