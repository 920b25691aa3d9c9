package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"homelet/internal/infra/security"
)

// Actors are identified by the X-Actor-Email header set by the gateway in
// front of this service. Authorization against the booking's parties happens
// in the application layer; here we only require that an identity is present.
func requireActor(c *gin.Context) (string, bool) {
	actor := strings.TrimSpace(c.GetHeader("X-Actor-Email"))
	if actor == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "actor identity required"})
		return "", false
	}
	return actor, true
}

// AdminKeyMiddleware gates the admin group behind an API key compared against
// a bcrypt hash.
type AdminKeyMiddleware struct {
	Checker security.AdminKeyChecker
	Logger  *slog.Logger
}

func (m AdminKeyMiddleware) Handle(c *gin.Context) {
	if !m.Checker.Configured() {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin access not configured"})
		return
	}
	key := strings.TrimSpace(c.GetHeader("X-Admin-Key"))
	if key == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin key required"})
		return
	}
	if err := m.Checker.Check(key); err != nil {
		if m.Logger != nil {
			m.Logger.Debug("admin key rejected", "error", err)
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin key rejected"})
		return
	}
	c.Next()
}
