package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"stayfinder/internal/app/policies"
)

const principalContextKey = "stayfinder.principal"

// AuthMiddleware resolves the bearer credential into a principal. Requests
// without a valid credential continue anonymously; route handlers decide
// whether authentication is required.
type AuthMiddleware struct {
	Verifier policies.CredentialVerifier
	Logger   *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Verifier == nil {
		c.Next()
		return
	}
	principal, err := m.Verifier.Verify(c.Request.Context(), token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("credential verification failed", "error", err)
		}
		c.Next()
		return
	}
	c.Set(principalContextKey, principal)
	c.Next()
}

func currentPrincipal(c *gin.Context) (policies.Principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return policies.Principal{}, false
	}
	p, ok := val.(policies.Principal)
	return p, ok
}

func requireUser(c *gin.Context) (policies.Principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return policies.Principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
