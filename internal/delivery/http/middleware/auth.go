package middleware

import (
	"net/http"
	"strings"

	"studio-server/internal/lmsapi"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// RefreshHeader carries the LMS refresh token next to the bearer token.
	RefreshHeader = "X-Refresh-Token"
	// AccessTokenHeader returns a renewed access token to the browser.
	AccessTokenHeader = "X-Access-Token"
)

// Credentials takes the caller's LMS tokens from the Authorization and
// X-Refresh-Token headers. Browsers cannot set headers on a websocket
// handshake, so the token and refresh query parameters are accepted too.
// The studio does not verify the token; the LMS does on every call.
func Credentials(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("CredentialsMiddleware")
	return func(c *gin.Context) {
		access, refresh := bearerToken(c.GetHeader("Authorization")), c.GetHeader(RefreshHeader)
		if access == "" {
			access, refresh = c.Query("token"), c.Query("refresh")
		}
		if access == "" {
			log.Debug("Request without access token", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication credentials were not provided."})
			return
		}

		creds := lmsapi.NewCredentials(access, refresh)
		c.Set(credentialsKey, creds)
		c.Writer = &tokenWriter{ResponseWriter: c.Writer, creds: creds}
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// tokenWriter adds the renewed access token once the status is set, which
// always happens before the body is written.
type tokenWriter struct {
	gin.ResponseWriter
	creds *lmsapi.Credentials
}

func (w *tokenWriter) WriteHeader(code int) {
	if w.creds.Refreshed() {
		w.Header().Set(AccessTokenHeader, w.creds.Access())
	}
	w.ResponseWriter.WriteHeader(code)
}
