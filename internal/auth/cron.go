package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// InternalCronHeader marks a request from the in-process timer. It is only
// honored in development.
const InternalCronHeader = "x-internal-cron"

// CronAuthorizer checks callers of the cron trigger endpoint.
type CronAuthorizer struct {
	secret      string
	development bool
}

func NewCronAuthorizer(secret string, development bool) *CronAuthorizer {
	return &CronAuthorizer{secret: secret, development: development}
}

// Authorize returns nil when r carries the cron secret as a bearer token or
// a "secret" query parameter. An unset secret matches nothing.
func (a *CronAuthorizer) Authorize(r *http.Request) error {
	if a.development && r.Header.Get(InternalCronHeader) == "true" {
		return nil
	}
	if a.secret == "" {
		return ErrUnauthorized
	}
	if a.matches(bearerToken(r.Header.Get("Authorization"))) || a.matches(r.URL.Query().Get("secret")) {
		return nil
	}
	return ErrUnauthorized
}

func (a *CronAuthorizer) matches(candidate string) bool {
	return candidate != "" && subtle.ConstantTimeCompare([]byte(candidate), []byte(a.secret)) == 1
}

func (a *CronAuthorizer) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.Authorize(c.Request); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
