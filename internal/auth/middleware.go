// Package auth guards the admin API with a signed session token and the cron
// trigger endpoint with a shared secret.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"github.com/hadithconsole/internal/models"
)

const (
	// CookieName is the session cookie set on login.
	CookieName = "admin-session"
	// SessionTTL is how long a session token stays valid.
	SessionTTL = 7 * 24 * time.Hour
)

// ErrUnauthorized is returned for a missing, invalid or expired credential.
var ErrUnauthorized = errors.New("unauthorized")

type Claims struct {
	Role models.Role `json:"role"`
	jwt.StandardClaims
}

// Sessions issues and verifies admin session tokens.
type Sessions struct {
	secret []byte
	admin  *models.User
	now    func() time.Time
}

func NewSessions(secret string, admin *models.User) *Sessions {
	return &Sessions{secret: []byte(secret), admin: admin, now: time.Now}
}

// Login checks the admin password and returns a signed token.
func (s *Sessions) Login(password string) (string, error) {
	if password == "" || !s.admin.CheckPassword(password) {
		return "", ErrUnauthorized
	}
	return s.GenerateToken(s.admin)
}

func (s *Sessions) GenerateToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		Role: user.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.Username,
			ExpiresAt: now.Add(SessionTTL).Unix(),
			IssuedAt:  now.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns its claims. Any failure is ErrUnauthorized.
func (s *Sessions) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims := &Claims{}
	parser := &jwt.Parser{SkipClaimsValidation: true}
	tkn, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrUnauthorized
	}
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// SetCookie writes the session cookie. A negative maxAge clears it.
func SetCookie(c *gin.Context, token string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, maxAge, "/", "", secure, true)
}

// AuthMiddleware accepts the session cookie or an "Authorization: Bearer"
// header carrying the same token.
func (s *Sessions) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(CookieName)
		if token == "" {
			token = bearerToken(c.GetHeader("Authorization"))
		}

		claims, err := s.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set("user", claims.Subject)
		c.Set("role", string(claims.Role))
		c.Next()
	}
}

func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString("role")
		for _, role := range roles {
			if string(role) == userRole {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
