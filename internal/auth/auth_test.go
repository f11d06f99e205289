package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadithconsole/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSessions(t *testing.T) *Sessions {
	t.Helper()
	admin, err := models.NewAdmin("admin123")
	require.NoError(t, err)
	return NewSessions("test-secret", admin)
}

func TestLogin(t *testing.T) {
	s := newSessions(t)

	token, err := s.Login("admin123")
	require.NoError(t, err)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newSessions(t)

	_, err := s.Login("nope")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.Login("")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerify_Expired(t *testing.T) {
	s := newSessions(t)
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }

	token, err := s.Login("admin123")
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(SessionTTL - time.Minute) }
	_, err = s.Verify(token)
	assert.NoError(t, err)

	s.now = func() time.Time { return issued.Add(SessionTTL + time.Minute) }
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerify_OtherSecret(t *testing.T) {
	s := newSessions(t)
	token, err := s.Login("admin123")
	require.NoError(t, err)

	other := NewSessions("other-secret", s.admin)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	s := newSessions(t)
	claims := Claims{Role: models.RoleAdmin, StandardClaims: jwt.StandardClaims{
		Subject:   "admin",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func protectedRouter(s *Sessions) *gin.Engine {
	r := gin.New()
	r.GET("/api/x", s.AuthMiddleware(), RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString("user")})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	s := newSessions(t)
	token, err := s.Login("admin123")
	require.NoError(t, err)
	r := protectedRouter(s)

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"no credential", func(*http.Request) {}, http.StatusUnauthorized},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: token}) }, http.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"garbage cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: "x.y.z"}) }, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestCronAuthorizer(t *testing.T) {
	tests := []struct {
		name        string
		secret      string
		development bool
		url         string
		headers     map[string]string
		wantErr     bool
	}{
		{name: "bearer", secret: "s3", url: "/api/cron", headers: map[string]string{"Authorization": "Bearer s3"}},
		{name: "query", secret: "s3", url: "/api/cron?secret=s3"},
		{name: "wrong bearer", secret: "s3", url: "/api/cron", headers: map[string]string{"Authorization": "Bearer nope"}, wantErr: true},
		{name: "nothing", secret: "s3", url: "/api/cron", wantErr: true},
		{name: "unset secret never matches", url: "/api/cron?secret=", headers: map[string]string{"Authorization": "Bearer "}, wantErr: true},
		{name: "internal header in development", development: true, url: "/api/cron", headers: map[string]string{InternalCronHeader: "true"}},
		{name: "internal header in production", secret: "s3", url: "/api/cron", headers: map[string]string{InternalCronHeader: "true"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			err := NewCronAuthorizer(tt.secret, tt.development).Authorize(req)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnauthorized)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCronMiddleware_Body(t *testing.T) {
	r := gin.New()
	r.GET("/api/cron", NewCronAuthorizer("s3", false).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cron", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}
