package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hadithconsole/internal/auth"
	"github.com/hadithconsole/internal/content"
	"github.com/hadithconsole/internal/jobs"
	"github.com/hadithconsole/internal/models"
	"github.com/hadithconsole/internal/store/jsonfile"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSender struct {
	err   error
	calls int
}

func (s *stubSender) Send(context.Context, string, string) error {
	s.calls++
	return s.err
}

type stubTrigger struct {
	res     jobs.Result
	err     error
	sources []string
	started bool
}

func (s *stubTrigger) Trigger(_ context.Context, source string) (jobs.Result, error) {
	s.sources = append(s.sources, source)
	return s.res, s.err
}

func (s *stubTrigger) Started() bool { return s.started }

type harness struct {
	server        *Server
	sender        *stubSender
	trigger       *stubTrigger
	sessions      *auth.Sessions
	notifications *jsonfile.Notifications
	cronLogs      *jsonfile.CronLogs
	token         string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	admin, err := models.NewAdmin("admin123")
	require.NoError(t, err)
	sessions := auth.NewSessions("test-secret", admin)
	token, err := sessions.Login("admin123")
	require.NoError(t, err)

	h := &harness{
		sender:        &stubSender{},
		trigger:       &stubTrigger{res: jobs.Result{Processed: 1, Details: []string{"✅ Hadith of the day sent"}}, started: true},
		sessions:      sessions,
		notifications: jsonfile.NewNotifications(dir),
		cronLogs:      jsonfile.NewCronLogs(dir),
		token:         token,
	}
	h.server = NewServer(Options{
		Notifications: content.NewNotificationManager(h.notifications, h.sender, zap.NewNop()),
		Hadiths:       content.NewHadithManager(jsonfile.NewHadiths(dir)),
		CronLogs:      h.cronLogs,
		Scheduler:     h.trigger,
		Sessions:      sessions,
		CronAuth:      auth.NewCronAuthorizer("cron-secret", false),
		Logger:        zap.NewNop(),
	})
	return h
}

func (h *harness) do(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: h.token})
	}
	w := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/auth", gin.H{"password": "wrong"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, http.MethodPost, "/api/auth", gin.H{"password": "admin123"}, false)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	w = h.do(t, http.MethodDelete, "/api/auth", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	h := newHarness(t)

	for _, path := range []string{"/api/notifications", "/api/hadiths", "/api/cron-logs"} {
		w := h.do(t, http.MethodGet, path, nil, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestProtectedRoutesRequireAdminRole(t *testing.T) {
	h := newHarness(t)
	token, err := h.sessions.GenerateToken(&models.User{Username: "viewer", Role: models.Role("viewer")})
	require.NoError(t, err)
	h.token = token

	for _, path := range []string{"/api/notifications", "/api/hadiths", "/api/cron-logs"} {
		w := h.do(t, http.MethodGet, path, nil, true)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
}

func TestNotificationLifecycle(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/notifications", gin.H{
		"title": "جمعة مباركة", "body": "b", "type": "recurring",
		"recurringDays": []int{5}, "recurringTime": "09:00",
	}, true)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[models.Notification](t, w)
	assert.True(t, created.Active)

	w = h.do(t, http.MethodPut, "/api/notifications", gin.H{"id": created.ID, "active": false}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[models.Notification](t, w).Active)

	w = h.do(t, http.MethodGet, "/api/notifications", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Notification](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "جمعة مباركة", list[0].Title)

	w = h.do(t, http.MethodPut, "/api/notifications", gin.H{"id": "missing", "active": false}, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodDelete, "/api/notifications", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodDelete, "/api/notifications?id="+created.ID, nil, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, "/api/notifications", nil, true)
	assert.Empty(t, decode[[]models.Notification](t, w))
}

func TestUpdateNotification_DeliveredScheduledIsImmutable(t *testing.T) {
	h := newHarness(t)
	sent := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	require.NoError(t, h.notifications.OverwriteAll(context.Background(), []models.Notification{{
		ID: "n1", Title: "t", Body: "b", Type: models.NotificationScheduled,
		ScheduledDate: "2024-03-15", ScheduledTime: "14:30", SentAt: &sent,
	}}))

	w := h.do(t, http.MethodPut, "/api/notifications", gin.H{"id": "n1", "active": true}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodGet, "/api/notifications", nil, true)
	list := decode[[]models.Notification](t, w)
	require.Len(t, list, 1)
	assert.False(t, list[0].Active)
}

func TestCreateNotification_Invalid(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/notifications", gin.H{"title": "t", "body": "b", "type": "scheduled"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateNotification_ImmediateDeliveryFailure(t *testing.T) {
	h := newHarness(t)
	h.sender.err = errors.New("fcm down")

	w := h.do(t, http.MethodPost, "/api/notifications", gin.H{"title": "t", "body": "b", "type": "immediate"}, true)
	assert.Equal(t, http.StatusMultiStatus, w.Code)
	body := decode[map[string]interface{}](t, w)
	assert.NotEmpty(t, body["fcmError"])
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, 1, h.sender.calls)

	w = h.do(t, http.MethodGet, "/api/notifications", nil, true)
	assert.Len(t, decode[[]models.Notification](t, w), 1)
}

func TestHadithLifecycle(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/hadiths", gin.H{"text": "إنما الأعمال بالنيات", "narrator": "عمر", "source": "البخاري", "date": "2024-03-15"}, true)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[models.Hadith](t, w)

	w = h.do(t, http.MethodPut, "/api/hadiths", gin.H{"id": created.ID, "source": "مسلم"}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "مسلم", decode[models.Hadith](t, w).Source)

	w = h.do(t, http.MethodPut, "/api/hadiths", gin.H{"id": "missing", "text": "x"}, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodDelete, "/api/hadiths", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodDelete, "/api/hadiths?id=unknown", nil, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, "/api/hadiths", nil, true)
	assert.Len(t, decode[[]models.Hadith](t, w), 1)
}

func TestCronLogs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.cronLogs.Append(ctx, models.CronLog{ID: "1", Type: models.CronLogSystem, Status: models.CronLogSuccess, Message: "a"}))
	require.NoError(t, h.cronLogs.Append(ctx, models.CronLog{ID: "2", Type: models.CronLogSystem, Status: models.CronLogSuccess, Message: "b"}))

	w := h.do(t, http.MethodGet, "/api/cron-logs", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode[[]models.CronLog](t, w)
	require.Len(t, logs, 2)
	assert.Equal(t, "2", logs[0].ID)

	w = h.do(t, http.MethodDelete, "/api/cron-logs", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, "/api/cron-logs", nil, true)
	assert.Empty(t, decode[[]models.CronLog](t, w))
}

func TestRunCron(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/cron", nil, true)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "a session is not a cron credential")
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

	w = h.do(t, http.MethodGet, "/api/cron?secret=cron-secret", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, true, body["ok"])
	assert.EqualValues(t, 1, body["processed"])
	assert.EqualValues(t, 0, body["errors"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Equal(t, []string{"api"}, h.trigger.sources)
}

func TestRunCron_Aborted(t *testing.T) {
	h := newHarness(t)
	h.trigger.err = errors.New("cron run aborted: boom")

	req := httptest.NewRequest(http.MethodGet, "/api/cron", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	w := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"cron run aborted: boom"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/healthz", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","scheduler":"started"}`, w.Body.String())
}
