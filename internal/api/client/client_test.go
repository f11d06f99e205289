package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadithconsole/internal/content"
	"github.com/hadithconsole/internal/models"
)

func TestClient_SendsSessionToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/api/notifications", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]models.Notification{{ID: "n1", Title: "t"}})
	}))
	defer srv.Close()

	list, err := New(srv.URL, "tok").ListNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "n1", list[0].ID)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestClient_CreateNotificationPartial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in content.NotificationInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, models.NotificationImmediate, in.Type)
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = w.Write([]byte(`{"id":"n1","title":"t","fcmError":"failed"}`))
	}))
	defer srv.Close()

	created, err := New(srv.URL, "tok").CreateNotification(context.Background(), content.NotificationInput{
		Title: "t", Body: "b", Type: models.NotificationImmediate,
	})
	require.NoError(t, err)
	assert.Equal(t, "n1", created.ID)
	assert.Equal(t, "failed", created.FCMError)
}

func TestClient_DeleteKeepsQuery(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotID = r.URL.Query().Get("id")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL, "tok").DeleteHadith(context.Background(), "h 1"))
	assert.Equal(t, "h 1", gotID)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").ListCronLogs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestClient_RunCronUsesSecret(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"ok":true,"processed":2,"errors":0,"details":["a","b"],"timestamp":"2024-03-15T09:00:00Z"}`))
	}))
	defer srv.Close()

	run, err := New(srv.URL, "session").RunCron(context.Background(), "cron-secret")
	require.NoError(t, err)
	assert.Equal(t, "Bearer cron-secret", gotAuth)
	assert.True(t, run.OK)
	assert.Equal(t, 2, run.Processed)
}
