package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadithconsole/internal/api/client"
	"github.com/hadithconsole/internal/models"
)

func withServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	orig := newClient
	newClient = func() *client.Client { return client.New(srv.URL, "tok") }
	t.Cleanup(func() { newClient = orig })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseWeekdays(t *testing.T) {
	days, err := parseWeekdays([]string{"fri", "Saturday", "0"})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6, 0}, days)

	_, err = parseWeekdays([]string{"7"})
	assert.Error(t, err)
	_, err = parseWeekdays([]string{"someday"})
	assert.Error(t, err)
}

func TestDescribeSchedule(t *testing.T) {
	assert.Equal(t, "2024-03-15 14:30", describeSchedule(models.Notification{
		Type: models.NotificationScheduled, ScheduledDate: "2024-03-15", ScheduledTime: "14:30",
	}))
	assert.Equal(t, "fri,sat 09:00", describeSchedule(models.Notification{
		Type: models.NotificationRecurring, RecurringDays: []int{5, 6}, RecurringTime: "09:00",
	}))
	assert.Equal(t, "-", describeSchedule(models.Notification{Type: models.NotificationImmediate}))
}

func TestNotificationList(t *testing.T) {
	sent := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]models.Notification{
			{ID: "n1", Title: "Friday", Type: models.NotificationRecurring, RecurringDays: []int{5}, RecurringTime: "09:00", Active: true, LastSentAt: &sent},
			{ID: "n2", Title: "Eid", Type: models.NotificationScheduled, ScheduledDate: "2024-04-10", ScheduledTime: "07:00"},
		})
	})

	out, err := execute(t, "notification", "list", "--type", "recurring")
	require.NoError(t, err)
	assert.Contains(t, out, "n1")
	assert.Contains(t, out, "fri 09:00")
	assert.NotContains(t, out, "n2")
}

func TestNotificationRecurring(t *testing.T) {
	var body map[string]interface{}
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"n9"}`))
	})

	out, err := execute(t, "notification", "recurring", "Friday", "Read Al-Kahf", "--days", "fri", "--at", "09:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Notification n9 created")
	assert.Equal(t, "recurring", body["type"])
	assert.Equal(t, []interface{}{float64(5)}, body["recurringDays"])
}

func TestNotificationSend_ReportsPartialFailure(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = w.Write([]byte(`{"id":"n1","fcmError":"delivery failed"}`))
	})

	out, err := execute(t, "notification", "send", "t", "b")
	require.NoError(t, err)
	assert.Contains(t, out, "Warning: delivery failed")
}

func TestLogsList(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]models.CronLog{
			{ID: "1", Type: models.CronLogHadith, Status: models.CronLogError, Message: "boom"},
			{ID: "2", Type: models.CronLogSystem, Status: models.CronLogSuccess, Message: "manual"},
		})
	})

	out, err := execute(t, "logs", "list", "--status", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "boom")
	assert.NotContains(t, out, "manual")
}

func TestCronRun(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer s3", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"ok":true,"processed":1,"errors":0,"details":["✅ Hadith of the day sent"]}`))
	})

	out, err := execute(t, "cron", "run", "--secret", "s3")
	require.NoError(t, err)
	assert.Contains(t, out, "Processed: 1, errors: 0")
	assert.Contains(t, out, "Hadith of the day sent")
}

func TestCronRun_RequiresSecret(t *testing.T) {
	t.Setenv("CRON_SECRET", "")
	_, err := execute(t, "cron", "run")
	assert.Error(t, err)
}
