package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hadithconsole/internal/models"
)

// ============================================================
// Clock
// ============================================================

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func cairo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Cairo")
	require.NoError(t, err)
	return loc
}

// ============================================================
// Stores
// ============================================================

type memNotifications struct {
	mu         sync.Mutex
	items      []models.Notification
	loadErr    error
	saveErr    error
	overwrites int
}

func (m *memNotifications) LoadAll(_ context.Context) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]models.Notification, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *memNotifications) OverwriteAll(_ context.Context, items []models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.overwrites++
	m.items = make([]models.Notification, len(items))
	copy(m.items, items)
	return nil
}

func (m *memNotifications) get(id string) models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.ID == id {
			return n
		}
	}
	return models.Notification{}
}

type memHadiths struct {
	mu         sync.Mutex
	items      []models.Hadith
	loadErr    error
	saveErr    error
	overwrites int
}

func (m *memHadiths) LoadAll(_ context.Context) ([]models.Hadith, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]models.Hadith, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *memHadiths) OverwriteAll(_ context.Context, items []models.Hadith) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.overwrites++
	m.items = make([]models.Hadith, len(items))
	copy(m.items, items)
	return nil
}

type memAudit struct {
	mu      sync.Mutex
	entries []models.CronLog
}

func (m *memAudit) Append(_ context.Context, entry models.CronLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]models.CronLog{entry}, m.entries...)
	return nil
}

func (m *memAudit) LoadAll(_ context.Context) ([]models.CronLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CronLog, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *memAudit) ClearAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

func (m *memAudit) byStatus(status models.CronLogStatus) []models.CronLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CronLog
	for _, e := range m.entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// ============================================================
// Sender
// ============================================================

type sentMessage struct {
	Title string
	Body  string
}

type recordingSender struct {
	mu     sync.Mutex
	sent   []sentMessage
	failOn map[string]error // keyed by title
}

func (s *recordingSender) Send(_ context.Context, title, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failOn[title]; ok {
		return err
	}
	s.sent = append(s.sent, sentMessage{Title: title, Body: body})
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

var errGateway = errors.New("gateway unavailable")
