// Package jsonfile keeps each collection as a pretty-printed JSON array in a
// data directory. A missing or unreadable file reads as an empty collection.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hadithconsole/internal/models"
	"github.com/hadithconsole/internal/store"
)

const (
	notificationsFile = "notifications.json"
	hadithsFile       = "hadiths.json"
	cronLogsFile      = "cron-logs.json"
)

type collection[T any] struct {
	dir  string
	name string
	mu   sync.Mutex
}

func (c *collection[T]) path() string {
	return filepath.Join(c.dir, c.name)
}

func (c *collection[T]) read() ([]T, error) {
	data, err := os.ReadFile(c.path())
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", c.name, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		// A corrupt file is treated like an empty one so the console keeps working.
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *collection[T]) write(items []T) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if items == nil {
		items = []T{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", c.name, err)
	}

	tmp, err := os.CreateTemp(c.dir, c.name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", c.name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", c.name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.name, err)
	}
	if err := os.Rename(tmp.Name(), c.path()); err != nil {
		return fmt.Errorf("failed to replace %s: %w", c.name, err)
	}
	return nil
}

func (c *collection[T]) load() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read()
}

func (c *collection[T]) overwrite(items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(items)
}

// Notifications stores notifications.json.
type Notifications struct {
	c *collection[models.Notification]
}

func NewNotifications(dir string) *Notifications {
	return &Notifications{c: &collection[models.Notification]{dir: dir, name: notificationsFile}}
}

func (s *Notifications) LoadAll(_ context.Context) ([]models.Notification, error) {
	return s.c.load()
}

func (s *Notifications) OverwriteAll(_ context.Context, notifications []models.Notification) error {
	return s.c.overwrite(notifications)
}

// Hadiths stores hadiths.json.
type Hadiths struct {
	c *collection[models.Hadith]
}

func NewHadiths(dir string) *Hadiths {
	return &Hadiths{c: &collection[models.Hadith]{dir: dir, name: hadithsFile}}
}

func (s *Hadiths) LoadAll(_ context.Context) ([]models.Hadith, error) {
	return s.c.load()
}

func (s *Hadiths) OverwriteAll(_ context.Context, hadiths []models.Hadith) error {
	return s.c.overwrite(hadiths)
}

// CronLogs stores cron-logs.json, newest entry first.
type CronLogs struct {
	c *collection[models.CronLog]
}

func NewCronLogs(dir string) *CronLogs {
	return &CronLogs{c: &collection[models.CronLog]{dir: dir, name: cronLogsFile}}
}

func (s *CronLogs) Append(_ context.Context, entry models.CronLog) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	logs, err := s.c.read()
	if err != nil {
		return err
	}
	logs = append([]models.CronLog{entry}, logs...)
	if len(logs) > store.MaxAuditEntries {
		logs = logs[:store.MaxAuditEntries]
	}
	return s.c.write(logs)
}

func (s *CronLogs) LoadAll(_ context.Context) ([]models.CronLog, error) {
	return s.c.load()
}

func (s *CronLogs) ClearAll(_ context.Context) error {
	return s.c.overwrite([]models.CronLog{})
}

var (
	_ store.NotificationStore = (*Notifications)(nil)
	_ store.HadithStore       = (*Hadiths)(nil)
	_ store.AuditLog          = (*CronLogs)(nil)
)
