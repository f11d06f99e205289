// Package store defines the full-collection persistence contracts used by the
// console and the job processor. Collections are small and read or written as
// a whole; there are no per-record updates.
package store

import (
	"context"

	"github.com/hadithconsole/internal/models"
)

// MaxAuditEntries is how many cron log entries a sink retains. Older entries
// are dropped on append.
const MaxAuditEntries = 500

type NotificationStore interface {
	LoadAll(ctx context.Context) ([]models.Notification, error)
	OverwriteAll(ctx context.Context, notifications []models.Notification) error
}

type HadithStore interface {
	LoadAll(ctx context.Context) ([]models.Hadith, error)
	OverwriteAll(ctx context.Context, hadiths []models.Hadith) error
}

// AuditLog is the append-only sink for cron log entries. LoadAll returns the
// newest entry first.
type AuditLog interface {
	Append(ctx context.Context, entry models.CronLog) error
	LoadAll(ctx context.Context) ([]models.CronLog, error)
	ClearAll(ctx context.Context) error
}
