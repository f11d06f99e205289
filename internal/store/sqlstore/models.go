package sqlstore

import (
	"encoding/json"
	"time"

	"github.com/hadithconsole/internal/models"
)

// Rows carry a Position column so LoadAll returns records in the order they
// were last written.

type notificationRow struct {
	ID            string `gorm:"primaryKey"`
	Position      int    `gorm:"index"`
	Title         string
	Body          string
	Type          string `gorm:"not null"`
	ScheduledDate string
	ScheduledTime string
	RecurringDays string // JSON array of weekday indices
	RecurringTime string
	Active        bool
	CreatedAt     time.Time
	SentAt        *time.Time
	LastSentAt    *time.Time
}

func (notificationRow) TableName() string { return "notifications" }

type hadithRow struct {
	ID        string `gorm:"primaryKey"`
	Position  int    `gorm:"index"`
	Text      string
	Narrator  string
	Source    string
	Date      string `gorm:"index"`
	CreatedAt time.Time
	SentAt    *time.Time
}

func (hadithRow) TableName() string { return "hadiths" }

type cronLogRow struct {
	Seq               uint   `gorm:"primaryKey;autoIncrement"`
	ID                string `gorm:"uniqueIndex"`
	Timestamp         time.Time
	Type              string
	NotificationID    string
	NotificationTitle string
	Status            string
	Message           string
}

func (cronLogRow) TableName() string { return "cron_logs" }

// Models returns the gorm models to migrate for this store.
func Models() []interface{} {
	return []interface{}{&notificationRow{}, &hadithRow{}, &cronLogRow{}}
}

func toNotificationRow(n models.Notification, position int) (notificationRow, error) {
	days := "[]"
	if len(n.RecurringDays) > 0 {
		b, err := json.Marshal(n.RecurringDays)
		if err != nil {
			return notificationRow{}, err
		}
		days = string(b)
	}
	return notificationRow{
		ID:            n.ID,
		Position:      position,
		Title:         n.Title,
		Body:          n.Body,
		Type:          string(n.Type),
		ScheduledDate: n.ScheduledDate,
		ScheduledTime: n.ScheduledTime,
		RecurringDays: days,
		RecurringTime: n.RecurringTime,
		Active:        n.Active,
		CreatedAt:     n.CreatedAt,
		SentAt:        n.SentAt,
		LastSentAt:    n.LastSentAt,
	}, nil
}

func (r notificationRow) toModel() (models.Notification, error) {
	var days []int
	if r.RecurringDays != "" {
		if err := json.Unmarshal([]byte(r.RecurringDays), &days); err != nil {
			return models.Notification{}, err
		}
	}
	if len(days) == 0 {
		days = nil
	}
	return models.Notification{
		ID:            r.ID,
		Title:         r.Title,
		Body:          r.Body,
		Type:          models.NotificationType(r.Type),
		ScheduledDate: r.ScheduledDate,
		ScheduledTime: r.ScheduledTime,
		RecurringDays: days,
		RecurringTime: r.RecurringTime,
		Active:        r.Active,
		CreatedAt:     r.CreatedAt,
		SentAt:        r.SentAt,
		LastSentAt:    r.LastSentAt,
	}, nil
}

func toHadithRow(h models.Hadith, position int) hadithRow {
	return hadithRow{
		ID:        h.ID,
		Position:  position,
		Text:      h.Text,
		Narrator:  h.Narrator,
		Source:    h.Source,
		Date:      h.Date,
		CreatedAt: h.CreatedAt,
		SentAt:    h.SentAt,
	}
}

func (r hadithRow) toModel() models.Hadith {
	return models.Hadith{
		ID:        r.ID,
		Text:      r.Text,
		Narrator:  r.Narrator,
		Source:    r.Source,
		Date:      r.Date,
		CreatedAt: r.CreatedAt,
		SentAt:    r.SentAt,
	}
}

func toCronLogRow(l models.CronLog) cronLogRow {
	return cronLogRow{
		ID:                l.ID,
		Timestamp:         l.Timestamp,
		Type:              string(l.Type),
		NotificationID:    l.NotificationID,
		NotificationTitle: l.NotificationTitle,
		Status:            string(l.Status),
		Message:           l.Message,
	}
}

func (r cronLogRow) toModel() models.CronLog {
	return models.CronLog{
		ID:                r.ID,
		Timestamp:         r.Timestamp,
		Type:              models.CronLogType(r.Type),
		NotificationID:    r.NotificationID,
		NotificationTitle: r.NotificationTitle,
		Status:            models.CronLogStatus(r.Status),
		Message:           r.Message,
	}
}
