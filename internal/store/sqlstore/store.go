// Package sqlstore implements the record stores on top of gorm. OverwriteAll
// replaces a whole table inside one transaction.
package sqlstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/hadithconsole/internal/models"
	"github.com/hadithconsole/internal/store"
)

const batchSize = 100

type Notifications struct {
	db *gorm.DB
}

func NewNotifications(db *gorm.DB) *Notifications {
	return &Notifications{db: db}
}

func (s *Notifications) LoadAll(ctx context.Context) ([]models.Notification, error) {
	var rows []notificationRow
	if err := s.db.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}

	notifications := make([]models.Notification, 0, len(rows))
	for _, row := range rows {
		n, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("failed to decode notification %s: %w", row.ID, err)
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

func (s *Notifications) OverwriteAll(ctx context.Context, notifications []models.Notification) error {
	rows := make([]notificationRow, 0, len(notifications))
	for i, n := range notifications {
		row, err := toNotificationRow(n, i)
		if err != nil {
			return fmt.Errorf("failed to encode notification %s: %w", n.ID, err)
		}
		rows = append(rows, row)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&notificationRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear notifications: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, batchSize).Error; err != nil {
			return fmt.Errorf("failed to save notifications: %w", err)
		}
		return nil
	})
}

type Hadiths struct {
	db *gorm.DB
}

func NewHadiths(db *gorm.DB) *Hadiths {
	return &Hadiths{db: db}
}

func (s *Hadiths) LoadAll(ctx context.Context) ([]models.Hadith, error) {
	var rows []hadithRow
	if err := s.db.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load hadiths: %w", err)
	}

	hadiths := make([]models.Hadith, 0, len(rows))
	for _, row := range rows {
		hadiths = append(hadiths, row.toModel())
	}
	return hadiths, nil
}

func (s *Hadiths) OverwriteAll(ctx context.Context, hadiths []models.Hadith) error {
	rows := make([]hadithRow, 0, len(hadiths))
	for i, h := range hadiths {
		rows = append(rows, toHadithRow(h, i))
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&hadithRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear hadiths: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, batchSize).Error; err != nil {
			return fmt.Errorf("failed to save hadiths: %w", err)
		}
		return nil
	})
}

type CronLogs struct {
	db *gorm.DB
}

func NewCronLogs(db *gorm.DB) *CronLogs {
	return &CronLogs{db: db}
}

func (s *CronLogs) Append(ctx context.Context, entry models.CronLog) error {
	row := toCronLogRow(entry)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to append cron log: %w", err)
		}

		keep := tx.Model(&cronLogRow{}).Select("seq").Order("seq desc").Limit(store.MaxAuditEntries)
		if err := tx.Where("seq NOT IN (?)", keep).Delete(&cronLogRow{}).Error; err != nil {
			return fmt.Errorf("failed to trim cron logs: %w", err)
		}
		return nil
	})
}

func (s *CronLogs) LoadAll(ctx context.Context) ([]models.CronLog, error) {
	var rows []cronLogRow
	if err := s.db.WithContext(ctx).Order("seq desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load cron logs: %w", err)
	}

	logs := make([]models.CronLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, row.toModel())
	}
	return logs, nil
}

func (s *CronLogs) ClearAll(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&cronLogRow{}).Error; err != nil {
		return fmt.Errorf("failed to clear cron logs: %w", err)
	}
	return nil
}

var (
	_ store.NotificationStore = (*Notifications)(nil)
	_ store.HadithStore       = (*Hadiths)(nil)
	_ store.AuditLog          = (*CronLogs)(nil)
)
