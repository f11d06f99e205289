package models

import (
	"time"
)

type CronLogType string

const (
	CronLogScheduled CronLogType = "scheduled"
	CronLogRecurring CronLogType = "recurring"
	CronLogHadith    CronLogType = "hadith"
	CronLogSystem    CronLogType = "system"
)

type CronLogStatus string

const (
	CronLogSuccess CronLogStatus = "success"
	CronLogError   CronLogStatus = "error"
)

// CronLog is one audit entry written by the job processor. Entries are never
// modified after they are appended.
type CronLog struct {
	ID                string        `json:"id"`
	Timestamp         time.Time     `json:"timestamp"`
	Type              CronLogType   `json:"type"`
	NotificationID    string        `json:"notificationId,omitempty"`
	NotificationTitle string        `json:"notificationTitle,omitempty"`
	Status            CronLogStatus `json:"status"`
	Message           string        `json:"message"`
}
