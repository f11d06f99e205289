package models

import (
	"time"
)

type NotificationType string

const (
	NotificationImmediate NotificationType = "immediate"
	NotificationScheduled NotificationType = "scheduled"
	NotificationRecurring NotificationType = "recurring"
)

// Notification is a push message managed from the console. Scheduled and
// recurring notifications are delivered by the job processor; immediate ones
// are delivered when they are created.
type Notification struct {
	ID    string           `json:"id"`
	Title string           `json:"title"`
	Body  string           `json:"body"`
	Type  NotificationType `json:"type"`

	// Scheduled: wall-clock date (YYYY-MM-DD) and minute (HH:MM) in the cron time zone.
	ScheduledDate string `json:"scheduledDate,omitempty"`
	ScheduledTime string `json:"scheduledTime,omitempty"`

	// Recurring: weekdays 0=Sunday..6=Saturday and minute (HH:MM).
	RecurringDays []int  `json:"recurringDays,omitempty"`
	RecurringTime string `json:"recurringTime,omitempty"`

	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`

	// Written only by the job processor.
	SentAt     *time.Time `json:"sentAt,omitempty"`
	LastSentAt *time.Time `json:"lastSentAt,omitempty"`
}

// HasDay reports whether the recurring schedule includes weekday.
func (n *Notification) HasDay(weekday int) bool {
	for _, d := range n.RecurringDays {
		if d == weekday {
			return true
		}
	}
	return false
}
