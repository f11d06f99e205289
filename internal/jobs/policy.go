package jobs

import (
	"time"

	"github.com/hadithconsole/internal/models"
)

// DefaultCooldown suppresses a recurring send when the previous one happened
// less than this long ago. It must exceed the tick interval so the matching
// minute is not delivered twice.
const DefaultCooldown = 90 * time.Second

// DefaultHadithSendTime is the daily hadith broadcast minute.
const DefaultHadithSendTime = "09:00"

// Policy decides due-ness for notifications and the daily hadith.
//
// Cooldown is a heuristic duplicate guard for recurring notifications, not a
// mutual exclusion: two overlapping runs that both load the record before
// either writes it back can still both deliver. A per-occurrence idempotency
// key would close that gap.
type Policy struct {
	Cooldown time.Duration
	// ScheduledGrace widens the scheduled match from the exact minute to
	// [target, target+grace]. Zero keeps exact-minute matching.
	ScheduledGrace time.Duration
	HadithSendTime string
}

func DefaultPolicy() Policy {
	return Policy{
		Cooldown:       DefaultCooldown,
		HadithSendTime: DefaultHadithSendTime,
	}
}

// ScheduledDue reports whether a one-time notification fires in w. Only an
// error from malformed schedule fields is returned; such records are never due.
func (p Policy) ScheduledDue(n *models.Notification, w Window, loc *time.Location) (bool, error) {
	if n.Type != models.NotificationScheduled || !n.Active || n.SentAt != nil {
		return false, nil
	}

	if p.ScheduledGrace <= 0 {
		return n.ScheduledDate == w.Date && n.ScheduledTime == w.Time, nil
	}

	target, err := parseLocalMinute(n.ScheduledDate, n.ScheduledTime, loc)
	if err != nil {
		return false, err
	}
	current, err := parseLocalMinute(w.Date, w.Time, loc)
	if err != nil {
		return false, err
	}
	late := current.Sub(target)
	return late >= 0 && late <= p.ScheduledGrace, nil
}

// RecurringMatches reports whether w is an occurrence of n's weekly schedule.
func (p Policy) RecurringMatches(n *models.Notification, w Window) bool {
	if n.Type != models.NotificationRecurring || !n.Active {
		return false
	}
	return n.HasDay(w.Weekday) && n.RecurringTime == w.Time
}

// InCooldown reports whether n was delivered too recently to fire again.
func (p Policy) InCooldown(n *models.Notification, w Window) bool {
	if n.LastSentAt == nil {
		return false
	}
	return w.Instant.Sub(*n.LastSentAt) < p.Cooldown
}

// HadithDue reports whether w is the daily hadith minute.
func (p Policy) HadithDue(w Window) bool {
	return w.Time == p.HadithSendTime
}

// PickHadith returns the index of the first unsent hadith for date, or -1.
// Once any hadith for date has been sent, nothing more is picked that day.
func PickHadith(hadiths []models.Hadith, date string) int {
	pick := -1
	for i := range hadiths {
		if hadiths[i].Date != date {
			continue
		}
		if hadiths[i].SentAt != nil {
			return -1
		}
		if pick < 0 {
			pick = i
		}
	}
	return pick
}
