// Package jobs runs the periodic delivery of scheduled notifications,
// recurring notifications and the daily hadith.
//
// A tick loads every collection, decides which items are due in the current
// minute of the configured time zone, delivers them one at a time, marks them
// sent and writes the mutated collection back in a single overwrite. Every
// delivery attempt leaves an audit entry.
//
// Runs are not mutually exclusive. The periodic timer and a manual trigger can
// overlap; the recurring cooldown is the only guard against a duplicate send.
package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hadithconsole/internal/models"
	"github.com/hadithconsole/internal/store"
)

// DefaultHadithTitle is the push title of the daily hadith.
const DefaultHadithTitle = "حديث اليوم 🌿"

// Sender delivers one push message to the broadcast topic.
type Sender interface {
	Send(ctx context.Context, title, body string) error
}

// Result summarizes one tick.
type Result struct {
	Processed int      `json:"processed"`
	Errors    int      `json:"errors"`
	Details   []string `json:"details"`
}

type ProcessorConfig struct {
	Policy      Policy
	HadithTitle string
}

type Processor struct {
	notifications store.NotificationStore
	hadiths       store.HadithStore
	audit         store.AuditLog
	sender        Sender
	resolver      *Resolver
	policy        Policy
	hadithTitle   string
	logger        *zap.Logger
}

func NewProcessor(
	notifications store.NotificationStore,
	hadiths store.HadithStore,
	audit store.AuditLog,
	sender Sender,
	resolver *Resolver,
	cfg ProcessorConfig,
	logger *zap.Logger,
) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Policy.Cooldown <= 0 {
		cfg.Policy.Cooldown = DefaultCooldown
	}
	cfg.Policy.HadithSendTime = MustMinuteOfDay(cfg.Policy.HadithSendTime, DefaultHadithSendTime)
	if cfg.HadithTitle == "" {
		cfg.HadithTitle = DefaultHadithTitle
	}

	return &Processor{
		notifications: notifications,
		hadiths:       hadiths,
		audit:         audit,
		sender:        sender,
		resolver:      resolver,
		policy:        cfg.Policy,
		hadithTitle:   cfg.HadithTitle,
		logger:        logger,
	}
}

// RunOnce performs one tick. Per-item failures are counted and audited; they
// never abort the rest of the tick and are never returned as errors.
func (p *Processor) RunOnce(ctx context.Context) Result {
	w := p.resolver.Now()
	res := Result{Details: []string{}}

	p.logger.Info("running cron jobs",
		zap.String("date", w.Date),
		zap.String("time", w.Time),
		zap.Int("weekday", w.Weekday),
		zap.String("timezone", p.resolver.Location().String()),
	)

	p.processNotifications(ctx, w, &res)

	if p.policy.HadithDue(w) {
		p.processHadith(ctx, w, &res)
	}

	if res.Processed == 0 && res.Errors == 0 {
		p.logger.Debug("no notifications due")
	} else {
		p.logger.Info("cron jobs done",
			zap.Int("processed", res.Processed),
			zap.Int("errors", res.Errors),
		)
	}
	return res
}

func (p *Processor) processNotifications(ctx context.Context, w Window, res *Result) {
	notifications, err := p.notifications.LoadAll(ctx)
	if err != nil {
		p.persistenceFailure(ctx, res, &PersistenceError{Collection: "notifications", Op: "load", Err: err})
		return
	}

	modified := false
	for i := range notifications {
		n := &notifications[i]
		if !n.Active {
			continue
		}

		switch n.Type {
		case models.NotificationScheduled:
			due, err := p.policy.ScheduledDue(n, w, p.resolver.Location())
			if err != nil {
				p.logger.Warn("skipping scheduled notification with malformed schedule",
					zap.String("notification_id", n.ID),
					zap.Error(err),
				)
				continue
			}
			if !due {
				continue
			}
			if p.deliver(ctx, res, scheduledKind, n.ID, n.Title, n.Title, n.Body) {
				sentAt := w.Instant
				n.SentAt = &sentAt
				n.Active = false
				modified = true
			}

		case models.NotificationRecurring:
			if !p.policy.RecurringMatches(n, w) {
				continue
			}
			if p.policy.InCooldown(n, w) {
				p.logger.Debug("recurring notification already sent for this occurrence",
					zap.String("notification_id", n.ID),
					zap.Timep("last_sent_at", n.LastSentAt),
				)
				continue
			}
			if p.deliver(ctx, res, recurringKind, n.ID, n.Title, n.Title, n.Body) {
				sentAt := w.Instant
				n.LastSentAt = &sentAt
				modified = true
			}
		}
	}

	if !modified {
		return
	}
	if err := p.notifications.OverwriteAll(ctx, notifications); err != nil {
		p.persistenceFailure(ctx, res, &PersistenceError{Collection: "notifications", Op: "save", Err: err})
	}
}

func (p *Processor) processHadith(ctx context.Context, w Window, res *Result) {
	hadiths, err := p.hadiths.LoadAll(ctx)
	if err != nil {
		p.persistenceFailure(ctx, res, &PersistenceError{Collection: "hadiths", Op: "load", Err: err})
		return
	}

	idx := PickHadith(hadiths, w.Date)
	if idx < 0 {
		return
	}
	h := &hadiths[idx]

	if !p.deliver(ctx, res, hadithKind, h.ID, p.hadithTitle, p.hadithTitle, h.Text) {
		return
	}

	sentAt := w.Instant
	h.SentAt = &sentAt
	if err := p.hadiths.OverwriteAll(ctx, hadiths); err != nil {
		p.persistenceFailure(ctx, res, &PersistenceError{Collection: "hadiths", Op: "save", Err: err})
	}
}

// deliver sends one item and records the outcome. It reports whether the
// send succeeded.
func (p *Processor) deliver(ctx context.Context, res *Result, kind auditKind, id, auditTitle, title, body string) bool {
	if err := p.sender.Send(ctx, title, body); err != nil {
		derr := &DeliveryError{ItemID: id, Err: err}
		res.Errors++
		res.Details = append(res.Details, fmt.Sprintf("❌ %s %s", kind.label, failedDetail(kind, auditTitle, err)))
		p.logger.Error("delivery failed",
			zap.String("type", string(kind.logType)),
			zap.String("id", id),
			zap.Error(derr),
		)
		p.record(ctx, models.CronLog{
			Type:              kind.logType,
			NotificationID:    id,
			NotificationTitle: auditTitle,
			Status:            models.CronLogError,
			Message:           kind.failed(auditTitle, err),
		})
		return false
	}

	res.Processed++
	res.Details = append(res.Details, fmt.Sprintf("✅ %s %s", kind.label, sentDetail(kind, auditTitle)))
	p.logger.Info("delivered",
		zap.String("type", string(kind.logType)),
		zap.String("id", id),
	)
	p.record(ctx, models.CronLog{
		Type:              kind.logType,
		NotificationID:    id,
		NotificationTitle: auditTitle,
		Status:            models.CronLogSuccess,
		Message:           kind.sent(auditTitle),
	})
	return true
}

func sentDetail(kind auditKind, title string) string {
	if kind.logType == models.CronLogHadith {
		return "sent"
	}
	return fmt.Sprintf("%q sent", title)
}

func failedDetail(kind auditKind, title string, err error) string {
	if kind.logType == models.CronLogHadith {
		return fmt.Sprintf("failed: %v", err)
	}
	return fmt.Sprintf("%q failed: %v", title, err)
}

func (p *Processor) persistenceFailure(ctx context.Context, res *Result, perr *PersistenceError) {
	res.Errors++
	res.Details = append(res.Details, fmt.Sprintf("❌ %v", perr))
	p.logger.Error("persistence failure", zap.Error(perr))

	msg := msgSaveFailed
	if perr.Op == "load" {
		msg = msgLoadFailed
	}
	p.recordSystemError(ctx, fmt.Sprintf(msg, perr.Collection, perr.Err))
}
