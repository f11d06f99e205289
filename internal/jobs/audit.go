package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hadithconsole/internal/models"
)

// Audit messages are shown to operators in the console, which is in Arabic.
const (
	msgScheduledSent   = "تم إرسال الإشعار المجدول \"%s\" بنجاح"
	msgScheduledFailed = "فشل إرسال الإشعار المجدول \"%s\": %v"
	msgRecurringSent   = "تم إرسال الإشعار المتكرر \"%s\" بنجاح"
	msgRecurringFailed = "فشل إرسال الإشعار المتكرر \"%s\": %v"
	msgHadithSent      = "تم إرسال حديث اليوم بنجاح"
	msgHadithFailed    = "فشل إرسال حديث اليوم: %v"
	msgSaveFailed      = "فشل حفظ %s: %v"
	msgLoadFailed      = "فشل تحميل %s: %v"
	msgManualTrigger   = "تم تشغيل المهام المجدولة يدوياً (%s)"
)

type auditKind struct {
	logType models.CronLogType
	label   string
	sent    func(title string) string
	failed  func(title string, err error) string
}

var (
	scheduledKind = auditKind{
		logType: models.CronLogScheduled,
		label:   "Scheduled",
		sent:    func(title string) string { return fmt.Sprintf(msgScheduledSent, title) },
		failed:  func(title string, err error) string { return fmt.Sprintf(msgScheduledFailed, title, err) },
	}
	recurringKind = auditKind{
		logType: models.CronLogRecurring,
		label:   "Recurring",
		sent:    func(title string) string { return fmt.Sprintf(msgRecurringSent, title) },
		failed:  func(title string, err error) string { return fmt.Sprintf(msgRecurringFailed, title, err) },
	}
	hadithKind = auditKind{
		logType: models.CronLogHadith,
		label:   "Hadith of the day",
		sent:    func(string) string { return msgHadithSent },
		failed:  func(_ string, err error) string { return fmt.Sprintf(msgHadithFailed, err) },
	}
)

// record appends an audit entry. A sink failure is logged and otherwise
// ignored so it cannot abort the tick.
func (p *Processor) record(ctx context.Context, entry models.CronLog) {
	entry.ID = uuid.NewString()
	entry.Timestamp = p.resolver.clock.Now().UTC()

	if err := p.audit.Append(ctx, entry); err != nil {
		p.logger.Error("failed to append cron log",
			zap.String("type", string(entry.Type)),
			zap.String("status", string(entry.Status)),
			zap.Error(err),
		)
	}
}

func (p *Processor) recordSystemError(ctx context.Context, message string) {
	p.record(ctx, models.CronLog{
		Type:    models.CronLogSystem,
		Status:  models.CronLogError,
		Message: message,
	})
}

// RecordManualTrigger notes an on-demand run in the audit log.
func (p *Processor) RecordManualTrigger(ctx context.Context, source string) {
	p.record(ctx, models.CronLog{
		Type:    models.CronLogSystem,
		Status:  models.CronLogSuccess,
		Message: fmt.Sprintf(msgManualTrigger, source),
	})
}
