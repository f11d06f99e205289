package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/hadithconsole/internal/jobs"
)

type EmailConfig struct {
	SMTPHost  string
	SMTPPort  int
	From      string
	Password  string
	Receivers []string
}

// Enabled reports whether enough settings are present to send mail.
func (c EmailConfig) Enabled() bool {
	return c.SMTPHost != "" && c.From != "" && len(c.Receivers) > 0
}

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailReporter mails operators a summary of ticks that had failures.
type EmailReporter struct {
	dialer mailDialer
	config EmailConfig
	now    func() time.Time
}

func NewEmailReporter(cfg EmailConfig) *EmailReporter {
	return &EmailReporter{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.From, cfg.Password),
		config: cfg,
		now:    time.Now,
	}
}

func (r *EmailReporter) ReportFailures(_ context.Context, trigger string, res jobs.Result) error {
	if err := r.dialer.DialAndSend(r.buildMessage(trigger, res)); err != nil {
		return fmt.Errorf("failed to send failure report: %w", err)
	}
	return nil
}

func (r *EmailReporter) buildMessage(trigger string, res jobs.Result) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", r.config.From)
	m.SetHeader("To", r.config.Receivers...)
	m.SetHeader("Subject", fmt.Sprintf("Hadith Console: %d delivery error(s)", res.Errors))

	var b strings.Builder
	fmt.Fprintf(&b, "Trigger: %s\n", trigger)
	fmt.Fprintf(&b, "Time: %s\n", r.now().Format(time.RFC3339))
	fmt.Fprintf(&b, "Processed: %d\n", res.Processed)
	fmt.Fprintf(&b, "Errors: %d\n\n", res.Errors)
	for _, d := range res.Details {
		b.WriteString(d)
		b.WriteString("\n")
	}
	m.SetBody("text/plain", b.String())
	return m
}
