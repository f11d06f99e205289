// Package content manages the notification and hadith collections edited
// from the admin console.
package content

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hadithconsole/internal/models"
	"github.com/hadithconsole/internal/store"
)

// Sender delivers an immediate notification.
type Sender interface {
	Send(ctx context.Context, title, body string) error
}

type NotificationInput struct {
	Title         string                  `json:"title" validate:"required"`
	Body          string                  `json:"body" validate:"required"`
	Type          models.NotificationType `json:"type" validate:"required,oneof=immediate scheduled recurring"`
	ScheduledDate string                  `json:"scheduledDate" validate:"omitempty,datetime=2006-01-02"`
	ScheduledTime string                  `json:"scheduledTime" validate:"omitempty,hhmm"`
	RecurringDays []int                   `json:"recurringDays" validate:"omitempty,dive,min=0,max=6"`
	RecurringTime string                  `json:"recurringTime" validate:"omitempty,hhmm"`
	Active        *bool                   `json:"active"`
}

// NotificationPatch carries the fields of an update. Nil fields are left
// unchanged. Delivery tracking fields cannot be patched.
type NotificationPatch struct {
	ID            string                   `json:"id" validate:"required"`
	Title         *string                  `json:"title" validate:"omitempty,min=1"`
	Body          *string                  `json:"body" validate:"omitempty,min=1"`
	Type          *models.NotificationType `json:"type" validate:"omitempty,oneof=immediate scheduled recurring"`
	ScheduledDate *string                  `json:"scheduledDate" validate:"omitempty,datetime=2006-01-02"`
	ScheduledTime *string                  `json:"scheduledTime" validate:"omitempty,hhmm"`
	RecurringDays *[]int                   `json:"recurringDays"`
	RecurringTime *string                  `json:"recurringTime" validate:"omitempty,hhmm"`
	Active        *bool                    `json:"active"`
}

// CreateResult is the outcome of Create. The notification is always part of
// the result; DeliveryErr and StorageErr report partial failures of an
// immediate notification.
type CreateResult struct {
	Notification models.Notification
	DeliveryErr  error
	StorageErr   error
}

// Partial reports whether only part of the create succeeded.
func (r *CreateResult) Partial() bool {
	return r.DeliveryErr != nil || r.StorageErr != nil
}

type NotificationManager struct {
	store    store.NotificationStore
	sender   Sender
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time

	mu sync.Mutex
}

func NewNotificationManager(s store.NotificationStore, sender Sender, logger *zap.Logger) *NotificationManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationManager{
		store:    s,
		sender:   sender,
		validate: newValidator(),
		logger:   logger,
		now:      time.Now,
	}
}

func (m *NotificationManager) List(ctx context.Context) ([]models.Notification, error) {
	return m.store.LoadAll(ctx)
}

// Create stores a new notification first in the collection. An immediate
// notification is sent before it is stored; a failed send still stores it.
func (m *NotificationManager) Create(ctx context.Context, in NotificationInput) (*CreateResult, error) {
	if err := validateStruct(m.validate, in); err != nil {
		return nil, err
	}

	n := models.Notification{
		ID:            uuid.NewString(),
		Title:         in.Title,
		Body:          in.Body,
		Type:          in.Type,
		ScheduledDate: in.ScheduledDate,
		ScheduledTime: in.ScheduledTime,
		RecurringDays: in.RecurringDays,
		RecurringTime: in.RecurringTime,
		Active:        in.Active == nil || *in.Active,
		CreatedAt:     m.now().UTC(),
	}
	if err := checkSchedule(&n); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	notifications, err := m.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}

	res := &CreateResult{Notification: n}
	if n.Type == models.NotificationImmediate {
		if err := m.sender.Send(ctx, n.Title, n.Body); err != nil {
			m.logger.Error("immediate notification send failed", zap.String("id", n.ID), zap.Error(err))
			res.DeliveryErr = err
		} else {
			m.logger.Info("immediate notification sent", zap.String("id", n.ID))
		}
	}

	notifications = append([]models.Notification{n}, notifications...)
	if err := m.store.OverwriteAll(ctx, notifications); err != nil {
		switch {
		case res.DeliveryErr != nil:
			m.logger.Error("failed to persist notification after send failure", zap.String("id", n.ID), zap.Error(err))
		case n.Type == models.NotificationImmediate:
			m.logger.Error("failed to persist notification after send", zap.String("id", n.ID), zap.Error(err))
			res.StorageErr = err
		default:
			return nil, fmt.Errorf("failed to save notifications: %w", err)
		}
	}
	return res, nil
}

// Update merges patch into the stored notification.
func (m *NotificationManager) Update(ctx context.Context, patch NotificationPatch) (*models.Notification, error) {
	if err := validateStruct(m.validate, patch); err != nil {
		return nil, err
	}
	if patch.RecurringDays != nil {
		if err := checkDays(*patch.RecurringDays); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	notifications, err := m.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}

	idx := -1
	for i := range notifications {
		if notifications[i].ID == patch.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNotFound
	}

	n := notifications[idx]
	if n.Type == models.NotificationScheduled && n.SentAt != nil {
		return nil, invalid("scheduled notification %s was already delivered and can only be deleted", n.ID)
	}
	applyPatch(&n, patch)
	if err := checkSchedule(&n); err != nil {
		return nil, err
	}
	notifications[idx] = n

	if err := m.store.OverwriteAll(ctx, notifications); err != nil {
		return nil, fmt.Errorf("failed to save notifications: %w", err)
	}
	return &n, nil
}

// Delete removes the notification with id. Deleting an unknown id succeeds.
func (m *NotificationManager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	notifications, err := m.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load notifications: %w", err)
	}

	kept := notifications[:0]
	for _, n := range notifications {
		if n.ID != id {
			kept = append(kept, n)
		}
	}

	if err := m.store.OverwriteAll(ctx, kept); err != nil {
		return fmt.Errorf("failed to save notifications: %w", err)
	}
	return nil
}

func applyPatch(n *models.Notification, p NotificationPatch) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Body != nil {
		n.Body = *p.Body
	}
	if p.Type != nil {
		n.Type = *p.Type
	}
	if p.ScheduledDate != nil {
		n.ScheduledDate = *p.ScheduledDate
	}
	if p.ScheduledTime != nil {
		n.ScheduledTime = *p.ScheduledTime
	}
	if p.RecurringDays != nil {
		n.RecurringDays = *p.RecurringDays
	}
	if p.RecurringTime != nil {
		n.RecurringTime = *p.RecurringTime
	}
	if p.Active != nil {
		n.Active = *p.Active
	}
}

// checkSchedule enforces the fields each notification type needs.
func checkSchedule(n *models.Notification) error {
	switch n.Type {
	case models.NotificationScheduled:
		if n.ScheduledDate == "" || n.ScheduledTime == "" {
			return invalid("scheduled notifications need scheduledDate and scheduledTime")
		}
	case models.NotificationRecurring:
		if len(n.RecurringDays) == 0 || n.RecurringTime == "" {
			return invalid("recurring notifications need recurringDays and recurringTime")
		}
		return checkDays(n.RecurringDays)
	}
	return nil
}

func checkDays(days []int) error {
	for _, d := range days {
		if d < 0 || d > 6 {
			return invalid("recurringDays must be between 0 and 6, got %d", d)
		}
	}
	return nil
}
