package content

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hadithconsole/internal/models"
	"github.com/hadithconsole/internal/store"
)

type HadithInput struct {
	Text     string `json:"text" validate:"required"`
	Narrator string `json:"narrator"`
	Source   string `json:"source"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
}

type HadithPatch struct {
	ID       string  `json:"id" validate:"required"`
	Text     *string `json:"text" validate:"omitempty,min=1"`
	Narrator *string `json:"narrator"`
	Source   *string `json:"source"`
	Date     *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type HadithManager struct {
	store    store.HadithStore
	validate *validator.Validate
	now      func() time.Time

	mu sync.Mutex
}

func NewHadithManager(s store.HadithStore) *HadithManager {
	return &HadithManager{store: s, validate: newValidator(), now: time.Now}
}

func (m *HadithManager) List(ctx context.Context) ([]models.Hadith, error) {
	return m.store.LoadAll(ctx)
}

func (m *HadithManager) Create(ctx context.Context, in HadithInput) (*models.Hadith, error) {
	if err := validateStruct(m.validate, in); err != nil {
		return nil, err
	}

	h := models.Hadith{
		ID:        uuid.NewString(),
		Text:      in.Text,
		Narrator:  in.Narrator,
		Source:    in.Source,
		Date:      in.Date,
		CreatedAt: m.now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	hadiths, err := m.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load hadiths: %w", err)
	}
	hadiths = append([]models.Hadith{h}, hadiths...)
	if err := m.store.OverwriteAll(ctx, hadiths); err != nil {
		return nil, fmt.Errorf("failed to save hadiths: %w", err)
	}
	return &h, nil
}

func (m *HadithManager) Update(ctx context.Context, patch HadithPatch) (*models.Hadith, error) {
	if err := validateStruct(m.validate, patch); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	hadiths, err := m.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load hadiths: %w", err)
	}

	for i := range hadiths {
		if hadiths[i].ID != patch.ID {
			continue
		}
		h := &hadiths[i]
		if patch.Text != nil {
			h.Text = *patch.Text
		}
		if patch.Narrator != nil {
			h.Narrator = *patch.Narrator
		}
		if patch.Source != nil {
			h.Source = *patch.Source
		}
		if patch.Date != nil {
			h.Date = *patch.Date
		}
		if err := m.store.OverwriteAll(ctx, hadiths); err != nil {
			return nil, fmt.Errorf("failed to save hadiths: %w", err)
		}
		out := *h
		return &out, nil
	}
	return nil, ErrNotFound
}

// Delete removes the hadith with id. Deleting an unknown id succeeds.
func (m *HadithManager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hadiths, err := m.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load hadiths: %w", err)
	}

	kept := hadiths[:0]
	for _, h := range hadiths {
		if h.ID != id {
			kept = append(kept, h)
		}
	}
	if err := m.store.OverwriteAll(ctx, kept); err != nil {
		return fmt.Errorf("failed to save hadiths: %w", err)
	}
	return nil
}
