package models

import (
	"time"
)

// Hadith is a daily text entry broadcast once on its display date.
type Hadith struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Narrator  string     `json:"narrator"`
	Source    string     `json:"source"`
	Date      string     `json:"date"`
	CreatedAt time.Time  `json:"createdAt"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
}
