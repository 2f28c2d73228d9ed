package model

import (
	"time"

	"github.com/google/uuid"
)

// Fact is the core business entity of the application: one unit of pushable
// content. It is technology-agnostic and does not contain any DB or JSON tags.
type Fact struct {
	ID       uuid.UUID
	Language string // BCP 47 language tag, e.g. "en" or "de".
	Text     string
	Category string
	ImageURL *string // Optional image to prefetch before delivery.

	// Scheduling state. A fact is "unscheduled" while both fields are nil,
	// "scheduled" once it has a future fire instant and a queue handle, and
	// "shown" once ShownAt is set.
	ScheduledAt    *time.Time
	NotificationID *string // Opaque handle assigned by the pending queue.
	ShownAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewFact is a factory function to create a new unscheduled fact.
func NewFact(language, text, category string, imageURL *string) *Fact {
	return &Fact{
		ID:        uuid.New(),
		Language:  language,
		Text:      text,
		Category:  category,
		ImageURL:  imageURL,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

// IsScheduled reports whether the fact currently holds a queue registration.
func (f *Fact) IsScheduled() bool {
	return f.ScheduledAt != nil && f.NotificationID != nil
}

// IsShown reports whether the fact has already been delivered to the user.
func (f *Fact) IsShown() bool {
	return f.ShownAt != nil
}
