package model

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryMessage is the wire payload moved from the pending registry to the
// delivery queue once a notification comes due.
type DeliveryMessage struct {
	FactID   uuid.UUID `json:"fact_id"`
	Handle   string    `json:"handle"`
	FireAt   time.Time `json:"fire_at"`
	Attempts int       `json:"attempts"`
}
