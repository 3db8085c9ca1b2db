package entity

import (
	"time"

	"github.com/google/uuid"
)

type EventHeader struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:          uuid.NewString(),
		PublishedAt: time.Now().UTC(),
	}
}

func NewEventHeaderWithIdempotencyKey(idempotencyKey string) EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

// BookingDecided is published after a manager's decision is settled and
// persisted. It drives the chef notification.
type BookingDecided struct {
	Header    EventHeader `json:"header"`
	BookingID int64       `json:"booking_id"`
	ChefID    int64       `json:"chef_id"`
	Status    Action      `json:"status"`
	Summary   string      `json:"summary"`
}
