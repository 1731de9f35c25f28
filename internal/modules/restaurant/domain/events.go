package domain

import (
	"time"

	"github.com/google/uuid"
)

// Engine event actions. A separate messaging component renders these into
// user-facing notifications; the engine only emits the facts.
const (
	EventEntity = "restaurant"

	ActionTableFreed         = "table_freed"
	ActionReservationCreated = "reservation_created"
	ActionReservationExpired = "reservation_expired"
	ActionWaitingOfferMade   = "waiting_offer_made"
	ActionWaitingPromoted    = "waiting_promoted"
	ActionWaitingExpired     = "waiting_expired"
)

// Event is the engine's outbound notification payload.
type Event struct {
	ID         string            `json:"id"`
	Topic      string            `json:"topic"`
	Entity     string            `json:"entity"`
	Action     string            `json:"action"`
	ResourceID string            `json:"resourceId,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Data       any               `json:"data,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewEvent builds an event on the canonical entity.action topic scheme.
func NewEvent(action, resourceID string, data any, at time.Time) *Event {
	return &Event{
		ID:         uuid.NewString(),
		Topic:      EventEntity + "." + action,
		Entity:     EventEntity,
		Action:     action,
		ResourceID: resourceID,
		Data:       data,
		Timestamp:  at.UTC(),
	}
}
