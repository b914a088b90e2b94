package database

import (
	"encoding/json"
	"time"
)

const (
	EventCounterIncrement = "counter_increment"
	EventWebhookReceived  = "webhook_received"
	EventSignVerified     = "sign_verified"
)

// IncrementSource identifies where a counter increment originated.
const IncrementSource = "iframe_signing"

// Event is an append-only log record. Payload is free-form JSON text; rows
// are never mutated or deleted once written.
type Event struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Type      string    `json:"type" gorm:"not null"`
	Payload   *string   `json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
}

// IncrementPayload is the payload written with every counter_increment
// event. It is validated at write time; reads still parse defensively
// because the column itself stays untyped text.
type IncrementPayload struct {
	OldCount  int       `json:"oldCount"`
	NewCount  int       `json:"newCount"`
	Source    string    `json:"source"`
	RefBy     *string   `json:"refBy"`
	Timestamp time.Time `json:"timestamp"`
}

// NewIncrementEvent builds a counter_increment event describing the
// oldCount -> newCount transition.
func NewIncrementEvent(oldCount, newCount int, refBy *string, at time.Time) Event {
	pl := IncrementPayload{
		OldCount:  oldCount,
		NewCount:  newCount,
		Source:    IncrementSource,
		RefBy:     refBy,
		Timestamp: at,
	}

	b, _ := json.Marshal(pl)
	s := string(b)

	return Event{
		Type:    EventCounterIncrement,
		Payload: &s,
	}
}

// ParseIncrementPayload decodes an event's payload as an IncrementPayload.
// Returns false for missing or malformed payloads.
func ParseIncrementPayload(e Event) (IncrementPayload, bool) {
	if e.Payload == nil {
		return IncrementPayload{}, false
	}

	var pl IncrementPayload
	if err := json.Unmarshal([]byte(*e.Payload), &pl); err != nil {
		return IncrementPayload{}, false
	}

	return pl, true
}
