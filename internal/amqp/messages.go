package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds published after a confirmed cache mutation.
const (
	TransactionCreated = "transaction.created"
	TransactionUpdated = "transaction.updated"
	TransactionDeleted = "transaction.deleted"
	AccountCreated     = "account.created"
	AccountUpdated     = "account.updated"
	AccountDeleted     = "account.deleted"
	CategoryCreated    = "category.created"
	CategoryUpdated    = "category.updated"
	CategoryDeleted    = "category.deleted"
	TagCreated         = "tag.created"
)

// Event is a lightweight notification: consumers fetch the entity
// themselves if they need more than its id.
type Event struct {
	Kind      string    `json:"kind"`
	EntityID  string    `json:"entityId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent stamps an event with the current time
func NewEvent(kind, entityID string) Event {
	return Event{Kind: kind, EntityID: entityID, Timestamp: time.Now().UTC()}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}
