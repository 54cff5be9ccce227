package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names what happened to a ledger entry.
type EventType string

const (
	EntryCreated EventType = "entry.created"
	EntryUpdated EventType = "entry.updated"
	EntryDeleted EventType = "entry.deleted"
)

// EntryEvent is a lightweight notification about a ledger entry.
// Contains only the id; consumers fetch the full row from the database.
type EntryEvent struct {
	Type      EventType `json:"type"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntryEvent creates an event stamped with the current time
func NewEntryEvent(t EventType, id int64) *EntryEvent {
	return &EntryEvent{
		Type:      t,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EntryEventFromJSON decodes an event and rejects unknown types.
func EntryEventFromJSON(data []byte) (*EntryEvent, error) {
	var evt EntryEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	switch evt.Type {
	case EntryCreated, EntryUpdated, EntryDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", evt.Type)
	}
	return &evt, nil
}
