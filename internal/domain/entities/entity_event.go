package entities

import "time"

// ChangeOperation names the mutation that produced an EntityChangedEvent.
type ChangeOperation string

const (
	ChangeCreate ChangeOperation = "create"
	ChangeUpdate ChangeOperation = "update"
	ChangeDelete ChangeOperation = "delete"
)

// EntityChangedEvent announces that a collection was mutated through this service,
// so every instance drops its cached copy of that collection.
type EntityChangedEvent struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entity_type"`
	Operation  ChangeOperation `json:"operation"`
	EntityIDs  []string        `json:"entity_ids,omitempty"`
	Origin     string          `json:"origin,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}
