package models

import "time"

// ItemEventType names a change that happened to a pantry item.
type ItemEventType string

const (
	ItemCreated ItemEventType = "pantry.item.created"
	ItemUpdated ItemEventType = "pantry.item.updated"
	ItemDeleted ItemEventType = "pantry.item.deleted"
)

// ItemEvent is published after a pantry item is changed.
type ItemEvent struct {
	Type       ItemEventType `json:"type"`
	ItemID     string        `json:"itemId"`
	UserID     string        `json:"userId"`
	OccurredAt time.Time     `json:"occurredAt"`
}
