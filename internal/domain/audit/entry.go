// Package audit defines the append-only history kept for every mutable
// domain entity. Entries are written alongside each mutation and never
// updated or deleted.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// HistoryType marks the kind of mutation an entry records. The wire values
// follow the history convention of the upstream data: "+" for creation,
// "~" for update, "-" for deletion.
type HistoryType string

const (
	HistoryCreated HistoryType = "+"
	HistoryUpdated HistoryType = "~"
	HistoryDeleted HistoryType = "-"
)

// Display renders a history type for humans.
func (h HistoryType) Display() string {
	switch h {
	case HistoryCreated:
		return "Created"
	case HistoryUpdated:
		return "Updated"
	case HistoryDeleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

// Entry is one immutable history record.
type Entry struct {
	ID          uuid.UUID       `json:"id" bson:"id"`
	EntityType  string          `json:"entity_type" bson:"entity_type"`
	EntityID    uuid.UUID       `json:"entity_id" bson:"entity_id"`
	HistoryType HistoryType     `json:"history_type" bson:"history_type"`
	Actor       string          `json:"actor,omitempty" bson:"actor,omitempty"`
	At          time.Time       `json:"at" bson:"at"`
	Snapshot    json.RawMessage `json:"snapshot,omitempty" bson:"snapshot,omitempty"`
}

// NewEntry captures a snapshot of the entity state after the mutation.
func NewEntry(entityType string, entityID uuid.UUID, historyType HistoryType, actor string, snapshot any, at time.Time) (*Entry, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	return &Entry{
		ID:          uuid.New(),
		EntityType:  entityType,
		EntityID:    entityID,
		HistoryType: historyType,
		Actor:       actor,
		At:          at,
		Snapshot:    raw,
	}, nil
}
