// Package events defines the change events emitted through the outbox.
package events

import "time"

// Event types carried in the outbox and the Kafka event_type header.
const (
	TypeRecordChanged = "journal.record_changed"
	TypeTagChanged    = "journal.tag_changed"
)

// Kafka message headers set by the dispatcher and required by the consumer.
const (
	HeaderEventType     = "event_type"
	HeaderUserID        = "user_id"
	HeaderSchemaSubject = "schema_subject"
)

// Kafka topics the outbox publishes to.
const (
	TopicRecords = "journal_records"
	TopicTags    = "journal_tags"
)

// Operations reported by change events.
const (
	OpCreated  = "created"
	OpUpdated  = "updated"
	OpDeleted  = "deleted"
	OpUpserted = "upserted"
)

// RecordChanged is emitted whenever an activity or reflection is written or removed.
type RecordChanged struct {
	RecordID   string    `json:"record_id"`
	UserID     string    `json:"user_id"`
	Kind       string    `json:"kind"`
	Op         string    `json:"op"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TagChanged is emitted when a registry entry is upserted or deleted.
type TagChanged struct {
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Type       string    `json:"type,omitempty"`
	Op         string    `json:"op"`
	OccurredAt time.Time `json:"occurred_at"`
}
