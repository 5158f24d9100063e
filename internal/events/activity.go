// Package events defines the payloads published through the outbox.
package events

import (
	"fmt"
	"time"
)

// Event types written to the outbox.
const (
	TypeActivityLogged  = "activity.logged"
	TypeActivityDeleted = "activity.deleted"
	TypeFreezeChanged   = "freeze.changed"
)

// Topics carrying the events.
const (
	TopicActivityLog = "activity_log_events"
	TopicFreeze      = "freeze_events"
)

// Kafka header keys set on every published record.
const (
	HeaderEventType     = "event_type"
	HeaderSchemaSubject = "schema_subject"
	HeaderEventKey      = "event_key"
)

// Route describes where an event type is published.
type Route struct {
	Topic         string
	SchemaSubject string
}

// Both activity event types share a topic, so subjects follow the topic-record naming strategy.
var routes = map[string]Route{
	TypeActivityLogged:  {Topic: TopicActivityLog, SchemaSubject: TopicActivityLog + "-daywell.ActivityLogged"},
	TypeActivityDeleted: {Topic: TopicActivityLog, SchemaSubject: TopicActivityLog + "-daywell.ActivityDeleted"},
	TypeFreezeChanged:   {Topic: TopicFreeze, SchemaSubject: TopicFreeze + "-value"},
}

// RouteFor returns the topic and schema subject for eventType.
func RouteFor(eventType string) (Route, error) {
	route, ok := routes[eventType]
	if !ok {
		return Route{}, fmt.Errorf("unknown event type: %s", eventType)
	}
	return route, nil
}

// ActivityLogged is emitted when an entry is recorded.
type ActivityLogged struct {
	EntryID     string    `json:"entry_id"`
	UserID      string    `json:"user_id"`
	Activity    string    `json:"activity"`
	Date        string    `json:"date"`
	Hour        int       `json:"hour"`
	DurationMin int       `json:"duration_min"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ActivityDeleted is emitted when an entry is removed. It carries the removed entry's fields so
// read models can subtract it.
type ActivityDeleted struct {
	EntryID     string    `json:"entry_id"`
	UserID      string    `json:"user_id"`
	Activity    string    `json:"activity"`
	Date        string    `json:"date"`
	Hour        int       `json:"hour"`
	DurationMin int       `json:"duration_min"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// FreezeChanged is emitted on every freeze transition.
type FreezeChanged struct {
	UserID     string    `json:"user_id"`
	Frozen     bool      `json:"frozen"`
	OccurredAt time.Time `json:"occurred_at"`
}
