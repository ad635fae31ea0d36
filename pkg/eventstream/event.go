// Package eventstream defines transport-neutral events emitted when memory
// records change, and the publisher contract for shipping them to a stream
// backend.
package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeMemoryChanged is emitted after a memory record is added,
	// updated, or deleted.
	EventTypeMemoryChanged = "engram.memory.changed"
)

// MemoryChangedEvent is a transport-neutral event payload for one applied
// memory mutation.
type MemoryChangedEvent struct {
	SchemaVersion  int       `json:"schema_version"`
	EventType      string    `json:"event_type"`
	EventID        string    `json:"event_id"`
	EmittedAt      time.Time `json:"emitted_at"`
	Namespace      string    `json:"namespace"`
	Action         string    `json:"action"`
	RecordID       string    `json:"record_id"`
	Text           string    `json:"text,omitempty"`
	Category       string    `json:"category,omitempty"`
	Provenance     string    `json:"provenance,omitempty"`
	SupersededText string    `json:"superseded_text,omitempty"`
}
