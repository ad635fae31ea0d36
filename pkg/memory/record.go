// Package memory implements the long-term memory core for the engram system.
//
// The package recalls semantically relevant facts before an agent turn and
// extracts, reconciles, and persists new facts after a turn. The vector
// backend (pkg/vector) is the sole persistent owner of records; this package
// holds no durable state of its own.
//
// The interesting part is reconciliation: given a candidate fact and the
// semantically nearby records already in the store, decide whether to ADD a
// new record, UPDATE an existing one, DELETE a contradicted one, or do
// nothing. Everything else here (normalizing, capture filtering,
// categorizing, recall formatting) feeds that decision.
package memory

import (
	"time"

	"github.com/papercomputeco/engram/pkg/vector"
)

// Category is a coarse label assigned to a fact. Informational only; it is
// never used for matching.
type Category string

const (
	CategoryPreference Category = "preference"
	CategoryDecision   Category = "decision"
	CategoryProject    Category = "project"
	CategoryTechnical  Category = "technical"
	CategoryFact       Category = "fact"
	CategoryGeneral    Category = "general"
)

// Provenance records which pathway produced a memory record.
type Provenance string

const (
	// ProvenanceTurnCapture marks facts captured heuristically from a
	// single conversation turn.
	ProvenanceTurnCapture Provenance = "heuristic-turn-capture"

	// ProvenanceSummary marks facts captured heuristically from
	// user-authored text in summary mode.
	ProvenanceSummary Provenance = "heuristic-summary"

	// ProvenanceLLMExtract marks facts extracted by the LLM backend.
	ProvenanceLLMExtract Provenance = "llm-extract"

	// ProvenanceTool marks facts stored through a direct tool invocation.
	ProvenanceTool Provenance = "tool-invocation"
)

// Metadata keys used in vector store payloads.
const (
	MetaCategory   = "category"
	MetaProvenance = "provenance"
	MetaCapturedAt = "captured_at"
	MetaUpdatedAt  = "updated_at"
)

// Record is the unit of persistence: one durable fact with its metadata.
// Updates are full overwrites of text and metadata under the same ID; a
// record is never partially mutated.
type Record struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Category   Category   `json:"category"`
	Provenance Provenance `json:"provenance,omitempty"`
	CapturedAt time.Time  `json:"captured_at,omitzero"`
	UpdatedAt  time.Time  `json:"updated_at,omitzero"`
}

// Metadata renders the record's metadata for the vector store payload.
func (r Record) Metadata() map[string]any {
	m := map[string]any{
		MetaCategory:   string(r.Category),
		MetaProvenance: string(r.Provenance),
		MetaCapturedAt: r.CapturedAt.UTC().Format(time.RFC3339),
	}
	if !r.UpdatedAt.IsZero() {
		m[MetaUpdatedAt] = r.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return m
}

// RecordFromHit projects a search hit back into a Record. Missing or
// malformed metadata fields are left at their zero values.
func RecordFromHit(hit vector.Hit) Record {
	rec := Record{
		ID:       hit.ID,
		Text:     hit.Text,
		Category: CategoryGeneral,
	}
	if c, ok := hit.Metadata[MetaCategory].(string); ok && c != "" {
		rec.Category = Category(c)
	}
	if p, ok := hit.Metadata[MetaProvenance].(string); ok {
		rec.Provenance = Provenance(p)
	}
	if ts, ok := hit.Metadata[MetaCapturedAt].(string); ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.CapturedAt = t
		}
	}
	if ts, ok := hit.Metadata[MetaUpdatedAt].(string); ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.UpdatedAt = t
		}
	}
	return rec
}

// Action is the outcome of reconciling one fact against one or more nearby
// records.
type Action string

const (
	ActionAdd    Action = "ADD"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionNone   Action = "NONE"
)

// PlaceholderNewID is the target ID used by ADD decisions before a real ID
// is generated, and the only ID the LLM reconciliation backend is allowed to
// introduce on its own.
const PlaceholderNewID = "new"

// Decision is a single reconciliation outcome. For ActionAdd, TargetID is
// either a freshly generated id (heuristic reconciliation) or
// PlaceholderNewID pending remapping (LLM reconciliation); SupersededText is
// non-empty exactly when Action is ActionUpdate or ActionDelete.
type Decision struct {
	TargetID       string
	Text           string
	Action         Action
	SupersededText string
}

// Message is one conversational message considered for capture.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Roles consumed by fact extraction. Messages with any other role are
// ignored.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
