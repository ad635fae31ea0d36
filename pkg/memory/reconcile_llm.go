package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/engram/pkg/llm"
	"github.com/papercomputeco/engram/pkg/vector"
)

// reconcilePrompt is the decision contract for LLM-backed reconciliation.
// Existing memories are shown under small integer placeholder ids; only ADD
// may introduce the literal id "new".
const reconcilePrompt = `You reconcile newly observed facts against existing memories.

For each new fact, decide one of:
- ADD: the fact is new information. Use id "new".
- UPDATE: the fact restates or refines an existing memory. Use that memory's id and include the old text as old_memory.
- DELETE: the fact contradicts an existing memory. Use that memory's id and include the old text as old_memory. If the new fact should replace it, also emit an ADD for the new fact.
- NONE: the fact is already stored. Use that memory's id.

Rules:
- Only ADD may use the id "new". Every other action must reference an id shown below.
- Never invent ids.

Existing memories:
%s

New facts:
%s

Return a JSON object: {"memory": [{"id": "...", "text": "...", "event": "ADD|UPDATE|DELETE|NONE", "old_memory": "..."}]}`

// FactContext pairs one candidate fact with its nearby existing memories.
type FactContext struct {
	Fact string
	Hits []vector.Hit
}

// idTable is a bidirectional real-id to placeholder-id mapping scoped to one
// reconciliation batch. The same real id always yields the same placeholder
// within the batch, even when it appears in several facts' candidate sets.
type idTable struct {
	toPlaceholder map[string]string
	toReal        map[string]string
	next          int
}

func newIDTable() *idTable {
	return &idTable{
		toPlaceholder: make(map[string]string),
		toReal:        make(map[string]string),
	}
}

// placeholder returns the placeholder for a real id, assigning the next
// sequential integer on first sight.
func (t *idTable) placeholder(realID string) string {
	if p, ok := t.toPlaceholder[realID]; ok {
		return p
	}
	p := strconv.Itoa(t.next)
	t.next++
	t.toPlaceholder[realID] = p
	t.toReal[p] = realID
	return p
}

// real maps a placeholder back to its real id. Unknown ids pass through
// unchanged; the applier logs them as failed applies rather than rejecting
// the whole batch.
func (t *idTable) real(placeholder string) string {
	if r, ok := t.toReal[placeholder]; ok {
		return r
	}
	return placeholder
}

// LLMReconciler delegates reconciliation to a completion backend, shielding
// real record ids behind batch-scoped integer placeholders so the backend
// cannot invent or corrupt them.
type LLMReconciler struct {
	call   llm.CallFunc
	logger *zap.Logger
}

// NewLLMReconciler creates a reconciler backed by the given call function.
func NewLLMReconciler(call llm.CallFunc, logger *zap.Logger) *LLMReconciler {
	return &LLMReconciler{call: call, logger: logger}
}

type reconcileResponse struct {
	Memory []struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		Event     string `json:"event"`
		OldMemory string `json:"old_memory"`
	} `json:"memory"`
}

// ReconcileBatch sends all facts and their candidate memories to the backend
// in one call and maps the returned decisions back to real ids. Backend
// failures are returned to the caller, which falls back to heuristic
// reconciliation.
func (r *LLMReconciler) ReconcileBatch(ctx context.Context, batch []FactContext) ([]Decision, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	table := newIDTable()

	var memories strings.Builder
	seen := make(map[string]bool)
	for _, fc := range batch {
		for _, hit := range fc.Hits {
			p := table.placeholder(hit.ID)
			if seen[p] {
				continue
			}
			seen[p] = true
			fmt.Fprintf(&memories, "[%s] %s\n", p, hit.Text)
		}
	}
	if memories.Len() == 0 {
		memories.WriteString("(none)\n")
	}

	var facts strings.Builder
	for _, fc := range batch {
		fmt.Fprintf(&facts, "- %s\n", fc.Fact)
	}

	prompt := fmt.Sprintf(reconcilePrompt, memories.String(), facts.String())

	raw, err := r.call(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm reconcile call: %w", err)
	}

	var resp reconcileResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &resp); err != nil {
		return nil, fmt.Errorf("parsing llm reconcile response: %w", err)
	}

	decisions := make([]Decision, 0, len(resp.Memory))
	for _, entry := range resp.Memory {
		action := Action(strings.ToUpper(strings.TrimSpace(entry.Event)))
		switch action {
		case ActionAdd, ActionUpdate, ActionDelete, ActionNone:
		default:
			r.logger.Warn("skipping decision with unknown event",
				zap.String("event", entry.Event),
			)
			continue
		}

		targetID := entry.ID
		if action == ActionAdd {
			targetID = PlaceholderNewID
		} else {
			targetID = table.real(targetID)
		}

		decisions = append(decisions, Decision{
			TargetID:       targetID,
			Text:           Normalize(entry.Text),
			Action:         action,
			SupersededText: entry.OldMemory,
		})
	}

	return decisions, nil
}
