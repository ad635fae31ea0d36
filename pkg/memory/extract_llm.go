package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/papercomputeco/engram/pkg/llm"
)

// extractPrompt is the instruction contract for LLM fact extraction. The
// model must return a JSON object with a "facts" array of short standalone
// phrases.
const extractPrompt = `You extract durable facts about the user from conversation text.

Extract ONLY:
- lasting preferences (tools, styles, workflows)
- decisions that were made
- project details (names, stacks, architecture)
- conventions and workflow rules
- identity facts (role, team, timezone)

Do NOT extract:
- small talk or pleasantries
- one-off requests or questions
- generic statements or common knowledge
- anything the assistant said

Each fact must be a standalone phrase under 100 characters, normalized to
third person or first person ("prefers dark mode", "works on the billing service").

Return a JSON object: {"facts": ["...", "..."]}
If there are no durable facts, return {"facts": []}

Conversation:
%s`

// LLMExtractor extracts facts by delegating to a completion backend. Any
// backend failure is returned to the caller, which falls back to the
// heuristic extractor.
type LLMExtractor struct {
	call llm.CallFunc
}

// NewLLMExtractor creates an extractor backed by the given call function.
func NewLLMExtractor(call llm.CallFunc) *LLMExtractor {
	return &LLMExtractor{call: call}
}

// Provenance marks records produced by this extractor.
func (e *LLMExtractor) Provenance() Provenance {
	return ProvenanceLLMExtract
}

type extractResponse struct {
	Facts []string `json:"facts"`
}

// Extract concatenates user-authored message text into one prompt and asks
// the backend for durable facts. Recalled-memory blocks are stripped first
// so the system never re-ingests its own injections.
func (e *LLMExtractor) Extract(ctx context.Context, messages []Message) ([]string, error) {
	var parts []string
	for _, msg := range messages {
		if msg.Role != RoleUser {
			continue
		}
		text := strings.TrimSpace(StripRecalledBlock(msg.Text))
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}

	if len(parts) == 0 {
		return nil, nil
	}

	prompt := fmt.Sprintf(extractPrompt, strings.Join(parts, "\n"))

	raw, err := e.call(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm extract call: %w", err)
	}

	var resp extractResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &resp); err != nil {
		return nil, fmt.Errorf("parsing llm extract response: %w", err)
	}

	facts := make([]string, 0, len(resp.Facts))
	for _, fact := range resp.Facts {
		fact = Normalize(fact)
		if fact == "" {
			continue
		}
		facts = append(facts, fact)
	}

	return facts, nil
}
