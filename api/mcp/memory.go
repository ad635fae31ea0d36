package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/engram/pkg/memory"
)

var (
	recallToolName    = "memory_recall"
	recallDescription = "Recall memories relevant to a prompt. Returns a formatted context block of stored facts ranked by relevance, or an empty block when nothing relevant is stored. Use this before answering to ground responses in what the user has told you previously."

	storeToolName    = "memory_store"
	storeDescription = "Store one durable fact about the user or project. The fact should be a short, self-contained statement (e.g. \"prefers tabs over spaces\"). An optional category labels the fact: preference, decision, project, technical, or fact."

	forgetToolName    = "memory_forget"
	forgetDescription = "Forget a stored memory. Provide either the memory id for an exact deletion, or a query: a single unambiguous high-relevance match is deleted, otherwise the candidate memories are returned for disambiguation."
)

// RecallInput represents the input arguments for the memory_recall tool.
type RecallInput struct {
	Prompt string `json:"prompt" jsonschema:"the upcoming prompt or topic to recall relevant memories for"`
}

// RecallOutput represents the structured output of a memory recall.
type RecallOutput struct {
	Context string `json:"context"`
}

// handleRecall processes a memory recall request via MCP.
func (s *Server) handleRecall(ctx context.Context, _ *mcp.CallToolRequest, input RecallInput) (*mcp.CallToolResult, RecallOutput, error) {
	if input.Prompt == "" {
		return toolError("prompt is required"), RecallOutput{}, nil
	}

	block := s.config.Memory.Recall(ctx, input.Prompt)

	output := RecallOutput{Context: block}

	text := block
	if text == "" {
		text = "No relevant memories."
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, output, nil
}

// StoreInput represents the input arguments for the memory_store tool.
type StoreInput struct {
	Text     string `json:"text" jsonschema:"the fact to remember, as a short self-contained statement"`
	Category string `json:"category,omitempty" jsonschema:"optional category label: preference, decision, project, technical, or fact"`
}

// StoreOutput represents the stored record.
type StoreOutput struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// handleStore processes a direct memory store via MCP.
func (s *Server) handleStore(ctx context.Context, _ *mcp.CallToolRequest, input StoreInput) (*mcp.CallToolResult, StoreOutput, error) {
	if input.Text == "" {
		return toolError("text is required"), StoreOutput{}, nil
	}

	rec, err := s.config.Memory.Store(ctx, input.Text, memory.Category(input.Category))
	if err != nil {
		s.config.Logger.Warn("memory store failed", zap.Error(err))
		return toolError(fmt.Sprintf("Memory store failed: %v", err)), StoreOutput{}, nil
	}

	output := StoreOutput{
		ID:       rec.ID,
		Text:     rec.Text,
		Category: string(rec.Category),
	}

	return marshalResult(output)
}

// ForgetInput represents the input arguments for the memory_forget tool.
type ForgetInput struct {
	ID    string `json:"id,omitempty" jsonschema:"the id of the memory to delete"`
	Query string `json:"query,omitempty" jsonschema:"a query describing the memory to delete, used when the id is unknown"`
}

// ForgetOutput reports a deletion or the ambiguous candidates.
type ForgetOutput struct {
	Deleted    bool            `json:"deleted"`
	DeletedID  string          `json:"deleted_id,omitempty"`
	Candidates []memory.Record `json:"candidates,omitempty"`
}

// handleForget processes a memory deletion via MCP.
func (s *Server) handleForget(ctx context.Context, _ *mcp.CallToolRequest, input ForgetInput) (*mcp.CallToolResult, ForgetOutput, error) {
	result, err := s.config.Memory.Forget(ctx, input.ID, input.Query)
	if err != nil {
		s.config.Logger.Warn("memory forget failed", zap.Error(err))
		return toolError(fmt.Sprintf("Memory forget failed: %v", err)), ForgetOutput{}, nil
	}

	output := ForgetOutput{
		Deleted:   result.Deleted,
		DeletedID: result.DeletedID,
	}
	for _, hit := range result.Candidates {
		output.Candidates = append(output.Candidates, memory.RecordFromHit(hit))
	}

	return marshalResult(output)
}

// toolError wraps a message in an error tool result.
func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}

// marshalResult serializes the structured output as JSON for the text field.
// Per MCP spec: tools returning structured content should also return
// serialized JSON in a TextContent block for backwards compatibility.
func marshalResult[T any](output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		var zero T
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
