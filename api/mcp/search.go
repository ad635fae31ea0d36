package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/engram/pkg/memory"
)

var (
	searchToolName    = "memory_search"
	searchDescription = "Search stored memories using semantic search. Returns the most relevant memories for the query text with their ids, categories, and relevance scores."
)

// SearchInput represents the input arguments for the memory_search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query text to find relevant memories"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 5)"`
}

// SearchResult represents a single search result.
type SearchResult struct {
	ID       string  `json:"id"`
	Score    float32 `json:"score"`
	Text     string  `json:"text"`
	Category string  `json:"category"`
}

// SearchOutput represents the output of the memory_search tool.
type SearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// handleSearch processes a search request.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	logger := s.config.Logger

	if input.Query == "" {
		return toolError("query is required"), SearchOutput{}, nil
	}

	logger.Debug("MCP memory search request",
		zap.String("query", input.Query),
		zap.Int("topK", input.TopK),
	)

	hits, err := s.config.Memory.Search(ctx, input.Query, input.TopK)
	if err != nil {
		logger.Error("failed to search memories", zap.Error(err))
		return toolError("Memory search failed: " + err.Error()), SearchOutput{}, nil
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		rec := memory.RecordFromHit(hit)
		results = append(results, SearchResult{
			ID:       rec.ID,
			Score:    hit.Score,
			Text:     rec.Text,
			Category: string(rec.Category),
		})
	}

	output := SearchOutput{
		Query:   input.Query,
		Results: results,
		Count:   len(results),
	}

	return marshalResult(output)
}
