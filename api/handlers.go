package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/engram/api/worker"
	"github.com/papercomputeco/engram/pkg/memory"
)

// ErrorResponse is the JSON error envelope returned by all handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RecallRequest asks for memories relevant to a prompt.
type RecallRequest struct {
	Prompt string `json:"prompt"`
}

// RecallResponse carries the assembled context block for prompt injection.
// Context is empty when nothing relevant was found.
type RecallResponse struct {
	Context string `json:"context"`
}

// CaptureRequest carries one conversation turn to extract facts from.
type CaptureRequest struct {
	Messages []memory.Message `json:"messages"`

	// Sync forces the capture to run on the request path and returns the
	// resulting stats instead of a queued acknowledgement.
	Sync bool `json:"sync,omitempty"`
}

// CaptureResponse reports a queued capture or, for synchronous requests,
// what the capture changed.
type CaptureResponse struct {
	Queued    bool `json:"queued"`
	Added     int  `json:"added"`
	Updated   int  `json:"updated"`
	Deleted   int  `json:"deleted"`
	Unchanged int  `json:"unchanged"`
}

// StoreRequest persists one fact directly, bypassing extraction.
type StoreRequest struct {
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
}

// ForgetResponse reports a deletion or the ambiguous candidates.
type ForgetResponse struct {
	Deleted   bool   `json:"deleted"`
	DeletedID string `json:"deleted_id,omitempty"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleRecall returns the formatted memory context for a prompt.
// Recall never fails: an unavailable store degrades to an empty context.
func (s *Server) handleRecall(c *fiber.Ctx) error {
	var req RecallRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	block := s.mem.Recall(c.Context(), req.Prompt)

	return c.JSON(RecallResponse{Context: block})
}

// handleCapture extracts and stores facts from a conversation turn.
// With a worker pool configured the turn is queued and acknowledged with
// 202; otherwise (or when sync is requested) the capture runs inline.
func (s *Server) handleCapture(c *fiber.Ctx) error {
	var req CaptureRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if len(req.Messages) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "messages are required"})
	}

	if s.pool != nil && !req.Sync {
		if !s.pool.Enqueue(worker.Job{Messages: req.Messages}) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "capture queue is full"})
		}
		return c.Status(fiber.StatusAccepted).JSON(CaptureResponse{Queued: true})
	}

	stats := s.mem.Capture(c.Context(), req.Messages)

	return c.JSON(CaptureResponse{
		Added:     stats.Added,
		Updated:   stats.Updated,
		Deleted:   stats.Deleted,
		Unchanged: stats.None,
	})
}

// handleStore persists one fact directly.
func (s *Server) handleStore(c *fiber.Ctx) error {
	var req StoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	rec, err := s.mem.Store(c.Context(), req.Text, memory.Category(req.Category))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(rec)
}

// handleSearch returns ranked memories for a query.
func (s *Server) handleSearch(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "q parameter required"})
	}

	limit := c.QueryInt("limit")

	hits, err := s.mem.Search(c.Context(), query, limit)
	if err != nil {
		s.logger.Warn("memory search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "search failed"})
	}

	records := make([]memory.Record, 0, len(hits))
	for _, hit := range hits {
		records = append(records, memory.RecordFromHit(hit))
	}

	return c.JSON(map[string]any{
		"query":   query,
		"count":   len(records),
		"results": records,
	})
}

// handleForget deletes a memory by id.
func (s *Server) handleForget(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	result, err := s.mem.Forget(c.Context(), id, "")
	if err != nil {
		if errors.Is(err, memory.ErrForgetArgs) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "memory not found"})
	}

	return c.JSON(ForgetResponse{
		Deleted:   result.Deleted,
		DeletedID: result.DeletedID,
	})
}
