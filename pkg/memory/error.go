package memory

import "errors"

var (
	// ErrBackend is returned when the LLM extraction or reconciliation
	// backend fails or produces output outside its contract. Callers fall
	// back to the heuristic path.
	ErrBackend = errors.New("llm backend failure")

	// ErrNotConfigured is returned when memory operations are attempted
	// without a configured manager.
	ErrNotConfigured = errors.New("memory not configured")

	// ErrForgetArgs is returned when a forget request supplies neither or
	// both of memory ID and query.
	ErrForgetArgs = errors.New("exactly one of memory id or query is required")
)
