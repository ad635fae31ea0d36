package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/engram/api/worker"
	"github.com/papercomputeco/engram/pkg/memory"
	"github.com/papercomputeco/engram/pkg/vector"
)

// Memory is the slice of the memory manager the API serves.
type Memory interface {
	Recall(ctx context.Context, prompt string) string
	Capture(ctx context.Context, messages []memory.Message) memory.Stats
	Store(ctx context.Context, text string, category memory.Category) (memory.Record, error)
	Search(ctx context.Context, query string, limit int) ([]vector.Hit, error)
	Forget(ctx context.Context, id, query string) (memory.ForgetResult, error)
}

// Server is the API server for recalling, capturing, and managing memories.
type Server struct {
	config Config
	mem    Memory
	pool   *worker.Pool
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
// The pool is optional: when set, capture requests are acknowledged
// immediately and processed in the background; when nil, captures run
// synchronously on the request path.
func NewServer(config Config, mem Memory, pool *worker.Pool, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		mem:    mem,
		pool:   pool,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/v1/recall", s.handleRecall)
	app.Post("/v1/capture", s.handleCapture)
	app.Post("/v1/memories", s.handleStore)
	app.Get("/v1/memories/search", s.handleSearch)
	app.Delete("/v1/memories/:id", s.handleForget)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
