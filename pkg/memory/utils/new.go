// Package memoryutils assembles a full memory stack (embedder, vector
// driver, event publisher, manager) from resolved configuration. Shared by
// the serve commands so the API and MCP servers wire the stack identically.
package memoryutils

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/engram/pkg/config"
	"github.com/papercomputeco/engram/pkg/credentials"
	"github.com/papercomputeco/engram/pkg/dotdir"
	"github.com/papercomputeco/engram/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/engram/pkg/embeddings/utils"
	"github.com/papercomputeco/engram/pkg/eventstream"
	"github.com/papercomputeco/engram/pkg/eventstream/kafka"
	"github.com/papercomputeco/engram/pkg/eventstream/nop"
	"github.com/papercomputeco/engram/pkg/llm"
	"github.com/papercomputeco/engram/pkg/memory"
	"github.com/papercomputeco/engram/pkg/vector"
	vectorutils "github.com/papercomputeco/engram/pkg/vector/utils"
)

// defaultSQLiteFile is the database file created under the .engram/
// directory when the sqlite vector store has no explicit target.
const defaultSQLiteFile = "memories.db"

// NewStackOpts carries everything needed to build a memory stack.
type NewStackOpts struct {
	Config *config.Config

	// ConfigDir overrides .engram/ directory resolution. Empty uses the
	// standard local-then-home lookup.
	ConfigDir string

	Logger *zap.Logger
}

// Stack bundles the memory manager with the backends it owns. Close releases
// them in reverse construction order.
type Stack struct {
	Manager   *memory.Manager
	Driver    vector.Driver
	Embedder  embeddings.Embedder
	Publisher eventstream.Publisher
}

// Close releases the stack's backends. Errors are collected, not short-circuited,
// so one failing backend does not leak the others.
func (s *Stack) Close() error {
	var errs []error
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing publisher: %w", err))
		}
	}
	if s.Driver != nil {
		if err := s.Driver.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing vector driver: %w", err))
		}
	}
	if s.Embedder != nil {
		if err := s.Embedder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing embedder: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("closing memory stack: %v", errs)
	}
	return nil
}

// NewStack builds the memory stack from configuration: embedder, vector
// driver, optional LLM caller, event publisher, and the manager on top.
//
// LLM capture is best effort. When capture mode is "llm" but no credentials
// resolve for the provider, the stack degrades to heuristic extraction with
// a logged warning rather than failing to start.
func NewStack(o *NewStackOpts) (*Stack, error) {
	cfg := o.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	stack := &Stack{Embedder: embedder}

	vectorTarget, err := resolveVectorTarget(cfg, o.ConfigDir)
	if err != nil {
		_ = stack.Close()
		return nil, err
	}

	driver, err := vectorutils.NewVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		TargetURL:    vectorTarget,
		Collection:   cfg.VectorStore.Collection,
		Dimensions:   cfg.Embedding.Dimensions,
		Embedder:     embedder,
		Logger:       logger,
	})
	if err != nil {
		_ = stack.Close()
		return nil, fmt.Errorf("creating vector driver: %w", err)
	}
	stack.Driver = driver

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		_ = stack.Close()
		return nil, err
	}
	stack.Publisher = publisher

	call, extractor := newCapturePath(cfg, o.ConfigDir, logger)

	manager, err := memory.NewManager(memory.ManagerOptions{
		Driver:    driver,
		Publisher: publisher,
		Namespace: cfg.Memory.Namespace,
		TopK:      cfg.Memory.TopK,
		Thresholds: memory.Thresholds{
			Relevance: cfg.Memory.RelevanceThreshold,
			Dedup:     cfg.Memory.DedupThreshold,
			Update:    cfg.Memory.UpdateThreshold,
			Delete:    cfg.Memory.DeleteThreshold,
		},
		Extractor: extractor,
		LLMCall:   call,
		Logger:    logger,
	})
	if err != nil {
		_ = stack.Close()
		return nil, fmt.Errorf("creating memory manager: %w", err)
	}
	stack.Manager = manager

	return stack, nil
}

// resolveVectorTarget fills in the default sqlite database path under the
// .engram/ directory when the sqlite provider has no explicit target.
func resolveVectorTarget(cfg *config.Config, configDir string) (string, error) {
	target := cfg.VectorStore.Target
	if target != "" || cfg.VectorStore.Provider != "sqlite" {
		return target, nil
	}

	dir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return "", fmt.Errorf("resolving .engram directory for sqlite store: %w", err)
	}
	return filepath.Join(dir, defaultSQLiteFile), nil
}

func newPublisher(cfg *config.Config, logger *zap.Logger) (eventstream.Publisher, error) {
	switch cfg.Events.Provider {
	case "", "nop":
		return nop.NewPublisher(), nil
	case "kafka":
		publisher, err := kafka.NewPublisher(kafka.Config{
			Brokers: splitBrokers(cfg.Events.Brokers),
			Topic:   cfg.Events.Topic,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return publisher, nil
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", cfg.Events.Provider)
	}
}

// newCapturePath resolves the extraction strategy and LLM call function.
// A nil CallFunc with a nil Extractor means the manager's heuristic default.
func newCapturePath(cfg *config.Config, configDir string, logger *zap.Logger) (llm.CallFunc, memory.Extractor) {
	heuristic := memory.NewHeuristicExtractor(memory.HeuristicConfig{
		MinFactLength: cfg.Memory.MinFactLength,
		MaxFactLength: cfg.Memory.MaxFactLength,
	})

	if cfg.Memory.Capture != "llm" {
		return nil, heuristic
	}

	llmCfg := llm.Config{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.Target,
	}
	if credMgr, err := credentials.NewManager(configDir); err == nil {
		llmCfg.CredMgr = credMgr
	}

	if !llm.HasCredentials(llmCfg) {
		logger.Warn("llm capture configured but no credentials resolve, falling back to heuristic",
			zap.String("provider", cfg.LLM.Provider),
		)
		return nil, heuristic
	}

	call, err := llm.NewCaller(llmCfg)
	if err != nil {
		logger.Warn("llm caller unavailable, falling back to heuristic capture",
			zap.Error(err),
		)
		return nil, heuristic
	}

	return call, memory.NewLLMExtractor(call)
}

func splitBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
