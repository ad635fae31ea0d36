package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/engram/pkg/eventstream"
	"github.com/papercomputeco/engram/pkg/llm"
	"github.com/papercomputeco/engram/pkg/vector"
)

// DefaultTopK is the number of nearby memories fetched per query when none
// is configured.
const DefaultTopK = 5

// forgetAutoDeleteThreshold is the relevance a single search hit needs for
// Forget to delete it without asking for disambiguation.
const forgetAutoDeleteThreshold = 0.9

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Driver is the vector store backend. Required.
	Driver vector.Driver

	// Publisher receives memory change events. Optional.
	Publisher eventstream.Publisher

	// Namespace names the isolated partition this manager operates in.
	Namespace string

	// TopK is the number of nearby memories fetched per query.
	// Defaults to DefaultTopK.
	TopK int

	// Thresholds are the reconciliation cutoffs. Zero value means defaults.
	Thresholds Thresholds

	// Extractor is the primary fact extraction strategy. Defaults to the
	// heuristic extractor in turn-capture mode.
	Extractor Extractor

	// LLMCall, when set, enables LLM-backed reconciliation with heuristic
	// fallback.
	LLMCall llm.CallFunc

	Logger *zap.Logger
}

// Manager is the top-level memory layer: recall before a turn, capture after
// a turn, and the direct tool operations.
//
// Recall and Capture never fail: every error is caught, logged, and degraded
// to "no memories recalled" or "nothing captured". Memory is an enhancement
// to the agent turn, never a dependency it can fail on.
type Manager struct {
	driver        vector.Driver
	applier       *Applier
	reconciler    *Reconciler
	llmReconciler *LLMReconciler
	extractor     Extractor
	fallback      *HeuristicExtractor
	thresholds    Thresholds
	topK          int
	logger        *zap.Logger
}

// NewManager creates a Manager from options, filling in defaults.
func NewManager(opts ManagerOptions) (*Manager, error) {
	if opts.Driver == nil {
		return nil, fmt.Errorf("%w: vector driver is required", ErrNotConfigured)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	thresholds := opts.Thresholds
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	fallback := NewHeuristicExtractor(HeuristicConfig{})

	extractor := opts.Extractor
	if extractor == nil {
		extractor = fallback
	}

	m := &Manager{
		driver:     opts.Driver,
		applier:    NewApplier(opts.Driver, opts.Publisher, opts.Namespace, logger),
		reconciler: NewReconciler(thresholds),
		extractor:  extractor,
		fallback:   fallback,
		thresholds: thresholds,
		topK:       topK,
		logger:     logger,
	}

	if opts.LLMCall != nil {
		m.llmReconciler = NewLLMReconciler(opts.LLMCall, logger)
	}

	return m, nil
}

// Recall searches the store for memories relevant to the prompt and returns
// a formatted context block for injection, or empty when nothing relevant
// exists, the prompt is too short, or the store is unavailable.
func (m *Manager) Recall(ctx context.Context, prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if len([]rune(prompt)) < MinRecallPromptLength {
		return ""
	}

	hits, err := m.driver.Search(ctx, prompt, m.topK, m.thresholds.Relevance)
	if err != nil {
		m.logger.Warn("recall search failed, continuing without memories",
			zap.Error(err),
		)
		return ""
	}

	return AssembleContext(hits)
}

// Capture extracts facts from the turn's messages, reconciles each against
// nearby memories, and applies the resulting decisions. Facts are processed
// strictly in order: a later fact may depend on mutations applied for an
// earlier one. All failures degrade to a partial or empty Stats.
func (m *Manager) Capture(ctx context.Context, messages []Message) Stats {
	facts, provenance := m.extract(ctx, messages)
	if len(facts) == 0 {
		return Stats{}
	}

	if m.llmReconciler != nil {
		if stats, ok := m.captureLLM(ctx, facts, provenance); ok {
			return stats
		}
	}

	var stats Stats
	for _, fact := range facts {
		hits := m.searchNearby(ctx, fact)
		decisions := m.reconciler.ReconcileFact(fact, hits)
		s := m.applier.Apply(ctx, decisions, provenance)
		stats.Added += s.Added
		stats.Updated += s.Updated
		stats.Deleted += s.Deleted
		stats.None += s.None
	}

	return stats
}

// extract runs the primary extractor and falls back to the heuristic path on
// failure. Capture must proceed even when the LLM backend is down.
func (m *Manager) extract(ctx context.Context, messages []Message) ([]string, Provenance) {
	facts, err := m.extractor.Extract(ctx, messages)
	if err == nil {
		return facts, m.extractor.Provenance()
	}

	m.logger.Warn("extraction failed, falling back to heuristic capture",
		zap.Error(err),
	)

	if m.extractor == m.fallback {
		return nil, m.fallback.Provenance()
	}

	facts, err = m.fallback.Extract(ctx, messages)
	if err != nil {
		m.logger.Warn("heuristic capture failed",
			zap.Error(err),
		)
		return nil, m.fallback.Provenance()
	}

	return facts, m.fallback.Provenance()
}

// captureLLM runs one batched LLM reconciliation pass. Returns ok=false on
// any backend failure so the caller can fall back to heuristic
// reconciliation for the same facts.
func (m *Manager) captureLLM(ctx context.Context, facts []string, provenance Provenance) (Stats, bool) {
	batch := make([]FactContext, 0, len(facts))
	for _, fact := range facts {
		batch = append(batch, FactContext{
			Fact: fact,
			Hits: m.searchNearby(ctx, fact),
		})
	}

	decisions, err := m.llmReconciler.ReconcileBatch(ctx, batch)
	if err != nil {
		m.logger.Warn("llm reconciliation failed, falling back to heuristic",
			zap.Error(err),
		)
		return Stats{}, false
	}

	return m.applier.Apply(ctx, decisions, provenance), true
}

func (m *Manager) searchNearby(ctx context.Context, fact string) []vector.Hit {
	hits, err := m.driver.Search(ctx, fact, m.topK, m.thresholds.Relevance)
	if err != nil {
		m.logger.Warn("nearby search failed, treating fact as novel",
			zap.Error(err),
		)
		return nil
	}
	return hits
}

// Store persists one fact directly, bypassing extraction and reconciliation.
// This is the memory_store tool surface.
func (m *Manager) Store(ctx context.Context, text string, category Category) (Record, error) {
	text = Normalize(text)
	if text == "" {
		return Record{}, fmt.Errorf("cannot store empty memory")
	}

	if category == "" {
		category = DetectCategory(text)
	}

	rec := Record{
		ID:         uuid.NewString(),
		Text:       text,
		Category:   category,
		Provenance: ProvenanceTool,
		CapturedAt: time.Now(),
	}

	if err := m.driver.Store(ctx, rec.ID, rec.Text, rec.Metadata()); err != nil {
		return Record{}, fmt.Errorf("storing memory: %w", err)
	}

	return rec, nil
}

// Search returns the ranked memories relevant to the query. This is the
// memory_search tool surface.
func (m *Manager) Search(ctx context.Context, query string, limit int) ([]vector.Hit, error) {
	if limit <= 0 {
		limit = m.topK
	}

	hits, err := m.driver.Search(ctx, query, limit, m.thresholds.Relevance)
	if err != nil {
		return nil, fmt.Errorf("searching memories: %w", err)
	}

	return hits, nil
}

// ForgetResult reports what Forget did. Either one record was deleted, or
// Candidates holds the ambiguous matches for the caller to disambiguate.
type ForgetResult struct {
	Deleted    bool
	DeletedID  string
	Candidates []vector.Hit
}

// Forget removes a memory by id or by query. Exactly one of id/query must be
// set. A query deletes only on a single unambiguous match at high relevance;
// otherwise the candidates are returned for disambiguation. This is the
// memory_forget tool surface.
func (m *Manager) Forget(ctx context.Context, id, query string) (ForgetResult, error) {
	if (id == "") == (query == "") {
		return ForgetResult{}, ErrForgetArgs
	}

	if id != "" {
		if err := m.driver.Delete(ctx, id); err != nil {
			return ForgetResult{}, fmt.Errorf("deleting memory %s: %w", id, err)
		}
		return ForgetResult{Deleted: true, DeletedID: id}, nil
	}

	hits, err := m.driver.Search(ctx, query, m.topK, m.thresholds.Relevance)
	if err != nil {
		return ForgetResult{}, fmt.Errorf("searching memories to forget: %w", err)
	}

	// Unambiguous means exactly one confident hit; lower-scoring
	// companions do not block the deletion.
	var confident []vector.Hit
	for _, hit := range hits {
		if hit.Score >= forgetAutoDeleteThreshold {
			confident = append(confident, hit)
		}
	}

	if len(confident) == 1 {
		if err := m.driver.Delete(ctx, confident[0].ID); err != nil {
			return ForgetResult{}, fmt.Errorf("deleting memory %s: %w", confident[0].ID, err)
		}
		return ForgetResult{Deleted: true, DeletedID: confident[0].ID}, nil
	}

	return ForgetResult{Candidates: hits}, nil
}
