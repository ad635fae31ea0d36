package memory

import "context"

// batchDedupThreshold collapses near-identical sentences within one
// extraction batch; the first occurrence wins.
const batchDedupThreshold = 0.9

// Extractor produces candidate facts from recent conversation messages.
// Implementations consume only user and assistant messages, and strip
// recalled-memory blocks before looking at the text.
type Extractor interface {
	// Extract returns normalized candidate fact strings in order of first
	// appearance.
	Extract(ctx context.Context, messages []Message) ([]string, error)

	// Provenance identifies the pathway for records produced from this
	// extractor's facts.
	Provenance() Provenance
}

// HeuristicConfig holds tunables for the heuristic extractor.
type HeuristicConfig struct {
	// UserOnly restricts extraction to user-authored messages. Summary
	// mode sets this to avoid capturing assistant speculation as fact.
	UserOnly bool

	// MinFactLength and MaxFactLength bound whole-message candidates.
	// Zero values take the package defaults.
	MinFactLength int
	MaxFactLength int

	// MinSentenceLength and MaxSentenceLength bound sentence-level
	// candidates. Zero values take the package defaults.
	MinSentenceLength int
	MaxSentenceLength int
}

// HeuristicExtractor extracts facts with local pattern matching only: whole
// messages that pass the capture filter, or their individual sentences when
// the message itself is out of bounds.
type HeuristicExtractor struct {
	config HeuristicConfig
	prov   Provenance
}

// NewHeuristicExtractor creates the per-turn heuristic extractor, which
// considers both user and assistant messages.
func NewHeuristicExtractor(config HeuristicConfig) *HeuristicExtractor {
	if config.MinFactLength == 0 {
		config.MinFactLength = MinFactLength
	}
	if config.MaxFactLength == 0 {
		config.MaxFactLength = MaxFactLength
	}
	if config.MinSentenceLength == 0 {
		config.MinSentenceLength = MinSentenceLength
	}
	if config.MaxSentenceLength == 0 {
		config.MaxSentenceLength = MaxSentenceLength
	}

	prov := ProvenanceTurnCapture
	if config.UserOnly {
		prov = ProvenanceSummary
	}

	return &HeuristicExtractor{config: config, prov: prov}
}

// Extract splits each eligible message into capture candidates, filters
// them, and deduplicates near-identical candidates within the batch.
func (e *HeuristicExtractor) Extract(_ context.Context, messages []Message) ([]string, error) {
	var accepted []string

	for _, msg := range messages {
		if msg.Role != RoleUser && msg.Role != RoleAssistant {
			continue
		}
		if e.config.UserOnly && msg.Role != RoleUser {
			continue
		}

		text := Normalize(StripRecalledBlock(msg.Text))
		if text == "" {
			continue
		}

		for _, candidate := range e.candidates(text) {
			if !e.isDuplicate(candidate, accepted) {
				accepted = append(accepted, candidate)
			}
		}
	}

	return accepted, nil
}

// Provenance implements Extractor.
func (e *HeuristicExtractor) Provenance() Provenance {
	return e.prov
}

// candidates returns the capture candidates for one cleaned message: the
// whole message when it passes the fact-length filter, otherwise its
// individual sentences under the sentence bounds.
func (e *HeuristicExtractor) candidates(text string) []string {
	if !e.config.UserOnly && ShouldCapture(text, e.config.MinFactLength, e.config.MaxFactLength) {
		return []string{text}
	}

	var out []string
	for _, sentence := range SplitSentences(text) {
		if ShouldCapture(sentence, e.config.MinSentenceLength, e.config.MaxSentenceLength) {
			out = append(out, sentence)
		}
	}
	return out
}

func (e *HeuristicExtractor) isDuplicate(candidate string, accepted []string) bool {
	for _, prior := range accepted {
		if Similarity(candidate, prior) > batchDedupThreshold {
			return true
		}
	}
	return false
}
