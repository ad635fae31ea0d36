package memory

import "regexp"

// Default length bounds for capture candidates. Whole-message capture uses
// the fact bounds; sentence-level extraction uses the tighter sentence
// bounds.
const (
	MinFactLength     = 20
	MaxFactLength     = 2000
	MinSentenceLength = 15
	MaxSentenceLength = 280
)

// captureCues are the category cue patterns a candidate must match to be
// considered durable. The set is deliberately narrow: a missed fact is
// cheaper than stored noise.
var captureCues = []*regexp.Regexp{
	// Preference words.
	regexp.MustCompile(`(?i)\b(?:prefer|prefers|favorite|favourite|like to|love to|always|never|usually|rather)\b`),
	// Decision words.
	regexp.MustCompile(`(?i)\b(?:decided|decision|agreed|chose|chosen|going with|settled on|we will|we'll|let's go with)\b`),
	// Project and architecture nouns.
	regexp.MustCompile(`(?i)\b(?:project|architecture|database|schema|api|service|endpoint|deploy|deployment|repo|repository|module|backend|frontend|pipeline)\b`),
	// Explicit remember/important cues.
	regexp.MustCompile(`(?i)\b(?:remember|important|note that|keep in mind|don't forget|for future reference)\b`),
	// Convention and workflow nouns.
	regexp.MustCompile(`(?i)\b(?:convention|conventions|workflow|standard|practice|pattern|guideline|style guide|naming)\b`),
	// Two-part "use X instead of / over / rather than Y".
	regexp.MustCompile(`(?i)\buse\s+\S+.*\b(?:instead of|over|rather than)\b`),
}

// ShouldCapture reports whether text looks durable enough to store. Text
// outside [minLen, maxLen] characters is always rejected; otherwise it must
// match at least one capture cue. Pure predicate, no side effects.
func ShouldCapture(text string, minLen, maxLen int) bool {
	n := len([]rune(text))
	if n < minLen || n > maxLen {
		return false
	}
	for _, cue := range captureCues {
		if cue.MatchString(text) {
			return true
		}
	}
	return false
}
