package memory

import (
	"regexp"
	"strings"
)

// contradictionOverlap is the minimum Jaccard similarity two texts need
// before a polarity flip between them counts as a contradiction. Below this
// the texts are about different things and opposing cue words are
// coincidence.
const contradictionOverlap = 0.35

var (
	nonAlnumRE = regexp.MustCompile(`[^a-z0-9]+`)

	// Negation and aversion cues.
	negativeCueRE = regexp.MustCompile(`(?i)\b(?:not|never|no longer|dislike|dislikes|hate|hates|avoid|avoids|stopped|quit|don'?t|doesn'?t|didn'?t|won'?t|can'?t|isn'?t|aren'?t|wasn'?t)\b`)

	// Positive affect and decision cues.
	positiveCueRE = regexp.MustCompile(`(?i)\b(?:like|likes|love|loves|prefer|prefers|always|want|wants|use|uses|using|enjoy|enjoys)\b`)
)

// Tokenize lowercases text, strips non-alphanumerics, and returns the set of
// tokens longer than two characters. Duplicate tokens collapse.
func Tokenize(text string) map[string]struct{} {
	cleaned := nonAlnumRE.ReplaceAllString(strings.ToLower(text), " ")
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) > 2 {
			tokens[tok] = struct{}{}
		}
	}
	return tokens
}

// Similarity computes the Jaccard index of the two texts' token sets.
// Returns 0 when either set is empty.
func Similarity(a, b string) float64 {
	setA, setB := Tokenize(a), Tokenize(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

// IsContradiction reports whether the two texts appear to state opposing
// things about the same topic: sufficient lexical overlap plus a negation
// cue on one side and a positive cue on the other, checked in both
// directions.
//
// This is a polarity flip heuristic, not an entailment check. It misfires
// on texts that merely co-mention both cue sets ("I don't only like X" vs
// "I like X"); that approximation is accepted.
func IsContradiction(newText, oldText string) bool {
	if Similarity(newText, oldText) < contradictionOverlap {
		return false
	}
	if negativeCueRE.MatchString(newText) && positiveCueRE.MatchString(oldText) {
		return true
	}
	if negativeCueRE.MatchString(oldText) && positiveCueRE.MatchString(newText) {
		return true
	}
	return false
}
