package memory

import (
	"regexp"
	"strings"
)

// Reserved delimiter tags wrapped around recalled-memory injections. Capture
// strips anything between them so the system never re-ingests its own
// recall output as a new fact.
const (
	RecallOpenTag  = "<recalled-memories>"
	RecallCloseTag = "</recalled-memories>"
)

var (
	bulletPrefixRE  = regexp.MustCompile(`^\s*(?:[-*•]+|\d+[.)])\s+`)
	whitespaceRE    = regexp.MustCompile(`\s+`)
	recalledBlockRE = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(RecallOpenTag) + `.*?` + regexp.QuoteMeta(RecallCloseTag))
	sentenceEndRE   = regexp.MustCompile(`[.!?]+\s+|\n+`)
)

// Normalize strips leading list markers, collapses whitespace runs, and
// trims. Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	s := raw
	// List markers can nest ("- 1. foo"); strip until stable so a second
	// pass has nothing left to remove.
	for {
		next := bulletPrefixRE.ReplaceAllString(s, "")
		if next == s {
			break
		}
		s = next
	}
	s = whitespaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// StripRecalledBlock removes every delimiter-wrapped recalled-memory span,
// plus any dangling delimiter tokens, and trims the result.
func StripRecalledBlock(raw string) string {
	s := recalledBlockRE.ReplaceAllString(raw, " ")
	s = strings.ReplaceAll(s, RecallOpenTag, " ")
	s = strings.ReplaceAll(s, RecallCloseTag, " ")
	return strings.TrimSpace(s)
}

// SplitSentences splits text on sentence-terminal punctuation followed by
// whitespace, or on newlines, normalizing each piece and dropping empties.
func SplitSentences(text string) []string {
	pieces := sentenceEndRE.Split(text, -1)
	sentences := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if s := Normalize(piece); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
