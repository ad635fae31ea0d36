package memory

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ShouldCapture", func() {
	It("rejects text below the minimum length regardless of content", func() {
		Expect(ShouldCapture("prefer vim", MinFactLength, MaxFactLength)).To(BeFalse())
	})

	It("rejects text above the maximum length regardless of content", func() {
		long := "I prefer " + strings.Repeat("x", MaxFactLength)
		Expect(ShouldCapture(long, MinFactLength, MaxFactLength)).To(BeFalse())
	})

	It("accepts preference cues", func() {
		Expect(ShouldCapture("I prefer dark mode in all my editors", MinFactLength, MaxFactLength)).To(BeTrue())
	})

	It("accepts decision cues", func() {
		Expect(ShouldCapture("we decided to ship the beta on Friday", MinFactLength, MaxFactLength)).To(BeTrue())
	})

	It("accepts project and architecture nouns", func() {
		Expect(ShouldCapture("the billing service talks to the orders api", MinFactLength, MaxFactLength)).To(BeTrue())
	})

	It("accepts explicit remember cues", func() {
		Expect(ShouldCapture("remember that staging resets every night", MinFactLength, MaxFactLength)).To(BeTrue())
	})

	It("accepts the two-part use-X-over-Y pattern", func() {
		Expect(ShouldCapture("use pnpm instead of npm in this monorepo", MinFactLength, MaxFactLength)).To(BeTrue())
	})

	It("rejects in-bounds text with no cue", func() {
		Expect(ShouldCapture("the weather was quite nice this morning", MinFactLength, MaxFactLength)).To(BeFalse())
	})

	It("honors custom bounds for sentence-level candidates", func() {
		Expect(ShouldCapture("I prefer tabs here", MinSentenceLength, MaxSentenceLength)).To(BeTrue())
		Expect(ShouldCapture("I prefer tabs", MinSentenceLength, MaxSentenceLength)).To(BeFalse())
	})
})

var _ = Describe("DetectCategory", func() {
	It("labels preference cues first", func() {
		Expect(DetectCategory("prefers dark mode")).To(Equal(CategoryPreference))
	})

	It("labels decisions", func() {
		Expect(DetectCategory("decided to ship on Friday")).To(Equal(CategoryDecision))
	})

	It("labels project facts", func() {
		Expect(DetectCategory("the billing service owns invoices")).To(Equal(CategoryProject))
	})

	It("labels technical facts", func() {
		Expect(DetectCategory("the importer crashes on empty files")).To(Equal(CategoryTechnical))
	})

	It("labels copula statements as plain facts", func() {
		Expect(DetectCategory("the office is closed on Mondays")).To(Equal(CategoryFact))
	})

	It("falls back to general", func() {
		Expect(DetectCategory("something happened somewhere")).To(Equal(CategoryGeneral))
	})

	It("applies rules in order, first match wins", func() {
		// Matches both preference and project cues; preference is checked first.
		Expect(DetectCategory("prefers the monolith architecture")).To(Equal(CategoryPreference))
	})
})
