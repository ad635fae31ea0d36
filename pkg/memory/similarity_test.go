package memory

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Tokenize", func() {
	It("lowercases and strips punctuation", func() {
		tokens := Tokenize("Hello, World!")
		Expect(tokens).To(HaveKey("hello"))
		Expect(tokens).To(HaveKey("world"))
	})

	It("drops tokens of length two or less", func() {
		tokens := Tokenize("I am on my way")
		Expect(tokens).To(HaveKey("way"))
		Expect(tokens).NotTo(HaveKey("am"))
		Expect(tokens).NotTo(HaveKey("on"))
		Expect(tokens).NotTo(HaveKey("my"))
	})

	It("collapses duplicates into a set", func() {
		tokens := Tokenize("dark dark dark mode")
		Expect(tokens).To(HaveLen(2))
	})
})

var _ = Describe("Similarity", func() {
	It("returns 1 for identical text", func() {
		Expect(Similarity("prefers dark mode", "prefers dark mode")).To(Equal(1.0))
	})

	It("is symmetric", func() {
		a, b := "uses vim for editing", "prefers vim over emacs"
		Expect(Similarity(a, b)).To(Equal(Similarity(b, a)))
	})

	It("returns 0 when either side has no tokens", func() {
		Expect(Similarity("", "prefers dark mode")).To(BeZero())
		Expect(Similarity("a b c", "prefers dark mode")).To(BeZero())
	})

	It("computes the Jaccard index of the token sets", func() {
		// {dislike, dark, mode} vs {like, dark, mode}: 2 shared of 4 total.
		Expect(Similarity("I dislike dark mode", "I like dark mode")).To(BeNumerically("~", 0.5, 1e-9))
	})
})

var _ = Describe("IsContradiction", func() {
	It("detects a polarity flip on overlapping topics", func() {
		Expect(IsContradiction("I dislike dark mode", "I like dark mode")).To(BeTrue())
	})

	It("checks both directions", func() {
		Expect(IsContradiction("I like dark mode", "I dislike dark mode")).To(BeTrue())
	})

	It("requires a polarity flip, not just overlap", func() {
		Expect(IsContradiction("I like dark mode", "I also like dark mode")).To(BeFalse())
	})

	It("requires topical overlap, not just opposing cues", func() {
		Expect(IsContradiction("I never water houseplants", "I love espresso machines")).To(BeFalse())
	})

	It("catches negated contractions", func() {
		Expect(IsContradiction("I don't use tabs anymore for indentation", "I always use tabs for indentation")).To(BeTrue())
	})
})
