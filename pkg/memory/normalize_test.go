package memory

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Normalize", func() {
	It("strips leading bullet markers", func() {
		Expect(Normalize("- prefers dark mode")).To(Equal("prefers dark mode"))
		Expect(Normalize("* prefers dark mode")).To(Equal("prefers dark mode"))
		Expect(Normalize("• prefers dark mode")).To(Equal("prefers dark mode"))
	})

	It("strips numeric list markers", func() {
		Expect(Normalize("1. prefers dark mode")).To(Equal("prefers dark mode"))
		Expect(Normalize("2) prefers dark mode")).To(Equal("prefers dark mode"))
	})

	It("strips nested list markers", func() {
		Expect(Normalize("- 1. prefers dark mode")).To(Equal("prefers dark mode"))
	})

	It("collapses whitespace runs", func() {
		Expect(Normalize("uses   tabs\t\tnot   spaces")).To(Equal("uses tabs not spaces"))
	})

	It("trims surrounding whitespace", func() {
		Expect(Normalize("  hello  ")).To(Equal("hello"))
	})

	It("is idempotent", func() {
		inputs := []string{
			"- 1. * mixed   markers",
			"  plain text  ",
			"",
			"- - nested",
			"3)   numbered\n\nwith newlines",
		}
		for _, in := range inputs {
			once := Normalize(in)
			Expect(Normalize(once)).To(Equal(once))
		}
	})
})

var _ = Describe("StripRecalledBlock", func() {
	It("removes a single wrapped block", func() {
		in := "before " + RecallOpenTag + "\n- (0.90, [fact]) hidden\n" + RecallCloseTag + " after"
		out := StripRecalledBlock(in)
		Expect(out).NotTo(ContainSubstring("hidden"))
		Expect(out).To(ContainSubstring("before"))
		Expect(out).To(ContainSubstring("after"))
	})

	It("removes multiple adjacent blocks", func() {
		block := RecallOpenTag + "secret" + RecallCloseTag
		out := StripRecalledBlock("a " + block + block + " b")
		Expect(out).NotTo(ContainSubstring("secret"))
		Expect(out).NotTo(ContainSubstring(RecallOpenTag))
		Expect(out).NotTo(ContainSubstring(RecallCloseTag))
	})

	It("removes dangling tags without a pair", func() {
		out := StripRecalledBlock("x " + RecallOpenTag + " y")
		Expect(out).NotTo(ContainSubstring(RecallOpenTag))

		out = StripRecalledBlock("x " + RecallCloseTag + " y")
		Expect(out).NotTo(ContainSubstring(RecallCloseTag))
	})

	It("leaves unrelated text alone", func() {
		Expect(StripRecalledBlock("nothing to strip")).To(Equal("nothing to strip"))
	})
})

var _ = Describe("SplitSentences", func() {
	It("splits on terminal punctuation followed by whitespace", func() {
		out := SplitSentences("First sentence. Second one! Third?")
		Expect(out).To(Equal([]string{"First sentence", "Second one", "Third?"}))
	})

	It("splits on newlines", func() {
		out := SplitSentences("line one\nline two\n\nline three")
		Expect(out).To(Equal([]string{"line one", "line two", "line three"}))
	})

	It("drops empty pieces", func() {
		out := SplitSentences(".  . actual content here.")
		Expect(out).To(Equal([]string{"actual content here."}))
	})

	It("normalizes each piece", func() {
		out := SplitSentences("- bullet sentence. next   one")
		Expect(out[0]).NotTo(HavePrefix("-"))
		Expect(strings.Contains(out[1], "  ")).To(BeFalse())
	})
})
