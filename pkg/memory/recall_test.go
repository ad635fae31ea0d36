package memory

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/engram/pkg/vector"
)

var _ = Describe("AssembleContext", func() {
	It("returns empty for no hits", func() {
		Expect(AssembleContext(nil)).To(BeEmpty())
	})

	It("formats each hit as a scored, categorized line", func() {
		block := AssembleContext([]vector.Hit{
			{
				ID:    "m1",
				Score: 0.87,
				Text:  "prefers dark mode in editors",
				Metadata: map[string]any{
					MetaCategory: string(CategoryPreference),
				},
			},
		})

		Expect(block).To(ContainSubstring("- (0.87, [preference]) prefers dark mode in editors"))
	})

	It("wraps the lines in the reserved delimiter tags", func() {
		block := AssembleContext([]vector.Hit{
			{ID: "m1", Score: 0.5, Text: "works on the billing service"},
		})

		Expect(block).To(HavePrefix(RecallOpenTag))
		Expect(block).To(HaveSuffix(RecallCloseTag))
	})

	It("drops hits without extractable text", func() {
		block := AssembleContext([]vector.Hit{
			{ID: "m1", Score: 0.9, Text: "   "},
			{ID: "m2", Score: 0.8, Text: ""},
		})

		Expect(block).To(BeEmpty())
	})

	It("defaults the category to general", func() {
		block := AssembleContext([]vector.Hit{
			{ID: "m1", Score: 0.5, Text: "some fact"},
		})

		Expect(block).To(ContainSubstring("[general]"))
	})

	It("renders scores to two decimals", func() {
		block := AssembleContext([]vector.Hit{
			{ID: "m1", Score: 0.456, Text: "some fact"},
		})

		Expect(block).To(ContainSubstring("(0.46,"))
	})
})
