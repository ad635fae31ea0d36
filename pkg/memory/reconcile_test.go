package memory

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/engram/pkg/vector"
)

var _ = Describe("Reconciler", func() {
	var r *Reconciler

	BeforeEach(func() {
		r = NewReconciler(DefaultThresholds())
		n := 0
		r.newID = func() string {
			n++
			return "generated-" + string(rune('0'+n))
		}
	})

	It("returns nothing for an empty fact", func() {
		Expect(r.ReconcileFact("", nil)).To(BeEmpty())
	})

	It("adds a novel fact under a fresh id", func() {
		decisions := r.ReconcileFact("prefers dark mode in editors", nil)
		Expect(decisions).To(HaveLen(1))
		Expect(decisions[0].Action).To(Equal(ActionAdd))
		Expect(decisions[0].TargetID).To(Equal("generated-1"))
		Expect(decisions[0].Text).To(Equal("prefers dark mode in editors"))
	})

	It("returns NONE for a high-relevance duplicate", func() {
		hits := []vector.Hit{{ID: "m1", Score: 0.97, Text: "prefers dark mode in editors"}}
		decisions := r.ReconcileFact("prefers dark mode in editors", hits)
		Expect(decisions).To(HaveLen(1))
		Expect(decisions[0].Action).To(Equal(ActionNone))
		Expect(decisions[0].TargetID).To(Equal("m1"))
	})

	It("prefers NONE over UPDATE when a hit qualifies for both", func() {
		// Relevance 0.97 clears the update threshold too; the duplicate
		// check runs first and wins.
		hits := []vector.Hit{{ID: "m1", Score: 0.97, Text: "prefers dark mode in editors"}}
		decisions := r.ReconcileFact("prefers dark mode in editors", hits)
		Expect(decisions[0].Action).To(Equal(ActionNone))
	})

	It("detects duplicates lexically even at low relevance", func() {
		hits := []vector.Hit{{ID: "m1", Score: 0.40, Text: "prefers dark mode in editors"}}
		decisions := r.ReconcileFact("prefers dark mode in editors", hits)
		Expect(decisions[0].Action).To(Equal(ActionNone))
	})

	It("deletes a contradicted memory and adds the replacement", func() {
		hits := []vector.Hit{{ID: "m1", Score: 0.6, Text: "I like dark mode"}}
		decisions := r.ReconcileFact("I dislike dark mode now", hits)
		Expect(decisions).To(HaveLen(2))

		Expect(decisions[0].Action).To(Equal(ActionDelete))
		Expect(decisions[0].TargetID).To(Equal("m1"))
		Expect(decisions[0].SupersededText).To(Equal("I like dark mode"))

		Expect(decisions[1].Action).To(Equal(ActionAdd))
		Expect(decisions[1].Text).To(Equal("I dislike dark mode now"))
		Expect(decisions[1].TargetID).NotTo(Equal("m1"))
	})

	It("leaves a contradicted memory alone below the delete threshold", func() {
		hits := []vector.Hit{{ID: "m1", Score: 0.40, Text: "I like dark mode"}}
		decisions := r.ReconcileFact("I dislike dark mode now", hits)
		Expect(decisions).To(HaveLen(1))
		Expect(decisions[0].Action).To(Equal(ActionAdd))
	})

	It("updates a reworded memory preserving its id", func() {
		hits := []vector.Hit{{ID: "m1", Score: 0.88, Text: "I prefer dark mode in editors"}}
		decisions := r.ReconcileFact("I always prefer dark mode in my editor", hits)
		Expect(decisions).To(HaveLen(1))
		Expect(decisions[0].Action).To(Equal(ActionUpdate))
		Expect(decisions[0].TargetID).To(Equal("m1"))
		Expect(decisions[0].Text).To(Equal("I always prefer dark mode in my editor"))
		Expect(decisions[0].SupersededText).To(Equal("I prefer dark mode in editors"))
	})

	It("takes the first qualifying hit in store ranking order", func() {
		hits := []vector.Hit{
			{ID: "m1", Score: 0.80, Text: "works on the billing service"},
			{ID: "m2", Score: 0.75, Text: "works on the billing team"},
		}
		decisions := r.ReconcileFact("now leads the billing service rewrite", hits)
		Expect(decisions[0].Action).To(Equal(ActionUpdate))
		Expect(decisions[0].TargetID).To(Equal("m1"))
	})

	It("adds when nearby hits clear no threshold", func() {
		hits := []vector.Hit{{ID: "m1", Score: 0.50, Text: "drinks tea in the morning"}}
		decisions := r.ReconcileFact("works from the Berlin office", hits)
		Expect(decisions).To(HaveLen(1))
		Expect(decisions[0].Action).To(Equal(ActionAdd))
	})
})
