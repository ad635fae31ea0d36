package memory

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	testutils "github.com/papercomputeco/engram/pkg/utils/test"
	"github.com/papercomputeco/engram/pkg/vector"
)

var _ = Describe("idTable", func() {
	It("assigns sequential placeholders on first sight", func() {
		t := newIDTable()
		Expect(t.placeholder("real-a")).To(Equal("0"))
		Expect(t.placeholder("real-b")).To(Equal("1"))
	})

	It("reuses the same placeholder for the same real id", func() {
		t := newIDTable()
		first := t.placeholder("real-a")
		t.placeholder("real-b")
		Expect(t.placeholder("real-a")).To(Equal(first))
	})

	It("maps placeholders back to real ids", func() {
		t := newIDTable()
		p := t.placeholder("real-a")
		Expect(t.real(p)).To(Equal("real-a"))
	})

	It("passes unknown ids through unchanged", func() {
		t := newIDTable()
		Expect(t.real("hallucinated")).To(Equal("hallucinated"))
	})
})

var _ = Describe("LLMReconciler", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("returns nothing for an empty batch", func() {
		r := NewLLMReconciler(testutils.NewMockLLM().Caller(), zap.NewNop())
		decisions, err := r.ReconcileBatch(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(decisions).To(BeEmpty())
	})

	It("substitutes placeholder ids in the prompt", func() {
		mock := testutils.NewMockLLM(`{"memory": []}`)
		r := NewLLMReconciler(mock.Caller(), zap.NewNop())

		_, err := r.ReconcileBatch(ctx, []FactContext{
			{
				Fact: "prefers dark mode",
				Hits: []vector.Hit{{ID: "550e8400-e29b-41d4-a716-446655440000", Text: "likes dark mode"}},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(mock.Prompts[0]).To(ContainSubstring("[0] likes dark mode"))
		Expect(mock.Prompts[0]).NotTo(ContainSubstring("550e8400"))
	})

	It("shares one id mapping across facts in the batch", func() {
		mock := testutils.NewMockLLM(`{"memory": [{"id": "0", "text": "updated", "event": "UPDATE", "old_memory": "likes dark mode"}]}`)
		r := NewLLMReconciler(mock.Caller(), zap.NewNop())

		shared := vector.Hit{ID: "real-shared", Text: "likes dark mode"}
		decisions, err := r.ReconcileBatch(ctx, []FactContext{
			{Fact: "fact one", Hits: []vector.Hit{shared}},
			{Fact: "fact two", Hits: []vector.Hit{shared}},
		})
		Expect(err).NotTo(HaveOccurred())

		// The shared memory appears once in the prompt under one placeholder.
		Expect(mock.Prompts[0]).To(ContainSubstring("[0] likes dark mode"))
		Expect(mock.Prompts[0]).NotTo(ContainSubstring("[1] likes dark mode"))

		Expect(decisions).To(HaveLen(1))
		Expect(decisions[0].TargetID).To(Equal("real-shared"))
	})

	It("maps ADD decisions to the new-id placeholder", func() {
		mock := testutils.NewMockLLM(`{"memory": [{"id": "new", "text": "prefers dark mode", "event": "ADD"}]}`)
		r := NewLLMReconciler(mock.Caller(), zap.NewNop())

		decisions, err := r.ReconcileBatch(ctx, []FactContext{{Fact: "prefers dark mode"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(decisions).To(HaveLen(1))
		Expect(decisions[0].Action).To(Equal(ActionAdd))
		Expect(decisions[0].TargetID).To(Equal(PlaceholderNewID))
	})

	It("passes hallucinated ids through for the applier to reject", func() {
		mock := testutils.NewMockLLM(`{"memory": [{"id": "99", "text": "x", "event": "DELETE", "old_memory": "y"}]}`)
		r := NewLLMReconciler(mock.Caller(), zap.NewNop())

		decisions, err := r.ReconcileBatch(ctx, []FactContext{{Fact: "some fact"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(decisions).To(HaveLen(1))
		Expect(decisions[0].TargetID).To(Equal("99"))
	})

	It("skips decisions with unknown events", func() {
		mock := testutils.NewMockLLM(`{"memory": [{"id": "new", "text": "x", "event": "MERGE"}]}`)
		r := NewLLMReconciler(mock.Caller(), zap.NewNop())

		decisions, err := r.ReconcileBatch(ctx, []FactContext{{Fact: "some fact"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(decisions).To(BeEmpty())
	})

	It("normalizes lowercase events", func() {
		mock := testutils.NewMockLLM(`{"memory": [{"id": "new", "text": "x", "event": "add"}]}`)
		r := NewLLMReconciler(mock.Caller(), zap.NewNop())

		decisions, err := r.ReconcileBatch(ctx, []FactContext{{Fact: "some fact"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(decisions[0].Action).To(Equal(ActionAdd))
	})

	It("returns backend failures to the caller", func() {
		mock := testutils.NewMockLLM()
		mock.Fail = true
		r := NewLLMReconciler(mock.Caller(), zap.NewNop())

		_, err := r.ReconcileBatch(ctx, []FactContext{{Fact: "some fact"}})
		Expect(err).To(HaveOccurred())
	})

	It("returns malformed JSON as an error", func() {
		mock := testutils.NewMockLLM("total nonsense")
		r := NewLLMReconciler(mock.Caller(), zap.NewNop())

		_, err := r.ReconcileBatch(ctx, []FactContext{{Fact: "some fact"}})
		Expect(err).To(HaveOccurred())
	})
})
