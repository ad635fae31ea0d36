package memory

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/engram/pkg/eventstream"
	testutils "github.com/papercomputeco/engram/pkg/utils/test"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	events []*eventstream.MemoryChangedEvent
	fail   bool
}

func (p *recordingPublisher) PublishMemoryChange(_ context.Context, event *eventstream.MemoryChangedEvent) error {
	if p.fail {
		return eventstream.ErrNilEvent
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var _ = Describe("Applier", func() {
	var (
		ctx       context.Context
		driver    *testutils.MockVectorDriver
		publisher *recordingPublisher
		applier   *Applier
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = testutils.NewMockVectorDriver()
		publisher = &recordingPublisher{}
		applier = NewApplier(driver, publisher, "engram", zap.NewNop())
	})

	Describe("ADD", func() {
		It("stores the record with category and provenance metadata", func() {
			stats := applier.Apply(ctx, []Decision{
				{TargetID: "id-1", Text: "prefers dark mode", Action: ActionAdd},
			}, ProvenanceTurnCapture)

			Expect(stats.Added).To(Equal(1))
			rec := driver.Records["id-1"]
			Expect(rec.Text).To(Equal("prefers dark mode"))
			Expect(rec.Metadata[MetaCategory]).To(Equal(string(CategoryPreference)))
			Expect(rec.Metadata[MetaProvenance]).To(Equal(string(ProvenanceTurnCapture)))
			Expect(rec.Metadata).To(HaveKey(MetaCapturedAt))
		})

		It("generates a fresh id for the new-id placeholder", func() {
			stats := applier.Apply(ctx, []Decision{
				{TargetID: PlaceholderNewID, Text: "prefers dark mode", Action: ActionAdd},
			}, ProvenanceLLMExtract)

			Expect(stats.Added).To(Equal(1))
			Expect(driver.Records).To(HaveLen(1))
			for id := range driver.Records {
				Expect(id).NotTo(Equal(PlaceholderNewID))
			}
		})

		It("suppresses empty text as a no-op", func() {
			stats := applier.Apply(ctx, []Decision{
				{TargetID: PlaceholderNewID, Text: "", Action: ActionAdd},
			}, ProvenanceTurnCapture)

			Expect(stats.Added).To(BeZero())
			Expect(driver.Records).To(BeEmpty())
		})
	})

	Describe("UPDATE", func() {
		It("overwrites text and metadata and stamps updated_at", func() {
			stats := applier.Apply(ctx, []Decision{
				{TargetID: "m1", Text: "prefers light mode now", Action: ActionUpdate, SupersededText: "prefers dark mode"},
			}, ProvenanceTurnCapture)

			Expect(stats.Updated).To(Equal(1))
			rec := driver.Records["m1"]
			Expect(rec.Text).To(Equal("prefers light mode now"))
			Expect(rec.Metadata).To(HaveKey(MetaUpdatedAt))
		})

		It("treats the new-id placeholder as a contract violation no-op", func() {
			stats := applier.Apply(ctx, []Decision{
				{TargetID: PlaceholderNewID, Text: "some text", Action: ActionUpdate},
			}, ProvenanceTurnCapture)

			Expect(stats.Updated).To(BeZero())
			Expect(driver.Records).To(BeEmpty())
		})

		It("suppresses empty text as a no-op", func() {
			stats := applier.Apply(ctx, []Decision{
				{TargetID: "m1", Text: "", Action: ActionUpdate},
			}, ProvenanceTurnCapture)

			Expect(stats.Updated).To(BeZero())
		})
	})

	Describe("DELETE", func() {
		It("removes the record", func() {
			Expect(driver.Store(ctx, "m1", "old fact", nil)).To(Succeed())

			stats := applier.Apply(ctx, []Decision{
				{TargetID: "m1", Action: ActionDelete, SupersededText: "old fact"},
			}, ProvenanceTurnCapture)

			Expect(stats.Deleted).To(Equal(1))
			Expect(driver.Deleted).To(ContainElement("m1"))
		})

		It("ignores placeholder and missing ids", func() {
			stats := applier.Apply(ctx, []Decision{
				{TargetID: PlaceholderNewID, Action: ActionDelete},
				{TargetID: "", Action: ActionDelete},
			}, ProvenanceTurnCapture)

			Expect(stats.Deleted).To(BeZero())
			Expect(driver.Deleted).To(BeEmpty())
		})
	})

	It("counts NONE decisions without touching the store", func() {
		stats := applier.Apply(ctx, []Decision{
			{TargetID: "m1", Text: "already stored", Action: ActionNone},
		}, ProvenanceTurnCapture)

		Expect(stats.None).To(Equal(1))
		Expect(driver.Records).To(BeEmpty())
	})

	It("isolates a failed decision from its siblings", func() {
		driver.FailDelete = true

		stats := applier.Apply(ctx, []Decision{
			{TargetID: "m1", Action: ActionDelete, SupersededText: "old"},
			{TargetID: "id-2", Text: "prefers dark mode", Action: ActionAdd},
		}, ProvenanceTurnCapture)

		Expect(stats.Deleted).To(BeZero())
		Expect(stats.Added).To(Equal(1))
		Expect(driver.Records).To(HaveKey("id-2"))
	})

	It("publishes one event per applied mutation", func() {
		applier.Apply(ctx, []Decision{
			{TargetID: "id-1", Text: "prefers dark mode", Action: ActionAdd},
			{TargetID: "id-1", Text: "prefers light mode", Action: ActionUpdate, SupersededText: "prefers dark mode"},
			{TargetID: "id-1", Action: ActionDelete, SupersededText: "prefers light mode"},
			{TargetID: "id-1", Text: "x", Action: ActionNone},
		}, ProvenanceTurnCapture)

		Expect(publisher.events).To(HaveLen(3))
		Expect(publisher.events[0].Action).To(Equal(string(ActionAdd)))
		Expect(publisher.events[0].Namespace).To(Equal("engram"))
		Expect(publisher.events[1].SupersededText).To(Equal("prefers dark mode"))
		Expect(publisher.events[2].Action).To(Equal(string(ActionDelete)))
	})

	It("keeps applying when the publisher fails", func() {
		publisher.fail = true

		stats := applier.Apply(ctx, []Decision{
			{TargetID: "id-1", Text: "prefers dark mode", Action: ActionAdd},
		}, ProvenanceTurnCapture)

		Expect(stats.Added).To(Equal(1))
	})

	It("works without a publisher", func() {
		bare := NewApplier(driver, nil, "engram", zap.NewNop())
		stats := bare.Apply(ctx, []Decision{
			{TargetID: "id-1", Text: "prefers dark mode", Action: ActionAdd},
		}, ProvenanceTurnCapture)

		Expect(stats.Added).To(Equal(1))
	})
})
