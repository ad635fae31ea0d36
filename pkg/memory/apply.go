package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/engram/pkg/eventstream"
	"github.com/papercomputeco/engram/pkg/vector"
)

// Stats summarizes one apply pass over a batch of decisions.
type Stats struct {
	Added   int
	Updated int
	Deleted int
	None    int
}

// Total returns the number of decisions that produced a store mutation or an
// explicit NONE.
func (s Stats) Total() int {
	return s.Added + s.Updated + s.Deleted + s.None
}

// Applier executes reconciliation decisions against the vector store. Each
// decision is attempted independently: one failure is logged and does not
// block the rest of the batch.
type Applier struct {
	driver    vector.Driver
	publisher eventstream.Publisher
	namespace string
	logger    *zap.Logger
	now       func() time.Time
}

// NewApplier creates an applier bound to one store and namespace. The
// publisher may be nil, in which case no events are emitted.
func NewApplier(driver vector.Driver, publisher eventstream.Publisher, namespace string, logger *zap.Logger) *Applier {
	return &Applier{
		driver:    driver,
		publisher: publisher,
		namespace: namespace,
		logger:    logger,
		now:       time.Now,
	}
}

// Apply executes decisions in order and returns summary counts. Mutations
// stamp timestamps at apply time. Decisions that violate the contract
// (empty text on ADD/UPDATE, placeholder id on UPDATE/DELETE) are skipped
// as no-ops rather than treated as errors.
func (a *Applier) Apply(ctx context.Context, decisions []Decision, provenance Provenance) Stats {
	var stats Stats

	for _, decision := range decisions {
		switch decision.Action {
		case ActionAdd:
			if decision.Text == "" {
				continue
			}
			id := decision.TargetID
			if id == "" || id == PlaceholderNewID {
				id = uuid.NewString()
			}
			rec := Record{
				ID:         id,
				Text:       decision.Text,
				Category:   DetectCategory(decision.Text),
				Provenance: provenance,
				CapturedAt: a.now(),
			}
			if err := a.driver.Store(ctx, rec.ID, rec.Text, rec.Metadata()); err != nil {
				a.logger.Warn("failed to store memory",
					zap.String("id", rec.ID),
					zap.Error(err),
				)
				continue
			}
			stats.Added++
			a.publish(ctx, decision, rec)

		case ActionUpdate:
			if decision.Text == "" || decision.TargetID == "" || decision.TargetID == PlaceholderNewID {
				continue
			}
			now := a.now()
			rec := Record{
				ID:         decision.TargetID,
				Text:       decision.Text,
				Category:   DetectCategory(decision.Text),
				Provenance: provenance,
				CapturedAt: now,
				UpdatedAt:  now,
			}
			if err := a.driver.Update(ctx, rec.ID, rec.Text, rec.Metadata()); err != nil {
				a.logger.Warn("failed to update memory",
					zap.String("id", rec.ID),
					zap.Error(err),
				)
				continue
			}
			stats.Updated++
			a.publish(ctx, decision, rec)

		case ActionDelete:
			if decision.TargetID == "" || decision.TargetID == PlaceholderNewID {
				continue
			}
			if err := a.driver.Delete(ctx, decision.TargetID); err != nil {
				a.logger.Warn("failed to delete memory",
					zap.String("id", decision.TargetID),
					zap.Error(err),
				)
				continue
			}
			stats.Deleted++
			a.publish(ctx, decision, Record{ID: decision.TargetID})

		case ActionNone:
			stats.None++
		}
	}

	return stats
}

func (a *Applier) publish(ctx context.Context, decision Decision, rec Record) {
	if a.publisher == nil {
		return
	}

	event := &eventstream.MemoryChangedEvent{
		SchemaVersion:  eventstream.SchemaVersionV1,
		EventType:      eventstream.EventTypeMemoryChanged,
		EventID:        uuid.NewString(),
		EmittedAt:      a.now().UTC(),
		Namespace:      a.namespace,
		Action:         string(decision.Action),
		RecordID:       rec.ID,
		Text:           rec.Text,
		Category:       string(rec.Category),
		Provenance:     string(rec.Provenance),
		SupersededText: decision.SupersededText,
	}

	if err := a.publisher.PublishMemoryChange(ctx, event); err != nil {
		a.logger.Warn("failed to publish memory event",
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
	}
}
