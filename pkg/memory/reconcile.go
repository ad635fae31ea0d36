package memory

import (
	"github.com/google/uuid"

	"github.com/papercomputeco/engram/pkg/vector"
)

// Thresholds holds the relevance cutoffs driving reconciliation decisions.
type Thresholds struct {
	// Relevance is the floor below which the store drops hits entirely.
	Relevance float32

	// Dedup marks a nearby hit as an exact duplicate.
	Dedup float32

	// Update marks a nearby hit as the same fact, reworded.
	Update float32

	// Delete is the minimum relevance a contradicted hit needs before it
	// is removed.
	Delete float32
}

// DefaultThresholds returns the standard reconciliation cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Relevance: 0.35,
		Dedup:     0.95,
		Update:    0.72,
		Delete:    0.45,
	}
}

// Reconciler decides what to do with one candidate fact given its nearby
// existing memories. It is purely local: the caller performs the store
// search and applies the returned decisions.
type Reconciler struct {
	thresholds Thresholds
	newID      func() string
}

// NewReconciler creates a heuristic reconciler with the given thresholds.
func NewReconciler(thresholds Thresholds) *Reconciler {
	return &Reconciler{
		thresholds: thresholds,
		newID:      func() string { return uuid.NewString() },
	}
}

// ReconcileFact evaluates one normalized fact against its nearby hits and
// returns the decisions to apply. Checks run in strict priority order and
// the first qualifying hit wins; hits arrive sorted by relevance descending
// and no secondary sort is applied.
//
//  1. A hit at or above the dedup threshold (by relevance or by lexical
//     similarity) means the fact is already stored: NONE.
//  2. A contradicted hit at or above the delete threshold is removed, and
//     the new fact is stored as a fresh replacement record.
//  3. A hit at or above the update threshold (by relevance or by lexical
//     similarity) is overwritten with the new text.
//  4. Otherwise the fact is new: ADD under a fresh id.
func (r *Reconciler) ReconcileFact(fact string, hits []vector.Hit) []Decision {
	if fact == "" {
		return nil
	}

	for _, hit := range hits {
		if hit.Score >= r.thresholds.Dedup || Similarity(fact, hit.Text) >= float64(r.thresholds.Dedup) {
			return []Decision{{
				TargetID: hit.ID,
				Text:     hit.Text,
				Action:   ActionNone,
			}}
		}
	}

	for _, hit := range hits {
		if hit.Score >= r.thresholds.Delete && IsContradiction(fact, hit.Text) {
			return []Decision{
				{
					TargetID:       hit.ID,
					Action:         ActionDelete,
					SupersededText: hit.Text,
				},
				{
					TargetID: r.newID(),
					Text:     fact,
					Action:   ActionAdd,
				},
			}
		}
	}

	for _, hit := range hits {
		if hit.Score >= r.thresholds.Update || Similarity(fact, hit.Text) >= float64(r.thresholds.Update) {
			return []Decision{{
				TargetID:       hit.ID,
				Text:           fact,
				Action:         ActionUpdate,
				SupersededText: hit.Text,
			}}
		}
	}

	return []Decision{{
		TargetID: r.newID(),
		Text:     fact,
		Action:   ActionAdd,
	}}
}
