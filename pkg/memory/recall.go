package memory

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/engram/pkg/vector"
)

// MinRecallPromptLength is the shortest prompt recall will run for. Anything
// shorter is noise ("ok", "yes") and never worth a store round trip.
const MinRecallPromptLength = 5

// AssembleContext formats search hits into the recalled-memories block
// injected before a turn. Hits without extractable text are dropped; an
// empty result means no injection.
//
// Each surviving hit renders as one line:
//
//	- (0.87, [preference]) prefers dark mode in editors
func AssembleContext(hits []vector.Hit) string {
	lines := make([]string, 0, len(hits))
	for _, hit := range hits {
		text := strings.TrimSpace(hit.Text)
		if text == "" {
			continue
		}
		rec := RecordFromHit(hit)
		lines = append(lines, fmt.Sprintf("- (%.2f, [%s]) %s", hit.Score, rec.Category, text))
	}

	if len(lines) == 0 {
		return ""
	}

	return RecallOpenTag + "\n" + strings.Join(lines, "\n") + "\n" + RecallCloseTag
}
