// Package memory owns the acceptance policy for generated concepts and
// deduplicates them across iterations and sessions. Accepted and
// rejected ideas are kept as append-only history and fed back into later
// divergence prompts so the pipeline stops relitigating settled ground.
package memory

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/danielpatrickdp/creativity-controller/internal/state"
	"github.com/google/uuid"
)

// DefaultAcceptThreshold is the minimum mean criterion score for acceptance.
const DefaultAcceptThreshold = 5.0

// #region manager-struct
// Manager holds the in-process idea memory and its durable document path.
type Manager struct {
	path      string
	threshold float64

	accepted []IdeaRecord
	rejected []IdeaRecord
	seen     map[string]bool // normalized concepts already recorded
}
// #endregion manager-struct

// #region constructor
// NewManager creates an empty memory. path may be empty for
// in-memory-only operation (Persist/Load become no-ops).
func NewManager(path string, threshold float64) *Manager {
	if threshold <= 0 {
		threshold = DefaultAcceptThreshold
	}
	return &Manager{
		path:      path,
		threshold: threshold,
		seen:      make(map[string]bool),
	}
}
// #endregion constructor

// #region normalize
// normalizeConcept lower-cases and collapses whitespace so trivially
// equal concepts dedupe to the same key.
func normalizeConcept(concept string) string {
	return strings.Join(strings.Fields(strings.ToLower(concept)), " ")
}
// #endregion normalize

// #region ingest
// Ingest applies the acceptance policy to a batch of evaluated concepts.
// The quality score is the arithmetic mean of the criterion scores;
// concepts at or above the threshold are accepted, the rest rejected
// with the supplied reasoning. A concept whose normalized form is
// already in memory is discarded. Returns the records appended by this
// call. An empty batch is a valid no-op; a concept with no scores is a
// validation error.
func (m *Manager) Ingest(iteration int, concepts []EvaluatedConcept) ([]IdeaRecord, error) {
	if len(concepts) == 0 {
		return nil, nil
	}

	var appended []IdeaRecord
	for _, ec := range concepts {
		if len(ec.Scores) == 0 {
			return appended, state.Errorf(state.KindValidation, "concept %q has no criterion scores", ec.Concept)
		}

		norm := normalizeConcept(ec.Concept)
		if norm == "" {
			return appended, state.Errorf(state.KindValidation, "empty concept text")
		}
		if m.seen[norm] {
			log.Printf("[MEM] duplicate concept discarded: %q", ec.Concept)
			continue
		}

		var sum float64
		for _, s := range ec.Scores {
			sum += s
		}
		score := sum / float64(len(ec.Scores))

		rec := IdeaRecord{
			ID:           uuid.New().String(),
			Concept:      ec.Concept,
			KeyPoints:    ec.KeyPoints,
			QualityScore: score,
			Iteration:    iteration,
			CreatedAt:    time.Now().UTC(),
		}

		if score >= m.threshold {
			rec.Status = StatusAccepted
			m.accepted = append(m.accepted, rec)
		} else {
			rec.Status = StatusRejected
			rec.RejectionReason = ec.Reasoning
			if rec.RejectionReason == "" {
				rec.RejectionReason = fmt.Sprintf("quality score %.1f below threshold %.1f", score, m.threshold)
			}
			m.rejected = append(m.rejected, rec)
		}

		m.seen[norm] = true
		appended = append(appended, rec)
		log.Printf("[MEM] %s %q score=%.1f", rec.Status, rec.Concept, score)
	}
	return appended, nil
}
// #endregion ingest

// #region context
// contextCap bounds how many ideas of each kind the feedback block carries.
const contextCap = 25

// ContextForNextIteration renders the explored/rejected history as a
// prompt block steering later divergence away from covered territory.
// Ordering is chronological (append order) for stable output.
func (m *Manager) ContextForNextIteration() string {
	var b strings.Builder

	if len(m.accepted) > 0 {
		b.WriteString("PREVIOUSLY EXPLORED IDEAS (do not regenerate these exact concepts):\n")
		for _, idea := range tail(m.accepted, contextCap) {
			fmt.Fprintf(&b, "- %s\n", idea.Concept)
			for i, point := range idea.KeyPoints {
				if i == 3 {
					break
				}
				fmt.Fprintf(&b, "  * %s\n", point)
			}
		}
		b.WriteString("\n")
	}

	if len(m.rejected) > 0 {
		b.WriteString("REJECTED IDEAS (avoid these directions entirely):\n")
		for _, idea := range tail(m.rejected, contextCap) {
			fmt.Fprintf(&b, "- %s: %s\n", idea.Concept, idea.RejectionReason)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func tail(records []IdeaRecord, n int) []IdeaRecord {
	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}
// #endregion context

// #region accessors
// Accepted returns a copy of the accepted records in chronological order.
func (m *Manager) Accepted() []IdeaRecord {
	out := make([]IdeaRecord, len(m.accepted))
	copy(out, m.accepted)
	return out
}

// Rejected returns a copy of the rejected records in chronological order.
func (m *Manager) Rejected() []IdeaRecord {
	out := make([]IdeaRecord, len(m.rejected))
	copy(out, m.rejected)
	return out
}

// RecentConcepts returns the most recently accepted concept names.
func (m *Manager) RecentConcepts(limit int) []string {
	recent := tail(m.accepted, limit)
	out := make([]string, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		out = append(out, recent[i].Concept)
	}
	return out
}
// #endregion accessors
