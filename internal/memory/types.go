package memory

import "time"

// #region status
// Status is the acceptance decision recorded on an idea.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)
// #endregion status

// #region idea-record
// IdeaRecord is one concept considered during a run. Records are
// append-only history; they are never deleted.
type IdeaRecord struct {
	ID              string    `json:"id"`
	Concept         string    `json:"concept"`
	KeyPoints       []string  `json:"key_points,omitempty"`
	QualityScore    float64   `json:"quality_score"`
	Status          Status    `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	Iteration       int       `json:"iteration"`
	CreatedAt       time.Time `json:"created_at"`
}
// #endregion idea-record

// #region evaluated-concept
// EvaluatedConcept is the ingest input: a concept with its per-criterion
// scores and the judge's reasoning.
type EvaluatedConcept struct {
	Concept   string
	Scores    []float64
	Reasoning string
	KeyPoints []string
}
// #endregion evaluated-concept

// #region document
// document is the durable representation: two ordered lists, matching
// the on-disk idea_memory.json layout.
type document struct {
	ExploredIdeas []IdeaRecord `json:"explored_ideas"`
	RejectedIdeas []IdeaRecord `json:"rejected_ideas"`
}
// #endregion document
