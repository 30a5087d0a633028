package parser

import (
	"encoding/json"
	"fmt"
)

// #region score
// Score is a 0-10 criterion score. It rejects string-encoded numbers:
// the evaluation contract requires numeric scores.
type Score float64

func (s *Score) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return fmt.Errorf("score must be numeric, got string %s", data)
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("score must be numeric: %w", err)
	}
	if f < 0 || f > 10 {
		return fmt.Errorf("score %.2f outside 0-10 range", f)
	}
	*s = Score(f)
	return nil
}
// #endregion score

// #region evaluation
// Evaluation is the judge's verdict on a single concept: four criterion
// scores plus free-text reasoning.
type Evaluation struct {
	IdeaName    string   `json:"idea_name"`
	Originality Score    `json:"originality_score"`
	Feasibility Score    `json:"feasibility_score"`
	Impact      Score    `json:"impact_score"`
	Substance   Score    `json:"substance_score"`
	Reasoning   string   `json:"reasoning"`
	KeyPoints   []string `json:"key_points"`
}

// CriterionScores returns the four scores in declaration order.
func (e Evaluation) CriterionScores() []float64 {
	return []float64{
		float64(e.Originality),
		float64(e.Feasibility),
		float64(e.Impact),
		float64(e.Substance),
	}
}

// Document is the full judge payload.
type Document struct {
	Evaluations []Evaluation `json:"evaluations"`
}
// #endregion evaluation

// #region parse-evaluations
// ParseEvaluations extracts and decodes a judge payload from raw output.
func ParseEvaluations(raw string) (Document, error) {
	blob, err := Extract(raw)
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(blob, &doc); err != nil {
		return Document{}, &ParseError{Raw: raw, Err: err}
	}
	return doc, nil
}
// #endregion parse-evaluations
