package stage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/danielpatrickdp/creativity-controller/internal/memory"
	"github.com/danielpatrickdp/creativity-controller/internal/state"
)

// scriptedGen returns canned responses and records prompts.
type scriptedGen struct {
	response string
	err      error
	prompts  []string
}

func (g *scriptedGen) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.response, g.err
}

func baseState() state.ExecutionState {
	return state.New("greener cities", "run-1", 2).WithVariant("a")
}

func TestDivergenceRun(t *testing.T) {
	gen := &scriptedGen{response: "1. Rooftop Gardens\n2. Car-Free Zones"}
	st, err := Divergence{Gen: gen, Temp: 0.9}.Run(context.Background(), baseState(), "MEMORY BLOCK", "EVIDENCE BLOCK")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.DivergenceOutput != gen.response {
		t.Fatalf("output not recorded: %q", st.DivergenceOutput)
	}
	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "MEMORY BLOCK") || !strings.Contains(prompt, "EVIDENCE BLOCK") {
		t.Fatalf("prompt missing context blocks:\n%s", prompt)
	}
	if !strings.Contains(prompt, "greener cities") {
		t.Fatal("prompt missing original request")
	}
}

func TestDivergenceFailure(t *testing.T) {
	gen := &scriptedGen{err: errors.New("model down")}
	st, err := Divergence{Gen: gen}.Run(context.Background(), baseState(), "", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if state.KindOf(err) != state.KindStage {
		t.Fatalf("expected stage kind, got %s", state.KindOf(err))
	}
	if st.Success || st.Err == nil {
		t.Fatalf("state must record the failure: %+v", st)
	}
}

func TestRefinementRequiresDivergence(t *testing.T) {
	gen := &scriptedGen{response: "x"}
	_, err := Refinement{Gen: gen}.Run(context.Background(), baseState())
	if err == nil {
		t.Fatal("expected validation error without divergence output")
	}
	if state.KindOf(err) != state.KindValidation {
		t.Fatalf("expected validation kind, got %s", state.KindOf(err))
	}
}

func TestRefinementRun(t *testing.T) {
	gen := &scriptedGen{response: "refined"}
	st, err := Refinement{Gen: gen, Temp: 0.2}.Run(context.Background(), baseState().WithDivergence("raw ideas"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.RefinementOutput != "refined" {
		t.Fatalf("output not recorded: %q", st.RefinementOutput)
	}
	if !strings.Contains(gen.prompts[0], "raw ideas") {
		t.Fatal("refinement prompt must carry the divergence output")
	}
}

func TestEvaluationRun(t *testing.T) {
	gen := &scriptedGen{response: `{"evaluations":[{"idea_name":"Rooftop Gardens","originality_score":8,"feasibility_score":8,"impact_score":8,"substance_score":8,"reasoning":"good"}]}`}
	st, evals, err := Evaluation{Gen: gen, Temp: 0.1}.Run(context.Background(), baseState().WithDivergence("d").WithRefinement("r"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(evals) != 1 || evals[0].IdeaName != "Rooftop Gardens" {
		t.Fatalf("unexpected evaluations %+v", evals)
	}
	if st.EvaluationOutput == "" {
		t.Fatal("raw evaluation output must be recorded")
	}
}

func TestEvaluationParseFailureIsRecoverable(t *testing.T) {
	gen := &scriptedGen{response: "sorry, I can't do JSON today"}
	st, evals, err := Evaluation{Gen: gen}.Run(context.Background(), baseState().WithDivergence("d").WithRefinement("r"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if state.KindOf(err) != state.KindParse {
		t.Fatalf("expected parse kind, got %s", state.KindOf(err))
	}
	if state.IsFatal(err) {
		t.Fatal("parse failure must be recoverable")
	}
	if len(evals) != 0 {
		t.Fatal("parse failure contributes zero concepts")
	}
	if st.Err == nil || st.Err.Kind != state.KindParse {
		t.Fatalf("state must record parse failure: %+v", st.Err)
	}
}

func TestControlPasses(t *testing.T) {
	st := state.New("req", "run-1", 2)

	st, err := Control(st)
	if err != nil {
		t.Fatalf("Control: %v", err)
	}
	if !st.ShouldContinue || st.IsFinished {
		t.Fatalf("iteration 0 of 2 should continue: %+v", st)
	}

	st = st.WithIteration(2)
	st, err = Control(st)
	if err != nil {
		t.Fatalf("Control: %v", err)
	}
	if st.ShouldContinue || !st.IsFinished {
		t.Fatalf("iteration 2 of 2 should finish: %+v", st)
	}
}

func TestControlRejectsBadBound(t *testing.T) {
	_, err := Control(state.New("req", "run-1", 0))
	if err == nil {
		t.Fatal("expected control failure")
	}
	if !state.IsFatal(err) {
		t.Fatal("control failure must be fatal")
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	accepted := []memory.IdeaRecord{
		{Concept: "A", QualityScore: 7.5, Iteration: 0, KeyPoints: []string{"p1"}},
		{Concept: "B", QualityScore: 9.0, Iteration: 1},
	}
	first := Synthesize("req", accepted, []string{"variant a: judge output unparsable"})
	second := Synthesize("req", accepted, []string{"variant a: judge output unparsable"})
	if first != second {
		t.Fatal("synthesis must be deterministic")
	}
	if !strings.Contains(first, "A") || !strings.Contains(first, "B") {
		t.Fatalf("synthesis missing accepted concepts:\n%s", first)
	}
	// Highest score leads the recommendations.
	recs := first[strings.Index(first, "Recommendations"):]
	if !strings.Contains(strings.SplitN(recs, "\n", 4)[2], "B") {
		t.Fatalf("top recommendation should be B:\n%s", recs)
	}
	if !strings.Contains(first, "Diagnostics") {
		t.Fatal("failures must appear in diagnostics")
	}
}

func TestSynthesizeEmpty(t *testing.T) {
	out := Synthesize("req", nil, nil)
	if !strings.Contains(out, "No concepts met the acceptance threshold") {
		t.Fatalf("unexpected empty synthesis:\n%s", out)
	}
}
