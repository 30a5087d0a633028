// Package stage implements the workflow's stage runners. Each runner
// consumes an ExecutionState and produces a new one, overwriting only
// the slots it owns; failures are recorded in the derived state and
// returned as kinded errors for the orchestrator's continuation policy.
package stage

import (
	"context"
	"log"

	"github.com/danielpatrickdp/creativity-controller/internal/llm"
	"github.com/danielpatrickdp/creativity-controller/internal/parser"
	"github.com/danielpatrickdp/creativity-controller/internal/state"
)

// #region divergence
// Divergence generates raw concepts at high temperature.
type Divergence struct {
	Gen  llm.Generator
	Temp float32
}

// Run produces the divergence output for the current variant chain.
// memoryContext steers the model away from already-covered concepts;
// evidence is an optional research block.
func (d Divergence) Run(ctx context.Context, st state.ExecutionState, memoryContext, evidence string) (state.ExecutionState, error) {
	out, err := d.Gen.Generate(ctx, divergencePrompt(st.OriginalRequest, memoryContext, evidence), d.Temp)
	if err != nil {
		wrapped := state.Errorf(state.KindStage, "divergence generate: %w", err)
		return st.WithError(state.KindStage, wrapped.Error()), wrapped
	}
	log.Printf("[STAGE] divergence done variant=%s iter=%d (%d bytes)", st.Variant, st.Iteration, len(out))
	return st.WithDivergence(out), nil
}
// #endregion divergence

// #region refinement
// Refinement sharpens the divergence output at low temperature.
type Refinement struct {
	Gen  llm.Generator
	Temp float32
}

// Run requires a completed divergence output on the input state.
func (r Refinement) Run(ctx context.Context, st state.ExecutionState) (state.ExecutionState, error) {
	if st.DivergenceOutput == "" {
		err := state.Errorf(state.KindValidation, "refinement requires divergence output")
		return st.WithError(state.KindValidation, err.Error()), err
	}
	out, err := r.Gen.Generate(ctx, refinementPrompt(st.OriginalRequest, st.DivergenceOutput), r.Temp)
	if err != nil {
		wrapped := state.Errorf(state.KindStage, "refinement generate: %w", err)
		return st.WithError(state.KindStage, wrapped.Error()), wrapped
	}
	log.Printf("[STAGE] refinement done variant=%s iter=%d (%d bytes)", st.Variant, st.Iteration, len(out))
	return st.WithRefinement(out), nil
}
// #endregion refinement

// #region evaluation
// Evaluation asks the judge model for criterion scores and parses the
// structured verdict.
type Evaluation struct {
	Gen  llm.Generator
	Temp float32
}

// Run returns the parsed evaluations alongside the derived state. A
// parse failure is recoverable: the state carries the error and the
// evaluation list is empty, so the iteration simply contributes no
// concepts from this chain.
func (e Evaluation) Run(ctx context.Context, st state.ExecutionState) (state.ExecutionState, []parser.Evaluation, error) {
	if st.RefinementOutput == "" {
		err := state.Errorf(state.KindValidation, "evaluation requires refinement output")
		return st.WithError(state.KindValidation, err.Error()), nil, err
	}

	out, err := e.Gen.Generate(ctx, evaluationPrompt(st.RefinementOutput), e.Temp)
	if err != nil {
		wrapped := state.Errorf(state.KindStage, "evaluation generate: %w", err)
		return st.WithError(state.KindStage, wrapped.Error()), nil, wrapped
	}

	doc, err := parser.ParseEvaluations(out)
	if err != nil {
		wrapped := state.Errorf(state.KindParse, "judge output: %w", err)
		log.Printf("[JUDGE] unparsable output variant=%s iter=%d: %v", st.Variant, st.Iteration, err)
		return st.WithEvaluation(out).WithError(state.KindParse, wrapped.Error()), nil, wrapped
	}

	log.Printf("[JUDGE] %d evaluations variant=%s iter=%d", len(doc.Evaluations), st.Variant, st.Iteration)
	return st.WithEvaluation(out), doc.Evaluations, nil
}
// #endregion evaluation

// #region control
// Control is the loop-condition stage: it recomputes the continuation
// flags from the iteration counter. A nonsensical bound is a fatal
// control failure.
func Control(st state.ExecutionState) (state.ExecutionState, error) {
	if st.MaxIterations < 1 {
		err := state.Errorf(state.KindControl, "max iterations %d < 1", st.MaxIterations)
		return st.WithError(state.KindControl, err.Error()), err
	}
	shouldContinue := st.Iteration < st.MaxIterations
	if shouldContinue {
		log.Printf("[STAGE] control: iteration %d of %d, continuing", st.Iteration, st.MaxIterations)
	} else {
		log.Printf("[STAGE] control: all %d iterations complete", st.MaxIterations)
	}
	return st.WithControl(shouldContinue), nil
}
// #endregion control
