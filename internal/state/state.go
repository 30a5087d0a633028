package state

import "time"

// #region constructor
// New creates the initial state for a run with iteration 0.
func New(originalRequest, runID string, maxIterations int) ExecutionState {
	return ExecutionState{
		OriginalRequest: originalRequest,
		RunID:           runID,
		Iteration:       0,
		MaxIterations:   maxIterations,
		ShouldContinue:  true,
		Success:         true,
		StartedAt:       time.Now().UTC(),
	}
}
// #endregion constructor

// #region derivation

// WithVariant starts a fresh variant chain: output slots and the error
// record are cleared, everything else carries over.
func (s ExecutionState) WithVariant(variant string) ExecutionState {
	next := s
	next.Variant = variant
	next.DivergenceOutput = ""
	next.RefinementOutput = ""
	next.EvaluationOutput = ""
	next.Err = nil
	next.Success = true
	return next
}

// WithDivergence records the divergence stage output.
func (s ExecutionState) WithDivergence(output string) ExecutionState {
	next := s
	next.DivergenceOutput = output
	next.Err = nil
	next.Success = true
	return next
}

// WithRefinement records the refinement stage output.
func (s ExecutionState) WithRefinement(output string) ExecutionState {
	next := s
	next.RefinementOutput = output
	next.Err = nil
	next.Success = true
	return next
}

// WithEvaluation records the raw evaluation stage output.
func (s ExecutionState) WithEvaluation(output string) ExecutionState {
	next := s
	next.EvaluationOutput = output
	next.Err = nil
	next.Success = true
	return next
}

// WithControl records the loop-continuation decision for the current pass.
func (s ExecutionState) WithControl(shouldContinue bool) ExecutionState {
	next := s
	next.ShouldContinue = shouldContinue
	next.IsFinished = !shouldContinue
	next.Err = nil
	next.Success = true
	return next
}

// WithIteration advances the iteration counter.
func (s ExecutionState) WithIteration(iteration int) ExecutionState {
	next := s
	next.Iteration = iteration
	return next
}

// WithError marks the state failed with a typed error record.
func (s ExecutionState) WithError(kind ErrorKind, message string) ExecutionState {
	next := s
	next.Err = &StageError{Kind: kind, Message: message}
	next.Success = false
	return next
}

// #endregion derivation
