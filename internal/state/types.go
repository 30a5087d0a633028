package state

import "time"

// #region execution-state
// ExecutionState is the context record threaded through every stage of a run.
// It is a plain value: stages derive a new state with the WithX methods and
// never mutate the one they were given.
type ExecutionState struct {
	OriginalRequest string // set once, byte-identical across all derived states
	RunID           string
	Iteration       int
	MaxIterations   int

	// Loop control, recomputed by the control stage each pass.
	// Exactly one of the two is true after the control stage runs.
	ShouldContinue bool
	IsFinished     bool

	// Per-stage output slots. Empty string means the stage has not
	// produced output for the current variant chain.
	Variant          string
	DivergenceOutput string
	RefinementOutput string
	EvaluationOutput string

	Err     *StageError
	Success bool

	StartedAt time.Time
}
// #endregion execution-state

// #region stage-error
// StageError records a recoverable failure inside the state itself.
type StageError struct {
	Kind    ErrorKind
	Message string
}
// #endregion stage-error
