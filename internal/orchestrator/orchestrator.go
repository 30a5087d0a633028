// Package orchestrator drives a run from the initial prompt to the
// final synthesis: a fixed stage graph walked once per iteration, a
// bounded loop, and a continuation policy that degrades on recoverable
// stage failures instead of aborting the run.
package orchestrator

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/danielpatrickdp/creativity-controller/internal/memory"
	"github.com/danielpatrickdp/creativity-controller/internal/parser"
	"github.com/danielpatrickdp/creativity-controller/internal/research"
	"github.com/danielpatrickdp/creativity-controller/internal/runlog"
	"github.com/danielpatrickdp/creativity-controller/internal/stage"
	"github.com/danielpatrickdp/creativity-controller/internal/state"
	"github.com/google/uuid"
)

// #region orchestrator-struct

// Orchestrator is the top-level coordinator for divergence, refinement,
// evaluation, memory ingestion, and loop control.
type Orchestrator struct {
	variants   []Variant
	mem        *memory.Manager
	researcher *research.Researcher // optional
	logDB      *sql.DB              // optional, shared with the cache
	cfg        Config
}

// #endregion orchestrator-struct

// #region constructor

// New creates a fully wired orchestrator. researcher and logDB may be
// nil; the run then skips background research and durable stage logging.
func New(cfg Config, variants []Variant, mem *memory.Manager, researcher *research.Researcher, logDB *sql.DB) (*Orchestrator, error) {
	if cfg.MaxIterations < 1 {
		return nil, state.Errorf(state.KindValidation, "max iterations %d < 1", cfg.MaxIterations)
	}
	if len(variants) == 0 {
		return nil, state.Errorf(state.KindValidation, "at least one variant required")
	}
	if mem == nil {
		return nil, state.Errorf(state.KindValidation, "idea memory required")
	}
	if logDB != nil {
		if err := runlog.Init(logDB); err != nil {
			return nil, state.Errorf(state.KindStorage, "init run log: %w", err)
		}
	}
	return &Orchestrator{
		variants:   variants,
		mem:        mem,
		researcher: researcher,
		logDB:      logDB,
		cfg:        cfg,
	}, nil
}

// #endregion constructor

// #region run

// Run executes the full workflow for originalRequest. Recoverable stage
// failures are collected and the run continues; control failures and the
// run-level timeout abort with the partial result attached.
func (o *Orchestrator) Run(ctx context.Context, originalRequest string) (FinalResult, error) {
	runID := uuid.New().String()
	st := state.New(originalRequest, runID, o.cfg.MaxIterations)

	var deadline time.Time
	if o.cfg.RunTimeout > 0 {
		deadline = time.Now().Add(o.cfg.RunTimeout)
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	log.Printf("[ORCH] run %s: %d iterations, %d variants", runID, o.cfg.MaxIterations, len(o.variants))

	var failures []FailureNote
	for {
		// Run-level timeout is checked at the top of the loop and is fatal.
		if !deadline.IsZero() && time.Now().After(deadline) {
			err := state.Errorf(state.KindTimeout, "run deadline exceeded at iteration %d", st.Iteration)
			return o.partialResult(runID, st, failures), err
		}

		var err error
		st, err = stage.Control(st)
		if err != nil {
			o.record(st, "control", err)
			return o.partialResult(runID, st, failures), err
		}
		if st.IsFinished {
			break
		}

		evidence := o.gatherEvidence(ctx, st)

		var batch []memory.EvaluatedConcept
		for _, v := range o.variants {
			evals, note, err := o.runVariantChain(ctx, st, v, evidence)
			if err != nil {
				return o.partialResult(runID, st, failures), err
			}
			if note != nil {
				failures = append(failures, *note)
				continue
			}
			for _, ev := range evals {
				if strings.TrimSpace(ev.IdeaName) == "" {
					log.Printf("[ORCH] dropping unnamed evaluation from variant %s", v.Name)
					continue
				}
				batch = append(batch, memory.EvaluatedConcept{
					Concept:   ev.IdeaName,
					Scores:    ev.CriterionScores(),
					Reasoning: ev.Reasoning,
					KeyPoints: ev.KeyPoints,
				})
			}
		}

		if _, err := o.mem.Ingest(st.Iteration, batch); err != nil {
			// Malformed judge payloads were already filtered by the
			// parser; an ingest error here means invalid input slipped
			// through a contract and is surfaced, not swallowed.
			o.record(st, "ingest", err)
			return o.partialResult(runID, st, failures), err
		}
		if err := o.mem.Persist(); err != nil {
			// Degrade to in-memory-only for this run.
			log.Printf("[ORCH] memory persist failed, continuing in-memory: %v", err)
			failures = append(failures, FailureNote{
				Iteration: st.Iteration,
				Stage:     "persist",
				Kind:      string(state.KindOf(err)),
				Detail:    err.Error(),
			})
		}

		st = st.WithIteration(st.Iteration + 1)
	}

	synthesis := stage.Synthesize(originalRequest, o.mem.Accepted(), failureLines(failures))
	log.Printf("[ORCH] run %s complete: %d accepted, %d rejected, %d recoverable failures",
		runID, len(o.mem.Accepted()), len(o.mem.Rejected()), len(failures))

	res := o.partialResult(runID, st, failures)
	res.Synthesis = synthesis
	return res, nil
}

// #endregion run

// #region variant-chain

// runVariantChain walks divergence -> refinement -> evaluation for one
// variant. A stage failure stops this chain only; the note describes it
// for diagnostics and the run moves to the next variant. An expired run
// context is checked before every stage and returned as a fatal error so
// the abort is never attributed to the stage that happened to be next.
func (o *Orchestrator) runVariantChain(ctx context.Context, st state.ExecutionState, v Variant, evidence string) ([]parser.Evaluation, *FailureNote, error) {
	vs := st.WithVariant(v.Name)

	if err := runAborted(ctx, vs); err != nil {
		return nil, nil, err
	}
	vs, err := stage.Divergence{Gen: v.Gen, Temp: v.HighTemp}.Run(ctx, vs, o.mem.ContextForNextIteration(), evidence)
	if err != nil {
		return nil, o.noteFailure(vs, "divergence", err), nil
	}
	o.record(vs, "divergence", nil)

	if err := runAborted(ctx, vs); err != nil {
		return nil, nil, err
	}
	vs, err = stage.Refinement{Gen: v.Gen, Temp: v.LowTemp}.Run(ctx, vs)
	if err != nil {
		return nil, o.noteFailure(vs, "refinement", err), nil
	}
	o.record(vs, "refinement", nil)

	if err := runAborted(ctx, vs); err != nil {
		return nil, nil, err
	}
	vs, evals, err := stage.Evaluation{Gen: v.Gen, Temp: v.JudgeTemp}.Run(ctx, vs)
	if err != nil {
		return nil, o.noteFailure(vs, "evaluation", err), nil
	}
	o.record(vs, "evaluation", nil)

	return evals, nil, nil
}

// runAborted maps an expired run context onto the fatal error taxonomy.
func runAborted(ctx context.Context, st state.ExecutionState) error {
	switch ctx.Err() {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return state.Errorf(state.KindTimeout, "run deadline exceeded at iteration %d, variant %s", st.Iteration, st.Variant)
	default:
		return state.Errorf(state.KindControl, "run canceled at iteration %d, variant %s", st.Iteration, st.Variant)
	}
}

func (o *Orchestrator) noteFailure(st state.ExecutionState, stageName string, err error) *FailureNote {
	log.Printf("[ORCH] %s failed variant=%s iter=%d: %v", stageName, st.Variant, st.Iteration, err)
	o.record(st, stageName, err)
	return &FailureNote{
		Iteration: st.Iteration,
		Variant:   st.Variant,
		Stage:     stageName,
		Kind:      string(state.KindOf(err)),
		Detail:    err.Error(),
	}
}

// #endregion variant-chain

// #region helpers

func (o *Orchestrator) gatherEvidence(ctx context.Context, st state.ExecutionState) string {
	if o.researcher == nil || len(o.cfg.ResearchURLs) == 0 {
		return ""
	}
	evidence, err := o.researcher.Gather(ctx, st.OriginalRequest, o.cfg.ResearchURLs)
	if err != nil {
		// Cache trouble falls back to running without evidence.
		log.Printf("[ORCH] research failed, continuing without evidence: %v", err)
		return ""
	}
	return evidence
}

// record writes a stage outcome to the run log when one is configured.
func (o *Orchestrator) record(st state.ExecutionState, stageName string, err error) {
	if o.logDB == nil {
		return
	}
	e := runlog.Entry{
		RunID:     st.RunID,
		Iteration: st.Iteration,
		Variant:   st.Variant,
		Stage:     stageName,
		Outcome:   "ok",
	}
	if err != nil {
		e.Outcome = "failed"
		e.ErrorKind = string(state.KindOf(err))
		e.Detail = err.Error()
	}
	if logErr := runlog.Record(o.logDB, e); logErr != nil {
		log.Printf("[ORCH] run log write failed: %v", logErr)
	}
}

func (o *Orchestrator) partialResult(runID string, st state.ExecutionState, failures []FailureNote) FinalResult {
	res := FinalResult{
		RunID:      runID,
		Iterations: st.Iteration,
		Accepted:   o.mem.Accepted(),
		Rejected:   o.mem.Rejected(),
		Failures:   failures,
	}
	if o.logDB != nil {
		if entries, err := runlog.ForRun(o.logDB, runID); err == nil {
			res.Log = entries
		}
	}
	return res
}

func failureLines(failures []FailureNote) []string {
	lines := make([]string, 0, len(failures))
	for _, f := range failures {
		lines = append(lines, fmt.Sprintf("iteration %d, variant %s, %s stage: [%s] %s",
			f.Iteration, f.Variant, f.Stage, f.Kind, f.Detail))
	}
	return lines
}

// #endregion helpers
