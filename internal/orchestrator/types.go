package orchestrator

import (
	"time"

	"github.com/danielpatrickdp/creativity-controller/internal/llm"
	"github.com/danielpatrickdp/creativity-controller/internal/memory"
	"github.com/danielpatrickdp/creativity-controller/internal/runlog"
)

// #region variant
// Variant is one configured model/temperature pairing. Each iteration it
// runs its own divergence -> refinement -> evaluation chain, in the
// order variants were configured.
type Variant struct {
	Name      string
	Gen       llm.Generator
	HighTemp  float32
	LowTemp   float32
	JudgeTemp float32
}
// #endregion variant

// #region config
// Config bounds the run.
type Config struct {
	MaxIterations   int
	AcceptThreshold float64
	RunTimeout      time.Duration // zero means unlimited
	ResearchURLs    []string      // optional background sources per iteration
}
// #endregion config

// #region failure-note
// FailureNote is one recoverable failure surfaced in the final report.
type FailureNote struct {
	Iteration int
	Variant   string
	Stage     string
	Kind      string
	Detail    string
}
// #endregion failure-note

// #region final-result
// FinalResult is the outcome of a run. On the fatal path Synthesis is
// empty and the partial fields describe how far the run got.
type FinalResult struct {
	RunID      string
	Iterations int
	Synthesis  string
	Accepted   []memory.IdeaRecord
	Rejected   []memory.IdeaRecord
	Failures   []FailureNote
	Log        []runlog.Entry
}
// #endregion final-result
