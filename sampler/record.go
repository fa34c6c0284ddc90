package sampler

// Phase tags a trace record with which part of the run produced it (spec
// §3 "Trace record").
type Phase string

const (
	// BurnIn tags records emitted while a burn-in phase is running.
	BurnIn Phase = "burnin"
	// Sampling tags records emitted during the sampling phase.
	Sampling Phase = "sampling"
)

// Record is one recorded iteration for one rung (spec §3 "Trace record").
type Record struct {
	Rung      int
	Phase     Phase
	Iteration int
	Theta     []float64
	LogPrior  float64
	LogLike   float64
}
