// Package sampler is the run driver: it owns the ordered ensemble of
// particles across the temperature ladder, runs the burn-in phase state
// machine and the sampling phase, executes swap attempts between adjacent
// rungs, and assembles the Output object (spec §4.4, §6).
//
// Progress reporting, cancellation, and parallel rung updates are the
// three "ambient" concerns layered onto the core control-flow loop of
// spec §4.4 (update-all -> swap-all -> record):
//
//   - Progress reporting goes through an optional *slog.Logger, grounded
//     in the key-value structured-logging idiom of
//     haricheung-agentic-shell__memory.go; a nil Logger is silent, the
//     same opt-out shape as mrrlab-godon's MH.Quiet.
//   - Cancellation is a context.Context checked once per iteration, at
//     the same granularity algorithms.BFS checks ctx.Err() before each
//     dequeue.
//   - Parallel rung updates are a sync.WaitGroup fan-out, one goroutine
//     per particle, each given its own prng.Stream — generalized from
//     core.concurrency_test.go's "many goroutines, one shared locked
//     Graph" to "many goroutines, each its own unlocked particle", since
//     particles share no mutable state (spec §5, §9).
package sampler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tempermc/tempermc/particle"
	"github.com/tempermc/tempermc/prng"
	"github.com/tempermc/tempermc/proposal"
	"github.com/tempermc/tempermc/system"
)

// Option configures a Driver before Run. Functional options, the same
// shape as core.GraphOption: applied in order, later overrides earlier.
type Option func(*Driver)

// WithLogger attaches a structured logger. One Info record is emitted per
// completed burn-in phase and the start of sampling; nil (the default)
// means silent.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

// WithRMGamma overrides the Robbins-Monro step exponent (spec §4.2 default
// suggestion 0.8). Values outside (0.5, 1] are accepted without
// validation here; system.NewConfig is the validation boundary for
// everything host-supplied, and this is a tuning knob, not part of the
// enumerated configuration object of spec §6.
func WithRMGamma(gamma float64) Option {
	return func(d *Driver) { d.gamma = gamma }
}

// WithRecordAllRungs makes Run record every rung's state every recorded
// iteration, instead of only the cold rung (beta=1). Diagnostics are
// always computed from the cold rung regardless of this setting (spec
// §4.5 "estimated from the cold-rung trace").
func WithRecordAllRungs(v bool) Option {
	return func(d *Driver) { d.recordAllRungs = v }
}

// WithParallelRungs enables evaluating particle sweeps across rungs
// concurrently (spec §5 "independent across the ladder ... may be
// evaluated in parallel"). Disabled by default: for typical rung counts
// the goroutine fan-out overhead outweighs the benefit unless the user's
// log-likelihood is itself expensive, so the caller opts in.
func WithParallelRungs(v bool) Option {
	return func(d *Driver) { d.parallel = v }
}

// Driver runs one sampler chain to completion (spec §4.4).
type Driver struct {
	cfg   *system.Config
	like  system.LogLikelihood
	prior system.LogPrior

	particles []*particle.Particle
	src       *prng.Source

	logger         *slog.Logger
	gamma          float64
	recordAllRungs bool
	parallel       bool

	lastMethod proposal.Method

	swapStats map[swapKey]*swapAccumulator
}

// New builds a Driver for cfg, constructing one particle per rung of
// cfg.Ladder, each initialized at the parameters' Init values (spec §4.4
// "Initialisation"). It returns a *transform.DomainError if some parameter's
// Init sits exactly on one of its own bounds.
func New(cfg *system.Config, like system.LogLikelihood, prior system.LogPrior, opts ...Option) (*Driver, error) {
	rungs := cfg.Ladder.Rungs()
	particles := make([]*particle.Particle, rungs)
	for r := 0; r < rungs; r++ {
		p, err := particle.New(cfg.Params, cfg.Data, like, prior, cfg.Ladder.Beta[r])
		if err != nil {
			return nil, err
		}
		particles[r] = p
	}

	d := &Driver{
		cfg:       cfg,
		like:      like,
		prior:     prior,
		particles: particles,
		src:       prng.NewSource(cfg.EffectiveSeed()),
		gamma:     proposal.DefaultGamma,
		swapStats: make(map[swapKey]*swapAccumulator),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run executes the full burn-in phase sequence followed by the sampling
// phase, honoring ctx for cooperative cancellation at each iteration
// boundary (spec §5 "Cancellation"). On cancellation, Run returns the
// partial Output built so far and a nil error, per spec §7's
// "CancelRequested ... not an error to the caller."
//
// Complexity: O((sum of burnin[k] + samples) * (D + R)) dominated by the
// user's log-likelihood/log-prior calls.
func (d *Driver) Run(ctx context.Context) (*Output, error) {
	var trace []Record
	iteration := 0

	for k, phase := range d.cfg.BurnIn {
		d.beginPhase(phase)
		for i := 0; i < phase.Iterations; i++ {
			if ctx.Err() != nil {
				return d.finish(trace), nil
			}
			d.stepAll(iteration, phase.Method, phase.BWUpdate, phase.CovRecalc)
			d.maybeSwap(iteration, BurnIn)
			trace = append(trace, d.recordIteration(iteration, BurnIn)...)
			iteration++
		}
		d.lastMethod = phase.Method
		d.logPhaseDone(k, phase)
	}

	if d.logger != nil {
		d.logger.Info("sampling started", "chain", d.cfg.Chain, "samples", d.cfg.Samples)
	}
	for i := 0; i < d.cfg.Samples; i++ {
		if ctx.Err() != nil {
			return d.finish(trace), nil
		}
		d.stepAll(iteration, d.lastMethod, false, false)
		d.maybeSwap(iteration, Sampling)
		trace = append(trace, d.recordIteration(iteration, Sampling)...)
		iteration++
	}

	return d.finish(trace), nil
}

// beginPhase applies the BWReset / CovRecalc reset rules at the start of
// a burn-in phase (spec §4.2: "when the phase begins and bw_reset=true,
// reset sigma ... covariance (mu, Sigma) are reset when the phase begins
// and cov_recalc=true is toggled on").
func (d *Driver) beginPhase(phase system.BurnInPhase) {
	for _, p := range d.particles {
		if phase.BWReset {
			p.Prop.ResetScale()
		}
		if phase.CovRecalc {
			p.Prop.ResetCovariance()
		}
	}
}

// stepAll advances every particle by one sweep under method, sequentially
// or across goroutines depending on d.parallel. Each particle is given its
// own prng.Stream keyed by (iteration, rung), so the result is identical
// either way (spec §4.4 "Determinism").
func (d *Driver) stepAll(iteration int, method proposal.Method, bwUpdate, covRecalc bool) {
	if !d.parallel {
		for r, p := range d.particles {
			stream := d.src.Stream(iteration, r)
			p.Sweep(stream, method, bwUpdate, d.gamma)
			if covRecalc {
				p.RecordCovariance()
			}
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(d.particles))
	for r, p := range d.particles {
		r, p := r, p
		stream := d.src.Stream(iteration, r)
		go func() {
			defer wg.Done()
			p.Sweep(stream, method, bwUpdate, d.gamma)
			if covRecalc {
				p.RecordCovariance()
			}
		}()
	}
	wg.Wait()
}

func (d *Driver) logPhaseDone(index int, phase system.BurnInPhase) {
	if d.logger == nil {
		return
	}
	d.logger.Info("burn-in phase complete",
		"chain", d.cfg.Chain,
		"phase", index,
		"method", phase.Method.String(),
		"iterations", phase.Iterations,
	)
}

func (d *Driver) finish(trace []Record) *Output {
	return &Output{
		Trace:       trace,
		Diagnostics: d.diagnosticsFrom(trace),
		Config:      d.cfg,
	}
}
