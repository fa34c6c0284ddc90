// Package particle implements one tempered Markov chain at a fixed inverse
// temperature and its one-sweep Metropolis update (spec §4.3).
//
// A Particle owns its state exclusively: theta, phi, cached log-likelihood
// and log-prior, and a *proposal.State. There is no shared mutable state
// and therefore no lock anywhere in this package (spec §5, §9 "no
// back-pointers between components"). The sweep is a method on Particle
// with one helper per proposal shape (stepUnivariate, stepBlock); every
// candidate passes the finite() guard before any coordinate is mutated. A
// sweep has no cancellation point of its own: the driver checks for
// cancellation between iterations.
package particle

import (
	"math"

	"github.com/tempermc/tempermc/prng"
	"github.com/tempermc/tempermc/proposal"
	"github.com/tempermc/tempermc/system"
	"github.com/tempermc/tempermc/transform"
)

// Particle is one rung of the tempered ensemble.
type Particle struct {
	params []system.ParamSpec
	data   system.Dataset
	like   system.LogLikelihood
	prior  system.LogPrior

	// Beta is beta_raised, i.e. ((r-1)/(R-1))^p already applied — the
	// ladder computes this once; the particle never recomputes it (this
	// mirrors Particle.h storing beta_raised directly rather than
	// recomputing from a stored r and p on every sweep).
	Beta float64

	Theta []float64
	Phi   []float64

	LogLike  float64
	LogPrior float64

	Prop *proposal.State
}

// New builds a Particle at inverse temperature beta, initialized at each
// parameter's Init value (spec §4.4 "each receives ... a copy of initial
// theta, and a fresh proposal state"). It returns a *transform.DomainError
// when some parameter's Init sits on (not strictly inside) its own bound:
// NewConfig only checks Init against the closed interval [Min, Max], so the
// open-interval violation ToPhi detects can only surface here.
func New(params []system.ParamSpec, data system.Dataset, like system.LogLikelihood, prior system.LogPrior, beta float64) (*Particle, error) {
	d := len(params)
	theta := make([]float64, d)
	phi := make([]float64, d)
	for i, p := range params {
		theta[i] = p.Init
		v, err := transform.ToPhi(p.Tag, p.Init, p.Min, p.Max)
		if err != nil {
			if de, ok := err.(*transform.DomainError); ok {
				de.Param = p.Name
			}
			return nil, err
		}
		phi[i] = v
	}
	pt := &Particle{
		params: params,
		data:   data,
		like:   like,
		prior:  prior,
		Beta:   beta,
		Theta:  theta,
		Phi:    phi,
		Prop:   proposal.NewState(d),
	}
	pt.LogLike = like(theta, data)
	pt.LogPrior = prior(theta)
	return pt, nil
}

// D returns the parameter dimension.
func (p *Particle) D() int { return len(p.params) }

// finite reports whether v can be used in the Metropolis comparison.
// Non-finite candidates are rejected immediately per spec §7 (NumericError
// / UserError: "absorbed by the Metropolis test via the non-finite =>
// reject rule; they must not mutate particle state").
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Sweep advances the particle by one full Metropolis sweep under method,
// drawing every random number needed from rng. bwUpdate enables Robbins-
// Monro scale adaptation for this sweep (with step exponent gamma). Sweep
// does not touch the running covariance; the driver calls RecordCovariance
// separately for that.
//
// Sweep never returns an error: a non-finite candidate is a local
// rejection (spec §7), not a failure of the sweep itself. The only error
// this package surfaces is transform.DomainError, and that can only
// originate from New's initial ToPhi call — a candidate theta' produced
// mid-sweep is always reached via ToTheta, which is total, so it can never
// violate its own domain.
//
// Complexity: O(d) for Univariate/BlockIsotropic, O(d^2) for
// BlockCorrelated (one triangular matrix-vector product).
func (p *Particle) Sweep(rng *prng.Stream, method proposal.Method, bwUpdate bool, gamma float64) {
	switch method {
	case proposal.Univariate:
		for i := range p.Theta {
			accepted := p.stepUnivariate(rng, i)
			p.Prop.RecordAttempt(i, accepted)
			if bwUpdate {
				proposal.AdaptScale(p.Prop, i, accepted, proposal.TargetAcceptUnivariate, gamma)
			}
		}
	case proposal.BlockIsotropic, proposal.BlockCorrelated:
		accepted := p.stepBlock(rng, method)
		p.Prop.RecordAttempt(0, accepted)
		if bwUpdate {
			proposal.AdaptScale(p.Prop, 0, accepted, proposal.TargetAcceptBlock, gamma)
		}
	}
}

// RecordCovariance folds the particle's current phi into its proposal
// state's running covariance and, every K steps, recomputes the Cholesky
// factor. Called by the driver once per iteration, after Sweep, only
// during burn-in phases with CovRecalc=true (spec §4.2: "update (mu,
// Sigma) by Welford's online algorithm over the accepted post-step phi").
func (p *Particle) RecordCovariance() {
	p.Prop.UpdateWelford(p.Phi)
	p.Prop.MaybeRecalcCholesky()
}

// stepUnivariate proposes and accepts/rejects a single coordinate i,
// mutating Theta/Phi/LogLike/LogPrior on acceptance. Returns whether the
// step was accepted.
func (p *Particle) stepUnivariate(rng *prng.Stream, i int) bool {
	spec := p.params[i]

	scratchPhi := append([]float64(nil), p.Phi...)
	p.Prop.ProposeUnivariate(scratchPhi, i, rng)

	thetaProp := transform.ToTheta(spec.Tag, scratchPhi[i], spec.Min, spec.Max)
	if !finite(thetaProp) {
		return false
	}

	scratchTheta := append([]float64(nil), p.Theta...)
	scratchTheta[i] = thetaProp

	ll := p.like(scratchTheta, p.data)
	lp := p.prior(scratchTheta)
	if !finite(ll) || !finite(lp) {
		return false
	}

	adj := transform.LogAdjustment(spec.Tag, p.Theta[i], thetaProp, spec.Min, spec.Max)
	r := p.Beta*(ll-p.LogLike) + (lp - p.LogPrior) + adj

	if rng.LogUniform() >= r {
		return false
	}

	p.Theta[i] = thetaProp
	p.Phi[i] = scratchPhi[i]
	p.LogLike = ll
	p.LogPrior = lp
	return true
}

// stepBlock proposes and accepts/rejects all coordinates jointly, mutating
// Theta/Phi/LogLike/LogPrior on acceptance. Returns whether the step was
// accepted.
func (p *Particle) stepBlock(rng *prng.Stream, method proposal.Method) bool {
	scratchPhi := append([]float64(nil), p.Phi...)
	switch method {
	case proposal.BlockIsotropic:
		p.Prop.ProposeBlockIsotropic(scratchPhi, rng)
	case proposal.BlockCorrelated:
		p.Prop.ProposeBlockCorrelated(scratchPhi, rng)
	}

	scratchTheta := make([]float64, len(p.params))
	for i, spec := range p.params {
		scratchTheta[i] = transform.ToTheta(spec.Tag, scratchPhi[i], spec.Min, spec.Max)
		if !finite(scratchTheta[i]) {
			return false
		}
	}

	ll := p.like(scratchTheta, p.data)
	lp := p.prior(scratchTheta)
	if !finite(ll) || !finite(lp) {
		return false
	}

	adj := 0.0
	for i, spec := range p.params {
		adj += transform.LogAdjustment(spec.Tag, p.Theta[i], scratchTheta[i], spec.Min, spec.Max)
	}
	r := p.Beta*(ll-p.LogLike) + (lp - p.LogPrior) + adj

	if rng.LogUniform() >= r {
		return false
	}

	copy(p.Theta, scratchTheta)
	copy(p.Phi, scratchPhi)
	p.LogLike = ll
	p.LogPrior = lp
	return true
}

// SwapCandidate exposes the (theta, phi, loglike, logprior) quadruple this
// particle would hand over in a swap, and the setter used to receive one.
// Beta and Prop never move (spec §4.4: "beta and proposal state stay with
// the rung, not the particle").
type SwapCandidate struct {
	Theta    []float64
	Phi      []float64
	LogLike  float64
	LogPrior float64
}

// Snapshot returns the particle's current swappable state without copying
// the slices (the caller — the swap protocol — takes ownership of
// exchanging them between two particles under its own control, never
// retaining two live references to the same backing array).
func (p *Particle) Snapshot() SwapCandidate {
	return SwapCandidate{Theta: p.Theta, Phi: p.Phi, LogLike: p.LogLike, LogPrior: p.LogPrior}
}

// Adopt installs c as this particle's current state (used after a swap
// acceptance exchanges state between two rungs).
func (p *Particle) Adopt(c SwapCandidate) {
	p.Theta = c.Theta
	p.Phi = c.Phi
	p.LogLike = c.LogLike
	p.LogPrior = c.LogPrior
}
