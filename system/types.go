package system

import (
	"math"

	"github.com/tempermc/tempermc/proposal"
	"github.com/tempermc/tempermc/transform"
)

// ParamSpec describes one model parameter. It is immutable once built by
// NewConfig: Tag is derived from Min/Max at construction time and never
// recomputed.
type ParamSpec struct {
	Name string
	Min  float64
	Max  float64
	Init float64
	Tag  transform.Tag
}

// ParamInput is the host-supplied shape for one parameter, before bound
// validation and tag classification (spec §6 "params").
type ParamInput struct {
	Name string
	Min  float64
	Max  float64
	Init float64
}

// Dataset is an immutable, ordered sequence of observations, shared
// read-only by every particle. It wraps a []float64 instead of exposing
// one directly so that the slice can never be mutated through an aliased
// reference handed to a particle (mirrors core.Vertex.Metadata's "shared on
// shallow clones" contract, but stricter: no writer exists at all).
type Dataset struct {
	x []float64
}

// NewDataset copies x so the caller's slice can be mutated freely
// afterwards without affecting the Dataset.
//
// Complexity: O(n).
func NewDataset(x []float64) Dataset {
	cp := make([]float64, len(x))
	copy(cp, x)
	return Dataset{x: cp}
}

// Len returns the number of observations.
func (d Dataset) Len() int { return len(d.x) }

// At returns the i-th observation.
func (d Dataset) At(i int) float64 { return d.x[i] }

// Slice returns a read-only view of the underlying data. Callers must not
// mutate the returned slice.
func (d Dataset) Slice() []float64 { return d.x }

// BurnInPhase is one entry of the burn-in state machine (spec §4.4, §9):
// a fixed number of iterations run under one proposal method, with three
// independent flags controlling adaptation. Phases are a literal array of
// structs, not global toggles, mirroring builder.builderConfig's "single
// source of truth, no globals" discipline.
type BurnInPhase struct {
	// Iterations is the number of sweeps this phase runs.
	Iterations int
	// Method selects the proposal strategy for every sweep in this phase.
	Method proposal.Method
	// BWUpdate enables Robbins-Monro scale adaptation during this phase.
	BWUpdate bool
	// BWReset resets sigma to its initial value when this phase begins.
	BWReset bool
	// CovRecalc enables Welford covariance accumulation during this phase,
	// and resets (mu, Sigma) when the phase begins.
	CovRecalc bool
}

// Config is the fully validated, immutable configuration for one sampler
// run (spec §6). Construct with NewConfig, which validates; the fields are
// exported, and nothing in this module writes them after construction.
type Config struct {
	Data    Dataset
	Params  []ParamSpec
	BurnIn  []BurnInPhase
	Samples int
	Ladder  Ladder
	// CouplingOn enables swap attempts between adjacent rungs. Ignored
	// (treated as false) when there is only one rung.
	CouplingOn bool
	Chain      int
	Seed       int64
	// HasSeed distinguishes an explicit seed of 0 from "no seed supplied";
	// when false, Chain is folded into a derived seed instead.
	HasSeed bool
}

// D returns the number of parameters.
func (c *Config) D() int { return len(c.Params) }

// Ladder is the ordered sequence of inverse temperatures βᵣ = ((r-1)/(R-1))^p,
// r = 1..R (spec §3). R=1 degenerates to a single cold rung (β=1) and
// disables coupling regardless of the CouplingOn flag.
type Ladder struct {
	Beta []float64
	Pow  float64
}

// NewLadder computes the R-rung ladder for concentration exponent p.
//
// Invariant: Beta is non-decreasing, Beta[0]==0 (for R>1) and
// Beta[R-1]==1. When R==1, Beta is []float64{1} (a single cold rung; the
// "prior-only" endpoint has nothing to pair with, so the lone rung is
// defined to be the posterior rung per spec §3's R=1 boundary behavior).
//
// Complexity: O(R).
func NewLadder(rungs int, pow float64) Ladder {
	if rungs <= 1 {
		return Ladder{Beta: []float64{1}, Pow: pow}
	}
	beta := make([]float64, rungs)
	denom := float64(rungs - 1)
	for r := 0; r < rungs; r++ {
		beta[r] = math.Pow(float64(r)/denom, pow)
	}
	beta[rungs-1] = 1 // guard against pow-induced rounding at the cold end
	return Ladder{Beta: beta, Pow: pow}
}

// Rungs returns the number of rungs in the ladder.
func (l Ladder) Rungs() int { return len(l.Beta) }
