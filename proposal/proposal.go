// Package proposal maintains the per-parameter proposal scale, the running
// empirical covariance of the unconstrained coordinate phi, and the
// Cholesky factor derived from it, and produces proposal vectors under one
// of three strategies (spec §4.2).
//
// The running-covariance update is Welford's online algorithm, generalized
// from matrix.impl_statistics.go's batch Covariance (which accumulates a
// single sum-of-products pass over a whole Dense matrix) to the streaming
// case: phi arrives one sample at a time during burn-in, so the mean and
// the sum-of-squares must be updated incrementally rather than recomputed
// from scratch on every sweep.
//
// Cholesky factorization goes through gonum.org/v1/gonum/mat.Cholesky
// instead of a hand-rolled decomposition (contrast with the teacher's own
// matrix/ops/{lu,eigen}.go, which are from-scratch): the adaptive proposal
// needs a reliable "did this succeed" boolean to drive the fallback-to-
// isotropic policy of spec §9, and gonum.Cholesky.Factorize returns exactly
// that.
package proposal

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/tempermc/tempermc/prng"
)

// Method selects a proposal strategy. The three variants are a sum type,
// dispatched by an exhaustive switch everywhere they're consumed (spec §9
// "Tagged variants").
type Method int

const (
	// Univariate proposes one coordinate at a time (spec §4.2 method u).
	Univariate Method = iota
	// BlockIsotropic proposes all coordinates jointly with a single shared
	// scale and an identity covariance (spec §4.2 method b).
	BlockIsotropic
	// BlockCorrelated proposes all coordinates jointly using the Cholesky
	// factor of the running empirical covariance (spec §4.2 method c).
	BlockCorrelated
)

func (m Method) String() string {
	switch m {
	case Univariate:
		return "univariate"
	case BlockIsotropic:
		return "block_isotropic"
	case BlockCorrelated:
		return "block_correlated"
	default:
		return "unknown"
	}
}

// Default tunables for Robbins-Monro scale adaptation (spec §4.2).
const (
	// InitScale is the starting proposal scale: exp(sigma)=0.1 for every
	// coordinate and for the shared block scale.
	InitScale = 0.1

	// TargetAcceptUnivariate is alpha* for method u.
	TargetAcceptUnivariate = 0.44
	// TargetAcceptBlock is alpha* for methods b and c.
	TargetAcceptBlock = 0.234

	// DefaultGamma is the Robbins-Monro step exponent, gamma in (0.5, 1].
	DefaultGamma = 0.8

	// minCovRecalcInterval is the implementation-defined lower bound on K,
	// the number of accumulated steps between Cholesky recomputations
	// (spec §4.2: "K = d*5, implementation-defined lower bound 20").
	minCovRecalcInterval = 20

	// jitterFraction scales trace(Sigma)/d to produce the Cholesky jitter
	// epsilon (spec §4.2).
	jitterFraction = 1e-8
)

// RecalcInterval returns K = max(d*5, 20), the number of accumulated steps
// between Cholesky recomputations.
func RecalcInterval(d int) int {
	k := d * 5
	if k < minCovRecalcInterval {
		return minCovRecalcInterval
	}
	return k
}

// State holds all adaptive proposal machinery for one particle: per-
// parameter log-scales, the running mean/covariance of phi, the current
// Cholesky factor, and accept/attempt counters. One State belongs to
// exactly one particle; nothing here is shared, so nothing here is locked
// (spec §5 "each particle owns its mutable state exclusively").
type State struct {
	d int

	// LogScale holds sigma_i for the univariate method (len d) and a
	// single shared sigma_bar in LogScale[0] for the block methods.
	LogScale []float64

	mean   []float64   // running mean of phi, Welford
	cov    *mat.SymDense // running covariance of phi, Welford
	chol   *mat.Cholesky
	cholOK bool // false after a failed Factorize; callers fall back to isotropic

	n int // Welford sample count, reset whenever CovRecalc phase begins

	// acceptCount/attemptCount are per-coordinate for Univariate, and
	// acceptCount[0]/attemptCount[0] for the block methods.
	acceptCount  []int64
	attemptCount []int64

	stepCount []int64 // Robbins-Monro step counter n_i, per coordinate (or [0] for block)
}

// NewState allocates proposal state for a d-dimensional parameter vector.
// LogScale is initialized so exp(sigma)=InitScale for every coordinate.
func NewState(d int) *State {
	s := &State{
		d:            d,
		LogScale:     make([]float64, d),
		mean:         make([]float64, d),
		cov:          mat.NewSymDense(d, nil),
		acceptCount:  make([]int64, d),
		attemptCount: make([]int64, d),
		stepCount:    make([]int64, d),
	}
	s.ResetScale()
	return s
}

// ResetScale resets every log-scale to log(InitScale), per the BWReset flag
// of spec §4.2.
func (s *State) ResetScale() {
	init := math.Log(InitScale)
	for i := range s.LogScale {
		s.LogScale[i] = init
	}
}

// ResetCovariance zeroes the running mean/covariance and the Welford
// sample counter, per the CovRecalc flag of spec §4.2.
func (s *State) ResetCovariance() {
	for i := range s.mean {
		s.mean[i] = 0
	}
	s.cov = mat.NewSymDense(s.d, nil)
	s.chol = nil
	s.cholOK = false
	s.n = 0
}

// AcceptRate returns the per-coordinate acceptance rate (for Univariate)
// or the single shared rate (index 0, for block methods).
func (s *State) AcceptRate(i int) float64 {
	if s.attemptCount[i] == 0 {
		return 0
	}
	return float64(s.acceptCount[i]) / float64(s.attemptCount[i])
}

// ProposeUnivariate draws phi'_i = phi_i + exp(sigma_i)*Z, Z~N(0,1), for a
// single coordinate i, leaving every other coordinate of out unchanged.
// out must already contain a copy of the current phi.
//
// Complexity: O(1).
func (s *State) ProposeUnivariate(out []float64, i int, rng *prng.Stream) {
	out[i] += math.Exp(s.LogScale[i]) * rng.Normal()
}

// ProposeBlockIsotropic draws phi' = phi + exp(sigmaBar)*Z, Z~N(0,I_d).
// out must already contain a copy of the current phi.
//
// Complexity: O(d).
func (s *State) ProposeBlockIsotropic(out []float64, rng *prng.Stream) {
	scale := math.Exp(s.LogScale[0])
	for i := range out {
		out[i] += scale * rng.Normal()
	}
}

// ProposeBlockCorrelated draws phi' = phi + exp(sigmaBar)*C*Z, Z~N(0,I_d),
// where C is the current Cholesky factor. If the factor is unavailable
// (never computed, or the last Factorize failed), it falls back to
// ProposeBlockIsotropic for this sweep and continues rather than aborting
// (spec §9 "Cholesky failure").
//
// Complexity: O(d^2) (triangular matrix-vector product).
func (s *State) ProposeBlockCorrelated(out []float64, rng *prng.Stream) {
	if !s.cholOK || s.chol == nil {
		s.ProposeBlockIsotropic(out, rng)
		return
	}

	z := mat.NewVecDense(s.d, nil)
	for i := 0; i < s.d; i++ {
		z.SetVec(i, rng.Normal())
	}

	var l mat.TriDense
	s.chol.LTo(&l)

	cz := mat.NewVecDense(s.d, nil)
	cz.MulVec(&l, z)

	scale := math.Exp(s.LogScale[0])
	for i := 0; i < s.d; i++ {
		out[i] += scale * cz.AtVec(i)
	}
}

// UpdateWelford folds one more sample of phi into the running mean and
// covariance via Welford's online algorithm. Called once per burn-in step
// that has CovRecalc=true, with the post-step phi (phi' if the step was
// accepted, phi unchanged otherwise), per spec §4.2.
//
// Complexity: O(d^2).
func (s *State) UpdateWelford(phi []float64) {
	s.n++
	n := float64(s.n)
	delta := make([]float64, s.d)
	for i := 0; i < s.d; i++ {
		delta[i] = phi[i] - s.mean[i]
		s.mean[i] += delta[i] / n
	}
	for i := 0; i < s.d; i++ {
		for j := i; j < s.d; j++ {
			dj := phi[j] - s.mean[j]
			v := s.cov.At(i, j)*float64(s.n-1) + delta[i]*dj
			s.cov.SetSym(i, j, v/n)
		}
	}
}

// MaybeRecalcCholesky recomputes the Cholesky factor of Sigma + eps*I once
// s.n has accumulated at least K = RecalcInterval(d) new samples since the
// last recomputation. eps is jitterFraction*trace(Sigma)/d, per spec §4.2.
// On factorization failure, cholOK is cleared and callers transparently
// fall back to block-isotropic proposals until the next successful
// recomputation (spec §9 "Cholesky failure: ... fall back to
// block-isotropic for that iteration and continue; do not abort").
//
// Complexity: O(d^3).
func (s *State) MaybeRecalcCholesky() {
	k := RecalcInterval(s.d)
	if s.n == 0 || s.n%k != 0 {
		return
	}
	s.recalcCholesky()
}

func (s *State) recalcCholesky() {
	trace := 0.0
	for i := 0; i < s.d; i++ {
		trace += s.cov.At(i, i)
	}
	eps := jitterFraction * trace / float64(s.d)

	jittered := mat.NewSymDense(s.d, nil)
	for i := 0; i < s.d; i++ {
		for j := i; j < s.d; j++ {
			v := s.cov.At(i, j)
			if i == j {
				v += eps
			}
			jittered.SetSym(i, j, v)
		}
	}

	chol := new(mat.Cholesky)
	ok := chol.Factorize(jittered)
	s.cholOK = ok
	if ok {
		s.chol = chol
	}
}

// AdaptScale performs one Robbins-Monro update step for coordinate i (or
// index 0 for block methods): sigma_i += (accepted - target) / n_i^gamma,
// where n_i is the post-increment step counter (spec §4.2).
//
// Complexity: O(1).
func AdaptScale(s *State, i int, accepted bool, target, gamma float64) {
	s.stepCount[i]++
	a := 0.0
	if accepted {
		a = 1.0
	}
	n := float64(s.stepCount[i])
	s.LogScale[i] += (a - target) / math.Pow(n, gamma)
}

// RecordAttempt increments the attempt counter for coordinate i (or index
// 0 for block methods), and the accept counter as well when accepted.
func (s *State) RecordAttempt(i int, accepted bool) {
	s.attemptCount[i]++
	if accepted {
		s.acceptCount[i]++
	}
}
