// Package tempermc is a parallel-tempering Metropolis-Hastings sampler for
// Bayesian inference over a small number of continuous parameters.
//
// 🚀 What does it do?
//
//	A deterministic, dependency-injected MCMC engine that brings together:
//		• An unconstrained reparameterisation for bounded/semi-bounded
//		  parameters, with the Jacobian adjustment the Metropolis test needs
//		  to stay detailed-balanced on the transformed coordinate.
//		• An adaptive proposal (Robbins-Monro scale, Welford covariance,
//		  Cholesky-correlated block draws) shared across a ladder of tempered
//		  chains.
//		• A swap protocol between adjacent rungs, counter-based sub-stream
//		  PRNG derivation so results are reproducible regardless of how many
//		  goroutines update rungs concurrently, and convergence diagnostics
//		  (effective sample size, Gelman-Rubin R-hat, swap acceptance).
//
// ✨ Why this shape?
//
//   - Host-supplied likelihood/prior — the sampler has no notion of any
//     particular model; system.LogLikelihood and system.LogPrior are plain
//     functions.
//   - Pure Go — gonum for the one linear-algebra primitive that needs a
//     reliable success signal (Cholesky), nothing else.
//   - Deterministic — same seed, same (iteration, rung) keys, same bits,
//     whether rungs run sequentially or in parallel goroutines.
//
// Under the hood, everything is organized under seven subpackages:
//
//	transform/  — θ↔φ reparameterisation and its Jacobian adjustment
//	prng/       — seedable, counter-keyed sub-streams
//	proposal/   — adaptive scale, running covariance, Cholesky, draw strategies
//	system/     — validated configuration, dataset, temperature ladder
//	particle/   — one tempered chain and its Metropolis sweep
//	diagnostics/— ESS, autocorrelation, R-hat, swap acceptance
//	sampler/    — the run driver: burn-in, sampling, swaps, Output
//
// See sampler/sampler_test.go for end-to-end usage, and SPEC_FULL.md /
// DESIGN.md for the full design rationale.
package tempermc
