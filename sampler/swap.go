package sampler

import "github.com/tempermc/tempermc/diagnostics"

// swapKey identifies one adjacent-rung pair by its lower rung index.
type swapKey int

// swapAccumulator tallies accept/attempt counts for one pair, split by
// phase (spec §4.5).
type swapAccumulator struct {
	burnIn   diagnostics.AcceptCount
	sampling diagnostics.AcceptCount
}

// maybeSwap runs one round of adjacent-rung swap attempts, in fixed
// descending order from the top rung down, when coupling is enabled and
// there is more than one rung (spec §4.4 "Swap protocol").
//
// Detailed balance rationale (spec §4.4): acceptance uses the likelihood
// ratio alone, s = (beta_r - beta_{r-1})*(loglike_{r-1} - loglike_r); the
// prior and the Jacobian adjustment cancel because the transformed state
// being exchanged carries the same transform on both rungs (rungs differ
// only in beta, not in parameterisation). spec §9's open question is
// resolved in favor of the source's convention: prior terms are NOT
// folded into s.
//
// Complexity: O(R) loglike comparisons; no likelihood or prior re-evaluation.
func (d *Driver) maybeSwap(iteration int, phase Phase) {
	if !d.cfg.CouplingOn || len(d.particles) < 2 {
		return
	}

	for r := len(d.particles) - 1; r >= 1; r-- {
		hi := d.particles[r]
		lo := d.particles[r-1]

		stream := d.src.SwapStream(iteration, r-1)
		s := (hi.Beta - lo.Beta) * (lo.LogLike - hi.LogLike)
		accepted := stream.LogUniform() < s

		if accepted {
			hiState := hi.Snapshot()
			loState := lo.Snapshot()
			hi.Adopt(loState)
			lo.Adopt(hiState)
		}

		d.recordSwap(swapKey(r-1), phase, accepted)
	}
}

func (d *Driver) recordSwap(key swapKey, phase Phase, accepted bool) {
	acc, ok := d.swapStats[key]
	if !ok {
		acc = &swapAccumulator{}
		d.swapStats[key] = acc
	}
	var target *diagnostics.AcceptCount
	switch phase {
	case BurnIn:
		target = &acc.burnIn
	case Sampling:
		target = &acc.sampling
	}
	target.Attempted++
	if accepted {
		target.Accepted++
	}
}
