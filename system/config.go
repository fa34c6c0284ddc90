package system

import (
	"math"

	"github.com/tempermc/tempermc/proposal"
	"github.com/tempermc/tempermc/transform"
)

// ConfigInput is the raw, unvalidated configuration object of spec §6: the
// shape a host hands to NewConfig before any checking happens. Every field
// maps 1:1 to the spec's enumerated option list.
type ConfigInput struct {
	Data    []float64
	Params  []ParamInput
	BurnIn  []BurnInPhase
	Samples int
	Rungs   int
	CouplingOn bool
	GTIPow     float64
	Chain      int
	Seed       int64
	HasSeed    bool
}

// NewConfig validates input and, on success, returns an immutable Config.
// Validation is fail-fast, mirroring flow's validators: it returns the
// first ConfigError encountered, in field declaration order, so the host
// always sees one precise failure rather than a list.
//
// Checked invariants (spec §3, §6, §7):
//   - at least one parameter, and every parameter has Min < Max;
//   - every Init lies in [Min, Max];
//   - every BurnInPhase has Iterations > 0;
//   - Samples > 0;
//   - Rungs >= 1;
//   - GTIPow >= 1 (and not NaN).
//
// Params is the only per-parameter slice, so no cross-slice length check
// is made.
//
// Complexity: O(d + K) where d is the parameter count and K the number of
// burn-in phases.
func NewConfig(input ConfigInput) (*Config, error) {
	if len(input.Params) == 0 {
		return nil, configErrorf("params", "must supply at least one parameter")
	}

	params := make([]ParamSpec, len(input.Params))
	for i, p := range input.Params {
		if !(p.Min < p.Max) {
			return nil, configErrorf("params["+p.Name+"].min", "min (%g) must be < max (%g)", p.Min, p.Max)
		}
		if p.Init < p.Min || p.Init > p.Max {
			return nil, configErrorf("params["+p.Name+"].init", "init (%g) must lie in [%g, %g]", p.Init, p.Min, p.Max)
		}
		params[i] = ParamSpec{
			Name: p.Name,
			Min:  p.Min,
			Max:  p.Max,
			Init: p.Init,
			Tag:  transform.ClassifyTag(p.Min, p.Max),
		}
	}

	if len(input.BurnIn) == 0 {
		return nil, configErrorf("burnin", "must supply at least one burn-in phase")
	}
	for k, phase := range input.BurnIn {
		if phase.Iterations <= 0 {
			return nil, configErrorf("burnin", "phase %d: iterations must be positive, got %d", k, phase.Iterations)
		}
		switch phase.Method {
		case proposal.Univariate, proposal.BlockIsotropic, proposal.BlockCorrelated:
		default:
			return nil, configErrorf("burnin", "phase %d: unknown proposal method %v", k, phase.Method)
		}
	}

	if input.Samples <= 0 {
		return nil, configErrorf("samples", "must be positive, got %d", input.Samples)
	}
	if input.Rungs < 1 {
		return nil, configErrorf("rungs", "must be >= 1, got %d", input.Rungs)
	}
	if input.GTIPow < 1 || math.IsNaN(input.GTIPow) {
		return nil, configErrorf("GTI_pow", "must be >= 1, got %g", input.GTIPow)
	}

	return &Config{
		Data:       NewDataset(input.Data),
		Params:     params,
		BurnIn:     input.BurnIn,
		Samples:    input.Samples,
		Ladder:     NewLadder(input.Rungs, input.GTIPow),
		CouplingOn: input.CouplingOn && input.Rungs > 1,
		Chain:      input.Chain,
		Seed:       input.Seed,
		HasSeed:    input.HasSeed,
	}, nil
}

// EffectiveSeed resolves the seed to use for this run's prng.Source: the
// explicit Seed when HasSeed is true, otherwise a value derived from Chain
// so that independent chains in a multi-chain run (an external collaborator
// per spec §1) get distinct, still-deterministic streams without the host
// having to manage per-chain seeds itself.
func (c *Config) EffectiveSeed() int64 {
	if c.HasSeed {
		return c.Seed
	}
	return int64(c.Chain)*2654435761 + 1
}
