package particle_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tempermc/tempermc/particle"
	"github.com/tempermc/tempermc/prng"
	"github.com/tempermc/tempermc/proposal"
	"github.com/tempermc/tempermc/system"
	"github.com/tempermc/tempermc/transform"
)

func quadraticModel() (system.LogLikelihood, system.LogPrior) {
	like := func(theta []float64, data system.Dataset) float64 {
		sum := 0.0
		for i := 0; i < data.Len(); i++ {
			diff := data.At(i) - theta[0]
			sum += diff * diff
		}
		return -0.5 * sum
	}
	prior := func(theta []float64) float64 { return 0 }
	return like, prior
}

func singleParam(min, max, init float64) []system.ParamSpec {
	return []system.ParamSpec{{Name: "x", Min: min, Max: max, Init: init, Tag: transform.ClassifyTag(min, max)}}
}

func TestNewInitializesFiniteState(t *testing.T) {
	like, prior := quadraticModel()
	data := system.NewDataset([]float64{1, 2, 3})

	p, err := particle.New(singleParam(-10, 10, 0), data, like, prior, 1)
	require.NoError(t, err)
	require.True(t, !math.IsNaN(p.LogLike) && !math.IsInf(p.LogLike, 0))
	require.True(t, !math.IsNaN(p.LogPrior) && !math.IsInf(p.LogPrior, 0))
}

func TestNewRejectsInitOnBoundary(t *testing.T) {
	like, prior := quadraticModel()
	data := system.NewDataset([]float64{1})

	_, err := particle.New(singleParam(0, 10, 0), data, like, prior, 1)
	require.Error(t, err)

	var domainErr *transform.DomainError
	require.ErrorAs(t, err, &domainErr)
}

func TestSweepKeepsStateFinite(t *testing.T) {
	like, prior := quadraticModel()
	data := system.NewDataset([]float64{1, 2, 3, 4, 5})

	p, err := particle.New(singleParam(-100, 100, 0), data, like, prior, 1)
	require.NoError(t, err)

	rng := prng.NewSource(1).Stream(0, 0)
	for i := 0; i < 200; i++ {
		p.Sweep(rng, proposal.Univariate, true, proposal.DefaultGamma)
		require.False(t, math.IsNaN(p.Theta[0]))
		require.False(t, math.IsInf(p.Theta[0], 0))
		require.False(t, math.IsNaN(p.LogLike))
	}
}

func TestSnapshotAdoptSwapsState(t *testing.T) {
	like, prior := quadraticModel()
	data := system.NewDataset([]float64{1, 2, 3})

	a, err := particle.New(singleParam(-10, 10, 0), data, like, prior, 1)
	require.NoError(t, err)
	b, err := particle.New(singleParam(-10, 10, 0), data, like, prior, 0.5)
	require.NoError(t, err)

	rng := prng.NewSource(5).Stream(0, 0)
	a.Sweep(rng, proposal.Univariate, false, proposal.DefaultGamma)

	aBefore := a.Snapshot()
	bBefore := b.Snapshot()

	a.Adopt(bBefore)
	b.Adopt(aBefore)

	require.Equal(t, bBefore.LogLike, a.LogLike)
	require.Equal(t, aBefore.LogLike, b.LogLike)
	// Beta never moves with a swap: each particle keeps its own rung identity.
	require.Equal(t, 1.0, a.Beta)
	require.Equal(t, 0.5, b.Beta)
}

func TestBlockIsotropicSweepStaysFiniteForD1(t *testing.T) {
	like, prior := quadraticModel()
	data := system.NewDataset([]float64{1, 2, 3})

	p, err := particle.New(singleParam(-10, 10, 0), data, like, prior, 1)
	require.NoError(t, err)

	rng := prng.NewSource(9).Stream(0, 0)
	for i := 0; i < 50; i++ {
		p.Sweep(rng, proposal.BlockIsotropic, true, proposal.DefaultGamma)
		require.False(t, math.IsNaN(p.Theta[0]))
	}
}
