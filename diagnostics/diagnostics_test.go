package diagnostics_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tempermc/tempermc/diagnostics"
)

func TestAutocorrelationLagZeroIsOne(t *testing.T) {
	rho := diagnostics.Autocorrelation([]float64{1, 2, 3, 4, 5, 4, 3, 2, 1}, 3)
	require.Equal(t, 1.0, rho[0])
}

func TestAutocorrelationConstantSeriesHasNoVariance(t *testing.T) {
	rho := diagnostics.Autocorrelation([]float64{5, 5, 5, 5, 5}, 2)
	require.Equal(t, 1.0, rho[0])
	require.Equal(t, 0.0, rho[1])
}

func TestEffectiveSampleSizeAlternatingSeriesIsBounded(t *testing.T) {
	// A strictly alternating sequence has large negative lag-1
	// autocorrelation and should not report more ESS than twice n.
	x := make([]float64, 1000)
	for i := range x {
		if i%2 == 0 {
			x[i] = 1
		} else {
			x[i] = -1
		}
	}
	ess := diagnostics.EffectiveSampleSize(x, 50)
	require.GreaterOrEqual(t, ess, 0.0)
	require.LessOrEqual(t, ess, 2.0*float64(len(x)))
}

func TestEffectiveSampleSizeEmptySeries(t *testing.T) {
	require.Equal(t, 0.0, diagnostics.EffectiveSampleSize(nil, 10))
}

func TestRhatSingleChainIsOne(t *testing.T) {
	require.Equal(t, 1.0, diagnostics.Rhat([][]float64{{1, 2, 3}}))
}

func TestRhatIdenticalChainsIsNearOne(t *testing.T) {
	chain := []float64{1, 2, 3, 4, 5, 4, 3, 2, 1, 2, 3, 4}
	r := diagnostics.Rhat([][]float64{chain, chain, chain})
	require.InDelta(t, 1.0, r, 0.2)
}

func TestRhatDivergentChainsExceedsOne(t *testing.T) {
	a := []float64{9, 11, 9, 11, 9, 11}
	b := []float64{-9, -11, -9, -11, -9, -11}
	r := diagnostics.Rhat([][]float64{a, b})
	require.Greater(t, r, 1.0)
}

func TestAcceptCountRateHandlesZeroAttempts(t *testing.T) {
	var c diagnostics.AcceptCount
	require.Equal(t, 0.0, c.Rate())

	c.Attempted = 4
	c.Accepted = 1
	require.InDelta(t, 0.25, c.Rate(), 1e-12)
}
