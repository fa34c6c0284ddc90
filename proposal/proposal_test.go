package proposal_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tempermc/tempermc/prng"
	"github.com/tempermc/tempermc/proposal"
)

func TestNewStateInitialScale(t *testing.T) {
	s := proposal.NewState(3)
	for i := 0; i < 3; i++ {
		require.InDelta(t, math.Log(proposal.InitScale), s.LogScale[i], 1e-12)
	}
}

func TestResetScale(t *testing.T) {
	s := proposal.NewState(2)
	s.LogScale[0] = 5
	s.LogScale[1] = -5
	s.ResetScale()
	require.InDelta(t, math.Log(proposal.InitScale), s.LogScale[0], 1e-12)
	require.InDelta(t, math.Log(proposal.InitScale), s.LogScale[1], 1e-12)
}

func TestAdaptScaleMovesTowardTarget(t *testing.T) {
	s := proposal.NewState(1)
	before := s.LogScale[0]
	for i := 0; i < 100; i++ {
		proposal.AdaptScale(s, 0, true, proposal.TargetAcceptUnivariate, proposal.DefaultGamma)
	}
	require.Greater(t, s.LogScale[0], before, "100 consecutive acceptances against target<1 should raise the scale")
}

func TestRecalcIntervalLowerBound(t *testing.T) {
	require.Equal(t, 20, proposal.RecalcInterval(1))
	require.Equal(t, 20, proposal.RecalcInterval(2))
	require.Equal(t, 25, proposal.RecalcInterval(5))
}

func TestBlockCorrelatedFallsBackBeforeFirstRecalc(t *testing.T) {
	s := proposal.NewState(3)
	rng := prng.NewSource(1).Stream(0, 0)
	out := []float64{0, 0, 0}
	// cholOK is false until MaybeRecalcCholesky succeeds at least once; this
	// must not panic and must behave like ProposeBlockIsotropic.
	s.ProposeBlockCorrelated(out, rng)
	nonZero := false
	for _, v := range out {
		if v != 0 {
			nonZero = true
		}
	}
	require.True(t, nonZero)
}

func TestUpdateWelfordAndRecalcProducesUsableCholesky(t *testing.T) {
	s := proposal.NewState(2)
	rng := prng.NewSource(7).Stream(0, 0)

	k := proposal.RecalcInterval(2)
	for i := 0; i < k; i++ {
		phi := []float64{rng.Normal(), rng.Normal()}
		s.UpdateWelford(phi)
	}
	s.MaybeRecalcCholesky()

	out := make([]float64, 2)
	s.ProposeBlockCorrelated(out, rng)
	require.True(t, out[0] != 0 || out[1] != 0)
}

func TestRecordAttemptAcceptRate(t *testing.T) {
	s := proposal.NewState(1)
	s.RecordAttempt(0, true)
	s.RecordAttempt(0, false)
	s.RecordAttempt(0, true)
	require.InDelta(t, 2.0/3.0, s.AcceptRate(0), 1e-12)
}
