package transform_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tempermc/tempermc/transform"
)

func TestClassifyTag(t *testing.T) {
	require.Equal(t, transform.Unbounded, transform.ClassifyTag(math.Inf(-1), math.Inf(1)))
	require.Equal(t, transform.UpperOnly, transform.ClassifyTag(math.Inf(-1), 5))
	require.Equal(t, transform.LowerOnly, transform.ClassifyTag(0, math.Inf(1)))
	require.Equal(t, transform.Bounded, transform.ClassifyTag(0, 5))
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		tag          transform.Tag
		lower, upper float64
		thetas       []float64
	}{
		{transform.Unbounded, math.Inf(-1), math.Inf(1), []float64{-100, 0, 3.5, 1e6}},
		{transform.UpperOnly, math.Inf(-1), 5, []float64{-10, 0, 4.999}},
		{transform.LowerOnly, -3, math.Inf(1), []float64{-2.999, 0, 1000}},
		{transform.Bounded, -1, 1, []float64{-0.999, 0, 0.5, 0.999}},
	}

	for _, c := range cases {
		for _, theta := range c.thetas {
			phi, err := transform.ToPhi(c.tag, theta, c.lower, c.upper)
			require.NoError(t, err, "tag=%v theta=%v", c.tag, theta)

			back := transform.ToTheta(c.tag, phi, c.lower, c.upper)
			require.InDelta(t, theta, back, 1e-9, "tag=%v theta=%v", c.tag, theta)
		}
	}
}

func TestToPhiDomainError(t *testing.T) {
	_, err := transform.ToPhi(transform.Bounded, 10, -1, 1)
	require.Error(t, err)

	var domainErr *transform.DomainError
	require.ErrorAs(t, err, &domainErr)
}

func TestLogAdjustmentUnboundedIsZero(t *testing.T) {
	require.Equal(t, 0.0, transform.LogAdjustment(transform.Unbounded, 1, 2, math.Inf(-1), math.Inf(1)))
}

func TestToThetaIsTotal(t *testing.T) {
	// ToTheta must never produce a value outside the open interval implied
	// by tag, for any finite phi.
	for _, phi := range []float64{-10, -1, 0, 1, 10} {
		theta := transform.ToTheta(transform.Bounded, phi, -1, 1)
		require.Greater(t, theta, -1.0)
		require.Less(t, theta, 1.0)
	}
}
