package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErfKnownValues(t *testing.T) {
	cases := []struct {
		z    float64
		want float64
	}{
		{0, 0},
		{0.5, 0.5204998778},
		{1, 0.8427007929},
		{2, 0.9953222650},
		{-1, -0.8427007929},
	}

	for _, c := range cases {
		got := Erf(c.z)
		assert.InDeltaf(t, c.want, got, 5e-7, "Erf(%v)", c.z)
	}
}

func TestErfcComplement(t *testing.T) {
	for _, z := range []float64{-3, -1, 0, 0.25, 1.5, 4} {
		assert.InDelta(t, 1, Erf(z)+Erfc(z), 1e-9)
	}
}

func TestInvCDFKnownValues(t *testing.T) {
	cases := []struct {
		p    float64
		want float64
	}{
		{0.5, 0},
		{0.975, 1.959963985},
		{0.025, -1.959963985},
		{0.841344746, 1.0},
		{0.158655254, -1.0},
	}

	for _, c := range cases {
		got := InvCDF(c.p)
		assert.InDeltaf(t, c.want, got, 1e-6, "InvCDF(%v)", c.p)
	}
}

func TestInvCDFBoundary(t *testing.T) {
	assert.True(t, math.IsInf(InvCDF(0), -1))
	assert.True(t, math.IsInf(InvCDF(1), 1))
	assert.True(t, math.IsInf(InvCDF(-0.1), -1))
	assert.True(t, math.IsInf(InvCDF(1.1), 1))
}

func TestInvCDFIsInverseOfNormalCDF(t *testing.T) {
	normalCDF := func(x float64) float64 {
		return 0.5 * math.Erfc(-x/math.Sqrt2)
	}

	for _, x := range []float64{-2.5, -1.1, -0.3, 0.1, 0.9, 2.2} {
		p := normalCDF(x)
		got := InvCDF(p)
		assert.InDeltaf(t, x, got, 1e-6, "round trip at x=%v", x)
	}
}
