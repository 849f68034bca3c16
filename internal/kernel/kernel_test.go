package kernel

import (
	"math/big"
	"testing"

	"github.com/AdamBromiley/rolymo/internal/plot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMandelbrotStd_OriginIsBounded(t *testing.T) {
	result := MandelbrotStd(complex(0, 0), 100)
	assert.True(t, result.N == 100 && !result.Escaped)
}

func TestMandelbrotStd_FarPointEscapesImmediately(t *testing.T) {
	result := MandelbrotStd(complex(100, 100), 100)
	require.True(t, result.Escaped)
	assert.Equal(t, uint64(1), result.N)
}

// TestMandelbrotStd_CardioidBulbShortCircuit checks that every sampled
// point satisfying either closed-form test comes back with N == N_max
// and not escaped.
func TestMandelbrotStd_CardioidBulbShortCircuit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		re := rapid.Float64Range(-0.75, 0.38).Draw(t, "re")
		im := rapid.Float64Range(-0.4, 0.4).Draw(t, "im")
		c := complex(re, im)

		if !inCardioidOrBulbStd(c) {
			t.Skip("not provably interior at this sample")
		}

		result := MandelbrotStd(c, 500)
		assert.Equal(t, uint64(500), result.N)
		assert.False(t, result.Escaped)
	})
}

func TestJuliaStd_MatchesIterateAtStandardStart(t *testing.T) {
	cJulia := complex(-0.8, 0.156)
	z0 := complex(0.01, 0.02)

	result := JuliaStd(z0, cJulia, 200)
	manual := iterateStd(z0, cJulia, 200)
	assert.Equal(t, manual, result)
}

func TestStdExtAgreeNearOrigin(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		re := rapid.Float64Range(-2, 1).Draw(t, "re")
		im := rapid.Float64Range(-1.25, 1.25).Draw(t, "im")

		stdResult := MandelbrotStd(complex(re, im), 80)

		ddC := plot.DDComplex{Re: plot.NewDD(re), Im: plot.NewDD(im)}
		extResult := MandelbrotExt(ddC, 80)

		assert.Equal(t, stdResult.N, extResult.N)
		assert.Equal(t, stdResult.Escaped, extResult.Escaped)
	})
}

func TestMultiAgreesWithStdAtSamplePoints(t *testing.T) {
	points := []complex128{
		complex(0, 0),
		complex(-1, 0),
		complex(0.3, 0.5),
		complex(-1.8, 0),
	}

	const prec = 128

	for _, c := range points {
		stdResult := MandelbrotStd(c, 200)

		multiC := MultiComplex{
			Re: big.NewFloat(real(c)).SetPrec(prec),
			Im: big.NewFloat(imag(c)).SetPrec(prec),
		}
		multiResult := MandelbrotMulti(multiC, 200, prec)

		assert.Equal(t, stdResult.N, multiResult.N, "mismatch at c=%v", c)
		assert.Equal(t, stdResult.Escaped, multiResult.Escaped, "mismatch at c=%v", c)
	}
}

func TestBigMulAgreesWithNativeMul(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64Range(-1000, 1000).Draw(t, "a")
		b := rapid.Float64Range(-1000, 1000).Draw(t, "b")

		const prec = 8192 // forces the bigfft path

		x := big.NewFloat(a).SetPrec(prec)
		y := big.NewFloat(b).SetPrec(prec)

		got := bigMul(x, y, prec)
		want := new(big.Float).SetPrec(prec).Mul(x, y)

		gotF, _ := got.Float64()
		wantF, _ := want.Float64()
		assert.InDelta(t, wantF, gotF, 1e-6*(1+absFloat(wantF)))
	})
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
