package kernel

import "github.com/AdamBromiley/rolymo/internal/plot"

// iterateExt is iterateStd's Ext-precision twin, operating on
// plot.DDComplex (a double-double pair per component) instead of
// complex128.
func iterateExt(z0, c plot.DDComplex, nMax uint64) Result {
	z := z0
	for n := uint64(0); n < nMax; n++ {
		z = z.Sqr().Add(c)
		norm2 := z.Norm2().Float64()
		if norm2 >= EscapeRadius2 {
			return Result{N: n + 1, Norm2: norm2, Escaped: n+1 < nMax}
		}
	}
	return Result{N: nMax, Norm2: z.Norm2().Float64(), Escaped: false}
}

func inCardioidOrBulbExt(c plot.DDComplex) bool {
	norm2 := c.Norm2()
	re := c.Re

	// 256*|c|^4 - 96*|c|^2 + 32*Re(c) - 3 <= 0
	norm4 := norm2.Mul(norm2)
	cardioid := norm4.MulFloat(256).Sub(norm2.MulFloat(96)).Add(re.MulFloat(32)).Sub(plot.NewDD(3))
	if cardioid.Float64() <= 0 {
		return true
	}

	// 16*(|c|^2 + 2*Re(c) + 1) - 1 <= 0
	bulb := norm2.Add(re.MulFloat(2)).Add(plot.NewDD(1)).MulFloat(16).Sub(plot.NewDD(1))
	return bulb.Float64() <= 0
}

// MandelbrotExt is MandelbrotStd at Ext precision.
func MandelbrotExt(c plot.DDComplex, nMax uint64) Result {
	if inCardioidOrBulbExt(c) {
		return Result{N: nMax, Norm2: 0, Escaped: false}
	}
	zero := plot.DDComplex{}
	return iterateExt(zero, c, nMax)
}

// JuliaExt is JuliaStd at Ext precision.
func JuliaExt(z0, cJulia plot.DDComplex, nMax uint64) Result {
	return iterateExt(z0, cJulia, nMax)
}
