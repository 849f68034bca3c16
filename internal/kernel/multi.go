package kernel

import "math/big"

// MultiComplex is an arbitrary-precision complex number: a pair of
// *big.Float sharing one significand width, with round-toward-zero
// arithmetic so renders reproduce bit-for-bit across machines that agree
// on the significand width.
type MultiComplex struct {
	Re, Im *big.Float
}

func newFloat(prec uint) *big.Float {
	return new(big.Float).SetPrec(prec).SetMode(big.ToZero)
}

// sqr returns z*z using bigMul for the three underlying multiplications.
func (z MultiComplex) sqr(prec uint) MultiComplex {
	reSq := bigMul(z.Re, z.Re, prec)
	imSq := bigMul(z.Im, z.Im, prec)
	crossTwice := newFloat(prec).Mul(bigMul(z.Re, z.Im, prec), big.NewFloat(2))

	re := newFloat(prec).Sub(reSq, imSq)
	return MultiComplex{Re: re, Im: crossTwice}
}

func (z MultiComplex) add(o MultiComplex, prec uint) MultiComplex {
	return MultiComplex{
		Re: newFloat(prec).Add(z.Re, o.Re),
		Im: newFloat(prec).Add(z.Im, o.Im),
	}
}

func (z MultiComplex) norm2(prec uint) *big.Float {
	reSq := bigMul(z.Re, z.Re, prec)
	imSq := bigMul(z.Im, z.Im, prec)
	return newFloat(prec).Add(reSq, imSq)
}

func iterateMulti(z0, c MultiComplex, nMax uint64, prec uint) Result {
	z := z0
	for n := uint64(0); n < nMax; n++ {
		z = z.sqr(prec).add(c, prec)
		norm2, _ := z.norm2(prec).Float64()
		if norm2 >= EscapeRadius2 {
			return Result{N: n + 1, Norm2: norm2, Escaped: n+1 < nMax}
		}
	}
	norm2, _ := z.norm2(prec).Float64()
	return Result{N: nMax, Norm2: norm2, Escaped: false}
}

func inCardioidOrBulbMulti(c MultiComplex, prec uint) bool {
	norm2 := c.norm2(prec)
	re := c.Re

	norm4 := bigMul(norm2, norm2, prec)
	cardioid := newFloat(prec).Mul(norm4, big.NewFloat(256))
	cardioid.Sub(cardioid, newFloat(prec).Mul(norm2, big.NewFloat(96)))
	cardioid.Add(cardioid, newFloat(prec).Mul(re, big.NewFloat(32)))
	cardioid.Sub(cardioid, big.NewFloat(3))
	if cardioid.Sign() <= 0 {
		return true
	}

	bulb := newFloat(prec).Add(norm2, newFloat(prec).Mul(re, big.NewFloat(2)))
	bulb.Add(bulb, big.NewFloat(1))
	bulb.Mul(bulb, big.NewFloat(16))
	bulb.Sub(bulb, big.NewFloat(1))
	return bulb.Sign() <= 0
}

// MandelbrotMulti is MandelbrotStd at Multi precision with significand
// width prec bits.
func MandelbrotMulti(c MultiComplex, nMax uint64, prec uint) Result {
	if inCardioidOrBulbMulti(c, prec) {
		return Result{N: nMax, Norm2: 0, Escaped: false}
	}
	zero := MultiComplex{Re: newFloat(prec), Im: newFloat(prec)}
	return iterateMulti(zero, c, nMax, prec)
}

// JuliaMulti is JuliaStd at Multi precision with significand width prec
// bits.
func JuliaMulti(z0, cJulia MultiComplex, nMax uint64, prec uint) Result {
	return iterateMulti(z0, cJulia, nMax, prec)
}
