package kernel

import (
	"math/big"

	"github.com/remyoudompheng/bigfft"
)

// bigfftMinBits is the mantissa width above which FFT multiplication
// (github.com/remyoudompheng/bigfft) overtakes big.Int's default
// Karatsuba/Toom-Cook multiply. Below it, (*big.Int).Mul is faster and we
// skip the mantissa-extraction overhead entirely.
const bigfftMinBits = 4096

// bigMul multiplies two arbitrary-precision floats at significand width
// prec, rounding toward zero like the rest of the Multi kernel. For wide
// significands it bypasses (*big.Float).Mul and instead extracts each
// operand's integer mantissa, multiplies via bigfft, and rebuilds the
// float from the product and combined exponent.
func bigMul(x, y *big.Float, prec uint) *big.Float {
	if prec < bigfftMinBits {
		return new(big.Float).SetPrec(prec).SetMode(big.ToZero).Mul(x, y)
	}

	xMant, xExp := mantissa(x, prec)
	yMant, yExp := mantissa(y, prec)

	if xMant.Sign() == 0 || yMant.Sign() == 0 {
		return new(big.Float).SetPrec(prec).SetMode(big.ToZero)
	}

	product := bigfft.Mul(xMant, yMant)

	result := new(big.Float).SetPrec(prec).SetMode(big.ToZero).SetInt(product)
	result.SetMantExp(result, xExp+yExp)
	return result
}

// mantissa extracts x's integer significand scaled to exactly prec bits,
// such that x == mant * 2^exp.
func mantissa(x *big.Float, prec uint) (mant *big.Int, exp int) {
	if x.Sign() == 0 {
		return new(big.Int), 0
	}

	var m big.Float
	m.SetPrec(prec)
	e := x.MantExp(&m) // x == m * 2^e, 0.5 <= |m| < 1

	m.SetMantExp(&m, int(prec))

	mant, _ = m.Int(nil)
	exp = e - int(prec)
	return mant, exp
}
