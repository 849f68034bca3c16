package plot

// DD is a double-double float: a pair (Hi, Lo) of float64 approximating a
// single value to roughly 106 bits of significand, used as the Ext
// precision's "widest hardware float" since Go has no native long double.
// Arithmetic below uses the standard Dekker/Knuth error-free transforms.
type DD struct {
	Hi, Lo float64
}

// NewDD builds a DD from a plain float64.
func NewDD(f float64) DD { return DD{Hi: f, Lo: 0} }

// Float64 narrows a DD back to float64 (sum of the two limbs).
func (d DD) Float64() float64 { return d.Hi + d.Lo }

func twoSum(a, b float64) (hi, lo float64) {
	hi = a + b
	bb := hi - a
	lo = (a - (hi - bb)) + (b - bb)
	return hi, lo
}

func quickTwoSum(a, b float64) (hi, lo float64) {
	hi = a + b
	lo = b - (hi - a)
	return hi, lo
}

func twoProd(a, b float64) (hi, lo float64) {
	hi = a * b
	lo = fusedMultiplySub(a, b, hi)
	return hi, lo
}

func (d DD) Add(o DD) DD {
	sHi, sLo := twoSum(d.Hi, o.Hi)
	tHi, tLo := twoSum(d.Lo, o.Lo)
	sLo += tHi
	sHi, sLo = quickTwoSum(sHi, sLo)
	sLo += tLo
	sHi, sLo = quickTwoSum(sHi, sLo)
	return DD{Hi: sHi, Lo: sLo}
}

func (d DD) Neg() DD { return DD{Hi: -d.Hi, Lo: -d.Lo} }

func (d DD) Sub(o DD) DD { return d.Add(o.Neg()) }

func (d DD) Mul(o DD) DD {
	pHi, pLo := twoProd(d.Hi, o.Hi)
	pLo += d.Hi*o.Lo + d.Lo*o.Hi
	pHi, pLo = quickTwoSum(pHi, pLo)
	return DD{Hi: pHi, Lo: pLo}
}

func (d DD) MulFloat(f float64) DD {
	pHi, pLo := twoProd(d.Hi, f)
	pLo += d.Lo * f
	pHi, pLo = quickTwoSum(pHi, pLo)
	return DD{Hi: pHi, Lo: pLo}
}

func (d DD) gt(o DD) bool {
	if d.Hi != o.Hi {
		return d.Hi > o.Hi
	}
	return d.Lo > o.Lo
}

// DDComplex is a complex number with each component held as a DD, the Ext
// precision's representation of a point in the plane.
type DDComplex struct {
	Re, Im DD
}

func (z DDComplex) Add(o DDComplex) DDComplex {
	return DDComplex{Re: z.Re.Add(o.Re), Im: z.Im.Add(o.Im)}
}

// Sqr returns z*z, computed directly rather than via a general complex
// multiply since the kernel only ever squares.
func (z DDComplex) Sqr() DDComplex {
	reSq := z.Re.Mul(z.Re)
	imSq := z.Im.Mul(z.Im)
	crossTwice := z.Re.Mul(z.Im).MulFloat(2)
	return DDComplex{Re: reSq.Sub(imSq), Im: crossTwice}
}

// Norm2 returns |z|^2 = Re^2 + Im^2.
func (z DDComplex) Norm2() DD {
	return z.Re.Mul(z.Re).Add(z.Im.Mul(z.Im))
}

// fusedMultiplySub computes a*b-p without an FMA instruction, splitting
// each operand into high/low halves (Dekker's split).
func fusedMultiplySub(a, b, p float64) float64 {
	const splitter = 134217729 // 2^27 + 1
	ca := splitter * a
	ahi := ca - (ca - a)
	alo := a - ahi

	cb := splitter * b
	bhi := cb - (cb - b)
	blo := b - bhi

	return ((ahi*bhi - p) + ahi*blo + alo*bhi) + alo*blo
}
