package kernel

// iterateStd runs z <- z*z + c from z0 up to nMax times, the shared body
// for both Mandelbrot and Julia at Std precision.
func iterateStd(z0, c complex128, nMax uint64) Result {
	z := z0
	for n := uint64(0); n < nMax; n++ {
		z = z*z + c
		norm2 := real(z)*real(z) + imag(z)*imag(z)
		if norm2 >= EscapeRadius2 {
			return Result{N: n + 1, Norm2: norm2, Escaped: n+1 < nMax}
		}
	}
	norm2 := real(z)*real(z) + imag(z)*imag(z)
	return Result{N: nMax, Norm2: norm2, Escaped: false}
}

// inCardioidOrBulbStd implements the two closed-form membership tests
// that let Mandelbrot skip iteration entirely for points provably
// inside the main cardioid or the period-2 bulb.
func inCardioidOrBulbStd(c complex128) bool {
	re := real(c)
	norm2 := re*re + imag(c)*imag(c)

	cardioid := 256*norm2*norm2 - 96*norm2 + 32*re - 3
	if cardioid <= 0 {
		return true
	}

	bulb := 16*(norm2+2*re+1) - 1
	return bulb <= 0
}

// MandelbrotStd evaluates the Mandelbrot map at Std precision: z0 = 0,
// iterating z <- z*z + c. Short-circuits cardioid/bulb members.
func MandelbrotStd(c complex128, nMax uint64) Result {
	if inCardioidOrBulbStd(c) {
		return Result{N: nMax, Norm2: 0, Escaped: false}
	}
	return iterateStd(0, c, nMax)
}

// JuliaStd evaluates the Julia map at Std precision: z0 = the pixel's
// sample point, iterating z <- z*z + cJulia with the configured constant.
func JuliaStd(z0, cJulia complex128, nMax uint64) Result {
	return iterateStd(z0, cJulia, nMax)
}
