// Package kernel implements the escape-time iteration contract across
// the three numeric precisions: Std (float64), Ext (a double-double pair
// standing in for the widest hardware float), and Multi
// (arbitrary-precision, via math/big).
//
// All three share one contract: given a starting point and an additive
// constant, iterate z <- z*z + c up to NMax times, escaping when
// |z|^2 >= EscapeRadius2. The kernel never fails; malformed parameters are
// rejected upstream in package plot.
package kernel

// EscapeRadius2 is fixed at 256 (not the more common 4) so the smoothed
// iteration-count formula n + 1 - log2(log2(|z|)) stays continuous.
const EscapeRadius2 = 256

// Result is the outcome of one escape-time evaluation: the iteration count
// n in [0, NMax], the final squared modulus |z_n|^2, and whether the point
// escaped (n < NMax) or is considered bounded (n == NMax).
type Result struct {
	N       uint64
	Norm2   float64
	Escaped bool
}
