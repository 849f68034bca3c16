// Package plot holds the immutable parameters that describe a single
// render: plot kind, numeric precision, complex bounds, iteration cap,
// output geometry and colour scheme. Every numeric kernel and protocol
// frame in rolymo is driven off a *plot.CTX.
package plot

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/samber/lo"
)

// Kind selects the escape-time map iterated by the numeric kernel.
type Kind int

const (
	Mandelbrot Kind = iota
	Julia
)

func (k Kind) String() string {
	switch k {
	case Mandelbrot:
		return "mandelbrot"
	case Julia:
		return "julia"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Precision selects which of the three Numeric Kernel implementations is
// used to evaluate the map.
type Precision int

const (
	Std   Precision = iota // 64-bit complex
	Ext                    // widest hardware float, here a double-double pair
	Multi                  // arbitrary precision, significand width Bits
)

func (p Precision) String() string {
	switch p {
	case Std:
		return "std"
	case Ext:
		return "ext"
	case Multi:
		return "multi"
	default:
		return fmt.Sprintf("Precision(%d)", int(p))
	}
}

// ParsePrecision parses the wire/CLI token for a precision mode.
func ParsePrecision(s string) (Precision, error) {
	switch s {
	case "std":
		return Std, nil
	case "ext":
		return Ext, nil
	case "multi":
		return Multi, nil
	default:
		return 0, fmt.Errorf("plot: unknown precision %q", s)
	}
}

// Significand bit-count bounds for Multi precision (§3).
const (
	MPBitsMin = 64
	MPBitsDefault = 256
	MPBitsMax = 1 << 20
)

// Bounds is the rectangular region of the complex plane sampled by the
// image, held in whichever representation the active Precision requires.
type Bounds struct {
	MinStd, MaxStd complex128

	MinExt, MaxExt DDComplex

	// Bits is the significand width shared by every Multi value in this
	// CTX (bounds, Julia constant). Arithmetic is round-toward-zero so
	// renders agree bit-for-bit across machines that share Bits.
	Bits          uint
	MinMultiRe    *big.Float
	MinMultiIm    *big.Float
	MaxMultiRe    *big.Float
	MaxMultiIm    *big.Float
}

// Validate checks the crossing invariant from §3: Re(max) > Re(min) and
// Im(max) > Im(min), for whichever precision is populated.
func (b *Bounds) Validate(p Precision) error {
	switch p {
	case Std:
		if real(b.MaxStd) <= real(b.MinStd) {
			return fmt.Errorf("plot: Re(max)=%g must exceed Re(min)=%g", real(b.MaxStd), real(b.MinStd))
		}
		if imag(b.MaxStd) <= imag(b.MinStd) {
			return fmt.Errorf("plot: Im(max)=%g must exceed Im(min)=%g", imag(b.MaxStd), imag(b.MinStd))
		}
	case Ext:
		if !b.MaxExt.Re.gt(b.MinExt.Re) {
			return fmt.Errorf("plot: Re(max) must exceed Re(min)")
		}
		if !b.MaxExt.Im.gt(b.MinExt.Im) {
			return fmt.Errorf("plot: Im(max) must exceed Im(min)")
		}
	case Multi:
		if b.MaxMultiRe.Cmp(b.MinMultiRe) <= 0 {
			return fmt.Errorf("plot: Re(max) must exceed Re(min)")
		}
		if b.MaxMultiIm.Cmp(b.MinMultiIm) <= 0 {
			return fmt.Errorf("plot: Im(max) must exceed Im(min)")
		}
	default:
		return fmt.Errorf("plot: unknown precision %v", p)
	}
	return nil
}

// Scheme is the colour-scheme tag, independent of its Go implementation in
// package color; plot only needs the tag and bit depth to size rows.
type Scheme int

const (
	ASCIIScheme Scheme = iota
	BlackWhite
	WhiteBlack
	Greyscale
	Rainbow
	RainbowVibrant
	RedWhite
	Fire
	RedHot
	Matrix
)

var schemeNames = map[Scheme]string{
	ASCIIScheme:    "ascii",
	BlackWhite:     "black-white",
	WhiteBlack:     "white-black",
	Greyscale:      "greyscale",
	Rainbow:        "rainbow",
	RainbowVibrant: "rainbow-vibrant",
	RedWhite:       "red-white",
	Fire:           "fire",
	RedHot:         "red-hot",
	Matrix:         "matrix",
}

func (s Scheme) String() string {
	if n, ok := schemeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Scheme(%d)", int(s))
}

// SchemeNames returns every valid colour-scheme CLI token, sorted, for
// help text and error messages.
func SchemeNames() []string {
	names := lo.Values(schemeNames)
	sort.Strings(names)
	return names
}

// ParseScheme parses the wire/CLI token for a colour scheme.
func ParseScheme(s string) (Scheme, error) {
	for scheme, name := range schemeNames {
		if name == s {
			return scheme, nil
		}
	}
	return 0, fmt.Errorf("plot: unknown colour scheme %q (want one of %v)", s, SchemeNames())
}

// Depth is the bit depth of a Scheme, which determines pixel stride (§3).
type Depth int

const (
	DepthASCII Depth = 0
	Depth1     Depth = 1
	Depth8     Depth = 8
	Depth24    Depth = 24
)

// SchemeDepth returns the bit depth for a given colour scheme tag.
func SchemeDepth(s Scheme) Depth {
	switch s {
	case ASCIIScheme:
		return DepthASCII
	case BlackWhite, WhiteBlack:
		return Depth1
	case Greyscale:
		return Depth8
	case Rainbow, RainbowVibrant, RedWhite, Fire, RedHot, Matrix:
		return Depth24
	default:
		return Depth8
	}
}

// Destination selects where the Image Writer streams pixel data.
type Destination struct {
	Path     string // empty means terminal
	Terminal bool
}

// CTX is the full set of immutable plot parameters, threaded explicitly
// through every numeric path instead of held in process-wide globals.
type CTX struct {
	Kind      Kind
	Precision Precision
	Bounds    Bounds

	// Julia constant, held in the same representation as Bounds.
	CStd   complex128
	CExt   DDComplex
	CMulti struct{ Re, Im *big.Float }

	NMax   uint64
	Width  uint
	Height uint
	Scheme Scheme

	Dest Destination
}

// Validate enforces the invariants of §3: non-zero width/height, crossing
// bounds, and the 1-bit row-width rounding rule. It returns the possibly
// rounded width and a warning flag, matching "W is rounded up ... with a
// warning".
func (c *CTX) Validate() (roundedWidth uint, warned bool, err error) {
	if c.Width == 0 {
		return 0, false, fmt.Errorf("plot: width must be non-zero")
	}
	if c.Height == 0 {
		return 0, false, fmt.Errorf("plot: height must be non-zero")
	}
	if c.NMax == 0 {
		return 0, false, fmt.Errorf("plot: iteration cap must be non-zero")
	}
	if err := c.Bounds.Validate(c.Precision); err != nil {
		return 0, false, err
	}
	if c.Precision == Multi {
		if c.Bounds.Bits < MPBitsMin || c.Bounds.Bits > MPBitsMax {
			return 0, false, fmt.Errorf("plot: multi-precision significand %d outside [%d, %d]", c.Bounds.Bits, MPBitsMin, MPBitsMax)
		}
	}

	w := c.Width
	if SchemeDepth(c.Scheme) == Depth1 && w%8 != 0 {
		w = ((w / 8) + 1) * 8
		warned = true
	}
	return w, warned, nil
}

// PixelSpan returns dx, dy: the per-pixel real/imaginary span (§3).
// A width or height of 1 yields a zero span along that axis.
func (c *CTX) PixelSpan() (dx, dy float64) {
	switch c.Precision {
	case Std:
		if c.Width > 1 {
			dx = (real(c.Bounds.MaxStd) - real(c.Bounds.MinStd)) / float64(c.Width-1)
		}
		if c.Height > 1 {
			dy = (imag(c.Bounds.MaxStd) - imag(c.Bounds.MinStd)) / float64(c.Height-1)
		}
	default:
		// Ext and Multi spans are computed at their own precision by
		// package render's sampleExt and sampleMulti; this float64 span
		// serves Std sampling only.
	}
	return dx, dy
}

// Sample returns the complex point for pixel (x, y), y counted from the
// top, per §3: Re(min) + x*dx + (Im(max) - y*dy)*i.
func (c *CTX) Sample(x, y uint) complex128 {
	dx, dy := c.PixelSpan()
	re := real(c.Bounds.MinStd) + float64(x)*dx
	im := imag(c.Bounds.MaxStd) - float64(y)*dy
	return complex(re, im)
}
