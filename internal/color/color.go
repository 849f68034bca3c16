// Package color turns one kernel.Result into bytes written at a cursor,
// for the ten colour schemes across the four supported bit depths.
package color

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/AdamBromiley/rolymo/internal/kernel"
	"github.com/AdamBromiley/rolymo/internal/plot"
)

// asciiRamp is the ten-character brightness ramp, darkest last.
const asciiRamp = " .:-=+*#%@"

// Smooth computes the smoothed iteration count nu = n + 1 - log2(log2(|z|)),
// valid only when the point escaped. Callers must check Result.Escaped
// first.
func Smooth(r kernel.Result) float64 {
	logZ := 0.5 * math.Log2(r.Norm2) // log2(|z|) = log2(sqrt(norm2))/1 = 0.5*log2(norm2)
	return float64(r.N) + 1 - math.Log2(logZ)
}

// ASCII maps a Result to its character in the ten-glyph ramp.
func ASCII(r kernel.Result) byte {
	if !r.Escaped {
		return asciiRamp[len(asciiRamp)-1]
	}
	nu := Smooth(r)
	idx := int(math.Floor(0.3*nu)) % (len(asciiRamp) - 1)
	if idx < 0 {
		idx += len(asciiRamp) - 1
	}
	return asciiRamp[idx]
}

// WriteBit sets bit (7-offset) of *cursor for a 1-bit scheme. BlackWhite
// sets the bit on UNESCAPED; WhiteBlack is the complement.
func WriteBit(cursor *byte, offset uint, scheme plot.Scheme, r kernel.Result) {
	unescaped := !r.Escaped
	bit := unescaped
	if scheme == plot.WhiteBlack {
		bit = !bit
	}
	if bit {
		*cursor |= 1 << (7 - offset)
	} else {
		*cursor &^= 1 << (7 - offset)
	}
}

// Greyscale8 maps a Result to an 8-bit greyscale value: 0 when unescaped,
// otherwise 255 - |((8.5*nu) mod 510) - 255|, floored at 30.
func Greyscale8(r kernel.Result) byte {
	if !r.Escaped {
		return 0
	}
	nu := Smooth(r)
	v := 255 - math.Abs(math.Mod(8.5*nu, 510)-255)
	if v < 30 {
		v = 30
	}
	return byte(v)
}

// RGB is a 24-bit colour triple.
type RGB struct {
	R, G, B byte
}

// Scheme24 maps a Result to RGB for one of the six 24-bit schemes.
// Returns pure black for unescaped points.
func Scheme24(scheme plot.Scheme, r kernel.Result) RGB {
	if !r.Escaped {
		return RGB{}
	}
	nu := Smooth(r)

	var h, s, v float64
	switch scheme {
	case plot.Rainbow:
		h = math.Mod(30*nu, 360)
		s, v = 0.6, 0.8
	case plot.RainbowVibrant:
		h = math.Mod(30*nu, 360)
		s, v = 1.0, 1.0
	case plot.RedWhite:
		h = 0
		s = math.Min(0.7, 0.7-math.Abs(math.Mod(nu/20, 1.4)-0.7))
		v = 1.0
	case plot.Fire:
		h = 50 - math.Abs(math.Mod(2*nu, 100)-50)
		s, v = 0.85, 0.85
	case plot.RedHot:
		m := 90 - math.Abs(math.Mod(2*nu, 180)-90)
		if m <= 30 {
			h, s, v = 0, 1, m/30
		} else {
			h, s, v = m-30, 1, 1
		}
	case plot.Matrix:
		h, s = 120, 1
		v = (90 - math.Abs(math.Mod(2*nu, 180)-90)) / 90
	default:
		h, s, v = 0, 0, 0
	}

	return hsvToRGB(h, s, v)
}

// hsvToRGB converts HSV (H in degrees, S and V in [0,1]) to RGB bytes,
// via go-colorful's Hsv, which already carries the sextant decomposition
// rolymo would otherwise have to hand-roll.
func hsvToRGB(h, s, v float64) RGB {
	r, g, b := colorful.Hsv(h, s, v).RGB255()
	return RGB{R: r, G: g, B: b}
}
