package netproto

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/AdamBromiley/rolymo/internal/plot"
)

// FormatComplexStd renders a Std-precision complex value as "a+bi" (or
// "a-bi"), with enough digits to round-trip.
func FormatComplexStd(c complex128) string {
	return formatParts(formatFloat64(real(c)), formatFloat64(imag(c)))
}

func formatFloat64(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatParts(re, im string) string {
	if !strings.HasPrefix(im, "-") {
		im = "+" + im
	}
	return re + im + "i"
}

// FormatComplexExt renders an Ext-precision (double-double) complex value
// as "a+bi" at double-double decimal precision (~32 significant digits),
// since a DD pair carries roughly twice a float64's significant digits.
func FormatComplexExt(c plot.DDComplex) string {
	return formatParts(formatDD(c.Re), formatDD(c.Im))
}

func formatDD(d plot.DD) string {
	bf := ddToBigFloat(d)
	return bf.Text('g', 32)
}

func ddToBigFloat(d plot.DD) *big.Float {
	bf := new(big.Float).SetPrec(106)
	bf.Add(big.NewFloat(d.Hi), big.NewFloat(d.Lo))
	return bf
}

func bigFloatToDD(bf *big.Float) plot.DD {
	hi, _ := bf.Float64()
	rem := new(big.Float).SetPrec(bf.Prec())
	rem.Sub(bf, big.NewFloat(hi))
	lo, _ := rem.Float64()
	return plot.DD{Hi: hi, Lo: lo}
}

// FormatComplexMulti renders a Multi-precision complex value as "a+bi" at
// full decimal precision for the given mantissa bit width.
func FormatComplexMulti(re, im *big.Float, bits uint) string {
	digits := int(float64(bits)/3.32) + 10
	return formatParts(re.Text('g', digits), im.Text('g', digits))
}

// ParseComplexStd parses an "a+bi" token into a Std-precision complex.
func ParseComplexStd(s string) (complex128, error) {
	reStr, imStr, err := splitComplexToken(s)
	if err != nil {
		return 0, err
	}
	re, err := strconv.ParseFloat(reStr, 64)
	if err != nil {
		return 0, fmt.Errorf("netproto: invalid real part %q: %w", reStr, err)
	}
	im, err := strconv.ParseFloat(imStr, 64)
	if err != nil {
		return 0, fmt.Errorf("netproto: invalid imaginary part %q: %w", imStr, err)
	}
	return complex(re, im), nil
}

// ParseComplexExt parses an "a+bi" token into an Ext-precision (DD)
// complex, rounding the decimal string to double-double precision.
func ParseComplexExt(s string) (plot.DDComplex, error) {
	reStr, imStr, err := splitComplexToken(s)
	if err != nil {
		return plot.DDComplex{}, err
	}
	re, _, err := new(big.Float).SetPrec(106).Parse(reStr, 10)
	if err != nil {
		return plot.DDComplex{}, fmt.Errorf("netproto: invalid real part %q: %w", reStr, err)
	}
	im, _, err := new(big.Float).SetPrec(106).Parse(imStr, 10)
	if err != nil {
		return plot.DDComplex{}, fmt.Errorf("netproto: invalid imaginary part %q: %w", imStr, err)
	}
	return plot.DDComplex{Re: bigFloatToDD(re), Im: bigFloatToDD(im)}, nil
}

// ParseComplexMulti parses an "a+bi" token into a Multi-precision complex
// at the given mantissa bit width, rounding toward zero as the Multi
// kernel requires for bit-identical results across machines.
func ParseComplexMulti(s string, bits uint) (re, im *big.Float, err error) {
	reStr, imStr, err := splitComplexToken(s)
	if err != nil {
		return nil, nil, err
	}
	re = new(big.Float).SetPrec(bits).SetMode(big.ToZero)
	if _, _, err := re.Parse(reStr, 10); err != nil {
		return nil, nil, fmt.Errorf("netproto: invalid real part %q: %w", reStr, err)
	}
	im = new(big.Float).SetPrec(bits).SetMode(big.ToZero)
	if _, _, err := im.Parse(imStr, 10); err != nil {
		return nil, nil, fmt.Errorf("netproto: invalid imaginary part %q: %w", imStr, err)
	}
	return re, im, nil
}

// splitComplexToken splits "a+bi"/"a-bi" into its real and imaginary
// halves. The split point is the last top-level '+' or '-' before the
// trailing 'i' that isn't part of an exponent ("e+10", "e-5").
func splitComplexToken(s string) (reStr, imStr string, err error) {
	if !strings.HasSuffix(s, "i") {
		return "", "", fmt.Errorf("netproto: complex token %q missing trailing i", s)
	}
	body := s[:len(s)-1]

	for i := len(body) - 1; i > 0; i-- {
		c := body[i]
		if c != '+' && c != '-' {
			continue
		}
		if prev := body[i-1]; prev == 'e' || prev == 'E' {
			continue
		}
		return body[:i], body[i:], nil
	}

	return "", "", fmt.Errorf("netproto: complex token %q has no real/imaginary split", s)
}
