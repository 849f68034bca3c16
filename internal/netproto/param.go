package netproto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AdamBromiley/rolymo/internal/plot"
)

// EncodeParamFrame builds the second handshake message: the plot kind,
// bounds, Julia constant (zero for Mandelbrot), iteration cap, image
// geometry and colour scheme, as whitespace-separated fields. The
// receiver already knows Precision and Bits from the prior precision
// frame.
func EncodeParamFrame(ctx *plot.CTX) ([ControlFrameSize]byte, error) {
	var minTok, maxTok, cTok string

	switch ctx.Precision {
	case plot.Std:
		minTok = FormatComplexStd(ctx.Bounds.MinStd)
		maxTok = FormatComplexStd(ctx.Bounds.MaxStd)
		cTok = FormatComplexStd(ctx.CStd)
	case plot.Ext:
		minTok = FormatComplexExt(ctx.Bounds.MinExt)
		maxTok = FormatComplexExt(ctx.Bounds.MaxExt)
		cTok = FormatComplexExt(ctx.CExt)
	case plot.Multi:
		minTok = FormatComplexMulti(ctx.Bounds.MinMultiRe, ctx.Bounds.MinMultiIm, ctx.Bounds.Bits)
		maxTok = FormatComplexMulti(ctx.Bounds.MaxMultiRe, ctx.Bounds.MaxMultiIm, ctx.Bounds.Bits)
		cTok = FormatComplexMulti(ctx.CMulti.Re, ctx.CMulti.Im, ctx.Bounds.Bits)
	default:
		return [ControlFrameSize]byte{}, fmt.Errorf("netproto: unknown precision %v", ctx.Precision)
	}

	payload := fmt.Sprintf("%s %s %s %s %d %d %d %s",
		ctx.Kind, minTok, maxTok, cTok, ctx.NMax, ctx.Width, ctx.Height, ctx.Scheme)
	return padFrame(payload)
}

// DecodeParamFrame parses the parameter handshake message into a *plot.CTX
// populated for the given, already-negotiated precision.
func DecodeParamFrame(frame []byte, prec plot.Precision, bits uint) (*plot.CTX, error) {
	payload := unpadFrame(frame)
	fields := strings.Fields(payload)
	if len(fields) != 8 {
		return nil, fmt.Errorf("netproto: parameter frame has %d fields, want 8", len(fields))
	}

	var kind plot.Kind
	switch fields[0] {
	case "mandelbrot":
		kind = plot.Mandelbrot
	case "julia":
		kind = plot.Julia
	default:
		return nil, fmt.Errorf("netproto: unknown plot kind %q", fields[0])
	}

	ctx := &plot.CTX{Kind: kind, Precision: prec}
	ctx.Bounds.Bits = bits

	if err := decodeBounds(ctx, fields[1], fields[2], fields[3], prec, bits); err != nil {
		return nil, err
	}

	nMax, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("netproto: invalid iteration cap %q: %w", fields[4], err)
	}
	ctx.NMax = nMax

	width, err := strconv.ParseUint(fields[5], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("netproto: invalid width %q: %w", fields[5], err)
	}
	ctx.Width = uint(width)

	height, err := strconv.ParseUint(fields[6], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("netproto: invalid height %q: %w", fields[6], err)
	}
	ctx.Height = uint(height)

	scheme, err := plot.ParseScheme(fields[7])
	if err != nil {
		return nil, fmt.Errorf("netproto: %w", err)
	}
	ctx.Scheme = scheme

	return ctx, nil
}

func decodeBounds(ctx *plot.CTX, minTok, maxTok, cTok string, prec plot.Precision, bits uint) error {
	switch prec {
	case plot.Std:
		min, err := ParseComplexStd(minTok)
		if err != nil {
			return fmt.Errorf("netproto: min bound: %w", err)
		}
		max, err := ParseComplexStd(maxTok)
		if err != nil {
			return fmt.Errorf("netproto: max bound: %w", err)
		}
		c, err := ParseComplexStd(cTok)
		if err != nil {
			return fmt.Errorf("netproto: julia constant: %w", err)
		}
		ctx.Bounds.MinStd, ctx.Bounds.MaxStd, ctx.CStd = min, max, c

	case plot.Ext:
		min, err := ParseComplexExt(minTok)
		if err != nil {
			return fmt.Errorf("netproto: min bound: %w", err)
		}
		max, err := ParseComplexExt(maxTok)
		if err != nil {
			return fmt.Errorf("netproto: max bound: %w", err)
		}
		c, err := ParseComplexExt(cTok)
		if err != nil {
			return fmt.Errorf("netproto: julia constant: %w", err)
		}
		ctx.Bounds.MinExt = min
		ctx.Bounds.MaxExt = max
		ctx.CExt = c

	case plot.Multi:
		minRe, minIm, err := ParseComplexMulti(minTok, bits)
		if err != nil {
			return fmt.Errorf("netproto: min bound: %w", err)
		}
		maxRe, maxIm, err := ParseComplexMulti(maxTok, bits)
		if err != nil {
			return fmt.Errorf("netproto: max bound: %w", err)
		}
		cRe, cIm, err := ParseComplexMulti(cTok, bits)
		if err != nil {
			return fmt.Errorf("netproto: julia constant: %w", err)
		}
		ctx.Bounds.MinMultiRe, ctx.Bounds.MinMultiIm = minRe, minIm
		ctx.Bounds.MaxMultiRe, ctx.Bounds.MaxMultiIm = maxRe, maxIm
		ctx.CMulti.Re, ctx.CMulti.Im = cRe, cIm

	default:
		return fmt.Errorf("netproto: unknown precision %v", prec)
	}
	return nil
}
