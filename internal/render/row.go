package render

import (
	"context"
	"math/big"

	"github.com/AdamBromiley/rolymo/internal/block"
	"github.com/AdamBromiley/rolymo/internal/color"
	"github.com/AdamBromiley/rolymo/internal/kernel"
	"github.com/AdamBromiley/rolymo/internal/plot"
)

// RowEvaluator closes over a plot.CTX and writes one absolute image row
// into a block's buffer, dispatching to the kernel matching the CTX's
// precision.
type RowEvaluator struct {
	ctx *plot.CTX
}

func NewRowEvaluator(ctx *plot.CTX) *RowEvaluator {
	return &RowEvaluator{ctx: ctx}
}

// ComputeRow evaluates every column of absolute row y into dst, which must
// be exactly rowSize bytes (the Image Writer/Block's row stride).
func (e *RowEvaluator) ComputeRow(y uint, dst []byte) {
	ctx := e.ctx
	depth := plot.SchemeDepth(ctx.Scheme)

	var bitCursor byte
	for x := uint(0); x < ctx.Width; x++ {
		result := e.evalPixel(x, y)

		switch depth {
		case plot.DepthASCII:
			dst[x] = color.ASCII(result)
		case plot.Depth1:
			offset := x % 8
			color.WriteBit(&bitCursor, offset, ctx.Scheme, result)
			if offset == 7 || x == ctx.Width-1 {
				dst[x/8] = bitCursor
				bitCursor = 0
			}
		case plot.Depth8:
			dst[x] = color.Greyscale8(result)
		case plot.Depth24:
			rgb := color.Scheme24(ctx.Scheme, result)
			dst[3*x] = rgb.R
			dst[3*x+1] = rgb.G
			dst[3*x+2] = rgb.B
		}
	}
}

func (e *RowEvaluator) evalPixel(x, y uint) kernel.Result {
	ctx := e.ctx
	switch ctx.Precision {
	case plot.Std:
		sample := ctx.Sample(x, y)
		if ctx.Kind == plot.Mandelbrot {
			return kernel.MandelbrotStd(sample, ctx.NMax)
		}
		return kernel.JuliaStd(sample, ctx.CStd, ctx.NMax)

	case plot.Ext:
		sample := sampleExt(ctx, x, y)
		if ctx.Kind == plot.Mandelbrot {
			return kernel.MandelbrotExt(sample, ctx.NMax)
		}
		return kernel.JuliaExt(sample, ctx.CExt, ctx.NMax)

	case plot.Multi:
		sample := sampleMulti(ctx, x, y)
		if ctx.Kind == plot.Mandelbrot {
			return kernel.MandelbrotMulti(sample, ctx.NMax, ctx.Bounds.Bits)
		}
		cJulia := kernel.MultiComplex{Re: ctx.CMulti.Re, Im: ctx.CMulti.Im}
		return kernel.JuliaMulti(sample, cJulia, ctx.NMax, ctx.Bounds.Bits)

	default:
		return kernel.Result{N: ctx.NMax, Escaped: false}
	}
}

func sampleExt(ctx *plot.CTX, x, y uint) plot.DDComplex {
	b := ctx.Bounds
	var dx, dy plot.DD
	if ctx.Width > 1 {
		dx = b.MaxExt.Re.Sub(b.MinExt.Re).MulFloat(1 / float64(ctx.Width-1))
	}
	if ctx.Height > 1 {
		dy = b.MaxExt.Im.Sub(b.MinExt.Im).MulFloat(1 / float64(ctx.Height-1))
	}
	re := b.MinExt.Re.Add(dx.MulFloat(float64(x)))
	im := b.MaxExt.Im.Sub(dy.MulFloat(float64(y)))
	return plot.DDComplex{Re: re, Im: im}
}

func sampleMulti(ctx *plot.CTX, x, y uint) kernel.MultiComplex {
	b := ctx.Bounds
	prec := b.Bits

	dx := new(big.Float).SetPrec(prec).SetMode(big.ToZero)
	if ctx.Width > 1 {
		dx.Sub(b.MaxMultiRe, b.MinMultiRe)
		dx.Quo(dx, big.NewFloat(float64(ctx.Width-1)))
	}
	dy := new(big.Float).SetPrec(prec).SetMode(big.ToZero)
	if ctx.Height > 1 {
		dy.Sub(b.MaxMultiIm, b.MinMultiIm)
		dy.Quo(dy, big.NewFloat(float64(ctx.Height-1)))
	}

	re := new(big.Float).SetPrec(prec).SetMode(big.ToZero)
	re.Mul(dx, big.NewFloat(float64(x)))
	re.Add(re, b.MinMultiRe)

	im := new(big.Float).SetPrec(prec).SetMode(big.ToZero)
	im.Mul(dy, big.NewFloat(float64(y)))
	im.Sub(b.MaxMultiIm, im)

	return kernel.MultiComplex{Re: re, Im: im}
}

// RenderBlock fills every active row of blk via ComputeRow, fanned out
// across threads and joined before returning.
func RenderBlock(ctx *plot.CTX, blk *block.Block, absoluteFirstRow uint, threads uint) error {
	eval := NewRowEvaluator(ctx)
	rowSize := blk.RowSize

	return RunBlock(context.Background(), threads, blk.ActiveRows(), func(localRow uint) error {
		y := absoluteFirstRow + localRow
		off := blk.RowOffset(localRow)
		eval.ComputeRow(y, blk.Array[off:off+rowSize])
		return nil
	})
}
