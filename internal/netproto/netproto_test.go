package netproto

import (
	"math/big"
	"net"
	"testing"

	"github.com/AdamBromiley/rolymo/internal/plot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestComplexStd_RoundTrips(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		re := rapid.Float64Range(-1e10, 1e10).Draw(t, "re")
		im := rapid.Float64Range(-1e10, 1e10).Draw(t, "im")

		c := complex(re, im)
		tok := FormatComplexStd(c)
		got, err := ParseComplexStd(tok)
		require.NoError(t, err)
		assert.InDelta(t, re, real(got), 1e-9*(1+abs(re)))
		assert.InDelta(t, im, imag(got), 1e-9*(1+abs(im)))
	})
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func TestComplexExt_RoundTrips(t *testing.T) {
	c := plot.DDComplex{Re: plot.NewDD(1.0 / 3), Im: plot.NewDD(-2.0 / 7)}
	tok := FormatComplexExt(c)
	got, err := ParseComplexExt(tok)
	require.NoError(t, err)
	assert.InDelta(t, c.Re.Float64(), got.Re.Float64(), 1e-20)
	assert.InDelta(t, c.Im.Float64(), got.Im.Float64(), 1e-20)
}

func TestComplexMulti_RoundTrips(t *testing.T) {
	const bits = 256
	re := new(big.Float).SetPrec(bits).SetMode(big.ToZero)
	re.SetFloat64(0.1234567890123)
	im := new(big.Float).SetPrec(bits).SetMode(big.ToZero)
	im.SetFloat64(-0.9876543210987)

	tok := FormatComplexMulti(re, im, bits)
	gotRe, gotIm, err := ParseComplexMulti(tok, bits)
	require.NoError(t, err)
	assert.Equal(t, 0, re.Cmp(gotRe))
	assert.Equal(t, 0, im.Cmp(gotIm))
}

func TestSplitComplexToken_HandlesExponentSigns(t *testing.T) {
	re, im, err := splitComplexToken("1.5e-10+2.3e+5i")
	require.NoError(t, err)
	assert.Equal(t, "1.5e-10", re)
	assert.Equal(t, "+2.3e+5", im)
}

func TestPrecisionFrame_RoundTrips(t *testing.T) {
	frame, err := EncodePrecisionFrame(plot.Multi, 512)
	require.NoError(t, err)

	p, bits, err := DecodePrecisionFrame(frame[:])
	require.NoError(t, err)
	assert.Equal(t, plot.Multi, p)
	assert.Equal(t, uint(512), bits)
}

func TestRowFrame_RoundTrips(t *testing.T) {
	frame, err := EncodeRowFrame(1234)
	require.NoError(t, err)

	row, err := DecodeRowFrame(frame[:])
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), row)
}

func TestConn_HandshakeOverPipe(t *testing.T) {
	masterSide, workerSide := net.Pipe()
	defer masterSide.Close()
	defer workerSide.Close()

	master := NewConn(masterSide)
	worker := NewConn(workerSide)

	ctx := &plot.CTX{
		Kind:      plot.Mandelbrot,
		Precision: plot.Std,
		Bounds: plot.Bounds{
			MinStd: complex(-2, -1.25),
			MaxStd: complex(0.75, 1.25),
		},
		NMax:   500,
		Width:  800,
		Height: 600,
		Scheme: plot.Rainbow,
	}

	done := make(chan error, 1)
	go func() {
		if err := master.SendPrecision(ctx.Precision, 0); err != nil {
			done <- err
			return
		}
		done <- master.SendParams(ctx)
	}()

	p, bits, err := worker.RecvPrecision()
	require.NoError(t, err)
	assert.Equal(t, plot.Std, p)
	assert.Equal(t, uint(0), bits)

	got, err := worker.RecvParams(p, bits)
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.Equal(t, ctx.Kind, got.Kind)
	assert.Equal(t, ctx.Width, got.Width)
	assert.Equal(t, ctx.Height, got.Height)
	assert.Equal(t, ctx.NMax, got.NMax)
	assert.Equal(t, ctx.Scheme, got.Scheme)
	assert.InDelta(t, real(ctx.Bounds.MinStd), real(got.Bounds.MinStd), 1e-9)
	assert.InDelta(t, imag(ctx.Bounds.MaxStd), imag(got.Bounds.MaxStd), 1e-9)
}

func TestConn_RowAssignmentAndShutdown(t *testing.T) {
	masterSide, workerSide := net.Pipe()
	master := NewConn(masterSide)
	worker := NewConn(workerSide)

	go func() {
		_ = master.SendRow(42, false)
		_ = master.SendRow(0, true)
	}()

	row, shutdown, err := worker.RecvRow()
	require.NoError(t, err)
	assert.False(t, shutdown)
	assert.Equal(t, uint64(42), row)

	_, shutdown, err = worker.RecvRow()
	require.NoError(t, err)
	assert.True(t, shutdown)
}
