package render

import (
	"testing"

	"github.com/AdamBromiley/rolymo/internal/block"
	"github.com/AdamBromiley/rolymo/internal/plot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCTX() *plot.CTX {
	return &plot.CTX{
		Kind:      plot.Mandelbrot,
		Precision: plot.Std,
		Bounds: plot.Bounds{
			MinStd: complex(-2.0, -1.25),
			MaxStd: complex(0.75, 1.25),
		},
		NMax:   100,
		Width:  64,
		Height: 48,
		Scheme: plot.Rainbow,
	}
}

// TestRenderBlock_DeterministicAcrossThreadCounts checks that the same
// parameters produce byte-identical output regardless of thread count.
func TestRenderBlock_DeterministicAcrossThreadCounts(t *testing.T) {
	ctx := newTestCTX()
	rowSize := block.RowSize(ctx.Width, uint(plot.SchemeDepth(ctx.Scheme)))

	plan, err := block.PlanBlocks(ctx.Height, rowSize, uint64(rowSize)*uint64(ctx.Height))
	require.NoError(t, err)

	render := func(threads uint) []byte {
		blk := block.NewBlock(plan, 0, false)
		require.NoError(t, RenderBlock(ctx, blk, 0, threads))
		return append([]byte(nil), blk.Array...)
	}

	serial := render(1)
	parallel := render(8)
	assert.Equal(t, serial, parallel)
}
