package master

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/AdamBromiley/rolymo/internal/block"
	"github.com/AdamBromiley/rolymo/internal/netproto"
	"github.com/AdamBromiley/rolymo/internal/plot"
	"github.com/AdamBromiley/rolymo/internal/pnm"
	"github.com/AdamBromiley/rolymo/internal/render"
	"github.com/AdamBromiley/rolymo/internal/worker"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

func testCTX(dest plot.Destination) *plot.CTX {
	return &plot.CTX{
		Kind:      plot.Mandelbrot,
		Precision: plot.Std,
		Bounds: plot.Bounds{
			MinStd: complex(-2.0, -1.25),
			MaxStd: complex(0.75, 1.25),
		},
		NMax:   80,
		Width:  40,
		Height: 30,
		Scheme: plot.Greyscale,
		Dest:   dest,
	}
}

// TestDispatcher_MatchesStandaloneRender checks that a master driving a
// single worker over TCP produces byte-identical output to rendering
// the same parameters directly in one process.
func TestDispatcher_MatchesStandaloneRender(t *testing.T) {
	dir := t.TempDir()
	distributedPath := filepath.Join(dir, "distributed.pgm")
	standalonePath := filepath.Join(dir, "standalone.pgm")

	distCTX := testCTX(plot.Destination{Path: distributedPath})
	standaloneCTX := testCTX(plot.Destination{Path: standalonePath})

	rowSize := block.RowSize(standaloneCTX.Width, uint(plot.SchemeDepth(standaloneCTX.Scheme)))
	plan, err := block.PlanBlocks(standaloneCTX.Height, rowSize, uint64(rowSize)*uint64(standaloneCTX.Height))
	require.NoError(t, err)

	standaloneWriter, err := pnm.Open(standaloneCTX.Dest, standaloneCTX.Width, standaloneCTX.Height, plot.SchemeDepth(standaloneCTX.Scheme))
	require.NoError(t, err)
	blk := block.NewBlock(plan, 0, false)
	require.NoError(t, render.RenderBlock(standaloneCTX, blk, 0, 4))
	require.NoError(t, standaloneWriter.WriteBlock(blk.Array, blk.RowSize))
	require.NoError(t, standaloneWriter.Close())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	distWriter, err := pnm.Open(distCTX.Dest, distCTX.Width, distCTX.Height, plot.SchemeDepth(distCTX.Scheme))
	require.NoError(t, err)

	logger := log.New(io.Discard)
	dispatcher := New(distCTX, distWriter, plan, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- dispatcher.Run(ctx, listener)
	}()

	workerDone := make(chan error, 1)
	go func() {
		workerDone <- worker.Run(ctx, listener.Addr().String(), 2, logger)
	}()

	require.NoError(t, <-runDone)
	require.NoError(t, distWriter.Close())
	require.NoError(t, <-workerDone)

	want, err := os.ReadFile(standalonePath)
	require.NoError(t, err)
	got, err := os.ReadFile(distributedPath)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

// faultyWorker completes the handshake, renders up to n rows, then
// closes the connection as if it had crashed, leaving whichever row it
// was mid-assignment on unacknowledged.
func faultyWorker(t *testing.T, addr string, n int) {
	t.Helper()

	conn, err := netproto.Dial(addr)
	require.NoError(t, err)
	defer conn.Close()

	prec, bits, err := conn.RecvPrecision()
	require.NoError(t, err)
	plotCTX, err := conn.RecvParams(prec, bits)
	require.NoError(t, err)

	rowSize := block.RowSize(plotCTX.Width, uint(plot.SchemeDepth(plotCTX.Scheme)))

	for i := 0; i < n; i++ {
		row, shutdown, err := conn.RecvRow()
		if err != nil || shutdown {
			return
		}
		blk := block.NewSingleRowBlock(uint(row), rowSize)
		require.NoError(t, render.RenderBlock(plotCTX, blk, uint(row), 1))
		if err := conn.SendRowPayload(blk.Array); err != nil {
			return
		}
	}
	// Simulate a crash: drop the connection without acknowledging
	// whatever row comes next.
}

// TestDispatcher_ReissuesRowAfterWorkerFault checks that a block still
// renders correctly when one worker disconnects partway through it and
// a second worker picks up the remaining rows.
func TestDispatcher_ReissuesRowAfterWorkerFault(t *testing.T) {
	dir := t.TempDir()
	distributedPath := filepath.Join(dir, "distributed.pgm")
	standalonePath := filepath.Join(dir, "standalone.pgm")

	distCTX := testCTX(plot.Destination{Path: distributedPath})
	standaloneCTX := testCTX(plot.Destination{Path: standalonePath})

	rowSize := block.RowSize(standaloneCTX.Width, uint(plot.SchemeDepth(standaloneCTX.Scheme)))
	plan, err := block.PlanBlocks(standaloneCTX.Height, rowSize, uint64(rowSize)*uint64(standaloneCTX.Height))
	require.NoError(t, err)

	standaloneWriter, err := pnm.Open(standaloneCTX.Dest, standaloneCTX.Width, standaloneCTX.Height, plot.SchemeDepth(standaloneCTX.Scheme))
	require.NoError(t, err)
	blk := block.NewBlock(plan, 0, false)
	require.NoError(t, render.RenderBlock(standaloneCTX, blk, 0, 4))
	require.NoError(t, standaloneWriter.WriteBlock(blk.Array, blk.RowSize))
	require.NoError(t, standaloneWriter.Close())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	distWriter, err := pnm.Open(distCTX.Dest, distCTX.Width, distCTX.Height, plot.SchemeDepth(distCTX.Scheme))
	require.NoError(t, err)

	logger := log.New(io.Discard)
	dispatcher := New(distCTX, distWriter, plan, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- dispatcher.Run(ctx, listener)
	}()

	// First worker renders a handful of rows, then drops the connection
	// mid-assignment without acknowledging its last row.
	faultyWorker(t, listener.Addr().String(), int(distCTX.Height)/3)

	// A second worker finishes the block, including the row the first
	// worker never reported.
	workerDone := make(chan error, 1)
	go func() {
		workerDone <- worker.Run(ctx, listener.Addr().String(), 2, logger)
	}()

	require.NoError(t, <-runDone)
	require.NoError(t, distWriter.Close())
	require.NoError(t, <-workerDone)

	want, err := os.ReadFile(standalonePath)
	require.NoError(t, err)
	got, err := os.ReadFile(distributedPath)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
