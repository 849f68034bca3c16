// Package worker connects to a master, completes its handshake, then
// repeatedly receives a row index, renders it with the local thread
// pool, and returns the bytes, exiting cleanly when the master signals
// shutdown.
package worker

import (
	"context"
	"fmt"

	"github.com/AdamBromiley/rolymo/internal/block"
	"github.com/AdamBromiley/rolymo/internal/netproto"
	"github.com/AdamBromiley/rolymo/internal/plot"
	"github.com/AdamBromiley/rolymo/internal/render"
	"github.com/charmbracelet/log"
)

// Run dials addr, completes the handshake, and services row assignments
// until the master closes the connection, which is how it signals
// shutdown. threads is passed to the local thread pool, which splits
// work by rows; since each assignment is a single row, that row's
// columns are computed by one goroutine.
func Run(ctx context.Context, addr string, threads uint, logger *log.Logger) error {
	conn, err := netproto.Dial(addr)
	if err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	defer conn.Close()

	precision, bits, err := conn.RecvPrecision()
	if err != nil {
		return fmt.Errorf("worker: precision handshake: %w", err)
	}

	plotCTX, err := conn.RecvParams(precision, bits)
	if err != nil {
		return fmt.Errorf("worker: parameter handshake: %w", err)
	}

	rowSize := block.RowSize(plotCTX.Width, uint(plot.SchemeDepth(plotCTX.Scheme)))

	logger.Info("connected to master", "addr", addr, "precision", precision, "width", plotCTX.Width, "height", plotCTX.Height)

	for {
		row, shutdown, err := conn.RecvRow()
		if err != nil {
			return fmt.Errorf("worker: receive row: %w", err)
		}
		if shutdown {
			logger.Info("master released worker")
			return nil
		}

		blk := block.NewSingleRowBlock(uint(row), rowSize)
		if err := render.RenderBlock(plotCTX, blk, uint(row), threads); err != nil {
			return fmt.Errorf("worker: render row %d: %w", row, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := conn.SendRowPayload(blk.Array); err != nil {
			return fmt.Errorf("worker: send row %d: %w", row, err)
		}
	}
}
