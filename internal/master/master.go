// Package master implements the distribution side of a render: it
// accepts worker connections, hands out rows one block at a time from a
// Row Stack, reissues a row whose worker disconnects mid-computation, and
// flushes each block to the Image Writer as it completes.
//
// One dispatcher goroutine owns the Row Stack and the in-progress block
// buffer exclusively; the goroutine serving each worker connection only
// ever talks to it over a request/result channel pair, never touching
// that state directly.
package master

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/AdamBromiley/rolymo/internal/block"
	"github.com/AdamBromiley/rolymo/internal/netproto"
	"github.com/AdamBromiley/rolymo/internal/plot"
	"github.com/AdamBromiley/rolymo/internal/pnm"
	"github.com/charmbracelet/log"
)

// workRequest is a worker session asking the dispatcher for its next row.
type workRequest struct {
	reply chan workAssignment
}

// workAssignment answers a workRequest: either a row to compute, or
// Shutdown once every block is complete.
type workAssignment struct {
	AbsoluteRow uint
	BlockID     uint
	LocalRow    uint
	RowSize     uint
	Shutdown    bool
}

// workResult reports a row's outcome back to the dispatcher: the
// computed bytes, or a non-nil Err if the worker disconnected first.
type workResult struct {
	BlockID  uint
	LocalRow uint
	Data     []byte
	Err      error
}

// Dispatcher is the Master Dispatcher's single-goroutine state machine.
type Dispatcher struct {
	ctx    *plot.CTX
	plan   block.Plan
	writer *pnm.Writer
	logger *log.Logger

	reqCh chan workRequest
	resCh chan workResult

	wg sync.WaitGroup
}

// New builds a Dispatcher for one render, ready to Run against an
// already-open listener.
func New(ctx *plot.CTX, writer *pnm.Writer, plan block.Plan, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		ctx:    ctx,
		plan:   plan,
		writer: writer,
		logger: logger,
		reqCh:  make(chan workRequest),
		resCh:  make(chan workResult),
	}
}

// Run accepts connections on listener, drives every block to completion,
// then tells any still-connected worker to shut down (by closing its
// connection) and waits for its session to exit before returning. It returns early if
// ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, listener net.Listener) error {
	go d.acceptLoop(ctx, listener)

	err := d.dispatch(ctx)

	_ = listener.Close()
	d.drainShutdown(ctx)

	return err
}

func (d *Dispatcher) acceptLoop(ctx context.Context, listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
				d.logger.Error("accept failed", "err", err)
				return
			}
		}
		d.wg.Add(1)
		go d.serveWorker(ctx, conn)
	}
}

// drainShutdown replies Shutdown to every worker request still arriving
// (a session mid-RecvRowPayload when the last block flushed) until every
// serveWorker goroutine this dispatcher started has returned.
func (d *Dispatcher) drainShutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case req := <-d.reqCh:
			req.reply <- workAssignment{Shutdown: true}
		case <-d.resCh:
		}
	}
}

// serveWorker performs the handshake with one worker, then repeatedly
// requests rows from the dispatcher and forwards them over the wire
// until told to shut down or the connection fails.
func (d *Dispatcher) serveWorker(ctx context.Context, conn net.Conn) {
	defer d.wg.Done()

	c := netproto.NewConn(conn)
	defer c.Close()

	bits := uint(0)
	if d.ctx.Precision == plot.Multi {
		bits = d.ctx.Bounds.Bits
	}
	if err := c.SendPrecision(d.ctx.Precision, bits); err != nil {
		d.logger.Warn("precision handshake failed", "remote", conn.RemoteAddr(), "err", err)
		return
	}
	if err := c.SendParams(d.ctx); err != nil {
		d.logger.Warn("parameter handshake failed", "remote", conn.RemoteAddr(), "err", err)
		return
	}
	d.logger.Info("worker joined", "remote", conn.RemoteAddr())

	for {
		reply := make(chan workAssignment)
		select {
		case d.reqCh <- workRequest{reply: reply}:
		case <-ctx.Done():
			return
		}

		var assignment workAssignment
		select {
		case assignment = <-reply:
		case <-ctx.Done():
			return
		}

		if assignment.Shutdown {
			_ = c.SendRow(0, true)
			d.logger.Info("worker released", "remote", conn.RemoteAddr())
			return
		}

		if err := c.SendRow(uint64(assignment.AbsoluteRow), false); err != nil {
			d.reportFailure(assignment)
			return
		}

		data, err := c.RecvRowPayload(assignment.RowSize)
		if err != nil {
			d.logger.Warn("worker disconnected mid-row", "remote", conn.RemoteAddr(), "row", assignment.AbsoluteRow, "err", err)
			d.reportFailure(assignment)
			return
		}

		select {
		case d.resCh <- workResult{BlockID: assignment.BlockID, LocalRow: assignment.LocalRow, Data: data}:
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) reportFailure(a workAssignment) {
	d.resCh <- workResult{BlockID: a.BlockID, LocalRow: a.LocalRow, Err: fmt.Errorf("master: worker lost row %d", a.AbsoluteRow)}
}

// dispatch runs the blocks in order, handing out and reissuing rows for
// one block at a time before flushing it, then replies Shutdown to every
// request still waiting for a row and returns. Requests arriving after
// that are answered by drainShutdown.
func (d *Dispatcher) dispatch(ctx context.Context) error {
	totalBlocks := d.plan.BlockCount
	if d.plan.RemainderRows > 0 {
		totalBlocks++
	}

	var waiting []chan workAssignment

	for blockID := uint(0); blockID < totalBlocks; blockID++ {
		remainder := blockID == d.plan.BlockCount
		blk := block.NewBlock(d.plan, blockID, remainder)
		stack := block.NewRowStack(0, blk.ActiveRows())
		firstAbsoluteRow := blockID * d.plan.Rows
		outstanding := 0

		assign := func(reply chan workAssignment) {
			row, _ := stack.Pop()
			outstanding++
			reply <- workAssignment{
				AbsoluteRow: firstAbsoluteRow + row,
				BlockID:     blockID,
				LocalRow:    row,
				RowSize:     blk.RowSize,
			}
		}

		for len(waiting) > 0 && !stack.Empty() {
			reply := waiting[0]
			waiting = waiting[1:]
			assign(reply)
		}

		for !stack.Empty() || outstanding > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()

			case req := <-d.reqCh:
				if !stack.Empty() {
					assign(req.reply)
				} else {
					waiting = append(waiting, req.reply)
				}

			case res := <-d.resCh:
				if res.BlockID != blockID {
					continue
				}
				outstanding--
				if res.Err != nil {
					_ = stack.Push(res.LocalRow)
					if len(waiting) > 0 {
						reply := waiting[0]
						waiting = waiting[1:]
						assign(reply)
					}
					continue
				}
				off := blk.RowOffset(res.LocalRow)
				copy(blk.Array[off:off+blk.RowSize], res.Data)
			}
		}

		if err := d.writer.WriteBlock(blk.Array[:blk.ActiveSize()], blk.RowSize); err != nil {
			return fmt.Errorf("master: flush block %d: %w", blockID, err)
		}
		d.logger.Info("block complete", "block", blockID, "rows", blk.ActiveRows())
	}

	for _, reply := range waiting {
		select {
		case reply <- workAssignment{Shutdown: true}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}
