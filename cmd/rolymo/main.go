// Command rolymo renders an escape-time fractal image: standalone,
// as the master of a distributed render, or as a worker serving one.
package main

import (
	"context"
	"fmt"
	"math/big"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"

	"github.com/AdamBromiley/rolymo/internal/block"
	"github.com/AdamBromiley/rolymo/internal/config"
	"github.com/AdamBromiley/rolymo/internal/discovery"
	"github.com/AdamBromiley/rolymo/internal/master"
	"github.com/AdamBromiley/rolymo/internal/netproto"
	"github.com/AdamBromiley/rolymo/internal/plot"
	"github.com/AdamBromiley/rolymo/internal/pnm"
	"github.com/AdamBromiley/rolymo/internal/render"
	"github.com/AdamBromiley/rolymo/internal/rlog"
	"github.com/AdamBromiley/rolymo/internal/worker"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "rolymo:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := config.Parse(args)
	if err != nil {
		return err
	}

	logger := rlog.New(os.Stderr, flags.Verbosity)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch flags.Mode {
	case config.Worker:
		return runWorker(ctx, flags, logger)
	case config.Master:
		return runMaster(ctx, flags, logger)
	default:
		return runStandalone(ctx, flags, logger)
	}
}

func buildCTX(f *config.Flags) (*plot.CTX, error) {
	var kind plot.Kind
	switch f.Kind {
	case "mandelbrot":
		kind = plot.Mandelbrot
	case "julia":
		kind = plot.Julia
	default:
		return nil, fmt.Errorf("unknown plot kind %q", f.Kind)
	}

	precision, err := plot.ParsePrecision(f.Precision)
	if err != nil {
		return nil, err
	}

	scheme, err := plot.ParseScheme(f.Scheme)
	if err != nil {
		return nil, err
	}

	dest := plot.Destination{Path: f.Output, Terminal: f.Terminal}

	plotCTX := &plot.CTX{
		Kind:      kind,
		Precision: precision,
		NMax:      f.NMax,
		Width:     f.Width,
		Height:    f.Height,
		Scheme:    scheme,
		Dest:      dest,
	}

	switch precision {
	case plot.Std:
		min, err := netproto.ParseComplexStd(f.Min)
		if err != nil {
			return nil, fmt.Errorf("--min: %w", err)
		}
		max, err := netproto.ParseComplexStd(f.Max)
		if err != nil {
			return nil, fmt.Errorf("--max: %w", err)
		}
		plotCTX.Bounds.MinStd, plotCTX.Bounds.MaxStd = min, max
		if kind == plot.Julia {
			c, err := netproto.ParseComplexStd(f.C)
			if err != nil {
				return nil, fmt.Errorf("--c: %w", err)
			}
			plotCTX.CStd = c
		}

	case plot.Ext:
		min, err := netproto.ParseComplexExt(f.Min)
		if err != nil {
			return nil, fmt.Errorf("--min: %w", err)
		}
		max, err := netproto.ParseComplexExt(f.Max)
		if err != nil {
			return nil, fmt.Errorf("--max: %w", err)
		}
		plotCTX.Bounds.MinExt, plotCTX.Bounds.MaxExt = min, max
		if kind == plot.Julia {
			c, err := netproto.ParseComplexExt(f.C)
			if err != nil {
				return nil, fmt.Errorf("--c: %w", err)
			}
			plotCTX.CExt = c
		}

	case plot.Multi:
		plotCTX.Bounds.Bits = f.Bits
		minRe, minIm, err := netproto.ParseComplexMulti(f.Min, f.Bits)
		if err != nil {
			return nil, fmt.Errorf("--min: %w", err)
		}
		maxRe, maxIm, err := netproto.ParseComplexMulti(f.Max, f.Bits)
		if err != nil {
			return nil, fmt.Errorf("--max: %w", err)
		}
		plotCTX.Bounds.MinMultiRe, plotCTX.Bounds.MinMultiIm = minRe, minIm
		plotCTX.Bounds.MaxMultiRe, plotCTX.Bounds.MaxMultiIm = maxRe, maxIm
		if kind == plot.Julia {
			cRe, cIm, err := netproto.ParseComplexMulti(f.C, f.Bits)
			if err != nil {
				return nil, fmt.Errorf("--c: %w", err)
			}
			plotCTX.CMulti.Re, plotCTX.CMulti.Im = cRe, cIm
		} else {
			plotCTX.CMulti.Re = new(big.Float).SetPrec(f.Bits).SetMode(big.ToZero)
			plotCTX.CMulti.Im = new(big.Float).SetPrec(f.Bits).SetMode(big.ToZero)
		}
	}

	roundedWidth, warned, err := plotCTX.Validate()
	if err != nil {
		return nil, err
	}
	plotCTX.Width = roundedWidth
	if warned {
		fmt.Fprintf(os.Stderr, "rolymo: width rounded up to %d for 1-bit row alignment\n", roundedWidth)
	}

	return plotCTX, nil
}

func resolveOutput(plotCTX *plot.CTX, f *config.Flags) error {
	if f.Terminal || f.Output != "" {
		return nil
	}
	ext := "pbm"
	switch plot.SchemeDepth(plotCTX.Scheme) {
	case plot.DepthASCII:
		ext = "txt"
	case plot.Depth8:
		ext = "pgm"
	case plot.Depth24:
		ext = "ppm"
	}
	path, err := config.DefaultOutputPath(plotCTX.Kind.String(), ext)
	if err != nil {
		return err
	}
	plotCTX.Dest.Path = path
	return nil
}

func runStandalone(ctx context.Context, f *config.Flags, logger *log.Logger) error {
	plotCTX, err := buildCTX(f)
	if err != nil {
		return err
	}
	if err := resolveOutput(plotCTX, f); err != nil {
		return err
	}

	rowSize := block.RowSize(plotCTX.Width, uint(plot.SchemeDepth(plotCTX.Scheme)))
	budget := block.EffectiveBudget(f.MemMiB*1024*1024, freeMemory())
	plan, err := block.PlanBlocks(plotCTX.Height, rowSize, budget)
	if err != nil {
		return err
	}

	writer, err := pnm.Open(plotCTX.Dest, plotCTX.Width, plotCTX.Height, plot.SchemeDepth(plotCTX.Scheme))
	if err != nil {
		return err
	}
	defer writer.Close()

	threads := render.ClampThreads(int(f.Threads))

	totalBlocks := plan.BlockCount
	if plan.RemainderRows > 0 {
		totalBlocks++
	}

	for id := uint(0); id < totalBlocks; id++ {
		remainder := id == plan.BlockCount
		blk := block.NewBlock(plan, id, remainder)
		firstRow := id * plan.Rows

		if err := render.RenderBlock(plotCTX, blk, firstRow, threads); err != nil {
			return fmt.Errorf("render block %d: %w", id, err)
		}
		if err := writer.WriteBlock(blk.Array[:blk.ActiveSize()], blk.RowSize); err != nil {
			return fmt.Errorf("write block %d: %w", id, err)
		}
		logger.Info("block complete", "block", id, "rows", blk.ActiveRows())

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return writer.Close()
}

func runMaster(ctx context.Context, f *config.Flags, logger *log.Logger) error {
	plotCTX, err := buildCTX(f)
	if err != nil {
		return err
	}
	if err := resolveOutput(plotCTX, f); err != nil {
		return err
	}

	rowSize := block.RowSize(plotCTX.Width, uint(plot.SchemeDepth(plotCTX.Scheme)))
	budget := block.EffectiveBudget(f.MemMiB*1024*1024, freeMemory())
	plan, err := block.PlanBlocks(plotCTX.Height, rowSize, budget)
	if err != nil {
		return err
	}

	listener, err := listenTCP(f.Listen)
	if err != nil {
		return err
	}

	if f.Announce {
		port := listenerPort(listener)
		if err := discovery.Announce(ctx, "", port, logger); err != nil {
			logger.Warn("dns-sd announce failed", "err", err)
		}
	}

	writer, err := pnm.Open(plotCTX.Dest, plotCTX.Width, plotCTX.Height, plot.SchemeDepth(plotCTX.Scheme))
	if err != nil {
		return err
	}

	dispatcher := master.New(plotCTX, writer, plan, logger)
	if err := dispatcher.Run(ctx, listener); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

func runWorker(ctx context.Context, f *config.Flags, logger *log.Logger) error {
	addr := f.MasterAddr
	if addr == "" && f.Discover {
		peers, err := discovery.Browse(ctx, 5*time.Second, logger)
		if err != nil {
			return err
		}
		if len(peers) == 0 {
			return fmt.Errorf("discover: no master found")
		}
		addr = peers[0].Addr
		logger.Info("discovered master", "addr", addr)
	}
	if addr == "" {
		return fmt.Errorf("worker mode requires --master or --discover")
	}

	threads := render.ClampThreads(int(f.Threads))
	return worker.Run(ctx, addr, threads, logger)
}

// listenTCP opens the master's listening socket, applying SO_REUSEADDR
// so a restarted master can rebind immediately.
func listenTCP(addr string) (net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	if tcpListener, ok := listener.(*net.TCPListener); ok {
		if file, err := tcpListener.File(); err == nil {
			defer file.Close()
			_ = unix.SetsockoptInt(int(file.Fd()), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		}
	}

	return listener, nil
}

func listenerPort(listener net.Listener) int {
	if addr, ok := listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// freeMemory reports free physical memory in bytes, for the block
// planner's default budget when no explicit --mem is given, via
// unix.Sysinfo (Linux only). Returns 0 if the call fails, which leaves a
// zero default budget, so block planning then fails unless --mem is set.
func freeMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	return uint64(info.Freeram) * uint64(info.Unit)
}
