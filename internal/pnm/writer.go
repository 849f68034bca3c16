// Package pnm streams a rendered image to its destination: it opens the
// destination once, emits the PNM header matching bit depth, then
// appends raw block bytes as each block completes. ASCII/terminal output
// is line-terminated text instead.
package pnm

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/AdamBromiley/rolymo/internal/plot"
)

// Writer streams a rendered image to its destination: a file, opened and
// closed once, or a terminal, written to directly. Closing is reported
// but non-fatal for output that has already been generated.
type Writer struct {
	w      *bufio.Writer
	closer io.Closer
	ascii  bool
}

// magicNumber returns the PNM header token for a bit depth: P4 for 1-bit,
// P5 for 8-bit, P6 for 24-bit. ASCII/terminal output has no header.
func magicNumber(depth plot.Depth) (string, bool) {
	switch depth {
	case plot.Depth1:
		return "P4", true
	case plot.Depth8:
		return "P5", true
	case plot.Depth24:
		return "P6", true
	default:
		return "", false
	}
}

// Open creates the Writer for dest and, for binary depths, writes the PNM
// header: "Pk W H [MAX] " with a trailing space before the binary body
// (MAX=255 for P5/P6, absent for P4).
func Open(dest plot.Destination, width, height uint, depth plot.Depth) (*Writer, error) {
	var out io.Writer
	var closer io.Closer

	if dest.Terminal || dest.Path == "" {
		out = os.Stdout
	} else {
		f, err := os.Create(dest.Path)
		if err != nil {
			return nil, fmt.Errorf("pnm: open %q: %w", dest.Path, err)
		}
		out = f
		closer = f
	}

	bw := bufio.NewWriter(out)
	wr := &Writer{w: bw, closer: closer, ascii: depth == plot.DepthASCII}

	if magic, ok := magicNumber(depth); ok {
		header := fmt.Sprintf("%s %d %d ", magic, width, height)
		if depth != plot.Depth1 {
			header = fmt.Sprintf("%s %d %d 255 ", magic, width, height)
		}
		if _, err := bw.WriteString(header); err != nil {
			_ = wr.Close()
			return nil, fmt.Errorf("pnm: write header: %w", err)
		}
	}

	return wr, nil
}

// WriteBlock appends exactly len(data) raw bytes: a completed block's
// pixel bytes for binary depths, or (for ASCII) the rows of the block with
// each row followed by a newline.
func (wr *Writer) WriteBlock(data []byte, rowSize uint) error {
	if !wr.ascii {
		if _, err := wr.w.Write(data); err != nil {
			return fmt.Errorf("pnm: write block: %w", err)
		}
		return nil
	}

	for off := uint(0); off < uint(len(data)); off += rowSize {
		end := off + rowSize
		if end > uint(len(data)) {
			end = uint(len(data))
		}
		if _, err := wr.w.Write(data[off:end]); err != nil {
			return fmt.Errorf("pnm: write ascii row: %w", err)
		}
		if err := wr.w.WriteByte('\n'); err != nil {
			return fmt.Errorf("pnm: write ascii newline: %w", err)
		}
	}
	return nil
}

// Close flushes buffered output and closes the underlying file, if any.
// A close failure is returned but is never a reason to consider the
// already-written image invalid.
func (wr *Writer) Close() error {
	if err := wr.w.Flush(); err != nil {
		return fmt.Errorf("pnm: flush: %w", err)
	}
	if wr.closer != nil {
		if err := wr.closer.Close(); err != nil {
			return fmt.Errorf("pnm: close: %w", err)
		}
	}
	return nil
}
