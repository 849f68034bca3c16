package netproto

import (
	"fmt"
	"io"
	"net"

	"golang.org/x/sys/unix"

	"github.com/AdamBromiley/rolymo/internal/plot"
)

// Conn wraps a net.Conn with the fixed-frame read/write primitives every
// peer (master and worker) builds the handshake and row protocol on top
// of. Each Conn is owned by exactly one goroutine and uses io.ReadFull
// for reads and net.Conn.Write for writes, which already block across
// short reads/writes on a stream socket.
type Conn struct {
	net.Conn
}

// NewConn wraps an established connection, disabling Nagle's algorithm:
// the row protocol is many small request/response round-trips, and
// batching them for a larger segment would only add latency.
func NewConn(c net.Conn) *Conn {
	setNoDelay(c)
	return &Conn{Conn: c}
}

// Dial opens a new protocol connection to a master or worker.
func Dial(addr string) (*Conn, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("netproto: dial %s: %w", addr, err)
	}
	return NewConn(c), nil
}

// setNoDelay sets TCP_NODELAY on c's underlying socket, mirroring the
// SO_REUSEADDR tuning cmd/rolymo applies to the listening socket. It is
// a no-op for anything other than a *net.TCPConn (e.g. net.Pipe in
// tests).
func setNoDelay(c net.Conn) {
	tcpConn, ok := c.(*net.TCPConn)
	if !ok {
		return
	}
	file, err := tcpConn.File()
	if err != nil {
		return
	}
	defer file.Close()
	_ = unix.SetsockoptInt(int(file.Fd()), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
}

func (c *Conn) readFrame() ([ControlFrameSize]byte, error) {
	var frame [ControlFrameSize]byte
	if _, err := io.ReadFull(c.Conn, frame[:]); err != nil {
		return frame, err
	}
	return frame, nil
}

func (c *Conn) writeFrame(frame [ControlFrameSize]byte) error {
	_, err := c.Conn.Write(frame[:])
	return err
}

// SendPrecision writes the precision handshake frame.
func (c *Conn) SendPrecision(p plot.Precision, bits uint) error {
	frame, err := EncodePrecisionFrame(p, bits)
	if err != nil {
		return err
	}
	return c.writeFrame(frame)
}

// RecvPrecision reads and parses the precision handshake frame.
func (c *Conn) RecvPrecision() (plot.Precision, uint, error) {
	frame, err := c.readFrame()
	if err != nil {
		return 0, 0, fmt.Errorf("netproto: recv precision: %w", err)
	}
	return DecodePrecisionFrame(frame[:])
}

// SendParams writes the parameter handshake frame.
func (c *Conn) SendParams(ctx *plot.CTX) error {
	frame, err := EncodeParamFrame(ctx)
	if err != nil {
		return err
	}
	return c.writeFrame(frame)
}

// RecvParams reads and parses the parameter handshake frame for an
// already-negotiated precision.
func (c *Conn) RecvParams(prec plot.Precision, bits uint) (*plot.CTX, error) {
	frame, err := c.readFrame()
	if err != nil {
		return nil, fmt.Errorf("netproto: recv params: %w", err)
	}
	return DecodeParamFrame(frame[:], prec, bits)
}

// SendRow assigns a row to the peer, or signals shutdown when shutdown is
// true (the row value is then ignored).
func (c *Conn) SendRow(row uint64, shutdown bool) error {
	if shutdown {
		return c.Conn.Close()
	}
	frame, err := EncodeRowFrame(row)
	if err != nil {
		return err
	}
	return c.writeFrame(frame)
}

// RecvRow reads a row assignment. A closed connection (EOF with zero
// bytes read) reports shutdown=true rather than an error, so a worker
// can exit cleanly when the master hangs up.
func (c *Conn) RecvRow() (row uint64, shutdown bool, err error) {
	frame, err := c.readFrame()
	if err != nil {
		if err == io.EOF {
			return 0, true, nil
		}
		return 0, false, fmt.Errorf("netproto: recv row: %w", err)
	}
	row, err = DecodeRowFrame(frame[:])
	if err != nil {
		return 0, false, err
	}
	return row, false, nil
}

// SendRowPayload writes a computed row's raw pixel bytes.
func (c *Conn) SendRowPayload(data []byte) error {
	_, err := c.Conn.Write(data)
	return err
}

// RecvRowPayload reads exactly rowSize bytes of computed row data.
func (c *Conn) RecvRowPayload(rowSize uint) ([]byte, error) {
	buf := make([]byte, rowSize)
	if _, err := io.ReadFull(c.Conn, buf); err != nil {
		return nil, fmt.Errorf("netproto: recv row payload: %w", err)
	}
	return buf, nil
}
